package domain

type ProviderKind string

const (
	KindLinkRanking     ProviderKind = "link_ranking"
	KindAnswerSynthesis ProviderKind = "answer_synthesis"
	KindResearch        ProviderKind = "research"
	KindGraph           ProviderKind = "graph"
)

// LatencyClass orders providers by expected response time; the ordinal
// value is the selection tie-break (narrower class first).
type LatencyClass int

const (
	LatencyFast LatencyClass = iota
	LatencyStandard
	LatencySlow
)

func (c LatencyClass) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c LatencyClass) String() string {
	switch c {
	case LatencyFast:
		return "fast"
	case LatencyStandard:
		return "standard"
	case LatencySlow:
		return "slow"
	default:
		return "unknown"
	}
}

// ProviderCapability is the read-only metadata one adapter registers at
// process start. Selection logic sees only this, never concrete adapters.
type ProviderCapability struct {
	Name         string       `json:"name"`
	Kind         ProviderKind `json:"kind"`
	LatencyClass LatencyClass `json:"latency_class"`
	Intents      []Intent     `json:"intents"`
}

func (c ProviderCapability) SupportsIntent(intent Intent) bool {
	for _, candidate := range c.Intents {
		if candidate == intent {
			return true
		}
	}
	return false
}

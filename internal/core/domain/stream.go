package domain

// Strategy is the retrieval mode the conversational dispatcher picks
// from the query text alone.
type Strategy string

const (
	StrategyVector Strategy = "vector"
	StrategyGraph  Strategy = "graph"
	StrategyHybrid Strategy = "hybrid"
)

// StreamFragment is one increment of a conversational response. The
// fragment sequence for a request is finite, ordered by Seq, consumed
// exactly once, and not restartable.
type StreamFragment struct {
	Seq   int    `json:"seq"`
	Text  string `json:"text,omitempty"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// DispatchState tracks the per-request progression of the dispatcher.
type DispatchState string

const (
	DispatchReceived    DispatchState = "received"
	DispatchClassifying DispatchState = "classifying"
	DispatchExecuting   DispatchState = "executing"
	DispatchStreaming   DispatchState = "streaming"
	DispatchCompleted   DispatchState = "completed"
	DispatchFailed      DispatchState = "failed"
)

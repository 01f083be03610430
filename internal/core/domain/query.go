package domain

import (
	"fmt"
	"strings"
)

type Intent string

const (
	IntentGeneral Intent = "general"
	IntentJob     Intent = "job"
	IntentCompany Intent = "company"
	IntentPerson  Intent = "person"
	IntentNews    Intent = "news"
)

type Urgency string

const (
	UrgencyFast          Urgency = "fast"
	UrgencyBalanced      Urgency = "balanced"
	UrgencyComprehensive Urgency = "comprehensive"
)

const (
	DefaultMaxResults = 10
	minQueryLength    = 2
)

// SearchQuery is the immutable per-request input to the engine.
type SearchQuery struct {
	Text       string  `json:"text"`
	Intent     Intent  `json:"intent"`
	Urgency    Urgency `json:"urgency"`
	Location   string  `json:"location,omitempty"`
	Company    string  `json:"company,omitempty"`
	MaxResults int     `json:"max_results"`
}

func ParseIntent(raw string) (Intent, error) {
	switch Intent(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentGeneral, "":
		return IntentGeneral, nil
	case IntentJob:
		return IntentJob, nil
	case IntentCompany:
		return IntentCompany, nil
	case IntentPerson:
		return IntentPerson, nil
	case IntentNews:
		return IntentNews, nil
	default:
		return "", WrapError(ErrInvalidQuery, "parse intent", fmt.Errorf("unsupported intent: %q", raw))
	}
}

func ParseUrgency(raw string) (Urgency, error) {
	switch Urgency(strings.ToLower(strings.TrimSpace(raw))) {
	case UrgencyFast:
		return UrgencyFast, nil
	case UrgencyBalanced, "":
		return UrgencyBalanced, nil
	case UrgencyComprehensive:
		return UrgencyComprehensive, nil
	default:
		return "", WrapError(ErrInvalidQuery, "parse urgency", fmt.Errorf("unsupported urgency: %q", raw))
	}
}

// NewSearchQuery trims and validates caller input and applies defaults.
func NewSearchQuery(text string, intent Intent, urgency Urgency) (SearchQuery, error) {
	q := SearchQuery{
		Text:       strings.TrimSpace(text),
		Intent:     intent,
		Urgency:    urgency,
		MaxResults: DefaultMaxResults,
	}
	if q.Intent == "" {
		q.Intent = IntentGeneral
	}
	if q.Urgency == "" {
		q.Urgency = UrgencyBalanced
	}
	if err := q.Validate(); err != nil {
		return SearchQuery{}, err
	}
	return q, nil
}

func (q SearchQuery) Validate() error {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return WrapError(ErrInvalidQuery, "validate query", fmt.Errorf("text is required"))
	}
	if len([]rune(text)) < minQueryLength {
		return WrapError(ErrInvalidQuery, "validate query", fmt.Errorf("text is too short"))
	}
	if q.MaxResults <= 0 {
		return WrapError(ErrInvalidQuery, "validate query", fmt.Errorf("max_results must be positive"))
	}
	if _, err := ParseIntent(string(q.Intent)); err != nil {
		return err
	}
	if _, err := ParseUrgency(string(q.Urgency)); err != nil {
		return err
	}
	return nil
}

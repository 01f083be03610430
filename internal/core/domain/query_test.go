package domain

import (
	"errors"
	"testing"
)

func TestNewSearchQueryAppliesDefaults(t *testing.T) {
	q, err := NewSearchQuery("latest golang release", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Intent != IntentGeneral {
		t.Fatalf("expected default intent general, got %s", q.Intent)
	}
	if q.Urgency != UrgencyBalanced {
		t.Fatalf("expected default urgency balanced, got %s", q.Urgency)
	}
	if q.MaxResults != DefaultMaxResults {
		t.Fatalf("expected default max results %d, got %d", DefaultMaxResults, q.MaxResults)
	}
}

func TestNewSearchQueryRejectsEmptyText(t *testing.T) {
	_, err := NewSearchQuery("   ", IntentGeneral, UrgencyBalanced)
	if !IsKind(err, ErrInvalidQuery) {
		t.Fatalf("expected invalid query error, got %v", err)
	}
}

func TestNewSearchQueryRejectsTooShortText(t *testing.T) {
	_, err := NewSearchQuery("a", IntentGeneral, UrgencyBalanced)
	if !IsKind(err, ErrInvalidQuery) {
		t.Fatalf("expected invalid query error, got %v", err)
	}
}

func TestValidateRejectsNonPositiveMaxResults(t *testing.T) {
	q := SearchQuery{Text: "golang", Intent: IntentGeneral, Urgency: UrgencyBalanced, MaxResults: 0}
	if err := q.Validate(); !IsKind(err, ErrInvalidQuery) {
		t.Fatalf("expected invalid query error, got %v", err)
	}
}

func TestParseIntent(t *testing.T) {
	cases := []struct {
		raw  string
		want Intent
	}{
		{"", IntentGeneral},
		{"general", IntentGeneral},
		{"NEWS", IntentNews},
		{" person ", IntentPerson},
		{"company", IntentCompany},
		{"job", IntentJob},
	}
	for _, tc := range cases {
		got, err := ParseIntent(tc.raw)
		if err != nil {
			t.Fatalf("ParseIntent(%q): unexpected error %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseIntent(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}

	if _, err := ParseIntent("video"); !IsKind(err, ErrInvalidQuery) {
		t.Fatalf("expected invalid query for unknown intent, got %v", err)
	}
}

func TestParseUrgency(t *testing.T) {
	if got, err := ParseUrgency(""); err != nil || got != UrgencyBalanced {
		t.Fatalf("ParseUrgency(\"\") = %s, %v; want balanced", got, err)
	}
	if got, err := ParseUrgency("FAST"); err != nil || got != UrgencyFast {
		t.Fatalf("ParseUrgency(FAST) = %s, %v; want fast", got, err)
	}
	if _, err := ParseUrgency("asap"); !IsKind(err, ErrInvalidQuery) {
		t.Fatalf("expected invalid query for unknown urgency, got %v", err)
	}
}

func TestWrapErrorKeepsKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	wrapped := WrapError(ErrProviderTimeout, "serper call", cause)

	if !IsKind(wrapped, ErrProviderTimeout) {
		t.Fatalf("expected timeout kind, got %v", wrapped)
	}
	if IsKind(wrapped, ErrProviderRateLimited) {
		t.Fatalf("wrapped error matched a foreign kind")
	}
	if !errors.Is(wrapped, cause) {
		t.Fatalf("wrapped error lost its cause")
	}
}

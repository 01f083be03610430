package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/questera/webintel/internal/core/domain"
)

type recordingPublisher struct {
	mu        sync.Mutex
	fragments []domain.StreamFragment
}

func (p *recordingPublisher) PublishFragment(_ context.Context, _ string, fragment domain.StreamFragment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fragments = append(p.fragments, fragment)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.fragments)
}

func collectFragments(t *testing.T, fragments <-chan domain.StreamFragment) []domain.StreamFragment {
	t.Helper()
	var out []domain.StreamFragment
	timeout := time.After(2 * time.Second)
	for {
		select {
		case fragment, ok := <-fragments:
			if !ok {
				return out
			}
			out = append(out, fragment)
		case <-timeout:
			t.Fatalf("stream did not finish in time, collected %d fragments", len(out))
		}
	}
}

func newTestDispatcher(t *testing.T, chunkChars int, providers ...*fakeProvider) (*ConversationalDispatcher, *recordingPublisher) {
	t.Helper()
	reg := buildRegistry(t, providers...)
	engine := NewAggregationEngine(reg, NewStrategySelector(reg, DefaultBudgets()), nil, 0.5)
	publisher := &recordingPublisher{}
	return NewConversationalDispatcher(engine, publisher, nil, chunkChars), publisher
}

func TestStreamSearchEmitsOrderedFragmentsWithTerminalDone(t *testing.T) {
	provider := fakeWith("linkup", domain.KindAnswerSynthesis, domain.LatencyStandard)
	provider.result = &domain.ProviderResult{Answer: strings.Repeat("concurrency in Go is built on goroutines. ", 6)}

	dispatcher, publisher := newTestDispatcher(t, 40, provider)

	fragments, err := dispatcher.StreamSearch(context.Background(), mustQuery(t, "how do goroutines work", domain.IntentGeneral, domain.UrgencyBalanced))
	if err != nil {
		t.Fatalf("stream search: %v", err)
	}

	collected := collectFragments(t, fragments)
	if len(collected) < 3 {
		t.Fatalf("expected several fragments, got %d", len(collected))
	}

	var reassembled strings.Builder
	for i, fragment := range collected {
		if fragment.Seq != i {
			t.Fatalf("fragment %d has seq %d", i, fragment.Seq)
		}
		last := i == len(collected)-1
		if fragment.Done != last {
			t.Fatalf("done flag misplaced at fragment %d", i)
		}
		if fragment.Error != "" {
			t.Fatalf("unexpected error fragment: %s", fragment.Error)
		}
		reassembled.WriteString(fragment.Text)
	}
	if reassembled.String() != provider.result.Answer {
		t.Fatalf("reassembled text differs from the answer")
	}

	if publisher.count() != len(collected) {
		t.Fatalf("publisher mirrored %d fragments, channel carried %d", publisher.count(), len(collected))
	}
}

func TestStreamSearchRejectsInvalidQuerySynchronously(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t, 80, fakeWith("serper", domain.KindLinkRanking, domain.LatencyFast))

	_, err := dispatcher.StreamSearch(context.Background(), domain.SearchQuery{Text: "", MaxResults: 10})
	if !domain.IsKind(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected invalid query, got %v", err)
	}
}

func TestStreamSearchFallsBackToResultDigest(t *testing.T) {
	provider := fakeWith("serper", domain.KindLinkRanking, domain.LatencyFast)
	provider.result = &domain.ProviderResult{Results: []domain.NormalizedResult{
		{Title: "Go blog", URL: "https://go.dev/blog", SourceProvider: "serper", RelevanceScore: 1.0},
	}}

	dispatcher, _ := newTestDispatcher(t, 500, provider)

	fragments, err := dispatcher.StreamSearch(context.Background(), mustQuery(t, "how do goroutines work", domain.IntentGeneral, domain.UrgencyBalanced))
	if err != nil {
		t.Fatalf("stream search: %v", err)
	}
	collected := collectFragments(t, fragments)
	if len(collected) != 2 {
		t.Fatalf("expected digest fragment plus terminal, got %d", len(collected))
	}
	if !strings.Contains(collected[0].Text, "go.dev/blog") {
		t.Fatalf("digest fragment missing result URL: %q", collected[0].Text)
	}
}

func TestStreamSearchAllProvidersFailedEmitsTerminalError(t *testing.T) {
	provider := fakeWith("serper", domain.KindLinkRanking, domain.LatencyFast)
	provider.err = domain.WrapError(domain.ErrProviderUnavailable, "serper call", context.DeadlineExceeded)

	dispatcher, _ := newTestDispatcher(t, 80, provider)

	fragments, err := dispatcher.StreamSearch(context.Background(), mustQuery(t, "how do goroutines work", domain.IntentGeneral, domain.UrgencyBalanced))
	if err != nil {
		t.Fatalf("stream search: %v", err)
	}
	collected := collectFragments(t, fragments)
	if len(collected) != 1 {
		t.Fatalf("expected single terminal fragment, got %d", len(collected))
	}
	if !collected[0].Done || collected[0].Error == "" {
		t.Fatalf("terminal fragment not marked as error: %+v", collected[0])
	}
}

func TestStreamSearchCancellationStopsProduction(t *testing.T) {
	provider := fakeWith("linkup", domain.KindAnswerSynthesis, domain.LatencyStandard)
	provider.result = &domain.ProviderResult{Answer: strings.Repeat("x", 10000)}

	dispatcher, _ := newTestDispatcher(t, 10, provider)

	ctx, cancel := context.WithCancel(context.Background())
	fragments, err := dispatcher.StreamSearch(ctx, mustQuery(t, "how do goroutines work", domain.IntentGeneral, domain.UrgencyBalanced))
	if err != nil {
		t.Fatalf("stream search: %v", err)
	}

	// Read a few fragments, then walk away.
	for i := 0; i < 3; i++ {
		select {
		case <-fragments:
		case <-time.After(time.Second):
			t.Fatalf("no fragment %d", i)
		}
	}
	cancel()

	closed := make(chan struct{})
	go func() {
		for range fragments {
		}
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("fragment channel not closed after cancellation")
	}
}

func TestSplitByRunes(t *testing.T) {
	parts := splitByRunes("abcdefghij", 4)
	if len(parts) != 3 || parts[0] != "abcd" || parts[2] != "ij" {
		t.Fatalf("unexpected split: %v", parts)
	}

	short := splitByRunes("abc", 10)
	if len(short) != 1 || short[0] != "abc" {
		t.Fatalf("short text must stay whole: %v", short)
	}

	multibyte := splitByRunes("héllo wörld", 5)
	joined := strings.Join(multibyte, "")
	if joined != "héllo wörld" {
		t.Fatalf("rune split corrupted text: %q", joined)
	}
}

func TestRenderResultDigestEmpty(t *testing.T) {
	if got := renderResultDigest(nil); got == "" {
		t.Fatalf("expected a readable placeholder for zero results")
	}
}

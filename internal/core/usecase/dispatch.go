package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/questera/webintel/internal/core/domain"
	"github.com/questera/webintel/internal/core/ports"
)

const defaultStreamChunkChars = 80

// StreamObserver receives stream lifecycle events for the metrics layer.
type StreamObserver interface {
	StreamStarted(strategy string)
	StreamFragment()
	StreamFinished(status string)
}

// ConversationalDispatcher wraps the aggregation engine for chat-style
// callers. Each request walks received -> classifying -> executing ->
// streaming -> completed|failed; the request owns its channel and its
// execution context, both destroyed on completion or cancellation.
type ConversationalDispatcher struct {
	engine     *AggregationEngine
	publisher  ports.FragmentPublisher
	observer   StreamObserver
	chunkChars int
}

func NewConversationalDispatcher(engine *AggregationEngine, publisher ports.FragmentPublisher, observer StreamObserver, chunkChars int) *ConversationalDispatcher {
	if chunkChars <= 0 {
		chunkChars = defaultStreamChunkChars
	}
	return &ConversationalDispatcher{
		engine:     engine,
		publisher:  publisher,
		observer:   observer,
		chunkChars: chunkChars,
	}
}

// ClassifyStrategy exposes classification without executing the search.
func (d *ConversationalDispatcher) ClassifyStrategy(queryText string) domain.Strategy {
	return DetermineSearchStrategy(queryText)
}

// StreamSearch validates synchronously, then produces the fragment
// sequence on its own goroutine. The channel is closed after the
// terminal fragment; cancelling ctx stops production with no further
// fragments.
func (d *ConversationalDispatcher) StreamSearch(ctx context.Context, query domain.SearchQuery) (<-chan domain.StreamFragment, error) {
	if query.MaxResults <= 0 {
		query.MaxResults = domain.DefaultMaxResults
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	fragments := make(chan domain.StreamFragment, 8)
	streamID := uuid.NewString()
	go d.run(ctx, streamID, query, fragments)
	return fragments, nil
}

func (d *ConversationalDispatcher) run(ctx context.Context, streamID string, query domain.SearchQuery, fragments chan<- domain.StreamFragment) {
	defer close(fragments)

	state := domain.DispatchReceived
	seq := 0

	state = domain.DispatchClassifying
	strategy := DetermineSearchStrategy(query.Text)
	if d.observer != nil {
		d.observer.StreamStarted(string(strategy))
	}
	slog.Debug("dispatch_classified", "stream_id", streamID, "strategy", strategy)

	state = domain.DispatchExecuting
	response, err := d.engine.SearchWithStrategy(ctx, query, strategy)
	if err != nil {
		if ctx.Err() != nil {
			d.finish(streamID, domain.DispatchFailed, "cancelled")
			return
		}
		d.emitTerminalError(ctx, streamID, &seq, fragments, err)
		return
	}

	state = domain.DispatchStreaming
	if response.Failed {
		d.emitTerminalError(ctx, streamID, &seq, fragments,
			domain.WrapError(domain.ErrAllProvidersFailed, "stream search", fmt.Errorf("%d providers failed", len(response.Errors))))
		return
	}

	text := response.Answer
	if text == "" {
		text = renderResultDigest(response.Results)
	}

	for _, part := range splitByRunes(text, d.chunkChars) {
		fragment := domain.StreamFragment{Seq: seq, Text: part}
		if !d.emit(ctx, streamID, fragments, fragment) {
			d.finish(streamID, domain.DispatchFailed, "cancelled")
			return
		}
		seq++
	}

	if !d.emit(ctx, streamID, fragments, domain.StreamFragment{Seq: seq, Done: true}) {
		d.finish(streamID, domain.DispatchFailed, "cancelled")
		return
	}

	state = domain.DispatchCompleted
	d.finish(streamID, state, "completed")
}

// emit delivers one fragment, mirrors it to the optional out-of-process
// publisher, and reports whether the stream may continue.
func (d *ConversationalDispatcher) emit(ctx context.Context, streamID string, fragments chan<- domain.StreamFragment, fragment domain.StreamFragment) bool {
	select {
	case fragments <- fragment:
	case <-ctx.Done():
		return false
	}
	if d.observer != nil {
		d.observer.StreamFragment()
	}
	if d.publisher != nil {
		if err := d.publisher.PublishFragment(ctx, streamID, fragment); err != nil {
			slog.Warn("stream_fragment_publish_failed", "stream_id", streamID, "seq", fragment.Seq, "error", err)
		}
	}
	return true
}

func (d *ConversationalDispatcher) emitTerminalError(ctx context.Context, streamID string, seq *int, fragments chan<- domain.StreamFragment, err error) {
	fragment := domain.StreamFragment{Seq: *seq, Done: true, Error: err.Error()}
	d.emit(ctx, streamID, fragments, fragment)
	*seq++
	d.finish(streamID, domain.DispatchFailed, "failed")
}

func (d *ConversationalDispatcher) finish(streamID string, state domain.DispatchState, status string) {
	if d.observer != nil {
		d.observer.StreamFinished(status)
	}
	slog.Debug("dispatch_finished", "stream_id", streamID, "state", state)
}

// renderResultDigest builds a readable fallback when no provider
// synthesized an answer.
func renderResultDigest(results []domain.NormalizedResult) string {
	if len(results) == 0 {
		return "No results were found for this query."
	}
	lines := make([]string, 0, len(results))
	for i, result := range results {
		line := fmt.Sprintf("%d. %s (%s)", i+1, result.Title, result.URL)
		if snippet := strings.TrimSpace(result.Snippet); snippet != "" {
			line += ": " + snippet
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func splitByRunes(text string, chunkChars int) []string {
	if strings.TrimSpace(text) == "" {
		return []string{""}
	}
	if chunkChars <= 0 || utf8.RuneCountInString(text) <= chunkChars {
		return []string{text}
	}

	parts := make([]string, 0, utf8.RuneCountInString(text)/chunkChars+1)
	runes := []rune(text)
	for start := 0; start < len(runes); start += chunkChars {
		end := start + chunkChars
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

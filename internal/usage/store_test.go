package usage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/diagramdive/internal/db"
	"github.com/ziadkadry99/diagramdive/internal/llm"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func TestRecordAndSummarize(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	calls := []llm.Call{
		{Stage: "content", Provider: "openai", Model: "gpt-4o-mini", InputTokens: 100, OutputTokens: 50, CostUSD: 0.01},
		{Stage: "content", Provider: "openai", Model: "gpt-4o-mini", InputTokens: 200, OutputTokens: 25, CostUSD: 0.02},
		{Stage: "diagram", Provider: "openai", Model: "gpt-4o-mini", InputTokens: 10, OutputTokens: 300, CostUSD: 0.5, Duration: 2 * time.Second},
	}
	for _, c := range calls {
		require.NoError(t, s.RecordCall(ctx, c))
	}

	sum, err := s.Summary(ctx, time.Time{})
	require.NoError(t, err)

	require.Len(t, sum.Lines, 2)
	assert.Equal(t, "content", sum.Lines[0].Stage)
	assert.Equal(t, 2, sum.Lines[0].Calls)
	assert.Equal(t, 300, sum.Lines[0].InputTokens)
	assert.Equal(t, 75, sum.Lines[0].OutputTokens)
	assert.InDelta(t, 0.03, sum.Lines[0].CostUSD, 1e-9)
	assert.Equal(t, "diagram", sum.Lines[1].Stage)

	assert.Equal(t, 3, sum.Calls)
	assert.Equal(t, 310, sum.InputTokens)
	assert.Equal(t, 375, sum.OutputTokens)
	assert.InDelta(t, 0.53, sum.CostUSD, 1e-9)
}

func TestSummarySince(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base.Add(-48 * time.Hour) }
	require.NoError(t, s.RecordCall(ctx, llm.Call{Stage: "content", Provider: "openai"}))
	s.now = func() time.Time { return base }
	require.NoError(t, s.RecordCall(ctx, llm.Call{Stage: "deep_dive", Provider: "openai"}))

	sum, err := s.Summary(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, sum.Lines, 1)
	assert.Equal(t, "deep_dive", sum.Lines[0].Stage)

	n, err := s.Prune(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sum, err = s.Summary(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Calls)
}

func TestEmptySummary(t *testing.T) {
	sum, err := newStore(t).Summary(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, sum.Lines)
	assert.Zero(t, sum.Calls)
}

func TestStoreIsRecorder(t *testing.T) {
	s := newStore(t)
	mock := &stubProvider{}
	p := llm.Instrument(mock, s, nil)

	_, err := p.Complete(context.Background(), llm.CompletionRequest{
		Stage:    "content",
		Model:    "gpt-4o-mini",
		Messages: []llm.Message{llm.User("hi")},
	})
	require.NoError(t, err)

	sum, err := s.Summary(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, sum.Lines, 1)
	assert.Equal(t, "content", sum.Lines[0].Stage)
	assert.Equal(t, 12, sum.InputTokens)
}

type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: "ok", InputTokens: 12, OutputTokens: 3, Model: "gpt-4o-mini"}, nil
}

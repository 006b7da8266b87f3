package embedder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dharnesh67/neurohub/internal/batch"
	"github.com/dharnesh67/neurohub/internal/port"
)

type fakeAI struct {
	vector []float32
	err    error
	inputs []string
}

func (f *fakeAI) ModelName() string { return "fake" }

func (f *fakeAI) GenerateText(ctx context.Context, prompt string, opts port.GenerateOptions) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeAI) GenerateTextStream(ctx context.Context, prompt string) (<-chan string, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAI) Embed(ctx context.Context, text string) ([]float32, error) {
	f.inputs = append(f.inputs, text)
	return f.vector, f.err
}

func fastRetry() batch.RetryConfig {
	return batch.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func vectorOf(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = float32(i)
	}
	return v
}

func TestEmbed_ReturnsVectorOfConfiguredDimension(t *testing.T) {
	ai := &fakeAI{vector: vectorOf(8)}
	e := New(ai, 8, 100, fastRetry())

	got := e.Embed(context.Background(), "short summary")
	assert.Len(t, got, 8)
	assert.Equal(t, []string{"short summary"}, ai.inputs)
}

func TestEmbed_TruncatesLongInput(t *testing.T) {
	ai := &fakeAI{vector: vectorOf(4)}
	e := New(ai, 4, 10, fastRetry())

	e.Embed(context.Background(), strings.Repeat("é", 25))
	assert.Len(t, ai.inputs, 1)
	assert.Equal(t, 10, len([]rune(ai.inputs[0])), "truncation counts runes, not bytes")
}

func TestEmbed_EmptyInput(t *testing.T) {
	ai := &fakeAI{vector: vectorOf(4)}
	e := New(ai, 4, 100, fastRetry())

	assert.Empty(t, e.Embed(context.Background(), ""))
	assert.Empty(t, ai.inputs, "empty input never reaches the provider")
}

func TestEmbed_ProviderErrorFailsSoft(t *testing.T) {
	ai := &fakeAI{err: &port.ExternalServiceError{Service: "gemini", Status: 503, Transient: true, Err: errors.New("unavailable")}}
	e := New(ai, 4, 100, fastRetry())

	assert.Empty(t, e.Embed(context.Background(), "summary"))
	assert.Len(t, ai.inputs, 3, "transient errors are retried before giving up")
}

func TestEmbed_DimensionMismatchFailsSoft(t *testing.T) {
	ai := &fakeAI{vector: vectorOf(3)}
	e := New(ai, 4, 100, fastRetry())

	assert.Empty(t, e.Embed(context.Background(), "summary"))
}

func TestNewDefaults(t *testing.T) {
	e := New(&fakeAI{}, 0, 0, fastRetry())
	assert.Equal(t, Dimension, e.Dimension())
}

package classify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFastClassifier() *Classifier {
	c := NewClassifier()
	c.delay = time.Millisecond
	return c
}

func TestClassifyReturnsKnownLabel(t *testing.T) {
	c := newFastClassifier()

	result, err := c.Classify(context.Background(), "data:image/png;base64,abc")
	require.NoError(t, err)

	assert.Contains(t, c.Labels(), result.Prediction)
	assert.Equal(t, "data:image/png;base64,abc", result.Image)
	assert.GreaterOrEqual(t, result.Confidence, 0.5)
	assert.LessOrEqual(t, result.Confidence, 1.0)
}

func TestClassifyRespectsCancellation(t *testing.T) {
	c := NewClassifier()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := c.Classify(ctx, "data:image/png;base64,abc")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), inferenceDelay)
}

func TestLabelsReturnsCopy(t *testing.T) {
	c := newFastClassifier()

	got := c.Labels()
	require.Len(t, got, 15)

	got[0] = "mutated"
	assert.NotEqual(t, "mutated", c.Labels()[0])
}

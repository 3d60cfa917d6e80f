package classify

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/boardhive/boardhive/internal/model"
)

// labels is the fixed prediction vocabulary
var labels = []string{
	"dog", "cat", "bird", "fish", "flower",
	"tree", "house", "car", "airplane", "boat",
	"person", "mountain", "beach", "city", "sunset",
}

const inferenceDelay = 1500 * time.Millisecond

// Classifier produces mock predictions for canvas snapshots. It simulates
// model inference with a fixed delay and a random label; the image bytes are
// never inspected.
type Classifier struct {
	mu    sync.Mutex
	rng   *rand.Rand
	delay time.Duration
}

// NewClassifier creates a classifier
func NewClassifier() *Classifier {
	return &Classifier{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		delay: inferenceDelay,
	}
}

// Classify returns a prediction for the given image data URL. It blocks for
// the inference delay and respects context cancellation.
func (c *Classifier) Classify(ctx context.Context, imageData string) (*model.Classification, error) {
	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.mu.Lock()
	confidence := 0.5 + c.rng.Float64()*0.5
	prediction := labels[c.rng.Intn(len(labels))]
	c.mu.Unlock()

	return &model.Classification{
		Image:      imageData,
		Prediction: prediction,
		Confidence: math.Round(confidence*100) / 100,
	}, nil
}

// Labels returns the prediction vocabulary
func (c *Classifier) Labels() []string {
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

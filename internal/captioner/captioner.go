package captioner

import (
	"context"
)

// Request carries one captioning call: the model-ready JPEG bytes plus
// the instruction prompt and model settings.
type Request struct {
	Model       string
	Temperature float64
	Prompt      string
	ImageData   []byte // JPEG-encoded
}

// Captioner defines the interface for a vision model that maps an image
// to a short descriptive text label.
type Captioner interface {
	Caption(ctx context.Context, req Request) (string, error)
}

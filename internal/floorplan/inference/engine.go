// Package inference talks to the segmentation model that turns a floor plan
// image into a vector document. The model itself runs elsewhere.
package inference

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("inference engine not configured")
	ErrEmptyDocument = errors.New("inference engine returned an empty document")
)

// Engine is image in, SVG segmentation document out.
type Engine interface {
	Process(ctx context.Context, image []byte, filename string) ([]byte, error)
	Status(ctx context.Context) (Status, error)
}

// Status mirrors the model-status payload of the inference service.
type Status struct {
	Loaded           bool    `json:"loaded"`
	DownloadProgress float64 `json:"download_progress"`
	ModelPath        string  `json:"model_path"`
}

// ============================================================
// Disabled engine
// ============================================================

// Disabled is used when no inference service is configured. Validation still
// works, parsing uploads does not.
type Disabled struct{}

func (Disabled) Process(context.Context, []byte, string) ([]byte, error) {
	return nil, ErrNotConfigured
}

func (Disabled) Status(context.Context) (Status, error) {
	return Status{}, nil
}

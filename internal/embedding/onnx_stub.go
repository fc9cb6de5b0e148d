//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/tsunagu/internal/models"
)

// ONNXEmbedder stub when built without CGO (see onnx.go for the real
// implementation). Construction fails and every call reports the model as
// unavailable.
type ONNXEmbedder struct {
	dimensions int
}

// NewONNXEmbedder returns ErrModelUnavailable when built without CGO.
func NewONNXEmbedder(_ string, dimensions, _, _ int) (*ONNXEmbedder, error) {
	return nil, fmt.Errorf("%w: ONNX embedder requires CGO; build with CGO_ENABLED=1 and onnxruntime", models.ErrModelUnavailable)
}

// Embed always fails in the stub build.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, models.ErrModelUnavailable
}

// EmbedBatch always fails in the stub build.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, models.ErrModelUnavailable
}

// Dimensions returns the configured embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op in the stub build.
func (e *ONNXEmbedder) Close() error {
	return nil
}

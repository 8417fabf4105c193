//go:build !cgo || !onnx
// +build !cgo !onnx

package embedder

import "fmt"

// ONNXAvailable reports whether this build links ONNX Runtime.
const ONNXAvailable = false

// NewONNXEmbedder returns an error unless built with CGO and the onnx tag.
func NewONNXEmbedder(_ string, _, _ int) (Embedder, error) {
	return nil, fmt.Errorf("%w: onnx requires CGO_ENABLED=1 and -tags onnx", ErrUnsupportedModel)
}

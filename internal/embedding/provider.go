// Package embedding defines the text embedding collaborator and a caching decorator.
package embedding

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// Provider maps text to a fixed-length dense vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// ToFloat32 narrows provider output, which most SDKs return as float64.
func ToFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector reads a cached vector. A dim <= 0 means the provider default
// dimension is unknown, so the length comes from the buffer itself.
func decodeVector(buf []byte, dim int) ([]float32, error) {
	if dim <= 0 {
		if len(buf) == 0 || len(buf)%4 != 0 {
			return nil, fmt.Errorf("cached vector has %d bytes, not a whole number of float32 values", len(buf))
		}
		dim = len(buf) / 4
	}
	if len(buf) != 4*dim {
		return nil, fmt.Errorf("cached vector has %d bytes, want %d", len(buf), 4*dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}

// Package filter holds the local image transforms used when no
// background-removal provider is configured.
package filter

import (
	"context"

	"github.com/chaos-io/cutout/util"
)

// Transformer turns image bytes into PNG bytes.
type Transformer interface {
	Transform(ctx context.Context, data []byte) ([]byte, error)
}

// Noop 只做解码和 PNG 重编码，不改变像素
type Noop struct {
	MaxPixels int64
}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Transform(_ context.Context, data []byte) ([]byte, error) {
	img, _, err := util.DecodeImageWithin(data, pixelBudget(n.MaxPixels))
	if err != nil {
		return nil, err
	}
	return util.EncodePNG(img)
}

func pixelBudget(n int64) int64 {
	if n <= 0 {
		return DefaultMaxPixels
	}
	return n
}

// Package rembg talks to background-removal providers.
package rembg

import (
	"context"
	"errors"
)

var ErrEmptyResult = errors.New("provider returned no image")

// Remover removes the background of an encoded image and returns PNG bytes.
type Remover interface {
	Remove(ctx context.Context, img []byte) ([]byte, error)
}

package util

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrTooManyPixels is returned when the header claims more pixels than allowed.
var ErrTooManyPixels = errors.New("image dimensions exceed pixel budget")

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// DecodeImage 解码内存中的图片，返回图片及其格式名
func DecodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// DecodeImageWithin 先读取头部尺寸，超过 maxPixels 时不解码像素
func DecodeImageWithin(data []byte, maxPixels int64) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("decode image config: empty image %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width) > maxPixels || int64(cfg.Height) > maxPixels ||
		int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, "", fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, ErrTooManyPixels)
	}
	return DecodeImage(data)
}

// EncodePNG 把图片编码为 PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// IsPNG 检查 PNG 文件头
func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngMagic)
}

// Trace 记录一段操作的耗时，用法: defer util.Trace("remove background")()
func Trace(msg string) func() {
	start := time.Now()
	return func() {
		slog.Debug(msg, "elapsed", time.Since(start))
	}
}

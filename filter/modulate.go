package filter

import (
	"context"
	"image"
	"math"

	"github.com/chaos-io/cutout/util"
)

const (
	DefaultBrightness = 1.1
	DefaultSaturation = 1.2
	DefaultMaxSize    = 4096
	// DefaultMaxPixels 解码前的像素上限，约 40MP
	DefaultMaxPixels = 40_000_000
)

// Modulate 调整亮度和饱和度，alpha 保持不变。
// 这只是一个外观上的变化，并不会真正去除背景。
type Modulate struct {
	Brightness float64
	Saturation float64
	// MaxSize 限制输出最长边，0 表示不缩放
	MaxSize int
	// MaxPixels 限制输入的宽x高，超过时不解码，<=0 使用 DefaultMaxPixels
	MaxPixels int64
}

func NewModulate(maxSize int, maxPixels int64) *Modulate {
	return &Modulate{
		Brightness: DefaultBrightness,
		Saturation: DefaultSaturation,
		MaxSize:    maxSize,
		MaxPixels:  maxPixels,
	}
}

func (m *Modulate) Transform(ctx context.Context, data []byte) ([]byte, error) {
	defer util.Trace("modulate")()

	img, _, err := util.DecodeImageWithin(data, pixelBudget(m.MaxPixels))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 转为 NRGBA，方便统一处理；复制一份避免修改解码结果
	src := cloneNRGBA(img)
	if m.MaxSize > 0 {
		src = resizeWithinMax(src, m.MaxSize)
	}

	m.apply(src)
	return util.EncodePNG(src)
}

// apply 逐像素处理：先乘亮度，再以 Rec.601 亮度为中心拉伸饱和度
func (m *Modulate) apply(img *image.NRGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			r := float64(img.Pix[i]) * m.Brightness
			g := float64(img.Pix[i+1]) * m.Brightness
			b := float64(img.Pix[i+2]) * m.Brightness

			luma := 0.299*r + 0.587*g + 0.114*b
			img.Pix[i] = clamp(luma + (r-luma)*m.Saturation)
			img.Pix[i+1] = clamp(luma + (g-luma)*m.Saturation)
			img.Pix[i+2] = clamp(luma + (b-luma)*m.Saturation)
		}
	}
}

func clamp(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

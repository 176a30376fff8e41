package imop

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlend_Basic(t *testing.T) {
	assert := assert.New(t)

	b := NewBlend()
	assert.Empty(b.Get())

	assert.Error(b.Set("blend_mode_not_supported"))
	assert.Empty(b.Get())

	assert.NoError(b.Set(Darken))
	assert.Equal(Darken, b.Get())
	assert.NoError(b.Set(Lighten))
	assert.Equal(Lighten, b.Get())
}

func TestBlend_Modes(t *testing.T) {
	pinkFront := color.NRGBA{R: 214, G: 20, B: 65, A: 255}
	orangeBack := color.NRGBA{R: 250, G: 121, B: 17, A: 255}

	rect := image.Rect(0, 0, 1, 1)
	source := image.NewNRGBA(rect)
	backdrop := image.NewNRGBA(rect)
	draw.Draw(source, rect, &image.Uniform{pinkFront}, image.Point{}, draw.Src)
	draw.Draw(backdrop, rect, &image.Uniform{orangeBack}, image.Point{}, draw.Src)

	tests := []struct {
		mode     string
		expected []uint8
	}{
		{Darken, []uint8{214, 20, 17, 255}},
		{Lighten, []uint8{250, 121, 65, 255}},
		{Multiply, []uint8{210, 9, 4, 255}},
		{Screen, []uint8{254, 132, 78, 255}},
		{Difference, []uint8{36, 101, 48, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			assert := assert.New(t)

			blend := NewBlend()
			assert.NoError(blend.Set(tt.mode))

			bmp := NewBitmap(rect)
			InitOp().Draw(bmp, source, backdrop, blend)
			assert.Equal(tt.expected, bmp.Img.Pix)
		})
	}
}

func TestBlend_TransparentBackdropKeepsSource(t *testing.T) {
	assert := assert.New(t)

	rect := image.Rect(0, 0, 1, 1)
	source := image.NewNRGBA(rect)
	backdrop := image.NewNRGBA(rect)
	source.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 200, B: 30, A: 255})

	blend := NewBlend()
	assert.NoError(blend.Set(Multiply))

	bmp := NewBitmap(rect)
	InitOp().Draw(bmp, source, backdrop, blend)
	assert.Equal([]uint8{10, 200, 30, 255}, bmp.Img.Pix)
}

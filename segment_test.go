package thumbcrop

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type countingSegmenter struct {
	mu      sync.Mutex
	inits   int
	initErr error
	size    image.Point
}

func (s *countingSegmenter) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inits++
	return s.initErr
}

func (s *countingSegmenter) Segment(img *PixelBuffer, box image.Rectangle) (*Mask, error) {
	if s.size != (image.Point{}) {
		return NewMask(s.size.X, s.size.Y), nil
	}
	return BoxSegmenter{}.Segment(img, box)
}

func TestSegment_InitRunsOnce(t *testing.T) {
	assert := assert.New(t)

	inner := &countingSegmenter{}
	seg := NewSegmentation(inner)
	img := uniformBuffer(t, 8, 8, grey)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := seg.Segment(img, image.Rect(2, 2, 6, 6))
			assert.NoError(err)
		}()
	}
	wg.Wait()

	assert.Equal(1, inner.inits)
}

func TestSegment_InitError(t *testing.T) {
	assert := assert.New(t)

	boom := errors.New("model not found")
	inner := &countingSegmenter{initErr: boom}
	seg := NewSegmentation(inner)

	_, err := seg.Segment(uniformBuffer(t, 4, 4, grey), image.Rect(0, 0, 2, 2))
	assert.True(errors.Is(err, boom))
	assert.True(errors.Is(seg.Init(), boom))
	assert.Equal(1, inner.inits)
}

func TestSegment_MaskSizeMismatch(t *testing.T) {
	seg := NewSegmentation(&countingSegmenter{size: image.Pt(3, 3)})
	_, err := seg.Segment(uniformBuffer(t, 4, 4, grey), image.Rect(0, 0, 2, 2))
	assert.Error(t, err)
}

func TestSegment_BoxSegmenter(t *testing.T) {
	assert := assert.New(t)

	mask, err := BoxSegmenter{}.Segment(uniformBuffer(t, 6, 4, grey), image.Rect(4, 2, 10, 10))
	if !assert.NoError(err) {
		return
	}
	assert.True(mask.IsForeground(4, 2))
	assert.True(mask.IsForeground(5, 3))
	assert.False(mask.IsForeground(3, 2))
	assert.False(mask.IsForeground(4, 1))
	assert.Equal(MaskBackground, mask.Pix[0])
	assert.Equal(MaskProbForeground, mask.Pix[2*6+4])
}

func TestSegment_RemoveBackground(t *testing.T) {
	assert := assert.New(t)

	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}

	mask := NewMask(3, 3)
	mask.Pix[1*3+1] = MaskForeground
	mask.Pix[0] = MaskProbForeground
	mask.Pix[2] = MaskProbBackground

	res, err := RemoveBackground(img, mask)
	if !assert.NoError(err) {
		return
	}
	grey200 := color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	opaqueBlack := color.NRGBA{A: 255}

	assert.Equal(grey200, res.NRGBAAt(1, 1))
	assert.Equal(grey200, res.NRGBAAt(0, 0))
	assert.Equal(opaqueBlack, res.NRGBAAt(2, 0))
	assert.Equal(opaqueBlack, res.NRGBAAt(2, 2))

	_, err = RemoveBackground(img, NewMask(2, 2))
	assert.Error(err)
}

func TestSegment_DrawCrop(t *testing.T) {
	assert := assert.New(t)

	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	DrawCrop(img, image.Rect(2, 2, 8, 7), CropColor)

	assert.Equal(CropColor, img.NRGBAAt(2, 2))
	assert.Equal(CropColor, img.NRGBAAt(7, 2))
	assert.Equal(CropColor, img.NRGBAAt(5, 6))
	assert.Equal(CropColor, img.NRGBAAt(2, 4))
	assert.Equal(color.NRGBA{}, img.NRGBAAt(4, 4))
	assert.Equal(color.NRGBA{}, img.NRGBAAt(8, 2))
	assert.Equal(color.NRGBA{}, img.NRGBAAt(1, 1))

	// Rectangles outside of the image are ignored.
	DrawCrop(img, image.Rect(20, 20, 30, 30), CropColor)
}

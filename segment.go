package thumbcrop

import (
	"image"
	"image/color"
	"sync"

	"github.com/esimov/thumbcrop/imop"
	"github.com/pkg/errors"
)

// Mask labels, following the usual graph-cut convention.
const (
	MaskBackground     uint8 = 0
	MaskForeground     uint8 = 1
	MaskProbBackground uint8 = 2
	MaskProbForeground uint8 = 3
)

// Mask holds one label per pixel in row-major order.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask returns a mask with every pixel labelled as background.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// IsForeground reports whether the pixel at (x, y) is certain or probable foreground.
func (m *Mask) IsForeground(x, y int) bool {
	l := m.Pix[y*m.Width+x]
	return l == MaskForeground || l == MaskProbForeground
}

// Segmenter separates the subject of an image from its background, given a
// bounding box around the subject.
type Segmenter interface {
	Init() error
	Segment(img *PixelBuffer, box image.Rectangle) (*Mask, error)
}

// Segmentation wraps a Segmenter so that its Init method runs exactly once,
// on first use. It is safe for concurrent use when the wrapped Segment is.
type Segmentation struct {
	seg  Segmenter
	once sync.Once
	err  error
}

var _ Segmenter = (*Segmentation)(nil)

// NewSegmentation returns a lazily initialized wrapper around s.
func NewSegmentation(s Segmenter) *Segmentation {
	return &Segmentation{seg: s}
}

// Init initializes the wrapped segmenter. Subsequent calls return the
// result of the first one.
func (s *Segmentation) Init() error {
	s.once.Do(func() {
		if err := s.seg.Init(); err != nil {
			s.err = errors.Wrap(err, "segmenter initialization failed")
		}
	})
	return s.err
}

// Segment initializes the segmenter if needed, then segments img.
func (s *Segmentation) Segment(img *PixelBuffer, box image.Rectangle) (*Mask, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	m, err := s.seg.Segment(img, box)
	if err != nil {
		return nil, errors.Wrap(err, "segmentation failed")
	}
	if m == nil || m.Width != img.Width || m.Height != img.Height || len(m.Pix) != m.Width*m.Height {
		return nil, errors.New("segmentation mask does not match the image size")
	}
	return m, nil
}

// BoxSegmenter labels the pixels inside the box as probable foreground and
// everything else as background. It is the initial labelling of a graph-cut
// segmentation, without any refinement.
type BoxSegmenter struct{}

// Init is a no-op.
func (BoxSegmenter) Init() error { return nil }

// Segment implements Segmenter.
func (BoxSegmenter) Segment(img *PixelBuffer, box image.Rectangle) (*Mask, error) {
	m := NewMask(img.Width, img.Height)
	box = box.Intersect(image.Rect(0, 0, img.Width, img.Height))
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			m.Pix[y*m.Width+x] = MaskProbForeground
		}
	}
	return m, nil
}

// RemoveBackground paints every background pixel of img black. The mask is
// applied as an alpha matte, and the result is flattened over black.
func RemoveBackground(img *image.NRGBA, mask *Mask) (*image.NRGBA, error) {
	b := img.Bounds()
	if mask.Width != b.Dx() || mask.Height != b.Dy() {
		return nil, errors.Errorf("mask size %dx%d does not match image size %dx%d",
			mask.Width, mask.Height, b.Dx(), b.Dy())
	}

	matte := image.NewNRGBA(b)
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if mask.IsForeground(x, y) {
				matte.Pix[matte.PixOffset(b.Min.X+x, b.Min.Y+y)+3] = 0xff
			}
		}
	}

	op := imop.InitOp()
	if err := op.Set(imop.DstIn); err != nil {
		return nil, err
	}
	cut := imop.NewBitmap(b)
	op.Draw(cut, matte, img, nil)

	black := image.NewNRGBA(b)
	fillRect(black, b, color.NRGBA{A: 0xff})

	if err := op.Set(imop.SrcOver); err != nil {
		return nil, err
	}
	res := imop.NewBitmap(b)
	op.Draw(res, cut.Img, black, nil)

	return res.Img, nil
}

// DrawCrop draws a one pixel wide outline of rect onto img.
func DrawCrop(img *image.NRGBA, rect image.Rectangle, col color.Color) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	c := color.NRGBAModel.Convert(col).(color.NRGBA)

	fillRect(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+1), c)
	fillRect(img, image.Rect(rect.Min.X, rect.Max.Y-1, rect.Max.X, rect.Max.Y), c)
	fillRect(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+1, rect.Max.Y), c)
	fillRect(img, image.Rect(rect.Max.X-1, rect.Min.Y, rect.Max.X, rect.Max.Y), c)
}

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

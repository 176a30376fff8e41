package imop

import (
	"fmt"
	"image"
	"math"

	"github.com/esimov/thumbcrop/utils"
)

// Porter-Duff composition operators.
const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

var compOps = []string{
	Clear, Copy, Dst, SrcOver, DstOver, SrcIn, DstIn,
	SrcOut, DstOut, SrcAtop, DstAtop, Xor,
}

// Bitmap holds the result of a composition.
type Bitmap struct {
	Img *image.NRGBA
}

// NewBitmap allocates a transparent bitmap of the given size.
func NewBitmap(rect image.Rectangle) *Bitmap {
	return &Bitmap{
		Img: image.NewNRGBA(rect),
	}
}

// Composite holds the currently active composition operator.
type Composite struct {
	current string
}

// InitOp returns a Composite using SrcOver.
func InitOp() *Composite {
	return &Composite{current: SrcOver}
}

// Set activates one of the supported composition operators.
func (op *Composite) Set(cop string) error {
	if !utils.Contains(compOps, cop) {
		return fmt.Errorf("unsupported composite operation: %q", cop)
	}
	op.current = cop
	return nil
}

// Get returns the currently active composition operator.
func (op *Composite) Get() string {
	return op.current
}

// Draw composites src over the backdrop dst into bitmap. Both images are
// read over bitmap's bounds. When blend is not nil the source colour is
// first mixed with the backdrop using the blend mode.
func (op *Composite) Draw(bitmap *Bitmap, src, dst *image.NRGBA, blend *Blend) {
	b := bitmap.Img.Bounds()

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cs, as := pixel(src, x, y)
			cb, ab := pixel(dst, x, y)

			if blend != nil && blend.mode != "" {
				mixed := blend.apply(cs, cb)
				for i := range cs {
					cs[i] = (1-ab)*cs[i] + ab*mixed[i]
				}
			}

			fa, fb := op.factors(as, ab)
			ao := as*fa + ab*fb

			var out [4]uint8
			if ao > 0 {
				for i := 0; i < 3; i++ {
					// Premultiplied sum, divided back by the output alpha.
					c := (as*fa*cs[i] + ab*fb*cb[i]) / ao
					out[i] = toByte(c)
				}
				out[3] = toByte(ao)
			}
			i := bitmap.Img.PixOffset(x, y)
			copy(bitmap.Img.Pix[i:i+4], out[:])
		}
	}
}

// factors returns the Porter-Duff source and backdrop coverage factors.
func (op *Composite) factors(as, ab float64) (float64, float64) {
	switch op.current {
	case Clear:
		return 0, 0
	case Copy:
		return 1, 0
	case Dst:
		return 0, 1
	case DstOver:
		return 1 - ab, 1
	case SrcIn:
		return ab, 0
	case DstIn:
		return 0, as
	case SrcOut:
		return 1 - ab, 0
	case DstOut:
		return 0, 1 - as
	case SrcAtop:
		return ab, 1 - as
	case DstAtop:
		return 1 - ab, as
	case Xor:
		return 1 - ab, 1 - as
	default:
		return 1, 1 - as
	}
}

// pixel returns the normalized colour and alpha at (x, y), or a transparent
// pixel outside of img.
func pixel(img *image.NRGBA, x, y int) ([3]float64, float64) {
	if img == nil || !(image.Point{X: x, Y: y}).In(img.Rect) {
		return [3]float64{}, 0
	}
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	return [3]float64{
		float64(p[0]) / 255,
		float64(p[1]) / 255,
		float64(p[2]) / 255,
	}, float64(p[3]) / 255
}

func toByte(v float64) uint8 {
	return uint8(math.Round(utils.Clamp(v, 0, 1) * 255))
}

package thumbcrop

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Channel indexes one of the four interleaved bytes of a pixel.
// For a source image the channels are R, G, B, A; for a feature
// buffer they hold the skin, edge and saturation scores.
type Channel int

const (
	SkinChannel Channel = iota
	EdgeChannel
	SaturationChannel
	AlphaChannel
)

// PixelBuffer is a packed 4-channel, 8-bit raster with its origin at (0, 0).
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer allocates a zero filled buffer of width*height pixels.
func NewPixelBuffer(width, height int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, configErrorf("dimensions", "must be positive, got %dx%d", width, height)
	}
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}, nil
}

// NewPixelBufferFrom copies data into a new buffer. The length of data
// must be exactly width*height*4.
func NewPixelBufferFrom(width, height int, data []uint8) (*PixelBuffer, error) {
	pb, err := NewPixelBuffer(width, height)
	if err != nil {
		return nil, err
	}
	if len(data) != len(pb.Pix) {
		return nil, configErrorf("data", "has length %d, expected %d", len(data), len(pb.Pix))
	}
	copy(pb.Pix, data)
	return pb, nil
}

// FromImage converts any image type into a PixelBuffer holding
// non-premultiplied RGBA values with the min-point moved to (0, 0).
func FromImage(img image.Image) (*PixelBuffer, error) {
	b := img.Bounds()
	pb, err := NewPixelBuffer(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := b.Dx() * 4
		for y := 0; y < pb.Height; y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(pb.Pix[y*rowSize:(y+1)*rowSize], src.Pix[si:si+rowSize])
		}
	case *image.YCbCr:
		di := 0
		for y := 0; y < pb.Height; y++ {
			for x := 0; x < pb.Width; x++ {
				siy := src.YOffset(b.Min.X+x, b.Min.Y+y)
				sic := src.COffset(b.Min.X+x, b.Min.Y+y)
				r, g, bl := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				pb.Pix[di+0] = r
				pb.Pix[di+1] = g
				pb.Pix[di+2] = bl
				pb.Pix[di+3] = 0xff
				di += 4
			}
		}
	default:
		dst := pb.Image()
		draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
	}
	return pb, nil
}

// Image returns an *image.NRGBA sharing the buffer's pixels.
func (pb *PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    pb.Pix,
		Stride: pb.Width * 4,
		Rect:   image.Rect(0, 0, pb.Width, pb.Height),
	}
}

// At returns the value of channel c for the pixel (x, y).
func (pb *PixelBuffer) At(x, y int, c Channel) uint8 {
	return pb.Pix[(y*pb.Width+x)*4+int(c)]
}

// Channel returns a write view restricted to channel c.
func (pb *PixelBuffer) Channel(c Channel) ChannelView {
	return ChannelView{buf: pb, ch: c}
}

// ChannelView grants write access to a single channel of a PixelBuffer.
// Views over distinct channels of the same buffer never touch the same
// bytes, so they can be filled concurrently.
type ChannelView struct {
	buf *PixelBuffer
	ch  Channel
}

// Set stores v, rounded and clamped to [0, 255], at (x, y).
func (v ChannelView) Set(x, y int, val float64) {
	v.buf.Pix[(y*v.buf.Width+x)*4+int(v.ch)] = clampByte(val)
}

// Bounds returns the width and height of the underlying buffer.
func (v ChannelView) Bounds() (int, int) {
	return v.buf.Width, v.buf.Height
}

// clampByte rounds to the nearest integer and clamps into the byte range.
// NaN maps to zero.
func clampByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

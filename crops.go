package thumbcrop

import (
	"fmt"
	"image"
	"math"
)

// Score holds the importance-weighted feature sums of a crop.
type Score struct {
	Skin       float64
	Detail     float64
	Saturation float64
	Total      float64
}

// Crop is a candidate window in source image pixel coordinates.
type Crop struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Score  Score
}

// Rect converts the crop to an image.Rectangle, truncating toward zero.
func (c Crop) Rect() image.Rectangle {
	return image.Rect(int(c.X), int(c.Y), int(c.X+c.Width), int(c.Y+c.Height))
}

func (c Crop) String() string {
	return fmt.Sprintf("%v,%v %vx%v (%f)", c.X, c.Y, c.Width, c.Height, c.Score.Total)
}

// CropDimensions scales the target size up or down by
// min(imageWidth/targetWidth, imageHeight/targetHeight) so that it touches
// the image border on at least one axis.
func CropDimensions(imageWidth, imageHeight, targetWidth, targetHeight int) (int, int, error) {
	if targetWidth <= 0 || targetHeight <= 0 {
		return 0, 0, configErrorf("target", "dimensions must be positive, got %dx%d", targetWidth, targetHeight)
	}
	scale := math.Min(
		float64(imageWidth)/float64(targetWidth),
		float64(imageHeight)/float64(targetHeight),
	)
	return int(float64(targetWidth) * scale), int(float64(targetHeight) * scale), nil
}

// GenerateCrops enumerates every window of size (cropWidth·s, cropHeight·s)
// for each scale s of the sweep, stepping stride pixels in row-major order,
// keeping only windows that lie fully inside the image.
func GenerateCrops(cropWidth, cropHeight, width, height, stride int, sweep ScaleSweep) ([]Crop, error) {
	if stride <= 0 {
		return nil, configErrorf("stride", "must be positive, got %d", stride)
	}
	if cropWidth <= 0 || cropHeight <= 0 {
		return nil, configErrorf("crop", "dimensions must be positive, got %dx%d", cropWidth, cropHeight)
	}
	res := make([]Crop, 0, CountCrops(cropWidth, cropHeight, width, height, stride, sweep))

	cw, ch := float64(cropWidth), float64(cropHeight)
	for _, scale := range sweep.Levels() {
		w, h := cw*scale, ch*scale
		for y := 0; float64(y)+h <= float64(height); y += stride {
			for x := 0; float64(x)+w <= float64(width); x += stride {
				res = append(res, Crop{
					X:      float64(x),
					Y:      float64(y),
					Width:  w,
					Height: h,
				})
			}
		}
	}

	if len(res) == 0 {
		return nil, ErrNoCandidate
	}
	return res, nil
}

// CountCrops returns the number of windows GenerateCrops would produce,
// without allocating them. It returns 0 for a non-positive stride or crop size.
func CountCrops(cropWidth, cropHeight, width, height, stride int, sweep ScaleSweep) int {
	if stride <= 0 || cropWidth <= 0 || cropHeight <= 0 {
		return 0
	}
	n := 0
	cw, ch := float64(cropWidth), float64(cropHeight)
	for _, scale := range sweep.Levels() {
		n += steps(cw*scale, width, stride) * steps(ch*scale, height, stride)
	}
	return n
}

// steps counts the offsets 0, stride, 2·stride... for which a window of
// size extent still fits in limit.
func steps(extent float64, limit, stride int) int {
	if extent > float64(limit) {
		return 0
	}
	k := int((float64(limit) - extent) / float64(stride))
	for float64((k+1)*stride)+extent <= float64(limit) {
		k++
	}
	for k >= 0 && float64(k*stride)+extent > float64(limit) {
		k--
	}
	return k + 1
}

package thumbcrop

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"
)

// Reference skin chromaticity as a unit RGB vector.
var skinColor = [3]float64{0.78, 0.57, 0.44}

const (
	skinThreshold     = 0.8
	skinBrightnessMin = 0.2
	skinBrightnessMax = 1.0

	saturationThreshold     = 0.4
	saturationBrightnessMin = 0.05
	saturationBrightnessMax = 0.9
)

// Detector fills one feature channel from the source image.
// It must write through dst only.
type Detector func(src *PixelBuffer, dst ChannelView)

// Extract runs the skin, edge and saturation detectors over src and returns
// a feature buffer of the same size. The detectors write disjoint channels
// and run concurrently.
func Extract(src *PixelBuffer) (*PixelBuffer, error) {
	out, err := NewPixelBuffer(src.Width, src.Height)
	if err != nil {
		return nil, err
	}

	detectors := []struct {
		ch  Channel
		run Detector
	}{
		{SkinChannel, SkinDetect},
		{EdgeChannel, EdgeDetect},
		{SaturationChannel, SaturationDetect},
		{AlphaChannel, opaque},
	}

	var g errgroup.Group
	for _, d := range detectors {
		g.Go(func() error {
			d.run(src, out.Channel(d.ch))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SkinDetect scores how close each pixel's chromaticity is to skin tone.
func SkinDetect(src *PixelBuffer, dst ChannelView) {
	w, h := src.Width, src.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := (y*w + x) * 4
			r, g, b := src.Pix[p], src.Pix[p+1], src.Pix[p+2]
			lightness := cie(r, g, b) / 255
			skin := skinCol(r, g, b)

			if skin > skinThreshold && lightness >= skinBrightnessMin && lightness <= skinBrightnessMax {
				dst.Set(x, y, (skin-skinThreshold)*(255/(1-skinThreshold)))
			} else {
				dst.Set(x, y, 0)
			}
		}
	}
}

// EdgeDetect applies a 4-neighbour Laplacian to the lightness of each
// interior pixel. Border pixels keep their raw lightness.
func EdgeDetect(src *PixelBuffer, dst ChannelView) {
	w, h := src.Width, src.Height
	cies := makeCies(src)

	var lightness float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if x == 0 || x >= w-1 || y == 0 || y >= h-1 {
				lightness = cies[i]
			} else {
				lightness = cies[i]*4 -
					cies[i-w] -
					cies[i-1] -
					cies[i+1] -
					cies[i+w]
			}
			dst.Set(x, y, lightness)
		}
	}
}

// SaturationDetect marks strongly saturated pixels of moderate lightness.
func SaturationDetect(src *PixelBuffer, dst ChannelView) {
	w, h := src.Width, src.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := (y*w + x) * 4
			r, g, b := src.Pix[p], src.Pix[p+1], src.Pix[p+2]
			lightness := cie(r, g, b) / 255
			sat := saturation(r, g, b)

			if sat > saturationThreshold && lightness >= saturationBrightnessMin && lightness <= saturationBrightnessMax {
				dst.Set(x, y, (sat-saturationThreshold)*(255/(1-saturationThreshold)))
			} else {
				dst.Set(x, y, 0)
			}
		}
	}
}

func opaque(src *PixelBuffer, dst ChannelView) {
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			dst.Set(x, y, 255)
		}
	}
}

// cie returns the weighted lightness of an RGB triple in [0, 255].
func cie(r, g, b uint8) float64 {
	return 0.5126*float64(b) + 0.7152*float64(g) + 0.0722*float64(r)
}

func makeCies(src *PixelBuffer) []float64 {
	cies := make([]float64, src.Width*src.Height)
	for i := range cies {
		p := i * 4
		cies[i] = cie(src.Pix[p], src.Pix[p+1], src.Pix[p+2])
	}
	return cies
}

// skinCol returns 1 minus the distance between the pixel's unit colour
// vector and the reference skin colour. Pure black has no direction and
// scores 0.
func skinCol(r, g, b uint8) float64 {
	r8, g8, b8 := float64(r), float64(g), float64(b)

	mag := math.Sqrt(r8*r8 + g8*g8 + b8*b8)
	if mag == 0 {
		return 0
	}
	rd := r8/mag - skinColor[0]
	gd := g8/mag - skinColor[1]
	bd := b8/mag - skinColor[2]

	d := math.Sqrt(rd*rd + gd*gd + bd*bd)
	return 1 - d
}

// saturation returns the HSL saturation of an RGB triple in [0, 1].
// Greys (including black and white) have no saturation.
func saturation(r, g, b uint8) float64 {
	if r == g && g == b {
		return 0
	}
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	_, s, _ := c.Hsl()
	return s
}

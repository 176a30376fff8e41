// Package imop implements the Porter-Duff composition operations
// used for mixing a graphic element with its backdrop.
// Porter and Duff presented in their paper 12 different composition operation,
// but the image/draw core package implements only the source-over-destination and source.
// This package is aimed to overcome the missing composite operations.
//
// It is used to build the crop overlays: masking out the background of an
// image and tinting the feature maps over the source in debug mode.
package imop

import (
	"fmt"

	"github.com/esimov/thumbcrop/utils"
)

// Separable blend modes.
const (
	Darken     = "darken"
	Lighten    = "lighten"
	Multiply   = "multiply"
	Screen     = "screen"
	Overlay    = "overlay"
	Difference = "difference"
)

var blendModes = []string{Darken, Lighten, Multiply, Screen, Overlay, Difference}

// Blend holds the currently active blend mode.
type Blend struct {
	mode string
}

// NewBlend initializes a new Blend with no active mode.
func NewBlend() *Blend {
	return &Blend{}
}

// Set activates one of the supported blend modes.
func (b *Blend) Set(mode string) error {
	if !utils.Contains(blendModes, mode) {
		return fmt.Errorf("unsupported blend mode: %q", mode)
	}
	b.mode = mode
	return nil
}

// Get returns the currently active blend mode.
func (b *Blend) Get() string {
	return b.mode
}

// apply mixes the source colour cs with the backdrop colour cb.
func (b *Blend) apply(cs, cb [3]float64) [3]float64 {
	var res [3]float64
	for i := range res {
		s, d := cs[i], cb[i]
		switch b.mode {
		case Darken:
			res[i] = utils.Min(s, d)
		case Lighten:
			res[i] = utils.Max(s, d)
		case Multiply:
			res[i] = s * d
		case Screen:
			res[i] = s + d - s*d
		case Overlay:
			if d <= 0.5 {
				res[i] = 2 * s * d
			} else {
				res[i] = 1 - 2*(1-s)*(1-d)
			}
		case Difference:
			res[i] = utils.Abs(s - d)
		default:
			res[i] = s
		}
	}
	return res
}

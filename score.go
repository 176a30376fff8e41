package thumbcrop

import (
	"math"

	"github.com/pkg/errors"
)

const (
	detailWeight      = 0.2
	skinBias          = 0.01
	skinWeight        = 1.8
	saturationBias    = 0.2
	saturationWeight  = 0.1
	edgeRadius        = 0.4
	edgeWeight        = -20.0
	outsideImportance = -0.5
)

// importance weights the point (x, y) relative to the crop: highest at the
// centre, falling off steeply past 60% of the way to an edge and mildly
// negative outside.
func importance(crop Crop, x, y float64) float64 {
	if crop.X > x || x >= crop.X+crop.Width || crop.Y > y || y >= crop.Y+crop.Height {
		return outsideImportance
	}

	xf := (x - crop.X) / crop.Width
	yf := (y - crop.Y) / crop.Height

	px := math.Abs(0.5-xf) * 2
	py := math.Abs(0.5-yf) * 2

	dx := math.Max(px-1+edgeRadius, 0)
	dy := math.Max(py-1+edgeRadius, 0)
	d := (dx*dx + dy*dy) * edgeWeight

	s := 1.41 - math.Sqrt(px*px+py*py)
	return s + d
}

// score integrates the coarse feature grid over the whole image, weighting
// each cell by its importance for crop. Cells are sampled at their centre
// in full resolution coordinates; factor is the downsample factor that
// produced the grid.
func score(coarse *PixelBuffer, factor int, crop Crop) Score {
	var s Score
	f := float64(factor)

	for cy := 0; cy < coarse.Height; cy++ {
		y := (float64(cy) + 0.5) * f
		for cx := 0; cx < coarse.Width; cx++ {
			x := (float64(cx) + 0.5) * f
			p := (cy*coarse.Width + cx) * 4

			imp := importance(crop, x, y)
			det := float64(coarse.Pix[p+1]) / 255

			s.Skin += float64(coarse.Pix[p]) / 255 * (det + skinBias) * imp
			s.Detail += det * imp
			s.Saturation += float64(coarse.Pix[p+2]) / 255 * (det + saturationBias) * imp
		}
	}

	s.Total = (s.Detail*detailWeight + s.Skin*skinWeight + s.Saturation*saturationWeight) /
		(crop.Width * crop.Height)
	return s
}

// TopCrop returns the crop with the highest total score. Ties go to the
// earliest candidate.
func TopCrop(crops []Crop) (Crop, error) {
	if len(crops) == 0 {
		return Crop{}, errors.WithStack(ErrNoCandidate)
	}
	top := crops[0]
	for _, c := range crops[1:] {
		if c.Score.Total > top.Score.Total {
			top = c
		}
	}
	return top, nil
}

package thumbcrop

// Per-channel weights of the block mean and block maximum. A single strong
// pixel inside an otherwise dim block still registers through the max term.
var downSampleWeights = [3]struct{ mean, peak float64 }{
	SkinChannel:       {0.5, 0.5},
	EdgeChannel:       {0.7, 0.3},
	SaturationChannel: {0.8, 0.2},
}

// DownSample aggregates factor×factor blocks of a feature buffer into a
// coarse grid of floor(w/factor)×floor(h/factor) cells. When the input is
// smaller than one block in either direction the result is an empty
// buffer (zero width or height).
func DownSample(in *PixelBuffer, factor int) (*PixelBuffer, error) {
	if factor <= 0 {
		return nil, configErrorf("downsample", "factor must be positive, got %d", factor)
	}
	width := in.Width / factor
	height := in.Height / factor
	out := &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
	ifactor2 := 1 / float64(factor*factor)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum, peak [3]float64

			for v := 0; v < factor; v++ {
				row := (y*factor + v) * in.Width
				for u := 0; u < factor; u++ {
					q := (row + x*factor + u) * 4
					for c := 0; c < 3; c++ {
						val := float64(in.Pix[q+c])
						sum[c] += val
						if val > peak[c] {
							peak[c] = val
						}
					}
				}
			}

			p := (y*width + x) * 4
			for c, wt := range downSampleWeights {
				out.Pix[p+c] = clampByte(sum[c]*ifactor2*wt.mean + peak[c]*wt.peak)
			}
			out.Pix[p+3] = 255
		}
	}
	return out, nil
}

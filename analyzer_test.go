package thumbcrop

import (
	"bytes"
	"context"
	"image"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// subjectImage returns a dark landscape image with a skin coloured patch
// centred at (300, 100).
func subjectImage(t testing.TB) *PixelBuffer {
	pb := uniformBuffer(t, 400, 200, black)
	fillRegion(pb, image.Rect(280, 80, 320, 120), skinTone)
	return pb
}

func TestAnalyzer_SelectCropFindsSubject(t *testing.T) {
	assert := assert.New(t)

	crop, err := SelectCrop(subjectImage(t), 100, 100, nil)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(200.0, crop.Width)
	assert.Equal(200.0, crop.Height)
	assert.LessOrEqual(crop.X, 280.0)
	assert.GreaterOrEqual(crop.X+crop.Width, 320.0)
	assert.Greater(crop.Score.Skin, 0.0)
}

func TestAnalyzer_BlackImage(t *testing.T) {
	assert := assert.New(t)

	crop, err := SelectCrop(uniformBuffer(t, 64, 48, black), 32, 32, nil)
	if !assert.NoError(err) {
		return
	}
	// Every candidate scores zero, so the first one wins.
	assert.Equal(0.0, crop.X)
	assert.Equal(0.0, crop.Y)
	assert.Zero(crop.Score.Skin)
	assert.Zero(crop.Score.Saturation)
}

func TestAnalyzer_GreyImageHasNoSaturation(t *testing.T) {
	a, err := NewAnalyzer(Config{})
	if !assert.NoError(t, err) {
		return
	}
	crops, err := a.FindAllCrops(context.Background(), uniformBuffer(t, 64, 64, grey), 40, 32)
	if !assert.NoError(t, err) {
		return
	}
	for _, c := range crops {
		assert.Zero(t, c.Score.Saturation)
	}
}

func TestAnalyzer_SmallerThanTarget(t *testing.T) {
	img := uniformBuffer(t, 50, 50, grey)

	_, err := SelectCrop(img, 100, 100, nil)
	assert.True(t, errors.Is(err, ErrNoCandidate))

	_, err = SelectCrop(img, 100, 20, nil)
	assert.True(t, errors.Is(err, ErrNoCandidate))
}

func TestAnalyzer_InvalidInput(t *testing.T) {
	assert := assert.New(t)
	img := uniformBuffer(t, 50, 50, grey)

	_, err := SelectCrop(img, 0, 10, nil)
	assert.True(errors.Is(err, ErrInvalidConfig))

	_, err = SelectCrop(&PixelBuffer{Width: 4, Height: 4, Pix: make([]uint8, 10)}, 2, 2, nil)
	assert.True(errors.Is(err, ErrInvalidConfig))

	_, err = SelectCrop(nil, 2, 2, nil)
	assert.True(errors.Is(err, ErrInvalidConfig))

	_, err = SelectCrop(img, 10, 10, &Config{Stride: -8})
	assert.True(errors.Is(err, ErrInvalidConfig))

	_, err = NewAnalyzer(Config{DownSample: -1})
	assert.True(errors.Is(err, ErrInvalidConfig))
}

func TestAnalyzer_MaxCandidates(t *testing.T) {
	img := uniformBuffer(t, 200, 100, grey)

	// 100x100 crops at stride 8 over a 200 pixel wide image: 13 candidates.
	_, err := SelectCrop(img, 10, 10, &Config{MaxCandidates: 13})
	assert.NoError(t, err)

	_, err = SelectCrop(img, 10, 10, &Config{MaxCandidates: 12})
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestAnalyzer_MaxCandidatesBeforeAnalysis(t *testing.T) {
	assert := assert.New(t)

	var dumped []string
	a, err := NewAnalyzer(Config{
		Stride:        1,
		Scales:        ScaleSweep{Max: 1.0, Min: 0.3, Step: 0.01},
		MaxCandidates: 100,
	}, WithDebug(func(name string, pb *PixelBuffer) {
		dumped = append(dumped, name)
	}))
	if !assert.NoError(err) {
		return
	}

	img := uniformBuffer(t, 1000, 1000, grey)
	start := time.Now()
	_, err = a.FindAllCrops(context.Background(), img, 10, 10)
	assert.True(errors.Is(err, ErrInvalidConfig))
	assert.Contains(err.Error(), "max_candidates")
	assert.Empty(dumped)
	assert.Less(time.Since(start), time.Second)
}

func TestAnalyzer_DeterministicAcrossWorkers(t *testing.T) {
	assert := assert.New(t)
	img := subjectImage(t)
	fillRegion(img, image.Rect(20, 20, 60, 60), blue)

	sweep := ScaleSweep{Max: 1.0, Min: 0.8, Step: 0.1}
	var tops []Crop
	for _, workers := range []int{1, 3, 16} {
		a, err := NewAnalyzer(Config{Workers: workers, Scales: sweep})
		if !assert.NoError(err) {
			return
		}
		crop, err := a.SelectCrop(img, 120, 100)
		if !assert.NoError(err) {
			return
		}
		tops = append(tops, crop)
	}
	assert.Equal(tops[0], tops[1])
	assert.Equal(tops[0], tops[2])
}

func TestAnalyzer_FindAllCropsOrder(t *testing.T) {
	assert := assert.New(t)

	a, err := NewAnalyzer(Config{Workers: 4})
	if !assert.NoError(err) {
		return
	}
	img := subjectImage(t)
	crops, err := a.FindAllCrops(context.Background(), img, 100, 100)
	if !assert.NoError(err) {
		return
	}
	want, err := GenerateCrops(200, 200, 400, 200, DefaultStride, SingleScale)
	if !assert.NoError(err) {
		return
	}
	assert.Len(crops, len(want))
	for i := range crops {
		assert.Equal(want[i].X, crops[i].X)
		assert.Equal(want[i].Y, crops[i].Y)
	}

	top, err := TopCrop(crops)
	assert.NoError(err)
	sel, err := a.SelectCrop(img, 100, 100)
	assert.NoError(err)
	assert.Equal(top, sel)
}

func TestAnalyzer_ContextCancelled(t *testing.T) {
	a, err := NewAnalyzer(Config{})
	if !assert.NoError(t, err) {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = a.SelectCropContext(ctx, subjectImage(t), 100, 100)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAnalyzer_LoggerAndDebug(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	var dumped []string
	a, err := NewAnalyzer(Config{},
		WithLogger(log.New(&buf, "", 0)),
		WithDebug(func(name string, pb *PixelBuffer) {
			dumped = append(dumped, name)
		}),
	)
	if !assert.NoError(err) {
		return
	}
	_, err = a.SelectCrop(subjectImage(t), 100, 100)
	assert.NoError(err)

	assert.Equal([]string{"features", "coarse"}, dumped)
	assert.True(strings.Contains(buf.String(), "Time elapsed score"))
	assert.True(strings.Contains(buf.String(), "top crop"))
}

func BenchmarkAnalyzer_SelectCrop(b *testing.B) {
	img := subjectImage(b)
	a, err := NewAnalyzer(Config{})
	if err != nil {
		b.Fatalf("could not create the analyzer: %v", err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := a.SelectCrop(img, 100, 100); err != nil {
			b.Fatal(err)
		}
	}
}

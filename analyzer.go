package thumbcrop

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Analyzer finds the most interesting crop of an image for a target size.
// An Analyzer holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	cfg   Config
	log   *log.Logger
	debug DebugFunc
}

// DebugFunc receives the intermediate feature maps of an analysis.
// The name is one of "features" or "coarse".
type DebugFunc func(name string, pb *PixelBuffer)

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used to report stage timings.
func WithLogger(l *log.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

// WithDebug registers a callback receiving the intermediate buffers.
func WithDebug(fn DebugFunc) Option {
	return func(a *Analyzer) {
		a.debug = fn
	}
}

// NewAnalyzer returns an Analyzer using cfg. Zero fields of cfg take their
// default values.
func NewAnalyzer(cfg Config, opts ...Option) (*Analyzer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Analyzer{
		cfg: cfg,
		log: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// SelectCrop is a shorthand for building an Analyzer from cfg (nil means
// defaults) and calling its SelectCrop method.
func SelectCrop(img *PixelBuffer, width, height int, cfg *Config) (Crop, error) {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	a, err := NewAnalyzer(c)
	if err != nil {
		return Crop{}, err
	}
	return a.SelectCrop(img, width, height)
}

// SelectCrop returns the best crop of img with the aspect ratio of
// width×height, in img's pixel coordinates.
func (a *Analyzer) SelectCrop(img *PixelBuffer, width, height int) (Crop, error) {
	return a.SelectCropContext(context.Background(), img, width, height)
}

// SelectCropContext is like SelectCrop but stops scoring when ctx is done.
func (a *Analyzer) SelectCropContext(ctx context.Context, img *PixelBuffer, width, height int) (Crop, error) {
	crops, err := a.FindAllCrops(ctx, img, width, height)
	if err != nil {
		return Crop{}, err
	}

	now := time.Now()
	top, err := TopCrop(crops)
	if err != nil {
		return Crop{}, err
	}
	a.log.Println("Time elapsed select:", time.Since(now))
	a.log.Printf("top crop: %v", top)
	return top, nil
}

// FindAllCrops scores every candidate window and returns them in
// generation order: scale, then row, then column.
func (a *Analyzer) FindAllCrops(ctx context.Context, img *PixelBuffer, width, height int) ([]Crop, error) {
	if err := validateBuffer(img); err != nil {
		return nil, err
	}
	cropWidth, cropHeight, err := CropDimensions(img.Width, img.Height, width, height)
	if err != nil {
		return nil, err
	}
	// Targets are only ever scaled up to the image, never down.
	if img.Width < width || img.Height < height {
		return nil, errors.Wrapf(ErrNoCandidate, "image %dx%d is smaller than target %dx%d",
			img.Width, img.Height, width, height)
	}
	// Candidates are counted before any buffer is allocated.
	count := CountCrops(cropWidth, cropHeight, img.Width, img.Height, a.cfg.Stride, a.cfg.Scales)
	if count == 0 {
		return nil, ErrNoCandidate
	}
	if a.cfg.MaxCandidates > 0 && count > a.cfg.MaxCandidates {
		return nil, configErrorf("max_candidates", "%d candidates exceed the limit of %d", count, a.cfg.MaxCandidates)
	}
	a.log.Printf("original resolution: %dx%d", img.Width, img.Height)
	a.log.Printf("cropw: %d, croph: %d, scales: %v", cropWidth, cropHeight, a.cfg.Scales.Levels())

	now := time.Now()
	features, err := Extract(img)
	if err != nil {
		return nil, err
	}
	a.log.Println("Time elapsed features:", time.Since(now))
	a.dump("features", features)

	now = time.Now()
	coarse, err := DownSample(features, a.cfg.DownSample)
	if err != nil {
		return nil, err
	}
	a.log.Println("Time elapsed downsample:", time.Since(now))
	a.dump("coarse", coarse)

	now = time.Now()
	crops, err := GenerateCrops(cropWidth, cropHeight, img.Width, img.Height, a.cfg.Stride, a.cfg.Scales)
	if err != nil {
		return nil, err
	}
	a.log.Println("Time elapsed crops:", time.Since(now), len(crops))

	now = time.Now()
	if err := a.scoreAll(ctx, coarse, crops); err != nil {
		return nil, err
	}
	a.log.Println("Time elapsed score:", time.Since(now))

	return crops, nil
}

// scoreAll fills in the score of every crop. Work is split into contiguous
// chunks, one per worker; each goroutine writes only its own indexes.
func (a *Analyzer) scoreAll(ctx context.Context, coarse *PixelBuffer, crops []Crop) error {
	workers := a.cfg.Workers
	if workers > len(crops) {
		workers = len(crops)
	}
	chunk := (len(crops) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(crops); start += chunk {
		part := crops[start:min(start+chunk, len(crops))]
		g.Go(func() error {
			for i := range part {
				if err := ctx.Err(); err != nil {
					return err
				}
				part[i].Score = score(coarse, a.cfg.DownSample, part[i])
			}
			return nil
		})
	}
	return g.Wait()
}

func (a *Analyzer) dump(name string, pb *PixelBuffer) {
	if a.debug != nil {
		a.debug(name, pb)
	}
}

func validateBuffer(pb *PixelBuffer) error {
	if pb == nil {
		return configErrorf("image", "is nil")
	}
	if pb.Width <= 0 || pb.Height <= 0 {
		return configErrorf("image", "dimensions must be positive, got %dx%d", pb.Width, pb.Height)
	}
	if len(pb.Pix) != pb.Width*pb.Height*4 {
		return configErrorf("image", "has %d bytes, expected %d", len(pb.Pix), pb.Width*pb.Height*4)
	}
	return nil
}

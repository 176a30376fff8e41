package thumbcrop

import (
	"image"
	"image/color"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/esimov/thumbcrop/utils"
)

// DefaultPrescaleMin is the length of the shortest image side after prescaling.
const DefaultPrescaleMin = 400

// CropColor is the colour of the crop outline drawn in overlay mode.
var CropColor = color.NRGBA{R: 0xff, A: 0xff}

// Processor options
type Processor struct {
	// Width and Height are the target thumbnail dimensions.
	Width  int
	Height int
	Config Config

	// Prescale shrinks the image before analysis so that its shortest side
	// is PrescaleMin pixels long. The crop is mapped back to the source.
	Prescale    bool
	PrescaleMin int
	// Resize scales the selected crop to exactly Width×Height.
	Resize bool

	// Debug saves the feature maps and a heatmap into DebugDir.
	Debug    bool
	DebugDir string

	// Overlay outputs the source image with the crop outlined instead of
	// the thumbnail. When a Segmenter is set the background is removed too.
	// A Segmenter other than a *Segmentation is initialized before each
	// image; wrap it with NewSegmentation to initialize it only once.
	Overlay   bool
	Segmenter Segmenter

	Logger  *log.Logger
	Spinner *utils.Spinner
}

// Process decodes the image from r, selects the best crop and writes the
// result to w. The output format follows the extension of w when it is a
// file, and is JPEG otherwise.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	src, _, err := Decode(r)
	if err != nil {
		return err
	}

	rect, err := p.FindCrop(src, debugPrefix(w))
	if err != nil {
		return err
	}

	var out image.Image
	if p.Overlay {
		out, err = p.overlay(src, rect)
		if err != nil {
			return err
		}
	} else {
		out = p.thumbnail(src, rect)
	}

	return Encode(w, out, outputExt(w))
}

// FindCrop returns the best crop of src in source pixel coordinates.
// In debug mode the intermediate maps are saved with the given file prefix.
func (p *Processor) FindCrop(src *PixelBuffer, prefix string) (image.Rectangle, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return image.Rectangle{}, configErrorf("target", "dimensions must be positive, got %dx%d", p.Width, p.Height)
	}
	logger := p.logger()

	img := src
	scale := 1.0
	tw, th := p.Width, p.Height

	if p.Prescale {
		pmin := p.PrescaleMin
		if pmin <= 0 {
			pmin = DefaultPrescaleMin
		}
		if side := utils.Min(src.Width, src.Height); side > pmin {
			scale = float64(pmin) / float64(side)
			resized := imaging.Resize(src.Image(),
				scaled(src.Width, scale), scaled(src.Height, scale), imaging.Lanczos)

			var err error
			if img, err = FromImage(resized); err != nil {
				return image.Rectangle{}, err
			}
			tw, th = scaled(tw, scale), scaled(th, scale)
			logger.Printf("prescaled to %dx%d, target %dx%d", img.Width, img.Height, tw, th)
		}
	}

	opts := []Option{WithLogger(logger)}
	var features *PixelBuffer
	if p.Debug {
		opts = append(opts, WithDebug(func(name string, pb *PixelBuffer) {
			if name == "features" {
				features = pb
			}
			if err := p.saveDebug(prefix, name, pb); err != nil {
				logger.Printf("could not save the %s debug image: %v", name, err)
			}
		}))
	}

	analyzer, err := NewAnalyzer(p.Config, opts...)
	if err != nil {
		return image.Rectangle{}, err
	}
	crop, err := analyzer.SelectCrop(img, tw, th)
	if err != nil {
		return image.Rectangle{}, err
	}

	if p.Debug && features != nil {
		if err := p.saveHeatmap(prefix, img, features, crop.Rect()); err != nil {
			logger.Printf("could not save the heatmap: %v", err)
		}
	}

	rect := image.Rect(
		int(math.Round(crop.X/scale)),
		int(math.Round(crop.Y/scale)),
		int(math.Round((crop.X+crop.Width)/scale)),
		int(math.Round((crop.Y+crop.Height)/scale)),
	).Intersect(image.Rect(0, 0, src.Width, src.Height))

	logger.Printf("selected crop: %v", rect)
	return rect, nil
}

// thumbnail cuts rect out of src, resizing it to the target size if requested.
func (p *Processor) thumbnail(src *PixelBuffer, rect image.Rectangle) image.Image {
	out := imaging.Crop(src.Image(), rect)
	if p.Resize {
		out = imaging.Resize(out, p.Width, p.Height, imaging.Lanczos)
	}
	return out
}

// overlay returns a copy of src with the crop outlined. With a segmenter
// set, the pixels outside of the subject are painted black first.
func (p *Processor) overlay(src *PixelBuffer, rect image.Rectangle) (*image.NRGBA, error) {
	img := imaging.Clone(src.Image())

	if p.Segmenter != nil {
		mask, err := p.segmentation().Segment(src, rect)
		if err != nil {
			return nil, err
		}
		if img, err = RemoveBackground(img, mask); err != nil {
			return nil, err
		}
	}
	DrawCrop(img, rect, CropColor)
	return img, nil
}

// segmentation returns the Segmenter wrapped so that Init runs before
// the first Segment call.
func (p *Processor) segmentation() *Segmentation {
	if s, ok := p.Segmenter.(*Segmentation); ok {
		return s
	}
	return NewSegmentation(p.Segmenter)
}

func (p *Processor) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.New(io.Discard, "", 0)
}

func scaled(v int, scale float64) int {
	return utils.Max(1, int(math.Round(float64(v)*scale)))
}

// outputExt returns the extension of w when it is a named file.
func outputExt(w io.Writer) string {
	if f, ok := w.(*os.File); ok && f != os.Stdout {
		return filepath.Ext(f.Name())
	}
	return ""
}

func debugPrefix(w io.Writer) string {
	if f, ok := w.(*os.File); ok && f != os.Stdout {
		name := filepath.Base(f.Name())
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return "thumbcrop"
}

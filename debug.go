package thumbcrop

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/esimov/thumbcrop/imop"
	"github.com/pkg/errors"
)

var errNoDebugDir = errors.New("debug directory is not set")

var featureMaps = []struct {
	name string
	ch   Channel
}{
	{"skin", SkinChannel},
	{"edge", EdgeChannel},
	{"saturation", SaturationChannel},
}

// saveDebug writes an intermediate buffer of the analysis as PNG files.
// The full resolution features are split into one grayscale image per
// channel; the coarse grid is upscaled with nearest neighbour sampling.
func (p *Processor) saveDebug(prefix, name string, pb *PixelBuffer) error {
	if p.DebugDir == "" {
		return errNoDebugDir
	}
	if err := os.MkdirAll(p.DebugDir, 0755); err != nil {
		return errors.Wrap(err, "unable to create the debug directory")
	}

	switch name {
	case "features":
		for _, m := range featureMaps {
			if err := imaging.Save(channelImage(pb, m.ch), p.debugPath(prefix, m.name)); err != nil {
				return err
			}
		}
	case "coarse":
		if pb.Width == 0 || pb.Height == 0 {
			return nil
		}
		f := p.Config.withDefaults().DownSample
		img := imaging.Resize(pb.Image(), pb.Width*f, pb.Height*f, imaging.NearestNeighbor)
		return imaging.Save(img, p.debugPath(prefix, name))
	}
	return nil
}

// saveHeatmap screens the feature maps over the analysed image and outlines
// the selected crop.
func (p *Processor) saveHeatmap(prefix string, img, features *PixelBuffer, crop image.Rectangle) error {
	if p.DebugDir == "" {
		return errNoDebugDir
	}
	blend := imop.NewBlend()
	if err := blend.Set(imop.Screen); err != nil {
		return err
	}
	bmp := imop.NewBitmap(image.Rect(0, 0, img.Width, img.Height))
	imop.InitOp().Draw(bmp, features.Image(), img.Image(), blend)

	DrawCrop(bmp.Img, crop, CropColor)
	return imaging.Save(bmp.Img, p.debugPath(prefix, "heatmap"))
}

func (p *Processor) debugPath(prefix, name string) string {
	return filepath.Join(p.DebugDir, fmt.Sprintf("%s_%s.png", prefix, name))
}

// channelImage extracts channel c of pb as a grayscale image.
func channelImage(pb *PixelBuffer, c Channel) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, pb.Width, pb.Height))
	for i := range img.Pix {
		img.Pix[i] = pb.Pix[i*4+int(c)]
	}
	return img
}

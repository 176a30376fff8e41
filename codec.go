package thumbcrop

import (
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned by Encode for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Decode reads an image in any of the registered formats (jpeg, png, gif,
// bmp, webp) and converts it to a PixelBuffer. The format name is returned
// alongside.
func Decode(r io.Reader) (*PixelBuffer, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrap(err, "could not decode the source image")
	}
	pb, err := FromImage(img)
	if err != nil {
		return nil, "", err
	}
	return pb, format, nil
}

// Encode writes img to w in the format selected by ext, the destination
// file extension. An empty extension selects jpeg.
func Encode(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case "", ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "extension %q", ext)
	}
}

// isSupportedExt reports whether Encode can write files named with path.
func isSupportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case "", ".jpg", ".jpeg", ".png", ".bmp":
		return true
	}
	return false
}

package thumbcrop

import (
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func writeSubject(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("could not create the directory: %v", err)
	}
	if err := os.WriteFile(path, encodedSubject(t), 0644); err != nil {
		t.Fatalf("could not write the test image: %v", err)
	}
}

func imageSize(t *testing.T, path string) image.Point {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("could not open %s: %v", path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("could not decode %s: %v", path, err)
	}
	return image.Pt(cfg.Width, cfg.Height)
}

func TestExec_SingleFile(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out", "thumb.jpg")
	writeSubject(t, src)

	p := &Processor{Width: 64, Height: 64, Resize: true}
	err := p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-", Status: io.Discard})
	if !assert.NoError(err) {
		return
	}
	assert.Equal(image.Pt(64, 64), imageSize(t, dst))
}

func TestExec_Directory(t *testing.T) {
	assert := assert.New(t)

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "thumbs")
	writeSubject(t, filepath.Join(src, "a.png"))
	writeSubject(t, filepath.Join(src, "nested", "b.png"))
	assert.NoError(os.WriteFile(filepath.Join(src, "notes.txt"), []byte("skip me"), 0644))

	p := &Processor{Width: 32, Height: 32, Resize: true}
	err := p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-", Workers: 2, Status: io.Discard})
	if !assert.NoError(err) {
		return
	}

	assert.Equal(image.Pt(32, 32), imageSize(t, filepath.Join(dst, "a.png")))
	assert.Equal(image.Pt(32, 32), imageSize(t, filepath.Join(dst, "nested", "b.png")))
	_, err = os.Stat(filepath.Join(dst, "notes.txt"))
	assert.True(os.IsNotExist(err))
}

func TestExec_DirectorySegmenterInitOnce(t *testing.T) {
	assert := assert.New(t)

	src := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writeSubject(t, filepath.Join(src, name))
	}

	seg := &countingSegmenter{}
	p := &Processor{Width: 32, Height: 32, Overlay: true, Segmenter: seg}
	err := p.Execute(&Ops{Src: src, Dst: filepath.Join(t.TempDir(), "out"), PipeName: "-", Workers: 3, Status: io.Discard})
	assert.NoError(err)
	assert.Equal(1, seg.inits)
}

func TestExec_DirectoryReportsFailures(t *testing.T) {
	src := t.TempDir()
	writeSubject(t, filepath.Join(src, "ok.png"))
	assert.NoError(t, os.WriteFile(filepath.Join(src, "broken.png"), []byte("not a png"), 0644))

	dst := filepath.Join(t.TempDir(), "thumbs")
	p := &Processor{Width: 32, Height: 32}
	err := p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-", Workers: 2, Status: io.Discard})
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dst, "broken.png"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(dst, "ok.png"))
	assert.NoError(t, statErr)
}

func TestExec_UnsupportedDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writeSubject(t, src)

	p := &Processor{Width: 32, Height: 32}
	err := p.Execute(&Ops{Src: src, Dst: filepath.Join(dir, "out.tiff"), PipeName: "-", Status: io.Discard})
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestExec_MissingSource(t *testing.T) {
	p := &Processor{Width: 32, Height: 32}
	err := p.Execute(&Ops{Src: filepath.Join(t.TempDir(), "missing.png"), Dst: "out.png", PipeName: "-", Status: io.Discard})
	assert.Error(t, err)
}

func TestExec_DestPath(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(filepath.Join("out", "a", "b.png"), destPath("in", "out", filepath.Join("in", "a", "b.png")))
	assert.Equal(filepath.Join("out", "c.jpg"), destPath("in", "out", filepath.Join("in", "c.webp")))
	assert.Equal(filepath.Join("out", "d.jpg"), destPath("in", "out", filepath.Join("in", "d.gif")))
}

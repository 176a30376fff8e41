package thumbcrop

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/esimov/thumbcrop/utils"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// SourceExtensions lists the image file types picked up in directory mode.
var SourceExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".webp"}

// Ops describes a cropping job: a source file, pipe, URL or directory and
// the matching destination.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
	// Status receives the progress messages. Defaults to stderr.
	Status io.Writer
}

// result holds the relevant information about the cropping process of one file.
type result struct {
	path string
	err  error
}

// Execute runs the cropping process described by op. In directory mode
// every supported image is processed concurrently and the first failure
// is returned once all files were handled.
func (p *Processor) Execute(op *Ops) error {
	if op.Status == nil {
		op.Status = os.Stderr
	}

	src := op.Src
	// Check if source path is a local image or URL.
	if utils.IsValidUrl(src) {
		f, err := utils.DownloadImage(src)
		if err != nil {
			return errors.Wrap(err, "failed to load the source image")
		}
		defer os.Remove(f.Name())
		if err := f.Close(); err != nil {
			return err
		}
		src = f.Name()
	}

	var (
		fs  os.FileInfo
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if src == op.PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(src)
	}
	if err != nil {
		return errors.Wrap(err, "failed to load the source image")
	}

	// Capture CTRL-C signal and restore the cursor visibility.
	signalChan := make(chan os.Signal, 1)
	done := make(chan struct{})
	defer close(done)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalChan)
	go func() {
		select {
		case <-signalChan:
			if p.Spinner != nil {
				p.Spinner.RestoreCursor()
			}
			os.Exit(1)
		case <-done:
		}
	}()

	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		err = op.walk(p, src)
	case mode.IsRegular() || mode&os.ModeNamedPipe != 0:
		if op.Dst != op.PipeName && !isSupportedExt(op.Dst) {
			return errors.Wrapf(ErrUnsupportedFormat, "%v file type not supported", filepath.Ext(op.Dst))
		}
		err = op.process(p, src, op.Dst)
		op.printOpStatus(op.Dst, err)
	default:
		return errors.Errorf("unsupported source: %s", src)
	}

	if err == nil {
		fmt.Fprintf(op.Status, "\nExecution time: %s\n",
			utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	}
	return err
}

// walk processes recursively the image files from the src directory with
// up to op.Workers goroutines.
func (op *Ops) walk(p *Processor, src string) error {
	if err := os.MkdirAll(op.Dst, 0755); err != nil {
		return errors.Wrap(err, "unable to create the destination directory")
	}

	// Limit the concurrently running workers to maxWorkers.
	workers := op.Workers
	if workers <= 0 || workers > maxWorkers {
		workers = runtime.NumCPU()
	}

	// The spinner is not shared between concurrent files, the segmenter
	// is initialized once for the whole directory.
	proc := *p
	proc.Spinner = nil
	if proc.Segmenter != nil {
		proc.Segmenter = proc.segmentation()
	}

	ch := make(chan result)
	done := make(chan interface{})
	defer close(done)

	paths, errc := walkDir(done, src, SourceExtensions)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			op.consumer(&proc, src, op.Dst, ch, done, paths)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	var (
		firstErr error
		failed   int
	)
	for res := range ch {
		if res.err != nil {
			failed++
			if firstErr == nil {
				firstErr = errors.Wrap(res.err, res.path)
			}
		}
		op.printOpStatus(res.path, res.err)
	}

	if err := <-errc; err != nil {
		return errors.Wrap(err, "directory walk failed")
	}
	if firstErr != nil {
		return errors.Wrapf(firstErr, "%d file(s) failed", failed)
	}
	return nil
}

// consumer reads the path names from the paths channel and calls the
// cropping processor against the source image.
func (op *Ops) consumer(
	p *Processor,
	root, dest string,
	res chan<- result,
	done <-chan interface{},
	paths <-chan string,
) {
	for src := range paths {
		err := op.process(p, src, destPath(root, dest, src))

		select {
		case <-done:
			return
		case res <- result{
			path: src,
			err:  err,
		}:
		}
	}
}

// destPath mirrors the position of src below root into dest. Sources in a
// format that cannot be encoded are written as JPEG.
func destPath(root, dest, src string) string {
	rel, err := filepath.Rel(root, src)
	if err != nil {
		rel = filepath.Base(src)
	}
	if !isSupportedExt(rel) {
		rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".jpg"
	}
	return filepath.Join(dest, rel)
}

// process calls the cropping method over the source image and returns the error in case exists.
func (op *Ops) process(p *Processor, in, out string) (err error) {
	var successMsg, errorMsg string
	if p.Spinner != nil {
		successMsg = fmt.Sprintf("%s %s %s",
			utils.DecorateText("⚡ THUMBCROP", utils.StatusMessage),
			utils.DecorateText("⇢", utils.DefaultMessage),
			utils.DecorateText("the image has been cropped successfully ✔", utils.SuccessMessage),
		)
		errorMsg = fmt.Sprintf("%s %s %s",
			utils.DecorateText("⚡ THUMBCROP", utils.StatusMessage),
			utils.DecorateText("cropping image failed...", utils.DefaultMessage),
			utils.DecorateText("✘", utils.ErrorMessage),
		)
		// Start the progress indicator.
		p.Spinner.Start()
		defer func() {
			if err != nil {
				p.Spinner.StopMsg = errorMsg
			} else {
				p.Spinner.StopMsg = successMsg
			}
			p.Spinner.Stop()
		}()
	}

	src, dst, err := op.pathToFile(in, out)
	if err != nil {
		return err
	}

	defer func() {
		if f, ok := src.(*os.File); ok && f != os.Stdin {
			if err := f.Close(); err != nil {
				log.Printf("could not close the opened file: %v", err)
			}
		}
	}()

	if err = p.Process(src, dst); err != nil {
		if f, ok := dst.(*os.File); ok && f != os.Stdout {
			f.Close()
			// remove the generated image file in case of an error
			os.Remove(f.Name())
		}
		return err
	}

	if f, ok := dst.(*os.File); ok && f != os.Stdout {
		return f.Close()
	}
	return nil
}

// pathToFile converts the source and destination paths to readable and writable files.
func (op *Ops) pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, errors.Wrap(err, "unable to open the source file")
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return nil, nil, errors.Wrap(err, "unable to create the destination directory")
		}
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "unable to create the destination file")
		}
	}
	return src, dst, nil
}

// printOpStatus displays the relevant information about the cropping process.
func (op *Ops) printOpStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(op.Status, "%s%s",
			utils.DecorateText("\nError cropping the image: "+filepath.Base(fname), utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err), utils.DefaultMessage),
		)
		return
	}
	if fname != op.PipeName {
		fmt.Fprintf(op.Status, "\nThe image has been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each regular file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan interface{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() {
				return nil
			}

			if utils.Contains(srcExts, strings.ToLower(filepath.Ext(f.Name()))) {
				select {
				case <-done:
					return errors.New("directory walk cancelled")
				case pathChan <- path:
				}
			}
			return nil
		})
	}()
	return pathChan, errChan
}

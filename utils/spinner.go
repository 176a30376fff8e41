package utils

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	hideCursorSeq = "\033[?25l"
	showCursorSeq = "\033[?25h"
)

var spinnerFrames = []rune(`⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏`)

// Spinner is a progress indicator shown while an image is being cropped.
type Spinner struct {
	// StopMsg is printed in place of the indicator by Stop.
	StopMsg string

	mu         sync.Mutex
	delay      time.Duration
	writer     io.Writer
	message    string
	lastOutput string
	hideCursor bool
	stop       chan struct{}
	done       chan struct{}
}

// NewSpinner returns a progress indicator writing to stderr.
func NewSpinner(msg string, d time.Duration, hideCursor bool) *Spinner {
	return NewSpinnerTo(os.Stderr, msg, d, hideCursor)
}

// NewSpinnerTo returns a progress indicator writing to w.
func NewSpinnerTo(w io.Writer, msg string, d time.Duration, hideCursor bool) *Spinner {
	return &Spinner{
		delay:      d,
		writer:     w,
		message:    msg,
		hideCursor: hideCursor && runtime.GOOS != "windows",
	}
}

// Start shows the indicator until Stop is called. Starting a running
// spinner has no effect.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	if s.hideCursor {
		fmt.Fprint(s.writer, hideCursorSeq)
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
}

func (s *Spinner) run(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.delay)
	defer ticker.Stop()

	for i := 0; ; i++ {
		frame := DecorateText(string(spinnerFrames[i%len(spinnerFrames)]), SuccessMessage)
		output := fmt.Sprintf("\r%s %s", s.message, frame)

		s.mu.Lock()
		fmt.Fprint(s.writer, output)
		s.lastOutput = output
		s.mu.Unlock()

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// Stop removes the indicator, prints StopMsg and restores the cursor.
// It waits for the drawing goroutine to exit.
func (s *Spinner) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.restoreCursor()
	if s.StopMsg != "" {
		fmt.Fprint(s.writer, s.StopMsg)
	}
}

// RestoreCursor makes the cursor visible again. It is called on interrupt.
func (s *Spinner) RestoreCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restoreCursor()
}

func (s *Spinner) restoreCursor() {
	if s.hideCursor {
		fmt.Fprint(s.writer, showCursorSeq)
	}
}

// clear erases the last drawn frame. The caller must hold mu.
func (s *Spinner) clear() {
	if s.lastOutput == "" {
		return
	}
	n := utf8.RuneCountInString(s.lastOutput)
	if runtime.GOOS == "windows" {
		fmt.Fprint(s.writer, "\r"+strings.Repeat(" ", n)+"\r")
	} else {
		fmt.Fprint(s.writer, "\r\033[K")
	}
	s.lastOutput = ""
}

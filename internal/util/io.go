package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Writer buffers output produced by a single pass invocation in a
// strings.Builder. Flush/Close sends the buffer to the process-wide sink
// set up by ListenWrite, the same split vslc/src/util/io.go uses so that
// concurrent passes writing LLIR text, token streams, or AST dumps never
// interleave partial writes.
type Writer struct {
	sb strings.Builder
	c  chan string
}

var wc chan string
var closeOnce sync.Once
var wg *sync.WaitGroup

func (w *Writer) Write(format string, args ...interface{}) {
	w.sb.WriteString(fmt.Sprintf(format, args...))
}

func (w *Writer) WriteString(s string) {
	w.sb.WriteString(s)
}

func (w *Writer) Flush() {
	w.c <- w.sb.String()
	w.sb.Reset()
}

func (w *Writer) Close() {
	w.Flush()
	w.c = nil
	wg.Done()
}

// NewWriter returns a Writer bound to the process-wide sink. Must not be
// called before ListenWrite.
func NewWriter() *Writer {
	wg.Add(1)
	return &Writer{c: wc}
}

// ListenWrite starts the single goroutine that drains every Writer's output
// to f (or stdout, if f is nil) until Close is called.
func ListenWrite(f *os.File, wgg *sync.WaitGroup) {
	wg = wgg
	wc = make(chan string, 4)
	out := os.Stdout
	if f != nil {
		out = f
	}
	bw := bufio.NewWriter(out)
	go func() {
		for s := range wc {
			_, _ = bw.WriteString(s)
			_ = bw.Flush()
		}
	}()
}

// Close terminates the output listener. Must be called exactly once, after
// every Writer has been Closed.
func Close() {
	closeOnce.Do(func() {
		if wc != nil {
			close(wc)
		}
	})
}

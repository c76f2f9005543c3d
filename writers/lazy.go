package writers

import (
	"io"
)

// LazyWriteCloser delays creating its destination until the first write, so a
// command that fails before producing output leaves no empty file behind.
type LazyWriteCloser struct {
	init    func() (io.WriteCloser, error)
	writer  io.WriteCloser
	initErr error
}

// NewLazyWriteCloser calls init once, on the first Write.
func NewLazyWriteCloser(init func() (io.WriteCloser, error)) *LazyWriteCloser {
	return &LazyWriteCloser{init: init}
}

func (f *LazyWriteCloser) Write(p []byte) (int, error) {
	if f.writer == nil {
		if f.initErr != nil {
			return 0, f.initErr
		}
		f.writer, f.initErr = f.init()
		if f.initErr != nil {
			f.writer = nil
			return 0, f.initErr
		}
	}

	return f.writer.Write(p)
}

// Opened reports whether the destination was created.
func (f *LazyWriteCloser) Opened() bool {
	return f.writer != nil
}

func (f *LazyWriteCloser) Close() error {
	if f.writer != nil {
		return f.writer.Close()
	}
	return nil
}

// Abort discards the destination when it supports it and was created.
func (f *LazyWriteCloser) Abort() {
	if a, ok := f.writer.(interface{ Abort() }); ok {
		a.Abort()
	}
}

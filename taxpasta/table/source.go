package table

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/pgzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Source is either a filesystem path or an already-open stream. Gzip input
// is detected by its magic bytes and decompressed transparently.
type Source struct {
	name string
	path string
	r    io.Reader
}

// FromPath returns a source that opens path on demand.
func FromPath(path string) Source {
	return Source{name: path, path: path}
}

// FromReader wraps an open stream. The stream is never closed by this
// package; its owner keeps that responsibility.
func FromReader(name string, r io.Reader) Source {
	return Source{name: name, r: r}
}

// Name identifies the source in diagnostics.
func (s Source) Name() string {
	if s.name == "" {
		return "<stream>"
	}
	return s.name
}

// Path returns the filesystem path, or "" for streams.
func (s Source) Path() string {
	return s.path
}

type readCloser struct {
	reader io.Reader
	close  func() error
}

func (r readCloser) Read(p []byte) (int, error) {
	return r.reader.Read(p)
}

func (r readCloser) Close() error {
	return r.close()
}

// Open returns a reader over the decompressed content. Closing it releases
// the file handle for path sources.
func (s Source) Open() (io.ReadCloser, error) {
	var (
		raw     io.Reader
		closeFn = func() error { return nil }
	)
	switch {
	case s.path != "":
		f, err := os.Open(s.path)
		if err != nil {
			return nil, err
		}
		raw = f
		closeFn = f.Close
	case s.r != nil:
		raw = s.r
	default:
		return nil, errors.New("empty source")
	}

	br := bufio.NewReader(raw)
	magic, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		_ = closeFn()
		return nil, err
	}
	if !bytes.Equal(magic, gzipMagic) {
		return readCloser{reader: br, close: closeFn}, nil
	}

	gz, err := pgzip.NewReader(br)
	if err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	return readCloser{
		reader: gz,
		close: func() error {
			_ = gz.Close()
			return closeFn()
		},
	}, nil
}

// ReadAll buffers the whole decompressed content so that readers needing
// more than one pass can scan it repeatedly.
func (s Source) ReadAll() ([]byte, error) {
	in, err := s.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = in.Close()
	}()

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Name(), err)
	}
	return data, nil
}

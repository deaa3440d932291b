// Package source provides decoded text lines to the reader.
//
// A Source is one of three kinds. File sources read a local file through a
// buffered reader or a memory mapping and can rewind. Stream sources read a
// forward-only io.Reader such as a decompressor or a remote object. Iterator
// sources pull strings from a caller-supplied producer. Stream and iterator
// sources treat Seek as a no-op, so the reader infers types in one pass.
//
// Every line handed out ends with a single "\n": "\r\n" terminators are
// normalized and a final unterminated line gets one appended.
package source

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/ajitpratap0/textreader/pkg/compression"
	"github.com/ajitpratap0/textreader/pkg/errors"
)

// ErrEndOfInput is returned by NextLine once the source is exhausted. It is
// io.EOF so sources compose with io-style loops.
var ErrEndOfInput = io.EOF

// Kind tags the variant of a Source
type Kind uint8

const (
	// KindFile is a seekable local file
	KindFile Kind = iota + 1
	// KindIterator is a caller-supplied line producer
	KindIterator
	// KindStream is a forward-only reader
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindIterator:
		return "iterator"
	case KindStream:
		return "stream"
	}
	return "unknown"
}

// Source is a sequence of decoded text lines
type Source interface {
	// NextLine returns the next line including its "\n" terminator, or
	// ErrEndOfInput when there are no more lines.
	NextLine() (string, error)
	// Position is the approximate byte offset of the next unread byte
	Position() int64
	// LineNumber is the 1-based number of the last line returned
	LineNumber() int
	// Seek repositions a file source to offset and returns the new position.
	// Other kinds return the current position unchanged.
	Seek(offset int64) (int64, error)
	// Kind reports the variant
	Kind() Kind
	// Identifier names the source for logs and errors
	Identifier() string
	Close() error
}

// Seekable reports whether src can rewind to the start
func Seekable(src Source) bool {
	return src.Kind() == KindFile
}

// Options controls how a source is opened and decoded
type Options struct {
	// Encoding is an IANA character set name. Empty means UTF-8.
	Encoding string
	// MemoryMap serves local, uncompressed UTF-8 files from a memory mapping
	MemoryMap bool
	// Compression forces a codec. Empty detects it from the file extension
	// and compression.None disables detection.
	Compression compression.Algorithm
	// BufferSize is the read buffer size; 0 means 64KB
	BufferSize int
}

func (o Options) bufferSize() int {
	if o.BufferSize > 0 {
		return o.BufferSize
	}
	return 64 * 1024
}

// Open opens identifier. URIs whose scheme has a registered opener (s3://,
// gs://, kafka:// once their packages are linked in) go to that opener;
// anything else is a local path.
func Open(ctx context.Context, identifier string, opts Options) (Source, error) {
	if scheme, _, ok := strings.Cut(identifier, "://"); ok && scheme != "file" {
		opener, err := globalRegistry.Opener(scheme)
		if err != nil {
			return nil, err
		}
		src, err := opener(ctx, identifier, opts)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return OpenFile(strings.TrimPrefix(identifier, "file://"), opts)
}

// OpenFile opens a local file. Compressed files become stream sources.
func OpenFile(path string, opts Options) (Source, error) {
	alg := opts.Compression
	if alg == "" {
		alg, _ = compression.Detect(path)
	}

	if alg == compression.None && opts.MemoryMap && isUTF8(opts.Encoding) {
		src, err := openMapped(path)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, errMmapUnsupported) {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, OpenError(path, err)
	}

	if alg == compression.None {
		src, err := newLineSource(path, KindFile, f, opts)
		if err != nil {
			f.Close()
			return nil, err
		}
		src.file = f
		src.closers = append(src.closers, f)
		return src, nil
	}

	dec, err := compression.NewReader(f, alg)
	if err != nil {
		f.Close()
		return nil, withIdentifier(err, path)
	}
	src, err := newLineSource(path, KindStream, dec, opts)
	if err != nil {
		dec.Close()
		f.Close()
		return nil, err
	}
	src.closers = append(src.closers, dec, f)
	return src, nil
}

// FromReader wraps a forward-only reader. If r is an io.Closer it is closed
// with the source.
func FromReader(identifier string, r io.Reader, opts Options) (Source, error) {
	alg := opts.Compression
	if alg == "" {
		alg, _ = compression.Detect(identifier)
	}
	var closers []io.Closer
	if c, ok := r.(io.Closer); ok {
		closers = append(closers, c)
	}
	if alg != compression.None {
		dec, err := compression.NewReader(r, alg)
		if err != nil {
			closeAll(closers)
			return nil, withIdentifier(err, identifier)
		}
		closers = append([]io.Closer{dec}, closers...)
		r = dec
	}
	src, err := newLineSource(identifier, KindStream, r, opts)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	src.closers = closers
	return src, nil
}

// OpenError maps an open failure of identifier to a source error
func OpenError(identifier string, err error) error {
	var e *errors.Error
	switch {
	case errors.As(err, &e):
		return withIdentifier(err, identifier)
	case os.IsNotExist(err):
		return errors.Wrap(errors.ErrNotFound, errors.ErrorTypeSource, identifier+": "+err.Error()).
			WithDetail("identifier", identifier)
	case os.IsPermission(err):
		return errors.Wrap(errors.ErrPermissionDenied, errors.ErrorTypeSource, identifier+": "+err.Error()).
			WithDetail("identifier", identifier)
	}
	return errors.Wrap(errors.ErrRead, errors.ErrorTypeSource, "open "+identifier+": "+err.Error()).
		WithDetail("identifier", identifier)
}

func withIdentifier(err error, identifier string) error {
	var e *errors.Error
	if errors.As(err, &e) {
		if _, ok := e.Detail("identifier"); !ok {
			e.WithDetail("identifier", identifier)
		}
	}
	return err
}

func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// cleanup runs fn after the wrapped source closes
type cleanup struct {
	Source
	fn func() error
}

func (c *cleanup) Close() error {
	err := c.Source.Close()
	if ferr := c.fn(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

// OnClose returns src with fn run after src.Close, for temporary files
// backing a remote object.
func OnClose(src Source, fn func() error) Source {
	return &cleanup{Source: src, fn: fn}
}

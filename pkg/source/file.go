package source

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/ajitpratap0/textreader/pkg/errors"
)

const byteOrderMark = "\ufeff"

// lineSource serves lines from a buffered reader. It backs both file and
// stream sources; only file sources keep the *os.File needed to rewind.
type lineSource struct {
	id      string
	kind    Kind
	enc     encoding.Encoding // nil for UTF-8
	br      *bufio.Reader
	bufSize int
	file    *os.File
	closers []io.Closer

	pos  int64
	line int
}

func newLineSource(id string, kind Kind, r io.Reader, opts Options) (*lineSource, error) {
	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	s := &lineSource{
		id:      id,
		kind:    kind,
		enc:     enc,
		bufSize: opts.bufferSize(),
	}
	s.reset(r)
	return s, nil
}

func isUTF8(name string) bool {
	return name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8")
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	if isUTF8(name) {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
			"unsupported encoding "+name).WithDetail("encoding", name)
	}
	return enc, nil
}

// strictDecoder fails with ErrDecode where the decoder would substitute
// U+FFFD for bytes the encoding cannot map
type strictDecoder struct {
	transform.Transformer
}

var replacementChar = []byte(string(utf8.RuneError))

func (d strictDecoder) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	nDst, nSrc, err := d.Transformer.Transform(dst, src, atEOF)
	if i := bytes.Index(dst[:nDst], replacementChar); i >= 0 {
		return i, nSrc, errors.ErrDecode
	}
	return nDst, nSrc, err
}

func (s *lineSource) reset(r io.Reader) {
	if s.enc != nil {
		r = transform.NewReader(r, strictDecoder{s.enc.NewDecoder()})
	}
	if s.br == nil {
		s.br = bufio.NewReaderSize(r, s.bufSize)
		return
	}
	s.br.Reset(r)
}

func (s *lineSource) NextLine() (string, error) {
	text, err := s.br.ReadString('\n')
	if errors.Is(err, errors.ErrDecode) {
		s.line++
		return "", s.fail(errors.ErrDecode, "bytes not valid in the source encoding")
	}
	if err != nil && err != io.EOF {
		return "", s.fail(errors.ErrRead, err.Error())
	}
	if text == "" {
		return "", ErrEndOfInput
	}
	s.pos += int64(len(text))
	s.line++

	if s.line == 1 {
		text = strings.TrimPrefix(text, byteOrderMark)
	}
	if s.enc == nil && !utf8.ValidString(text) {
		return "", s.fail(errors.ErrDecode, "invalid UTF-8")
	}
	return normalize(text), nil
}

func (s *lineSource) fail(cause error, msg string) error {
	return errors.Wrap(cause, errors.ErrorTypeSource, s.id+": "+msg).
		WithDetail("identifier", s.id).
		WithDetail("line", s.line).
		WithDetail("offset", s.pos)
}

// normalize makes text end with exactly one "\n"
func normalize(text string) string {
	switch {
	case strings.HasSuffix(text, "\r\n"):
		return text[:len(text)-2] + "\n"
	case strings.HasSuffix(text, "\n"):
		return text
	}
	return text + "\n"
}

func (s *lineSource) Position() int64 { return s.pos }

func (s *lineSource) LineNumber() int { return s.line }

func (s *lineSource) Kind() Kind { return s.kind }

func (s *lineSource) Identifier() string { return s.id }

// Seek rewinds a file source. Line numbers restart only when seeking to 0.
func (s *lineSource) Seek(offset int64) (int64, error) {
	if s.kind != KindFile || s.file == nil {
		return s.pos, nil
	}
	if _, err := s.file.Seek(offset, io.SeekStart); err != nil {
		return s.pos, s.fail(errors.ErrRead, "seek: "+err.Error())
	}
	s.reset(s.file)
	s.pos = offset
	if offset == 0 {
		s.line = 0
	}
	return s.pos, nil
}

func (s *lineSource) Close() error {
	err := closeAll(s.closers)
	s.closers = nil
	return err
}

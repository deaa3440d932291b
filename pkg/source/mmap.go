package source

import (
	"os"
	"unicode/utf8"

	"github.com/ajitpratap0/textreader/pkg/errors"
)

var errMmapUnsupported = errors.New(errors.ErrorTypeInternal, "memory mapping not supported on this platform")

// mappedSource serves lines directly from a memory-mapped file. Positions
// are exact byte offsets.
type mappedSource struct {
	id   string
	file *os.File
	data []byte
	off  int
	line int
}

func openMapped(path string) (*mappedSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, OpenError(path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, OpenError(path, err)
	}

	s := &mappedSource{id: path, file: file}
	if stat.Size() == 0 {
		// Nothing to map; serve an empty source.
		return s, nil
	}

	data, err := mmap(int(file.Fd()), 0, int(stat.Size()), protRead, mapShared)
	if err != nil {
		file.Close()
		if errors.Is(err, errMmapUnsupported) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrRead, errors.ErrorTypeSource, "mmap "+path+": "+err.Error()).
			WithDetail("identifier", path)
	}
	// Advisory only.
	_ = madvise(data, madvSequential)
	s.data = data
	return s, nil
}

func (s *mappedSource) NextLine() (string, error) {
	if s.off >= len(s.data) {
		return "", ErrEndOfInput
	}
	start := s.off
	end := start
	for end < len(s.data) && s.data[end] != '\n' {
		end++
	}
	if end < len(s.data) {
		// Include the newline
		end++
	}
	s.off = end
	s.line++

	raw := s.data[start:end]
	if s.line == 1 && len(raw) >= 3 && raw[0] == 0xEF && raw[1] == 0xBB && raw[2] == 0xBF {
		raw = raw[3:]
	}
	if !utf8.Valid(raw) {
		return "", errors.Wrap(errors.ErrDecode, errors.ErrorTypeSource, s.id+": invalid UTF-8").
			WithDetail("identifier", s.id).
			WithDetail("line", s.line).
			WithDetail("offset", int64(start))
	}
	return normalize(string(raw)), nil
}

func (s *mappedSource) Position() int64 { return int64(s.off) }

func (s *mappedSource) LineNumber() int { return s.line }

func (s *mappedSource) Kind() Kind { return KindFile }

func (s *mappedSource) Identifier() string { return s.id }

func (s *mappedSource) Seek(offset int64) (int64, error) {
	if offset < 0 || offset > int64(len(s.data)) {
		return int64(s.off), errors.Newf(errors.ErrorTypeSource, "seek offset %d out of range [0, %d]", offset, len(s.data)).
			WithDetail("identifier", s.id)
	}
	s.off = int(offset)
	if offset == 0 {
		s.line = 0
	}
	return offset, nil
}

// Close unmaps the file and closes it
func (s *mappedSource) Close() error {
	var err error
	if s.data != nil {
		err = munmap(s.data)
		s.data = nil
	}
	if s.file != nil {
		if closeErr := s.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		s.file = nil
	}
	return err
}

package source

import (
	"iter"
	"strings"
)

// iteratorSource adapts a line producer. It holds one produced item at a time
// and never rewinds.
type iteratorSource struct {
	id     string
	next   func() (string, bool)
	pull   func() (string, error)
	stop   func()
	closer func() error
	pos    int64
	line   int
	done   bool
}

// FromIterator adapts next, which returns false once it is exhausted. Items
// may be whole lines with or without a terminator; an item holding several
// "\n"-separated lines is not split.
func FromIterator(next func() (string, bool)) Source {
	return &iteratorSource{id: "iterator", next: next}
}

// FromSeq adapts a string sequence
func FromSeq(seq iter.Seq[string]) Source {
	next, stop := iter.Pull(seq)
	return &iteratorSource{id: "iterator", next: next, stop: stop}
}

// FromProducer adapts a producer that can fail. next returns ErrEndOfInput
// once it is exhausted; any other error is returned by NextLine and ends the
// source. closer, if not nil, runs on Close.
func FromProducer(id string, next func() (string, error), closer func() error) Source {
	return &iteratorSource{id: id, pull: next, closer: closer}
}

// FromLines serves a fixed slice of lines
func FromLines(lines ...string) Source {
	i := 0
	return FromIterator(func() (string, bool) {
		if i >= len(lines) {
			return "", false
		}
		i++
		return lines[i-1], true
	})
}

// FromString serves the lines of text
func FromString(text string) Source {
	lines := strings.SplitAfter(text, "\n")
	if n := len(lines); lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return FromLines(lines...)
}

func (s *iteratorSource) NextLine() (string, error) {
	if s.done {
		return "", ErrEndOfInput
	}
	var item string
	if s.pull != nil {
		var err error
		if item, err = s.pull(); err != nil {
			s.done = true
			return "", err
		}
	} else {
		var ok bool
		if item, ok = s.next(); !ok {
			s.done = true
			return "", ErrEndOfInput
		}
	}
	s.pos += int64(len(item))
	s.line++
	return normalize(item), nil
}

func (s *iteratorSource) Position() int64 { return s.pos }

func (s *iteratorSource) LineNumber() int { return s.line }

func (s *iteratorSource) Kind() Kind { return KindIterator }

func (s *iteratorSource) Identifier() string { return s.id }

// Seek does nothing; producers cannot rewind
func (s *iteratorSource) Seek(int64) (int64, error) { return s.pos, nil }

func (s *iteratorSource) Close() error {
	if s.stop != nil {
		s.stop()
	}
	s.done = true
	if s.closer != nil {
		closer := s.closer
		s.closer = nil
		return closer()
	}
	return nil
}

// Named returns src reporting id as its identifier
func Named(src Source, id string) Source {
	if it, ok := src.(*iteratorSource); ok {
		it.id = id
		return it
	}
	return &named{Source: src, id: id}
}

type named struct {
	Source
	id string
}

func (n *named) Identifier() string { return n.id }

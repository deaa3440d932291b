// Package blocks accumulates fixed-width rows in an arena of chunks.
//
// Rows are written once and never moved: when a chunk fills up a new one is
// allocated, twice the size of the last up to a ceiling, so appending is
// amortised O(1) even when the final row count is unknown.
package blocks

import (
	"strconv"

	"github.com/ajitpratap0/textreader/pkg/errors"
)

const (
	// DefaultInitialRows is the capacity of the first chunk
	DefaultInitialRows = 512
	// DefaultMaxChunkRows caps chunk growth
	DefaultMaxChunkRows = 1 << 20
)

// ErrFull is returned by Append once the row ceiling is reached
var ErrFull = errors.New(errors.ErrorTypeInternal, "row store is full")

// Chunk is a run of contiguous rows
type Chunk struct {
	Data []byte
	Rows int
}

// Option configures a Store
type Option func(*Store)

// WithMaxRows stops the store at n rows. A negative n means no ceiling.
func WithMaxRows(n int) Option {
	return func(s *Store) {
		s.maxRows = n
	}
}

// WithInitialRows sets the capacity of the first chunk
func WithInitialRows(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.nextRows = n
		}
	}
}

// WithMaxChunkRows caps the capacity of any one chunk
func WithMaxChunkRows(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxChunkRows = n
		}
	}
}

// WithChunkHook calls fn with the capacity of every chunk allocated
func WithChunkHook(fn func(rows int)) Option {
	return func(s *Store) {
		s.onChunk = fn
	}
}

// Store is a single-writer row arena
type Store struct {
	rowSize      int
	maxRows      int
	nextRows     int
	maxChunkRows int
	onChunk      func(rows int)

	chunks []Chunk
	cur    []byte // unused tail of the last chunk
	rows   int
}

// New returns an empty store for rows of rowSize bytes
func New(rowSize int, opts ...Option) *Store {
	s := &Store{
		rowSize:      rowSize,
		maxRows:      -1,
		nextRows:     DefaultInitialRows,
		maxChunkRows: DefaultMaxChunkRows,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.nextRows > s.maxChunkRows {
		s.nextRows = s.maxChunkRows
	}
	return s
}

// RowSize is the byte width of a row
func (s *Store) RowSize() int {
	return s.rowSize
}

// Rows is the number of rows appended
func (s *Store) Rows() int {
	return s.rows
}

// Chunks is the number of chunks allocated so far
func (s *Store) Chunks() int {
	return len(s.chunks)
}

// Full reports whether the row ceiling has been reached
func (s *Store) Full() bool {
	return s.maxRows >= 0 && s.rows >= s.maxRows
}

// Next reserves the next row and returns its zeroed slot for the caller to
// fill. The slot is committed immediately.
func (s *Store) Next() ([]byte, error) {
	if s.Full() {
		return nil, ErrFull
	}
	if s.rowSize == 0 {
		s.rows++
		return nil, nil
	}
	if len(s.cur) == 0 {
		s.grow()
	}
	slot := s.cur[:s.rowSize:s.rowSize]
	s.cur = s.cur[s.rowSize:]
	last := &s.chunks[len(s.chunks)-1]
	last.Rows++
	last.Data = last.Data[:last.Rows*s.rowSize]
	s.rows++
	return slot, nil
}

// Append copies row into the store
func (s *Store) Append(row []byte) error {
	if len(row) != s.rowSize {
		return errors.Newf(errors.ErrorTypeInternal, "row of %d bytes in a store of %d-byte rows", len(row), s.rowSize)
	}
	slot, err := s.Next()
	if err != nil {
		return err
	}
	copy(slot, row)
	return nil
}

func (s *Store) grow() {
	n := s.nextRows
	if s.maxRows >= 0 {
		if left := s.maxRows - s.rows; left < n {
			n = left
		}
	}
	buf := make([]byte, 0, n*s.rowSize)
	s.chunks = append(s.chunks, Chunk{Data: buf})
	s.cur = buf[:cap(buf)]

	if s.nextRows < s.maxChunkRows {
		s.nextRows *= 2
		if s.nextRows > s.maxChunkRows {
			s.nextRows = s.maxChunkRows
		}
	}
	if s.onChunk != nil {
		s.onChunk(n)
	}
}

// Finalize hands the rows to the caller. The store must not be used after.
func (s *Store) Finalize() Result {
	res := Result{RowSize: s.rowSize, Rows: s.rows, Chunks: s.chunks}
	s.chunks = nil
	s.cur = nil
	return res
}

// Result is the finalized content of a Store
type Result struct {
	RowSize int
	Rows    int
	Chunks  []Chunk
}

// Len is the total number of bytes held
func (r Result) Len() int {
	return r.Rows * r.RowSize
}

// Contiguous returns all rows in one buffer. A single chunk is returned
// without copying.
func (r Result) Contiguous() []byte {
	if len(r.Chunks) == 1 {
		return r.Chunks[0].Data
	}
	out := make([]byte, 0, r.Len())
	for _, c := range r.Chunks {
		out = append(out, c.Data...)
	}
	return out
}

// Row returns row i
func (r Result) Row(i int) []byte {
	if i < 0 || i >= r.Rows {
		panic("blocks: row index " + strconv.Itoa(i) + " out of range")
	}
	if r.RowSize == 0 {
		return nil
	}
	for _, c := range r.Chunks {
		if i < c.Rows {
			off := i * r.RowSize
			return c.Data[off : off+r.RowSize : off+r.RowSize]
		}
		i -= c.Rows
	}
	return nil
}

// Each calls fn for every row in order, stopping at the first error
func (r Result) Each(fn func(i int, row []byte) error) error {
	i := 0
	if r.RowSize == 0 {
		for ; i < r.Rows; i++ {
			if err := fn(i, nil); err != nil {
				return err
			}
		}
		return nil
	}
	for _, c := range r.Chunks {
		for k := 0; k < c.Rows; k++ {
			off := k * r.RowSize
			if err := fn(i, c.Data[off:off+r.RowSize:off+r.RowSize]); err != nil {
				return err
			}
			i++
		}
	}
	return nil
}

// Package inference picks a column type for each column of delimited text by
// watching every token and widening along the lattice
//
//	bool -> integer -> float64 -> complex128 -> string
//
// A column never narrows. Tokens holding only whitespace are treated as
// missing and leave the column type alone.
package inference

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/ajitpratap0/textreader/pkg/convert"
	"github.com/ajitpratap0/textreader/pkg/dtype"
	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/numconv"
	"github.com/ajitpratap0/textreader/pkg/tokenizer"
)

// Kind is a position on the promotion lattice
type Kind uint8

const (
	// KindUnknown means only blank tokens have been seen
	KindUnknown Kind = iota
	KindBool
	KindInt
	KindFloat
	KindComplex
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindComplex:
		return "complex"
	case KindString:
		return "string"
	}
	return "unknown"
}

// Options tunes the result
type Options struct {
	// Format holds the decimal and exponent characters for float detection
	Format numconv.Format
	// PreferUnsigned picks B/H/I/Q for integer columns without negative values
	PreferUnsigned bool
	// StringWidthCap truncates inferred string widths; 0 means no cap
	StringWidthCap int
}

type column struct {
	kind Kind
	// Integer range seen so far. Both start at 0, so min <= 0 <= max.
	min    int64
	max    uint64
	width  int // characters in the longest token
	nbytes int // bytes in the longest token
	ascii  bool
}

// Inferrer accumulates per-column observations
type Inferrer struct {
	opts Options
	cols []column
	conv map[int]convert.Func
	rows int
}

// New returns an empty Inferrer
func New(opts Options) *Inferrer {
	return &Inferrer{opts: opts}
}

// Rows is the number of rows observed
func (in *Inferrer) Rows() int {
	return in.rows
}

// Columns is the column count fixed by the first observed row
func (in *Inferrer) Columns() int {
	return len(in.cols)
}

// Observe feeds one row. The first row fixes the column count; a later row
// with a different count is a structure error.
func (in *Inferrer) Observe(tokens []tokenizer.Token) error {
	if in.rows == 0 {
		in.cols = make([]column, len(tokens))
		for i := range in.cols {
			in.cols[i].ascii = true
		}
	} else if len(tokens) != len(in.cols) {
		return errors.Wrap(errors.ErrFieldCount, errors.ErrorTypeStructure,
			"expected "+strconv.Itoa(len(in.cols))+" fields, found "+strconv.Itoa(len(tokens))).
			WithDetail("expected", len(in.cols)).
			WithDetail("actual", len(tokens))
	}
	for i, tok := range tokens {
		if fn, ok := in.conv[i]; ok {
			// A failing converter leaves the column alone; the conversion
			// pass reports the error with its position.
			if v, err := fn(tok.Text); err == nil {
				in.observeValue(&in.cols[i], v)
			}
			continue
		}
		in.observe(&in.cols[i], tok.Text)
	}
	in.rows++
	return nil
}

// Convert makes column i observe the values fn returns instead of its raw
// tokens. Columns are counted in the input row.
func (in *Inferrer) Convert(i int, fn convert.Func) {
	if fn == nil {
		return
	}
	if in.conv == nil {
		in.conv = make(map[int]convert.Func)
	}
	in.conv[i] = fn
}

func (in *Inferrer) measure(c *column, text string) {
	if n := utf8.RuneCountInString(text); n > c.width {
		c.width = n
	}
	if len(text) > c.nbytes {
		c.nbytes = len(text)
	}
	if c.ascii && !isASCII(text) {
		c.ascii = false
	}
}

func (in *Inferrer) observe(c *column, text string) {
	in.measure(c, text)
	if c.kind == KindString || numconv.IsBlank(text) {
		return
	}

	// Boolean literals count as 1 and 0 in numeric columns.
	if b, ok := numconv.BoolLiteral(text); ok {
		if b && c.max < 1 {
			c.max = 1
		}
		if c.kind == KindUnknown {
			c.kind = KindBool
		}
		return
	}

	switch c.kind {
	case KindUnknown, KindBool, KindInt:
		if in.observeInt(c, text) {
			c.kind = KindInt
			return
		}
		fallthrough
	case KindFloat:
		if _, err := numconv.ParseFloat64(text, in.opts.Format); err == nil {
			c.kind = KindFloat
			return
		}
		fallthrough
	case KindComplex:
		if _, err := numconv.ParseComplex(text, in.opts.Format, 128); err == nil {
			c.kind = KindComplex
			return
		}
		c.kind = KindString
	}
}

func (in *Inferrer) observeInt(c *column, text string) bool {
	if v, err := numconv.Int64(text); err == nil {
		if v < c.min {
			c.min = v
		}
		if v > 0 && uint64(v) > c.max {
			c.max = uint64(v)
		}
		return true
	}
	if u, err := numconv.Uint64(text); err == nil {
		if u > c.max {
			c.max = u
		}
		return true
	}
	return false
}

// observeValue records a converter result. Numbers widen the column to
// their kind; strings are observed like tokens.
func (in *Inferrer) observeValue(c *column, v any) {
	switch x := v.(type) {
	case nil:
		return
	case string:
		in.observe(c, x)
		return
	case []byte:
		in.observe(c, string(x))
		return
	case bool:
		in.observe(c, strconv.FormatBool(x))
		return
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		in.observe(c, strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		in.observe(c, strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		in.measure(c, fmt.Sprint(rv.Float()))
		in.widen(c, KindFloat)
	case reflect.Complex64, reflect.Complex128:
		in.measure(c, fmt.Sprint(rv.Complex()))
		in.widen(c, KindComplex)
	default:
		in.measure(c, fmt.Sprint(v))
		c.kind = KindString
	}
}

func (in *Inferrer) widen(c *column, k Kind) {
	if c.kind < k {
		c.kind = k
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// IntCode returns the integer code for the observed range [min, max], where
// min <= 0 <= max. Without preferUnsigned the smallest signed width is used;
// a range only uint64 can hold gives Uint64, and a range no integer type
// can hold gives Float64.
func IntCode(min int64, max uint64, preferUnsigned bool) dtype.Code {
	if min >= 0 && (preferUnsigned || max > math.MaxInt64) {
		switch {
		case max <= math.MaxUint8:
			return dtype.Uint8
		case max <= math.MaxUint16:
			return dtype.Uint16
		case max <= math.MaxUint32:
			return dtype.Uint32
		}
		return dtype.Uint64
	}
	if max > math.MaxInt64 {
		return dtype.Float64
	}
	for _, size := range []int{1, 2, 4} {
		code := dtype.SignedFor(size)
		lo, hi := code.IntRange()
		if min >= lo && max <= uint64(hi) {
			return code
		}
	}
	return dtype.Int64
}

// Kinds returns the lattice position of each column
func (in *Inferrer) Kinds() []Kind {
	out := make([]Kind, len(in.cols))
	for i, c := range in.cols {
		out[i] = c.kind
	}
	return out
}

// Column returns the inferred type of column i
func (in *Inferrer) Column(i int) dtype.Descriptor {
	return in.field(in.cols[i])
}

// Width is the length a string field of code needs to hold the longest
// token seen in column i: bytes for Bytes, characters for Unicode. It is
// at least 1.
func (in *Inferrer) Width(i int, code dtype.Code) int {
	n := in.cols[i].width
	if code == dtype.Bytes {
		n = in.cols[i].nbytes
	}
	return max(n, 1)
}

func (in *Inferrer) field(c column) dtype.Descriptor {
	switch c.kind {
	case KindBool:
		return dtype.Leaf(dtype.Bool)
	case KindInt:
		return dtype.Leaf(IntCode(c.min, c.max, in.opts.PreferUnsigned))
	case KindFloat:
		return dtype.Leaf(dtype.Float64)
	case KindComplex:
		return dtype.Leaf(dtype.Complex128)
	}
	// Strings, and columns that held nothing but blanks.
	width := c.width
	if width == 0 {
		width = 1
	}
	if limit := in.opts.StringWidthCap; limit > 0 && width > limit {
		width = limit
	}
	if c.ascii {
		return dtype.String(width)
	}
	return dtype.Text(width)
}

// Descriptor returns a composite with one member per column, named f0, f1, ...
func (in *Inferrer) Descriptor() dtype.Descriptor {
	members := make([]dtype.Member, len(in.cols))
	for i, c := range in.cols {
		members[i] = dtype.Of("f"+strconv.Itoa(i), in.field(c))
	}
	return dtype.Struct(members...)
}

// Layout returns the flattened layout of Descriptor
func (in *Inferrer) Layout() dtype.Layout {
	layout := make(dtype.Layout, len(in.cols))
	for i, c := range in.cols {
		d := in.field(c)
		width := d.Code.ItemSize()
		if d.Code.IsString() {
			width *= d.Length
		}
		layout[i] = dtype.Field{Code: d.Code, Width: width}
	}
	return layout
}

// Package convert turns tokens into packed row bytes.
//
// A Plan picks one Strategy per field when a read starts: the built-in
// converter for the field's type code, or a user override. Rows are then
// encoded without looking at Go types again.
package convert

import (
	"fmt"
	"math"

	"github.com/ajitpratap0/textreader/internal/rowcodec"
	"github.com/ajitpratap0/textreader/pkg/dtype"
	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/numconv"
	"github.com/ajitpratap0/textreader/pkg/tokenizer"
)

// Func is a user converter. It receives the raw token and returns a value
// coercible to the field's type: a Go bool, integer, float, complex, string
// or []byte. Strings are parsed with the built-in converter.
type Func func(raw string) (any, error)

// StrategyKind tags a Strategy
type StrategyKind uint8

const (
	// Builtin converts with the field's primitive code
	Builtin StrategyKind = iota
	// Override calls a user Func
	Override
)

func (k StrategyKind) String() string {
	if k == Override {
		return "override"
	}
	return "builtin"
}

// Strategy is the conversion chosen for one field
type Strategy struct {
	Kind   StrategyKind
	Field  dtype.Field
	Offset int
	Func   Func
}

// Options tunes the built-in converters
type Options struct {
	// Format holds the decimal and exponent characters
	Format numconv.Format
	// AllowFloatForInt lets integer fields take float text, truncated toward zero
	AllowFloatForInt bool
	// StrictStringWidth fails on strings longer than their field instead of truncating
	StrictStringWidth bool
	// FillBlank stores the missing-field default for blank numeric tokens
	FillBlank bool
}

// Position locates the row being encoded, for error reporting
type Position struct {
	// Row is the 1-based data row
	Row    int
	Line   int
	Offset int64
}

// Plan encodes rows of one layout
type Plan struct {
	strategies []Strategy
	rowSize    int
	opts       Options
}

// NewPlan builds a plan for layout. overrides is keyed by field index.
func NewPlan(layout dtype.Layout, overrides map[int]Func, opts Options) (*Plan, error) {
	p := &Plan{strategies: make([]Strategy, len(layout)), opts: opts}
	off := 0
	for i, f := range layout {
		if !f.Code.Valid() {
			return nil, errors.Wrap(errors.ErrUnsupportedType, errors.ErrorTypeConfiguration,
				fmt.Sprintf("field %d has type code %q", i, byte(f.Code))).
				WithDetail("field", i)
		}
		if f.Width <= 0 || (!f.Code.IsString() && f.Width != f.Code.ItemSize()) ||
			(f.Code == dtype.Unicode && f.Width%4 != 0) {
			return nil, errors.Newf(errors.ErrorTypeConfiguration, "field %d: width %d does not fit type %s", i, f.Width, f.Code).
				WithDetail("field", i)
		}
		p.strategies[i] = Strategy{Kind: Builtin, Field: f, Offset: off}
		off += f.Width
	}
	for i, fn := range overrides {
		if i < 0 || i >= len(layout) {
			return nil, errors.Wrap(errors.ErrColumnIndex, errors.ErrorTypeConfiguration,
				fmt.Sprintf("converter for field %d, layout has %d fields", i, len(layout))).
				WithDetail("field", i)
		}
		if fn == nil {
			continue
		}
		p.strategies[i].Kind = Override
		p.strategies[i].Func = fn
	}
	p.rowSize = off
	return p, nil
}

// RowSize is the byte width of an encoded row
func (p *Plan) RowSize() int {
	return p.rowSize
}

// Strategies returns the per-field strategies in layout order
func (p *Plan) Strategies() []Strategy {
	return p.strategies
}

// EncodeRow writes tokens into dst, which must be RowSize bytes. Token i
// fills field i; fields without a token get their default value and extra
// tokens are ignored.
func (p *Plan) EncodeRow(tokens []tokenizer.Token, dst []byte, at Position) error {
	for i := range p.strategies {
		s := &p.strategies[i]
		out := dst[s.Offset : s.Offset+s.Field.Width]
		if i >= len(tokens) {
			putDefault(out, s.Field)
			continue
		}
		if err := p.encode(s, tokens[i].Text, out); err != nil {
			return newFieldError(err, s.Field.Code, tokens[i], at)
		}
	}
	return nil
}

func (p *Plan) encode(s *Strategy, raw string, out []byte) error {
	if s.Kind == Override {
		v, err := s.Func(raw)
		if err != nil {
			return fmt.Errorf("%w: %w", errors.ErrConverterFailed, err)
		}
		if err := p.coerce(v, s.Field, out); err != nil {
			return fmt.Errorf("%w: %w", errors.ErrConverterFailed, err)
		}
		return nil
	}
	if err := p.parse(raw, s.Field, out); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrBadField, err)
	}
	return nil
}

// parse runs the built-in converter for f
func (p *Plan) parse(raw string, f dtype.Field, out []byte) error {
	if p.opts.FillBlank && !f.Code.IsString() && numconv.IsBlank(raw) {
		putDefault(out, f)
		return nil
	}
	code := f.Code
	if code != dtype.Bool && !code.IsString() {
		// Boolean literals are 1 and 0 in numeric fields.
		if b, ok := numconv.BoolLiteral(raw); ok {
			raw = "0"
			if b {
				raw = "1"
			}
		}
	}
	switch {
	case code == dtype.Bool:
		b, err := numconv.ParseBool(raw)
		if err != nil {
			return err
		}
		rowcodec.PutBool(out, b)
	case code.IsUnsigned():
		u, err := numconv.ParseUint(raw, code.UintMax())
		if err != nil && p.opts.AllowFloatForInt && err != numconv.ErrOverflow {
			u, err = p.truncUint(raw, code)
		}
		if err != nil {
			return err
		}
		rowcodec.PutUint(out, code, u)
	case code.IsInteger():
		lo, hi := code.IntRange()
		v, err := numconv.ParseInt(raw, lo, hi)
		if err != nil && p.opts.AllowFloatForInt && err != numconv.ErrOverflow {
			v, err = p.truncInt(raw, code)
		}
		if err != nil {
			return err
		}
		rowcodec.PutInt(out, code, v)
	case code.IsFloat():
		v, err := numconv.ParseFloat(raw, p.opts.Format, code.ItemSize()*8)
		if err != nil {
			return err
		}
		rowcodec.PutFloat(out, code, v)
	case code.IsComplex():
		v, err := numconv.ParseComplex(raw, p.opts.Format, code.ItemSize()*8)
		if err != nil {
			return err
		}
		rowcodec.PutComplex(out, code, v)
	case code.IsString():
		return p.putString(raw, f, out, p.opts.StrictStringWidth)
	}
	return nil
}

// putString stores s in a string field. With strict set, a string longer
// than the field is an error instead of being truncated.
func (p *Plan) putString(s string, f dtype.Field, out []byte, strict bool) error {
	if f.Code == dtype.Unicode {
		if rowcodec.PutText(out, s) && strict {
			return fmt.Errorf("%d characters do not fit in %d", rowcodec.TextLen(s), f.Width/4)
		}
		return nil
	}
	if rowcodec.PutBytes(out, s) && strict {
		return fmt.Errorf("%d bytes do not fit in %d", len(s), f.Width)
	}
	return nil
}

func (p *Plan) truncInt(raw string, code dtype.Code) (int64, error) {
	v, err := numconv.ParseFloat64(raw, p.opts.Format)
	if err != nil {
		return 0, err
	}
	lo, hi := code.IntRange()
	return floatToInt(v, lo, hi)
}

func (p *Plan) truncUint(raw string, code dtype.Code) (uint64, error) {
	v, err := numconv.ParseFloat64(raw, p.opts.Format)
	if err != nil {
		return 0, err
	}
	return floatToUint(v, code.UintMax())
}

func floatToInt(v float64, lo, hi int64) (int64, error) {
	t := math.Trunc(v)
	// float64(hi)+1 is exact for every width below 64 bits and rounds to
	// 2^63 for int64, which is the first value out of range either way.
	if math.IsNaN(t) || t < float64(lo) || t >= float64(hi)+1 {
		return 0, numconv.ErrOverflow
	}
	return int64(t), nil
}

func floatToUint(v float64, max uint64) (uint64, error) {
	t := math.Trunc(v)
	if math.IsNaN(t) || t < 0 || t >= float64(max)+1 {
		return 0, numconv.ErrOverflow
	}
	return uint64(t), nil
}

// putDefault stores the value of a missing field
func putDefault(out []byte, f dtype.Field) {
	switch {
	case f.Code.IsFloat():
		rowcodec.PutFloat(out, f.Code, math.NaN())
	case f.Code.IsComplex():
		rowcodec.PutComplex(out, f.Code, complex(math.NaN(), math.NaN()))
	default:
		clear(out)
	}
}

// FieldError is a conversion failure. It unwraps to a conversion-typed
// *errors.Error whose cause is ErrBadField or ErrConverterFailed.
type FieldError struct {
	// Row is the 1-based data row and Column the 0-based column in the input
	Row    int
	Column int
	Line   int
	Offset int64
	Raw    string
	Code   dtype.Code
	Err    *errors.Error
}

func newFieldError(cause error, code dtype.Code, tok tokenizer.Token, at Position) *FieldError {
	fe := &FieldError{
		Row:    at.Row,
		Column: tok.Column,
		Line:   at.Line,
		Offset: at.Offset,
		Raw:    tok.Text,
		Code:   code,
	}
	fe.Err = errors.Wrap(cause, errors.ErrorTypeConversion, fe.message()).
		WithDetail("row", at.Row).
		WithDetail("column", tok.Column).
		WithDetail("raw", tok.Text).
		WithDetail("code", code.String()).
		WithDetail("line", at.Line).
		WithDetail("offset", at.Offset)
	return fe
}

func (e *FieldError) message() string {
	return fmt.Sprintf("bad %s value %q at row %d, column %d", e.Code, e.Raw, e.Row, e.Column)
}

func (e *FieldError) Error() string {
	if e.Err != nil && e.Err.Cause != nil {
		return e.message() + ": " + e.Err.Cause.Error()
	}
	return e.message()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

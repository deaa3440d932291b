package reader

import (
	"fmt"

	"github.com/ajitpratap0/textreader/pkg/convert"
	"github.com/ajitpratap0/textreader/pkg/dtype"
	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/inference"
	"github.com/ajitpratap0/textreader/pkg/numconv"
	"github.com/ajitpratap0/textreader/pkg/source"
	"github.com/ajitpratap0/textreader/pkg/tokenizer"
)

// Unbounded as MaxRows reads to the end of the input
const Unbounded = -1

// Options controls a read. Start from DefaultOptions: the zero value selects
// whitespace-delimited input and reads no rows.
type Options struct {
	tokenizer.Config

	// Decimal is the decimal point character; 0 means '.'
	Decimal rune
	// Exponent is the exponent marker, matched in either case; 0 means 'E'
	Exponent rune

	// Usecols selects and orders input columns. Negative indices count from
	// the last column. Nil selects every column.
	Usecols []int
	// Converters replace the built-in conversion of a column, keyed by input
	// column index. Negative keys count from the last column. When a scan
	// runs, each converter is also called on every token of its column and
	// the scan infers from its results.
	Converters map[int]convert.Func

	// SkipRows is the number of physical lines to drop before reading
	SkipRows int
	// MaxRows caps the number of data rows; Unbounded reads everything
	MaxRows int

	// Dtype is the record type of a row. Nil infers one from the data. A
	// single leaf applies to every selected column. String leaves without a
	// length take the longest token of their column.
	Dtype *dtype.Descriptor

	// PreferUnsigned picks unsigned integer types for inferred columns
	// without negative values
	PreferUnsigned bool
	// StringWidthCap limits inferred string widths; 0 means no limit
	StringWidthCap int

	AllowFloatForInt  bool
	StrictStringWidth bool
	FillBlank         bool

	// Source configures ReadFile
	Source source.Options

	// InitialRows and MaxChunkRows tune the row store; 0 keeps its defaults
	InitialRows  int
	MaxChunkRows int
}

// DefaultOptions returns comma-separated input with '"' quotes, '#'
// comments, '.' decimals, 'E' exponents and no row limit.
func DefaultOptions() Options {
	return Options{
		Config:   tokenizer.DefaultConfig(),
		Decimal:  '.',
		Exponent: 'E',
		MaxRows:  Unbounded,
	}
}

func (o Options) format() numconv.Format {
	return numconv.Format{Decimal: o.Decimal, Exponent: o.Exponent}
}

func (o Options) convertOptions() convert.Options {
	return convert.Options{
		Format:            o.format(),
		AllowFloatForInt:  o.AllowFloatForInt,
		StrictStringWidth: o.StrictStringWidth,
		FillBlank:         o.FillBlank,
	}
}

func (o Options) inferenceOptions() inference.Options {
	return inference.Options{
		Format:         o.format(),
		PreferUnsigned: o.PreferUnsigned,
		StringWidthCap: o.StringWidthCap,
	}
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration, fmt.Sprintf(format, args...))
}

// Validate checks the options for conflicts
func (o Options) Validate() error {
	if err := o.Config.Validate(); err != nil {
		return err
	}
	f := o.format()
	dec, exp := f.Decimal, f.Exponent
	if dec == 0 {
		dec = '.'
	}
	if exp == 0 {
		exp = 'E'
	}
	switch {
	case dec == o.Delimiter && !o.Whitespace():
		return invalid("decimal point %q is also the delimiter", dec)
	case dec == o.Quote:
		return invalid("decimal point %q is also the quote character", dec)
	case dec >= '0' && dec <= '9', dec == '+', dec == '-':
		return invalid("decimal point %q cannot be a digit or a sign", dec)
	case exp >= '0' && exp <= '9', exp == '+', exp == '-', exp == dec:
		return invalid("exponent marker %q clashes with number syntax", exp)
	}
	if o.SkipRows < 0 {
		return invalid("skip rows must not be negative, got %d", o.SkipRows)
	}
	if o.MaxRows < Unbounded {
		return invalid("max rows must be %d (unbounded) or more, got %d", Unbounded, o.MaxRows)
	}
	if o.StringWidthCap < 0 {
		return invalid("string width cap must not be negative, got %d", o.StringWidthCap)
	}
	if o.Usecols != nil && len(o.Usecols) == 0 {
		return invalid("usecols selects no columns")
	}
	if o.Dtype != nil {
		layout, err := dtype.Flatten(*o.Dtype)
		if err != nil {
			return err
		}
		if o.Dtype.IsComposite() {
			if len(layout) == 0 {
				return invalid("dtype %q has no fields", o.Dtype.String())
			}
			if o.Usecols != nil && len(layout) != len(o.Usecols) {
				return invalid("dtype has %d fields but usecols selects %d columns", len(layout), len(o.Usecols))
			}
		}
	}
	return nil
}

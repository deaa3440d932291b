// Package arrowexport hands read results to Arrow: one column per layout
// field, built with array.RecordBuilder and optionally written as an IPC
// file.
package arrowexport

import (
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ajitpratap0/textreader/internal/rowcodec"
	"github.com/ajitpratap0/textreader/pkg/dtype"
	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/logger"
	"github.com/ajitpratap0/textreader/pkg/reader"
)

// complexType holds complex values as {real, imag} pairs of the part width
func complexType(code dtype.Code) arrow.DataType {
	part := arrow.DataType(arrow.PrimitiveTypes.Float64)
	if code == dtype.Complex64 {
		part = arrow.PrimitiveTypes.Float32
	}
	return arrow.StructOf(
		arrow.Field{Name: "real", Type: part},
		arrow.Field{Name: "imag", Type: part},
	)
}

// DataType maps a type code to its Arrow type
func DataType(code dtype.Code) (arrow.DataType, error) {
	switch code {
	case dtype.Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case dtype.Int8:
		return arrow.PrimitiveTypes.Int8, nil
	case dtype.Int16:
		return arrow.PrimitiveTypes.Int16, nil
	case dtype.Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case dtype.Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case dtype.Uint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case dtype.Uint16:
		return arrow.PrimitiveTypes.Uint16, nil
	case dtype.Uint32:
		return arrow.PrimitiveTypes.Uint32, nil
	case dtype.Uint64:
		return arrow.PrimitiveTypes.Uint64, nil
	case dtype.Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case dtype.Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case dtype.Complex64, dtype.Complex128:
		return complexType(code), nil
	case dtype.Bytes:
		return arrow.BinaryTypes.Binary, nil
	case dtype.Unicode:
		return arrow.BinaryTypes.String, nil
	}
	return nil, errors.Wrap(errors.ErrUnsupportedType, errors.ErrorTypeConfiguration,
		"no arrow type for code "+strconv.QuoteRune(rune(code)))
}

// Names returns a column name per flattened field of desc. Nested members
// are joined with '.', array elements get an index suffix and a single leaf
// repeated over n columns is named f0..f(n-1).
func Names(desc dtype.Descriptor, n int) []string {
	if !desc.IsComposite() {
		out := make([]string, n)
		for i := range out {
			out[i] = "f" + strconv.Itoa(i)
		}
		return out
	}
	var out []string
	var walk func(d dtype.Descriptor, prefix string)
	walk = func(d dtype.Descriptor, prefix string) {
		for _, m := range d.Members {
			name := m.Name
			if prefix != "" {
				name = prefix + "." + m.Name
			}
			for e := 0; e < m.Count(); e++ {
				elem := name
				if len(m.Shape) > 0 {
					elem = fmt.Sprintf("%s[%d]", name, e)
				}
				if m.Type.IsComposite() {
					walk(m.Type, elem)
				} else {
					out = append(out, elem)
				}
			}
		}
	}
	walk(desc, "")
	return out
}

// Schema builds the Arrow schema of layout with the given column names
func Schema(layout dtype.Layout, names []string) (*arrow.Schema, error) {
	if len(names) != len(layout) {
		return nil, errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
			fmt.Sprintf("%d column names for %d fields", len(names), len(layout))).
			WithDetail("names", len(names)).
			WithDetail("fields", len(layout))
	}
	fields := make([]arrow.Field, len(layout))
	for i, f := range layout {
		t, err := DataType(f.Code)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{
			Name: names[i],
			Type: t,
			Metadata: arrow.NewMetadata(
				[]string{"textreader.code", "textreader.width"},
				[]string{string(rune(f.Code)), strconv.Itoa(f.Width)},
			),
		}
	}
	return arrow.NewSchema(fields, nil), nil
}

type settings struct {
	mem memory.Allocator
}

// Option configures Record
type Option func(*settings)

// WithAllocator builds arrays with mem instead of the default allocator
func WithAllocator(mem memory.Allocator) Option {
	return func(s *settings) {
		s.mem = mem
	}
}

// Record builds an Arrow record from res. names may be nil, in which case
// Names supplies them. The caller must Release the record.
func Record(res *reader.Result, names []string, opts ...Option) (arrow.Record, error) {
	s := settings{mem: memory.DefaultAllocator}
	for _, opt := range opts {
		opt(&s)
	}
	if names == nil {
		names = Names(res.Descriptor, len(res.Layout))
	}
	schema, err := Schema(res.Layout, names)
	if err != nil {
		return nil, err
	}

	b := array.NewRecordBuilder(s.mem, schema)
	defer b.Release()
	b.Reserve(res.Rows)

	offsets := res.Layout.Offsets()
	err = res.Data.Each(func(_ int, row []byte) error {
		for i, f := range res.Layout {
			if err := appendValue(b.Field(i), f.Code, row[offsets[i]:offsets[i]+f.Width]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rec := b.NewRecord()
	logger.Debug("arrow record built",
		zap.Int64("rows", rec.NumRows()),
		zap.Int64("columns", rec.NumCols()),
	)
	return rec, nil
}

func appendValue(builder array.Builder, code dtype.Code, src []byte) error {
	switch b := builder.(type) {
	case *array.BooleanBuilder:
		b.Append(rowcodec.Bool(src))
	case *array.Int8Builder:
		b.Append(int8(rowcodec.Int(src, code)))
	case *array.Int16Builder:
		b.Append(int16(rowcodec.Int(src, code)))
	case *array.Int32Builder:
		b.Append(int32(rowcodec.Int(src, code)))
	case *array.Int64Builder:
		b.Append(rowcodec.Int(src, code))
	case *array.Uint8Builder:
		b.Append(uint8(rowcodec.Uint(src, code)))
	case *array.Uint16Builder:
		b.Append(uint16(rowcodec.Uint(src, code)))
	case *array.Uint32Builder:
		b.Append(uint32(rowcodec.Uint(src, code)))
	case *array.Uint64Builder:
		b.Append(rowcodec.Uint(src, code))
	case *array.Float32Builder:
		b.Append(float32(rowcodec.Float(src, code)))
	case *array.Float64Builder:
		b.Append(rowcodec.Float(src, code))
	case *array.BinaryBuilder:
		b.Append(rowcodec.Bytes(src))
	case *array.StringBuilder:
		b.Append(rowcodec.Text(src))
	case *array.StructBuilder:
		c := rowcodec.Complex(src, code)
		b.Append(true)
		switch re := b.FieldBuilder(0).(type) {
		case *array.Float32Builder:
			re.Append(float32(real(c)))
			b.FieldBuilder(1).(*array.Float32Builder).Append(float32(imag(c)))
		case *array.Float64Builder:
			re.Append(real(c))
			b.FieldBuilder(1).(*array.Float64Builder).Append(imag(c))
		}
	default:
		return errors.Newf(errors.ErrorTypeInternal, "unsupported builder type: %T", builder)
	}
	return nil
}

// WriteIPC writes rec to w as an Arrow IPC file
func WriteIPC(w io.Writer, rec arrow.Record) error {
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create arrow writer")
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write record batch")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to close arrow writer")
	}
	return nil
}

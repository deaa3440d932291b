package reader

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/ajitpratap0/textreader/pkg/convert"
	"github.com/ajitpratap0/textreader/pkg/dtype"
	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/inference"
)

// selectColumns resolves usecols against a row of n columns
func selectColumns(usecols []int, n int) ([]int, error) {
	if usecols == nil {
		sel := make([]int, n)
		for i := range sel {
			sel[i] = i
		}
		return sel, nil
	}
	sel := make([]int, len(usecols))
	for i, u := range usecols {
		k := u
		if k < 0 {
			k += n
		}
		if k < 0 || k >= n {
			return nil, errors.Wrap(errors.ErrColumnIndex, errors.ErrorTypeConfiguration,
				fmt.Sprintf("usecols index %d is out of range for %d columns", u, n)).
				WithDetail("index", u).
				WithDetail("columns", n)
		}
		sel[i] = k
	}
	return sel, nil
}

// resolveConverters maps converters keyed by input column onto field
// positions. Keys naming no column of the row are ignored.
func resolveConverters(conv map[int]convert.Func, sel []int, n int, log *zap.Logger) (map[int]convert.Func, error) {
	if len(conv) == 0 {
		return nil, nil
	}
	byColumn := make(map[int]int, len(conv))
	for key, fn := range conv {
		if fn == nil {
			continue
		}
		k := key
		if k < 0 {
			k += n
		}
		if k < 0 || k >= n {
			log.Debug("converter names no column", zap.Int("key", key), zap.Int("columns", n))
			continue
		}
		if prev, dup := byColumn[k]; dup {
			a, b := min(prev, key), max(prev, key)
			return nil, errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
				fmt.Sprintf("converters %d and %d both apply to column %d", a, b, k)).
				WithDetail("column", k)
		}
		byColumn[k] = key
	}
	out := make(map[int]convert.Func)
	for field, k := range sel {
		if key, ok := byColumn[k]; ok {
			out[field] = conv[key]
		}
	}
	return out, nil
}

// hasOpenStrings reports whether d holds a string leaf without a length
func hasOpenStrings(d dtype.Descriptor) bool {
	if !d.IsComposite() {
		return d.Code.IsString() && d.Length == 0
	}
	for _, m := range d.Members {
		if hasOpenStrings(m.Type) {
			return true
		}
	}
	return false
}

// fixStrings gives every open string leaf of d the width of its column.
// field counts flattened fields in Flatten order; array elements share a
// leaf, so the widest element wins.
func fixStrings(d dtype.Descriptor, field *int, width func(field int, code dtype.Code) int) dtype.Descriptor {
	if !d.IsComposite() {
		if d.Code.IsString() && d.Length == 0 {
			d.Length = width(*field, d.Code)
		}
		*field++
		return d
	}
	members := make([]dtype.Member, len(d.Members))
	for i, m := range d.Members {
		var fixed dtype.Descriptor
		for e := 0; e < m.Count(); e++ {
			t := fixStrings(m.Type, field, width)
			if e == 0 {
				fixed = t
			} else {
				fixed = widest(fixed, t)
			}
		}
		if m.Count() == 0 {
			fixed = m.Type
		}
		members[i] = dtype.Member{Name: m.Name, Type: fixed, Shape: m.Shape}
	}
	return dtype.Struct(members...)
}

// widest merges two resolutions of the same descriptor
func widest(a, b dtype.Descriptor) dtype.Descriptor {
	if !a.IsComposite() {
		a.Length = max(a.Length, b.Length)
		return a
	}
	members := make([]dtype.Member, len(a.Members))
	for i := range a.Members {
		members[i] = a.Members[i]
		members[i].Type = widest(a.Members[i].Type, b.Members[i].Type)
	}
	return dtype.Struct(members...)
}

// shape is the resolved record type of a read
type shape struct {
	sel    []int
	desc   dtype.Descriptor
	layout dtype.Layout
}

// resolveShape fixes the record type once the column count n is known. in
// holds column observations when a scan ran, and is nil otherwise.
func resolveShape(opts Options, n int, in *inference.Inferrer) (shape, error) {
	sel, err := selectColumns(opts.Usecols, n)
	if err != nil {
		return shape{}, err
	}
	width := func(field int, code dtype.Code) int {
		if in == nil || field >= len(sel) {
			return 1
		}
		return in.Width(sel[field], code)
	}

	var desc dtype.Descriptor
	switch {
	case opts.Dtype == nil:
		members := make([]dtype.Member, len(sel))
		for j, k := range sel {
			members[j] = dtype.Of("f"+strconv.Itoa(j), in.Column(k))
		}
		desc = dtype.Struct(members...)

	case !opts.Dtype.IsComposite():
		leaf := *opts.Dtype
		if leaf.Code.IsString() && leaf.Length == 0 {
			leaf.Length = 1
			for j := range sel {
				leaf.Length = max(leaf.Length, width(j, leaf.Code))
			}
		}
		field, err := dtype.Flatten(leaf)
		if err != nil {
			return shape{}, err
		}
		layout := make(dtype.Layout, len(sel))
		for j := range layout {
			layout[j] = field[0]
		}
		return shape{sel: sel, desc: leaf, layout: layout}, nil

	default:
		field := 0
		desc = fixStrings(*opts.Dtype, &field, width)
	}

	layout, err := dtype.Flatten(desc)
	if err != nil {
		return shape{}, err
	}
	if opts.Usecols == nil && len(layout) < n {
		return shape{}, errors.Wrap(errors.ErrFieldCount, errors.ErrorTypeStructure,
			fmt.Sprintf("dtype has %d fields but rows have %d columns", len(layout), n)).
			WithDetail("expected", len(layout)).
			WithDetail("actual", n)
	}
	return shape{sel: sel, desc: desc, layout: layout}, nil
}

package convert

import (
	"fmt"
	"reflect"

	"github.com/ajitpratap0/textreader/internal/rowcodec"
	"github.com/ajitpratap0/textreader/pkg/dtype"
	"github.com/ajitpratap0/textreader/pkg/errors"
)

// coerce stores an override's result in a field of type f. Results never
// get truncated: one too long for a string field is an error.
func (p *Plan) coerce(v any, f dtype.Field, out []byte) error {
	switch x := v.(type) {
	case nil:
		return fmt.Errorf("converter returned nil for %s", f.Code)
	case string:
		return p.coerceText(x, f, out)
	case []byte:
		return p.coerceText(string(x), f, out)
	case fmt.Stringer:
		if f.Code.IsString() {
			return p.fitString(x.String(), f, out)
		}
	}

	n, ok := number(v)
	if !ok {
		return fmt.Errorf("cannot store %T as %s", v, f.Code)
	}
	code := f.Code
	switch {
	case code == dtype.Bool:
		rowcodec.PutBool(out, n.c != 0)
	case code.IsUnsigned():
		u, err := n.uint(code.UintMax())
		if err != nil {
			return err
		}
		rowcodec.PutUint(out, code, u)
	case code.IsInteger():
		lo, hi := code.IntRange()
		i, err := n.int(lo, hi)
		if err != nil {
			return err
		}
		rowcodec.PutInt(out, code, i)
	case code.IsFloat():
		r, err := n.real()
		if err != nil {
			return err
		}
		rowcodec.PutFloat(out, code, r)
	case code.IsComplex():
		rowcodec.PutComplex(out, code, n.c)
	default:
		return p.fitString(n.String(), f, out)
	}
	return nil
}

func (p *Plan) coerceText(s string, f dtype.Field, out []byte) error {
	if f.Code.IsString() {
		return p.fitString(s, f, out)
	}
	return p.parse(s, f, out)
}

func (p *Plan) fitString(s string, f dtype.Field, out []byte) error {
	if err := p.putString(s, f, out, true); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrBadField, err)
	}
	return nil
}

// num holds a Go numeric value. Integers keep their exact form as well.
type num struct {
	c    complex128
	i    int64
	u    uint64
	kind reflect.Kind // Int, Uint, Float64 or Complex128
}

func number(v any) (num, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return num{c: 1, i: 1, u: 1, kind: reflect.Int}, true
		}
		return num{kind: reflect.Int}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		return num{c: complex(float64(i), 0), i: i, kind: reflect.Int}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		return num{c: complex(float64(u), 0), u: u, kind: reflect.Uint}, true
	case reflect.Float32, reflect.Float64:
		return num{c: complex(rv.Float(), 0), kind: reflect.Float64}, true
	case reflect.Complex64, reflect.Complex128:
		return num{c: rv.Complex(), kind: reflect.Complex128}, true
	}
	return num{}, false
}

func (n num) real() (float64, error) {
	if imag(n.c) != 0 {
		return 0, fmt.Errorf("complex %v has an imaginary part", n.c)
	}
	return real(n.c), nil
}

func (n num) int(lo, hi int64) (int64, error) {
	switch n.kind {
	case reflect.Int:
		if n.i < lo || n.i > hi {
			return 0, fmt.Errorf("%d out of range", n.i)
		}
		return n.i, nil
	case reflect.Uint:
		if hi < 0 || n.u > uint64(hi) {
			return 0, fmt.Errorf("%d out of range", n.u)
		}
		return int64(n.u), nil
	}
	f, err := n.real()
	if err != nil {
		return 0, err
	}
	i, err := floatToInt(f, lo, hi)
	if err != nil {
		return 0, fmt.Errorf("%v out of range", f)
	}
	return i, nil
}

func (n num) uint(max uint64) (uint64, error) {
	switch n.kind {
	case reflect.Int:
		if n.i < 0 || uint64(n.i) > max {
			return 0, fmt.Errorf("%d out of range", n.i)
		}
		return uint64(n.i), nil
	case reflect.Uint:
		if n.u > max {
			return 0, fmt.Errorf("%d out of range", n.u)
		}
		return n.u, nil
	}
	f, err := n.real()
	if err != nil {
		return 0, err
	}
	u, err := floatToUint(f, max)
	if err != nil {
		return 0, fmt.Errorf("%v out of range", f)
	}
	return u, nil
}

func (n num) String() string {
	switch n.kind {
	case reflect.Int:
		return fmt.Sprint(n.i)
	case reflect.Uint:
		return fmt.Sprint(n.u)
	case reflect.Float64:
		return fmt.Sprint(real(n.c))
	}
	return fmt.Sprint(n.c)
}

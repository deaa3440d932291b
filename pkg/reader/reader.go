// Package reader turns delimited text into packed fixed-width rows.
//
// Read drives a source through the tokenizer, optionally infers a record
// type, converts every row into the bytes of that type and accumulates the
// rows in a chunked store:
//
//	opts := reader.DefaultOptions()
//	res, err := reader.ReadFile(ctx, "data.csv", opts)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Layout.Codes(), res.Rows)
//
// A read either succeeds as a whole or returns an error and no rows.
package reader

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/textreader/internal/rowcodec"
	"github.com/ajitpratap0/textreader/pkg/blocks"
	"github.com/ajitpratap0/textreader/pkg/convert"
	"github.com/ajitpratap0/textreader/pkg/dtype"
	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/inference"
	"github.com/ajitpratap0/textreader/pkg/logger"
	"github.com/ajitpratap0/textreader/pkg/metrics"
	"github.com/ajitpratap0/textreader/pkg/observability"
	"github.com/ajitpratap0/textreader/pkg/source"
	"github.com/ajitpratap0/textreader/pkg/tokenizer"
)

// Mode is how a read found its record type
type Mode string

const (
	// ModeExplicit converts in one pass with a fully specified dtype
	ModeExplicit Mode = "explicit"
	// ModeTwoPass scans a seekable source, rewinds and converts
	ModeTwoPass Mode = "two_pass"
	// ModeDeferred scans a forward-only source, keeping its tokens until the
	// record type is known
	ModeDeferred Mode = "deferred"
)

// Result is the outcome of a read
type Result struct {
	// Descriptor is the record type, with string widths resolved. For a
	// single-leaf dtype it is that leaf and each row holds NumColumns of it.
	Descriptor dtype.Descriptor
	Layout     dtype.Layout
	// NumColumns is the number of input columns each row was built from
	NumColumns int
	Rows       int
	Data       blocks.Result
	Mode       Mode
}

// Bytes returns the rows as one buffer
func (r *Result) Bytes() []byte {
	return r.Data.Contiguous()
}

// Homogeneous reports whether every field shares one type, so the rows form
// a Rows x len(Layout) matrix
func (r *Result) Homogeneous() bool {
	return r.Layout.Homogeneous()
}

// Values decodes row i into Go values, one per layout field
func (r *Result) Values(i int) []any {
	return rowcodec.Decode(r.Data.Row(i), r.Layout)
}

// ReadFile opens identifier with opts.Source, reads it and closes it
func ReadFile(ctx context.Context, identifier string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	src, err := source.Open(ctx, identifier, opts.Source)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return Read(ctx, src, opts)
}

// ReadString reads in-memory text
func ReadString(ctx context.Context, text string, opts Options) (*Result, error) {
	src := source.FromString(text)
	defer src.Close()
	return Read(ctx, src, opts)
}

// Read reads every row of src. The caller keeps ownership of src.
func Read(ctx context.Context, src source.Source, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if _, ok := ctx.Value(logger.ReadIDKey).(string); !ok {
		ctx = logger.ContextWithRead(ctx, uuid.NewString(), src.Identifier())
	}
	timer := metrics.NewTimer("read")
	ctx, span := observability.StartSpan(ctx, "textreader.read",
		attribute.String("source.identifier", src.Identifier()),
		attribute.String("source.kind", src.Kind().String()),
	)

	r := &reading{src: src, opts: opts, columns: -1, log: logger.WithContext(ctx)}
	res, err := r.run(ctx)

	elapsed := timer.Stop()
	var rows int
	var size int64
	if res != nil {
		rows = res.Rows
		size = int64(res.Data.Len())
	}
	metrics.ObserveRead(metrics.Read{
		SourceKind: src.Kind().String(),
		Mode:       string(r.mode),
		Rows:       rows,
		Bytes:      size,
		Duration:   elapsed,
		Err:        err,
	})
	span.SetAttribute("mode", string(r.mode))
	span.SetAttribute("rows", rows)
	span.Finish(err)

	if err != nil {
		r.log.Debug("read failed", zap.String("mode", string(r.mode)), zap.Error(err))
		return nil, err
	}
	r.log.Info("read complete",
		zap.Int("rows", res.Rows),
		zap.Int("columns", res.NumColumns),
		zap.Int("bytes", res.Data.Len()),
		zap.Duration("duration", elapsed),
		zap.String("mode", string(r.mode)),
		zap.String("codes", res.Layout.Codes()),
	)
	return res, nil
}

// reading is the state of one Read
type reading struct {
	src     source.Source
	opts    Options
	log     *zap.Logger
	mode    Mode
	columns int // fixed by the first data row
}

// row is a tokenized data row kept for a later pass
type row struct {
	tokens []tokenizer.Token
	at     convert.Position
}

func (r *reading) run(ctx context.Context) (*Result, error) {
	if r.opts.Dtype != nil && !hasOpenStrings(*r.opts.Dtype) {
		r.mode = ModeExplicit
		b := r.newBuilder(nil)
		_, span := observability.StartSpan(ctx, "convert")
		err := r.rows(b.add)
		span.Finish(err)
		if err != nil {
			return nil, err
		}
		return r.finalize(ctx, b)
	}

	var kept []row
	keep := !source.Seekable(r.src)
	if keep {
		r.mode = ModeDeferred
	} else {
		r.mode = ModeTwoPass
	}

	in := inference.New(r.opts.inferenceOptions())
	_, span := observability.StartSpan(ctx, "infer")
	err := r.rows(func(tokens []tokenizer.Token, at convert.Position) error {
		if in.Rows() == 0 {
			if err := r.observeConverted(in, len(tokens)); err != nil {
				return withPosition(err, at)
			}
		}
		if err := in.Observe(tokens); err != nil {
			return withPosition(err, at)
		}
		if keep {
			kept = append(kept, row{tokens: slices.Clone(tokens), at: at})
		}
		return nil
	})
	span.SetAttribute("rows", in.Rows())
	span.Finish(err)
	if err != nil {
		return nil, err
	}
	if r.opts.Dtype == nil {
		r.log.Debug("inferred types",
			zap.Int("rows", in.Rows()),
			zap.Int("columns", in.Columns()),
			zap.String("codes", in.Layout().Codes()),
		)
	}

	b := r.newBuilder(in)
	_, span = observability.StartSpan(ctx, "convert")
	if keep {
		for _, k := range kept {
			if err = b.add(k.tokens, k.at); err != nil {
				break
			}
		}
	} else {
		if _, err = r.src.Seek(0); err == nil {
			err = r.rows(b.add)
		}
	}
	span.Finish(err)
	if err != nil {
		return nil, err
	}
	return r.finalize(ctx, b)
}

// observeConverted makes the scan see converter results, so inferred types
// and string widths fit what the conversion pass will store
func (r *reading) observeConverted(in *inference.Inferrer, columns int) error {
	all, err := selectColumns(nil, columns)
	if err != nil {
		return err
	}
	conv, err := resolveConverters(r.opts.Converters, all, columns, r.log)
	if err != nil {
		return err
	}
	for k, fn := range conv {
		in.Convert(k, fn)
	}
	return nil
}

func (r *reading) finalize(ctx context.Context, b *builder) (*Result, error) {
	_, span := observability.StartSpan(ctx, "finalize")
	defer span.End()
	if b.plan == nil {
		if err := b.prepareEmpty(); err != nil {
			return nil, err
		}
	}
	data := b.store.Finalize()
	span.SetAttribute("chunks", len(data.Chunks))
	return &Result{
		Descriptor: b.shape.desc,
		Layout:     b.shape.layout,
		NumColumns: len(b.shape.sel),
		Rows:       data.Rows,
		Data:       data,
		Mode:       r.mode,
	}, nil
}

// skip drops SkipRows physical lines. Running out of input is not an error.
func (r *reading) skip() error {
	for i := 0; i < r.opts.SkipRows; i++ {
		if _, err := r.src.NextLine(); err != nil {
			if err == source.ErrEndOfInput {
				return nil
			}
			return err
		}
	}
	return nil
}

// rows calls fn for each data row after the skipped lines, up to MaxRows
func (r *reading) rows(fn func([]tokenizer.Token, convert.Position) error) error {
	tok, err := tokenizer.New(r.opts.Config)
	if err != nil {
		return err
	}
	if err := r.skip(); err != nil {
		return err
	}
	for n := 0; r.opts.MaxRows == Unbounded || n < r.opts.MaxRows; {
		tokens, err := tok.Next(r.src)
		if err == source.ErrEndOfInput {
			return nil
		}
		if err != nil {
			return err
		}
		n++
		at := convert.Position{Row: n, Line: tok.RowLine(), Offset: tok.RowOffset()}
		if r.columns < 0 {
			r.columns = len(tokens)
		} else if len(tokens) != r.columns {
			return withPosition(errors.Wrap(errors.ErrFieldCount, errors.ErrorTypeStructure,
				fmt.Sprintf("line %d has %d fields, expected %d", at.Line, len(tokens), r.columns)).
				WithDetail("expected", r.columns).
				WithDetail("actual", len(tokens)), at)
		}
		if err := fn(tokens, at); err != nil {
			return err
		}
	}
	return nil
}

// withPosition adds row, line and offset details to a structured error
func withPosition(err error, at convert.Position) error {
	var e *errors.Error
	if errors.As(err, &e) {
		e.WithDetail("row", at.Row).WithDetail("line", at.Line).WithDetail("offset", at.Offset)
	}
	return err
}

// builder converts rows once the record type is fixed
type builder struct {
	r      *reading
	in     *inference.Inferrer
	shape  shape
	plan   *convert.Plan
	store  *blocks.Store
	picked []tokenizer.Token
}

func (r *reading) newBuilder(in *inference.Inferrer) *builder {
	return &builder{r: r, in: in}
}

func (b *builder) add(tokens []tokenizer.Token, at convert.Position) error {
	if b.plan == nil {
		if err := b.prepare(len(tokens)); err != nil {
			return withPosition(err, at)
		}
	}
	b.picked = b.picked[:0]
	for _, k := range b.shape.sel {
		b.picked = append(b.picked, tokens[k])
	}
	slot, err := b.store.Next()
	if err != nil {
		return err
	}
	return b.plan.EncodeRow(b.picked, slot, at)
}

func (b *builder) prepare(columns int) error {
	sh, err := resolveShape(b.r.opts, columns, b.in)
	if err != nil {
		return err
	}
	conv, err := resolveConverters(b.r.opts.Converters, sh.sel, columns, b.r.log)
	if err != nil {
		return err
	}
	return b.build(sh, conv)
}

// prepareEmpty fixes a record type when no data row was seen
func (b *builder) prepareEmpty() error {
	opts := b.r.opts
	var sh shape
	switch {
	case opts.Dtype == nil:
		sh.desc = dtype.Struct()
	case !opts.Dtype.IsComposite():
		leaf := *opts.Dtype
		if leaf.Code.IsString() && leaf.Length == 0 {
			leaf.Length = 1
		}
		sh.desc = leaf
		if opts.Usecols != nil {
			field, err := dtype.Flatten(leaf)
			if err != nil {
				return err
			}
			sh.sel = slices.Clone(opts.Usecols)
			for range sh.sel {
				sh.layout = append(sh.layout, field[0])
			}
		}
	default:
		field := 0
		sh.desc = fixStrings(*opts.Dtype, &field, func(int, dtype.Code) int { return 1 })
		layout, err := dtype.Flatten(sh.desc)
		if err != nil {
			return err
		}
		sh.layout = layout
	}
	return b.build(sh, nil)
}

func (b *builder) build(sh shape, conv map[int]convert.Func) error {
	plan, err := convert.NewPlan(sh.layout, conv, b.r.opts.convertOptions())
	if err != nil {
		return err
	}
	log := b.r.log
	opts := []blocks.Option{
		blocks.WithChunkHook(func(rows int) {
			metrics.ChunksAllocated.Inc()
			log.Debug("row chunk allocated", zap.Int("rows", rows), zap.Int("row_size", plan.RowSize()))
		}),
	}
	if b.r.opts.MaxRows != Unbounded {
		opts = append(opts, blocks.WithMaxRows(b.r.opts.MaxRows))
	}
	if b.r.opts.InitialRows > 0 {
		opts = append(opts, blocks.WithInitialRows(b.r.opts.InitialRows))
	}
	if b.r.opts.MaxChunkRows > 0 {
		opts = append(opts, blocks.WithMaxChunkRows(b.r.opts.MaxChunkRows))
	}
	b.shape = sh
	b.plan = plan
	b.store = blocks.New(plan.RowSize(), opts...)
	return nil
}

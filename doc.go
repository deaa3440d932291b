// Package textreader reads delimited text into packed fixed-width rows.
//
// A read runs a source of text lines through a tokenizer, picks a record
// type (given, or inferred from the data), converts every field with
// locale-independent number parsing and stores the encoded rows in a
// chunked block store. The result is one contiguous buffer plus the layout
// describing it, ready for an array library to wrap.
//
// # Packages
//
//   - pkg/reader: the Read entry point, options and results
//   - pkg/source: line sources over files, memory maps, readers and iterators;
//     pkg/source/objectstore and pkg/source/kafka add s3://, gs:// and kafka://
//   - pkg/tokenizer: the field-splitting state machine
//   - pkg/inference: per-column type inference
//   - pkg/convert and pkg/numconv: field conversion
//   - pkg/dtype: type codes, descriptors and flattening
//   - pkg/blocks: the chunked row store
//   - pkg/arrowexport: Arrow records and IPC files from a result
//   - pkg/config: YAML read configurations
//
// # Quick Start
//
//	opts := reader.DefaultOptions()
//	opts.Usecols = []int{0, 2}
//	res, err := reader.ReadFile(ctx, "measurements.csv.gz", opts)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Descriptor, res.Rows)
//	buf := res.Bytes() // res.Rows * res.Layout.RowSize() bytes
//
// The textreader command wraps the same flow:
//
//	textreader read --dtype "u2,f8,S7" --format json data.csv
//	textreader infer s3://bucket/data.csv
//
// # Errors
//
// Every failure is a *errors.Error carrying a category (source, structure,
// conversion, configuration) and, for data problems, the row, column and
// physical line where it happened. A read either returns all of its rows or
// none.
package textreader

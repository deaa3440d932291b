package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ajitpratap0/textreader/pkg/json"
	"github.com/ajitpratap0/textreader/pkg/reader"
)

// readOutput is the JSON form of a read
type readOutput struct {
	Source  string   `json:"source"`
	Mode    string   `json:"mode"`
	Dtype   string   `json:"dtype"`
	Codes   string   `json:"codes"`
	RowSize int      `json:"row_size"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

// rowLimit is the number of rows to print; a negative limit prints them all
func rowLimit(res *reader.Result, limit int) int {
	if limit < 0 || limit > res.Rows {
		return res.Rows
	}
	return limit
}

func writeJSON(w io.Writer, identifier string, res *reader.Result, names []string, limit int) error {
	out := readOutput{
		Source:  identifier,
		Mode:    string(res.Mode),
		Dtype:   res.Descriptor.String(),
		Codes:   res.Layout.Codes(),
		RowSize: res.Layout.RowSize(),
		Rows:    res.Rows,
		Columns: names,
		Data:    make([][]any, 0, rowLimit(res, limit)),
	}
	for i := 0; i < rowLimit(res, limit); i++ {
		row := res.Values(i)
		for j, v := range row {
			row[j] = jsonValue(v)
		}
		out.Data = append(out.Data, row)
	}
	return json.MarshalToWriter(w, out, "  ")
}

// writeJSONLines prints one JSON array per row
func writeJSONLines(w io.Writer, res *reader.Result, limit int) error {
	enc := json.NewStreamingEncoder(w, false)
	for i := 0; i < rowLimit(res, limit); i++ {
		row := res.Values(i)
		for j, v := range row {
			row[j] = jsonValue(v)
		}
		if err := enc.Encode(row); err != nil {
			enc.Close()
			return err
		}
	}
	return enc.Close()
}

// jsonValue turns decoded values JSON cannot carry into strings
func jsonValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case float32:
		return jsonFloat(float64(x), 32)
	case float64:
		return jsonFloat(x, 64)
	case complex64:
		return strconv.FormatComplex(complex128(x), 'g', -1, 64)
	case complex128:
		return strconv.FormatComplex(x, 'g', -1, 128)
	}
	return v
}

func jsonFloat(f float64, bits int) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	return f
}

func writeTable(w io.Writer, res *reader.Result, names []string, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	cells := make([]string, len(names))
	for i := 0; i < rowLimit(res, limit); i++ {
		for j, v := range res.Values(i) {
			cells[j] = cell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if n := rowLimit(res, limit); n < res.Rows {
		fmt.Fprintf(tw, "... %d more rows\n", res.Rows-n)
	}
	return tw.Flush()
}

func cell(v any) string {
	switch x := v.(type) {
	case []byte:
		return strconv.Quote(string(x))
	case string:
		return strconv.Quote(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}

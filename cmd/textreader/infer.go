package main

import (
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/textreader/pkg/arrowexport"
	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/json"
)

type inferredColumn struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Code  string `json:"code"`
	Width int    `json:"width"`
}

type inferOutput struct {
	Source  string           `json:"source"`
	Dtype   string           `json:"dtype"`
	Mode    string           `json:"mode"`
	Rows    int              `json:"rows"`
	Columns []inferredColumn `json:"columns"`
}

func newInferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer <identifier>",
		Short: "Print the record type inferred for an input",
		Long: `infer reads the input (all of it unless --max-rows says otherwise) and
prints the record type that a read without --dtype would produce. The
printed dtype string can be passed back through --dtype.`,
		Args: cobra.ExactArgs(1),
		RunE: runInfer,
	}
	addReadFlags(cmd.Flags())
	return cmd
}

func runInfer(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.read(args[0])
	if err != nil {
		return err
	}
	if res.Rows == 0 {
		return errors.Wrap(errors.ErrNoData, errors.ErrorTypeStructure, "no data rows to infer from").
			WithDetail("identifier", args[0])
	}

	names := arrowexport.Names(res.Descriptor, len(res.Layout))
	out := inferOutput{
		Source: args[0],
		Dtype:  res.Descriptor.String(),
		Mode:   string(res.Mode),
		Rows:   res.Rows,
	}
	for i, f := range res.Layout {
		out.Columns = append(out.Columns, inferredColumn{
			Name:  names[i],
			Type:  f.Code.String(),
			Code:  string(rune(f.Code)),
			Width: f.Width,
		})
	}
	return json.MarshalToWriter(cmd.OutOrStdout(), out, "  ")
}

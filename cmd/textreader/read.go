package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/textreader/pkg/arrowexport"
	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/logger"
	"github.com/ajitpratap0/textreader/pkg/performance"
	"github.com/ajitpratap0/textreader/pkg/reader"
)

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <identifier>",
		Short: "Read a delimited input and print its rows",
		Example: `  textreader read data.csv
  textreader read --dtype "u2,f8,S7" --format json data.csv.gz
  textreader read --usecols 2,0 --arrow-out data.arrow s3://bucket/data.csv`,
		Args: cobra.ExactArgs(1),
		RunE: runRead,
	}
	fs := cmd.Flags()
	addReadFlags(fs)
	fs.String("format", "table", "output format (table, json, jsonl, none)")
	fs.Int("limit", -1, "rows to print; -1 prints all")
	fs.String("arrow-out", "", "also write the rows as an Arrow IPC file")
	fs.Bool("stats", false, "print throughput and resource usage to stderr")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address during the read")
	fs.String("cpuprofile", "", "write a CPU profile of the read to this file")
	return cmd
}

func runRead(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	format := s.v.GetString("format")
	switch format {
	case "table", "json", "jsonl", "none":
	default:
		return errors.Newf(errors.ErrorTypeConfiguration, "unknown output format %q", format)
	}

	if path := s.v.GetString("cpuprofile"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfiguration, "failed to create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	var prof *performance.Profiler
	if s.v.GetBool("stats") {
		prof = performance.Start()
	}

	identifier := args[0]
	res, err := s.read(identifier)
	if err != nil {
		return err
	}

	if prof != nil {
		report := prof.Stop(res.Rows, int64(res.Rows*res.Layout.RowSize()))
		logger.Info("read profile", report.Fields()...)
		if err := report.Write(cmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	names := arrowexport.Names(res.Descriptor, len(res.Layout))
	if path := s.v.GetString("arrow-out"); path != "" {
		if err := writeArrow(path, res, names); err != nil {
			return err
		}
		logger.Info("arrow file written", zap.String("path", path), zap.Int("rows", res.Rows))
	}

	limit := s.v.GetInt("limit")
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return writeJSON(out, identifier, res, names, limit)
	case "jsonl":
		return writeJSONLines(out, res, limit)
	case "table":
		if err := writeTable(out, res, names, limit); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%d rows, dtype %s (%s)\n", res.Rows, res.Descriptor, res.Mode)
	}
	return nil
}

func writeArrow(path string, res *reader.Result, names []string) error {
	rec, err := arrowexport.Record(res, names)
	if err != nil {
		return err
	}
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfiguration, "failed to create arrow output").
			WithDetail("path", path)
	}
	if err := arrowexport.WriteIPC(f, rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

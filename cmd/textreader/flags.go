package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ajitpratap0/textreader/pkg/config"
	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/source/objectstore"
)

// addReadFlags registers the flags shared by read and infer. Defaults match
// config.NewReadConfig so an unset flag leaves a config file value alone.
func addReadFlags(fs *pflag.FlagSet) {
	defaults := config.NewReadConfig()
	p := defaults.Parse

	fs.String("config", "", "YAML read configuration file")

	// Parsing
	fs.String("delimiter", p.Delimiter, `field delimiter; " " splits on runs of spaces`)
	fs.String("quote", p.Quote, "quote character; empty disables quoting")
	fs.String("comment", p.Comment, "comment marker of one or two characters; empty disables comments")
	fs.String("decimal", p.Decimal, "decimal separator")
	fs.String("exponent", p.Exponent, "exponent marker besides e/E, for example D")
	fs.Bool("embedded-newline", false, "let quoted fields span lines")
	fs.Int("max-fields", 0, "maximum fields per row; 0 keeps the default limit")
	fs.Int("max-field-chars", 0, "maximum characters per field; 0 keeps the default limit")

	// Selection
	fs.String("usecols", "", "comma-separated column indices to keep, in output order; negative counts from the end")
	fs.Int("skiprows", 0, "physical lines to skip before the first data row")
	fs.Int("max-rows", p.MaxRows, "maximum data rows; -1 reads everything")

	// Types
	fs.String("dtype", "", `record type such as "u2,f8,S7"; empty infers types`)
	fs.Bool("prefer-unsigned", false, "infer unsigned integers for non-negative columns")
	fs.Int("string-width-cap", 0, "widest inferred string before a column is rejected; 0 is unlimited")
	fs.Bool("allow-float-for-int", false, "accept float text in integer columns, truncated toward zero")
	fs.Bool("strict-string-width", false, "fail on strings longer than their field instead of truncating")
	fs.Bool("fill-blank", false, "convert blank fields to the column default")

	// Source
	fs.String("encoding", "", "input character set, for example latin1; empty means UTF-8")
	fs.String("compression", "", "force a codec (gzip, zstd, lz4, snappy, s2, xz, bzip2, none)")
	fs.Bool("mmap", false, "memory-map plain local files")
	fs.Int("buffer-size", 0, "read buffer size in bytes")
	fs.String("s3-region", "", "AWS region for s3:// inputs")
	fs.String("s3-endpoint", "", "S3-compatible endpoint URL")
	fs.Bool("s3-path-style", false, "address S3 buckets as path segments")
	fs.String("gcs-credentials", "", "service account key file for gs:// inputs")

	// Observability
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("log-encoding", "", "log encoding (json, console)")
	fs.Bool("trace", false, "export read spans to stderr")
	fs.Duration("timeout", 0, "abandon the read after this long; 0 waits forever")
}

// newViper binds the command flags and TEXTREADER_* environment variables
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("TEXTREADER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfiguration, "failed to bind flags")
	}
	return v, nil
}

// loadConfig starts from the --config file, or the defaults, and applies
// every flag or environment variable that was set
func loadConfig(v *viper.Viper) (*config.ReadConfig, error) {
	cfg := config.NewReadConfig()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.LoadReadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	p := &cfg.Parse
	strs := map[string]*string{
		"delimiter":    &p.Delimiter,
		"quote":        &p.Quote,
		"comment":      &p.Comment,
		"decimal":      &p.Decimal,
		"exponent":     &p.Exponent,
		"dtype":        &p.Dtype,
		"encoding":     &cfg.Source.Encoding,
		"compression":  &cfg.Source.Compression,
		"log-level":    &cfg.Observability.LogLevel,
		"log-encoding": &cfg.Observability.LogEncoding,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	ints := map[string]*int{
		"skiprows":         &p.SkipRows,
		"max-rows":         &p.MaxRows,
		"max-fields":       &p.MaxFields,
		"max-field-chars":  &p.MaxFieldChars,
		"string-width-cap": &p.StringWidthCap,
		"buffer-size":      &cfg.Source.BufferSize,
	}
	for key, dst := range ints {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	bools := map[string]*bool{
		"embedded-newline":    &p.AllowEmbeddedNewline,
		"prefer-unsigned":     &p.PreferUnsigned,
		"allow-float-for-int": &p.AllowFloatForInt,
		"strict-string-width": &p.StrictStringWidth,
		"fill-blank":          &p.FillBlank,
		"mmap":                &cfg.Source.MemoryMap,
		"trace":               &cfg.Observability.EnableTracing,
	}
	for key, dst := range bools {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}
	if v.IsSet("metrics-addr") {
		cfg.Observability.MetricsAddr = v.GetString("metrics-addr")
	}
	if v.IsSet("usecols") {
		cols, err := parseUsecols(v.GetString("usecols"))
		if err != nil {
			return nil, err
		}
		p.Usecols = cols
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseUsecols(s string) ([]int, error) {
	var cols []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
				"usecols: "+strconv.Quote(part)+" is not a column index").WithDetail("usecols", s)
		}
		cols = append(cols, n)
	}
	return cols, nil
}

func objectStoreConfig(v *viper.Viper) objectstore.Config {
	return objectstore.Config{
		Region:          v.GetString("s3-region"),
		Endpoint:        v.GetString("s3-endpoint"),
		UsePathStyle:    v.GetBool("s3-path-style"),
		CredentialsFile: v.GetString("gcs-credentials"),
	}
}

package config

import (
	"fmt"
	"unicode/utf8"

	"github.com/ajitpratap0/textreader/pkg/compression"
	"github.com/ajitpratap0/textreader/pkg/dtype"
	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/logger"
	"github.com/ajitpratap0/textreader/pkg/observability"
	"github.com/ajitpratap0/textreader/pkg/reader"
	"github.com/ajitpratap0/textreader/pkg/tokenizer"
)

// ReadConfig is the file form of a read: parse options plus the source,
// memory and observability settings around it.
type ReadConfig struct {
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version"`

	// Parse controls tokenizing, type selection and conversion
	Parse ParseConfig `yaml:"parse" json:"parse"`

	// Source controls how identifiers are opened
	Source SourceConfig `yaml:"source" json:"source"`

	// Memory tunes the row store
	Memory MemoryConfig `yaml:"memory" json:"memory"`

	// Observability settings for logging, metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// ParseConfig mirrors reader.Options. Single characters are strings so an
// empty value can disable quoting or comments.
type ParseConfig struct {
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	Quote     string `yaml:"quote" json:"quote"`
	Comment   string `yaml:"comment" json:"comment"`
	Decimal   string `yaml:"decimal" json:"decimal"`
	Exponent  string `yaml:"exponent" json:"exponent"`

	AllowEmbeddedNewline bool `yaml:"allow_embedded_newline" json:"allow_embedded_newline"`
	IgnoreLeadingSpaces  bool `yaml:"ignore_leading_spaces" json:"ignore_leading_spaces"`
	IgnoreTrailingSpaces bool `yaml:"ignore_trailing_spaces" json:"ignore_trailing_spaces"`
	MaxFields            int  `yaml:"max_fields" json:"max_fields"`
	MaxFieldChars        int  `yaml:"max_field_chars" json:"max_field_chars"`

	// Usecols selects and orders columns; empty reads every column
	Usecols []int `yaml:"usecols" json:"usecols"`
	// SkipRows drops physical lines before the first data row
	SkipRows int `yaml:"skip_rows" json:"skip_rows"`
	// MaxRows caps data rows; -1 reads everything
	MaxRows int `yaml:"max_rows" json:"max_rows"`
	// Dtype is a descriptor string such as "u2,f8,S7"; empty infers types
	Dtype string `yaml:"dtype" json:"dtype"`

	PreferUnsigned    bool `yaml:"prefer_unsigned" json:"prefer_unsigned"`
	StringWidthCap    int  `yaml:"string_width_cap" json:"string_width_cap"`
	AllowFloatForInt  bool `yaml:"allow_float_for_int" json:"allow_float_for_int"`
	StrictStringWidth bool `yaml:"strict_string_width" json:"strict_string_width"`
	FillBlank         bool `yaml:"fill_blank" json:"fill_blank"`
}

// SourceConfig mirrors source.Options
type SourceConfig struct {
	// Encoding is an IANA character set name; empty means UTF-8
	Encoding string `yaml:"encoding" json:"encoding"`
	// MemoryMap serves plain local files from a memory mapping
	MemoryMap bool `yaml:"memory_map" json:"memory_map"`
	// Compression forces a codec (gzip, zstd, lz4, snappy, s2, xz, bzip2, none);
	// empty detects it from the extension
	Compression string `yaml:"compression" json:"compression"`
	// BufferSize is the read buffer size in bytes
	BufferSize int `yaml:"buffer_size" json:"buffer_size"`
}

// MemoryConfig sizes the chunks of the row store
type MemoryConfig struct {
	InitialRows  int `yaml:"initial_rows" json:"initial_rows"`
	MaxChunkRows int `yaml:"max_chunk_rows" json:"max_chunk_rows"`
}

// ObservabilityConfig contains monitoring settings
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogEncoding is json or console
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
	// Development enables zap's development mode
	Development bool `yaml:"development" json:"development"`
	// MetricsAddr serves /metrics on this address when set
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
	// EnableTracing activates span export
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// TracingExporter is stdout or none
	TracingExporter string `yaml:"tracing_exporter" json:"tracing_exporter"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
}

// NewReadConfig returns a configuration matching reader.DefaultOptions
func NewReadConfig() *ReadConfig {
	return &ReadConfig{
		Version: "1",
		Parse: ParseConfig{
			Delimiter: ",",
			Quote:     `"`,
			Comment:   "#",
			Decimal:   ".",
			Exponent:  "E",
			MaxRows:   reader.Unbounded,
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogEncoding:       "json",
			TracingExporter:   "stdout",
			TracingSampleRate: 1.0,
		},
	}
}

// char converts a one-character setting; empty gives 0
func char(name, s string) (rune, error) {
	if s == "" {
		return 0, nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
			fmt.Sprintf("%s must be a single character, got %q", name, s)).
			WithDetail("option", name)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// Validate checks the configuration for correctness. It returns the first
// problem found as a configuration error.
func (c *ReadConfig) Validate() error {
	_, err := c.ToOptions()
	if err != nil {
		return err
	}
	if alg := compression.Algorithm(c.Source.Compression); alg != "" && !alg.Valid() {
		return errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
			fmt.Sprintf("unknown compression %q", c.Source.Compression))
	}
	if c.Memory.InitialRows < 0 || c.Memory.MaxChunkRows < 0 {
		return errors.New(errors.ErrorTypeConfiguration, "memory sizes cannot be negative")
	}
	switch c.Observability.TracingExporter {
	case "", "stdout", "none":
	default:
		return errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
			fmt.Sprintf("unknown tracing exporter %q", c.Observability.TracingExporter))
	}
	if r := c.Observability.TracingSampleRate; r < 0 || r > 1 {
		return errors.New(errors.ErrorTypeConfiguration, "tracing_sample_rate must be between 0 and 1")
	}
	return nil
}

// ToOptions converts the configuration into validated reader options
func (c *ReadConfig) ToOptions() (reader.Options, error) {
	p := c.Parse
	opts := reader.DefaultOptions()

	chars := []struct {
		name string
		src  string
		dst  *rune
	}{
		{"delimiter", p.Delimiter, &opts.Delimiter},
		{"quote", p.Quote, &opts.Quote},
		{"decimal", p.Decimal, &opts.Decimal},
		{"exponent", p.Exponent, &opts.Exponent},
	}
	for _, ch := range chars {
		r, err := char(ch.name, ch.src)
		if err != nil {
			return reader.Options{}, err
		}
		*ch.dst = r
	}
	opts.Config = tokenizer.Config{
		Delimiter:            opts.Delimiter,
		Quote:                opts.Quote,
		Comment:              p.Comment,
		AllowEmbeddedNewline: p.AllowEmbeddedNewline,
		IgnoreLeadingSpaces:  p.IgnoreLeadingSpaces,
		IgnoreTrailingSpaces: p.IgnoreTrailingSpaces,
		MaxFields:            p.MaxFields,
		MaxFieldChars:        p.MaxFieldChars,
	}

	if len(p.Usecols) > 0 {
		opts.Usecols = append([]int(nil), p.Usecols...)
	}
	opts.SkipRows = p.SkipRows
	opts.MaxRows = p.MaxRows
	if p.Dtype != "" {
		d, err := dtype.Parse(p.Dtype)
		if err != nil {
			return reader.Options{}, err
		}
		opts.Dtype = &d
	}
	opts.PreferUnsigned = p.PreferUnsigned
	opts.StringWidthCap = p.StringWidthCap
	opts.AllowFloatForInt = p.AllowFloatForInt
	opts.StrictStringWidth = p.StrictStringWidth
	opts.FillBlank = p.FillBlank

	opts.Source.Encoding = c.Source.Encoding
	opts.Source.MemoryMap = c.Source.MemoryMap
	opts.Source.Compression = compression.Algorithm(c.Source.Compression)
	opts.Source.BufferSize = c.Source.BufferSize
	opts.InitialRows = c.Memory.InitialRows
	opts.MaxChunkRows = c.Memory.MaxChunkRows

	if err := opts.Validate(); err != nil {
		return reader.Options{}, err
	}
	return opts, nil
}

// LoggerConfig returns the logger settings
func (c *ReadConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Level:       c.Observability.LogLevel,
		Development: c.Observability.Development,
		Encoding:    c.Observability.LogEncoding,
		OutputPaths: []string{"stderr"},
	}
}

// TracingConfig returns the tracer settings
func (c *ReadConfig) TracingConfig() observability.TracingConfig {
	cfg := observability.DefaultConfig()
	cfg.Enabled = c.Observability.EnableTracing
	if c.Observability.TracingExporter != "" {
		cfg.Exporter = c.Observability.TracingExporter
	}
	cfg.SamplingRate = c.Observability.TracingSampleRate
	return cfg
}

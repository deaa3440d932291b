package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/textreader/pkg/compression"
	"github.com/ajitpratap0/textreader/pkg/dtype"
	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/reader"
)

func TestDefaultsMatchReader(t *testing.T) {
	opts, err := NewReadConfig().ToOptions()
	require.NoError(t, err)
	assert.Equal(t, reader.DefaultOptions(), opts)
}

func TestToOptions(t *testing.T) {
	cfg := NewReadConfig()
	cfg.Parse.Delimiter = " "
	cfg.Parse.Quote = ""
	cfg.Parse.Comment = "//"
	cfg.Parse.Exponent = "D"
	cfg.Parse.Usecols = []int{0, -1}
	cfg.Parse.SkipRows = 3
	cfg.Parse.MaxRows = 10
	cfg.Parse.Dtype = "i4,U"
	cfg.Parse.FillBlank = true
	cfg.Source.Encoding = "ISO-8859-1"
	cfg.Source.Compression = "zstd"
	cfg.Memory.InitialRows = 64

	opts, err := cfg.ToOptions()
	require.NoError(t, err)
	assert.True(t, opts.Whitespace())
	assert.Equal(t, rune(0), opts.Quote)
	assert.Equal(t, "//", opts.Comment)
	assert.Equal(t, 'D', opts.Exponent)
	assert.Equal(t, []int{0, -1}, opts.Usecols)
	assert.Equal(t, 3, opts.SkipRows)
	assert.Equal(t, 10, opts.MaxRows)
	require.NotNil(t, opts.Dtype)
	assert.Equal(t, dtype.MustParse("i4,U"), *opts.Dtype)
	assert.True(t, opts.FillBlank)
	assert.Equal(t, "ISO-8859-1", opts.Source.Encoding)
	assert.Equal(t, compression.Zstd, opts.Source.Compression)
	assert.Equal(t, 64, opts.InitialRows)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ReadConfig)
	}{
		{"multi-rune delimiter", func(c *ReadConfig) { c.Parse.Delimiter = "::" }},
		{"delimiter equals quote", func(c *ReadConfig) { c.Parse.Quote = "," }},
		{"delimiter equals decimal", func(c *ReadConfig) { c.Parse.Decimal = "," }},
		{"delimiter equals comment", func(c *ReadConfig) { c.Parse.Comment = "," }},
		{"negative skip rows", func(c *ReadConfig) { c.Parse.SkipRows = -1 }},
		{"max rows below -1", func(c *ReadConfig) { c.Parse.MaxRows = -5 }},
		{"bad dtype", func(c *ReadConfig) { c.Parse.Dtype = "q9" }},
		{"unknown compression", func(c *ReadConfig) { c.Source.Compression = "rar" }},
		{"negative chunk size", func(c *ReadConfig) { c.Memory.MaxChunkRows = -1 }},
		{"unknown exporter", func(c *ReadConfig) { c.Observability.TracingExporter = "jaeger" }},
		{"sample rate", func(c *ReadConfig) { c.Observability.TracingSampleRate = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewReadConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
		})
	}
	assert.NoError(t, NewReadConfig().Validate())
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("TR_SET", "value")
	t.Setenv("TR_EMPTY", "")

	tests := []struct {
		in, want string
	}{
		{"a: ${TR_SET}", "a: value"},
		{"a: ${TR_UNSET}", "a: "},
		{"a: ${TR_UNSET:-fallback}", "a: fallback"},
		{"a: ${TR_EMPTY:-fallback}", "a: fallback"},
		{"a: ${TR_SET:-fallback}", "a: value"},
		{"a: ${TR_UNSET:--1}", "a: -1"},
		{"${TR_SET}/${TR_SET}", "value/value"},
		{"open ${TR_SET", "open ${TR_SET"},
		{"none", "none"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, substituteEnvVars(tt.in), tt.in)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "read.yaml")
	cfg := NewReadConfig()
	cfg.Parse.Delimiter = "\t"
	cfg.Parse.Dtype = "a:u1[2],b:f8"
	cfg.Parse.Usecols = []int{2, 1, 0}
	cfg.Observability.MetricsAddr = ":9090"
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, Save(path, map[string]any{"parse": map[string]any{"dtype": "x9"}}))
	_, err = LoadReadConfig(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedType) || errors.Is(err, errors.ErrInvalidOption))
}

func TestObservabilitySettings(t *testing.T) {
	tr := NewReadConfig().TracingConfig()
	assert.False(t, tr.Enabled)
	assert.Equal(t, "stdout", tr.Exporter)
	assert.Equal(t, 1.0, tr.SamplingRate)

	lg := NewReadConfig().LoggerConfig()
	assert.Equal(t, "info", lg.Level)
	assert.Equal(t, "json", lg.Encoding)
}

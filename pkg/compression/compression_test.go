package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/textreader/pkg/errors"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		alg  Algorithm
		base string
	}{
		{"data.csv.gz", Gzip, "data.csv"},
		{"data.csv.GZ", Gzip, "data.csv"},
		{"data.tsv.zst", Zstd, "data.tsv"},
		{"rows.lz4", LZ4, "rows"},
		{"rows.txt.sz", Snappy, "rows.txt"},
		{"rows.txt.snappy", Snappy, "rows.txt"},
		{"rows.s2", S2, "rows"},
		{"rows.xz", XZ, "rows"},
		{"rows.bz2", Bzip2, "rows"},
		{"rows.csv", None, "rows.csv"},
		{"rows", None, "rows"},
	}
	for _, tt := range tests {
		alg, base := Detect(tt.name)
		assert.Equal(t, tt.alg, alg, tt.name)
		assert.Equal(t, tt.base, base, tt.name)
	}
}

func TestRoundTrip(t *testing.T) {
	original := strings.Repeat("1.5,2,\"alpha, x\"\n3.25,4,beta\n", 200)

	for _, alg := range []Algorithm{None, Gzip, Zstd, LZ4, Snappy, S2, XZ} {
		t.Run(string(alg), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, alg, Default)
			require.NoError(t, err)
			_, err = io.WriteString(w, original)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := NewReader(&buf, alg)
			require.NoError(t, err)
			defer r.Close()
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, original, string(got))
		})
	}
}

func TestLevels(t *testing.T) {
	for _, level := range []Level{Fastest, Default, Better, Best} {
		var buf bytes.Buffer
		w, err := NewWriter(&buf, Zstd, level)
		require.NoError(t, err)
		_, err = w.Write([]byte("a,b,c\n"))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		assert.NotZero(t, buf.Len())
	}
}

func TestBadHeader(t *testing.T) {
	_, err := NewReader(strings.NewReader("plain text, not gzip"), Gzip)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDecode))
	assert.True(t, errors.IsType(err, errors.ErrorTypeSource))
}

func TestUnsupported(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), Algorithm("rar"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))

	_, err = NewWriter(io.Discard, Bzip2, Default)
	assert.Error(t, err)
}

// Package compression wraps compressed inputs in streaming decoders so the
// text reader can consume them line by line.
//
// The codec is picked from the file extension:
//
//	.gz .gzip     gzip (klauspost)
//	.zst .zstd    zstandard
//	.lz4          lz4 frame
//	.sz .snappy   snappy framed stream
//	.s2           s2 stream
//	.xz           xz
//	.bz2          bzip2 (decode only)
//
// Decoded streams are forward-only; a reader built on them cannot rewind.
package compression

import (
	"compress/bzip2"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/ajitpratap0/textreader/pkg/errors"
)

// Algorithm names a compression codec
type Algorithm string

const (
	// None represents uncompressed input
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents the snappy framing format
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
	// XZ represents xz compression
	XZ Algorithm = "xz"
	// Bzip2 represents bzip2 compression
	Bzip2 Algorithm = "bzip2"
)

// Level represents compression level for writers
type Level int

const (
	// Fastest prioritizes speed over compression ratio
	Fastest Level = 1
	// Default balances speed and compression
	Default Level = 5
	// Better improves compression at cost of speed
	Better Level = 7
	// Best maximizes compression ratio
	Best Level = 9
)

var extensions = map[string]Algorithm{
	".gz":     Gzip,
	".gzip":   Gzip,
	".zst":    Zstd,
	".zstd":   Zstd,
	".lz4":    LZ4,
	".sz":     Snappy,
	".snappy": Snappy,
	".s2":     S2,
	".xz":     XZ,
	".bz2":    Bzip2,
}

// Valid reports whether a names a supported codec
func (a Algorithm) Valid() bool {
	switch a {
	case None, Gzip, Snappy, LZ4, Zstd, S2, XZ, Bzip2:
		return true
	}
	return false
}

// Detect returns the codec implied by name's extension and the name with that
// extension removed. Unknown extensions give None and the unchanged name.
func Detect(name string) (Algorithm, string) {
	ext := strings.ToLower(filepath.Ext(name))
	if alg, ok := extensions[ext]; ok {
		return alg, name[:len(name)-len(ext)]
	}
	return None, name
}

// NewReader wraps r in a decoder for alg. Closing the result releases the
// decoder; it does not close r.
func NewReader(r io.Reader, alg Algorithm) (io.ReadCloser, error) {
	switch alg {
	case None, "":
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, decodeErr(alg, err)
		}
		return zr, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, decodeErr(alg, err)
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, decodeErr(alg, err)
		}
		return io.NopCloser(xr), nil
	case Bzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	}
	return nil, errors.Newf(errors.ErrorTypeConfiguration, "unsupported compression algorithm: %s", alg).
		WithDetail("algorithm", string(alg))
}

// NewWriter returns an encoder for alg writing to w. Close flushes the
// encoder but leaves w open. Bzip2 has no encoder.
func NewWriter(w io.Writer, alg Algorithm, level Level) (io.WriteCloser, error) {
	switch alg {
	case None, "":
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriterLevel(w, mapGzipLevel(level))
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(mapZstdLevel(level)))
	case LZ4:
		lw := lz4.NewWriter(w)
		if err := lw.Apply(lz4.CompressionLevelOption(mapLZ4Level(level))); err != nil {
			return nil, err
		}
		return lw, nil
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	case S2:
		return s2.NewWriter(w), nil
	case XZ:
		return xz.NewWriter(w)
	}
	return nil, errors.Newf(errors.ErrorTypeConfiguration, "no encoder for compression algorithm: %s", alg).
		WithDetail("algorithm", string(alg))
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func decodeErr(alg Algorithm, err error) error {
	return errors.Wrap(errors.ErrDecode, errors.ErrorTypeSource, string(alg)+" header: "+err.Error()).
		WithDetail("algorithm", string(alg))
}

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

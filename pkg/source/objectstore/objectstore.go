// Package objectstore registers s3:// and gs:// sources.
//
// S3 objects are downloaded into a temporary file, so they read as seekable
// file sources and inference can rewind. GCS objects are streamed and read
// as forward-only stream sources. Import the package for its side effect:
//
//	import _ "github.com/ajitpratap0/textreader/pkg/source/objectstore"
package objectstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/logger"
	"github.com/ajitpratap0/textreader/pkg/source"
)

// Config holds the settings shared by object-store openers
type Config struct {
	// Region overrides the AWS region from the environment
	Region string
	// Endpoint points S3 requests at a compatible service such as MinIO
	Endpoint string
	// UsePathStyle addresses buckets as path segments rather than subdomains
	UsePathStyle bool
	// PartSize and Concurrency tune the S3 downloader; 0 keeps its defaults
	PartSize    int64
	Concurrency int
	// CredentialsFile is a GCS service account key file; empty uses the
	// application default credentials
	CredentialsFile string
}

var (
	mu       sync.RWMutex
	settings Config
)

// Configure replaces the settings used by later opens
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	settings = cfg
}

func current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return settings
}

func init() {
	for scheme, opener := range map[string]source.Opener{
		"s3": openS3,
		"gs": openGCS,
	} {
		if err := source.Register(scheme, opener); err != nil {
			logger.Warn("object store scheme not registered", zap.String("scheme", scheme), zap.Error(err))
		}
	}
}

// Location is a parsed object URI
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

func (l Location) String() string {
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

// ParseURI splits scheme://bucket/key. Both bucket and key are required.
func ParseURI(uri string) (Location, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	bucket, key, _ := strings.Cut(rest, "/")
	if !ok || scheme == "" || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return Location{}, errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
			fmt.Sprintf("invalid object URI %q: want scheme://bucket/key", uri)).
			WithDetail("identifier", uri)
	}
	return Location{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

func notFound(uri string, cause error) error {
	return errors.Wrap(errors.ErrNotFound, errors.ErrorTypeSource, uri+": "+cause.Error()).
		WithDetail("identifier", uri)
}

func denied(uri string, cause error) error {
	return errors.Wrap(errors.ErrPermissionDenied, errors.ErrorTypeSource, uri+": "+cause.Error()).
		WithDetail("identifier", uri)
}

func failed(uri string, cause error) error {
	return errors.Wrap(errors.ErrRead, errors.ErrorTypeSource, "fetch "+uri+": "+cause.Error()).
		WithDetail("identifier", uri)
}

// Open opens an s3:// or gs:// URI without going through the source registry
func Open(ctx context.Context, uri string, opts source.Options) (source.Source, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	switch loc.Scheme {
	case "s3":
		return openS3(ctx, uri, opts)
	case "gs":
		return openGCS(ctx, uri, opts)
	}
	return nil, errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
		"unsupported object store scheme "+loc.Scheme).WithDetail("scheme", loc.Scheme)
}

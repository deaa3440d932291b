package objectstore

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/logger"
	"github.com/ajitpratap0/textreader/pkg/source"
)

func newS3Client(ctx context.Context, c Config) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(c.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfiguration, "failed to load AWS configuration")
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = c.UsePathStyle
	}), nil
}

// openS3 downloads the object into a temporary file that keeps the key's
// extension, so compressed objects are still detected. The file is removed
// when the source closes.
func openS3(ctx context.Context, uri string, opts source.Options) (source.Source, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	c := current()
	client, err := newS3Client(ctx, c)
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", "textreader-*-"+path.Base(loc.Key))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create download file")
	}
	tmp := f.Name()
	cleanup := func() error { return os.Remove(tmp) }

	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		if c.PartSize > 0 {
			d.PartSize = c.PartSize
		}
		if c.Concurrency > 0 {
			d.Concurrency = c.Concurrency
		}
	})
	start := time.Now()
	n, err := downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return nil, s3Error(uri, err)
	}
	logger.Debug("s3 object downloaded",
		zap.String("uri", uri),
		zap.Int64("bytes", n),
		zap.Duration("duration", time.Since(start)),
	)

	src, err := source.OpenFile(tmp, opts)
	if err != nil {
		cleanup()
		return nil, err
	}
	return source.OnClose(source.Named(src, uri), cleanup), nil
}

// s3Error maps SDK failures onto source errors
func s3Error(uri string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return notFound(uri, err)
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return denied(uri, err)
		}
	}
	return failed(uri, err)
}

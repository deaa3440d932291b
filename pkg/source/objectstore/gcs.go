package objectstore

import (
	"context"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/source"
)

// openGCS streams the object. The client lives as long as the source.
func openGCS(ctx context.Context, uri string, opts source.Options) (source.Source, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	var clientOpts []option.ClientOption
	if file := current().CredentialsFile; file != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(file))
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfiguration, "failed to create GCS client")
	}

	r, err := client.Bucket(loc.Bucket).Object(loc.Key).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, gcsError(uri, err)
	}

	src, err := source.FromReader(uri, r, opts)
	if err != nil {
		client.Close()
		return nil, err
	}
	return source.OnClose(src, client.Close), nil
}

// gcsError maps client failures onto source errors
func gcsError(uri string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return notFound(uri, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return notFound(uri, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return denied(uri, err)
		}
	}
	return failed(uri, err)
}

package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCS is a Remote backed by a Cloud Storage bucket prefix.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSClient uses explicit JSON credentials when given, otherwise
// application default credentials.
func NewGCSClient(ctx context.Context, credentialsJSON string) (*storage.Client, error) {
	if strings.TrimSpace(credentialsJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	return storage.NewClient(ctx)
}

// NewGCS constructs GCS.
func NewGCS(client *storage.Client, bucket, prefix string) (*GCS, error) {
	if client == nil || bucket == "" {
		return nil, errors.New("transfer: gcs client and bucket required")
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

func (g *GCS) object(name string) *storage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(g.prefix + name)
}

// Upload writes data to the object name.
func (g *GCS) Upload(ctx context.Context, name string, data []byte) error {
	wc := g.object(name).NewWriter(ctx)
	wc.ContentType = "text/csv; charset=utf-8"
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("transfer: gcs write %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("transfer: gcs close %s: %w", name, err)
	}
	return nil
}

// List returns object names directly under the prefix.
func (g *GCS) List(ctx context.Context) ([]string, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: g.prefix, Delimiter: "/"})
	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("transfer: gcs list: %w", err)
		}
		if attrs.Name == "" {
			continue
		}
		names = append(names, path.Base(attrs.Name))
	}
	return names, nil
}

// Download reads the object name.
func (g *GCS) Download(ctx context.Context, name string) ([]byte, error) {
	rc, err := g.object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("transfer: gcs read %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Delete removes the object name.
func (g *GCS) Delete(ctx context.Context, name string) error {
	err := g.object(name).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrNotFound
	}
	return err
}

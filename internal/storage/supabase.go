// Package storage adapts the Supabase SDK for transcript object storage
// and bearer-token user authentication.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	storage_go "github.com/supabase-community/storage-go"
	supa "github.com/supabase-community/supabase-go"
)

// Client wraps a Supabase SDK client scoped to one storage bucket.
type Client struct {
	sdk    *supa.Client
	bucket string
	log    zerolog.Logger
}

// New constructs the SDK client with the service-role key (server-side access).
func New(supabaseURL, serviceKey, bucket string, log zerolog.Logger) (*Client, error) {
	sdk, err := supa.NewClient(supabaseURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase SDK: %w", err)
	}
	return &Client{sdk: sdk, bucket: bucket, log: log}, nil
}

// Upload writes an object with overwrite-allowed semantics. The SDK does not
// thread a context; ctx is accepted for interface symmetry with consumers.
func (c *Client) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	upsert := true
	_, err := c.sdk.Storage.UploadFile(c.bucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	c.log.Debug().Str("path", path).Int("bytes", len(data)).Msg("object uploaded")
	return nil
}

// Download fetches an object's bytes.
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	data, err := c.sdk.Storage.DownloadFile(c.bucket, path)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", path, err)
	}
	return data, nil
}

// UserFromToken resolves a bearer token to the GoTrue user it belongs to.
func (c *Client) UserFromToken(ctx context.Context, token string) (uuid.UUID, error) {
	resp, err := c.sdk.Auth.WithToken(token).GetUser()
	if err != nil {
		return uuid.Nil, fmt.Errorf("get user: %w", err)
	}
	return resp.ID, nil
}

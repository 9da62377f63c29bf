package apiclient

import (
	"context"
	"mime"
	"net/http"
	"net/url"
)

// Blob is a downloaded file.
type Blob struct {
	Data        []byte
	ContentType string
	// Filename comes from Content-Disposition when the server sets one.
	Filename string
}

// GetBlob downloads path through the same auth and error pipeline as Do.
func (c *Client) GetBlob(ctx context.Context, path string, query url.Values) (*Blob, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return nil, err
	}

	blob := &Blob{
		Data:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			blob.Filename = params["filename"]
		}
	}
	return blob, nil
}

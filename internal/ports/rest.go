package ports

import (
	"context"
	"net/url"
)

// RESTClient talks JSON to the school backend. Paths are relative to the configured API base.
// Decoded bodies are returned as generic JSON values for the normalizers.
type RESTClient interface {
	Get(ctx context.Context, path string, query url.Values) (any, error)
	Send(ctx context.Context, method, path string, body any) (any, error)
}

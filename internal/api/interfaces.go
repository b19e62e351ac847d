// interfaces.go - Collaborators the handlers depend on
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/gobeaver/uploadkit"
)

// RemoteFetcher downloads a URL as a file record. *uploadkit.Fetcher
// implements it.
type RemoteFetcher interface {
	FetchAsFile(ctx context.Context, rawURL string, maxBytes int64) (*uploadkit.FileRecord, error)
}

// UploadHandler handles multipart and remote uploads
type UploadHandler interface {
	HandleUpload(c echo.Context) error
	HandleRemoteUpload(c echo.Context) error
}

// HealthHandler handles health checks
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

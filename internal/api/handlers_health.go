// handlers_health.go - Liveness and policy status
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gobeaver/uploadkit/policy"
)

// policyStatus is implemented by *policy.Catalog and *policy.Watcher.
type policyStatus interface {
	Names() []string
}

// reloadStatus is implemented by *policy.Watcher.
type reloadStatus interface {
	LastError() error
}

type healthResponse struct {
	Status      string   `json:"status"`
	Version     string   `json:"version"`
	Policies    []string `json:"policies,omitempty"`
	PolicyError string   `json:"policyError,omitempty"`
}

// HealthHandlerImpl reports the server version and the loaded policies.
type HealthHandlerImpl struct {
	version  string
	policies policy.Source
}

// NewHealthHandler creates a new health handler. policies may be nil.
func NewHealthHandler(version string, policies policy.Source) HealthHandler {
	return &HealthHandlerImpl{version: version, policies: policies}
}

// HandleHealth reports "ok", or "degraded" when the last policy reload
// failed and the previous policies are still being served. Both are 200.
// GET /health
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := healthResponse{Status: "ok", Version: h.version}
	if p, ok := h.policies.(policyStatus); ok {
		resp.Policies = p.Names()
	}
	if r, ok := h.policies.(reloadStatus); ok {
		if err := r.LastError(); err != nil {
			resp.Status = "degraded"
			resp.PolicyError = err.Error()
		}
	}
	return c.JSON(http.StatusOK, resp)
}

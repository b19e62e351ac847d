// handlers_upload.go - Multipart and remote upload handlers
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gobeaver/uploadkit"
	"github.com/gobeaver/uploadkit/filevalidator"
	"github.com/gobeaver/uploadkit/policy"
)

// UploadDependencies configures the upload handlers
type UploadDependencies struct {
	// Ingest is the base pipeline configuration; the selected policy's
	// validator is appended to its Validators per request.
	Ingest uploadkit.IngestOptions

	Fetcher        RemoteFetcher
	Policies       policy.Source
	DefaultPolicy  string
	MaxBodySize    int64
	RemoteMaxBytes int64
	Logger         *slog.Logger
}

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	deps UploadDependencies
	log  *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(deps UploadDependencies) *UploadHandlerImpl {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &UploadHandlerImpl{deps: deps, log: log}
}

// fileResponse is the client view of a FileRecord. The buffer itself is
// never echoed back.
type fileResponse struct {
	FieldName string `json:"fieldname"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mimetype"`
	Size      int64  `json:"size"`
	Extension string `json:"extension,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Checksum  string `json:"checksum"`
}

func newFileResponse(r *uploadkit.FileRecord) fileResponse {
	return fileResponse{
		FieldName: r.FieldName,
		Filename:  r.Filename,
		MimeType:  r.MimeType,
		Size:      r.Size,
		Extension: r.Extension,
		Width:     r.Width,
		Height:    r.Height,
		Checksum:  r.Checksum,
	}
}

type uploadResponse struct {
	Policy string                    `json:"policy"`
	Files  map[string][]fileResponse `json:"files"`
	Body   uploadkit.Body            `json:"body"`
}

type remoteUploadRequest struct {
	ImgURL string `json:"imgUrl" form:"imgUrl" query:"imgUrl"`
	Policy string `json:"policy" form:"policy" query:"policy"`
}

type remoteUploadResponse struct {
	Policy string       `json:"policy"`
	File   fileResponse `json:"file"`
}

func (h *UploadHandlerImpl) resolvePolicy(name string) (string, filevalidator.Validator, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = h.deps.DefaultPolicy
	}
	if name == "" {
		return "", nil, nil
	}
	v, ok := h.deps.Policies.Lookup(name)
	if !ok {
		return "", nil, NewUnknownPolicyError(name)
	}
	return name, v, nil
}

// HandleUpload ingests a multipart/form-data request and validates every
// file against the policy named by the "policy" query parameter.
// POST /api/uploads?policy=name
func (h *UploadHandlerImpl) HandleUpload(c echo.Context) error {
	name, validator, err := h.resolvePolicy(c.QueryParam("policy"))
	if err != nil {
		return err
	}

	req := c.Request()
	if h.deps.MaxBodySize > 0 {
		req.Body = http.MaxBytesReader(c.Response(), req.Body, h.deps.MaxBodySize)
	}

	opts := h.deps.Ingest
	opts.Logger = h.log
	if validator != nil {
		opts.Validators = append(append([]filevalidator.Validator{}, opts.Validators...), validator)
	}

	res, err := uploadkit.Ingest(req.Context(), req, opts)
	if err != nil {
		return err
	}

	files := make(map[string][]fileResponse, len(res.Files))
	for field, records := range res.Files {
		out := make([]fileResponse, len(records))
		for i, r := range records {
			out[i] = newFileResponse(r)
		}
		files[field] = out
	}

	h.log.Info("upload accepted", "policy", name, "files", res.FileCount(), "request_id", c.Response().Header().Get(echo.HeaderXRequestID))
	return c.JSON(http.StatusCreated, uploadResponse{Policy: name, Files: files, Body: res.Body})
}

// HandleRemoteUpload fetches the image at imgUrl (form, JSON or query) and
// validates it like an uploaded file.
// POST /api/uploads/remote
func (h *UploadHandlerImpl) HandleRemoteUpload(c echo.Context) error {
	var req remoteUploadRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body")
	}
	req.ImgURL = strings.TrimSpace(req.ImgURL)
	if req.ImgURL == "" {
		return NewBadRequestError("imgUrl is required")
	}

	policyName := req.Policy
	if policyName == "" {
		policyName = c.QueryParam("policy")
	}
	name, validator, err := h.resolvePolicy(policyName)
	if err != nil {
		return err
	}

	rec, err := h.deps.Fetcher.FetchAsFile(c.Request().Context(), req.ImgURL, h.deps.RemoteMaxBytes)
	if err != nil {
		return err
	}
	if validator != nil {
		if err := rec.Validate(validator); err != nil {
			return err
		}
	}

	h.log.Info("remote upload accepted", "policy", name, "filename", rec.Filename, "mime", rec.MimeType)
	return c.JSON(http.StatusCreated, remoteUploadResponse{Policy: name, File: newFileResponse(rec)})
}

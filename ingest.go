package uploadkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/gobeaver/uploadkit/filevalidator"
)

const (
	// DefaultMaxFiles is the file count ceiling when IngestOptions.MaxFiles is unset.
	DefaultMaxFiles = 1

	// DefaultMaxFieldSize bounds a single plain field value.
	DefaultMaxFieldSize = 1 << 20
)

// IngestOptions configures one ingestion. The zero value accepts a single
// file of any size with no validation.
type IngestOptions struct {
	// GlobalFileSizeLimit is the per-file byte ceiling enforced while
	// streaming. Zero means unlimited.
	GlobalFileSizeLimit int64

	// MaxFiles caps the number of file parts. Values <= 0 mean DefaultMaxFiles.
	MaxFiles int

	// MaxFieldSize caps a single plain field value. Zero means DefaultMaxFieldSize.
	MaxFieldSize int64

	// Validators run against every completed file, in order.
	Validators []filevalidator.Validator

	// ArrayKeys names plain fields coerced with ToStringArray.
	ArrayKeys []string

	// Logger receives session diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

func (o IngestOptions) maxFiles() int {
	if o.MaxFiles <= 0 {
		return DefaultMaxFiles
	}
	return o.MaxFiles
}

func (o IngestOptions) maxFieldSize() int64 {
	if o.MaxFieldSize <= 0 {
		return DefaultMaxFieldSize
	}
	return o.MaxFieldSize
}

func (o IngestOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Result is the outcome of a successful ingestion.
type Result struct {
	// Files maps a field name to its records in arrival order.
	Files map[string][]*FileRecord

	// Body holds the plain fields after array coercion.
	Body Body
}

// File returns the first record received under field, or nil.
func (r *Result) File(field string) *FileRecord {
	if files := r.Files[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}

// FileCount returns the number of records across all fields.
func (r *Result) FileCount() int {
	n := 0
	for _, files := range r.Files {
		n += len(files)
	}
	return n
}

// Ingester runs the multipart pipeline with a fixed set of options. It holds
// no per-request state and is safe for concurrent use.
type Ingester struct {
	opts IngestOptions
}

// NewIngester creates an Ingester.
func NewIngester(opts IngestOptions) *Ingester {
	return &Ingester{opts: opts}
}

// Options returns the options the Ingester was created with.
func (in *Ingester) Options() IngestOptions {
	return in.opts
}

// Ingest consumes the request body. See IngestReader.
func (in *Ingester) Ingest(ctx context.Context, r *http.Request) (*Result, error) {
	return IngestReader(ctx, r.Body, r.Header.Get("Content-Type"), in.opts)
}

// Ingest consumes the multipart body of r. See IngestReader.
func Ingest(ctx context.Context, r *http.Request, opts IngestOptions) (*Result, error) {
	return IngestReader(ctx, r.Body, r.Header.Get("Content-Type"), opts)
}

// IngestReader consumes a multipart/form-data body exactly once, one part at
// a time. File parts are read no further than one byte past the size
// ceiling, validated, and collected per field; plain fields are collected
// with last-write-wins. Any failure aborts the whole ingestion: the body is
// closed when it is an io.Closer and no partial result is returned.
func IngestReader(ctx context.Context, body io.Reader, contentType string, opts IngestOptions) (*Result, error) {
	if !IsMultipart(contentType) {
		return nil, invalidInput("ingest", "request is not multipart/form-data", nil)
	}
	_, params, _ := mime.ParseMediaType(contentType)

	s := &session{
		id:    uuid.NewString(),
		opts:  opts,
		log:   opts.logger(),
		body:  newBody(),
		files: make(map[string][]*FileRecord),
	}
	s.log.Debug("ingest started", "session", s.id, "max_files", opts.maxFiles(),
		"file_limit", humanLimit(opts.GlobalFileSizeLimit))

	mr := multipart.NewReader(body, params["boundary"])
	for {
		if err := ctx.Err(); err != nil {
			return nil, s.abort(body, err)
		}

		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, s.abort(body, s.translate(err))
		}

		if part.FileName() == "" {
			err = s.field(ctx, part)
		} else {
			err = s.file(ctx, part)
		}
		if err != nil {
			return nil, s.abort(body, err)
		}
	}

	s.body.coerceArrayKeys(opts.ArrayKeys)
	s.log.Debug("ingest finished", "session", s.id, "files", s.count, "fields", len(s.body.Values)+len(s.body.Arrays))

	return &Result{Files: s.files, Body: s.body}, nil
}

// session is the per-request accumulator. It never outlives IngestReader.
type session struct {
	id    string
	opts  IngestOptions
	log   *slog.Logger
	body  Body
	files map[string][]*FileRecord
	count int
}

func (s *session) field(ctx context.Context, part *multipart.Part) error {
	limit := s.opts.maxFieldSize()
	data, err := newCappedReader(ctx, part, limit).readAll(0)
	if err != nil {
		if errors.Is(err, errCapExceeded) {
			return invalidInput("ingest", fmt.Sprintf("field %q exceeds maximum length of %s", part.FormName(), formatLimit(limit)), nil)
		}
		return s.translate(err)
	}
	s.body.Values[part.FormName()] = string(data)
	return nil
}

func (s *session) file(ctx context.Context, part *multipart.Part) error {
	if limit := s.opts.maxFiles(); s.count >= limit {
		s.log.Info("ingest rejected: too many files", "session", s.id, "max_files", limit)
		return tooManyFiles("ingest", limit)
	}

	cr := newCappedReader(ctx, part, s.opts.GlobalFileSizeLimit)
	buf, err := cr.readAll(0)
	if err != nil {
		if errors.Is(err, errCapExceeded) {
			s.log.Info("ingest rejected: file too large", "session", s.id, "field", part.FormName(),
				"limit", humanLimit(s.opts.GlobalFileSizeLimit))
			return tooLarge("ingest", s.opts.GlobalFileSizeLimit, nil)
		}
		return s.translate(err)
	}

	mimeType := NormalizeMediaType(part.Header.Get("Content-Type"))
	if mimeType == "" {
		mimeType = MIMEOctetStream
	}
	rec := NewFileRecord(buf, SanitizeFilename(part.FileName()), mimeType, part.FormName())

	for _, v := range s.opts.Validators {
		if err := v.Validate(rec); err != nil {
			s.log.Info("ingest rejected: validation failed", "session", s.id, "field", rec.FieldName, "error", err)
			return validationFailed("ingest", err)
		}
	}

	s.files[rec.FieldName] = append(s.files[rec.FieldName], rec)
	s.count++
	s.log.Debug("file accepted", "session", s.id, "field", rec.FieldName, "filename", rec.Filename,
		"mime", rec.MimeType, "size", humanize.IBytes(uint64(rec.Size)))
	return nil
}

// translate maps transport errors onto the error taxonomy.
func (s *session) translate(err error) error {
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe):
		limit := s.opts.GlobalFileSizeLimit
		if limit <= 0 {
			limit = mbe.Limit
		}
		return tooLarge("ingest", limit, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return invalidInput("ingest", "malformed multipart body", err)
	}
}

// abort releases the body and drops everything accumulated so far.
func (s *session) abort(body io.Reader, err error) error {
	if c, ok := body.(io.Closer); ok {
		_ = c.Close()
	}
	s.files = nil
	s.log.Debug("ingest aborted", "session", s.id, "files_seen", s.count, "error", err)
	return err
}

func humanLimit(n int64) string {
	if n <= 0 {
		return "unlimited"
	}
	return humanize.IBytes(uint64(n))
}

package uploadkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/semaphore"

	"github.com/gobeaver/uploadkit/filevalidator"
)

const (
	// DefaultFetchTimeout bounds a whole fetch: resolution, connect,
	// redirects and body read.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultMaxRedirects bounds the redirect chain.
	DefaultMaxRedirects = 5

	// DefaultRemoteMaxBytes applies when FetchAsFile is given no ceiling.
	DefaultRemoteMaxBytes = 10 * filevalidator.MB

	defaultUserAgent = "uploadkit-fetcher/1.0"
)

// FetcherOptions configures a Fetcher. The zero value is usable.
type FetcherOptions struct {
	// Timeout bounds each fetch. Zero means DefaultFetchTimeout.
	Timeout time.Duration

	// MaxRedirects bounds the redirect chain. Zero means
	// DefaultMaxRedirects; negative disables redirects.
	MaxRedirects int

	// MaxConcurrent bounds simultaneous fetches. Zero means unbounded.
	MaxConcurrent int64

	// DefaultMaxBytes is used when FetchAsFile is called with maxBytes <= 0.
	// Zero means DefaultRemoteMaxBytes.
	DefaultMaxBytes int64

	// UserAgent is sent with every request.
	UserAgent string

	// Resolver looks up hostnames. Nil means net.DefaultResolver.
	Resolver Resolver

	// AllowIP decides which addresses may be contacted. Nil means PublicOnly.
	AllowIP IPFilter

	// Transport replaces the guarded dialer. Host checks before the request
	// and on every redirect still apply.
	Transport http.RoundTripper

	// Logger receives diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Fetcher downloads remote images as FileRecords with SSRF protection. It is
// safe for concurrent use.
type Fetcher struct {
	opts   FetcherOptions
	guard  hostGuard
	client *http.Client
	sem    *semaphore.Weighted
	log    *slog.Logger
}

// NewFetcher creates a Fetcher, filling unset options with defaults.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.DefaultMaxBytes <= 0 {
		opts.DefaultMaxBytes = DefaultRemoteMaxBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Resolver == nil {
		opts.Resolver = net.DefaultResolver
	}
	if opts.AllowIP == nil {
		opts.AllowIP = PublicOnly
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	f := &Fetcher{
		opts:  opts,
		guard: hostGuard{resolver: opts.Resolver, allow: opts.AllowIP, log: opts.Logger},
		log:   opts.Logger,
	}
	if opts.MaxConcurrent > 0 {
		f.sem = semaphore.NewWeighted(opts.MaxConcurrent)
	}

	transport := opts.Transport
	if transport == nil {
		transport = f.guardedTransport()
	}
	f.client = &http.Client{Transport: transport, CheckRedirect: f.checkRedirect}
	return f
}

// guardedTransport dials only addresses the guard accepts and never uses a
// proxy, since a proxy would hide the real peer from the check.
func (f *Fetcher) guardedTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   f.opts.Timeout,
		KeepAlive: 30 * time.Second,
		Control:   f.guard.control,
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = nil
	t.DialContext = dialer.DialContext
	return t
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if f.opts.MaxRedirects < 0 || len(via) > f.opts.MaxRedirects {
		return fetchFailed("fetch", "too many redirects", 0, nil)
	}
	if err := checkScheme(req.URL); err != nil {
		return err
	}
	return f.guard.check(req.Context(), req.URL.Hostname())
}

func checkScheme(u *url.URL) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return nil
	default:
		return invalidInput("fetch", "image URL must use http or https", nil)
	}
}

var defaultFetcher = sync.OnceValue(func() *Fetcher {
	return NewFetcher(FetcherOptions{})
})

// FetchAsFile fetches rawURL with a Fetcher using default options.
func FetchAsFile(ctx context.Context, rawURL string, maxBytes int64) (*FileRecord, error) {
	return defaultFetcher().FetchAsFile(ctx, rawURL, maxBytes)
}

// FetchAsFile downloads rawURL as if it had been uploaded. The host is
// resolved and checked before any request is made; the body is read no
// further than one byte past maxBytes. The returned record's FieldName is
// FieldNameFromURL and its MimeType prefers the sniffed type.
func (f *Fetcher) FetchAsFile(ctx context.Context, rawURL string, maxBytes int64) (*FileRecord, error) {
	if maxBytes <= 0 {
		maxBytes = f.opts.DefaultMaxBytes
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return nil, invalidInput("fetch", "invalid image URL", err)
	}
	if err := checkScheme(u); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	if err := f.guard.check(ctx, u.Hostname()); err != nil {
		return nil, err
	}

	if f.sem != nil {
		if err := f.sem.Acquire(ctx, 1); err != nil {
			return nil, fetchFailed("fetch", "timed out waiting for a fetch slot", 0, err)
		}
		defer f.sem.Release(1)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, invalidInput("fetch", "invalid image URL", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "image/*,*/*;q=0.8")

	started := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.requestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fetchFailed("fetch", fmt.Sprintf("remote server responded with status %d", resp.StatusCode), resp.StatusCode, nil)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, fetchFailed("fetch", "remote server returned an empty body", resp.StatusCode, nil)
	}
	if resp.ContentLength > maxBytes {
		f.log.Info("fetch rejected: declared length over limit", "host", u.Hostname(),
			"length", humanize.IBytes(uint64(resp.ContentLength)), "limit", humanize.IBytes(uint64(maxBytes)))
		return nil, tooLarge("fetch", maxBytes, nil)
	}

	buf, err := newCappedReader(ctx, resp.Body, maxBytes).readAll(resp.ContentLength)
	if err != nil {
		switch {
		case errors.Is(err, errCapExceeded):
			f.log.Info("fetch rejected: body over limit", "host", u.Hostname(), "limit", humanize.IBytes(uint64(maxBytes)))
			return nil, tooLarge("fetch", maxBytes, nil)
		case ctx.Err() != nil:
			return nil, fetchFailed("fetch", "timed out fetching image", resp.StatusCode, ctx.Err())
		default:
			return nil, fetchFailed("fetch", "failed reading image body", resp.StatusCode, err)
		}
	}
	if len(buf) == 0 {
		return nil, fetchFailed("fetch", "remote server returned an empty body", resp.StatusCode, nil)
	}

	sig := filevalidator.Sniff(buf)
	mimeType := sig.MIME
	if mimeType == "" {
		mimeType = NormalizeMediaType(resp.Header.Get("Content-Type"))
	}
	if mimeType == "" {
		mimeType = MIMEOctetStream
	}

	filename := remoteFilename(resp.Header.Get("Content-Disposition"), u, sig.Extension)
	rec := NewFileRecord(buf, filename, mimeType, FieldNameFromURL)

	f.log.Debug("fetch completed", "host", u.Hostname(), "filename", rec.Filename, "mime", rec.MimeType,
		"size", humanize.IBytes(uint64(rec.Size)), "elapsed", time.Since(started))
	return rec, nil
}

// requestError maps a failed client.Do onto the error taxonomy.
func (f *Fetcher) requestError(ctx context.Context, err error) error {
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr
	}
	if errors.Is(err, errForbiddenDial) {
		return forbiddenHost("fetch")
	}
	if ctx.Err() != nil {
		return fetchFailed("fetch", "timed out fetching image", 0, ctx.Err())
	}
	return fetchFailed("fetch", "could not fetch image", 0, err)
}

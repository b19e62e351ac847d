// Package uploadkit turns untrusted upload traffic into validated file
// records. It has two entry points that converge on [FileRecord]:
//
//   - [Ingest] consumes a multipart/form-data request part by part,
//     enforcing the per-file byte ceiling and the file count while
//     streaming, and runs every completed file through the configured
//     [filevalidator.Validator] chain.
//   - [Fetcher.FetchAsFile] downloads a remote image as if it had been
//     uploaded, refusing hosts that resolve to loopback, private or
//     otherwise internal addresses.
//
// File types are always established from content via [filevalidator.Sniff];
// declared MIME types and filenames are kept as metadata only.
//
// # Ingesting a Request
//
//	images := filevalidator.ForImages().MustBuild()
//
//	res, err := uploadkit.Ingest(r.Context(), r, uploadkit.IngestOptions{
//	    GlobalFileSizeLimit: 10 * filevalidator.MB,
//	    MaxFiles:            4,
//	    Validators:          []filevalidator.Validator{images},
//	    ArrayKeys:           []string{"tags"},
//	})
//	if err != nil {
//	    // errors.Is(err, uploadkit.ErrTooLarge), ErrTooManyFiles, ...
//	}
//	photo := res.File("photo")
//	tags := res.Body.Array("tags")
//
// Ingestion never returns partial results: the first failure aborts the
// request and is the only error reported.
//
// # Fetching a Remote Image
//
//	f := uploadkit.NewFetcher(uploadkit.FetcherOptions{MaxConcurrent: 8})
//	rec, err := f.FetchAsFile(ctx, "https://example.com/cat.png", 5*filevalidator.MB)
//
// The host is resolved and every address checked before a request is
// issued. The dialer repeats the check for each connection, so redirects
// and DNS rebinding cannot reach an internal address either.
//
// # Errors
//
// Every failure wraps one of [ErrInvalidInput], [ErrTooLarge],
// [ErrTooManyFiles], [ErrForbiddenHost], [ErrFetch] or [ErrValidation] in an
// [Error] whose Message is safe to return to the client.
//
// # Configuration
//
// [GetConfig] loads [Config] from the environment:
//
//	BEAVER_UPLOADKIT_MAX_FILE_SIZE=10485760
//	BEAVER_UPLOADKIT_MAX_FILES=10
//	BEAVER_UPLOADKIT_ARRAY_KEYS=tags,categories
//	BEAVER_UPLOADKIT_REMOTE_MAX_BYTES=5242880
//	BEAVER_UPLOADKIT_POLICY_FILE=./policies.yaml
package uploadkit

// Package filevalidator identifies and validates uploaded file content.
//
// It is standalone: nothing here depends on how the bytes arrived (multipart
// part, remote fetch, local file).
//
// # Signature Sniffing
//
// Sniff looks only at leading bytes and never trusts a filename or a declared
// type:
//
//	sig := filevalidator.Sniff(data)
//	if sig.Known() {
//	    fmt.Println(sig.MIME, sig.Extension) // image/png png
//	}
//
// ProbeImageDimensions decodes only the image header (JPEG, PNG, GIF, WebP,
// BMP, TIFF, SVG). It never fails loudly: an unreadable header reports ok=false.
//
// # Rule Sets
//
// A RuleSet is evaluated in a fixed order and stops at the first failure:
//
//	1. size         MaxFileSize
//	2. declared     FileType against the declared MIME type
//	3. signature    AllowedSignature against the sniffed type (EnforceSignature)
//	4. dimensions   width/height/pixel bounds
//
// Unset rules always pass. A rule set with EnforceSignature but no
// AllowedSignature is rejected by New with an ErrorTypeConfig error.
//
//	v, err := filevalidator.NewBuilder().
//	    MaxSize(10 * filevalidator.MB).
//	    FileType("image/*").
//	    EnforceSignature("image/{png,jpeg}").
//	    Build()
//
//	if err := v.ValidateBytes(data, "image/png"); err != nil {
//	    switch filevalidator.GetErrorType(err) {
//	    case filevalidator.ErrorTypeSize:
//	        // too large
//	    case filevalidator.ErrorTypeSignature:
//	        // content is not what it claims
//	    }
//	}
//
// # Patterns
//
// Type rules take a Pattern. ParsePattern understands exact types
// ("image/png"), globs ("image/*", "image/{png,webp}"), media type groups
// ("document/*") and slash-delimited regular expressions ("/^image\/.+$/").
package filevalidator

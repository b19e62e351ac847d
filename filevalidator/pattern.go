package filevalidator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern matches a MIME type string. Rule sets accept either a literal type
// or a pattern, so both are expressed through this interface.
type Pattern interface {
	Match(mime string) bool
	String() string
}

// ParsePattern turns a textual pattern into a Pattern:
//
//	"image/png"          exact, case-insensitive
//	"image/*"            glob (any of * ? [ { present)
//	"document/*"         a MediaTypeGroup, matched by membership
//	"/^image\/(png)$/"   regular expression between slashes
func ParsePattern(s string) (Pattern, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty pattern")
	}

	if len(s) > 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
		re, err := regexp.Compile(s[1 : len(s)-1])
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", s, err)
		}
		return Regexp(re), nil
	}

	// Groups such as "document/*" are not real top-level types and cannot be globbed.
	if members, ok := mediaTypeGroups[MediaTypeGroup(strings.ToLower(s))]; ok {
		return groupPattern{name: strings.ToLower(s), members: members}, nil
	}

	if strings.ContainsAny(s, "*?[{") {
		g, err := glob.Compile(strings.ToLower(s))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", s, err)
		}
		return globPattern{src: s, g: g}, nil
	}

	return Exact(s), nil
}

// MustParsePattern is like ParsePattern but panics on error.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Exact returns a Pattern matching a single MIME type, ignoring case.
func Exact(mime string) Pattern {
	return exactPattern(strings.ToLower(strings.TrimSpace(mime)))
}

// Regexp wraps a compiled regular expression as a Pattern.
func Regexp(re *regexp.Regexp) Pattern {
	return regexpPattern{re: re}
}

type exactPattern string

func (p exactPattern) Match(mime string) bool { return strings.EqualFold(string(p), mime) }
func (p exactPattern) String() string         { return string(p) }

type globPattern struct {
	src string
	g   glob.Glob
}

func (p globPattern) Match(mime string) bool { return p.g.Match(strings.ToLower(mime)) }
func (p globPattern) String() string         { return p.src }

type regexpPattern struct {
	re *regexp.Regexp
}

func (p regexpPattern) Match(mime string) bool { return p.re.MatchString(mime) }
func (p regexpPattern) String() string         { return "/" + p.re.String() + "/" }

type groupPattern struct {
	name    string
	members []string
}

func (p groupPattern) Match(mime string) bool {
	for _, m := range p.members {
		if strings.EqualFold(m, mime) {
			return true
		}
	}
	return false
}

func (p groupPattern) String() string { return p.name }

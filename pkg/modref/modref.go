package modref

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matzehuels/httpsvendor/pkg/errors"
)

// URL schemes understood by the crawler.
const (
	SchemeFile  = "file"
	SchemeHTTPS = "https"
	SchemeData  = "data"
)

// Kind classifies a resolved reference.
type Kind int

const (
	// KindBare is a specifier that is neither a URL nor path-like.
	KindBare Kind = iota
	// KindLocal is a file: reference.
	KindLocal
	// KindRemote is an https: reference.
	KindRemote
	// KindData is a data: reference; it is never fetched.
	KindData
	// KindOther is an absolute URL with any other scheme.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	case KindData:
		return "data"
	case KindOther:
		return "other"
	default:
		return "bare"
	}
}

// Ref is an absolute module reference in normalized string form.
type Ref string

// String returns the reference string.
func (r Ref) String() string { return string(r) }

// Scheme returns the lower-case URL scheme of r, or "" if r does not parse.
func (r Ref) Scheme() string {
	if isData(string(r)) {
		return SchemeData
	}
	u, err := url.Parse(string(r))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// Kind classifies r by its scheme.
func (r Ref) Kind() Kind {
	switch r.Scheme() {
	case SchemeFile:
		return KindLocal
	case SchemeHTTPS:
		return KindRemote
	case SchemeData:
		return KindData
	case "":
		return KindBare
	default:
		return KindOther
	}
}

// Path returns the filesystem path of a file: reference.
func (r Ref) Path() (string, error) {
	u, err := url.Parse(string(r))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", r)
	}
	if !strings.EqualFold(u.Scheme, SchemeFile) {
		return "", errors.New(errors.ErrCodeUnsupportedScheme, "%s is not a file: reference", r)
	}
	p := u.Path
	if len(p) > 2 && p[0] == '/' && p[2] == ':' {
		p = p[1:] // /C:/x
	}
	return filepath.FromSlash(p), nil
}

// FromPath converts a filesystem path into a file: reference. Relative paths
// are made absolute against base.
func FromPath(base, p string) Ref {
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	u := url.URL{Scheme: SchemeFile, Path: filepath.ToSlash(filepath.Clean(p))}
	if !strings.HasPrefix(u.Path, "/") {
		// Windows drive paths: file:///C:/x
		u.Path = "/" + u.Path
	}
	return Ref(u.String())
}

// DirRef returns the file: URL of directory dir with a trailing slash, the
// form used for scope keys.
func DirRef(dir string) Ref {
	r := FromPath("", dir)
	if strings.HasSuffix(string(r), "/") {
		return r
	}
	return r + "/"
}

// Parse parses an absolute URL reference and normalizes it.
func Parse(raw string) (Ref, error) {
	u, err := parseAbsolute(raw)
	if err != nil {
		return "", err
	}
	return Ref(u.String()), nil
}

// Entry resolves a command-line entry argument. Absolute URLs are used as
// is; anything else is a filesystem path relative to cwd.
func Entry(arg, cwd string) (Ref, error) {
	if arg == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "entry module is required")
	}
	if !filepath.IsAbs(arg) {
		if u, err := parseAbsolute(arg); err == nil {
			return Ref(u.String()), nil
		}
	}
	if err := errors.ValidatePath(arg); err != nil {
		return "", err
	}
	return FromPath(cwd, arg), nil
}

// pathLike matches specifiers that name files rather than packages:
// "/x", "./x", "../x" and their backslash forms.
var pathLike = regexp.MustCompile(`^\.?\.?[/\\]`)

// IsPathLike reports whether specifier names a filesystem path.
func IsPathLike(specifier string) bool {
	return filepath.IsAbs(specifier) || pathLike.MatchString(specifier)
}

// Resolve resolves specifier against the module parent that contains it.
//
// The returned Kind is [KindBare] (with an empty Ref) when the specifier
// cannot be resolved without a package resolution algorithm. Resolving a
// non-https:, non-data: target from an https: parent fails with
// SECURITY_VIOLATION.
func Resolve(specifier string, parent Ref) (Ref, Kind, error) {
	parentURL, err := url.Parse(string(parent))
	if err != nil {
		return "", KindBare, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse module reference %s", parent)
	}
	fromRemote := strings.EqualFold(parentURL.Scheme, SchemeHTTPS)

	// data: bodies are recorded byte for byte; url.Parse would re-escape
	// them or reject stray percent signs.
	if isData(specifier) {
		return Ref(specifier), KindData, nil
	}

	if u, err := parseAbsolute(specifier); err == nil {
		ref := Ref(u.String())
		kind := ref.Kind()
		if fromRemote && kind != KindRemote && kind != KindData {
			return "", kind, securityViolation(ref, parent)
		}
		return ref, kind, nil
	}

	if !IsPathLike(specifier) {
		return "", KindBare, nil
	}

	if fromRemote {
		u, err := parentURL.Parse(specifier)
		if err != nil {
			return "", KindBare, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %q from %s", specifier, parent)
		}
		ref := Ref(normalize(u).String())
		if kind := ref.Kind(); kind != KindRemote && kind != KindData {
			return "", kind, securityViolation(ref, parent)
		}
		return ref, ref.Kind(), nil
	}

	parentPath, err := parent.Path()
	if err != nil {
		return "", KindBare, err
	}
	ref := FromPath(filepath.Dir(parentPath), filepath.FromSlash(specifier))
	return ref, KindLocal, nil
}

// ResolveLocation resolves an HTTP Location header value against the URL of
// the response that carried it. Redirects may only lead to https: URLs.
func ResolveLocation(location string, from Ref) (Ref, error) {
	base, err := url.Parse(string(from))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "parse module reference %s", from)
	}
	u, err := base.Parse(location)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "invalid redirect location %q from %s", location, from)
	}
	ref := Ref(normalize(u).String())
	if ref.Kind() != KindRemote {
		return "", securityViolation(ref, from)
	}
	return ref, nil
}

func securityViolation(target, parent Ref) error {
	return errors.New(errors.ErrCodeSecurityViolation,
		"https: modules cannot resolve %s due to security concerns (from %s)", target, parent)
}

func isData(s string) bool {
	return len(s) > len(SchemeData) && s[len(SchemeData)] == ':' && strings.EqualFold(s[:len(SchemeData)], SchemeData)
}

// parseAbsolute accepts only URLs with a scheme. Single-letter schemes are
// rejected so that Windows drive paths ("C:\x") stay paths.
func parseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if len(u.Scheme) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%q is not an absolute URL", raw)
	}
	return normalize(u), nil
}

// normalize lower-cases scheme and host and removes dot segments from
// hierarchical URLs, so equal modules compare equal as strings.
func normalize(u *url.URL) *url.URL {
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Opaque != "" || (u.Scheme != SchemeHTTPS && u.Scheme != SchemeFile) {
		return u
	}
	u.Host = strings.ToLower(u.Host)
	n := u.ResolveReference(&url.URL{})
	n.Fragment, n.RawFragment = u.Fragment, u.RawFragment
	return n
}

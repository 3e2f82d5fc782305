package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/matzehuels/httpsvendor/pkg/buildinfo"
	"github.com/matzehuels/httpsvendor/pkg/errors"
	"github.com/matzehuels/httpsvendor/pkg/httputil"
	"github.com/matzehuels/httpsvendor/pkg/modref"
	"github.com/matzehuels/httpsvendor/pkg/observability"
)

// DefaultTimeout bounds a single request, body included.
const DefaultTimeout = 30 * time.Second

const acceptHeader = "text/javascript, application/javascript;q=0.9, */*;q=0.1"

var javaScriptMIME = regexp.MustCompile(`(?i)^(?:text|application)/(?:javascript|ecmascript)(?:;[\s\S]+)?$`)

// IsJavaScriptMIME reports whether a Content-Type header value names a
// JavaScript media type.
func IsJavaScriptMIME(contentType string) bool {
	return javaScriptMIME.MatchString(contentType)
}

// Integrity returns the subresource integrity string for body.
func Integrity(body []byte) string {
	sum := sha256.Sum256(body)
	return "sha256-" + base64.StdEncoding.EncodeToString(sum[:])
}

// Response is the outcome of one GET.
type Response struct {
	URL         modref.Ref
	Status      int
	Location    string // raw Location header, set for redirects
	ContentType string
	Body        []byte
	Integrity   string
}

// IsRedirect reports whether the response is a redirect to Location.
func (r *Response) IsRedirect() bool {
	return isRedirect(r.Status)
}

// Options configures a Client.
type Options struct {
	// Timeout bounds each request (default: 30s).
	Timeout time.Duration
	// Retries is the number of extra attempts for transient failures
	// (default: 0, fail on the first error).
	Retries int
	// RetryDelay is the initial backoff between attempts (default: 1s).
	RetryDelay time.Duration
	// UserAgent is sent with every request (default: httpsvendor/<version>).
	UserAgent string
	// HTTPClient is used as a template for the transport (default:
	// http.DefaultClient). Its redirect policy is replaced.
	HTTPClient *http.Client
}

// Client fetches remote modules.
type Client struct {
	http      *http.Client
	retries   int
	delay     time.Duration
	userAgent string
}

// NewClient creates a Client. Redirects are never followed by the
// underlying http.Client; they are returned to the caller.
func NewClient(opts Options) *Client {
	hc := http.Client{}
	if opts.HTTPClient != nil {
		hc = *opts.HTTPClient
	}
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	if opts.Timeout > 0 {
		hc.Timeout = opts.Timeout
	} else if hc.Timeout == 0 {
		hc.Timeout = DefaultTimeout
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = buildinfo.UserAgent()
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &Client{http: &hc, retries: max(opts.Retries, 0), delay: delay, userAgent: ua}
}

// Get retrieves ref. A redirect is returned as a Response with Location set
// and no body. Any other non-2xx status, a transport failure or a
// non-JavaScript content type is an error.
func (c *Client) Get(ctx context.Context, ref modref.Ref) (*Response, error) {
	if ref.Kind() != modref.KindRemote {
		return nil, errors.New(errors.ErrCodeUnsupportedScheme, "cannot fetch %s: only https: is supported", ref)
	}

	var resp *Response
	err := httputil.Retry(ctx, c.retries+1, c.delay, func() error {
		r, err := c.do(ctx, ref)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, ref modref.Ref) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.String(), nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request for %s", ref)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", c.userAgent)

	host, path := req.URL.Host, req.URL.Path
	observability.HTTP().OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	hr, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, host, path, err)
		return nil, transportError(ref, err)
	}
	defer hr.Body.Close()
	observability.HTTP().OnResponse(ctx, req.Method, host, path, hr.StatusCode, time.Since(start))

	resp := &Response{
		URL:         ref,
		Status:      hr.StatusCode,
		ContentType: hr.Header.Get("Content-Type"),
	}

	switch {
	case isRedirect(hr.StatusCode):
		resp.Location = hr.Header.Get("Location")
		if resp.Location == "" {
			return nil, errors.New(errors.ErrCodeNetwork, "%s: redirect status %d without Location", ref, hr.StatusCode)
		}
		return resp, nil
	case hr.StatusCode >= 500 || hr.StatusCode == http.StatusTooManyRequests:
		after := httputil.ParseRetryAfter(hr.Header.Get("Retry-After"), time.Now())
		return nil, httputil.TransientAfter(errors.New(errors.ErrCodeNetwork, "%s: status %d", ref, hr.StatusCode), after)
	case hr.StatusCode < 200 || hr.StatusCode > 299:
		return nil, errors.New(errors.ErrCodeNetwork, "%s: status %d", ref, hr.StatusCode)
	}

	if !IsJavaScriptMIME(resp.ContentType) {
		return nil, errors.New(errors.ErrCodeContentType, "unknown content type %q for %s", resp.ContentType, ref)
	}

	body, err := io.ReadAll(hr.Body)
	if err != nil {
		return nil, transportError(ref, err)
	}
	resp.Body = body
	resp.Integrity = Integrity(body)
	return resp, nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// transportError classifies a failed request. Cancellation is returned
// unchanged; timeouts and other failures are marked transient.
func transportError(ref modref.Ref, err error) error {
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return httputil.Transient(errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", ref))
	}
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return httputil.Transient(errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", ref))
}

// String implements fmt.Stringer for log output.
func (r *Response) String() string {
	if r.IsRedirect() {
		return fmt.Sprintf("%s -> %d %s", r.URL, r.Status, r.Location)
	}
	return fmt.Sprintf("%s -> %d %s (%d bytes)", r.URL, r.Status, r.ContentType, len(r.Body))
}

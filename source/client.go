// Package source has the default collaborators of the map loader:
// an http fetch helper, a security manager, the portal client and
// the SQL feature query service client.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Options are the per request options.
type Options struct {
	// WithCredentials sends and keeps the portal session cookies.
	WithCredentials bool
}

// Response is a fully read http response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body into v. An html page, usually a login or error
// page, is reported with its title.
func (r *Response) JSON(v interface{}) error {
	if r.isHTML() {
		return errors.Errorf("source: expected json, got html page %q", r.title())
	}

	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrap(err, "source: invalid json")
	}

	return nil
}

func (r *Response) isHTML() bool {
	if strings.Contains(r.Header.Get("Content-Type"), "text/html") {
		return true
	}

	body := bytes.TrimSpace(r.Body)
	return len(body) > 0 && body[0] == '<'
}

func (r *Response) title() string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(doc.Find("title").First().Text())
}

// Client is the fetch helper. Requests are rate limited and the
// registered tokens and keys are added to matching urls.
type Client struct {
	http        *http.Client
	credentials *http.Client
	limiter     *rate.Limiter
	security    *Security
	logger      *slog.Logger
}

// A ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets the client used for requests without credentials.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithRateLimit allows rps requests per second, zero or less is unlimited.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(cl *Client) {
		if rps <= 0 {
			cl.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}

		if burst < 1 {
			burst = 1
		}
		cl.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithSecurity sets the security manager.
func WithSecurity(s *Security) ClientOption {
	return func(cl *Client) {
		cl.security = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = l
	}
}

// DefaultTimeout is the request timeout of the default http client.
const DefaultTimeout = 30 * time.Second

// NewClient creates a fetch helper. By default it allows
// 10 requests per second with a burst of 10.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:     &http.Client{Timeout: DefaultTimeout},
		limiter:  rate.NewLimiter(10, 10),
		security: NewSecurity(),
		logger:   slog.Default(),
	}

	for _, o := range opts {
		o(c)
	}

	jar, _ := cookiejar.New(nil)
	c.credentials = &http.Client{
		Transport: c.http.Transport,
		Timeout:   c.http.Timeout,
		Jar:       jar,
	}

	return c
}

// Security returns the security manager of the client.
func (c *Client) Security() *Security {
	return c.security
}

// Get requests the url with the params added to its query.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, opts Options) (*Response, error) {
	u, err := c.buildURL(rawURL, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "source: creating request")
	}

	return c.do(ctx, req, opts)
}

// Post sends the body as json.
func (c *Client) Post(ctx context.Context, rawURL string, body interface{}, opts Options) (*Response, error) {
	u, err := c.buildURL(rawURL, nil)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "source: encoding body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "source: creating request")
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(ctx, req, opts)
}

func (c *Client) buildURL(rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "source: invalid url")
	}

	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	return c.security.Apply(u.String()), nil
}

func (c *Client) do(ctx context.Context, req *http.Request, opts Options) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "source: rate limiter")
	}

	hc := c.http
	if opts.WithCredentials {
		hc = c.credentials
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "source: %s %s", req.Method, req.URL.Redacted())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "source: reading body")
	}

	c.logger.Debug("fetched",
		slog.String("method", req.Method),
		slog.String("url", req.URL.Redacted()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("took", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.Errorf("source: %s %s: status %d", req.Method, req.URL.Redacted(), resp.StatusCode)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

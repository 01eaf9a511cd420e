package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/plantdoc/internal/acquire"
)

// Default endpoint paths of the diagnosis backend.
const (
	DefaultPredictPath = "/predict"
	DefaultExplainPath = "/explain"
	DefaultChatPath    = "/chat"

	// FileField is the multipart field name carrying the image.
	FileField = "file"
)

const (
	// defaultTimeout bounds a single request. CPU inference plus a Grad-CAM
	// pass can take several seconds on a laptop backend.
	defaultTimeout = 30 * time.Second

	// maxResponseSize bounds how much of a response body is decoded. A
	// heatmap is a base64 JPEG of a 224x224 image, well under this.
	maxResponseSize = 16 * 1024 * 1024

	// maxErrorBodySize bounds the body excerpt kept in a StatusError.
	maxErrorBodySize = 512
)

// Client talks to the diagnosis backend. It is safe for concurrent use.
//
// Design decision: The client does not retry. A failed predict call becomes
// a connectivity record right away and a failed explain call is dropped.
// Retrying would only stretch the time a user stares at a scanning screen.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	predictPath  string
	explainPath  string
	chatPath     string
	userAgent    string
	headers      map[string]string
	proxyAddress string
	timeout      time.Duration
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Proxy and timeout options are
// ignored when a client is supplied.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithProxy routes requests through a SOCKS5 proxy at "host:port".
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHeaders adds headers to every request, e.g. an API key expected by a
// reverse proxy in front of the backend.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithPaths overrides the endpoint paths. Empty values keep the default.
func WithPaths(predict, explain, chat string) Option {
	return func(c *Client) {
		if predict != "" {
			c.predictPath = predict
		}
		if explain != "" {
			c.explainPath = explain
		}
		if chat != "" {
			c.chatPath = chat
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the backend at baseURL, e.g.
// "http://127.0.0.1:8000".
//
// This function validates the URL and proxy address but does not contact
// the backend. A backend that is down is a normal condition the session
// reports as a record, not a construction error.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidBaseURL
	}

	c := &Client{
		baseURL:     u,
		predictPath: DefaultPredictPath,
		explainPath: DefaultExplainPath,
		chatPath:    DefaultChatPath,
		timeout:     defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.httpClient == nil {
		var dialer proxy.Dialer
		if c.proxyAddress != "" {
			if !isValidProxyAddress(c.proxyAddress) {
				return nil, ErrInvalidProxyAddress
			}
			dialer, err = proxy.SOCKS5("tcp", c.proxyAddress, nil, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
			}
		}
		c.httpClient = newHTTPClient(dialer, c.timeout)
	}

	if c.userAgent != "" || len(c.headers) > 0 {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped := *c.httpClient
		wrapped.Transport = &headerInjectingTransport{
			base:      base,
			userAgent: c.userAgent,
			headers:   c.headers,
		}
		c.httpClient = &wrapped
	}

	return c, nil
}

// newHTTPClient creates the default HTTP client. When dialer is non-nil all
// connections go through it.
func newHTTPClient(dialer proxy.Dialer, timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}
	if dialer != nil {
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// isValidProxyAddress checks if the address is in valid "host:port" format.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" || port == "" {
		return false
	}
	portNum := 0
	for _, c := range port {
		if c < '0' || c > '9' {
			return false
		}
		portNum = portNum*10 + int(c-'0')
		if portNum > 65535 {
			return false
		}
	}
	return portNum >= 1
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ProxyAddress returns the configured SOCKS5 proxy, or "" when direct.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// Predict sends img to the predict endpoint and decodes the envelope.
// A non-2xx status returns a *StatusError.
func (c *Client) Predict(ctx context.Context, img *acquire.Image) (*PredictResponse, error) {
	var out PredictResponse
	if err := c.postImage(ctx, c.predictPath, img, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Explain sends img to the explain endpoint and decodes the envelope.
func (c *Client) Explain(ctx context.Context, img *acquire.Image) (*ExplainResponse, error) {
	var out ExplainResponse
	if err := c.postImage(ctx, c.explainPath, img, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat sends a message to the conversational assistant.
func (c *Client) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	body, err := json.Marshal(ChatRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	var out ChatResponse
	if err := c.do(ctx, c.chatPath, "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// postImage posts img as a multipart form with a single "file" field.
func (c *Client) postImage(ctx context.Context, path string, img *acquire.Image, out any) error {
	body, contentType, err := multipartBody(img)
	if err != nil {
		return err
	}
	return c.do(ctx, path, contentType, body, out)
}

// do posts body to path and decodes a 2xx JSON response into out.
func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	endpoint := c.endpoint(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed", "endpoint", path, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrRequestFailed, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend responded",
		"endpoint", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize)) //nolint:errcheck // best effort excerpt
		return &StatusError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, path, err)
	}
	return nil
}

// endpoint joins the base URL and path.
func (c *Client) endpoint(path string) string {
	return c.baseURL.JoinPath(path).String()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody encodes img as multipart/form-data. The part carries the
// sniffed content type rather than application/octet-stream because the
// backend rejects uploads that are not image/*.
func multipartBody(img *acquire.Image) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FileField, quoteEscaper.Replace(img.Name)))
	header.Set("Content-Type", img.ContentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write image to multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// headerInjectingTransport wraps an http.RoundTripper to inject the
// User-Agent and custom headers into every request.
type headerInjectingTransport struct {
	base      http.RoundTripper
	userAgent string
	headers   map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.userAgent != "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}
	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}
	return t.base.RoundTrip(clone)
}

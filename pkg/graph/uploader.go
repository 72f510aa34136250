package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxResponseBody = 64 * 1024
	summaryLength   = 200
)

// Request is a single simple upload.
type Request struct {
	URL   string
	Token string
	Body  io.Reader
	Size  int64 // bytes in Body; negative means unknown
}

// Response is what Graph answered. Any status, including errors, is returned
// as a Response with a nil error.
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Succeeded reports whether the item was created or replaced.
func (r Response) Succeeded() bool {
	return r.StatusCode == http.StatusOK || r.StatusCode == http.StatusCreated
}

// Retryable reports whether the status is transient by HTTP semantics.
func (r Response) Retryable() bool {
	switch r.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return true
	}
	return r.StatusCode >= http.StatusInternalServerError
}

// Text returns the captured response body with invalid UTF-8 replaced. The
// body is capped at 64 KiB, which may split the last character.
func (r Response) Text() string {
	return strings.ToValidUTF8(string(r.Body), "\uFFFD")
}

// Summary returns the response body on one line, cut to 200 bytes at a
// character boundary.
func (r Response) Summary() string {
	s := strings.Join(strings.Fields(r.Text()), " ")
	if len(s) <= summaryLength {
		return s
	}
	cut := summaryLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Uploader PUTs file content to Microsoft Graph. It never retries; the caller
// decides what to do with a failed or rejected upload.
type Uploader struct {
	client     *http.Client
	timeout    time.Duration
	headers    map[string]string
	userAgent  string
	onResponse ResponseHook
}

// NewUploader creates an uploader with a pooled HTTP client and no request
// timeout.
func NewUploader(opts ...Option) *Uploader {
	u := &Uploader{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		headers:   make(map[string]string),
		userAgent: "docrelay/1.0",
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Put streams req.Body to req.URL with a bearer token and an octet-stream
// content type. Transport failures wrap ErrTransport (and ErrTimeout when the
// upload timeout fired).
func (u *Uploader) Put(ctx context.Context, req Request) (Response, error) {
	if err := validate(req); err != nil {
		return Response{}, err
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	resp, err := u.do(ctx, req)
	if u.onResponse != nil {
		u.onResponse(req, resp, err)
	}
	return resp, err
}

func (u *Uploader) do(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	body := req.Body
	if req.Size == 0 {
		body = http.NoBody
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, req.URL, body)
	if err != nil {
		return Response{Duration: time.Since(start)}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if req.Size > 0 {
		httpReq.ContentLength = req.Size
	}

	for k, v := range u.headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("User-Agent", u.userAgent)
	httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := u.client.Do(httpReq)
	if err != nil {
		out := Response{Duration: time.Since(start)}
		if errors.Is(err, context.DeadlineExceeded) {
			return out, fmt.Errorf("%w: %w: %w", ErrTransport, ErrTimeout, err)
		}
		return out, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// the status is already known; a truncated body only affects logs
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	return Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Duration:   time.Since(start),
	}, nil
}

func validate(req Request) error {
	if req.URL == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	if req.Token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidRequest)
	}
	if req.Body == nil && req.Size != 0 {
		return fmt.Errorf("%w: body is required", ErrInvalidRequest)
	}
	return nil
}

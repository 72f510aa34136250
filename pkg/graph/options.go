package graph

import (
	"net/http"
	"time"
)

// ResponseHook is called once per Put, after the response is read or the
// transport failed.
type ResponseHook func(req Request, resp Response, err error)

type Option func(*Uploader)

// WithHTTPClient sets the client used for uploads.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Uploader) {
		if c != nil {
			u.client = c
		}
	}
}

// WithTimeout bounds each Put. Zero leaves the request unbounded apart from
// the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(u *Uploader) {
		if d >= 0 {
			u.timeout = d
		}
	}
}

// WithHeader adds a header to every upload. Authorization and Content-Type
// are always set by Put and cannot be overridden here.
func WithHeader(key, value string) Option {
	return func(u *Uploader) {
		if key != "" && value != "" {
			u.headers[key] = value
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(u *Uploader) {
		if ua != "" {
			u.userAgent = ua
		}
	}
}

// WithOnResponse registers a hook for logging or metrics.
func WithOnResponse(hook ResponseHook) Option {
	return func(u *Uploader) {
		u.onResponse = hook
	}
}

package trigger

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/docrelay/pkg/relay"
)

// invocationRequest is the body the Functions host posts to a custom handler.
type invocationRequest struct {
	Data     map[string]json.RawMessage `json:"Data"`
	Metadata map[string]json.RawMessage `json:"Metadata"`
}

// invocationResponse is what the host expects back.
type invocationResponse struct {
	Outputs     map[string]any `json:"Outputs"`
	Logs        []string       `json:"Logs"`
	ReturnValue resultView     `json:"ReturnValue"`
}

type resultView struct {
	InvocationID string        `json:"invocation_id"`
	Name         string        `json:"name"`
	Archive      string        `json:"archive,omitempty"`
	Outcome      relay.Outcome `json:"outcome"`
	Retryable    bool          `json:"retryable"`
	StatusCode   int           `json:"status_code,omitempty"`
	Response     string        `json:"response,omitempty"`
	Error        string        `json:"error,omitempty"`
	Stages       []relay.Stage `json:"stages"`
	DurationMS   int64         `json:"duration_ms"`
}

func viewOf(res relay.Result) resultView {
	v := resultView{
		InvocationID: res.InvocationID,
		Name:         res.Name,
		Archive:      res.ArchiveName,
		Outcome:      res.Outcome,
		Retryable:    res.Retryable,
		StatusCode:   res.StatusCode,
		Response:     res.ResponseBody,
		Stages:       res.Stages,
		DurationMS:   res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		v.Error = res.Err.Error()
	}
	return v
}

func logLine(res relay.Result) string {
	line := fmt.Sprintf("%s: %s %s", time.Now().UTC().Format(time.RFC3339), res.Outcome, res.Name)
	if res.StatusCode != 0 {
		line += " status=" + strconv.Itoa(res.StatusCode)
	}
	if res.Err != nil {
		line += " error=" + res.Err.Error()
	}
	return line
}

// blobName prefers the full trigger path over the bare {name} segment.
func (r invocationRequest) blobName() (string, error) {
	for _, key := range []string{"BlobTrigger", "name", "Name"} {
		raw, ok := r.Metadata[key]
		if !ok {
			continue
		}
		if s := metadataString(raw); s != "" {
			return s, nil
		}
	}
	return "", ErrMissingName
}

// metadataString decodes a metadata value. Some host versions send strings
// JSON-encoded twice.
func metadataString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}

func (r invocationRequest) content(binding, encoding string) ([]byte, error) {
	raw, ok := r.Data[binding]
	if !ok || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: %s", ErrMissingBinding, binding)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: binding %s is not a string: %v", ErrMalformedRequest, binding, err)
	}

	switch encoding {
	case EncodingText:
		return []byte(s), nil
	case EncodingBase64, "":
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: binding %s is not base64: %v", ErrMalformedRequest, binding, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

// s3Notification is the subset of an S3 event notification the relay reads.
type s3Notification struct {
	Records []struct {
		EventName string `json:"eventName"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key  string `json:"key"`
				Size int64  `json:"size"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// objectKey decodes the form-encoded key S3 puts in notifications.
func objectKey(key string) (string, error) {
	k, err := url.QueryUnescape(key)
	if err != nil {
		return "", fmt.Errorf("%w: object key %q: %v", ErrMalformedRequest, key, err)
	}
	return k, nil
}

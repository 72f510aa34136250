package trigger_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/docrelay/pkg/blob"
	"github.com/dmitrymomot/docrelay/pkg/relay"
	"github.com/dmitrymomot/docrelay/pkg/trigger"
)

type call struct {
	id        string
	name      string
	body      []byte
	size      int64
	aborted   bool
	err       error
	retryable bool
}

// fakeRunner records the events it receives and answers with result.
type fakeRunner struct {
	mu     sync.Mutex
	calls  []call
	result func(ev relay.Event) relay.Result
}

func (f *fakeRunner) Run(ctx context.Context, ev relay.Event) relay.Result {
	body, _ := io.ReadAll(ev.Body)
	id := relay.InvocationIDFromContext(ctx)

	f.mu.Lock()
	f.calls = append(f.calls, call{id: id, name: ev.Name, body: body, size: ev.Size})
	f.mu.Unlock()

	res := relay.Result{InvocationID: id, Name: ev.Name, Outcome: relay.OutcomeSucceeded, StatusCode: http.StatusCreated}
	if f.result != nil {
		res = f.result(ev)
		res.InvocationID = id
	}
	return res
}

func (f *fakeRunner) Abort(ctx context.Context, name string, err error, retryable bool) relay.Result {
	id := relay.InvocationIDFromContext(ctx)

	f.mu.Lock()
	f.calls = append(f.calls, call{id: id, name: name, aborted: true, err: err, retryable: retryable})
	f.mu.Unlock()

	return relay.Result{
		InvocationID: id,
		Name:         name,
		Outcome:      relay.OutcomeAborted,
		Retryable:    retryable,
		Stages:       []relay.Stage{relay.StageStart, relay.StageAborted, relay.StageCleaned},
		Err:          err,
	}
}

func (f *fakeRunner) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

type hostResponse struct {
	Outputs     map[string]any `json:"Outputs"`
	Logs        []string       `json:"Logs"`
	ReturnValue struct {
		InvocationID string   `json:"invocation_id"`
		Name         string   `json:"name"`
		Outcome      string   `json:"outcome"`
		Retryable    bool     `json:"retryable"`
		StatusCode   int      `json:"status_code"`
		Error        string   `json:"error"`
		Stages       []string `json:"stages"`
	} `json:"ReturnValue"`
}

func invocation(t *testing.T, binding string, data any, metadata map[string]any) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"Data":     map[string]any{binding: data},
		"Metadata": metadata,
	})
	require.NoError(t, err)
	return string(b)
}

func post(t *testing.T, h http.Handler, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Invocation(t *testing.T) {
	t.Parallel()

	t.Run("base64 binding", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{}
		h := trigger.New(runner, trigger.DefaultConfig(), trigger.WithIDGenerator(func() string { return "gen-1" })).Router()

		content := []byte("id,amount\n1,10\n")
		body := invocation(t, "myblob", base64.StdEncoding.EncodeToString(content), map[string]any{
			"BlobTrigger": "uploads/reports/report.csv",
			"name":        "report.csv",
		})
		rec := post(t, h, "/blob_trigger_function", body, http.Header{
			trigger.InvocationIDHeader: {"host-invocation-1"},
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp hostResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotNil(t, resp.Outputs)
		require.Len(t, resp.Logs, 1)
		assert.Contains(t, resp.Logs[0], "succeeded uploads/reports/report.csv")
		assert.Equal(t, "host-invocation-1", resp.ReturnValue.InvocationID)
		assert.Equal(t, "succeeded", resp.ReturnValue.Outcome)
		assert.Equal(t, http.StatusCreated, resp.ReturnValue.StatusCode)

		calls := runner.recorded()
		require.Len(t, calls, 1)
		assert.Equal(t, "host-invocation-1", calls[0].id)
		assert.Equal(t, "uploads/reports/report.csv", calls[0].name)
		assert.Equal(t, content, calls[0].body)
		assert.Equal(t, int64(len(content)), calls[0].size)
	})

	t.Run("text binding and generated id", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{}
		cfg := trigger.Config{Function: "relay", Binding: "input", Encoding: trigger.EncodingText}
		h := trigger.New(runner, cfg, trigger.WithIDGenerator(func() string { return "gen-1" })).Router()

		body := invocation(t, "input", "plain text", map[string]any{"name": "notes.txt"})
		rec := post(t, h, "/relay", body, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		calls := runner.recorded()
		require.Len(t, calls, 1)
		assert.Equal(t, "gen-1", calls[0].id)
		assert.Equal(t, "notes.txt", calls[0].name)
		assert.Equal(t, []byte("plain text"), calls[0].body)
	})

	t.Run("double encoded metadata", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{}
		h := trigger.New(runner, trigger.DefaultConfig()).Router()

		body := invocation(t, "myblob", base64.StdEncoding.EncodeToString([]byte("x")), map[string]any{
			"name": `"report.csv"`,
		})
		rec := post(t, h, "/blob_trigger_function", body, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		calls := runner.recorded()
		require.Len(t, calls, 1)
		assert.Equal(t, "report.csv", calls[0].name)
	})

	t.Run("empty blob", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{}
		h := trigger.New(runner, trigger.DefaultConfig()).Router()

		rec := post(t, h, "/blob_trigger_function", invocation(t, "myblob", "", map[string]any{"name": "empty.txt"}), nil)

		require.Equal(t, http.StatusOK, rec.Code)
		calls := runner.recorded()
		require.Len(t, calls, 1)
		assert.Empty(t, calls[0].body)
		assert.Equal(t, int64(0), calls[0].size)
	})
}

func TestHandler_InvocationStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result relay.Result
		status int
	}{
		{"succeeded", relay.Result{Outcome: relay.OutcomeSucceeded, StatusCode: 201}, http.StatusOK},
		{"rejected permanently", relay.Result{Outcome: relay.OutcomeRejected, StatusCode: 403}, http.StatusOK},
		{"rejected retryable", relay.Result{Outcome: relay.OutcomeRejected, StatusCode: 503, Retryable: true}, http.StatusInternalServerError},
		{"failed transport", relay.Result{Outcome: relay.OutcomeFailed, Retryable: true, Err: errors.New("connection reset")}, http.StatusInternalServerError},
		{"aborted bad name", relay.Result{Outcome: relay.OutcomeAborted, Err: relay.ErrInvalidName}, http.StatusOK},
		{"fatal config", relay.FatalResult("", "x", relay.ErrConfig), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			runner := &fakeRunner{result: func(ev relay.Event) relay.Result {
				res := tt.result
				res.Name = ev.Name
				return res
			}}
			h := trigger.New(runner, trigger.DefaultConfig()).Router()

			body := invocation(t, "myblob", base64.StdEncoding.EncodeToString([]byte("x")), map[string]any{"name": "a.txt"})
			rec := post(t, h, "/blob_trigger_function", body, nil)

			assert.Equal(t, tt.status, rec.Code)
			var resp hostResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, string(tt.result.Outcome), resp.ReturnValue.Outcome)
			if tt.result.Err != nil {
				assert.Equal(t, tt.result.Err.Error(), resp.ReturnValue.Error)
			}
		})
	}
}

func TestHandler_InvocationRejected(t *testing.T) {
	t.Parallel()

	valid := base64.StdEncoding.EncodeToString([]byte("x"))
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		errMsg string
	}{
		{
			name:   "unknown function",
			path:   "/other_function",
			body:   `{}`,
			status: http.StatusNotFound,
			errMsg: "unknown function other_function",
		},
		{
			name:   "malformed json",
			path:   "/blob_trigger_function",
			body:   `{"Data":`,
			status: http.StatusBadRequest,
			errMsg: trigger.ErrMalformedRequest.Error(),
		},
		{
			name:   "missing name",
			path:   "/blob_trigger_function",
			body:   `{"Data":{"myblob":"` + valid + `"},"Metadata":{}}`,
			status: http.StatusBadRequest,
			errMsg: trigger.ErrMissingName.Error(),
		},
		{
			name:   "missing binding",
			path:   "/blob_trigger_function",
			body:   `{"Data":{"other":"` + valid + `"},"Metadata":{"name":"a.txt"}}`,
			status: http.StatusBadRequest,
			errMsg: trigger.ErrMissingBinding.Error(),
		},
		{
			name:   "null binding",
			path:   "/blob_trigger_function",
			body:   `{"Data":{"myblob":null},"Metadata":{"name":"a.txt"}}`,
			status: http.StatusBadRequest,
			errMsg: trigger.ErrMissingBinding.Error(),
		},
		{
			name:   "not base64",
			path:   "/blob_trigger_function",
			body:   `{"Data":{"myblob":"%%%"},"Metadata":{"name":"a.txt"}}`,
			status: http.StatusBadRequest,
			errMsg: "not base64",
		},
		{
			name:   "binding not a string",
			path:   "/blob_trigger_function",
			body:   `{"Data":{"myblob":{"k":1}},"Metadata":{"name":"a.txt"}}`,
			status: http.StatusBadRequest,
			errMsg: "not a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			runner := &fakeRunner{}
			h := trigger.New(runner, trigger.DefaultConfig()).Router()

			rec := post(t, h, tt.path, tt.body, nil)

			assert.Equal(t, tt.status, rec.Code)
			var resp map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Contains(t, resp["error"], tt.errMsg)
			assert.Empty(t, runner.recorded(), "runner must not be called")
		})
	}
}

func TestHandler_UnknownEncoding(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	h := trigger.New(runner, trigger.Config{Encoding: "utf-16"}).Router()

	body := invocation(t, "myblob", "x", map[string]any{"name": "a.txt"})
	rec := post(t, h, "/blob_trigger_function", body, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown binding encoding")
	assert.Empty(t, runner.recorded())
}

func TestHandler_BodyTooLarge(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	h := trigger.New(runner, trigger.Config{MaxBody: 64}).Router()

	body := invocation(t, "myblob", base64.StdEncoding.EncodeToString(make([]byte, 256)), map[string]any{"name": "a.bin"})
	rec := post(t, h, "/blob_trigger_function", body, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, runner.recorded())
}

func TestHandler_Events(t *testing.T) {
	t.Parallel()

	newSource := func(t *testing.T) blob.Source {
		t.Helper()
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "reports"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "reports", "q1 report.csv"), []byte("a,b\n"), 0o644))
		src, err := blob.NewLocalSource(dir)
		require.NoError(t, err)
		return src
	}

	notification := `{"Records":[
		{"eventName":"ObjectCreated:Put","s3":{"bucket":{"name":"docs"},"object":{"key":"reports/q1+report.csv","size":4}}},
		{"eventName":"ObjectRemoved:Delete","s3":{"bucket":{"name":"docs"},"object":{"key":"reports/old.csv"}}}
	]}`

	t.Run("relays created objects", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{}
		ids := []string{"ev-1", "ev-2"}
		var mu sync.Mutex
		h := trigger.New(runner, trigger.DefaultConfig(),
			trigger.WithSource(newSource(t)),
			trigger.WithIDGenerator(func() string {
				mu.Lock()
				defer mu.Unlock()
				id := ids[0]
				ids = ids[1:]
				return id
			}),
		).Router()

		rec := post(t, h, "/events", notification, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Results []struct {
				InvocationID string `json:"invocation_id"`
				Name         string `json:"name"`
				Outcome      string `json:"outcome"`
			} `json:"results"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Results, 1, "removal events are skipped")
		assert.Equal(t, "ev-1", resp.Results[0].InvocationID)
		assert.Equal(t, "reports/q1 report.csv", resp.Results[0].Name)
		assert.Equal(t, "succeeded", resp.Results[0].Outcome)

		calls := runner.recorded()
		require.Len(t, calls, 1)
		assert.Equal(t, []byte("a,b\n"), calls[0].body)
		assert.Equal(t, int64(4), calls[0].size)
	})

	t.Run("missing object", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{}
		h := trigger.New(runner, trigger.DefaultConfig(), trigger.WithSource(newSource(t))).Router()

		rec := post(t, h, "/events", `{"Records":[{"eventName":"ObjectCreated:Put","s3":{"object":{"key":"missing.csv"}}}]}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"outcome":"aborted"`)

		calls := runner.recorded()
		require.Len(t, calls, 1, "the failed open is reported through the runner")
		assert.True(t, calls[0].aborted)
		assert.Equal(t, "missing.csv", calls[0].name)
		assert.ErrorIs(t, calls[0].err, blob.ErrObjectNotFound)
		assert.False(t, calls[0].retryable)
	})

	t.Run("undecodable key", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{}
		h := trigger.New(runner, trigger.DefaultConfig(), trigger.WithSource(newSource(t))).Router()

		rec := post(t, h, "/events", `{"Records":[{"eventName":"ObjectCreated:Put","s3":{"object":{"key":"bad%zz"}}}]}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		calls := runner.recorded()
		require.Len(t, calls, 1)
		assert.True(t, calls[0].aborted)
		assert.ErrorIs(t, calls[0].err, trigger.ErrMalformedRequest)
	})

	t.Run("retryable result", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{result: func(ev relay.Event) relay.Result {
			return relay.Result{Name: ev.Name, Outcome: relay.OutcomeRejected, StatusCode: 503, Retryable: true}
		}}
		h := trigger.New(runner, trigger.DefaultConfig(), trigger.WithSource(newSource(t))).Router()

		rec := post(t, h, "/events", notification, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		h := trigger.New(&fakeRunner{}, trigger.DefaultConfig(), trigger.WithSource(newSource(t))).Router()

		rec := post(t, h, "/events", `{"Records":`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no source", func(t *testing.T) {
		t.Parallel()
		h := trigger.New(&fakeRunner{}, trigger.DefaultConfig()).Router()

		rec := post(t, h, "/events", notification, nil)

		assert.Equal(t, http.StatusNotImplemented, rec.Code)
		assert.Contains(t, rec.Body.String(), trigger.ErrNoSource.Error())
	})
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()

	get := func(h http.Handler, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	failing := errors.New("scratch dir missing")
	ready := true
	h := trigger.New(&fakeRunner{}, trigger.DefaultConfig(),
		trigger.WithReadinessCheck(func(context.Context) error {
			if ready {
				return nil
			}
			return failing
		}),
	).Router()

	rec := get(h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())

	rec = get(h, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "READY", rec.Body.String())

	ready = false
	rec = get(h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

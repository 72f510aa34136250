package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/docrelay/pkg/identity"
	"github.com/dmitrymomot/docrelay/pkg/relay"
)

func tokenEndpoint(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/tenant-1/oauth2/v2.0/token", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "svc-token", "token_type": "Bearer", "expires_in": 3600})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestService_Run(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32
	login := tokenEndpoint(t, &tokenCalls)
	g := newFakeGraph(t, http.StatusCreated, "{}")
	scratchDir := t.TempDir()
	rec := &recorder{}

	var loads atomic.Int32
	svc := relay.NewService(func() (relay.Config, error) {
		loads.Add(1)
		return relay.Config{
			Config: identity.Config{
				TenantID:      "tenant-1",
				ClientID:      "client",
				ClientSecret:  "secret",
				AuthorityHost: login.URL,
			},
			SiteID:          "site-1",
			DocumentLibrary: "drive-1",
			ScratchDir:      scratchDir,
			GraphBaseURL:    g.URL + "/v1.0",
		}, nil
	}, nil, relay.WithRecorder(rec))

	for range 2 {
		res := svc.Run(context.Background(), relay.Event{Name: "send-to-sharepoint/report.csv", Body: strings.NewReader("a,b\n1,2\n"), Size: 8})
		require.Equal(t, relay.OutcomeSucceeded, res.Outcome, "%v", res.Err)
	}

	assert.Equal(t, int32(2), loads.Load(), "configuration is loaded per invocation")
	assert.Equal(t, int32(2), tokenCalls.Load())
	ups := g.recorded()
	require.Len(t, ups, 2)
	assert.Equal(t, "Bearer svc-token", ups[0].auth)
	assert.Equal(t, "/v1.0/sites/site-1/drives/drive-1/root:/report.csv.zip:/content", ups[0].path)
	assert.Len(t, rec.all(), 2)
	assertScratchEmpty(t, scratchDir)
}

func TestService_ConfigErrorIsFatal(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32
	login := tokenEndpoint(t, &tokenCalls)
	g := newFakeGraph(t, http.StatusCreated, "{}")
	rec := &recorder{}

	tests := []struct {
		name   string
		loader relay.ConfigLoader
	}{
		{"loader error", func() (relay.Config, error) {
			return relay.Config{}, errors.Join(relay.ErrConfig, errors.New(`required environment variable "SITE_ID" is not set`))
		}},
		{"missing credentials", func() (relay.Config, error) {
			return relay.Config{
				Config:          identity.Config{TenantID: "tenant-1", AuthorityHost: login.URL},
				SiteID:          "site-1",
				DocumentLibrary: "drive-1",
				GraphBaseURL:    g.URL,
			}, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := relay.NewService(tt.loader, nil, relay.WithRecorder(rec))
			ctx := relay.WithInvocationID(context.Background(), "inv-fatal")

			res := svc.Run(ctx, relay.Event{Name: "report.csv", Body: strings.NewReader("x")})
			assert.Equal(t, relay.OutcomeFatal, res.Outcome)
			assert.Equal(t, "inv-fatal", res.InvocationID)
			assert.ErrorIs(t, res.Err, relay.ErrConfig)
		})
	}

	assert.Zero(t, tokenCalls.Load(), "no token request on configuration errors")
	assert.Zero(t, g.calls.Load(), "no upload on configuration errors")
	assert.Len(t, rec.all(), 2)
}

func TestService_AbortIsRecorded(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	var loads atomic.Int32
	svc := relay.NewService(func() (relay.Config, error) {
		loads.Add(1)
		return relay.Config{}, errors.New("not used")
	}, nil, relay.WithRecorder(rec))

	openErr := errors.New("object not found")
	ctx := relay.WithInvocationID(context.Background(), "ev-1")
	res := svc.Abort(ctx, "reports/q1.csv", openErr, false)

	assert.Equal(t, relay.OutcomeAborted, res.Outcome)
	assert.Equal(t, "ev-1", res.InvocationID)
	assert.Equal(t, "reports/q1.csv", res.Name)
	assert.ErrorIs(t, res.Err, openErr)
	assert.False(t, res.Retryable)
	assert.Equal(t, []relay.Stage{relay.StageStart, relay.StageAborted, relay.StageCleaned}, res.Stages)
	assert.Zero(t, loads.Load(), "no configuration is needed to record an abort")

	all := rec.all()
	require.Len(t, all, 1)
	assert.Equal(t, relay.OutcomeAborted, all[0].Outcome)
}

package relay_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/docrelay/pkg/config"
	"github.com/dmitrymomot/docrelay/pkg/identity"
	"github.com/dmitrymomot/docrelay/pkg/relay"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TENANT_ID", "tenant")
	t.Setenv("CLIENT_ID", "client")
	t.Setenv("CLIENT_SECRET", "secret")
	t.Setenv("SITE_ID", "site")
	t.Setenv("DOCUMENT_LIBRARY", "library")
}

func TestLoadConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCRATCH_DIR", "")
	t.Setenv("GRAPH_BASE_URL", "")
	t.Setenv("UPLOAD_TIMEOUT", "")
	t.Setenv("AZURE_AUTHORITY_HOST", "")
	t.Setenv("GRAPH_SCOPE", "")

	cfg, err := relay.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "tenant", cfg.TenantID)
	assert.Equal(t, "client", cfg.ClientID)
	assert.Equal(t, "secret", cfg.ClientSecret)
	assert.Equal(t, identity.DefaultAuthorityHost, cfg.AuthorityHost)
	assert.Equal(t, identity.DefaultScope, cfg.Scope)
	assert.Equal(t, "https://graph.microsoft.com/v1.0", cfg.GraphBaseURL)
	assert.Equal(t, os.TempDir(), cfg.ScratchDir)
	assert.Zero(t, cfg.UploadTimeout)
	assert.Equal(t, relay.Target{SiteID: "site", DriveID: "library"}, cfg.Target())
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCRATCH_DIR", "/var/tmp/docrelay")
	t.Setenv("UPLOAD_TIMEOUT", "90s")
	t.Setenv("GRAPH_BASE_URL", "http://127.0.0.1:9999/v1.0")

	cfg, err := relay.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/var/tmp/docrelay", cfg.ScratchDir)
	assert.Equal(t, 90*time.Second, cfg.UploadTimeout)
	assert.Equal(t, "http://127.0.0.1:9999/v1.0", cfg.GraphBaseURL)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	for _, key := range []string{"TENANT_ID", "CLIENT_ID", "CLIENT_SECRET", "SITE_ID", "DOCUMENT_LIBRARY"} {
		t.Run(key, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))

			_, err := relay.LoadConfig()
			require.Error(t, err)
			assert.ErrorIs(t, err, relay.ErrConfig)
			assert.ErrorIs(t, err, config.ErrParsingConfig)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestInvocationIDExtractor(t *testing.T) {
	t.Parallel()

	_, ok := relay.InvocationIDExtractor(context.Background())
	assert.False(t, ok)

	ctx := relay.WithInvocationID(context.Background(), "inv-1")
	attr, ok := relay.InvocationIDExtractor(ctx)
	require.True(t, ok)
	assert.Equal(t, "invocation_id", attr.Key)
	assert.Equal(t, "inv-1", attr.Value.String())
	assert.Equal(t, "inv-1", relay.InvocationIDFromContext(ctx))
}

func TestFatalResult(t *testing.T) {
	t.Parallel()

	res := relay.FatalResult("inv", "a.txt", relay.ErrConfig)
	assert.Equal(t, relay.OutcomeFatal, res.Outcome)
	assert.True(t, res.Retryable)
	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, relay.ErrConfig)
}

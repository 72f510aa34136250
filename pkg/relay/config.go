package relay

import (
	"errors"
	"os"
	"time"

	"github.com/dmitrymomot/docrelay/pkg/config"
	"github.com/dmitrymomot/docrelay/pkg/identity"
)

// Config is everything one invocation needs from the environment.
type Config struct {
	identity.Config

	SiteID          string        `env:"SITE_ID,required"`
	DocumentLibrary string        `env:"DOCUMENT_LIBRARY,required"`
	ScratchDir      string        `env:"SCRATCH_DIR"`
	GraphBaseURL    string        `env:"GRAPH_BASE_URL" envDefault:"https://graph.microsoft.com/v1.0"`
	UploadTimeout   time.Duration `env:"UPLOAD_TIMEOUT" envDefault:"0s"`
}

// LoadConfig reads Config from the process environment. It is meant to be
// called once per invocation so rotated secrets are picked up without a
// restart.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, errors.Join(ErrConfig, err)
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	return cfg, nil
}

// Target returns the upload destination described by cfg.
func (c Config) Target() Target {
	return Target{SiteID: c.SiteID, DriveID: c.DocumentLibrary}
}

package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// Load parses the process environment into the provided configuration struct.
//
// The default .env file in the working directory is read once per process if
// it exists; values already present in the environment win over the file.
// Every call parses the environment again, so a struct built per invocation
// always reflects the current process environment.
//
// Example:
//
//	type GraphConfig struct {
//		SiteID  string `env:"SITE_ID,required"`
//		BaseURL string `env:"GRAPH_BASE_URL" envDefault:"https://graph.microsoft.com/v1.0"`
//	}
//
//	var cfg GraphConfig
//	if err := config.Load(&cfg); err != nil {
//		// Handle error
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// The .env file is optional
		_ = godotenv.Load()
	})

	if v == nil {
		return ErrNilPointer
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	*v = parsed
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
// Use it only at process start, never inside an invocation.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("Failed to load required configuration: %v", err))
	}
}

// LoadEnv reads one or more .env files into the process environment.
// Without arguments the default .env in the working directory is used.
// Variables that are already set are not overwritten.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

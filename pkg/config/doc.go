// Package config loads service configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
//
//   - LoadEnv reads one or more `.env` files into the process environment.
//   - Load parses the environment into any Go struct using field tags.
//   - MustLoad panics on failure and is meant for process start-up only.
//
// Nothing is cached. Relay invocations build their configuration struct on
// every call so that a missing variable is reported by the invocation that
// needs it rather than at some earlier point in the process lifetime.
//
// # Usage
//
//	type Target struct {
//	    SiteID          string `env:"SITE_ID,required"`
//	    DocumentLibrary string `env:"DOCUMENT_LIBRARY,required"`
//	}
//
//	var t Target
//	if err := config.Load(&t); err != nil {
//	    return err // wraps config.ErrParsingConfig
//	}
//
// # Error Handling
//
//   - ErrParsingConfig  – failed to parse env vars into struct (missing required values included).
//   - ErrNilPointer     – nil pointer passed to Load/MustLoad.
//   - ErrLoadingEnvFile – an explicitly requested .env file could not be read.
package config

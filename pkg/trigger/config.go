package trigger

// Binding payload encodings.
const (
	EncodingBase64 = "base64"
	EncodingText   = "text"
)

// Config describes the function binding served by the custom handler.
type Config struct {
	Function string `env:"TRIGGER_FUNCTION" envDefault:"blob_trigger_function"`
	Binding  string `env:"TRIGGER_BINDING" envDefault:"myblob"`
	Encoding string `env:"TRIGGER_ENCODING" envDefault:"base64"`
	MaxBody  int64  `env:"TRIGGER_MAX_BODY" envDefault:"367001600"` // base64 of a 250 MiB blob plus envelope
}

// DefaultConfig mirrors the env defaults for callers that do not load the environment.
func DefaultConfig() Config {
	return Config{
		Function: "blob_trigger_function",
		Binding:  "myblob",
		Encoding: EncodingBase64,
		MaxBody:  367001600,
	}
}

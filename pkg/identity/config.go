package identity

// DefaultAuthorityHost is the public-cloud Entra ID login host.
const DefaultAuthorityHost = "https://login.microsoftonline.com"

// DefaultScope requests the application permissions granted to the app
// registration on Microsoft Graph.
const DefaultScope = "https://graph.microsoft.com/.default"

// Config holds the app registration credentials used for the
// client-credentials grant.
type Config struct {
	TenantID      string `env:"TENANT_ID,required"`
	ClientID      string `env:"CLIENT_ID,required"`
	ClientSecret  string `env:"CLIENT_SECRET,required"`
	AuthorityHost string `env:"AZURE_AUTHORITY_HOST" envDefault:"https://login.microsoftonline.com"`
	Scope         string `env:"GRAPH_SCOPE" envDefault:"https://graph.microsoft.com/.default"`
}

func (c Config) validate() error {
	if c.TenantID == "" || c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

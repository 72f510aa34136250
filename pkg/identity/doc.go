// Package identity acquires Microsoft Graph bearer tokens from Entra ID using
// the OAuth 2.0 client-credentials grant.
//
//	c, err := identity.New(identity.Config{
//	    TenantID:     "contoso.onmicrosoft.com",
//	    ClientID:     "...",
//	    ClientSecret: "...",
//	})
//	if err != nil {
//	    return err // ErrMissingCredentials
//	}
//	tok, err := c.Token(ctx) // wraps ErrNoToken on any failure
//
// IsTemporary separates provider outages and network failures from
// rejected credentials.
package identity

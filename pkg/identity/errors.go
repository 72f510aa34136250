package identity

import "errors"

var (
	ErrMissingCredentials = errors.New("identity: tenant id, client id and client secret are required")
	ErrNoToken            = errors.New("identity: no access token")
)

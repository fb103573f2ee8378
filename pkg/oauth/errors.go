package oauth

import "errors"

var (
	ErrMissingClientID     = errors.New("oauth: missing client id")
	ErrMissingClientSecret = errors.New("oauth: missing client secret")
	ErrMissingRedirectURL  = errors.New("oauth: missing redirect url")
	ErrEmptyCode           = errors.New("oauth: empty authorization code")
	ErrExchangeFailed      = errors.New("oauth: code exchange failed")
	ErrMissingWorkspace    = errors.New("oauth: token response has no workspace id")
)

package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"execauth/internal/execcred"
)

// CredentialSource supplies exec plugin credentials. Satisfied by
// execcred.Provider and transport.Manager.
type CredentialSource interface {
	GetCredential(ctx context.Context) (*execcred.Credential, error)
}

// NewTokenSource exposes a CredentialSource as an oauth2.TokenSource so it
// can plug into oauth2.NewClient and similar stacks. The returned source is
// not wrapped in oauth2.ReuseTokenSource; the provider already caches with
// its own expiry margin.
func NewTokenSource(ctx context.Context, source CredentialSource) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, source: source}
}

type tokenSource struct {
	ctx    context.Context
	source CredentialSource
}

// Token implements oauth2.TokenSource.
func (t *tokenSource) Token() (*oauth2.Token, error) {
	cred, err := t.source.GetCredential(t.ctx)
	if err != nil {
		return nil, err
	}
	if !cred.HasToken() {
		return nil, fmt.Errorf("exec plugin produced certificate credentials, not a bearer token")
	}

	token := &oauth2.Token{
		AccessToken: cred.Token,
		TokenType:   "Bearer",
	}
	if cred.ExpirationTimestamp != nil {
		token.Expiry = cred.ExpirationTimestamp.Time
	}
	return token, nil
}

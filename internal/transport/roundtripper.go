package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"execauth/internal/execcred"
)

// CredentialSource supplies credentials for outgoing requests. Implemented
// by execcred.Provider and by Manager.
type CredentialSource interface {
	GetCredential(ctx context.Context) (*execcred.Credential, error)
}

// RoundTripper injects a bearer token obtained from a CredentialSource into
// the Authorization header of each request. Requests that already carry an
// Authorization header pass through untouched.
type RoundTripper struct {
	base   http.RoundTripper
	source CredentialSource
}

// NewRoundTripper wraps base with bearer-token injection. A nil base uses
// http.DefaultTransport.
func NewRoundTripper(base http.RoundTripper, source CredentialSource) *RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RoundTripper{base: base, source: source}
}

// RoundTrip implements http.RoundTripper.
func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") != "" {
		return rt.base.RoundTrip(req)
	}

	cred, err := rt.source.GetCredential(req.Context())
	if err != nil {
		return nil, fmt.Errorf("obtaining credential for %s: %w", req.URL.Host, err)
	}
	if !cred.HasToken() {
		// Certificate credentials belong in the TLS config, not a header.
		return rt.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+cred.Token)
	return rt.base.RoundTrip(clone)
}

// TLSClientConfig builds a tls.Config presenting the credential's client
// certificate. Fails when the credential carries no certificate pair or the
// PEM material does not parse.
func TLSClientConfig(cred *execcred.Credential) (*tls.Config, error) {
	if !cred.HasClientCertificate() {
		return nil, fmt.Errorf("credential carries no client certificate material")
	}
	certificate, err := tls.X509KeyPair([]byte(cred.ClientCertificateData), []byte(cred.ClientKeyData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse client certificate: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{certificate},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

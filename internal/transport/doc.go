// Package transport connects the exec credential provider to an HTTP
// client stack.
//
// RoundTripper attaches the provider's bearer token to outgoing requests;
// TLSClientConfig turns certificate credentials into a tls.Config. Manager
// is the embedding point for long-lived clients: it owns a provider built
// from the config file and rebuilds it when the file changes.
package transport

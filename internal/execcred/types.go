package execcred

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// execInfoEnv is the environment variable carrying the execution-info payload
// to the plugin. Its value is a JSON-encoded ExecCredential with only
// apiVersion, kind and spec populated.
const execInfoEnv = "KUBERNETES_EXEC_INFO"

// kindExecCredentials is the kind emitted in the execution-info payload.
const kindExecCredentials = "ExecCredentials"

// ExecEnvVar is a single environment variable entry passed to the plugin.
// Both fields are mandatory; Value is a pointer so that a missing value can
// be told apart from an explicitly empty one.
type ExecEnvVar struct {
	Name  string  `json:"name" yaml:"name"`
	Value *string `json:"value,omitempty" yaml:"value,omitempty"`
}

// ExecConfig describes how to run the external credential plugin.
// It is supplied by the configuration layer and treated as immutable.
type ExecConfig struct {
	// APIVersion is the schema version the plugin is expected to emit,
	// e.g. "client.authentication.k8s.io/v1beta1".
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`

	// Command is the path of the plugin executable.
	Command string `json:"command" yaml:"command"`

	// Args are passed to the plugin in order. May be empty.
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`

	// Env entries are applied on top of the inherited process environment,
	// overriding inherited values of the same name.
	Env []ExecEnvVar `json:"env,omitempty" yaml:"env,omitempty"`

	// Interactive signals that the plugin may prompt the user. When set,
	// stderr is passed through instead of being captured so a human can
	// interact with prompts.
	Interactive bool `json:"interactive,omitempty" yaml:"interactive,omitempty"`
}

// ExecCredential is the document exchanged with the plugin: the host writes
// one (apiVersion/kind/spec) into KUBERNETES_EXEC_INFO, and the plugin emits
// one (apiVersion/kind/status) on stdout.
type ExecCredential struct {
	metav1.TypeMeta `json:",inline"`

	// Spec carries host-provided information for the plugin.
	Spec ExecCredentialSpec `json:"spec,omitempty"`

	// Status is filled in by the plugin. It must carry either a token or
	// a client certificate/key pair.
	Status *ExecCredentialStatus `json:"status,omitempty"`
}

// ExecCredentialSpec is the host-provided half of the exchange.
type ExecCredentialSpec struct {
	// Interactive tells the plugin whether it may prompt the user.
	Interactive bool `json:"interactive"`
}

// ExecCredentialStatus holds the credential produced by the plugin.
type ExecCredentialStatus struct {
	// ExpirationTimestamp is the absolute time after which the credential
	// must no longer be used. Absent means the credential never expires
	// (e.g. static client certificates).
	ExpirationTimestamp *metav1.Time `json:"expirationTimestamp,omitempty"`

	// Token is a bearer token presented in the Authorization header.
	Token string `json:"token,omitempty"`

	// ClientCertificateData and ClientKeyData are PEM-encoded client TLS
	// material. Both must be set together.
	ClientCertificateData string `json:"clientCertificateData,omitempty"`
	ClientKeyData         string `json:"clientKeyData,omitempty"`
}

// hasCredential reports whether the status satisfies the validity invariant:
// a non-empty token or a complete certificate/key pair.
func (s *ExecCredentialStatus) hasCredential() bool {
	if s == nil {
		return false
	}
	if s.Token != "" {
		return true
	}
	return s.ClientCertificateData != "" && s.ClientKeyData != ""
}

// Credential is the value handed to the transport layer. It is an immutable
// snapshot derived from the cached ExecCredential.
type Credential struct {
	// Token is the bearer token, if the plugin produced one.
	Token string

	// ClientCertificateData and ClientKeyData are PEM-encoded client TLS
	// material, if the plugin produced certificate credentials.
	ClientCertificateData string
	ClientKeyData         string

	// ExpirationTimestamp is nil for non-expiring credentials.
	ExpirationTimestamp *metav1.Time
}

// HasToken reports whether the credential carries a bearer token.
func (c *Credential) HasToken() bool {
	return c != nil && c.Token != ""
}

// HasClientCertificate reports whether the credential carries a client
// certificate/key pair.
func (c *Credential) HasClientCertificate() bool {
	return c != nil && c.ClientCertificateData != "" && c.ClientKeyData != ""
}

// ToExecCredential rebuilds the wire document for the credential, e.g. to
// re-emit it for tooling that speaks the same schema.
func (c *Credential) ToExecCredential(apiVersion string) *ExecCredential {
	return &ExecCredential{
		TypeMeta: metav1.TypeMeta{
			APIVersion: apiVersion,
			Kind:       kindExecCredentials,
		},
		Status: &ExecCredentialStatus{
			ExpirationTimestamp:   c.ExpirationTimestamp,
			Token:                 c.Token,
			ClientCertificateData: c.ClientCertificateData,
			ClientKeyData:         c.ClientKeyData,
		},
	}
}

// Package execcred implements the exec credential provider: it obtains
// short-lived bearer tokens or client TLS material by invoking an external,
// user-configured executable (the exec plugin), validating its JSON output
// against a versioned schema, and caching the result until it nears expiry.
//
// The package is layered into three parts:
//
//   - the expiry gate, which decides whether the cached credential is still
//     usable (a fixed 30 second safety margin is applied before the actual
//     expiration timestamp);
//   - the process invoker, which runs the plugin with the
//     KUBERNETES_EXEC_INFO environment contract, bounds its wall-clock
//     execution time and captures stderr for error reporting;
//   - the response validator, which decodes stdout into an ExecCredential
//     and rejects malformed, version-mismatched or credential-less output.
//
// Provider ties the three together behind a single GetCredential accessor.
// A failed refresh never evicts a previously cached credential; the cache is
// only ever replaced wholesale by a successful refresh.
//
// Failures are reported through the typed errors ConfigurationError,
// ExecutionError and ValidationError so callers can map them to semantic
// exit codes or retry policies.
package execcred

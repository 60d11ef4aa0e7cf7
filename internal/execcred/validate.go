package execcred

import (
	"encoding/json"
)

// validateResponse decodes the plugin's stdout into an ExecCredential and
// checks it against the expected schema version and the validity invariant
// (status must carry a token or a certificate/key pair).
func validateResponse(raw []byte, expectedAPIVersion string) (*ExecCredential, error) {
	var cred ExecCredential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, &ValidationError{Reason: "malformed output", Cause: err}
	}

	if cred.APIVersion != expectedAPIVersion {
		return nil, &ValidationError{
			Reason:   "version mismatch",
			Expected: expectedAPIVersion,
			Actual:   cred.APIVersion,
		}
	}

	if !cred.Status.hasCredential() {
		return nil, &ValidationError{Reason: "missing token/certificate fields"}
	}

	return &cred, nil
}

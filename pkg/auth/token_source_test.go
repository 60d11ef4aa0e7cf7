package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"execauth/internal/execcred"
)

type fakeSource struct {
	cred *execcred.Credential
	err  error
}

func (f *fakeSource) GetCredential(ctx context.Context) (*execcred.Credential, error) {
	return f.cred, f.err
}

func TestTokenSource_Token(t *testing.T) {
	expiry := metav1.Time{Time: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	source := &fakeSource{cred: &execcred.Credential{
		Token:               "abc123",
		ExpirationTimestamp: &expiry,
	}}

	token, err := NewTokenSource(context.Background(), source).Token()
	require.NoError(t, err)
	assert.Equal(t, "abc123", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, expiry.Time, token.Expiry)
}

func TestTokenSource_NonExpiringToken(t *testing.T) {
	source := &fakeSource{cred: &execcred.Credential{Token: "static"}}

	token, err := NewTokenSource(context.Background(), source).Token()
	require.NoError(t, err)
	assert.True(t, token.Expiry.IsZero(), "no expiry means a zero oauth2 expiry")
}

func TestTokenSource_CertificateCredentialRejected(t *testing.T) {
	source := &fakeSource{cred: &execcred.Credential{
		ClientCertificateData: "cert",
		ClientKeyData:         "key",
	}}

	_, err := NewTokenSource(context.Background(), source).Token()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a bearer token")
}

func TestTokenSource_PropagatesSourceError(t *testing.T) {
	cause := errors.New("plugin failed")
	source := &fakeSource{err: cause}

	_, err := NewTokenSource(context.Background(), source).Token()
	assert.ErrorIs(t, err, cause)
}

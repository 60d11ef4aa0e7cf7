package execcred

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const testAPIVersion = "client.authentication.k8s.io/v1beta1"

// fakeInvoker satisfies Invoker without spawning processes.
type fakeInvoker struct {
	output []byte
	err    error
	delay  time.Duration
	calls  atomic.Int64
}

func (f *fakeInvoker) Invoke(ctx context.Context, config ExecConfig, timeout time.Duration, interactive bool) ([]byte, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, &ExecutionError{Command: config.Command, Kind: ExecCanceled, ExitCode: -1, Cause: ctx.Err()}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func newTestProvider(invoker Invoker) *Provider {
	return &Provider{
		config: ExecConfig{
			APIVersion: testAPIVersion,
			Command:    "fake-plugin",
		},
		timeout: time.Minute,
		invoker: invoker,
		now:     time.Now,
	}
}

func cachedCredential(token string, expiry *time.Time) *ExecCredential {
	status := &ExecCredentialStatus{Token: token}
	if expiry != nil {
		status.ExpirationTimestamp = &metav1.Time{Time: *expiry}
	}
	return &ExecCredential{
		TypeMeta: metav1.TypeMeta{APIVersion: testAPIVersion, Kind: kindExecCredentials},
		Status:   status,
	}
}

func TestNeedsRefresh_EmptyCache(t *testing.T) {
	p := newTestProvider(&fakeInvoker{})
	assert.True(t, p.NeedsRefresh())
}

func TestNeedsRefresh_NoExpirationNeverRefreshes(t *testing.T) {
	p := newTestProvider(&fakeInvoker{})
	p.cached = cachedCredential("static-token", nil)

	// Regardless of how much time passes.
	for _, elapsed := range []time.Duration{0, time.Hour, 24 * 365 * time.Hour} {
		p.now = func() time.Time { return time.Now().Add(elapsed) }
		assert.False(t, p.NeedsRefresh(), "elapsed %s", elapsed)
	}
}

func TestNeedsRefresh_ExpiryMargin(t *testing.T) {
	expiry := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	p := newTestProvider(&fakeInvoker{})
	p.cached = cachedCredential("token", &expiry)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well before margin", expiry.Add(-time.Hour), false},
		{"just before margin", expiry.Add(-credentialExpiryMargin - time.Second), false},
		{"exactly at margin", expiry.Add(-credentialExpiryMargin), true},
		{"inside margin", expiry.Add(-time.Second), true},
		{"past expiry", expiry.Add(time.Minute), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p.now = func() time.Time { return tc.now }
			assert.Equal(t, tc.want, p.NeedsRefresh())
		})
	}
}

func TestGetCredential_RefreshesAndCaches(t *testing.T) {
	invoker := &fakeInvoker{
		output: []byte(`{
			"apiVersion": "client.authentication.k8s.io/v1beta1",
			"kind": "ExecCredential",
			"status": {"token": "abc123", "expirationTimestamp": "2030-01-01T00:00:00Z"}
		}`),
	}
	p := newTestProvider(invoker)

	cred, err := p.GetCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", cred.Token)
	require.NotNil(t, cred.ExpirationTimestamp)
	assert.Equal(t, int64(1), invoker.calls.Load())

	// Second call is served from cache, the plugin is not re-run.
	cred, err = p.GetCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", cred.Token)
	assert.Equal(t, int64(1), invoker.calls.Load())
}

func TestGetCredential_FailurePreservesCache(t *testing.T) {
	invoker := &fakeInvoker{
		err: &ExecutionError{Command: "fake-plugin", Kind: ExecExit, ExitCode: 1, Stderr: "plugin broke"},
	}
	p := newTestProvider(invoker)

	expired := time.Now().Add(-time.Hour)
	p.cached = cachedCredential("stale-token", &expired)

	_, err := p.GetCredential(context.Background())
	require.Error(t, err)
	assert.True(t, IsExecutionError(err))

	// The previously cached token survives the failed refresh.
	cached := p.Cached()
	require.NotNil(t, cached)
	assert.Equal(t, "stale-token", cached.Token)
}

func TestGetCredential_EmptyCacheFailureIsTerminal(t *testing.T) {
	invoker := &fakeInvoker{
		err: &ExecutionError{Command: "fake-plugin", Kind: ExecStartup, ExitCode: -1},
	}
	p := newTestProvider(invoker)

	cred, err := p.GetCredential(context.Background())
	require.Error(t, err)
	assert.Nil(t, cred)
	assert.Nil(t, p.Cached())
}

func TestGetCredential_VersionMismatchLeavesCacheUnchanged(t *testing.T) {
	invoker := &fakeInvoker{
		output: []byte(`{"apiVersion": "client.authentication.k8s.io/v1", "status": {"token": "abc"}}`),
	}
	p := newTestProvider(invoker)

	_, err := p.GetCredential(context.Background())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "client.authentication.k8s.io/v1beta1")
	assert.Contains(t, err.Error(), `"client.authentication.k8s.io/v1"`)
	assert.Nil(t, p.Cached())
}

func TestGetCredential_ConcurrentCallersShareOneInvocation(t *testing.T) {
	invoker := &fakeInvoker{
		delay: 100 * time.Millisecond,
		output: []byte(`{
			"apiVersion": "client.authentication.k8s.io/v1beta1",
			"status": {"token": "shared"}
		}`),
	}
	p := newTestProvider(invoker)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cred, err := p.GetCredential(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "shared", cred.Token)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), invoker.calls.Load())
}

func TestGetCredential_CancellationCancelsWait(t *testing.T) {
	invoker := &fakeInvoker{delay: 5 * time.Second}
	p := newTestProvider(invoker)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.GetCredential(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestInvalidate(t *testing.T) {
	p := newTestProvider(&fakeInvoker{})
	p.cached = cachedCredential("token", nil)
	require.NotNil(t, p.Cached())

	p.Invalidate()
	assert.Nil(t, p.Cached())
	assert.True(t, p.NeedsRefresh())
}

func TestNewProvider_RequiresCommandAndAPIVersion(t *testing.T) {
	_, err := NewProvider(ExecConfig{APIVersion: testAPIVersion}, 0)
	assert.True(t, IsConfigurationError(err))

	_, err = NewProvider(ExecConfig{Command: "plugin"}, 0)
	assert.True(t, IsConfigurationError(err))

	p, err := NewProvider(ExecConfig{Command: "plugin", APIVersion: testAPIVersion}, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultExecTimeout, p.timeout)
}

package execcred

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/term"

	"execauth/pkg/logging"
)

// credentialExpiryMargin is the lead time before the actual expiration at
// which a cached credential is proactively treated as expired. It guards
// against a token expiring mid-request and absorbs clock skew.
const credentialExpiryMargin = 30 * time.Second

// DefaultExecTimeout bounds plugin wall-clock execution when the caller does
// not configure a timeout.
const DefaultExecTimeout = 2 * time.Minute

// Provider obtains credentials from an exec plugin and caches the last
// successfully validated response until it nears expiry.
//
// The cache is an immutable snapshot replaced wholesale on successful
// refresh; a failed refresh leaves it untouched. Concurrent callers that
// both observe an expired cache are collapsed into a single plugin
// invocation via singleflight. The underlying protocol is idempotent, so
// this is a strengthening rather than a correctness requirement.
type Provider struct {
	mu     sync.RWMutex
	cached *ExecCredential

	config      ExecConfig
	timeout     time.Duration
	interactive bool

	invoker Invoker
	group   singleflight.Group

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewProvider creates a Provider for the given plugin configuration.
// A zero timeout selects DefaultExecTimeout. The cache starts empty; the
// first GetCredential call invokes the plugin.
func NewProvider(config ExecConfig, timeout time.Duration) (*Provider, error) {
	if config.Command == "" {
		return nil, &ConfigurationError{Entry: "command", Message: "no plugin command configured"}
	}
	if config.APIVersion == "" {
		return nil, &ConfigurationError{Entry: "apiVersion", Message: "no plugin apiVersion configured"}
	}
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}

	return &Provider{
		config:      config,
		timeout:     timeout,
		interactive: config.Interactive && term.IsTerminal(int(os.Stdin.Fd())),
		invoker:     newProcessInvoker(),
		now:         time.Now,
	}, nil
}

// NeedsRefresh reports whether the cached credential must be refreshed
// before use. True when the cache is empty or the credential expires within
// the safety margin; a credential without an expiration timestamp never
// needs a refresh. Pure read, no side effects.
func (p *Provider) NeedsRefresh() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.needsRefreshLocked()
}

func (p *Provider) needsRefreshLocked() bool {
	if p.cached == nil || p.cached.Status == nil {
		return true
	}
	expiry := p.cached.Status.ExpirationTimestamp
	if expiry == nil {
		return false
	}
	return !p.now().Add(credentialExpiryMargin).Before(expiry.Time)
}

// GetCredential returns the current credential, refreshing it first if the
// cached one is absent or about to expire. On refresh failure the error is
// propagated and the previous cache is left unchanged; with an empty cache
// there is no fallback and the call fails end-to-end.
func (p *Provider) GetCredential(ctx context.Context) (*Credential, error) {
	if p.NeedsRefresh() {
		if err := p.refresh(ctx); err != nil {
			return nil, err
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.cached == nil || p.cached.Status == nil {
		// Invalidated between refresh and read.
		return nil, fmt.Errorf("credential cache was invalidated during refresh")
	}
	status := p.cached.Status
	return &Credential{
		Token:                 status.Token,
		ClientCertificateData: status.ClientCertificateData,
		ClientKeyData:         status.ClientKeyData,
		ExpirationTimestamp:   status.ExpirationTimestamp,
	}, nil
}

// refresh invokes the plugin, validates its output and swaps the cache.
// The blocking spawn-and-wait runs on a singleflight worker goroutine so
// concurrent callers share one invocation; the caller's context cancels the
// wait (and, through the invoker, terminates the plugin process).
func (p *Provider) refresh(ctx context.Context) error {
	ch := p.group.DoChan("refresh", func() (interface{}, error) {
		raw, err := p.invoker.Invoke(ctx, p.config, p.timeout, p.interactive)
		if err != nil {
			logging.Error("Provider", err, "Credential refresh via %s failed", p.config.Command)
			return nil, err
		}

		cred, err := validateResponse(raw, p.config.APIVersion)
		if err != nil {
			logging.Error("Provider", err, "Credential refresh via %s produced invalid output", p.config.Command)
			return nil, err
		}

		p.mu.Lock()
		p.cached = cred
		p.mu.Unlock()

		if expiry := cred.Status.ExpirationTimestamp; expiry != nil {
			logging.Debug("Provider", "Cached credential from %s (expires %s)", p.config.Command, expiry.Format(time.RFC3339))
		} else {
			logging.Debug("Provider", "Cached non-expiring credential from %s", p.config.Command)
		}
		return cred, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invalidate drops the cached credential so the next GetCredential call
// refreshes. Used when the plugin configuration changes underneath a
// long-lived provider.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
	logging.Debug("Provider", "Credential cache invalidated")
}

// Cached returns a snapshot of the cached credential, or nil when the cache
// is empty. It never triggers a refresh.
func (p *Provider) Cached() *Credential {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.cached == nil || p.cached.Status == nil {
		return nil
	}
	status := p.cached.Status
	return &Credential{
		Token:                 status.Token,
		ClientCertificateData: status.ClientCertificateData,
		ClientKeyData:         status.ClientKeyData,
		ExpirationTimestamp:   status.ExpirationTimestamp,
	}
}

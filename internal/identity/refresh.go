package identity

import (
	"context"
	"time"
)

// DefaultRefreshInterval is how often stored tokens are re-inspected while
// a refresher runs.
const DefaultRefreshInterval = time.Minute

// StartRefresher renews stored tokens in the background until the context
// is canceled. A token inside the expiry window is traded for a fresh set
// via the refresh grant; the manager (when non-nil) tracks the resulting
// session transitions. If onError is non-nil, it is called whenever a
// renewal attempt fails.
func StartRefresher(
	ctx context.Context,
	cfg FlowConfig,
	window time.Duration,
	mgr *Manager,
	onError func(error),
) {
	interval := DefaultRefreshInterval
	if window > 0 && window < interval {
		interval = window / 2
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := refreshOnce(ctx, cfg, window, mgr, time.Now()); err != nil {
					if onError != nil {
						onError(err)
					}
				}
			}
		}
	}()
}

// refreshOnce renews stored tokens when they are inside the expiry window.
// Tokens supplied through the environment are caller-managed and skipped.
func refreshOnce(ctx context.Context, cfg FlowConfig, window time.Duration, mgr *Manager, now time.Time) error {
	source, tokens := GetTokens()
	if tokens == nil || source == SourceEnv {
		return nil
	}

	if !tokens.ExpiresWithin(now, window) {
		return nil
	}

	fresh, err := Refresh(ctx, cfg, tokens.RefreshToken)
	if err != nil {
		// A still-live token gets another attempt next tick; a dead one
		// means the session is over.
		if tokens.Expired(now) && mgr != nil {
			mgr.SetUnauthenticated()
		}
		return err
	}

	if err := StoreTokens(fresh); err != nil {
		return err
	}

	if mgr != nil && fresh.IDToken != "" {
		if profile, perr := ParseProfile(fresh.IDToken); perr == nil {
			mgr.SetAuthenticated(profile)
		}
	}

	return nil
}

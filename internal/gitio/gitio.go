// Package gitio wraps a core.GitBackend with retry and circuit-breaking so
// transient network failures against a remote registry are absorbed here
// rather than surfacing as user-visible errors on every blip.
package gitio

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"

	"github.com/BillyONeal/vcpkg-tool/internal/core"
)

// Resilient wraps a core.GitBackend, retrying transient failures with
// exponential backoff and tripping a per-repo circuit breaker after
// repeated failures so a downed remote stops being hammered.
type Resilient struct {
	backend    core.GitBackend
	maxRetries int
	baseDelay  time.Duration

	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
}

// New wraps backend with the default retry and circuit-breaking policy:
// 3 retries with jittered exponential backoff starting at 500ms, and a
// breaker that trips once a repo's failure count reaches 5.
func New(backend core.GitBackend) *Resilient {
	return &Resilient{
		backend:    backend,
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		breakers:   make(map[string]*circuit.Breaker),
	}
}

func (r *Resilient) breakerFor(repo string) *circuit.Breaker {
	r.mu.RLock()
	b, ok := r.breakers[repo]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[repo]; ok {
		return b
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	b = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	})
	r.breakers[repo] = b
	return b
}

// call runs op through repo's circuit breaker, retrying transient failures
// with jittered exponential backoff up to maxRetries times.
func (r *Resilient) call(ctx context.Context, repo string, op func() error) error {
	breaker := r.breakerFor(repo)
	if !breaker.Ready() {
		return fmt.Errorf("circuit breaker open for %s", repo)
	}

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			jitter := time.Duration(float64(delay) * (rand.Float64() * 0.1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay + jitter):
			}
		}

		err := breaker.Call(op, 0)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (r *Resilient) FetchRemoteRegistry(ctx context.Context, repo, reference string) (string, error) {
	var commit string
	err := r.call(ctx, repo, func() error {
		var innerErr error
		commit, innerErr = r.backend.FetchRemoteRegistry(ctx, repo, reference)
		return innerErr
	})
	return commit, err
}

func (r *Resilient) Fetch(ctx context.Context, repo, commitSha string) error {
	return r.call(ctx, repo, func() error {
		return r.backend.Fetch(ctx, repo, commitSha)
	})
}

func (r *Resilient) Show(ctx context.Context, repo, commitSha, path string) ([]byte, error) {
	var data []byte
	err := r.call(ctx, repo, func() error {
		var innerErr error
		data, innerErr = r.backend.Show(ctx, repo, commitSha, path)
		return innerErr
	})
	return data, err
}

func (r *Resilient) CheckoutTree(ctx context.Context, repo, treeSha string) (string, error) {
	var dir string
	err := r.call(ctx, repo, func() error {
		var innerErr error
		dir, innerErr = r.backend.CheckoutTree(ctx, repo, treeSha)
		return innerErr
	})
	return dir, err
}

func (r *Resilient) HeadCommit(ctx context.Context, repo string) (string, error) {
	var commit string
	err := r.call(ctx, repo, func() error {
		var innerErr error
		commit, innerErr = r.backend.HeadCommit(ctx, repo)
		return innerErr
	})
	return commit, err
}

// BreakerStates returns the open/closed state of every per-repo breaker
// created so far, for health-check style diagnostics.
func (r *Resilient) BreakerStates() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make(map[string]string, len(r.breakers))
	for repo, b := range r.breakers {
		if b.Tripped() {
			states[repo] = "open"
		} else {
			states[repo] = "closed"
		}
	}
	return states
}

var _ core.GitBackend = (*Resilient)(nil)

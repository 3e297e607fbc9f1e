package icons

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"channel-viewer/internal/logging"
	"channel-viewer/internal/metrics"
	"channel-viewer/internal/workers"

	"golang.org/x/sync/singleflight"
)

// ErrIconNotAllowed is returned for URLs that are not the icon of a loaded channel.
var ErrIconNotAllowed = errors.New("icon is not referenced by a loaded channel")

// ErrIconUnavailable wraps failures to fetch or decode an icon.
var ErrIconUnavailable = errors.New("icon unavailable")

// Allowlist decides which icon URLs the proxy may fetch.
type Allowlist interface {
	HasIcon(url string) bool
}

// Pressure signals when background work should back off.
type Pressure interface {
	ShouldThrottle() bool
}

// Config holds icon proxy settings
type Config struct {
	Size         int
	CacheEntries int
	// Prewarm is the number of icons fetched in the background after a load
	Prewarm   int
	Workers   int
	MaxBytes  int64
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns sensible defaults for the icon proxy
func DefaultConfig() Config {
	return Config{
		Size:         64,
		CacheEntries: 512,
		Prewarm:      32,
		Workers:      workers.ForMixed(8),
		MaxBytes:     2 << 20,
		Timeout:      10 * time.Second,
		UserAgent:    "ChannelViewer/1.0",
	}
}

// Proxy fetches channel icons, scales them down and caches the result.
type Proxy struct {
	client *http.Client
	config Config
	allow  Allowlist
	cache  *iconCache
	group  singleflight.Group

	pressure Pressure

	// prewarm runs are bound to the proxy lifetime
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// guards closed and wg.Add against a concurrent Close
	mu     sync.Mutex
	closed bool
}

// NewProxy creates an icon proxy. A nil client uses a client with the
// configured timeout that refuses to connect to non-public addresses.
func NewProxy(config Config, allow Allowlist, client *http.Client) *Proxy {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if client == nil {
		client = newPublicClient(config.Timeout)
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Proxy{
		client: client,
		config: config,
		allow:  allow,
		cache:  newIconCache(config.CacheEntries),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Get returns the PNG rendition of an icon URL referenced by a loaded channel.
func (p *Proxy) Get(ctx context.Context, iconURL string) ([]byte, error) {
	if p.allow != nil && !p.allow.HasIcon(iconURL) {
		metrics.IconRequestsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %s", ErrIconNotAllowed, iconURL)
	}

	if data, ok := p.cache.Get(iconURL); ok {
		metrics.IconRequestsTotal.WithLabelValues("hit").Inc()
		return data, nil
	}

	data, err := p.load(ctx, iconURL)
	if err != nil {
		metrics.IconRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.IconRequestsTotal.WithLabelValues("miss").Inc()
	return data, nil
}

// load fetches and renders an icon once, however many callers ask for it
// at the same time.
func (p *Proxy) load(ctx context.Context, iconURL string) ([]byte, error) {
	ch := p.group.DoChan(iconURL, func() (any, error) {
		if data, ok := p.cache.Get(iconURL); ok {
			return data, nil
		}

		// Shared by every waiter, so it must outlive the first caller
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.config.Timeout)
		defer cancel()

		start := time.Now()
		raw, err := p.fetch(fetchCtx, iconURL)
		if err == nil {
			raw, err = Render(raw, p.config.Size)
		}
		metrics.IconFetchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			logging.Debug("Icon %s unavailable: %v", iconURL, err)
			return nil, fmt.Errorf("%w: %w", ErrIconUnavailable, err)
		}

		p.cache.Put(iconURL, raw)
		return raw, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (p *Proxy) fetch(ctx context.Context, iconURL string) ([]byte, error) {
	u, err := url.Parse(iconURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("unsupported icon URL %q", iconURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, iconURL, nil)
	if err != nil {
		return nil, err
	}
	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	limit := p.config.MaxBytes
	if limit <= 0 {
		return io.ReadAll(resp.Body)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("icon larger than %d bytes", limit)
	}
	return data, nil
}

// SetPressure makes Prewarm skip its work while pr reports memory pressure.
// Call before the proxy is shared.
func (p *Proxy) SetPressure(pr Pressure) {
	p.pressure = pr
}

// Prewarm fetches up to Config.Prewarm of the given icons in the
// background. It returns immediately.
func (p *Proxy) Prewarm(urls []string) {
	if p.config.Prewarm <= 0 || p.config.CacheEntries <= 0 || len(urls) == 0 {
		return
	}
	if p.pressure != nil && p.pressure.ShouldThrottle() {
		logging.Debug("Skipping icon prewarm of %d icons: memory pressure", len(urls))
		return
	}

	pending := make([]string, 0, min(len(urls), p.config.Prewarm))
	for _, u := range urls {
		if len(pending) == p.config.Prewarm {
			break
		}
		if !p.cache.Contains(u) {
			pending = append(pending, u)
		}
	}
	if len(pending) == 0 {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()

		metrics.IconPrewarmRunning.Inc()
		defer metrics.IconPrewarmRunning.Dec()

		start := time.Now()
		var failed atomic.Int32
		workers.Run(p.ctx, p.config.Workers, pending, func(ctx context.Context, iconURL string) {
			if _, err := p.load(ctx, iconURL); err != nil {
				failed.Add(1)
			}
		})

		logging.Debug("Icon prewarm finished: %d icons, %d failed, %v", len(pending), failed.Load(), time.Since(start))
	}()
}

// Close stops background prewarming and waits for it to return. Prewarm
// calls after Close do nothing.
func (p *Proxy) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

// Cached returns the number of icons held in memory.
func (p *Proxy) Cached() int {
	return p.cache.Len()
}

// Package deploy tracks GitHub Pages build status so the UI can show
// when a pushed edit is actually live.
package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"redline/internal/logging"
)

// Status is a snapshot of the latest Pages build.
type Status struct {
	State     string    `json:"state"` // built, building, errored, unknown
	Error     string    `json:"error,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	CheckedAt time.Time `json:"checked_at"`
}

// Config configures the poller.
type Config struct {
	Owner    string
	Repo     string
	Token    string
	BaseURL  string
	Interval time.Duration
}

// Poller periodically fetches the latest Pages build and caches it.
type Poller struct {
	cfg        Config
	httpClient *http.Client

	mu   sync.RWMutex
	last Status
}

// NewPoller creates a poller; call Run to start it.
func NewPoller(cfg Config) *Poller {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	return &Poller{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		last:       Status{State: "unknown"},
	}
}

// Status returns the most recent snapshot.
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Run polls until ctx is cancelled. It always returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// Poll fetches once and updates the snapshot. Exposed so callers can
// force a refresh right after a write.
func (p *Poller) Poll(ctx context.Context) Status {
	p.poll(ctx)
	return p.Status()
}

func (p *Poller) poll(ctx context.Context) {
	status, err := p.fetch(ctx)
	now := time.Now().UTC()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		logging.Deploy("poll failed: %v", err)
		p.last.CheckedAt = now
		return
	}
	status.CheckedAt = now
	if status.State != p.last.State {
		logging.Deploy("pages build state: %s -> %s", p.last.State, status.State)
	}
	p.last = status
}

type pagesBuild struct {
	Status string `json:"status"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Commit    string    `json:"commit"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Poller) fetch(ctx context.Context) (Status, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pages/builds/latest", p.cfg.BaseURL, p.cfg.Owner, p.cfg.Repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Status{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if p.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.Token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Status{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Pages not enabled for this repo.
		return Status{State: "unknown"}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("pages build status: HTTP %d", resp.StatusCode)
	}

	var build pagesBuild
	if err := json.NewDecoder(resp.Body).Decode(&build); err != nil {
		return Status{}, fmt.Errorf("decode pages build: %w", err)
	}

	return Status{
		State:     build.Status,
		Error:     build.Error.Message,
		Commit:    build.Commit,
		UpdatedAt: build.UpdatedAt,
	}, nil
}

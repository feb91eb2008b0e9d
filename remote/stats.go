package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"wavesurvival/sim"
)

// ErrNoStats means the server has no record for the username yet
var ErrNoStats = errors.New("no stats yet")

const requestTimeout = 5 * time.Second

// PlayerStats mirrors the server's lifetime stats document
type PlayerStats struct {
	Username         string    `json:"username"`
	TotalPlaytime    int       `json:"totalPlaytime"`
	TotalGamesPlayed int       `json:"totalGamesPlayed"`
	HighScore        int       `json:"highScore"`
	BestWave         int       `json:"bestWave"`
	TotalKills       sim.Kills `json:"totalKills"`
	TotalDeaths      int       `json:"totalDeaths"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type submission struct {
	Username   string    `json:"username"`
	Score      int       `json:"score"`
	Wave       int       `json:"wave"`
	Kills      sim.Kills `json:"kills"`
	Playtime   int       `json:"playtime"`
	Difficulty string    `json:"difficulty"`
	DidDie     bool      `json:"didDie"`
}

type submitResponse struct {
	Stats PlayerStats `json:"stats"`
}

// StatsClient talks to the stats API for one username. It implements
// sim.ResultSink: Submit returns immediately and the POST runs in the
// background. Reads fall back to the last stats seen.
type StatsClient struct {
	base     string
	username string
	token    string
	http     *http.Client
	log      *slog.Logger

	wg sync.WaitGroup

	mu     sync.RWMutex
	cached *PlayerStats
}

// StatsOptions configures NewStatsClient
type StatsOptions struct {
	Token      string // bearer token for reserved usernames
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewStatsClient builds a client against server (e.g. http://localhost:1962)
func NewStatsClient(server, username string, opts StatsOptions) *StatsClient {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: requestTimeout}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &StatsClient{
		base:     strings.TrimRight(server, "/"),
		username: username,
		token:    opts.Token,
		http:     hc,
		log:      log,
	}
}

// Submit posts a finished session in the background
func (c *StatsClient) Submit(r sim.Result) {
	body := submission{
		Username:   c.username,
		Score:      r.Score,
		Wave:       r.Wave,
		Kills:      r.Kills,
		Playtime:   r.Playtime,
		Difficulty: string(r.Difficulty),
		DidDie:     r.DidDie,
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := c.post(ctx, body); err != nil {
			c.log.Warn("stats: submit failed", "username", c.username, "err", err)
		}
	}()
}

// Wait blocks until every pending Submit has finished
func (c *StatsClient) Wait() {
	c.wg.Wait()
}

func (c *StatsClient) post(ctx context.Context, body submission) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/scores", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return statusError(resp)
	}
	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	c.remember(out.Stats)
	return nil
}

// Load fetches the latest stats. A missing record yields ErrNoStats. Any
// other failure returns the cached stats, if there are some, along with
// the error.
func (c *StatsClient) Load(ctx context.Context) (PlayerStats, error) {
	stats, err := c.fetch(ctx)
	if err == nil {
		c.remember(stats)
		return stats, nil
	}
	if errors.Is(err, ErrNoStats) {
		c.mu.Lock()
		c.cached = nil
		c.mu.Unlock()
		return PlayerStats{}, err
	}
	if cached, ok := c.Cached(); ok {
		c.log.Debug("stats: using cached copy", "username", c.username, "err", err)
		return cached, err
	}
	return PlayerStats{}, err
}

// Cached returns the last stats seen, if any
func (c *StatsClient) Cached() (PlayerStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cached == nil {
		return PlayerStats{}, false
	}
	return *c.cached, true
}

func (c *StatsClient) remember(s PlayerStats) {
	c.mu.Lock()
	c.cached = &s
	c.mu.Unlock()
}

func (c *StatsClient) fetch(ctx context.Context) (PlayerStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/stats/"+url.PathEscape(c.username), nil)
	if err != nil {
		return PlayerStats{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return PlayerStats{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return PlayerStats{}, ErrNoStats
	default:
		return PlayerStats{}, statusError(resp)
	}
	var s PlayerStats
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return PlayerStats{}, fmt.Errorf("decode stats: %w", err)
	}
	return s, nil
}

func statusError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		return fmt.Errorf("stats api: %s: %s", resp.Status, body.Message)
	}
	return fmt.Errorf("stats api: %s", resp.Status)
}

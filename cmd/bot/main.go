// Command bot runs headless survival sessions against a leaderboard
// server, reporting live progress and submitting each finished run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wavesurvival/internal/logging"
	"wavesurvival/protocol"
	"wavesurvival/remote"
	"wavesurvival/sim"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		os.Exit(1)
	}

	server := flag.String("server", envOr("BOT_SERVER", "http://localhost:1962"), "server base URL")
	count := flag.Int("bots", 4, "number of concurrent sessions")
	duration := flag.Duration("duration", time.Minute, "how long to play (0 runs until interrupted)")
	difficulty := flag.String("difficulty", "medium", "easy, medium or hard")
	seed := flag.Int64("seed", time.Now().UnixNano(), "base RNG seed")
	enc := flag.String("enc", "json", "snapshot encoding: json or msgpack")
	tick := flag.Duration("tick", 50*time.Millisecond, "simulation step")
	fire := flag.Duration("fire", 250*time.Millisecond, "time between shots")
	token := flag.String("token", os.Getenv("BOT_TOKEN"), "bearer token when playing as a reserved username")
	name := flag.String("name", "", "base username (default: random Player-xxxxxxxx)")
	logLevel := flag.String("log-level", envOr("LOG_LEVEL", "info"), "debug, info, warn or error")
	flag.Parse()

	log := logging.Setup(*logLevel)

	diff, ok := sim.ParseDifficulty(*difficulty)
	if !ok {
		log.Warn("unknown difficulty, using medium", "difficulty", *difficulty)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	base := *name
	if base == "" {
		base = remote.NewBaseUsername()
	}
	rng := rand.New(rand.NewSource(*seed))

	var wg sync.WaitGroup
	results := make([]botStats, *count)
	for i := 0; i < *count; i++ {
		username := remote.SessionUsername(base, remote.NewTabID(rng))
		botSeed := rng.Int63()

		lb, err := remote.DialLeaderboard(ctx, *server, username, remote.LeaderboardOptions{
			Encoding: protocol.ParseEncoding(*enc),
			Logger:   log,
		})
		if err != nil {
			// play offline; the nil client ignores reports
			log.Warn("leaderboard unavailable", "bot", username, "err", err)
		}
		stats := remote.NewStatsClient(*server, username, remote.StatsOptions{Token: *token, Logger: log})

		b := &bot{
			name: username,
			sim: sim.New(sim.Options{
				Seed:       botSeed,
				Difficulty: diff,
				World:      true,
				Reporter:   lb,
				Results:    stats,
			}),
			tick:    *tick,
			fireGap: *fire,
			log:     log,
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = b.run(ctx)
			stats.Wait()
			lb.Close()
			if s, err := stats.Load(context.Background()); err == nil {
				log.Info("lifetime stats", "bot", username, "games", s.TotalGamesPlayed, "highScore", s.HighScore, "bestWave", s.BestWave)
			}
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		log.Info("bot finished", "index", i, "sessions", r.sessions, "bestScore", r.bestScore, "bestWave", r.bestWave)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

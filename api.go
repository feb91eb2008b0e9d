package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wavesurvival/protocol"
	"wavesurvival/sim"
)

const (
	topScoresLimit = 10
	topStatsLimit  = 100
	maxBodyBytes   = 16 << 10
)

var errUsernameRequired = errors.New("Username is required.")

// API serves the stats endpoints
type API struct {
	db       *DB
	auth     *Auth
	activity *Activity
	log      *slog.Logger
}

type killsRequest struct {
	Zombies protocol.Number `json:"zombies"`
	Titans  protocol.Number `json:"titans"`
}

// scoreRequest is deliberately loose: every field may be missing or of
// the wrong type and falls back to a default.
type scoreRequest struct {
	Username   any             `json:"username"`
	Score      protocol.Number `json:"score"`
	Wave       protocol.Number `json:"wave"`
	Kills      *killsRequest   `json:"kills"`
	Playtime   protocol.Number `json:"playtime"`
	Difficulty any             `json:"difficulty"`
	DidDie     any             `json:"didDie"`
}

type scoreResponse struct {
	Score ScoreRow `json:"score"`
	Stats StatsRow `json:"stats"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// toScoreRow normalizes a submission the way the game client expects:
// wave at least 1, counters never negative, unknown difficulty is medium,
// didDie true unless explicitly false.
func (req scoreRequest) toScoreRow() (ScoreRow, error) {
	name, _ := req.Username.(string)
	name = protocol.CleanUsername(name)
	if name == "" {
		return ScoreRow{}, errUsernameRequired
	}

	var kills sim.Kills
	if req.Kills != nil {
		kills.Zombies = max(0, req.Kills.Zombies.IntOr(0))
		kills.Titans = max(0, req.Kills.Titans.IntOr(0))
	}

	diff := sim.Medium
	if s, ok := req.Difficulty.(string); ok {
		diff, _ = sim.ParseDifficulty(s)
	}

	didDie := true
	if b, ok := req.DidDie.(bool); ok && !b {
		didDie = false
	}

	return ScoreRow{
		Username:   name,
		Score:      max(0, req.Score.IntOr(0)),
		Wave:       max(1, req.Wave.IntOr(1)),
		Kills:      kills,
		Playtime:   max(0, req.Playtime.IntOr(0)),
		Difficulty: string(diff),
		DidDie:     didDie,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (a *API) handleTopScores(w http.ResponseWriter, r *http.Request) {
	scores, err := a.db.TopScores(topScoresLimit)
	if err != nil {
		a.log.Error("top scores", "err", err)
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (a *API) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	row, err := req.toScoreRow()
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.auth.Authorize(row.Username, r.Header.Get("Authorization")); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			writeMessage(w, http.StatusUnauthorized, "this username is reserved")
			return
		}
		a.log.Error("authorize submission", "username", row.Username, "err", err)
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	saved, stats, err := a.db.SaveResult(row)
	if err != nil {
		a.log.Error("save score", "username", row.Username, "err", err)
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	a.activity.Track(EvtScoreSubmitted, saved.Username, "", map[string]any{
		"score":      saved.Score,
		"wave":       saved.Wave,
		"difficulty": saved.Difficulty,
		"didDie":     saved.DidDie,
	})
	a.log.Info("score saved", "username", saved.Username, "score", saved.Score, "wave", saved.Wave)
	writeJSON(w, http.StatusCreated, scoreResponse{Score: saved, Stats: stats})
}

func (a *API) handleTopStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.db.TopStats(topStatsLimit)
	if err != nil {
		a.log.Error("top stats", "err", err)
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		writeMessage(w, http.StatusBadRequest, errUsernameRequired.Error())
		return
	}
	stats, err := a.db.GetStats(username)
	if errors.Is(err, ErrStatsNotFound) {
		writeMessage(w, http.StatusNotFound, "Player stats not found")
		return
	}
	if err != nil {
		a.log.Error("player stats", "username", username, "err", err)
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	username := strings.TrimSpace(req.Username)
	token, err := a.auth.Register(username, req.Password)
	switch {
	case errors.Is(err, ErrUsernameTaken):
		writeMessage(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	a.activity.Track(EvtAccountCreated, username, "", nil)
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, Username: username})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := a.auth.Login(req.Username, req.Password, extractIP(r))
	switch {
	case errors.Is(err, ErrRateLimited):
		writeMessage(w, http.StatusTooManyRequests, err.Error())
		return
	case errors.Is(err, ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		a.log.Error("login", "err", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, Username: strings.TrimSpace(req.Username)})
}

func (a *API) handleActivity(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			writeMessage(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = n
	}
	summary, err := a.activity.Summary(days)
	if err != nil {
		a.log.Error("activity summary", "err", err)
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

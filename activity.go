package main

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Activity event types
const (
	EvtLeaderboardJoin  = "leaderboard_join"
	EvtLeaderboardLeave = "leaderboard_leave"
	EvtScoreSubmitted   = "score_submitted"
	EvtAccountCreated   = "account_created"
)

const (
	activityBufSize    = 1024
	activityBatchSize  = 50
	activityFlushEvery = 5 * time.Second
)

// ActivityEvent is a single tracked event
type ActivityEvent struct {
	Type         string
	Username     string
	ConnectionID string
	Data         string // JSON, optional
	Timestamp    time.Time
}

// Activity records server events with batched background writes
type Activity struct {
	db     *DB
	log    *slog.Logger
	events chan ActivityEvent
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewActivity starts the background writer
func NewActivity(db *DB, log *slog.Logger) *Activity {
	a := &Activity{
		db:     db,
		log:    log,
		events: make(chan ActivityEvent, activityBufSize),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event without blocking. A nil Activity ignores it.
func (a *Activity) Track(evtType, username, connID string, data map[string]any) {
	if a == nil {
		return
	}
	evt := ActivityEvent{
		Type:         evtType,
		Username:     username,
		ConnectionID: connID,
		Timestamp:    time.Now().UTC(),
	}
	if len(data) > 0 {
		if b, err := json.Marshal(data); err == nil {
			evt.Data = string(b)
		}
	}
	select {
	case a.events <- evt:
	default:
		// full, drop rather than stall the hub
	}
}

// Close flushes pending events and stops the writer
func (a *Activity) Close() {
	if a == nil {
		return
	}
	a.once.Do(func() { close(a.stop) })
	a.wg.Wait()
}

func (a *Activity) writer() {
	defer a.wg.Done()

	batch := make([]ActivityEvent, 0, activityBatchSize)
	ticker := time.NewTicker(activityFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= activityBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

func (a *Activity) flush(events []ActivityEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		a.log.Error("activity: begin tx", "err", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO activity_events (event_type, username, connection_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		a.log.Error("activity: prepare", "err", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		user := sql.NullString{String: evt.Username, Valid: evt.Username != ""}
		conn := sql.NullString{String: evt.ConnectionID, Valid: evt.ConnectionID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, user, conn, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			a.log.Error("activity: insert", "type", evt.Type, "err", err)
		}
	}
	if err := tx.Commit(); err != nil {
		a.log.Error("activity: commit", "err", err)
	}
}

// ActivitySummary is served by GET /api/activity
type ActivitySummary struct {
	Days        int            `json:"days"`
	DailyActive int            `json:"dailyActive"`
	Events      map[string]int `json:"events"`
	History     []DayCount     `json:"history"`
}

// DayCount holds a count for a specific day
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Summary aggregates the last days of activity
func (a *Activity) Summary(days int) (ActivitySummary, error) {
	s := ActivitySummary{Days: days, Events: map[string]int{}, History: []DayCount{}}
	var err error
	if s.DailyActive, err = a.DAUCount(); err != nil {
		return s, err
	}
	if s.Events, err = a.EventCounts(days); err != nil {
		return s, err
	}
	if s.History, err = a.DailyActiveHistory(days); err != nil {
		return s, err
	}
	return s, nil
}

// DAUCount returns the number of distinct usernames seen today
func (a *Activity) DAUCount() (int, error) {
	var count int
	err := a.db.conn.QueryRow(`
		SELECT COUNT(DISTINCT username) FROM activity_events
		WHERE username IS NOT NULL AND created_at >= date('now')
	`).Scan(&count)
	return count, err
}

// EventCounts returns counts of each event type for the last N days
func (a *Activity) EventCounts(days int) (map[string]int, error) {
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM activity_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			return nil, err
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// DailyActiveHistory returns distinct usernames per day for the last N days
func (a *Activity) DailyActiveHistory(days int) ([]DayCount, error) {
	rows, err := a.db.conn.Query(`
		SELECT date(created_at) AS day, COUNT(DISTINCT username)
		FROM activity_events
		WHERE username IS NOT NULL AND created_at >= date('now', '-' || ? || ' days')
		GROUP BY day ORDER BY day
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []DayCount{}
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		result = append(result, dc)
	}
	return result, rows.Err()
}

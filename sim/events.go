package sim

// EventKind identifies something that happened during a tick
type EventKind int

const (
	EventEnemySpawned EventKind = iota
	EventEnemyHit
	EventEnemyKilled
	EventPlayerDamaged
	EventProjectileFired
	EventItemDropped
	EventItemCollected
	EventWaveAdvanced
)

var eventNames = [...]string{
	EventEnemySpawned:    "enemy_spawned",
	EventEnemyHit:        "enemy_hit",
	EventEnemyKilled:     "enemy_killed",
	EventPlayerDamaged:   "player_damaged",
	EventProjectileFired: "projectile_fired",
	EventItemDropped:     "item_dropped",
	EventItemCollected:   "item_collected",
	EventWaveAdvanced:    "wave_advanced",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is a single simulation occurrence. Only the fields relevant to
// the kind are set.
type Event struct {
	Kind     EventKind
	EntityID uint64
	Enemy    Kind
	Item     ItemKind
	Amount   int
	Wave     int
	Pos      Vec3
}

// EventLog collects events until the presentation layer drains them
type EventLog struct {
	events []Event
}

func (l *EventLog) emit(e Event) {
	if l == nil {
		return
	}
	l.events = append(l.events, e)
}

// Drain returns all pending events and clears the log
func (l *EventLog) Drain() []Event {
	if l == nil || len(l.events) == 0 {
		return nil
	}
	out := l.events
	l.events = nil
	return out
}

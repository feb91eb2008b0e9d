package sim

const (
	HealthPackAmount = 25
	AmmoPackAmount   = 20
	ItemRadius       = 1.0
	ItemHeight       = 0.5
)

// ItemKind tags a loot variant
type ItemKind int

const (
	HealthPack ItemKind = iota
	AmmoPack
)

func (k ItemKind) String() string {
	switch k {
	case HealthPack:
		return "health"
	case AmmoPack:
		return "ammo"
	}
	return "unknown"
}

// Item is a collectible dropped by a dead enemy
type Item struct {
	ID        uint64
	Kind      ItemKind
	Pos       Vec3
	Amount    int
	Radius    float64
	collected bool
}

// NewItem places loot on the ground below pos
func NewItem(id uint64, kind ItemKind, pos Vec3) *Item {
	amount := AmmoPackAmount
	if kind == HealthPack {
		amount = HealthPackAmount
	}
	return &Item{
		ID:     id,
		Kind:   kind,
		Pos:    Vec3{X: pos.X, Y: ItemHeight, Z: pos.Z},
		Amount: amount,
		Radius: ItemRadius,
	}
}

// Collected reports whether the item has been picked up
func (it *Item) Collected() bool { return it.collected }

// eligible reports whether the effect would change anything
func (it *Item) eligible(p *Player) bool {
	switch it.Kind {
	case HealthPack:
		return p.Health < p.MaxHealth
	case AmmoPack:
		return p.Ammo < p.MaxAmmo
	}
	return false
}

// TryCollect applies the item to p when in reach and useful.
// Returns true if the item was consumed by this call.
func (it *Item) TryCollect(p *Player) bool {
	if it.collected {
		return false
	}
	if p.Pos.Dist(it.Pos) >= it.Radius+PlayerRadius {
		return false
	}
	if !it.eligible(p) {
		return false
	}
	switch it.Kind {
	case HealthPack:
		p.Heal(it.Amount)
	case AmmoPack:
		p.AddAmmo(it.Amount)
	}
	it.collected = true
	return true
}

// ItemField owns every item lying in the world
type ItemField struct {
	items []*Item
}

// Spawn drops a new item and returns it
func (f *ItemField) Spawn(id uint64, kind ItemKind, pos Vec3) *Item {
	it := NewItem(id, kind, pos)
	f.items = append(f.items, it)
	return it
}

// Update tries every item against the player then purges the collected ones
func (f *ItemField) Update(p *Player, events *EventLog) {
	for _, it := range f.items {
		if it.TryCollect(p) {
			events.emit(Event{Kind: EventItemCollected, EntityID: it.ID, Item: it.Kind, Amount: it.Amount, Pos: it.Pos})
		}
	}
	f.compact()
}

func (f *ItemField) compact() {
	live := f.items[:0]
	for _, it := range f.items {
		if !it.collected {
			live = append(live, it)
		}
	}
	for i := len(live); i < len(f.items); i++ {
		f.items[i] = nil
	}
	f.items = live
}

// Items returns the uncollected items
func (f *ItemField) Items() []*Item { return f.items }

// Reset removes every item
func (f *ItemField) Reset() { f.items = nil }

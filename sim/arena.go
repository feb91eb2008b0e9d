package sim

// EntityType is the coarse category of a dynamic entity
type EntityType int

const (
	EntityEnemy EntityType = iota
	EntityProjectile
	EntityItem
)

// Entity is a read-only view of something a presentation layer may draw
type Entity struct {
	ID    uint64
	Type  EntityType
	Enemy Kind     // EntityEnemy, and the owner of an EntityProjectile
	Item  ItemKind // EntityItem
	Pos   Vec3
	Yaw   float64
}

// Arena is the set of live dynamic entities keyed by id
type Arena map[uint64]Entity

// Presenter mirrors arena membership. The simulation calls Attach for
// entities that appeared and Detach for ones that left since the last tick.
type Presenter interface {
	Attach(Entity)
	Detach(Entity)
}

// Entities builds the current arena: live enemies, their projectiles and
// uncollected items.
func (s *Simulation) Entities() Arena {
	a := Arena{}
	for _, e := range s.waves.Enemies() {
		if !e.Alive() {
			continue
		}
		a[e.ID] = Entity{ID: e.ID, Type: EntityEnemy, Enemy: e.Kind, Pos: e.Pos, Yaw: e.Yaw}
		for _, p := range e.Projectiles {
			a[p.ID] = Entity{ID: p.ID, Type: EntityProjectile, Enemy: e.Kind, Pos: p.Pos}
		}
	}
	for _, it := range s.items.Items() {
		if !it.Collected() {
			a[it.ID] = Entity{ID: it.ID, Type: EntityItem, Item: it.Kind, Pos: it.Pos}
		}
	}
	return a
}

func (s *Simulation) reconcile() {
	if s.presenter == nil {
		return
	}
	current := s.Entities()
	for id, e := range s.attached {
		if _, ok := current[id]; !ok {
			s.presenter.Detach(e)
			delete(s.attached, id)
		}
	}
	for id, e := range current {
		if _, ok := s.attached[id]; !ok {
			s.presenter.Attach(e)
		}
		s.attached[id] = e
	}
}

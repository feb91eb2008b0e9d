package sim

import (
	"math/rand"
	"time"
)

type dummyTarget struct {
	pos   Vec3
	taken int
}

func (d *dummyTarget) Position() Vec3 { return d.pos }

func (d *dummyTarget) TakeDamage(amount int) { d.taken += amount }

func newEngagement(target Target, idx *CollisionIndex) *engagement {
	var id uint64
	return &engagement{
		dt:        0.1,
		target:    target,
		obstacles: idx,
		rng:       rand.New(rand.NewSource(1)),
		nextID:    func() uint64 { id++; return id },
		events:    &EventLog{},
	}
}

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type report struct{ score, wave int }

type recordingReporter struct {
	reports []report
	stops   int
}

func (r *recordingReporter) Report(score, wave int) {
	r.reports = append(r.reports, report{score, wave})
}

func (r *recordingReporter) Stop() { r.stops++ }

func (r *recordingReporter) last() report {
	if len(r.reports) == 0 {
		return report{-1, -1}
	}
	return r.reports[len(r.reports)-1]
}

type recordingSink struct{ results []Result }

func (s *recordingSink) Submit(r Result) { s.results = append(s.results, r) }

type recordingPresenter struct {
	attached map[uint64]Entity
	detached []Entity
}

func (p *recordingPresenter) Attach(e Entity) {
	if p.attached == nil {
		p.attached = map[uint64]Entity{}
	}
	p.attached[e.ID] = e
}

func (p *recordingPresenter) Detach(e Entity) {
	delete(p.attached, e.ID)
	p.detached = append(p.detached, e)
}

package scene

import "fmt"

// DirtyStrategy selects how a mutation is propagated to every frame slot.
type DirtyStrategy string

const (
	// StrategyCountdown resets a counter to the slot count on mutation and
	// decrements it on each write. It assumes one write per advanced slot.
	StrategyCountdown DirtyStrategy = "countdown"

	// StrategyGeneration bumps a version on mutation and remembers the
	// version each slot last received.
	StrategyGeneration DirtyStrategy = "generation"
)

// ParseStrategy validates a configured strategy name.
func ParseStrategy(s string) (DirtyStrategy, error) {
	switch DirtyStrategy(s) {
	case StrategyCountdown, StrategyGeneration:
		return DirtyStrategy(s), nil
	case "":
		return StrategyGeneration, nil
	default:
		return "", fmt.Errorf("scene: unknown dirty strategy %q", s)
	}
}

// Tracker records which frame slots still hold stale data for one entity.
// A new tracker starts dirty for every slot.
type Tracker interface {
	// Mark records a mutation.
	Mark()

	// NeedsWrite reports whether slot must be rewritten.
	NeedsWrite(slot int) bool

	// Written records that slot received the current data.
	Written(slot int)

	// Pending returns how many slot writes are still owed.
	Pending() int
}

// NewTracker builds a tracker for a ring of the given size.
func NewTracker(strategy DirtyStrategy, slots int) Tracker {
	if strategy == StrategyCountdown {
		return &countdown{slots: slots, count: slots}
	}
	g := &generation{version: 1, written: make([]uint64, slots)}
	return g
}

type countdown struct {
	slots int
	count int
}

func (c *countdown) Mark()               { c.count = c.slots }
func (c *countdown) NeedsWrite(int) bool { return c.count > 0 }
func (c *countdown) Pending() int        { return c.count }

func (c *countdown) Written(int) {
	if c.count > 0 {
		c.count--
	}
}

type generation struct {
	version uint64
	written []uint64
}

func (g *generation) Mark() { g.version++ }

func (g *generation) NeedsWrite(slot int) bool {
	return slot >= len(g.written) || g.written[slot] != g.version
}

func (g *generation) Written(slot int) {
	for slot >= len(g.written) {
		g.written = append(g.written, 0)
	}
	g.written[slot] = g.version
}

func (g *generation) Pending() int {
	n := 0
	for _, v := range g.written {
		if v != g.version {
			n++
		}
	}
	return n
}

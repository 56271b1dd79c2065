package water

import (
	"golang.org/x/exp/rand"
)

// disturbMargin keeps random ripples away from the moat edges.
const disturbMargin = 4

// Disturber drops a random ripple into a Waves field at a fixed cadence.
type Disturber struct {
	waves    *Waves
	rng      *rand.Rand
	interval float32
	minMag   float32
	maxMag   float32

	elapsed float32
	count   int
}

// NewDisturber returns a Disturber that fires every interval seconds with a
// magnitude drawn uniformly from [minMag, maxMag]. The same seed reproduces
// the same sequence of disturbances.
func NewDisturber(w *Waves, interval, minMag, maxMag float32, seed uint64) *Disturber {
	if maxMag < minMag {
		minMag, maxMag = maxMag, minMag
	}
	return &Disturber{
		waves:    w,
		rng:      rand.New(rand.NewSource(seed)),
		interval: interval,
		minMag:   minMag,
		maxMag:   maxMag,
	}
}

// Count returns the number of disturbances applied so far.
func (d *Disturber) Count() int {
	return d.count
}

// Update advances the cadence clock by dt and applies one disturbance per
// elapsed interval. It returns how many were applied.
func (d *Disturber) Update(dt float32) int {
	if d.interval <= 0 {
		return 0
	}
	d.elapsed += dt
	n := 0
	for d.elapsed >= d.interval {
		d.elapsed -= d.interval
		row := d.pick(d.waves.RowCount())
		col := d.pick(d.waves.ColumnCount())
		mag := d.minMag + d.rng.Float32()*(d.maxMag-d.minMag)
		d.waves.Disturb(row, col, mag)
		d.count++
		n++
	}
	return n
}

// pick returns an index in [disturbMargin, size-1-disturbMargin], shrinking
// the margin to one cell for small grids.
func (d *Disturber) pick(size int) int {
	lo, hi := disturbMargin, size-1-disturbMargin
	if hi < lo {
		lo, hi = 1, size-2
	}
	return lo + d.rng.Intn(hi-lo+1)
}

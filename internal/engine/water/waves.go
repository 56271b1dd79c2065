// Package water simulates the castle moat: a damped 2D wave equation on a
// height field, integrated with an explicit finite-difference scheme at a
// fixed time step.
package water

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/castle-waves/internal/engine/geometry"
	"github.com/Faultbox/castle-waves/pkg/math"
)

var (
	// ErrInvalidGrid is returned for grids without an interior or with
	// non-positive steps.
	ErrInvalidGrid = errors.New("water: invalid grid")

	// ErrUnstable is returned when the time step violates the CFL bound of
	// the explicit scheme, c²·dt²/dx² <= 1/2.
	ErrUnstable = errors.New("water: time step violates stability bound")
)

// maxCourant is the stability bound on c²·dt²/dx² for the five-point stencil.
const maxCourant = 0.5

// Option configures NewWaves.
type Option func(*options)

type options struct {
	checkStability bool
}

// WithStabilityCheck toggles the CFL check done at construction. It is on by
// default.
func WithStabilityCheck(enabled bool) Option {
	return func(o *options) { o.checkStability = enabled }
}

// Waves is a rows x cols height field. Border cells are never integrated and
// keep their initial height of zero.
type Waves struct {
	rows, cols  int
	spatialStep float32
	timeStep    float32

	// courant is c²·dt²/dx².
	courant float32
	k1      float32
	k2      float32
	k3      float32

	accumulated float32

	// three generations, rotated after every step
	prev []float32
	curr []float32
	next []float32

	steps uint64
}

// NewWaves builds a flat height field. speed is the wave propagation speed
// and damping the velocity damping coefficient, both per second.
func NewWaves(rows, cols int, spatialStep, timeStep, speed, damping float32, opts ...Option) (*Waves, error) {
	o := options{checkStability: true}
	for _, opt := range opts {
		opt(&o)
	}

	switch {
	case rows < 3 || cols < 3:
		return nil, fmt.Errorf("%w: %dx%d has no interior", ErrInvalidGrid, rows, cols)
	case spatialStep <= 0 || timeStep <= 0:
		return nil, fmt.Errorf("%w: spatial step %g, time step %g", ErrInvalidGrid, spatialStep, timeStep)
	case speed < 0 || damping < 0:
		return nil, fmt.Errorf("%w: speed %g, damping %g", ErrInvalidGrid, speed, damping)
	}

	courant := speed * speed * timeStep * timeStep / (spatialStep * spatialStep)
	if o.checkStability && courant > maxCourant {
		return nil, fmt.Errorf("%w: c²dt²/dx² = %g > %g", ErrUnstable, courant, maxCourant)
	}

	d := damping*timeStep + 2
	n := rows * cols
	return &Waves{
		rows:        rows,
		cols:        cols,
		spatialStep: spatialStep,
		timeStep:    timeStep,
		courant:     courant,
		k1:          (damping*timeStep - 2) / d,
		k2:          (4 - 8*courant) / d,
		k3:          (2 * courant) / d,
		prev:        make([]float32, n),
		curr:        make([]float32, n),
		next:        make([]float32, n),
	}, nil
}

// RowCount returns the number of grid rows.
func (w *Waves) RowCount() int { return w.rows }

// ColumnCount returns the number of grid columns.
func (w *Waves) ColumnCount() int { return w.cols }

// VertexCount returns rows*cols.
func (w *Waves) VertexCount() int { return w.rows * w.cols }

// TriangleCount returns the number of triangles in the grid mesh.
func (w *Waves) TriangleCount() int { return (w.rows - 1) * (w.cols - 1) * 2 }

// Width returns the extent along X.
func (w *Waves) Width() float32 { return float32(w.cols) * w.spatialStep }

// Depth returns the extent along Z.
func (w *Waves) Depth() float32 { return float32(w.rows) * w.spatialStep }

// TimeStep returns the fixed integration step.
func (w *Waves) TimeStep() float32 { return w.timeStep }

// Steps returns how many integration steps have run.
func (w *Waves) Steps() uint64 { return w.steps }

// Height returns the current height at (row, col).
func (w *Waves) Height(row, col int) float32 {
	return w.curr[row*w.cols+col]
}

func (w *Waves) interior(row, col int) bool {
	return row > 0 && row < w.rows-1 && col > 0 && col < w.cols-1
}

// Disturb raises the cell at (row, col) by magnitude and its four neighbours
// by half of it. The cell must be interior, that is 1 <= row <= RowCount()-2
// and 1 <= col <= ColumnCount()-2, otherwise Disturb panics.
//
// For a cell next to the border (row or col equal to 1 or to the last
// interior index) the neighbours that lie on the border are skipped: only
// the interior neighbours receive magnitude/2. Border heights stay zero.
func (w *Waves) Disturb(row, col int, magnitude float32) {
	if !w.interior(row, col) {
		panic(fmt.Sprintf("water: disturb at (%d,%d) outside interior [1,%d]x[1,%d]",
			row, col, w.rows-2, w.cols-2))
	}
	half := 0.5 * magnitude
	w.curr[row*w.cols+col] += magnitude
	for _, nb := range [4][2]int{{row - 1, col}, {row + 1, col}, {row, col - 1}, {row, col + 1}} {
		if w.interior(nb[0], nb[1]) {
			w.curr[nb[0]*w.cols+nb[1]] += half
		}
	}
}

// Update advances the simulation by dt seconds of wall time, running as many
// fixed steps as have accumulated. A negative or non-finite dt is ignored.
func (w *Waves) Update(dt float32) {
	if !(dt >= 0) || math32.IsInf(dt, 0) {
		return
	}
	w.accumulated += dt
	for w.accumulated >= w.timeStep {
		w.step()
		w.accumulated -= w.timeStep
	}
}

func (w *Waves) step() {
	n := w.cols
	for i := 1; i < w.rows-1; i++ {
		for j := 1; j < n-1; j++ {
			k := i*n + j
			w.next[k] = w.k1*w.prev[k] +
				w.k2*w.curr[k] +
				w.k3*(w.curr[k+n]+w.curr[k-n]+w.curr[k+1]+w.curr[k-1])
		}
	}
	w.prev, w.curr, w.next = w.curr, w.next, w.prev
	w.steps++
}

// Position returns vertex i (row-major) of the current generation.
func (w *Waves) Position(i int) math.Vec3 {
	row, col := i/w.cols, i%w.cols
	halfWidth := 0.5 * float32(w.cols-1) * w.spatialStep
	halfDepth := 0.5 * float32(w.rows-1) * w.spatialStep
	return math.Vec3{
		X: -halfWidth + float32(col)*w.spatialStep,
		Y: w.curr[i],
		Z: halfDepth - float32(row)*w.spatialStep,
	}
}

// Normal returns the finite-difference surface normal at vertex i. Border
// vertices point straight up.
func (w *Waves) Normal(i int) math.Vec3 {
	row, col := i/w.cols, i%w.cols
	if !w.interior(row, col) {
		return math.Vec3{Y: 1}
	}
	l := w.curr[i-1]
	r := w.curr[i+1]
	t := w.curr[i-w.cols]
	b := w.curr[i+w.cols]
	return math.Vec3{X: l - r, Y: 2 * w.spatialStep, Z: b - t}.Normalize()
}

// Tangent returns the unit tangent along +X at vertex i.
func (w *Waves) Tangent(i int) math.Vec3 {
	row, col := i/w.cols, i%w.cols
	if !w.interior(row, col) {
		return math.Vec3{X: 1}
	}
	l := w.curr[i-1]
	r := w.curr[i+1]
	return math.Vec3{X: 2 * w.spatialStep, Y: r - l}.Normalize()
}

// Vertex returns vertex i in the shared mesh format. Texture coordinates
// span the grid so the water texture tiles once per half extent.
func (w *Waves) Vertex(i int) geometry.Vertex {
	p := w.Position(i)
	return geometry.Vertex{
		Pos:    p,
		Normal: w.Normal(i),
		TexC: math.Vec2{
			X: 1 + p.X/w.Width(),
			Y: 1 - p.Z/w.Depth(),
		},
	}
}

// Indices returns the triangle list for the grid.
func (w *Waves) Indices() []uint32 {
	return geometry.GridIndices(w.rows, w.cols)
}

// Energy returns the discrete energy of the leapfrog scheme,
//
//	E = Σ (curr-prev)² - c²dt²/dx² · Σ curr·(Δ prev)
//
// where Δ is the five-point Laplacian. Without disturbances and with
// non-negative damping it never increases from one step to the next.
func (w *Waves) Energy() float64 {
	n := w.cols
	courant := float64(w.courant)
	var kinetic, potential float64
	for i := 1; i < w.rows-1; i++ {
		for j := 1; j < n-1; j++ {
			k := i*n + j
			dv := float64(w.curr[k]) - float64(w.prev[k])
			kinetic += dv * dv
			lap := float64(w.prev[k+n]) + float64(w.prev[k-n]) +
				float64(w.prev[k+1]) + float64(w.prev[k-1]) - 4*float64(w.prev[k])
			potential += float64(w.curr[k]) * lap
		}
	}
	return kinetic - courant*potential
}

// SumSquares returns Σ h² over the current generation.
func (w *Waves) SumSquares() float64 {
	var sum float64
	for _, h := range w.curr {
		sum += float64(h) * float64(h)
	}
	return sum
}

// MaxHeight returns the largest absolute height in the current generation.
func (w *Waves) MaxHeight() float32 {
	var m float32
	for _, h := range w.curr {
		m = math32.Max(m, math32.Abs(h))
	}
	return m
}

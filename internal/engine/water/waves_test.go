package water

import (
	"errors"
	"fmt"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWaves(t *testing.T, rows, cols int) *Waves {
	t.Helper()
	w, err := NewWaves(rows, cols, 1, 0.03, 4, 0.2)
	require.NoError(t, err)
	return w
}

func TestNewWavesValidation(t *testing.T) {
	tests := []struct {
		name string
		rows int
		cols int
		dx   float32
		dt   float32
		want error
	}{
		{"no interior", 2, 8, 1, 0.03, ErrInvalidGrid},
		{"zero spatial step", 8, 8, 0, 0.03, ErrInvalidGrid},
		{"negative time step", 8, 8, 1, -0.03, ErrInvalidGrid},
		{"unstable", 8, 8, 0.1, 0.03, ErrUnstable},
		{"ok", 8, 8, 1, 0.03, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWaves(tt.rows, tt.cols, tt.dx, tt.dt, 4, 0.2)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := NewWaves(8, 8, 0.1, 0.03, 4, 0.2, WithStabilityCheck(false))
	assert.NoError(t, err)
}

func TestDimensions(t *testing.T) {
	w, err := NewWaves(3, 5, 2, 0.03, 4, 0.2)
	require.NoError(t, err)

	assert.Equal(t, 3, w.RowCount())
	assert.Equal(t, 5, w.ColumnCount())
	assert.Equal(t, 15, w.VertexCount())
	assert.Equal(t, 16, w.TriangleCount())
	assert.Equal(t, float32(10), w.Width())
	assert.Equal(t, float32(6), w.Depth())
	assert.Len(t, w.Indices(), 3*w.TriangleCount())

	first := w.Position(0)
	assert.Equal(t, float32(-4), first.X)
	assert.Equal(t, float32(2), first.Z)
	last := w.Position(14)
	assert.Equal(t, float32(4), last.X)
	assert.Equal(t, float32(-2), last.Z)
}

func TestDisturbRoundTrip(t *testing.T) {
	w := newTestWaves(t, 6, 6)
	idx := 2*6 + 3

	before := w.Position(idx).Y
	w.Disturb(2, 3, 0.75)
	assert.Equal(t, before+0.75, w.Position(idx).Y)
	assert.Equal(t, float32(0.375), w.Height(1, 3))
	assert.Equal(t, float32(0.375), w.Height(2, 4))
}

func TestDisturbOutsideInteriorPanics(t *testing.T) {
	w := newTestWaves(t, 6, 6)
	for _, rc := range [][2]int{{0, 2}, {5, 2}, {2, 0}, {2, 5}, {-1, 3}} {
		assert.Panics(t, func() { w.Disturb(rc[0], rc[1], 1) }, "(%d,%d)", rc[0], rc[1])
	}
	assert.NotPanics(t, func() { w.Disturb(1, 1, 1) })
	assert.NotPanics(t, func() { w.Disturb(4, 4, 1) })
}

func TestDisturbNextToBorderKeepsBorder(t *testing.T) {
	w := newTestWaves(t, 6, 6)
	w.Disturb(1, 1, 1)
	assert.Equal(t, float32(0), w.Height(0, 1))
	assert.Equal(t, float32(0), w.Height(1, 0))
	assert.Equal(t, float32(0.5), w.Height(2, 1))
	assert.Equal(t, float32(0.5), w.Height(1, 2))
	assert.Equal(t, float32(1), w.Height(1, 1))

	// last interior cell: both border neighbours skipped
	w.Disturb(4, 4, 2)
	assert.Equal(t, float32(0), w.Height(5, 4))
	assert.Equal(t, float32(0), w.Height(4, 5))
	assert.Equal(t, float32(1), w.Height(3, 4))
	assert.Equal(t, float32(1), w.Height(4, 3))
}

func TestSingleStepStencil(t *testing.T) {
	w := newTestWaves(t, 6, 6)
	w.Disturb(2, 2, 1)
	w.Update(w.TimeStep())
	require.Equal(t, uint64(1), w.Steps())

	for _, rc := range [][2]int{{1, 2}, {3, 2}, {2, 1}, {2, 3}} {
		assert.NotZero(t, w.Height(rc[0], rc[1]), "neighbour (%d,%d)", rc[0], rc[1])
	}
	// cells out of reach of the disturbance plus one stencil application
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			dist := abs(i-2) + abs(j-2)
			if dist >= 3 {
				assert.Equal(t, float32(0), w.Height(i, j), "cell (%d,%d)", i, j)
			}
		}
	}
}

func TestUpdateFixedTimestep(t *testing.T) {
	w, err := NewWaves(8, 8, 1, 0.25, 1, 0.1)
	require.NoError(t, err)

	w.Update(0.125)
	assert.Equal(t, uint64(0), w.Steps())
	w.Update(0.125)
	assert.Equal(t, uint64(1), w.Steps())
	w.Update(1)
	assert.Equal(t, uint64(5), w.Steps())
	w.Update(0)
	assert.Equal(t, uint64(5), w.Steps())
}

func TestUpdateIgnoresBadTimeDelta(t *testing.T) {
	for _, dt := range []float32{math32.NaN(), math32.Inf(1), math32.Inf(-1), -0.5} {
		t.Run(fmt.Sprint(dt), func(t *testing.T) {
			w, err := NewWaves(8, 8, 1, 0.25, 1, 0.1)
			require.NoError(t, err)

			w.Update(0.125)
			w.Update(dt)
			assert.Equal(t, uint64(0), w.Steps())

			// the accumulator still works afterwards
			w.Update(0.125)
			assert.Equal(t, uint64(1), w.Steps())
			w.Update(0.5)
			assert.Equal(t, uint64(3), w.Steps())
		})
	}
}

func TestBorderInvariant(t *testing.T) {
	w := newTestWaves(t, 16, 12)
	d := NewDisturber(w, 0.1, 0.2, 0.5, 7)

	for frame := 0; frame < 300; frame++ {
		d.Update(1.0 / 60)
		w.Update(1.0 / 60)
		for i := 0; i < w.RowCount(); i++ {
			for j := 0; j < w.ColumnCount(); j++ {
				if i == 0 || j == 0 || i == w.RowCount()-1 || j == w.ColumnCount()-1 {
					require.Equal(t, float32(0), w.Height(i, j), "frame %d border (%d,%d)", frame, i, j)
				}
			}
		}
	}
	assert.Greater(t, d.Count(), 0)
	assert.Greater(t, w.MaxHeight(), float32(0))
}

func TestEnergyNonIncreasing(t *testing.T) {
	w := newTestWaves(t, 16, 16)
	w.Disturb(5, 6, 1)
	w.Disturb(9, 9, 0.5)

	e0 := w.Energy()
	require.Greater(t, e0, 0.0)
	sq0 := w.SumSquares()

	prev := e0
	for step := 0; step < 2000; step++ {
		w.Update(w.TimeStep())
		e := w.Energy()
		require.LessOrEqual(t, e, prev+1e-4*e0, "step %d", step)
		require.GreaterOrEqual(t, e, -1e-4*e0, "step %d", step)
		prev = e
	}
	assert.Less(t, prev, 0.01*e0)
	assert.Less(t, w.SumSquares(), 0.05*sq0)
}

func TestEnergyConservedWithoutDamping(t *testing.T) {
	w, err := NewWaves(12, 12, 1, 0.03, 4, 0)
	require.NoError(t, err)
	w.Disturb(6, 6, 1)

	e0 := w.Energy()
	for step := 0; step < 200; step++ {
		w.Update(w.TimeStep())
	}
	assert.InEpsilon(t, e0, w.Energy(), 1e-3)
}

func TestNormal(t *testing.T) {
	w := newTestWaves(t, 6, 6)
	assert.Equal(t, float32(1), w.Normal(0).Y)

	w.Disturb(2, 2, 1)
	right := w.Normal(2*6 + 3)
	assert.Greater(t, right.X, float32(0), "normal leans away from the crest")
	assert.InDelta(t, 1, right.Length(), 1e-5)

	below := w.Normal(3*6 + 2)
	assert.Less(t, below.Z, float32(0))

	flat := w.Normal(4*6 + 4)
	assert.Equal(t, float32(1), flat.Y)

	tan := w.Tangent(2*6 + 3)
	assert.InDelta(t, 0, tan.Dot(right), 1e-5)
}

func TestVertexTexCoords(t *testing.T) {
	w := newTestWaves(t, 5, 5)
	v := w.Vertex(0)
	assert.Equal(t, w.Position(0), v.Pos)
	assert.InDelta(t, 1+v.Pos.X/w.Width(), v.TexC.X, 1e-6)
	assert.InDelta(t, 1-v.Pos.Z/w.Depth(), v.TexC.Y, 1e-6)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

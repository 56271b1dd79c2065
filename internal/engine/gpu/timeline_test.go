package gpu

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManualWaitReturnsImmediatelyWhenReached(t *testing.T) {
	m := NewManual()
	require.NoError(t, m.Signal(1))
	m.Complete(1)

	done := make(chan error, 1)
	go func() { done <- m.Wait(1) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on an already completed value")
	}
}

func TestManualWaitBlocksUntilComplete(t *testing.T) {
	m := NewManual()
	require.NoError(t, m.Signal(1))
	require.NoError(t, m.Signal(2))

	done := make(chan error, 1)
	go func() { done <- m.Wait(2) }()

	m.Complete(1)
	select {
	case <-done:
		t.Fatal("Wait returned before value 2 completed")
	case <-time.After(20 * time.Millisecond):
	}

	m.Complete(2)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not wake after Complete")
	}
}

func TestManualSignalOrder(t *testing.T) {
	m := NewManual()
	require.NoError(t, m.Signal(3))
	err := m.Signal(3)
	assert.True(t, errors.Is(err, ErrFenceOrder), "got %v", err)
}

func TestManualLoseWakesWaiters(t *testing.T) {
	m := NewManual()
	require.NoError(t, m.Signal(1))

	done := make(chan error, 1)
	go func() { done <- m.Wait(1) }()
	m.Lose(errors.New("driver reset"))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrDeviceLost)
	case <-time.After(time.Second):
		t.Fatal("Lose did not wake the waiter")
	}
}

func TestSoftQueueRetiresInOrder(t *testing.T) {
	q := NewSoftQueue(zap.NewNop(), 0, 8)
	defer q.Close()

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		require.NoError(t, q.Submit(func() error {
			order = append(order, i)
			return nil
		}))
		require.NoError(t, q.Signal(uint64(i)))
	}

	require.NoError(t, q.Wait(3))
	assert.Equal(t, uint64(3), q.Completed())
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestSoftQueueWorkFailureLosesDevice(t *testing.T) {
	q := NewSoftQueue(zap.NewNop(), 0, 8)
	defer q.Close()

	require.NoError(t, q.Submit(func() error { return errors.New("hang") }))
	require.NoError(t, q.Signal(1))

	err := q.Wait(1)
	assert.ErrorIs(t, err, ErrDeviceLost)
	assert.Equal(t, uint64(0), q.Completed())
}

func TestSoftQueueCloseDrains(t *testing.T) {
	q := NewSoftQueue(zap.NewNop(), time.Millisecond, 8)
	require.NoError(t, q.Submit(func() error { return nil }))
	require.NoError(t, q.Signal(1))
	q.Close()

	assert.Equal(t, uint64(1), q.Completed())
	assert.ErrorIs(t, q.Wait(2), ErrDeviceLost)
}

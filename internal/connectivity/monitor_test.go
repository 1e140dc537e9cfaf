package connectivity

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	fail  atomic.Bool
	calls atomic.Int32
}

func (f *fakePinger) Ping(_ context.Context) error {
	f.calls.Add(1)
	if f.fail.Load() {
		return errors.New("unreachable")
	}
	return nil
}

func TestMonitor_DefaultOnline(t *testing.T) {
	assert.False(t, New().Offline())
	assert.True(t, New(WithOffline(true)).Offline())
}

func TestMonitor_SetNotifiesOnChange(t *testing.T) {
	m := New()
	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.Set(false)
	m.Set(true)
	m.Set(true)
	m.Set(false)

	got := []bool{<-ch, <-ch}
	assert.Equal(t, []bool{true, false}, got)
	select {
	case v := <-ch:
		t.Errorf("unexpected extra event %v", v)
	default:
	}
}

func TestMonitor_Unsubscribe(t *testing.T) {
	m := New()
	ch, unsubscribe := m.Subscribe()

	unsubscribe()
	m.Set(true)

	select {
	case <-ch:
		t.Error("unsubscribed channel should not receive")
	default:
	}
}

func TestMonitor_Probe(t *testing.T) {
	m := New()
	p := &fakePinger{}

	p.fail.Store(true)
	assert.False(t, m.Probe(context.Background(), p))
	assert.True(t, m.Offline())

	p.fail.Store(false)
	assert.True(t, m.Probe(context.Background(), p))
	assert.False(t, m.Offline())
}

func TestMonitor_ProbeCancelledKeepsState(t *testing.T) {
	m := New()
	p := &fakePinger{}
	p.fail.Store(true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m.Probe(ctx, p)

	assert.False(t, m.Offline(), "cancelled probe should not flip state")
}

func TestMonitor_Run(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := New()
		p := &fakePinger{}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		go func() {
			m.Run(ctx, p, time.Second)
			close(done)
		}()

		time.Sleep(2500 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, int32(3), p.calls.Load())

		cancel()
		<-done
	})
}

func TestMonitor_RunOnce(t *testing.T) {
	m := New()
	p := &fakePinger{}

	m.Run(context.Background(), p, 0)

	assert.Equal(t, int32(1), p.calls.Load())
}

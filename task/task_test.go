package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySettlesWithoutHook(t *testing.T) {
	o := NewOngoing()
	tk := New(context.Background(), KindPaste)
	o.Insert(tk)

	o.Apply(tk.ID, NewTotal(2))
	o.Apply(tk.ID, Succ())
	assert.NotNil(t, o.Get(tk.ID), "task with 1/2 done should remain tracked")

	o.Apply(tk.ID, Succ())
	assert.Nil(t, o.Get(tk.ID), "task reaching total without a hook should be removed")
}

func TestHookFiresOnceSettled(t *testing.T) {
	o := NewOngoing()
	tk := New(context.Background(), KindPaste)
	o.Insert(tk)

	fired := make(chan bool, 1)
	o.RegisterHook(tk.ID, func(canceled bool) <-chan struct{} {
		done := make(chan struct{})
		go func() {
			fired <- canceled
			close(done)
		}()
		return done
	})

	o.Apply(tk.ID, NewTotal(1))
	o.Apply(tk.ID, Succ())

	select {
	case canceled := <-fired:
		assert.False(t, canceled)
	case <-time.After(time.Second):
		t.Fatal("hook never fired")
	}
}

func TestRegisterHookOnAlreadyRemovedTaskIsNoop(t *testing.T) {
	o := NewOngoing()
	tk := New(context.Background(), KindDelete)
	o.Insert(tk)
	o.Apply(tk.ID, NewTotal(1))
	o.Apply(tk.ID, Succ())
	require.Nil(t, o.Get(tk.ID))

	// Task already removed from Ongoing by the time the hook registers —
	// RegisterHook is then a no-op, matching a caller that raced the
	// completion and lost.
	called := false
	o.RegisterHook(tk.ID, func(bool) <-chan struct{} {
		called = true
		ch := make(chan struct{})
		close(ch)
		return ch
	})
	assert.False(t, called)
}

func TestCancelTripsContext(t *testing.T) {
	tk := New(context.Background(), KindFetch)
	assert.False(t, tk.Canceled())
	tk.Cancel()
	assert.True(t, tk.Canceled())
	assert.ErrorIs(t, tk.Context().Err(), context.Canceled)
}

func TestSummaryExcludesPreloadByDefault(t *testing.T) {
	o := NewOngoing()
	paste := New(context.Background(), KindPaste)
	preload := New(context.Background(), KindPreload)
	o.Insert(paste)
	o.Insert(preload)
	o.Apply(paste.ID, NewTotal(10))
	o.Apply(paste.ID, Adv(3, 0, 100))
	o.Apply(preload.ID, NewTotal(99))

	s := deriveSummary(o, false)
	assert.Equal(t, int64(10), s.Total)
	assert.Equal(t, int64(3), s.Success)
}

func TestFailBumpsFailedCounter(t *testing.T) {
	o := NewOngoing()
	tk := New(context.Background(), KindPaste)
	o.Insert(tk)
	o.Apply(tk.ID, NewTotal(1))
	o.Apply(tk.ID, Fail(errors.New("boom")))
	assert.Nil(t, o.Get(tk.ID))
}

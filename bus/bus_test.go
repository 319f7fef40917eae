package bus

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirsail/dirsail/vfsurl"
)

func TestParamsTypedAccessors(t *testing.T) {
	p := Params{
		Pos(0):  Str("hello"),
		"count": Int(3),
		"ok":    Bool(true),
	}

	s, err := p.GetString(Pos(0))
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	n, err := p.GetInt64("count")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	b, err := p.GetBool("ok")
	require.NoError(t, err)
	assert.True(t, b)

	_, err = p.GetString("missing")
	assert.ErrorAs(t, err, new(ErrParamNotFound))

	_, err = p.GetString("count")
	assert.ErrorAs(t, err, new(ErrParamInvalid))
}

func TestDataJSONRoundTripStripsAny(t *testing.T) {
	u, err := vfsurl.Parse("/tmp/x")
	require.NoError(t, err)

	cases := []Data{Nil(), Bool(true), Int(7), Num(3.5), Str("s"), UrlData(u)}
	for _, d := range cases {
		b, err := json.Marshal(d)
		require.NoError(t, err)
		var got Data
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, d.Kind, got.Kind)
	}

	any := AnyData(make(chan int))
	b, err := json.Marshal(any)
	require.NoError(t, err)
	var got Data
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, DataNil, got.Kind)
}

func TestCmdWithNamedAppends(t *testing.T) {
	c := NewCmd("open", Str("a.txt"))
	c2 := c.WithNamed("force", Bool(true))
	assert.Len(t, c.Args, 1)
	assert.Len(t, c2.Args, 2)
	v, err := c2.Args.GetBool("force")
	require.NoError(t, err)
	assert.True(t, v)
}

func TestBusPublishAndDrain(t *testing.T) {
	b := New(4)
	b.Publish(KeyEventOf(KeyEvent{Rune: 'x'}))
	b.Publish(QuitEvent(EventQuit{Code: 0}))

	select {
	case ev := <-b.Events():
		assert.Equal(t, EventKey, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected first event")
	}
	select {
	case ev := <-b.Events():
		assert.Equal(t, EventQuit, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected second event")
	}
}

func TestBusCloseUnblocksPublish(t *testing.T) {
	b := New(1)
	b.Publish(RenderEvent(false)) // fills the one buffer slot
	b.Close()

	done := make(chan struct{})
	go func() {
		b.Publish(RenderEvent(true)) // would block forever pre-close
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish did not unblock after Close")
	}
}

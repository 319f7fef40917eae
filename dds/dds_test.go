package dds

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageEncodeParseRoundTrip(t *testing.T) {
	m, err := NewMessage("cd", 7, SeverityWarn, 3, map[string]string{"path": "/tmp"})
	require.NoError(t, err)

	line := m.Encode()
	got, err := ParseMessage(string(line[:len(line)-1])) // strip trailing \n
	require.NoError(t, err)

	assert.Equal(t, m.Kind, got.Kind)
	assert.Equal(t, m.Receiver, got.Receiver)
	assert.Equal(t, m.Severity, got.Severity)
	assert.Equal(t, m.Sender, got.Sender)

	var body map[string]string
	require.NoError(t, got.Decode(&body))
	assert.Equal(t, "/tmp", body["path"])
}

func TestParseMessageRejectsMalformed(t *testing.T) {
	_, err := ParseMessage("too,few,fields")
	assert.Error(t, err)
}

func TestStorePersistsAndReloadsSortedByKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dds")

	s, err := Open(path)
	require.NoError(t, err)

	mb, err := NewMessage("pub:cwd", Broadcast, SeverityInfo, 1, "b")
	require.NoError(t, err)
	ma, err := NewMessage("pub:active", Broadcast, SeverityInfo, 1, "a")
	require.NoError(t, err)
	require.NoError(t, s.Put(mb))
	require.NoError(t, s.Put(ma))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	all := reopened.All()
	require.Len(t, all, 2)
	assert.Equal(t, "pub:active", all[0].Kind)
	assert.Equal(t, "pub:cwd", all[1].Kind)
}

func TestStoreByKindFilters(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.dds"))
	require.NoError(t, err)
	defer s.Close()

	m1, _ := NewMessage("pub:cwd", Broadcast, SeverityInfo, 1, 1)
	m2, _ := NewMessage("pub:cwd", Broadcast, SeverityInfo, 2, 2)
	m3, _ := NewMessage("pub:tabs", Broadcast, SeverityInfo, 1, 3)
	require.NoError(t, s.Put(m1))
	require.NoError(t, s.Put(m2))
	require.NoError(t, s.Put(m3))

	cwd := s.ByKind("pub:cwd")
	assert.Len(t, cwd, 2)
}

func TestServerRoutesBroadcastAndDirect(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "test.dds"))
	require.NoError(t, err)
	defer store.Close()

	srv := NewServer(store)
	require.NoError(t, srv.Listen(DefaultNetwork(), socketAddr(t, dir)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	addr := srv.Addr()
	c1, err := Dial(addr.Network(), addr.String())
	require.NoError(t, err)
	defer c1.Close()
	c2, err := Dial(addr.Network(), addr.String())
	require.NoError(t, err)
	defer c2.Close()

	// give the server a moment to accept both connections
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, c1.Emit("key", Broadcast, "x"))

	msg, err := recvWithTimeout(t, c2)
	require.NoError(t, err)
	assert.Equal(t, "key", msg.Kind)

	require.NoError(t, c1.Pub("cwd", Broadcast, "/root"))
	msg2, err := recvWithTimeout(t, c2)
	require.NoError(t, err)
	assert.Equal(t, "pub:cwd", msg2.Kind)

	assert.Eventually(t, func() bool {
		return len(store.ByKind("pub:cwd")) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Close())
}

func recvWithTimeout(t *testing.T, c *Client) (Message, error) {
	t.Helper()
	type res struct {
		m   Message
		err error
	}
	ch := make(chan res, 1)
	go func() {
		m, err := c.Recv()
		ch <- res{m, err}
	}()
	select {
	case r := <-ch:
		return r.m, r.err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}, nil
	}
}

func socketAddr(t *testing.T, dir string) string {
	t.Helper()
	if DefaultNetwork() == "tcp" {
		return "127.0.0.1:0"
	}
	return filepath.Join(dir, "dds.sock")
}

func TestMessageDecodeInvalidBody(t *testing.T) {
	m := Message{Kind: "x", Body: json.RawMessage(`not json`)}
	var v int
	assert.Error(t, m.Decode(&v))
}

package dds

import (
	"bufio"
	"fmt"
	"net"
)

// Client is a DDS peer connection, the transport ya's emit/pub/sub
// subcommands speak against (§6, §9a).
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to a Server at network/address.
func Dial(network, address string) (*Client, error) {
	conn, err := net.Dial(network, address)
	if err != nil {
		return nil, fmt.Errorf("dds: dial %s %s: %w", network, address, err)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn)}, nil
}

// Send writes m to the server.
func (c *Client) Send(m Message) error {
	return WriteMessage(c.conn, m)
}

// Emit sends an ephemeral, non-persisted message (ya's "emit"/"emit-to").
func (c *Client) Emit(kind string, receiver uint64, v any) error {
	m, err := NewMessage(kind, receiver, SeverityInfo, 0, v)
	if err != nil {
		return err
	}
	return c.Send(m)
}

// Pub sends a message the server persists to its Store (ya's "pub"/
// "pub-to"); kind is prefixed "pub:" so Server.Route recognizes it.
func (c *Client) Pub(kind string, receiver uint64, v any) error {
	m, err := NewMessage("pub:"+kind, receiver, SeverityInfo, 0, v)
	if err != nil {
		return err
	}
	return c.Send(m)
}

// Recv blocks for the next inbound message (ya's "sub").
func (c *Client) Recv() (Message, error) {
	return ReadMessage(c.r)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

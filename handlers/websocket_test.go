package handlers

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"food-delivery/api/broadcast"
)

type fakeWSConn struct {
	mu       sync.Mutex
	writes   []interface{}
	writeErr error
	closed   bool
}

func (c *fakeWSConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, v)
	return nil
}

func (c *fakeWSConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeWSConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeWSConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeWSConn) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

func runPump(conn *fakeWSConn, events <-chan broadcast.Event) chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		writePump(conn, events)
	}()
	return done
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write pump did not stop")
	}
}

func TestWritePumpClosesConnWhenClientDropped(t *testing.T) {
	hub := broadcast.NewHub()
	client := hub.Register()
	conn := &fakeWSConn{}
	done := runPump(conn, client.Events())

	hub.Publish(broadcast.EventNewOrder, "payload")
	client.Close()

	waitDone(t, done)
	if !conn.isClosed() {
		t.Error("connection left open after the client was dropped")
	}
	if conn.writeCount() != 1 {
		t.Errorf("got %d writes, want 1", conn.writeCount())
	}
}

func TestWritePumpClosesConnAfterHubDropsSlowClient(t *testing.T) {
	hub := broadcast.NewHub()
	client := hub.Register()

	// Fill the client's queue with no pump draining it until the hub gives
	// up and drops the client.
	for i := 0; hub.ClientCount() > 0 && i < 100; i++ {
		hub.Publish(broadcast.EventOrderStatusUpdated, i)
	}
	if hub.ClientCount() != 0 {
		t.Fatal("hub did not drop the stalled client")
	}

	conn := &fakeWSConn{}
	done := runPump(conn, client.Events())

	waitDone(t, done)
	if !conn.isClosed() {
		t.Error("connection left open after the hub dropped the client")
	}
}

func TestWritePumpClosesConnOnWriteError(t *testing.T) {
	hub := broadcast.NewHub()
	client := hub.Register()
	conn := &fakeWSConn{writeErr: fmt.Errorf("peer stalled")}
	done := runPump(conn, client.Events())

	hub.Publish(broadcast.EventOrderStatusUpdated, "payload")

	waitDone(t, done)
	if !conn.isClosed() {
		t.Error("connection left open after a write failure")
	}
	client.Close()
}

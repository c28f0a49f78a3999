package core

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeConn collects decoded payloads delivered by the broadcast pool.
type fakeConn struct {
	name     string
	payloads chan map[string]any
}

func newFakeConn(name string) *fakeConn {
	return &fakeConn{name: name, payloads: make(chan map[string]any, 64)}
}

func (c *fakeConn) WriteText(_ context.Context, data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	c.payloads <- m
	return nil
}

func (c *fakeConn) RemoteAddr() string {
	return c.name
}

// mustPayload waits for the next payload of the given type, skipping
// others. Payloads from independent fan-out tasks arrive in no particular
// order.
func mustPayload(t *testing.T, c *fakeConn, payloadType string) map[string]any {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case p := <-c.payloads:
			if p["type"] == payloadType {
				return p
			}
		case <-deadline:
			t.Fatalf("expected payload of type %q not received by %s", payloadType, c.name)
			return nil
		}
	}
}

// mustSystem waits for a SYSTEM payload with the given sub-type.
func mustSystem(t *testing.T, c *fakeConn, subType string) map[string]any {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case p := <-c.payloads:
			if p["type"] == "SYSTEM" && p["subType"] == subType {
				return p
			}
		case <-deadline:
			t.Fatalf("expected SYSTEM %q payload not received by %s", subType, c.name)
			return nil
		}
	}
}

// mustQuiet asserts that no payload of the given type arrives within the
// window.
func mustQuiet(t *testing.T, c *fakeConn, payloadType string) {
	t.Helper()

	deadline := time.After(200 * time.Millisecond)
	for {
		select {
		case p := <-c.payloads:
			if p["type"] == payloadType {
				t.Fatalf("unexpected payload of type %q received by %s: %v", payloadType, c.name, p)
			}
		case <-deadline:
			return
		}
	}
}

// testServer is a fully wired core without the transport layer.
type testServer struct {
	queue    *CommandQueue
	clients  *ClientRegistry
	rooms    *RoomRegistry
	friends  *FriendStore
	bcast    *Broadcaster
	resolver *Resolver
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	queue := NewCommandQueue(64)
	clients := NewClientRegistry()
	rooms := NewRoomRegistry()
	friends := NewFriendStore()
	bcast := NewBroadcaster(clients, rooms, time.Second, &logger)
	resolver := NewResolver(queue, clients, rooms, friends, bcast, &logger)

	go resolver.Run()
	t.Cleanup(func() {
		queue.Shutdown()
		<-resolver.Done()
		bcast.Shutdown()
	})

	return &testServer{
		queue:    queue,
		clients:  clients,
		rooms:    rooms,
		friends:  friends,
		bcast:    bcast,
		resolver: resolver,
	}
}

// connect registers a new fake connection and returns it with its assigned
// identity.
func (ts *testServer) connect(t *testing.T, name string) (*fakeConn, string) {
	t.Helper()

	conn := newFakeConn(name)
	if err := ts.queue.Enqueue(ClientCommand{Conn: conn, Kind: CommandConnect, Name: name}); err != nil {
		t.Fatalf("enqueue connect: %v", err)
	}

	// Welcome and help are delivered by independent fan-out tasks, so drain
	// both without assuming their order.
	first := mustPayload(t, conn, "SYSTEM")
	second := mustPayload(t, conn, "SYSTEM")
	got := map[any]bool{first["subType"]: true, second["subType"]: true}
	if !got["WELCOME"] || !got["HELP"] {
		t.Fatalf("connect greeting for %s: got %v and %v", name, first["subType"], second["subType"])
	}

	clientID, ok := ts.clients.ClientID(conn)
	if !ok {
		t.Fatalf("client %s not registered after welcome", name)
	}
	return conn, clientID
}

func (ts *testServer) send(t *testing.T, conn *fakeConn, text string) {
	t.Helper()
	if err := ts.queue.Enqueue(ClientCommand{Conn: conn, Kind: CommandMessage, Payload: text}); err != nil {
		t.Fatalf("enqueue message: %v", err)
	}
}

func (ts *testServer) disconnect(t *testing.T, conn *fakeConn) {
	t.Helper()
	if err := ts.queue.Enqueue(ClientCommand{Conn: conn, Kind: CommandDisconnect}); err != nil {
		t.Fatalf("enqueue disconnect: %v", err)
	}
}

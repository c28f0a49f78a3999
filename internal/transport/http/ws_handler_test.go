package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/config"
	"github.com/parley-chat/parley-server/internal/core"
)

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	queue := core.NewCommandQueue(64)
	clients := core.NewClientRegistry()
	rooms := core.NewRoomRegistry()
	friends := core.NewFriendStore()
	bcast := core.NewBroadcaster(clients, rooms, time.Second, &logger)
	resolver := core.NewResolver(queue, clients, rooms, friends, bcast, &logger)

	go resolver.Run()

	server := NewServer(queue, clients, rooms, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		ts.Close()
		queue.Shutdown()
		<-resolver.Done()
		bcast.Shutdown()
	})

	return ts
}

func dialChat(t *testing.T, ctx context.Context, ts *httptest.Server, name string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/chat?name=" + name
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", name, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendText(t *testing.T, ctx context.Context, conn *websocket.Conn, text string) {
	t.Helper()
	if err := conn.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
		t.Fatalf("write %q: %v", text, err)
	}
}

// awaitPayload reads frames until one decodes to the wanted type (and
// sub-type, when given). Deliveries from independent fan-out tasks arrive
// in no particular order.
func awaitPayload(t *testing.T, ctx context.Context, conn *websocket.Conn, payloadType, subType string) map[string]any {
	t.Helper()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("waiting for %s/%s: %v", payloadType, subType, err)
		}
		var p map[string]any
		if err := json.Unmarshal(data, &p); err != nil {
			t.Fatalf("bad frame %q: %v", data, err)
		}
		if p["type"] != payloadType {
			continue
		}
		if subType != "" && p["subType"] != subType {
			continue
		}
		return p
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestChatEndToEnd(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialChat(t, ctx, ts, "alice")
	bob := dialChat(t, ctx, ts, "bob")

	welcome := awaitPayload(t, ctx, alice, "SYSTEM", "WELCOME")
	if msg, _ := welcome["message"].(string); !strings.Contains(msg, "alice") {
		t.Fatalf("welcome: %q", msg)
	}
	aliceID := idFromWelcome(t, welcome)

	awaitPayload(t, ctx, bob, "SYSTEM", "WELCOME")

	sendText(t, ctx, alice, "CREATE_ROOM lobby")
	created := awaitPayload(t, ctx, alice, "SYSTEM", "ROOM_CREATED")
	msg, _ := created["message"].(string)
	code := msg[strings.LastIndex(msg, ": ")+2:]

	sendText(t, ctx, bob, "JOIN_ROOM "+code)
	awaitPayload(t, ctx, bob, "SYSTEM", "USER_JOIN")

	sendText(t, ctx, alice, "SAY hi there")
	chat := awaitPayload(t, ctx, bob, "CHAT", "")
	if chat["message"] != "hi there" || chat["roomName"] != "lobby" || chat["senderId"] != aliceID {
		t.Fatalf("chat payload: %v", chat)
	}
}

func TestUnknownCommandOverSocket(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialChat(t, ctx, ts, "alice")
	awaitPayload(t, ctx, conn, "SYSTEM", "WELCOME")

	sendText(t, ctx, conn, "BOGUS stuff")
	errPayload := awaitPayload(t, ctx, conn, "ERROR", "")
	if code, _ := errPayload["errorCode"].(float64); code != 400 {
		t.Fatalf("errorCode = %v, want 400", errPayload["errorCode"])
	}
	if errPayload["command"] != "BOGUS stuff" {
		t.Fatalf("command = %v", errPayload["command"])
	}
}

func TestStatusAPI(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialChat(t, ctx, ts, "alice")
	awaitPayload(t, ctx, conn, "SYSTEM", "WELCOME")

	sendText(t, ctx, conn, "CREATE_ROOM lobby")
	awaitPayload(t, ctx, conn, "SYSTEM", "ROOM_CREATED")

	var rooms []RoomResponse
	getJSON(t, ts, "/api/rooms", &rooms)
	if len(rooms) != 1 || rooms[0].Name != "lobby" || rooms[0].MemberCount != 1 {
		t.Fatalf("rooms response: %+v", rooms)
	}

	var stats StatsResponse
	getJSON(t, ts, "/api/stats", &stats)
	if stats.OnlineClients != 1 || stats.Rooms != 1 {
		t.Fatalf("stats response: %+v", stats)
	}
}

func TestDMSessionsHiddenFromRoomAPI(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialChat(t, ctx, ts, "alice")
	bob := dialChat(t, ctx, ts, "bob")
	awaitPayload(t, ctx, alice, "SYSTEM", "WELCOME")
	bobID := idFromWelcome(t, awaitPayload(t, ctx, bob, "SYSTEM", "WELCOME"))

	sendText(t, ctx, alice, "DM "+bobID)
	awaitPayload(t, ctx, alice, "SYSTEM", "DM_START")

	var rooms []RoomResponse
	getJSON(t, ts, "/api/rooms", &rooms)
	if len(rooms) != 0 {
		t.Fatalf("DM session leaked into room list: %+v", rooms)
	}
}

func idFromWelcome(t *testing.T, welcome map[string]any) string {
	t.Helper()
	msg, _ := welcome["message"].(string)
	idx := strings.LastIndex(msg, ": ")
	if idx < 0 {
		t.Fatalf("no id in welcome %q", msg)
	}
	return msg[idx+2:]
}

func getJSON(t *testing.T, ts *httptest.Server, path string, out any) {
	t.Helper()

	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("GET %s: status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		t.Fatalf("decode %s response %q: %v", path, body, err)
	}
}

package core

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/parley-chat/parley-server/internal/proto"
)

// Broadcaster performs all outbound delivery. Calls return immediately; the
// actual encode and write happens on one goroutine per recipient, so a slow
// or broken recipient never delays the resolver or the other recipients.
// Delivery is best-effort: offline recipients are skipped, failed writes
// are logged and dropped, nothing is retried.
type Broadcaster struct {
	clients      *ClientRegistry
	rooms        *RoomRegistry
	log          *zerolog.Logger
	writeTimeout time.Duration
	wg           conc.WaitGroup
	closed       atomic.Bool
}

func NewBroadcaster(clients *ClientRegistry, rooms *RoomRegistry, writeTimeout time.Duration, logger *zerolog.Logger) *Broadcaster {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Broadcaster{
		clients:      clients,
		rooms:        rooms,
		log:          logger,
		writeTimeout: writeTimeout,
	}
}

// BroadcastChat fans a chat message out to every room member except the
// sender, who already has the message locally.
func (b *Broadcaster) BroadcastChat(senderID, roomID, message string) {
	roomName, _ := b.rooms.RoomName(roomID)
	data, ok := b.serialize(proto.Chat(senderID, roomName, message, time.Now().UnixMilli()))
	if !ok {
		return
	}

	room, found := b.rooms.Get(roomID)
	if !found {
		return
	}
	for _, memberID := range room.Members() {
		if memberID == senderID {
			continue
		}
		conn, _ := b.clients.Conn(memberID)
		b.submit(conn, data)
	}
}

// SendDirect delivers a DM to the target and echoes a copy back to the
// sender. Both variants carry the same timestamp.
func (b *Broadcaster) SendDirect(senderID, targetID, message string) {
	ts := time.Now().UnixMilli()

	if data, ok := b.serialize(proto.DM(senderID, senderID, message, ts)); ok {
		conn, _ := b.clients.Conn(targetID)
		b.submit(conn, data)
	}
	if data, ok := b.serialize(proto.DM(senderID, targetID, message, ts)); ok {
		conn, _ := b.clients.Conn(senderID)
		b.submit(conn, data)
	}
}

// SendSystem delivers a system message to a single connection.
func (b *Broadcaster) SendSystem(conn Conn, subType, message string) {
	data, ok := b.serialize(proto.System(subType, "", message, nil))
	if !ok {
		return
	}
	b.submit(conn, data)
}

// BroadcastSystemToRoom fans a system message out to every room member.
func (b *Broadcaster) BroadcastSystemToRoom(roomID, subType, message string, details map[string]any) {
	roomName, _ := b.rooms.RoomName(roomID)
	data, ok := b.serialize(proto.System(subType, roomName, message, details))
	if !ok {
		return
	}

	room, found := b.rooms.Get(roomID)
	if !found {
		return
	}
	for _, memberID := range room.Members() {
		conn, _ := b.clients.Conn(memberID)
		b.submit(conn, data)
	}
}

// SendError reports a command failure to the originating connection only.
func (b *Broadcaster) SendError(conn Conn, code int, command, message string) {
	data, ok := b.serialize(proto.Error(code, command, message))
	if !ok {
		return
	}
	b.submit(conn, data)
}

// Shutdown stops accepting delivery requests and waits for in-flight sends.
func (b *Broadcaster) Shutdown() {
	if b.closed.Swap(true) {
		return
	}
	if r := b.wg.WaitAndRecover(); r != nil {
		b.log.Error().Str("panic", r.String()).Msg("broadcast worker panicked")
	}
}

func (b *Broadcaster) serialize(payload any) ([]byte, bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.log.Error().Err(err).Msg("failed to serialize payload")
		return nil, false
	}
	return data, true
}

func (b *Broadcaster) submit(conn Conn, data []byte) {
	if conn == nil || b.closed.Load() {
		return
	}

	b.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.writeTimeout)
		defer cancel()

		if err := conn.WriteText(ctx, data); err != nil {
			b.log.Warn().Err(err).Str("remote", conn.RemoteAddr()).Msg("failed to deliver payload")
		}
	})
}

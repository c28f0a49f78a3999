package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/proto"
)

const maxDisplayNameLen = 32

const helpText = "Commands: CREATE_ROOM <name>, JOIN_ROOM <code>, LEAVE_ROOM, SAY <text>, " +
	"DM <id>, LIST [users|friends|pending_in|pending_out], ADD_FRIEND <id>, ACCEPT_FRIEND <id>, " +
	"REJECT_FRIEND <id>, REMOVE_FRIEND <id>, SET_NAME <name>, USER_INFO [id], ROOM_INFO [id]"

// Resolver is the single consumer of the command queue and the sole writer
// of the three registries. All effects of command N are applied before
// command N+1 starts, which is what makes a SAY right after a JOIN_ROOM by
// the same connection see the joined context. Handlers never touch the
// network; every write goes through the broadcaster.
type Resolver struct {
	queue   *CommandQueue
	clients *ClientRegistry
	rooms   *RoomRegistry
	friends *FriendStore
	bcast   *Broadcaster
	log     *zerolog.Logger
	done    chan struct{}
}

func NewResolver(queue *CommandQueue, clients *ClientRegistry, rooms *RoomRegistry,
	friends *FriendStore, bcast *Broadcaster, logger *zerolog.Logger) *Resolver {
	return &Resolver{
		queue:   queue,
		clients: clients,
		rooms:   rooms,
		friends: friends,
		bcast:   bcast,
		log:     logger,
		done:    make(chan struct{}),
	}
}

// Run drains the queue until shutdown. It must be the only goroutine
// calling Dequeue.
func (r *Resolver) Run() {
	r.log.Info().Msg("resolver started")
	for {
		cmd, ok := r.queue.Dequeue()
		if !ok {
			break
		}
		r.process(cmd)
	}
	close(r.done)
	r.log.Info().Msg("resolver stopped")
}

// Done is closed once the resolver loop has exited.
func (r *Resolver) Done() <-chan struct{} {
	return r.done
}

// process isolates each command: a panic while handling one command is
// reported to the originating connection and never stops the loop.
func (r *Resolver) process(cmd ClientCommand) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Str("kind", cmd.Kind.String()).
				Msg("command processing failed")
			command := cmd.Payload
			if command == "" {
				command = "UNKNOWN"
			}
			r.bcast.SendError(cmd.Conn, ErrCodeInternal, command,
				"An internal server error occurred while processing your request.")
		}
	}()

	switch cmd.Kind {
	case CommandConnect:
		r.handleConnect(cmd.Conn, cmd.Name)
	case CommandDisconnect:
		r.handleDisconnect(cmd.Conn)
	case CommandMessage:
		r.handleMessage(cmd.Conn, cmd.Payload)
	}
}

func (r *Resolver) handleConnect(conn Conn, nameHint string) {
	clientID := NewUserID()
	r.clients.Register(clientID, conn)

	name := strings.TrimSpace(nameHint)
	if name == "" {
		name = clientID
	}
	r.clients.SetName(clientID, name)

	r.bcast.SendSystem(conn, proto.SubTypeWelcome,
		fmt.Sprintf("Welcome, %s! Your ID is: %s", name, clientID))
	r.bcast.SendSystem(conn, proto.SubTypeHelp, helpText)

	if pending := r.friends.PendingIncoming(clientID); len(pending) > 0 {
		r.bcast.SendSystem(conn, proto.SubTypeFriendRequests,
			"You have pending friend requests from: "+strings.Join(pending, ", "))
	}

	r.log.Info().Str("client_id", clientID).Str("name", name).Msg("client connected")
}

func (r *Resolver) handleDisconnect(conn Conn) {
	clientID, ok := r.clients.ClientID(conn)
	if !ok {
		// Idempotent on unknown connections.
		r.log.Warn().Str("remote", conn.RemoteAddr()).Msg("disconnect from unknown connection")
		return
	}

	contextID := r.clients.Context(clientID)
	name := r.clients.Name(clientID)

	r.rooms.RemoveFromAllRooms(clientID)
	r.clients.Unregister(clientID)

	r.log.Info().Str("client_id", clientID).Msg("client disconnected")

	if IsRoomID(contextID) {
		r.bcast.BroadcastSystemToRoom(contextID, proto.SubTypeUserLeave,
			fmt.Sprintf("User '%s' (%s) has left.", name, clientID),
			map[string]any{"userId": clientID})
	}
}

func (r *Resolver) handleMessage(conn Conn, payload string) {
	clientID, ok := r.clients.ClientID(conn)
	if !ok {
		r.bcast.SendError(conn, ErrCodeAuth, "UNKNOWN", "You are not registered. Please reconnect.")
		return
	}

	parsed := ParseCommand(payload)
	if parsed.Command == CmdUnknown {
		r.bcast.SendError(conn, ErrCodeValidation, payload, "Unknown command. Send HELP-listed commands only.")
		return
	}

	var err *CommandError
	switch parsed.Command {
	case CmdCreateRoom:
		err = r.handleCreateRoom(clientID, parsed.Args[0])
	case CmdJoinRoom:
		err = r.handleJoinRoom(clientID, parsed.Args[0])
	case CmdLeaveRoom:
		err = r.handleLeaveRoom(clientID)
	case CmdSay:
		err = r.handleSay(clientID, parsed.Message)
	case CmdDM:
		err = r.handleDM(clientID, parsed.Args[0])
	case CmdList:
		err = r.handleList(clientID, parsed.Args)
	case CmdAddFriend:
		err = r.handleAddFriend(clientID, parsed.Args[0])
	case CmdAcceptFriend:
		err = r.handleAcceptFriend(clientID, parsed.Args[0])
	case CmdRejectFriend:
		err = r.handleRejectFriend(clientID, parsed.Args[0])
	case CmdRemoveFriend:
		err = r.handleRemoveFriend(clientID, parsed.Args[0])
	case CmdSetName:
		err = r.handleSetName(clientID, parsed.Args[0])
	case CmdUserInfo:
		err = r.handleUserInfo(clientID, parsed.Args)
	case CmdRoomInfo:
		err = r.handleRoomInfo(clientID, parsed.Args)
	}

	if err != nil {
		r.bcast.SendError(conn, err.Code, err.Command, err.Message)
	}
}

func (r *Resolver) handleCreateRoom(clientID, roomName string) *CommandError {
	roomName = strings.TrimSpace(roomName)
	if roomName == "" {
		return cmdError(ErrCodeValidation, "CREATE_ROOM", "Usage: CREATE_ROOM <room_name>")
	}

	roomID, inviteCode := r.rooms.CreateRoom(clientID, roomName)
	r.clients.SetContext(clientID, roomID)

	conn, _ := r.clients.Conn(clientID)
	r.bcast.SendSystem(conn, proto.SubTypeRoomCreated,
		fmt.Sprintf("Room '%s' created! Invite code: %s", roomName, inviteCode))
	r.bcast.SendSystem(conn, proto.SubTypeUserJoin,
		fmt.Sprintf("You have automatically joined '%s'.", roomName))

	r.log.Info().Str("client_id", clientID).Str("room_id", roomID).Msg("room created")
	return nil
}

func (r *Resolver) handleJoinRoom(clientID, inviteCode string) *CommandError {
	roomID, ok := r.rooms.JoinRoom(clientID, inviteCode)
	if !ok {
		return cmdError(ErrCodeNotFound, "JOIN_ROOM", "Invalid invite code.")
	}

	r.clients.SetContext(clientID, roomID)
	roomName, _ := r.rooms.RoomName(roomID)

	conn, _ := r.clients.Conn(clientID)
	r.bcast.SendSystem(conn, proto.SubTypeUserJoin,
		fmt.Sprintf("Successfully joined room: '%s'", roomName))
	r.bcast.BroadcastSystemToRoom(roomID, proto.SubTypeUserJoin,
		fmt.Sprintf("User '%s' (%s) has joined the room.", r.clients.Name(clientID), clientID),
		map[string]any{"userId": clientID})
	return nil
}

func (r *Resolver) handleLeaveRoom(clientID string) *CommandError {
	contextID := r.clients.Context(clientID)
	if !IsRoomID(contextID) {
		return cmdError(ErrCodeValidation, "LEAVE_ROOM", "You are not currently in a room.")
	}

	roomName, _ := r.rooms.RoomName(contextID)
	name := r.clients.Name(clientID)

	r.rooms.LeaveRoom(clientID, contextID)
	r.clients.SetContext(clientID, "")

	conn, _ := r.clients.Conn(clientID)
	r.bcast.SendSystem(conn, proto.SubTypeRoomLeave,
		fmt.Sprintf("You have left room: '%s'.", roomName))
	r.bcast.BroadcastSystemToRoom(contextID, proto.SubTypeUserLeave,
		fmt.Sprintf("User '%s' (%s) has left the room.", name, clientID),
		map[string]any{"userId": clientID})
	return nil
}

func (r *Resolver) handleSay(clientID, message string) *CommandError {
	if strings.TrimSpace(message) == "" {
		return cmdError(ErrCodeValidation, "SAY", "Usage: SAY <message>")
	}

	contextID := r.clients.Context(clientID)
	if contextID == "" {
		return cmdError(ErrCodeValidation, "SAY", "You are not in a room. Use JOIN_ROOM or DM first.")
	}

	switch {
	case IsRoomID(contextID):
		r.bcast.BroadcastChat(clientID, contextID, message)
	case IsDMID(contextID):
		targetID, ok := r.rooms.OtherDMParty(contextID, clientID)
		if !ok || !r.clients.IsOnline(targetID) {
			return cmdError(ErrCodeNotFound, "SAY",
				"The other user has disconnected. Your message was not sent.")
		}
		r.bcast.SendDirect(clientID, targetID, message)
	}
	return nil
}

func (r *Resolver) handleDM(clientID, targetID string) *CommandError {
	if targetID == clientID {
		return cmdError(ErrCodeValidation, "DM", "You cannot send a DM to yourself.")
	}
	if !r.clients.IsOnline(targetID) {
		return cmdError(ErrCodeNotFound, "DM", fmt.Sprintf("User '%s' is not online.", targetID))
	}

	dmID := r.rooms.GetOrCreateDMSession(clientID, targetID)
	r.clients.SetContext(clientID, dmID)

	conn, _ := r.clients.Conn(clientID)
	r.bcast.SendSystem(conn, proto.SubTypeDMStart,
		fmt.Sprintf("Started DM session with '%s' (%s).", r.clients.Name(targetID), targetID))
	return nil
}

func (r *Resolver) handleList(clientID string, args []string) *CommandError {
	conn, _ := r.clients.Conn(clientID)

	if len(args) == 0 {
		rooms := r.rooms.Rooms()
		lines := make([]string, 0, len(rooms))
		for _, info := range rooms {
			lines = append(lines, fmt.Sprintf("  - %s (ID: %s, Members: %d)",
				info.Name, info.ID, info.MemberCount))
		}
		r.bcast.SendSystem(conn, proto.SubTypeListRooms, "Available Rooms:\n"+orNone(lines))
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "users":
		contextID := r.clients.Context(clientID)
		if contextID == "" {
			return cmdError(ErrCodeValidation, "LIST", "You are not in a room.")
		}
		room, ok := r.rooms.Get(contextID)
		if !ok {
			return cmdError(ErrCodeNotFound, "LIST", "Could not find members for your current room.")
		}
		r.bcast.SendSystem(conn, proto.SubTypeListUsers,
			"Users in this room:\n"+orNone(r.roster(room.Members())))
	case "friends":
		lines := make([]string, 0)
		for _, id := range r.friends.Friends(clientID) {
			presence := "Offline"
			if r.clients.IsOnline(id) {
				presence = "Online"
			}
			lines = append(lines, fmt.Sprintf("  - %s (%s) [%s]", r.clients.Name(id), id, presence))
		}
		r.bcast.SendSystem(conn, proto.SubTypeListFriends, "Your Friends:\n"+orNone(lines))
	case "pending_in":
		r.bcast.SendSystem(conn, proto.SubTypeListPendingIn,
			"Pending Incoming Requests (use ACCEPT_FRIEND <id>):\n"+
				orNone(r.roster(r.friends.PendingIncoming(clientID))))
	case "pending_out":
		r.bcast.SendSystem(conn, proto.SubTypeListPendingOut,
			"Pending Outgoing Requests (use REJECT_FRIEND <id> to cancel):\n"+
				orNone(r.roster(r.friends.PendingOutgoing(clientID))))
	default:
		return cmdError(ErrCodeValidation, "LIST", "Usage: LIST [users | friends | pending_in | pending_out]")
	}
	return nil
}

func (r *Resolver) handleAddFriend(clientID, targetID string) *CommandError {
	if targetID == clientID {
		return cmdError(ErrCodeValidation, "ADD_FRIEND", "You cannot add yourself as a friend.")
	}
	if !r.clients.IsOnline(targetID) {
		return cmdError(ErrCodeNotFound, "ADD_FRIEND", fmt.Sprintf("User '%s' is not online.", targetID))
	}

	if status, ok := r.friends.Status(clientID, targetID); ok {
		switch status {
		case FriendAccepted:
			return cmdError(ErrCodeValidation, "ADD_FRIEND", "You are already friends with this user.")
		case FriendPending:
			return cmdError(ErrCodeValidation, "ADD_FRIEND", "A friend request is already pending between you.")
		case FriendBlocked:
			return cmdError(ErrCodePermission, "ADD_FRIEND", "Cannot send request; a block is in place.")
		}
	}

	if !r.friends.Request(clientID, targetID) {
		return cmdError(ErrCodeInternal, "ADD_FRIEND", "Failed to send friend request.")
	}

	conn, _ := r.clients.Conn(clientID)
	r.bcast.SendSystem(conn, proto.SubTypeFriendReqSent,
		fmt.Sprintf("Friend request sent to '%s'.", r.clients.Name(targetID)))

	if targetConn, ok := r.clients.Conn(targetID); ok {
		r.bcast.SendSystem(targetConn, proto.SubTypeFriendReqRecv,
			fmt.Sprintf("You have a new friend request from '%s' (%s). Use ACCEPT_FRIEND %s",
				r.clients.Name(clientID), clientID, clientID))
	}
	return nil
}

func (r *Resolver) handleAcceptFriend(clientID, requesterID string) *CommandError {
	if !r.friends.Accept(clientID, requesterID) {
		return cmdError(ErrCodeNotFound, "ACCEPT_FRIEND",
			fmt.Sprintf("No pending request found from user '%s'.", requesterID))
	}

	conn, _ := r.clients.Conn(clientID)
	r.bcast.SendSystem(conn, proto.SubTypeFriendAdded,
		fmt.Sprintf("You are now friends with '%s'.", r.clients.Name(requesterID)))

	if requesterConn, ok := r.clients.Conn(requesterID); ok {
		r.bcast.SendSystem(requesterConn, proto.SubTypeFriendAccepted,
			fmt.Sprintf("'%s' has accepted your friend request.", r.clients.Name(clientID)))
	}
	return nil
}

func (r *Resolver) handleRejectFriend(clientID, otherID string) *CommandError {
	if !r.friends.RejectOrCancel(clientID, otherID) {
		return cmdError(ErrCodeNotFound, "REJECT_FRIEND",
			fmt.Sprintf("No pending request found with user '%s'.", otherID))
	}

	conn, _ := r.clients.Conn(clientID)
	r.bcast.SendSystem(conn, proto.SubTypeFriendReqRemoved,
		fmt.Sprintf("Friend request with '%s' removed.", r.clients.Name(otherID)))

	if otherConn, ok := r.clients.Conn(otherID); ok {
		r.bcast.SendSystem(otherConn, proto.SubTypeFriendReqDenied,
			fmt.Sprintf("'%s' has rejected/canceled the friend request.", r.clients.Name(clientID)))
	}
	return nil
}

func (r *Resolver) handleRemoveFriend(clientID, friendID string) *CommandError {
	if !r.friends.Remove(clientID, friendID) {
		return cmdError(ErrCodeNotFound, "REMOVE_FRIEND",
			fmt.Sprintf("You are not friends with user '%s'.", friendID))
	}

	conn, _ := r.clients.Conn(clientID)
	r.bcast.SendSystem(conn, proto.SubTypeFriendRemoved,
		fmt.Sprintf("You are no longer friends with '%s'.", r.clients.Name(friendID)))

	if friendConn, ok := r.clients.Conn(friendID); ok {
		r.bcast.SendSystem(friendConn, proto.SubTypeFriendRemoved,
			fmt.Sprintf("'%s' has removed you as a friend.", r.clients.Name(clientID)))
	}
	return nil
}

func (r *Resolver) handleSetName(clientID, newName string) *CommandError {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return cmdError(ErrCodeValidation, "SET_NAME", "Usage: SET_NAME <new name>")
	}
	// The cap counts characters, not bytes, so multi-byte names get the
	// same 32 characters as ASCII ones.
	if utf8.RuneCountInString(newName) > maxDisplayNameLen {
		return cmdError(ErrCodeValidation, "SET_NAME",
			fmt.Sprintf("Name cannot be longer than %d characters.", maxDisplayNameLen))
	}

	oldName := r.clients.Name(clientID)
	r.clients.SetName(clientID, newName)

	conn, _ := r.clients.Conn(clientID)
	r.bcast.SendSystem(conn, proto.SubTypeNameSet, "Your name is now: "+newName)

	if contextID := r.clients.Context(clientID); IsRoomID(contextID) {
		r.bcast.BroadcastSystemToRoom(contextID, proto.SubTypeNameChange,
			fmt.Sprintf("User '%s' is now known as '%s'.", oldName, newName),
			map[string]any{"userId": clientID, "oldName": oldName, "newName": newName})
	}
	return nil
}

func (r *Resolver) handleUserInfo(clientID string, args []string) *CommandError {
	targetID := clientID
	if len(args) > 0 {
		targetID = args[0]
	}

	if !r.clients.IsOnline(targetID) {
		return cmdError(ErrCodeNotFound, "USER_INFO", fmt.Sprintf("User '%s' is not online.", targetID))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Info for %s (%s) ---\n", r.clients.Name(targetID), targetID)
	sb.WriteString("Status: Online\n")

	contextID := r.clients.Context(targetID)
	if contextID == "" {
		contextID = "None"
	}
	fmt.Fprintf(&sb, "Current Context: %s\n", contextID)

	if targetID != clientID {
		friendship := "None"
		if status, ok := r.friends.Status(clientID, targetID); ok {
			friendship = string(status)
		}
		fmt.Fprintf(&sb, "Friendship: %s\n", friendship)
	}

	conn, _ := r.clients.Conn(clientID)
	r.bcast.SendSystem(conn, proto.SubTypeUserInfoResult, sb.String())
	return nil
}

func (r *Resolver) handleRoomInfo(clientID string, args []string) *CommandError {
	var roomID string
	if len(args) > 0 {
		roomID = args[0]
	} else {
		roomID = r.clients.Context(clientID)
		if !IsRoomID(roomID) {
			return cmdError(ErrCodeValidation, "ROOM_INFO",
				"You are not currently in a room. Use ROOM_INFO <room_id>")
		}
	}

	room, ok := r.rooms.Get(roomID)
	if !ok {
		return cmdError(ErrCodeNotFound, "ROOM_INFO", fmt.Sprintf("Room '%s' not found.", roomID))
	}

	inviteCode := room.InviteCode
	if inviteCode == "" {
		inviteCode = "N/A"
	}

	members := room.Members()
	names := make([]string, 0, len(members))
	for _, id := range members {
		names = append(names, fmt.Sprintf("%s (%s)", r.clients.Name(id), id))
	}

	info := fmt.Sprintf("--- Info for Room '%s' ---\n", room.Name) +
		fmt.Sprintf("ID: %s\n", room.ID) +
		fmt.Sprintf("Invite Code: %s\n", inviteCode) +
		fmt.Sprintf("Member Count: %d\n", len(members)) +
		fmt.Sprintf("Members: %s\n", strings.Join(names, ", "))

	conn, _ := r.clients.Conn(clientID)
	r.bcast.SendSystem(conn, proto.SubTypeRoomInfoResult, info)
	return nil
}

func (r *Resolver) roster(ids []string) []string {
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("  - %s (%s)", r.clients.Name(id), id))
	}
	return lines
}

func orNone(lines []string) string {
	if len(lines) == 0 {
		return "  (None)"
	}
	return strings.Join(lines, "\n")
}

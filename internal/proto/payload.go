package proto

// Payload type discriminants. The type field is emitted first so decoders
// can branch before reading the rest of the object.
const (
	TypeSystem = "SYSTEM"
	TypeChat   = "CHAT"
	TypeDM     = "DM"
	TypeError  = "ERROR"
)

// System sub-types used by the resolver.
const (
	SubTypeWelcome          = "WELCOME"
	SubTypeHelp             = "HELP"
	SubTypeFriendRequests   = "FRIEND_REQUESTS"
	SubTypeRoomCreated      = "ROOM_CREATED"
	SubTypeUserJoin         = "USER_JOIN"
	SubTypeRoomLeave        = "ROOM_LEAVE"
	SubTypeUserLeave        = "USER_LEAVE"
	SubTypeDMStart          = "DM_START"
	SubTypeListRooms        = "LIST_ROOMS"
	SubTypeListUsers        = "LIST_USERS"
	SubTypeListFriends      = "LIST_FRIENDS"
	SubTypeListPendingIn    = "LIST_PENDING_IN"
	SubTypeListPendingOut   = "LIST_PENDING_OUT"
	SubTypeFriendReqSent    = "FRIEND_REQUEST_SENT"
	SubTypeFriendReqRecv    = "FRIEND_REQUEST_RECEIVED"
	SubTypeFriendAdded      = "FRIEND_ADDED"
	SubTypeFriendAccepted   = "FRIEND_ACCEPTED"
	SubTypeFriendReqRemoved = "FRIEND_REQUEST_REMOVED"
	SubTypeFriendReqDenied  = "FRIEND_REQUEST_DENIED"
	SubTypeFriendRemoved    = "FRIEND_REMOVED"
	SubTypeNameSet          = "NAME_SET"
	SubTypeNameChange       = "NAME_CHANGE"
	SubTypeUserInfoResult   = "USER_INFO_RESULT"
	SubTypeRoomInfoResult   = "ROOM_INFO_RESULT"
)

// SystemPayload carries server-originated notifications.
type SystemPayload struct {
	Type    string         `json:"type"`
	SubType string         `json:"subType"`
	Context string         `json:"context,omitempty"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ChatPayload is a user message fanned out to a room.
type ChatPayload struct {
	Type      string `json:"type"`
	SenderID  string `json:"senderId"`
	RoomName  string `json:"roomName"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// DMPayload is a direct message. The target's copy names the sender as
// author; the sender's echo names the target as conversation partner. Both
// carry the same timestamp for correlation.
type DMPayload struct {
	Type                  string `json:"type"`
	SenderID              string `json:"senderId"`
	ConversationPartnerID string `json:"conversationPartnerId"`
	Message               string `json:"message"`
	Timestamp             int64  `json:"timestamp"`
}

// ErrorPayload reports a command failure to the originating connection only.
type ErrorPayload struct {
	Type      string `json:"type"`
	ErrorCode int    `json:"errorCode"`
	Command   string `json:"command"`
	Message   string `json:"message"`
}

func System(subType, context, message string, details map[string]any) SystemPayload {
	return SystemPayload{
		Type:    TypeSystem,
		SubType: subType,
		Context: context,
		Message: message,
		Details: details,
	}
}

func Chat(senderID, roomName, message string, ts int64) ChatPayload {
	return ChatPayload{
		Type:      TypeChat,
		SenderID:  senderID,
		RoomName:  roomName,
		Message:   message,
		Timestamp: ts,
	}
}

func DM(senderID, partnerID, message string, ts int64) DMPayload {
	return DMPayload{
		Type:                  TypeDM,
		SenderID:              senderID,
		ConversationPartnerID: partnerID,
		Message:               message,
		Timestamp:             ts,
	}
}

func Error(code int, command, message string) ErrorPayload {
	return ErrorPayload{
		Type:      TypeError,
		ErrorCode: code,
		Command:   command,
		Message:   message,
	}
}

package core

import "strings"

// TextCommand is the command keyword selected by the first token of a
// client text frame.
type TextCommand int

const (
	CmdUnknown TextCommand = iota
	CmdCreateRoom
	CmdJoinRoom
	CmdLeaveRoom
	CmdSay
	CmdDM
	CmdList
	CmdAddFriend
	CmdAcceptFriend
	CmdRejectFriend
	CmdRemoveFriend
	CmdSetName
	CmdUserInfo
	CmdRoomInfo
)

var commandNames = map[string]TextCommand{
	"CREATE_ROOM":   CmdCreateRoom,
	"JOIN_ROOM":     CmdJoinRoom,
	"LEAVE_ROOM":    CmdLeaveRoom,
	"SAY":           CmdSay,
	"DM":            CmdDM,
	"LIST":          CmdList,
	"ADD_FRIEND":    CmdAddFriend,
	"ACCEPT_FRIEND": CmdAcceptFriend,
	"REJECT_FRIEND": CmdRejectFriend,
	"REMOVE_FRIEND": CmdRemoveFriend,
	"SET_NAME":      CmdSetName,
	"USER_INFO":     CmdUserInfo,
	"ROOM_INFO":     CmdRoomInfo,
}

func (c TextCommand) String() string {
	for name, cmd := range commandNames {
		if cmd == c {
			return name
		}
	}
	return "UNKNOWN"
}

// ParsedCommand is the structured form of one client text frame.
type ParsedCommand struct {
	Command TextCommand
	// Keyword is the first token as the client typed it, kept for error
	// reporting.
	Keyword string
	Args    []string
	// Message is the free-form tail for SAY.
	Message string
}

// ParseCommand tokenizes a raw text frame into a structured command. It is
// pure and stateless; unrecognized or malformed input yields CmdUnknown,
// never an error.
func ParseCommand(payload string) ParsedCommand {
	parts := strings.Fields(payload)
	if len(parts) == 0 {
		return ParsedCommand{Command: CmdUnknown}
	}

	keyword := parts[0]
	cmd, ok := commandNames[strings.ToUpper(keyword)]
	if !ok {
		return ParsedCommand{Command: CmdUnknown, Keyword: keyword}
	}

	if len(parts) == 1 {
		switch cmd {
		case CmdList, CmdUserInfo, CmdRoomInfo, CmdLeaveRoom:
			return ParsedCommand{Command: cmd, Keyword: keyword}
		}
		// Every other command requires at least one argument token.
		return ParsedCommand{Command: CmdUnknown, Keyword: keyword}
	}

	switch cmd {
	case CmdSay:
		return ParsedCommand{
			Command: cmd,
			Keyword: keyword,
			Message: strings.Join(parts[1:], " "),
		}
	case CmdCreateRoom, CmdSetName:
		return ParsedCommand{
			Command: cmd,
			Keyword: keyword,
			Args:    []string{strings.Join(parts[1:], " ")},
		}
	case CmdDM, CmdJoinRoom, CmdAddFriend, CmdAcceptFriend, CmdRejectFriend,
		CmdRemoveFriend, CmdList, CmdRoomInfo, CmdUserInfo:
		return ParsedCommand{
			Command: cmd,
			Keyword: keyword,
			Args:    []string{parts[1]},
		}
	default:
		return ParsedCommand{Command: CmdUnknown, Keyword: keyword}
	}
}

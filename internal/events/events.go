package events

import (
	"encoding/json"
	"fmt"
)

// 服务端推送帧的 action 判别字段取值。
const (
	ActionLoadMessages     = "loadMessages"
	ActionDeleteMessage    = "deleteMessage"
	ActionEditMessage      = "editMessage"
	ActionPrintMessage     = "printMessage"
	ActionAddOnlineUser    = "addOnlineUser"
	ActionRemoveOnlineUser = "removeOnlineUser"
	ActionDeleteRoom       = "deleteRoom"
	ActionLeaveUser        = "leaveUser"
	ActionAddRoom          = "addRoom"
	ActionAddInvite        = "addInvite"
	ActionInviteUser       = "inviteUser"
	ActionSetWsID          = "setWsId"
)

type Event interface {
	EventAction() string
}

type UserDto struct {
	UserID int64  `json:"userId"`
	User   string `json:"user"`
	Sex    string `json:"sex"`
}

type RoomDto struct {
	RoomID        int64   `json:"roomId"`
	Name          string  `json:"name"`
	Volume        float64 `json:"volume"`
	Notifications bool    `json:"notifications"`
	Users         []int64 `json:"users"`
}

type MessageDto struct {
	ID      int64   `json:"id"`
	RoomID  int64   `json:"roomId"`
	UserID  int64   `json:"userId"`
	Time    int64   `json:"time"`
	Content *string `json:"content"`
	Symbol  *string `json:"symbol"`
	Giphy   *string `json:"giphy"`
	Files   []int64 `json:"files"`
	Edited  bool    `json:"edited"`
	Deleted bool    `json:"deleted"`
}

type LoadMessages struct {
	RoomID  int64        `json:"roomId"`
	Content []MessageDto `json:"content"`
}

func (*LoadMessages) EventAction() string { return ActionLoadMessages }

type DeleteMessage struct {
	MessageDto
}

func (*DeleteMessage) EventAction() string { return ActionDeleteMessage }

type EditMessage struct {
	MessageDto
}

func (*EditMessage) EventAction() string { return ActionEditMessage }

type PrintMessage struct {
	MessageDto
}

func (*PrintMessage) EventAction() string { return ActionPrintMessage }

// AddOnlineUser 除全量在线列表外还携带该用户的基本资料，
// 以便本地尚无此用户时即时建档。
type AddOnlineUser struct {
	UserID  int64   `json:"userId"`
	User    string  `json:"user"`
	Sex     string  `json:"sex"`
	Content []int64 `json:"content"`
}

func (*AddOnlineUser) EventAction() string { return ActionAddOnlineUser }

type RemoveOnlineUser struct {
	Content []int64 `json:"content"`
}

func (*RemoveOnlineUser) EventAction() string { return ActionRemoveOnlineUser }

type DeleteRoom struct {
	RoomID int64 `json:"roomId"`
}

func (*DeleteRoom) EventAction() string { return ActionDeleteRoom }

type LeaveUser struct {
	RoomID int64   `json:"roomId"`
	Users  []int64 `json:"users"`
}

func (*LeaveUser) EventAction() string { return ActionLeaveUser }

type AddRoom struct {
	RoomDto
}

func (*AddRoom) EventAction() string { return ActionAddRoom }

type AddInvite struct {
	RoomDto
}

func (*AddInvite) EventAction() string { return ActionAddInvite }

type InviteUser struct {
	RoomID int64   `json:"roomId"`
	Users  []int64 `json:"users"`
}

func (*InviteUser) EventAction() string { return ActionInviteUser }

// SetWsID 是建连后的会话初始化帧，携带三份全量快照。
type SetWsID struct {
	Users  []UserDto `json:"users"`
	Rooms  []RoomDto `json:"rooms"`
	Online []int64   `json:"online"`
}

func (*SetWsID) EventAction() string { return ActionSetWsID }

type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Action)
}

// Decode 先读 action 判别字段，再按具体类型二次反序列化。
func Decode(data []byte) (Event, error) {
	var env struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	var ev Event
	switch env.Action {
	case ActionLoadMessages:
		ev = &LoadMessages{}
	case ActionDeleteMessage:
		ev = &DeleteMessage{}
	case ActionEditMessage:
		ev = &EditMessage{}
	case ActionPrintMessage:
		ev = &PrintMessage{}
	case ActionAddOnlineUser:
		ev = &AddOnlineUser{}
	case ActionRemoveOnlineUser:
		ev = &RemoveOnlineUser{}
	case ActionDeleteRoom:
		ev = &DeleteRoom{}
	case ActionLeaveUser:
		ev = &LeaveUser{}
	case ActionAddRoom:
		ev = &AddRoom{}
	case ActionAddInvite:
		ev = &AddInvite{}
	case ActionInviteUser:
		ev = &InviteUser{}
	case ActionSetWsID:
		ev = &SetWsID{}
	default:
		return nil, &UnknownActionError{Action: env.Action}
	}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Action, err)
	}
	return ev, nil
}

package engine

import (
	"github.com/scepter7/pychat/internal/events"
	"github.com/scepter7/pychat/internal/models"
)

// 快照应用只在会话（重）建立时由 transport 调用，
// 不走稳态事件的分发表。

// SetUsers 整体重建用户字典，不触碰在线集合与房间。
func (e *Engine) SetUsers(users []events.UserDto) {
	dict := make(map[int64]models.User, len(users))
	for _, u := range users {
		dict[u.UserID] = toUser(u)
	}
	e.store.SetUsers(dict)
}

// SetRooms 整体重建房间字典。服务端快照不带消息历史，
// 已有房间的本地消息列表与 allLoaded 标记保留，其余字段替换；
// 快照里没有的房间被丢弃。
func (e *Engine) SetRooms(rooms []events.RoomDto) {
	dict := make(map[int64]models.Room, len(rooms))
	for _, dto := range rooms {
		r := models.Room{
			ID:            dto.RoomID,
			Name:          dto.Name,
			Volume:        dto.Volume,
			Notifications: dto.Notifications,
			Users:         append([]int64(nil), dto.Users...),
			Messages:      []models.Message{},
		}
		if old, ok := e.store.Room(dto.RoomID); ok {
			r.Messages = old.Messages
			r.AllLoaded = old.AllLoaded
		}
		dict[dto.RoomID] = r
	}
	e.store.SetRooms(dict)
}

// SetOnline 整体替换在线集合。
func (e *Engine) SetOnline(ids []int64) {
	e.store.SetOnline(ids)
}

// ApplySession 按固定顺序应用建连初始化帧携带的三份快照。
func (e *Engine) ApplySession(ev *events.SetWsID) {
	e.SetUsers(ev.Users)
	e.SetRooms(ev.Rooms)
	e.SetOnline(ev.Online)
}

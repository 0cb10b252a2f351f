package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/scepter7/pychat/internal/events"
	"github.com/scepter7/pychat/internal/metrics"
	"github.com/scepter7/pychat/internal/models"
)

// addRoom 无条件 upsert：新建或受邀的房间没有历史可翻页，
// 消息列表为空且 allLoaded 置位。addRoom 与 addInvite 共用。
func (e *Engine) addRoom(dto events.RoomDto) error {
	e.store.AddRoom(models.Room{
		ID:            dto.RoomID,
		Name:          dto.Name,
		Volume:        dto.Volume,
		Notifications: dto.Notifications,
		Users:         append([]int64(nil), dto.Users...),
		Messages:      []models.Message{},
		AllLoaded:     true,
	})
	return nil
}

func (e *Engine) deleteRoom(ev *events.DeleteRoom) error {
	if !e.store.DeleteRoom(ev.RoomID) {
		metrics.ReferentMissesTotal.Inc()
		log.Error().Int64("room_id", ev.RoomID).Msg("delete room: room not found")
		return fmt.Errorf("delete room: %w: room %d", ErrRoomNotFound, ev.RoomID)
	}
	return nil
}

// leaveUser 用服务端给出的剩余成员整体替换房间成员集合。
func (e *Engine) leaveUser(ev *events.LeaveUser) error {
	if !e.store.SetRoomUsers(ev.RoomID, ev.Users) {
		metrics.ReferentMissesTotal.Inc()
		log.Error().Int64("room_id", ev.RoomID).Msg("leave user: room not found")
		return fmt.Errorf("leave user: %w: room %d", ErrRoomNotFound, ev.RoomID)
	}
	return nil
}

// inviteUser 与成员变更是同一种状态变化，只是事件来源不同。
func (e *Engine) inviteUser(ev *events.InviteUser) error {
	if !e.store.SetRoomUsers(ev.RoomID, ev.Users) {
		metrics.ReferentMissesTotal.Inc()
		log.Error().Int64("room_id", ev.RoomID).Msg("invite user: room not found")
		return fmt.Errorf("invite user: %w: room %d", ErrRoomNotFound, ev.RoomID)
	}
	return nil
}

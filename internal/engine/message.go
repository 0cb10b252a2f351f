package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/scepter7/pychat/internal/events"
	"github.com/scepter7/pychat/internal/metrics"
	"github.com/scepter7/pychat/internal/models"
)

func toMessage(dto events.MessageDto) models.Message {
	return models.Message{
		ID:      dto.ID,
		RoomID:  dto.RoomID,
		UserID:  dto.UserID,
		Time:    dto.Time,
		Content: dto.Content,
		Symbol:  dto.Symbol,
		Giphy:   dto.Giphy,
		Files:   append([]int64(nil), dto.Files...),
		Edited:  dto.Edited,
		Deleted: dto.Deleted,
	}
}

// loadMessages 把一页历史消息并入房间：按 id 去重后整体保持时间序；
// 空页意味着没有更多历史，只在这种情况下置位 allLoaded。
func (e *Engine) loadMessages(ev *events.LoadMessages) error {
	if !e.store.HasRoom(ev.RoomID) {
		metrics.ReferentMissesTotal.Inc()
		log.Error().Int64("room_id", ev.RoomID).Msg("load messages: room not found")
		return fmt.Errorf("load messages: %w: room %d", ErrRoomNotFound, ev.RoomID)
	}
	if len(ev.Content) == 0 {
		e.store.SetAllLoaded(ev.RoomID)
		return nil
	}
	existing := make(map[int64]struct{})
	for _, m := range e.store.Messages(ev.RoomID) {
		existing[m.ID] = struct{}{}
	}
	msgs := make([]models.Message, 0, len(ev.Content))
	for _, dto := range ev.Content {
		if _, ok := existing[dto.ID]; ok {
			metrics.DuplicatesSuppressedTotal.Inc()
			log.Debug().Int64("room_id", ev.RoomID).Int64("id", dto.ID).Msg("load messages: duplicate suppressed")
			continue
		}
		msgs = append(msgs, toMessage(dto))
	}
	e.store.AddMessages(ev.RoomID, msgs)
	return nil
}

// deleteMessage 对已知消息原位打墓碑，同时套用事件携带的字段修正；
// 本地还没有这条消息时只记日志，后续重投递会被去重兜住。
func (e *Engine) deleteMessage(ev *events.DeleteMessage) error {
	if _, ok := e.store.Message(ev.RoomID, ev.ID); !ok {
		metrics.ReferentMissesTotal.Inc()
		log.Error().Int64("room_id", ev.RoomID).Int64("id", ev.ID).Msg("delete message: message not found")
		return fmt.Errorf("delete message: %w: %d in room %d", ErrMessageNotFound, ev.ID, ev.RoomID)
	}
	msg := toMessage(ev.MessageDto)
	msg.Deleted = true
	e.store.DeleteMessage(msg)
	return nil
}

// editMessage 用事件载荷整体替换已有消息，绝不因编辑创建消息。
func (e *Engine) editMessage(ev *events.EditMessage) error {
	if _, ok := e.store.Message(ev.RoomID, ev.ID); !ok {
		metrics.ReferentMissesTotal.Inc()
		log.Error().Int64("room_id", ev.RoomID).Int64("id", ev.ID).Msg("edit message: message not found")
		return fmt.Errorf("edit message: %w: %d in room %d", ErrMessageNotFound, ev.ID, ev.RoomID)
	}
	e.store.EditMessage(toMessage(ev.MessageDto))
	return nil
}

// printMessage 把实时消息插到第一条时间更大的消息之前，
// 乱序到达也能维持整体时间升序；重复 id 直接跳过。
func (e *Engine) printMessage(ev *events.PrintMessage) error {
	room, ok := e.store.Room(ev.RoomID)
	if !ok {
		metrics.ReferentMissesTotal.Inc()
		log.Error().Int64("room_id", ev.RoomID).Int64("id", ev.ID).Msg("print message: room not found")
		return fmt.Errorf("print message: %w: room %d", ErrRoomNotFound, ev.RoomID)
	}
	for _, m := range room.Messages {
		if m.ID == ev.ID {
			metrics.DuplicatesSuppressedTotal.Inc()
			log.Debug().Int64("room_id", ev.RoomID).Int64("id", ev.ID).Msg("print message: already present")
			return nil
		}
	}
	msg := toMessage(ev.MessageDto)
	index := 0
	for ; index < len(room.Messages); index++ {
		if room.Messages[index].Time > msg.Time {
			break
		}
	}
	e.store.AddMessage(msg, index)
	return nil
}

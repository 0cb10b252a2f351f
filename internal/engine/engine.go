package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/scepter7/pychat/internal/events"
	"github.com/scepter7/pychat/internal/metrics"
	"github.com/scepter7/pychat/internal/store"
)

type handlerFunc func(e *Engine, ev events.Event) error

// Engine 把服务端推送的事件流调和进归一化状态，是状态的唯一写者。
// 分发表在 New 里构建一次，之后只读。
type Engine struct {
	store *store.Store
	table map[string]handlerFunc
}

func New(st *store.Store) *Engine {
	e := &Engine{store: st}
	e.table = map[string]handlerFunc{
		events.ActionLoadMessages: func(e *Engine, ev events.Event) error {
			return e.loadMessages(ev.(*events.LoadMessages))
		},
		events.ActionDeleteMessage: func(e *Engine, ev events.Event) error {
			return e.deleteMessage(ev.(*events.DeleteMessage))
		},
		events.ActionEditMessage: func(e *Engine, ev events.Event) error {
			return e.editMessage(ev.(*events.EditMessage))
		},
		events.ActionPrintMessage: func(e *Engine, ev events.Event) error {
			return e.printMessage(ev.(*events.PrintMessage))
		},
		events.ActionAddOnlineUser: func(e *Engine, ev events.Event) error {
			return e.addOnlineUser(ev.(*events.AddOnlineUser))
		},
		events.ActionRemoveOnlineUser: func(e *Engine, ev events.Event) error {
			return e.removeOnlineUser(ev.(*events.RemoveOnlineUser))
		},
		events.ActionDeleteRoom: func(e *Engine, ev events.Event) error {
			return e.deleteRoom(ev.(*events.DeleteRoom))
		},
		events.ActionLeaveUser: func(e *Engine, ev events.Event) error {
			return e.leaveUser(ev.(*events.LeaveUser))
		},
		events.ActionAddRoom: func(e *Engine, ev events.Event) error {
			return e.addRoom(ev.(*events.AddRoom).RoomDto)
		},
		events.ActionAddInvite: func(e *Engine, ev events.Event) error {
			return e.addRoom(ev.(*events.AddInvite).RoomDto)
		},
		events.ActionInviteUser: func(e *Engine, ev events.Event) error {
			return e.inviteUser(ev.(*events.InviteUser))
		},
	}
	return e
}

func (e *Engine) Store() *store.Store { return e.store }

// Dispatch 同步处理一条事件。未知类型只记日志并丢弃，
// 任何返回的错误都只用于诊断，分发循环不会因此中断。
func (e *Engine) Dispatch(ev events.Event) error {
	action := ev.EventAction()
	h, ok := e.table[action]
	if !ok {
		metrics.UnknownEventsTotal.Inc()
		log.Warn().Str("action", action).Msg("dropping event with unknown type")
		return fmt.Errorf("%w: %s", ErrUnknownEventType, action)
	}
	metrics.EventsTotal.WithLabelValues(action).Inc()
	return h(e, ev)
}

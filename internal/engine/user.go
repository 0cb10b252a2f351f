package engine

import (
	"github.com/scepter7/pychat/internal/events"
	"github.com/scepter7/pychat/internal/models"
)

func toUser(dto events.UserDto) models.User {
	return models.User{ID: dto.UserID, Name: dto.User, Sex: models.ParseSex(dto.Sex)}
}

// addOnlineUser 先保证该用户在用户字典里有档案，再把事件携带的
// 在线列表并入在线集合（只增不减）。
func (e *Engine) addOnlineUser(ev *events.AddOnlineUser) error {
	if _, ok := e.store.User(ev.UserID); !ok {
		e.store.AddUser(models.User{ID: ev.UserID, Name: ev.User, Sex: models.ParseSex(ev.Sex)})
	}
	e.store.AddOnline(ev.Content)
	return nil
}

// removeOnlineUser 携带的是服务端权威的剩余在线列表，整体替换。
func (e *Engine) removeOnlineUser(ev *events.RemoveOnlineUser) error {
	e.store.SetOnline(ev.Content)
	return nil
}

package engine

import "errors"

// 调和过程的诊断性错误，没有任何一个会终止分发循环。
var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrRoomNotFound     = errors.New("room not found")
	ErrMessageNotFound  = errors.New("message not found")
)

package store

import (
	"sort"
	"sync"

	"github.com/scepter7/pychat/internal/models"
)

// Store 持有归一化的会话状态：房间、用户与在线集合。
// 所有写入都必须经由下方的 commit 方法，调和引擎是唯一写者，
// 视图层只通过读方法取快照，不会拿到内部引用。
type Store struct {
	mu      sync.RWMutex
	rooms   map[int64]*models.Room
	users   map[int64]*models.User
	online  map[int64]struct{}
	changes chan struct{}
}

func New() *Store {
	return &Store{
		rooms:   make(map[int64]*models.Room),
		users:   make(map[int64]*models.User),
		online:  make(map[int64]struct{}),
		changes: make(chan struct{}, 1),
	}
}

// Changes 返回提交通知通道，每次成功提交后至多收到一个信号。
func (s *Store) Changes() <-chan struct{} { return s.changes }

func (s *Store) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func copyRoom(r *models.Room) models.Room {
	out := *r
	out.Users = append([]int64(nil), r.Users...)
	out.Messages = append([]models.Message(nil), r.Messages...)
	return out
}

// Room 返回房间的快照副本。
func (s *Store) Room(id int64) (models.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return models.Room{}, false
	}
	return copyRoom(r), true
}

func (s *Store) HasRoom(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[id]
	return ok
}

func (s *Store) RoomIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Messages 返回房间消息列表的副本，按时间升序。
func (s *Store) Messages(roomID int64) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	return append([]models.Message(nil), r.Messages...)
}

func (s *Store) Message(roomID, id int64) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return models.Message{}, false
	}
	for _, m := range r.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return models.Message{}, false
}

func (s *Store) HasMessage(roomID, id int64) bool {
	_, ok := s.Message(roomID, id)
	return ok
}

func (s *Store) AllLoaded(roomID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	return ok && r.AllLoaded
}

func (s *Store) User(id int64) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	return *u, true
}

func (s *Store) Users() map[int64]models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]models.User, len(s.users))
	for id, u := range s.users {
		out[id] = *u
	}
	return out
}

// Online 返回在线用户 id 的有序副本。
func (s *Store) Online() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.online))
	for id := range s.online {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AddMessages 把已去重的消息合并进房间，整体保持时间升序。
func (s *Store) AddMessages(roomID int64, msgs []models.Message) bool {
	if len(msgs) == 0 {
		return true
	}
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	r.Messages = append(r.Messages, msgs...)
	sort.SliceStable(r.Messages, func(i, j int) bool { return r.Messages[i].Time < r.Messages[j].Time })
	s.mu.Unlock()
	s.notify()
	return true
}

// AddMessage 在 index 处插入一条消息，index 由引擎按时间序计算。
func (s *Store) AddMessage(msg models.Message, index int) bool {
	s.mu.Lock()
	r, ok := s.rooms[msg.RoomID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if index < 0 {
		index = 0
	}
	if index > len(r.Messages) {
		index = len(r.Messages)
	}
	r.Messages = append(r.Messages, models.Message{})
	copy(r.Messages[index+1:], r.Messages[index:])
	r.Messages[index] = msg
	s.mu.Unlock()
	s.notify()
	return true
}

// DeleteMessage 以墓碑方式原位覆盖消息，不改变其位置。
func (s *Store) DeleteMessage(msg models.Message) bool {
	return s.replaceMessage(msg)
}

// EditMessage 原位替换已有消息的全部字段。
func (s *Store) EditMessage(msg models.Message) bool {
	return s.replaceMessage(msg)
}

func (s *Store) replaceMessage(msg models.Message) bool {
	s.mu.Lock()
	r, ok := s.rooms[msg.RoomID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	for i := range r.Messages {
		if r.Messages[i].ID == msg.ID {
			r.Messages[i] = msg
			s.mu.Unlock()
			s.notify()
			return true
		}
	}
	s.mu.Unlock()
	return false
}

func (s *Store) SetAllLoaded(roomID int64) bool {
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	r.AllLoaded = true
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *Store) AddUser(u models.User) {
	s.mu.Lock()
	cp := u
	s.users[u.ID] = &cp
	s.mu.Unlock()
	s.notify()
}

// SetUsers 整体重建用户字典，不触碰在线集合与房间。
func (s *Store) SetUsers(users map[int64]models.User) {
	s.mu.Lock()
	s.users = make(map[int64]*models.User, len(users))
	for id, u := range users {
		cp := u
		s.users[id] = &cp
	}
	s.mu.Unlock()
	s.notify()
}

// SetOnline 整体替换在线集合。
func (s *Store) SetOnline(ids []int64) {
	s.mu.Lock()
	s.online = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s.online[id] = struct{}{}
	}
	s.mu.Unlock()
	s.notify()
}

// AddOnline 把给定用户并入在线集合，只增不减。
func (s *Store) AddOnline(ids []int64) {
	s.mu.Lock()
	for _, id := range ids {
		s.online[id] = struct{}{}
	}
	s.mu.Unlock()
	s.notify()
}

// AddRoom 无条件写入房间，覆盖同 id 的旧条目。
func (s *Store) AddRoom(room models.Room) {
	s.mu.Lock()
	cp := copyRoom(&room)
	s.rooms[room.ID] = &cp
	s.mu.Unlock()
	s.notify()
}

// SetRooms 整体重建房间字典，未出现的房间被丢弃。
func (s *Store) SetRooms(rooms map[int64]models.Room) {
	s.mu.Lock()
	s.rooms = make(map[int64]*models.Room, len(rooms))
	for id, r := range rooms {
		cp := copyRoom(&r)
		s.rooms[id] = &cp
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) DeleteRoom(roomID int64) bool {
	s.mu.Lock()
	if _, ok := s.rooms[roomID]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.rooms, roomID)
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *Store) SetRoomUsers(roomID int64, users []int64) bool {
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	r.Users = append([]int64(nil), users...)
	s.mu.Unlock()
	s.notify()
	return true
}

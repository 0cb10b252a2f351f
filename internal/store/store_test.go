package store

import (
	"testing"

	"github.com/scepter7/pychat/internal/models"
)

func seedRoom(s *Store, id int64, msgs ...models.Message) {
	s.AddRoom(models.Room{ID: id, Name: "room", Messages: msgs})
}

func TestNew(t *testing.T) {
	s := New()
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if len(s.RoomIDs()) != 0 {
		t.Errorf("RoomIDs() = %v, want empty", s.RoomIDs())
	}
}

func TestAddMessages_KeepsTimeOrder(t *testing.T) {
	s := New()
	seedRoom(s, 1, models.Message{ID: 3, RoomID: 1, Time: 300})

	ok := s.AddMessages(1, []models.Message{
		{ID: 1, RoomID: 1, Time: 100},
		{ID: 2, RoomID: 1, Time: 200},
	})
	if !ok {
		t.Fatal("AddMessages() = false, want true")
	}

	msgs := s.Messages(1)
	if len(msgs) != 3 {
		t.Fatalf("len(Messages()) = %d, want 3", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i-1].Time > msgs[i].Time {
			t.Errorf("Messages() not sorted by time: %d before %d", msgs[i-1].Time, msgs[i].Time)
		}
	}
}

func TestAddMessages_UnknownRoom(t *testing.T) {
	s := New()
	if s.AddMessages(99, []models.Message{{ID: 1, RoomID: 99}}) {
		t.Error("AddMessages() for unknown room = true, want false")
	}
}

func TestAddMessage_InsertsAtIndex(t *testing.T) {
	s := New()
	seedRoom(s, 1,
		models.Message{ID: 1, RoomID: 1, Time: 100},
		models.Message{ID: 3, RoomID: 1, Time: 300},
	)

	s.AddMessage(models.Message{ID: 2, RoomID: 1, Time: 200}, 1)

	msgs := s.Messages(1)
	if len(msgs) != 3 {
		t.Fatalf("len(Messages()) = %d, want 3", len(msgs))
	}
	if msgs[1].ID != 2 {
		t.Errorf("Messages()[1].ID = %d, want 2", msgs[1].ID)
	}
}

func TestDeleteMessage_TombstoneKeepsPosition(t *testing.T) {
	s := New()
	seedRoom(s, 1,
		models.Message{ID: 1, RoomID: 1, Time: 100},
		models.Message{ID: 2, RoomID: 1, Time: 200},
	)

	if !s.DeleteMessage(models.Message{ID: 1, RoomID: 1, Time: 100, Deleted: true}) {
		t.Fatal("DeleteMessage() = false, want true")
	}

	msgs := s.Messages(1)
	if len(msgs) != 2 {
		t.Fatalf("len(Messages()) = %d, want 2", len(msgs))
	}
	if msgs[0].ID != 1 || !msgs[0].Deleted {
		t.Errorf("Messages()[0] = %+v, want id 1 with Deleted", msgs[0])
	}
}

func TestEditMessage_UnknownMessage(t *testing.T) {
	s := New()
	seedRoom(s, 1)
	if s.EditMessage(models.Message{ID: 7, RoomID: 1}) {
		t.Error("EditMessage() for unknown message = true, want false")
	}
	if len(s.Messages(1)) != 0 {
		t.Errorf("len(Messages()) = %d, want 0", len(s.Messages(1)))
	}
}

func TestSetAllLoaded(t *testing.T) {
	s := New()
	s.AddRoom(models.Room{ID: 1})
	if s.AllLoaded(1) {
		t.Error("AllLoaded() = true before SetAllLoaded")
	}
	s.SetAllLoaded(1)
	if !s.AllLoaded(1) {
		t.Error("AllLoaded() = false after SetAllLoaded")
	}
}

func TestOnline_UnionAndReplace(t *testing.T) {
	s := New()
	s.SetOnline([]int64{1, 2})
	s.AddOnline([]int64{2, 3})

	online := s.Online()
	if len(online) != 3 {
		t.Fatalf("len(Online()) = %d, want 3", len(online))
	}

	s.SetOnline([]int64{5})
	online = s.Online()
	if len(online) != 1 || online[0] != 5 {
		t.Errorf("Online() = %v, want [5]", online)
	}
}

func TestSetRooms_DropsAbsentRooms(t *testing.T) {
	s := New()
	s.AddRoom(models.Room{ID: 1})
	s.AddRoom(models.Room{ID: 2})

	s.SetRooms(map[int64]models.Room{2: {ID: 2, Name: "kept"}})

	if s.HasRoom(1) {
		t.Error("HasRoom(1) = true after SetRooms without room 1")
	}
	r, ok := s.Room(2)
	if !ok || r.Name != "kept" {
		t.Errorf("Room(2) = %+v, %v, want name kept", r, ok)
	}
}

func TestDeleteRoom_Unknown(t *testing.T) {
	s := New()
	if s.DeleteRoom(999) {
		t.Error("DeleteRoom(999) = true, want false")
	}
}

func TestRoom_ReturnsCopy(t *testing.T) {
	s := New()
	seedRoom(s, 1, models.Message{ID: 1, RoomID: 1, Time: 100})

	r, _ := s.Room(1)
	r.Messages[0].ID = 42
	r.Users = append(r.Users, 7)

	msgs := s.Messages(1)
	if msgs[0].ID != 1 {
		t.Errorf("Messages()[0].ID = %d after mutating copy, want 1", msgs[0].ID)
	}
}

func TestChanges_SignalledOnCommit(t *testing.T) {
	s := New()
	s.AddRoom(models.Room{ID: 1})
	select {
	case <-s.Changes():
	default:
		t.Error("no change signal after AddRoom")
	}
}

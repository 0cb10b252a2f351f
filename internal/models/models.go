package models

type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

func ParseSex(s string) Sex {
	switch s {
	case "Male", "MALE":
		return SexMale
	case "Female", "FEMALE":
		return SexFemale
	}
	return SexUnknown
}

func (s Sex) String() string {
	switch s {
	case SexMale:
		return "MALE"
	case SexFemale:
		return "FEMALE"
	}
	return "UNKNOWN"
}

type User struct {
	ID   int64
	Name string
	Sex  Sex
}

type Message struct {
	ID      int64
	RoomID  int64
	UserID  int64
	Time    int64
	Content *string
	Symbol  *string
	Giphy   *string
	Files   []int64
	Edited  bool
	Deleted bool
}

type Room struct {
	ID            int64
	Name          string
	Volume        float64
	Notifications bool
	Users         []int64
	Messages      []Message
	AllLoaded     bool
}

package domain

import "time"

// EventCategory es la categoria cerrada de eventos.
type EventCategory string

var EventCategories = []EventCategory{"academic", "social", "sports", "arts", "career"}

func ParseEventCategory(s string) (EventCategory, bool) {
	for _, c := range EventCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type Event struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      EventCategory `json:"category"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Location      string        `json:"location"`
	Organizer     string        `json:"organizer"`
	MaxAttendees  int           `json:"max_attendees"`
	AttendeeCount int           `json:"attendees"`
	ImageURL      string        `json:"image,omitempty"`
	Tags          []string      `json:"tags"`
	IsActive      bool          `json:"is_active"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// AvailableSpots nunca es negativo.
func (e Event) AvailableSpots() int {
	if n := e.MaxAttendees - e.AttendeeCount; n > 0 {
		return n
	}
	return 0
}

// EventStatus describe la relacion de un usuario con un evento.
type EventStatus struct {
	EventID  string `json:"event_id"`
	IsJoined bool   `json:"is_joined"`
	IsSaved  bool   `json:"is_saved"`
}

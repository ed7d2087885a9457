package domain

import "time"

type GroupCategory string

var GroupCategories = []GroupCategory{"academic", "social", "sports", "arts", "service", "professional"}

func ParseGroupCategory(s string) (GroupCategory, bool) {
	for _, c := range GroupCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type Group struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    GroupCategory `json:"category"`
	MeetingTime string        `json:"meetingTime"`
	Location    string        `json:"location"`
	Contact     string        `json:"contact"`
	ImageURL    string        `json:"image,omitempty"`
	Tags        []string      `json:"tags"`
	MemberCount int           `json:"members"`
	IsActive    bool          `json:"is_active"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

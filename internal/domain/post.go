package domain

import "time"

type PostCategory string

var PostCategories = []PostCategory{"academic", "social", "announcement", "general"}

func ParsePostCategory(s string) (PostCategory, bool) {
	for _, c := range PostCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Author es la vista embebida del autor de un post o comentario.
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role"`
}

func AuthorFromUser(u User) Author {
	return Author{
		ID:     u.ID,
		Name:   u.FullName,
		Avatar: u.ProfilePictureURL,
		Role:   u.AuthorRole(),
	}
}

type Post struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Category     PostCategory `json:"category"`
	AuthorID     string       `json:"-"`
	Author       Author       `json:"author"`
	LikeCount    int          `json:"likes"`
	CommentCount int          `json:"comments"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"timestamp"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"-"`
	Author    Author    `json:"author"`
	IsActive  bool      `json:"-"`
	CreatedAt time.Time `json:"timestamp"`
}

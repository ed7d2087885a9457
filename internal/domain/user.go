package domain

import (
	"strings"
	"time"
)

// UserRole identifica el rol academico de una cuenta.
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleTeacher    UserRole = "teacher"
	RoleManagement UserRole = "management"
)

// ParseUserRole devuelve el rol o false si no es uno de los conocidos.
func ParseUserRole(s string) (UserRole, bool) {
	switch UserRole(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleTeacher:
		return RoleTeacher, true
	case RoleManagement:
		return RoleManagement, true
	}
	return "", false
}

type User struct {
	ID                     string     `json:"user_id"`
	Email                  string     `json:"email"`
	PasswordHash           string     `json:"-"`
	FirstName              string     `json:"first_name"`
	LastName               string     `json:"last_name"`
	FullName               string     `json:"full_name"`
	Bio                    string     `json:"bio,omitempty"`
	Phone                  string     `json:"phone,omitempty"`
	Major                  string     `json:"major"`
	YearOfStudy            string     `json:"year_of_study"`
	Role                   UserRole   `json:"user_role"`
	ProfilePictureURL      string     `json:"profile_picture,omitempty"`
	ProfilePictureFilename string     `json:"-"`
	IsActive               bool       `json:"is_active"`
	IsVerified             bool       `json:"is_verified"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
	LastLogin              *time.Time `json:"last_login,omitempty"`
}

// ComposeFullName recalcula FullName a partir de nombre y apellido.
func (u *User) ComposeFullName() {
	u.FullName = strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// AuthorRole es la etiqueta corta que acompana al autor de posts y comentarios.
func (u User) AuthorRole() string {
	switch {
	case u.YearOfStudy != "" && u.Major != "":
		return u.YearOfStudy + " - " + u.Major
	case u.Major != "":
		return u.Major
	default:
		return string(u.Role)
	}
}

// Summary es la vista publica de una cuenta.
type Summary struct {
	ID                string   `json:"user_id"`
	Email             string   `json:"email"`
	FullName          string   `json:"full_name"`
	Role              UserRole `json:"user_role"`
	ProfilePictureURL string   `json:"profile_picture,omitempty"`
	IsVerified        bool     `json:"is_verified"`
}

func (u User) Summary() Summary {
	return Summary{
		ID:                u.ID,
		Email:             u.Email,
		FullName:          u.FullName,
		Role:              u.Role,
		ProfilePictureURL: u.ProfilePictureURL,
		IsVerified:        u.IsVerified,
	}
}

package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidCategory = errors.New("invalid category")
	ErrForbidden       = errors.New("forbidden")

	ErrUserNotFound  = errors.New("user not found")
	ErrEventNotFound = errors.New("event not found")
	ErrGroupNotFound = errors.New("group not found")
	ErrPostNotFound  = errors.New("post not found")

	ErrAlreadyJoined = errors.New("already registered for this event")
	ErrNotJoined     = errors.New("not registered for this event")
	ErrEventFull     = errors.New("event is full")
	ErrAlreadySaved  = errors.New("event already saved")
	ErrNotSaved      = errors.New("event is not saved")
	ErrAlreadyMember = errors.New("already a member of this group")
	ErrNotMember     = errors.New("not a member of this group")
	ErrAlreadyLiked  = errors.New("post already liked")
	ErrNotLiked      = errors.New("post not liked")
)

const maxTags = 10

// validID evita mandar a Postgres ids que no son uuid; para el cliente equivalen a "no existe".
func validID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

func required(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

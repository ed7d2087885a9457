package http

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"campus-connect/internal/domain"
	"campus-connect/internal/service"
)

func createEvent(t *testing.T, ts *testServer, token string, max int) eventView {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/events", map[string]any{
		"title":         "Hackathon",
		"description":   "48 hours of code",
		"category":      "academic",
		"date":          "2026-11-20",
		"time":          "09:00",
		"location":      "Engineering Building",
		"organizer":     "CS Club",
		"max_attendees": max,
		"tags":          []string{"code"},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create event: %d %s", w.Code, w.Body.String())
	}
	var e eventView
	decodeData(t, w, &e)
	return e
}

func TestEvents_JoinLeaveAndCapacity(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "alice@campus.edu")
	ts.seedUser(t, "bob@campus.edu")
	alice := ts.login(t, "alice@campus.edu")
	bob := ts.login(t, "bob@campus.edu")

	e := createEvent(t, ts, alice, 1)
	if e.AvailableSpots != 1 {
		t.Fatalf("expected 1 spot, got %d", e.AvailableSpots)
	}

	w := ts.do(t, http.MethodPost, "/api/events/"+e.ID+"/join", nil, alice)
	if w.Code != http.StatusOK {
		t.Fatalf("join: %d %s", w.Code, w.Body.String())
	}
	expectError(t, ts.do(t, http.MethodPost, "/api/events/"+e.ID+"/join", nil, alice), http.StatusUnprocessableEntity, "ALREADY_JOINED")
	expectError(t, ts.do(t, http.MethodPost, "/api/events/"+e.ID+"/join", nil, bob), http.StatusUnprocessableEntity, "EVENT_FULL")
	expectError(t, ts.do(t, http.MethodPost, "/api/events/"+e.ID+"/leave", nil, bob), http.StatusUnprocessableEntity, "NOT_JOINED")
	expectError(t, ts.do(t, http.MethodPost, "/api/events/"+uuid.NewString()+"/join", nil, bob), http.StatusNotFound, codeNotFound)

	w = ts.do(t, http.MethodPost, "/api/events/"+e.ID+"/save", nil, bob)
	if w.Code != http.StatusOK {
		t.Fatalf("save: %d %s", w.Code, w.Body.String())
	}
	w = ts.do(t, http.MethodGet, "/api/events/"+e.ID+"/status", nil, bob)
	var st domain.EventStatus
	decodeData(t, w, &st)
	if st.IsJoined || !st.IsSaved {
		t.Fatalf("unexpected status: %+v", st)
	}
	expectError(t, ts.do(t, http.MethodDelete, "/api/events/"+e.ID+"/save", nil, alice), http.StatusUnprocessableEntity, "NOT_SAVED")
}

func TestEvents_ListAndValidation(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "alice@campus.edu")
	token := ts.login(t, "alice@campus.edu")
	createEvent(t, ts, token, 10)

	w := ts.do(t, http.MethodGet, "/api/events/category/academic", nil, "")
	var list struct {
		Events []eventView `json:"events"`
		Count  int         `json:"count"`
	}
	decodeData(t, w, &list)
	if list.Count != 1 {
		t.Fatalf("expected 1 academic event, got %d", list.Count)
	}
	expectError(t, ts.do(t, http.MethodGet, "/api/events/category/music", nil, ""), http.StatusBadRequest, "INVALID_CATEGORY")
	expectError(t, ts.do(t, http.MethodGet, "/api/events/not-a-uuid", nil, ""), http.StatusNotFound, codeNotFound)

	w = ts.do(t, http.MethodPost, "/api/events", map[string]any{"title": "x", "max_attendees": 0}, token)
	expectError(t, w, http.StatusBadRequest, codeValidation)
}

func TestGroups_CreateAndJoin(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.seedUser(t, "alice@campus.edu")
	ts.seedUser(t, "bob@campus.edu")
	aliceToken := ts.login(t, "alice@campus.edu")
	bobToken := ts.login(t, "bob@campus.edu")

	w := ts.do(t, http.MethodPost, "/api/groups", map[string]any{
		"name":        "Climbing",
		"description": "Bouldering every week",
		"category":    "sports",
		"meetingTime": "Tuesdays 6pm",
		"location":    "Gym",
		"contact":     "climb@campus.edu",
	}, aliceToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create group: %d %s", w.Code, w.Body.String())
	}
	var g domain.Group
	decodeData(t, w, &g)
	if g.MemberCount != 1 {
		t.Fatalf("expected creator as member, got %d", g.MemberCount)
	}

	w = ts.do(t, http.MethodPost, "/api/groups/"+g.ID+"/join", map[string]string{"message": "hello"}, bobToken)
	if w.Code != http.StatusOK {
		t.Fatalf("join: %d %s", w.Code, w.Body.String())
	}
	expectError(t, ts.do(t, http.MethodPost, "/api/groups/"+g.ID+"/join", nil, bobToken), http.StatusUnprocessableEntity, "ALREADY_MEMBER")

	w = ts.do(t, http.MethodGet, "/api/users/"+alice.ID+"/groups", nil, "")
	var mine struct {
		Count int `json:"count"`
	}
	decodeData(t, w, &mine)
	if mine.Count != 1 {
		t.Fatalf("expected alice in 1 group, got %d", mine.Count)
	}
}

func TestPosts_AuthorOnlyAndLikes(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.seedUser(t, "alice@campus.edu")
	ts.seedUser(t, "bob@campus.edu")
	aliceToken := ts.login(t, "alice@campus.edu")
	bobToken := ts.login(t, "bob@campus.edu")

	w := ts.do(t, http.MethodPost, "/api/posts", map[string]string{"title": "Lost keys", "content": "Near the library", "category": "general"}, aliceToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create post: %d %s", w.Code, w.Body.String())
	}
	var p domain.Post
	decodeData(t, w, &p)
	if p.Author.ID != alice.ID {
		t.Fatalf("unexpected author: %+v", p.Author)
	}

	edit := map[string]string{"title": "Found", "content": "Thanks", "category": "general"}
	expectError(t, ts.do(t, http.MethodPut, "/api/posts/"+p.ID, edit, bobToken), http.StatusForbidden, codeForbidden)
	expectError(t, ts.do(t, http.MethodDelete, "/api/posts/"+p.ID, nil, bobToken), http.StatusForbidden, codeForbidden)
	if w := ts.do(t, http.MethodPut, "/api/posts/"+p.ID, edit, aliceToken); w.Code != http.StatusOK {
		t.Fatalf("edit: %d %s", w.Code, w.Body.String())
	}

	w = ts.do(t, http.MethodPost, "/api/posts/"+p.ID+"/like", nil, bobToken)
	var like service.LikeResult
	decodeData(t, w, &like)
	if like.Likes != 1 || !like.Liked {
		t.Fatalf("unexpected like result: %+v", like)
	}
	expectError(t, ts.do(t, http.MethodPost, "/api/posts/"+p.ID+"/like", nil, bobToken), http.StatusUnprocessableEntity, "ALREADY_LIKED")

	w = ts.do(t, http.MethodPost, "/api/posts/"+p.ID+"/comments", map[string]string{"content": "Check lost and found"}, bobToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("comment: %d %s", w.Code, w.Body.String())
	}
	w = ts.do(t, http.MethodGet, "/api/posts/"+p.ID+"/comments", nil, "")
	var comments struct {
		Count int `json:"count"`
	}
	decodeData(t, w, &comments)
	if comments.Count != 1 {
		t.Fatalf("expected 1 comment, got %d", comments.Count)
	}

	w = ts.do(t, http.MethodGet, "/api/posts?author="+alice.ID, nil, "")
	var byAuthor struct {
		Count int `json:"count"`
	}
	decodeData(t, w, &byAuthor)
	if byAuthor.Count != 1 {
		t.Fatalf("expected 1 post by alice, got %d", byAuthor.Count)
	}

	if w := ts.do(t, http.MethodDelete, "/api/posts/"+p.ID, nil, aliceToken); w.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
	expectError(t, ts.do(t, http.MethodGet, "/api/posts/"+p.ID, nil, ""), http.StatusNotFound, codeNotFound)
}

func TestUsers_PublicProfile(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.seedUser(t, "alice@campus.edu")

	w := ts.do(t, http.MethodGet, "/api/users/"+alice.ID, nil, "")
	var p service.PublicProfile
	decodeData(t, w, &p)
	if p.FullName != "Test User" || p.PostsCount != 0 {
		t.Fatalf("unexpected profile: %+v", p)
	}
	expectError(t, ts.do(t, http.MethodGet, "/api/users/"+uuid.NewString()+"/posts", nil, ""), http.StatusNotFound, codeNotFound)
}

package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"campus-connect/internal/repository"
)

type profileFixture struct {
	svc    *ProfileService
	users  *repository.MemoryUserRepository
	posts  *repository.MemoryPostRepository
	events *repository.MemoryEventRepository
	groups *repository.MemoryGroupRepository
	dir    string
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()
	f := &profileFixture{
		users:  repository.NewMemoryUserRepository(),
		posts:  repository.NewMemoryPostRepository(),
		events: repository.NewMemoryEventRepository(),
		groups: repository.NewMemoryGroupRepository(),
		dir:    t.TempDir(),
	}
	f.svc = NewProfileService(zap.NewNop(), f.users, f.posts, f.events, f.groups, ProfileConfig{
		UploadDir:      f.dir,
		UploadURLPath:  "/uploads/profile_pictures",
		MaxUploadBytes: 1 << 20,
	})
	return f
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 20, B: 20, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func strPtr(s string) *string { return &s }

func TestProfileService_UpdateIsPartial(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	u := seedUser(t, f.users, "alice")

	got, err := f.svc.Update(ctx, u.ID, ProfileUpdate{LastName: strPtr(" Smith "), Bio: strPtr("hello")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.FullName != "alice Smith" {
		t.Fatalf("expected full name recomputed, got %q", got.FullName)
	}
	if got.Major != "Physics" || got.Bio != "hello" {
		t.Fatalf("unexpected profile: %+v", got)
	}
	if _, err := f.svc.Update(ctx, u.ID, ProfileUpdate{FirstName: strPtr("")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.Get(ctx, "nope"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestProfileService_UploadPictureResizes(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	u := seedUser(t, f.users, "alice")

	first, err := f.svc.UploadPicture(ctx, u.ID, "me.PNG", bytes.NewReader(pngBytes(t, 800, 400)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(first.ProfilePictureURL, "/uploads/profile_pictures/"+u.ID+"_") {
		t.Fatalf("unexpected url: %q", first.ProfilePictureURL)
	}

	raw, err := os.ReadFile(filepath.Join(f.dir, first.ProfilePictureFilename))
	if err != nil {
		t.Fatalf("read stored picture: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("stored picture is not jpeg: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Fatalf("expected 400x200, got %dx%d", b.Dx(), b.Dy())
	}

	second, err := f.svc.UploadPicture(ctx, u.ID, "me.png", bytes.NewReader(pngBytes(t, 50, 50)))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.dir, first.ProfilePictureFilename)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("previous picture should be removed, stat err=%v", err)
	}

	cleared, err := f.svc.RemovePicture(ctx, u.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if cleared.ProfilePictureURL != "" || cleared.ProfilePictureFilename != "" {
		t.Fatalf("picture fields not cleared: %+v", cleared)
	}
	if _, err := os.Stat(filepath.Join(f.dir, second.ProfilePictureFilename)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("picture file should be removed, stat err=%v", err)
	}
}

func TestProfileService_UploadPictureRejects(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	u := seedUser(t, f.users, "alice")

	if _, err := f.svc.UploadPicture(ctx, u.ID, "me.gif", bytes.NewReader(pngBytes(t, 10, 10))); !errors.Is(err, ErrUnsupportedImageType) {
		t.Fatalf("expected ErrUnsupportedImageType, got %v", err)
	}
	if _, err := f.svc.UploadPicture(ctx, u.ID, "me.jpg", strings.NewReader("not an image")); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	big := bytes.Repeat([]byte{0}, (1<<20)+1)
	if _, err := f.svc.UploadPicture(ctx, u.ID, "me.jpg", bytes.NewReader(big)); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestProfileService_PublicProfileCounts(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	u := seedUser(t, f.users, "alice")

	posts := NewPostService(zap.NewNop(), f.posts, f.users)
	if _, err := posts.Create(ctx, u.ID, PostInput{Title: "t", Content: "c", Category: "general"}); err != nil {
		t.Fatalf("create post: %v", err)
	}
	groups := NewGroupService(zap.NewNop(), f.groups)
	if _, err := groups.Create(ctx, u.ID, CreateGroupInput{
		Name: "Robotics", Description: "d", Category: "academic", MeetingTime: "Mon", Location: "Lab", Contact: "r@campus.edu",
	}); err != nil {
		t.Fatalf("create group: %v", err)
	}

	p, err := f.svc.PublicProfile(ctx, u.ID)
	if err != nil {
		t.Fatalf("public profile: %v", err)
	}
	if p.PostsCount != 1 || p.GroupsCount != 1 || p.EventsCount != 0 {
		t.Fatalf("unexpected counts: %+v", p)
	}
}

func TestFitWithin(t *testing.T) {
	cases := []struct{ w, h, ww, wh int }{
		{800, 400, 400, 200},
		{300, 900, 133, 400},
		{100, 100, 100, 100},
		{0, 10, 0, 0},
	}
	for _, tc := range cases {
		w, h := fitWithin(tc.w, tc.h, 400)
		if w != tc.ww || h != tc.wh {
			t.Fatalf("fitWithin(%d,%d) = %dx%d, want %dx%d", tc.w, tc.h, w, h, tc.ww, tc.wh)
		}
	}
}

// pngClaiming devuelve un PNG chico cuyo header declara w x h.
func pngClaiming(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := pngBytes(t, 1, 1)
	// firma (8) + largo (4) + "IHDR" (4) + ancho/alto + resto del IHDR (13 en total) + CRC.
	ihdr := data[12 : 12+4+13]
	binary.BigEndian.PutUint32(ihdr[4:8], w)
	binary.BigEndian.PutUint32(ihdr[8:12], h)
	binary.BigEndian.PutUint32(data[12+4+13:], crc32.ChecksumIEEE(ihdr))
	return data
}

func TestProfileService_UploadPictureRejectsHugeDimensions(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	u := seedUser(t, f.users, "alice")

	bomb := pngClaiming(t, 16000, 16000)
	if len(bomb) > 1<<10 {
		t.Fatalf("expected a tiny file, got %d bytes", len(bomb))
	}
	if _, err := f.svc.UploadPicture(ctx, u.ID, "me.png", bytes.NewReader(bomb)); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
	stored, _ := f.users.GetByID(ctx, u.ID)
	if stored.ProfilePictureURL != "" {
		t.Fatalf("rejected upload must not change the picture")
	}
}

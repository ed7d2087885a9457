package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campus-connect/internal/domain"
	"campus-connect/internal/repository"
)

type PostService struct {
	logger *zap.Logger
	posts  repository.PostRepository
	users  repository.UserRepository
	now    func() time.Time
}

func NewPostService(logger *zap.Logger, posts repository.PostRepository, users repository.UserRepository) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{logger: logger, posts: posts, users: users, now: time.Now}
}

type PostInput struct {
	Title    string
	Content  string
	Category string
}

// LikeResult es el estado del like tras un like/unlike.
type LikeResult struct {
	PostID string `json:"post_id"`
	Likes  int    `json:"likes"`
	Liked  bool   `json:"liked"`
}

// List devuelve los posts mas recientes primero, opcionalmente filtrados por categoria.
func (s *PostService) List(ctx context.Context, category string) ([]domain.Post, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return s.posts.List(ctx)
	}
	c, ok := domain.ParsePostCategory(category)
	if !ok {
		return nil, ErrInvalidCategory
	}
	return s.posts.ListByCategory(ctx, c)
}

func (s *PostService) ListByAuthor(ctx context.Context, authorID string) ([]domain.Post, error) {
	if !validID(authorID) {
		return []domain.Post{}, nil
	}
	return s.posts.ListByAuthor(ctx, authorID)
}

func (s *PostService) Get(ctx context.Context, id string) (domain.Post, error) {
	if !validID(id) {
		return domain.Post{}, ErrPostNotFound
	}
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.Post{}, ErrPostNotFound
		}
		return domain.Post{}, err
	}
	return p, nil
}

func (s *PostService) Create(ctx context.Context, authorID string, in PostInput) (domain.Post, error) {
	category, err := s.validate(in)
	if err != nil {
		return domain.Post{}, err
	}
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.Post{}, ErrUserNotFound
		}
		return domain.Post{}, fmt.Errorf("load author: %w", err)
	}

	now := s.now().UTC()
	post := domain.Post{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Content),
		Category:    category,
		AuthorID:    author.ID,
		Author:      domain.AuthorFromUser(author),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return domain.Post{}, fmt.Errorf("create post: %w", err)
	}
	s.logger.Info("post created", zap.String("post_id", post.ID), zap.String("user_id", author.ID))
	return post, nil
}

// Update y Delete solo los puede hacer el autor.
func (s *PostService) Update(ctx context.Context, postID, userID string, in PostInput) (domain.Post, error) {
	category, err := s.validate(in)
	if err != nil {
		return domain.Post{}, err
	}
	post, err := s.owned(ctx, postID, userID)
	if err != nil {
		return domain.Post{}, err
	}
	post.Title = strings.TrimSpace(in.Title)
	post.Description = strings.TrimSpace(in.Content)
	post.Category = category
	post.UpdatedAt = s.now().UTC()
	if err := s.posts.Update(ctx, post); err != nil {
		if repository.IsNotFound(err) {
			return domain.Post{}, ErrPostNotFound
		}
		return domain.Post{}, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, postID, userID string) error {
	if _, err := s.owned(ctx, postID, userID); err != nil {
		return err
	}
	if err := s.posts.SoftDelete(ctx, postID, s.now().UTC()); err != nil {
		if repository.IsNotFound(err) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}
	s.logger.Info("post deleted", zap.String("post_id", postID), zap.String("user_id", userID))
	return nil
}

func (s *PostService) Like(ctx context.Context, postID, userID string) (LikeResult, error) {
	if !validID(postID) {
		return LikeResult{}, ErrPostNotFound
	}
	n, err := s.posts.AddLike(ctx, postID, userID, s.now().UTC())
	switch {
	case err == nil:
		return LikeResult{PostID: postID, Likes: n, Liked: true}, nil
	case repository.IsNotFound(err):
		return LikeResult{}, ErrPostNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return LikeResult{}, ErrAlreadyLiked
	default:
		return LikeResult{}, err
	}
}

func (s *PostService) Unlike(ctx context.Context, postID, userID string) (LikeResult, error) {
	if !validID(postID) {
		return LikeResult{}, ErrPostNotFound
	}
	n, err := s.posts.RemoveLike(ctx, postID, userID)
	switch {
	case err == nil:
		return LikeResult{PostID: postID, Likes: n, Liked: false}, nil
	case repository.IsNotFound(err):
		return LikeResult{}, ErrPostNotFound
	case errors.Is(err, repository.ErrNotMember):
		return LikeResult{}, ErrNotLiked
	default:
		return LikeResult{}, err
	}
}

func (s *PostService) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	if _, err := s.Get(ctx, postID); err != nil {
		return false, err
	}
	return s.posts.HasLiked(ctx, postID, userID)
}

func (s *PostService) AddComment(ctx context.Context, postID, userID, content string) (domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Comment{}, ErrInvalidInput
	}
	if !validID(postID) {
		return domain.Comment{}, ErrPostNotFound
	}
	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.Comment{}, ErrUserNotFound
		}
		return domain.Comment{}, fmt.Errorf("load author: %w", err)
	}
	comment := domain.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		Content:   content,
		AuthorID:  author.ID,
		Author:    domain.AuthorFromUser(author),
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.posts.AddComment(ctx, comment); err != nil {
		if repository.IsNotFound(err) {
			return domain.Comment{}, ErrPostNotFound
		}
		return domain.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	return comment, nil
}

// Comments devuelve los comentarios del mas antiguo al mas nuevo.
func (s *PostService) Comments(ctx context.Context, postID string) ([]domain.Comment, error) {
	if _, err := s.Get(ctx, postID); err != nil {
		return nil, err
	}
	return s.posts.ListComments(ctx, postID)
}

func (s *PostService) owned(ctx context.Context, postID, userID string) (domain.Post, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return domain.Post{}, err
	}
	if post.AuthorID != userID {
		return domain.Post{}, ErrForbidden
	}
	return post, nil
}

func (s *PostService) validate(in PostInput) (domain.PostCategory, error) {
	if !required(in.Title, in.Content) {
		return "", ErrInvalidInput
	}
	c, ok := domain.ParsePostCategory(strings.ToLower(strings.TrimSpace(in.Category)))
	if !ok {
		return "", ErrInvalidCategory
	}
	return c, nil
}

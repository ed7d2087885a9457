package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-connect/internal/service"
)

type PostHandler struct {
	logger *zap.Logger
	posts  *service.PostService
}

func NewPostHandler(logger *zap.Logger, posts *service.PostService) *PostHandler {
	return &PostHandler{logger: logger, posts: posts}
}

type postRequest struct {
	Title    string `json:"title" binding:"required,max=200"`
	Content  string `json:"content" binding:"required,max=2000"`
	Category string `json:"category" binding:"required"`
}

func (r postRequest) input() service.PostInput {
	return service.PostInput{Title: r.Title, Content: r.Content, Category: r.Category}
}

// List maneja GET /api/posts (acepta ?category= y ?author=).
func (h *PostHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	if author := c.Query("author"); author != "" {
		posts, err := h.posts.ListByAuthor(ctx, author)
		if err != nil {
			respondServiceError(c, h.logger, "list posts by author", err)
			return
		}
		respondOK(c, http.StatusOK, "Posts retrieved", gin.H{"posts": posts, "count": len(posts)})
		return
	}
	posts, err := h.posts.List(ctx, c.Query("category"))
	if err != nil {
		respondServiceError(c, h.logger, "list posts", err)
		return
	}
	respondOK(c, http.StatusOK, "Posts retrieved", gin.H{"posts": posts, "count": len(posts)})
}

// Get maneja GET /api/posts/:id.
func (h *PostHandler) Get(c *gin.Context) {
	p, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "get post", err)
		return
	}
	respondOK(c, http.StatusOK, "Post retrieved", p)
}

// Create maneja POST /api/posts.
func (h *PostHandler) Create(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var req postRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	p, err := h.posts.Create(c.Request.Context(), user.ID, req.input())
	if err != nil {
		respondServiceError(c, h.logger, "create post", err)
		return
	}
	respondOK(c, http.StatusCreated, "Post created", p)
}

// Update maneja PUT /api/posts/:id.
func (h *PostHandler) Update(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var req postRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	p, err := h.posts.Update(c.Request.Context(), c.Param("id"), user.ID, req.input())
	if err != nil {
		respondServiceError(c, h.logger, "update post", err)
		return
	}
	respondOK(c, http.StatusOK, "Post updated", p)
}

// Delete maneja DELETE /api/posts/:id (borrado logico).
func (h *PostHandler) Delete(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondServiceError(c, h.logger, "delete post", err)
		return
	}
	respondOK(c, http.StatusOK, "Post deleted", nil)
}

// Like maneja POST /api/posts/:id/like.
func (h *PostHandler) Like(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	res, err := h.posts.Like(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondServiceError(c, h.logger, "like post", err)
		return
	}
	respondOK(c, http.StatusOK, "Post liked", res)
}

// Unlike maneja DELETE /api/posts/:id/like.
func (h *PostHandler) Unlike(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	res, err := h.posts.Unlike(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondServiceError(c, h.logger, "unlike post", err)
		return
	}
	respondOK(c, http.StatusOK, "Post unliked", res)
}

// LikeStatus maneja GET /api/posts/:id/like.
func (h *PostHandler) LikeStatus(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	liked, err := h.posts.HasLiked(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondServiceError(c, h.logger, "like status", err)
		return
	}
	respondOK(c, http.StatusOK, "Like status retrieved", gin.H{"post_id": c.Param("id"), "liked": liked})
}

// Comments maneja GET /api/posts/:id/comments.
func (h *PostHandler) Comments(c *gin.Context) {
	comments, err := h.posts.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "list comments", err)
		return
	}
	respondOK(c, http.StatusOK, "Comments retrieved", gin.H{"comments": comments, "count": len(comments)})
}

// AddComment maneja POST /api/posts/:id/comments.
func (h *PostHandler) AddComment(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required,max=1000"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	comment, err := h.posts.AddComment(c.Request.Context(), c.Param("id"), user.ID, req.Content)
	if err != nil {
		respondServiceError(c, h.logger, "add comment", err)
		return
	}
	respondOK(c, http.StatusCreated, "Comment added", comment)
}

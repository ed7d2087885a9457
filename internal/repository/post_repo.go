package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-connect/internal/domain"
)

// PostRepository persiste posts, likes y comentarios. Los autores se resuelven con
// un JOIN sobre users.
type PostRepository interface {
	List(ctx context.Context) ([]domain.Post, error)
	ListByCategory(ctx context.Context, category domain.PostCategory) ([]domain.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]domain.Post, error)
	GetByID(ctx context.Context, id string) (domain.Post, error)
	Create(ctx context.Context, post domain.Post) error
	Update(ctx context.Context, post domain.Post) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	AddLike(ctx context.Context, postID, userID string, at time.Time) (int, error)
	RemoveLike(ctx context.Context, postID, userID string) (int, error)
	HasLiked(ctx context.Context, postID, userID string) (bool, error)
	AddComment(ctx context.Context, comment domain.Comment) error
	ListComments(ctx context.Context, postID string) ([]domain.Comment, error)
}

type PgPostRepository struct {
	pool *pgxpool.Pool
}

func NewPgPostRepository(pool *pgxpool.Pool) *PgPostRepository {
	return &PgPostRepository{pool: pool}
}

const postSelect = `
	SELECT p.id, p.title, p.description, p.category, p.author_id,
		u.full_name, u.profile_picture_url, u.user_role, u.major, u.year_of_study,
		(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id),
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id AND c.is_active = TRUE),
		p.is_active, p.created_at, p.updated_at
	FROM posts p
	JOIN users u ON u.id = p.author_id
`

func (r *PgPostRepository) List(ctx context.Context) ([]domain.Post, error) {
	return r.queryPosts(ctx, postSelect+` WHERE p.is_active = TRUE ORDER BY p.created_at DESC`)
}

func (r *PgPostRepository) ListByCategory(ctx context.Context, category domain.PostCategory) ([]domain.Post, error) {
	return r.queryPosts(ctx, postSelect+` WHERE p.is_active = TRUE AND p.category = $1 ORDER BY p.created_at DESC`, string(category))
}

func (r *PgPostRepository) ListByAuthor(ctx context.Context, authorID string) ([]domain.Post, error) {
	return r.queryPosts(ctx, postSelect+` WHERE p.is_active = TRUE AND p.author_id = $1 ORDER BY p.created_at DESC`, authorID)
}

func (r *PgPostRepository) GetByID(ctx context.Context, id string) (domain.Post, error) {
	return scanPost(r.pool.QueryRow(ctx, postSelect+` WHERE p.id = $1 AND p.is_active = TRUE`, id))
}

func (r *PgPostRepository) Create(ctx context.Context, post domain.Post) error {
	const query = `
		INSERT INTO posts (id, title, description, category, author_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Description,
		string(post.Category),
		post.AuthorID,
		post.IsActive,
		post.CreatedAt,
		post.UpdatedAt,
	)
	return err
}

func (r *PgPostRepository) Update(ctx context.Context, post domain.Post) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE posts SET title = $2, description = $3, category = $4, updated_at = $5
		WHERE id = $1 AND is_active = TRUE`,
		post.ID, post.Title, post.Description, string(post.Category), post.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgPostRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE posts SET is_active = FALSE, updated_at = $2 WHERE id = $1 AND is_active = TRUE`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgPostRepository) AddLike(ctx context.Context, postID, userID string, at time.Time) (int, error) {
	if _, err := r.GetByID(ctx, postID); err != nil {
		return 0, err
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO post_likes (user_id, post_id, liked_at) VALUES ($1, $2, $3)`, userID, postID, at)
	if isUniqueViolation(err) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, err
	}
	return r.likeCount(ctx, postID)
}

func (r *PgPostRepository) RemoveLike(ctx context.Context, postID, userID string) (int, error) {
	if _, err := r.GetByID(ctx, postID); err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrNotMember
	}
	return r.likeCount(ctx, postID)
}

func (r *PgPostRepository) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	var liked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`, postID, userID,
	).Scan(&liked)
	return liked, err
}

func (r *PgPostRepository) AddComment(ctx context.Context, comment domain.Comment) error {
	if _, err := r.GetByID(ctx, comment.PostID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO comments (id, content, post_id, author_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		comment.ID, comment.Content, comment.PostID, comment.AuthorID, comment.IsActive, comment.CreatedAt,
	)
	return err
}

func (r *PgPostRepository) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	const query = `
		SELECT c.id, c.post_id, c.content, c.author_id,
			u.full_name, u.profile_picture_url, u.user_role, u.major, u.year_of_study,
			c.is_active, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1 AND c.is_active = TRUE
		ORDER BY c.created_at
	`
	rows, err := r.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]domain.Comment, 0)
	for rows.Next() {
		var (
			c      domain.Comment
			author domain.User
			role   string
		)
		if err := rows.Scan(
			&c.ID,
			&c.PostID,
			&c.Content,
			&c.AuthorID,
			&author.FullName,
			&author.ProfilePictureURL,
			&role,
			&author.Major,
			&author.YearOfStudy,
			&c.IsActive,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		author.ID = c.AuthorID
		author.Role = domain.UserRole(role)
		c.Author = domain.AuthorFromUser(author)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *PgPostRepository) likeCount(ctx context.Context, postID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&n)
	return n, err
}

func (r *PgPostRepository) queryPosts(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]domain.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func scanPost(row pgx.Row) (domain.Post, error) {
	var (
		p        domain.Post
		author   domain.User
		category string
		role     string
	)
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&category,
		&p.AuthorID,
		&author.FullName,
		&author.ProfilePictureURL,
		&role,
		&author.Major,
		&author.YearOfStudy,
		&p.LikeCount,
		&p.CommentCount,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, err
	}
	p.Category = domain.PostCategory(category)
	author.ID = p.AuthorID
	author.Role = domain.UserRole(role)
	p.Author = domain.AuthorFromUser(author)
	return p, err
}

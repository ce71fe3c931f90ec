package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kova98/postharvester/data"
)

type CommentRepo struct {
	db *sqlx.DB
}

func NewCommentRepo(db *sqlx.DB) *CommentRepo {
	return &CommentRepo{db}
}

// UpsertComment inserts the comment or refreshes score and last_updated of
// an existing one.
func (r *CommentRepo) UpsertComment(ctx context.Context, ext sqlx.ExtContext, comment data.Comment) error {
	query := `
		INSERT INTO reddit_comments (
			comment_id, post_id, body, author, score, created_utc, last_updated
		) VALUES (
			:comment_id, :post_id, :body, :author, :score, :created_utc, NOW()
		)
		ON CONFLICT (comment_id) DO UPDATE SET
			score = EXCLUDED.score,
			last_updated = NOW()`

	if ext == nil {
		ext = r.db
	}

	_, err := sqlx.NamedExecContext(ctx, ext, query, comment)
	if err != nil {
		return fmt.Errorf("upsert comment %s: %w", comment.ID, err)
	}

	return nil
}

func (r *CommentRepo) GetCommentByID(ctx context.Context, id string) (*data.Comment, error) {
	var comment data.Comment
	query := `
		SELECT comment_id, post_id, body, author, score, created_utc, last_updated
		FROM reddit_comments
		WHERE comment_id = $1`

	err := r.db.GetContext(ctx, &comment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment by id: %w", err)
	}

	return &comment, nil
}

func (r *CommentRepo) CountCommentsByPost(ctx context.Context, postID string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM reddit_comments WHERE post_id = $1"

	err := r.db.GetContext(ctx, &count, query, postID)
	if err != nil {
		return 0, fmt.Errorf("count comments by post: %w", err)
	}

	return count, nil
}

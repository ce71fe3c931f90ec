package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kova98/postharvester/data"
)

type PostRepo struct {
	db *sqlx.DB
}

func NewPostRepo(db *sqlx.DB) *PostRepo {
	return &PostRepo{db}
}

// UpsertPost inserts the post or, if post_id already exists, refreshes only
// score, upvote_ratio and last_updated. ext is usually the subreddit's
// transaction; nil falls back to the repo's db.
func (r *PostRepo) UpsertPost(ctx context.Context, ext sqlx.ExtContext, post data.Post) error {
	query := `
		INSERT INTO reddit_posts (
			post_id, title, selftext, author, score,
			upvote_ratio, url, created_utc, subreddit, is_original_content, last_updated
		) VALUES (
			:post_id, :title, :selftext, :author, :score,
			:upvote_ratio, :url, :created_utc, :subreddit, :is_original_content, NOW()
		)
		ON CONFLICT (post_id) DO UPDATE SET
			score = EXCLUDED.score,
			upvote_ratio = EXCLUDED.upvote_ratio,
			last_updated = NOW()`

	if ext == nil {
		ext = r.db
	}

	_, err := sqlx.NamedExecContext(ctx, ext, query, post)
	if err != nil {
		return fmt.Errorf("upsert post %s: %w", post.ID, err)
	}

	return nil
}

func (r *PostRepo) GetPostByID(ctx context.Context, id string) (*data.Post, error) {
	var post data.Post
	query := `
		SELECT post_id, title, selftext, author, score, upvote_ratio, url,
			created_utc, subreddit, is_original_content, last_updated
		FROM reddit_posts
		WHERE post_id = $1`

	err := r.db.GetContext(ctx, &post, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post by id: %w", err)
	}

	return &post, nil
}

func (r *PostRepo) CountPostsBySubreddit(ctx context.Context, subreddit string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM reddit_posts WHERE subreddit = $1"

	err := r.db.GetContext(ctx, &count, query, subreddit)
	if err != nil {
		return 0, fmt.Errorf("count posts by subreddit: %w", err)
	}

	return count, nil
}

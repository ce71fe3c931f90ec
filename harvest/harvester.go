package harvest

import (
	"context"
	"database/sql"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kova98/postharvester/data"
	"github.com/kova98/postharvester/data/repos"
	"github.com/kova98/postharvester/enums"
	"github.com/kova98/postharvester/models"
	"github.com/kova98/postharvester/sources"
	"github.com/pkg/errors"
)

// Source is where posts and comments come from.
type Source interface {
	TopPosts(ctx context.Context, subreddit string, limit int) ([]models.RedditPost, error)
	Comments(ctx context.Context, postID string, limit int) (iter.Seq[models.RedditComment], error)
}

type Harvester struct {
	logger       *slog.Logger
	pool         *data.Pool
	reddit       Source
	metrics      *Metrics
	postLimit    int
	commentLimit int
}

func NewHarvester(logger *slog.Logger, pool *data.Pool, reddit Source, metrics *Metrics, postLimit, commentLimit int) *Harvester {
	return &Harvester{
		logger:       logger,
		pool:         pool,
		reddit:       reddit,
		metrics:      metrics,
		postLimit:    postLimit,
		commentLimit: commentLimit,
	}
}

type writers struct {
	posts    *repos.PostRepo
	comments *repos.CommentRepo
}

// Run harvests the subreddits in order, one transaction each. A rejected
// subreddit is rolled back and skipped; any other error is rolled back and
// ends the run. The returned results cover every subreddit that was started.
func (h *Harvester) Run(ctx context.Context, subreddits []string) (results []CommunityResult, err error) {
	logger := h.logger.With("run_id", uuid.NewString())
	start := time.Now()
	defer func() { h.metrics.observeRun(time.Since(start), err) }()

	db, err := h.pool.DB(ctx)
	if err != nil {
		logger.Error("failed to open db pool", "error", err)
		return nil, errors.Wrap(err, "harvest")
	}
	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		logger.Error("failed to acquire db connection", "error", err)
		return nil, errors.Wrap(err, "harvest")
	}
	defer h.pool.Release(conn)

	w := writers{
		posts:    repos.NewPostRepo(db),
		comments: repos.NewCommentRepo(db),
	}

	logger.Info("starting harvest", "subreddits", subreddits, "post_limit", h.postLimit, "comment_limit", h.commentLimit)

	results = make([]CommunityResult, 0, len(subreddits))
	for _, subreddit := range subreddits {
		if err := ctx.Err(); err != nil {
			return results, errors.Wrap(err, "harvest interrupted")
		}

		result, err := h.processSubreddit(ctx, logger, conn, w, subreddit)
		results = append(results, result)
		h.metrics.observeSubreddit(result)
		if err != nil {
			return results, err
		}
	}

	logger.Info("harvest finished", "subreddits", len(results), "elapsed_ms", time.Since(start).Milliseconds())
	return results, nil
}

func (h *Harvester) processSubreddit(ctx context.Context, logger *slog.Logger, conn *sqlx.Conn, w writers, subreddit string) (CommunityResult, error) {
	logger = logger.With("subreddit", subreddit)
	logger.Info("processing subreddit")

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		result := CommunityResult{Subreddit: subreddit}.fail(errors.Wrap(err, "begin transaction"))
		logger.Error("failed to begin transaction", "error", err)
		return result, result.Err
	}

	result := h.harvestSubreddit(ctx, tx, w, subreddit)

	switch result.Outcome {
	case enums.OutcomeCompleted:
		if err := tx.Commit(); err != nil {
			result = result.fail(errors.Wrap(err, "commit"))
			logger.Error("failed to commit subreddit", "error", err)
			return result, result.Err
		}
		logger.Info("completed processing subreddit", "posts", result.Posts, "comments", result.Comments)
		return result, nil

	case enums.OutcomeSkipped:
		rollback(logger, tx)
		var apiErr *sources.APIError
		rateLimited := errors.As(result.Err, &apiErr) && apiErr.RateLimited()
		logger.Warn("reddit API error, skipping subreddit", "error", result.Err, "rate_limited", rateLimited)
		return result, nil

	default:
		rollback(logger, tx)
		logger.Error("unexpected error processing subreddit", "error", result.Err, "posts", result.Posts, "comments", result.Comments)
		return result, result.Err
	}
}

func (h *Harvester) harvestSubreddit(ctx context.Context, tx *sqlx.Tx, w writers, subreddit string) CommunityResult {
	result := CommunityResult{Subreddit: subreddit}

	posts, err := h.reddit.TopPosts(ctx, subreddit, h.postLimit)
	if err != nil {
		return result.fail(err)
	}
	if len(posts) > h.postLimit {
		posts = posts[:h.postLimit]
	}

	for _, p := range posts {
		post := toPost(p, subreddit)
		if err := w.posts.UpsertPost(ctx, tx, post); err != nil {
			return result.fail(err)
		}
		result.Posts++

		comments, err := h.reddit.Comments(ctx, post.ID, h.commentLimit)
		if err != nil {
			return result.fail(err)
		}

		written := 0
		for c := range comments {
			if written == h.commentLimit {
				break
			}
			if err := w.comments.UpsertComment(ctx, tx, toComment(c, post.ID)); err != nil {
				return result.fail(err)
			}
			written++
		}
		result.Comments += written
	}

	result.Outcome = enums.OutcomeCompleted
	return result
}

func rollback(logger *slog.Logger, tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error("failed to roll back transaction", "error", err)
	}
}

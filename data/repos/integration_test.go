package repos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kova98/postharvester/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_POSTGRES_URL, migrates it and empties the
// reddit tables. Tests using it are skipped when the variable is unset.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}

	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, data.RunMigrations(db.DB))
	_, err = db.Exec("TRUNCATE reddit_posts, reddit_comments")
	require.NoError(t, err)

	return db
}

func TestPostRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostRepo(db)
	ctx := context.Background()
	post := testPost()

	require.NoError(t, repo.UpsertPost(ctx, nil, post))

	got, err := repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, post.Title, got.Title)
	assert.Equal(t, post.Selftext, got.Selftext)
	assert.Equal(t, post.Author, got.Author)
	assert.Equal(t, post.URL, got.URL)
	assert.True(t, post.CreatedUTC.Equal(got.CreatedUTC))
	assert.False(t, got.LastUpdated.IsZero())
}

func TestPostUpsert_Idempotent(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostRepo(db)
	ctx := context.Background()
	post := testPost()

	require.NoError(t, repo.UpsertPost(ctx, nil, post))
	first, err := repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)

	require.NoError(t, repo.UpsertPost(ctx, nil, post))
	second, err := repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)

	first.LastUpdated, second.LastUpdated = time.Time{}, time.Time{}
	assert.Equal(t, *first, *second)

	count, err := repo.CountPostsBySubreddit(ctx, post.Subreddit)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPostUpsert_RefreshesOnlyMutableFields(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostRepo(db)
	ctx := context.Background()
	post := testPost()

	require.NoError(t, repo.UpsertPost(ctx, nil, post))

	changed := post
	changed.Score = 1000
	changed.UpvoteRatio = 0.5
	changed.Title = "edited title"
	changed.Author = "someone-else"
	require.NoError(t, repo.UpsertPost(ctx, nil, changed))

	got, err := repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, got.Score)
	assert.Equal(t, 0.5, got.UpvoteRatio)
	assert.Equal(t, post.Title, got.Title)
	assert.Equal(t, post.Author, got.Author)
}

func TestCommentUpsert_RefreshesOnlyScore(t *testing.T) {
	db := openTestDB(t)
	repo := NewCommentRepo(db)
	ctx := context.Background()
	comment := testComment()

	require.NoError(t, repo.UpsertComment(ctx, nil, comment))

	changed := comment
	changed.Score = 99
	changed.Body = "edited"
	require.NoError(t, repo.UpsertComment(ctx, nil, changed))

	got, err := repo.GetCommentByID(ctx, comment.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 99, got.Score)
	assert.Equal(t, comment.Body, got.Body)
	assert.Equal(t, data.DeletedAuthor, got.Author)

	count, err := repo.CountCommentsByPost(ctx, comment.PostID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

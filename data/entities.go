package data

import "time"

// DeletedAuthor is stored when reddit no longer reports an author.
const DeletedAuthor = "[deleted]"

type Post struct {
	ID                string    `db:"post_id"`
	Title             string    `db:"title"`
	Selftext          string    `db:"selftext"`
	Author            string    `db:"author"`
	Score             int       `db:"score"`
	UpvoteRatio       float64   `db:"upvote_ratio"`
	URL               string    `db:"url"`
	CreatedUTC        time.Time `db:"created_utc"`
	Subreddit         string    `db:"subreddit"`
	IsOriginalContent bool      `db:"is_original_content"`
	LastUpdated       time.Time `db:"last_updated"`
}

type Comment struct {
	ID          string    `db:"comment_id"`
	PostID      string    `db:"post_id"`
	Body        string    `db:"body"`
	Author      string    `db:"author"`
	Score       int       `db:"score"`
	CreatedUTC  time.Time `db:"created_utc"`
	LastUpdated time.Time `db:"last_updated"`
}

// NormalizeAuthor maps missing or deleted accounts to DeletedAuthor.
func NormalizeAuthor(author string) string {
	if author == "" || author == DeletedAuthor {
		return DeletedAuthor
	}
	return author
}

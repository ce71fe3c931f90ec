package models

import "encoding/json"

const (
	KindComment = "t1"
	KindPost    = "t3"
	KindMore    = "more"
)

type RedditListing[T any] struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string `json:"kind"`
			Data T      `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type RedditPost struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Title             string  `json:"title"`
	Selftext          string  `json:"selftext"`
	Author            string  `json:"author"`
	Subreddit         string  `json:"subreddit"`
	Score             int     `json:"score"`
	UpvoteRatio       float64 `json:"upvote_ratio"`
	URL               string  `json:"url"`
	Permalink         string  `json:"permalink"`
	CreatedUTC        float64 `json:"created_utc"`
	IsOriginalContent bool    `json:"is_original_content"`
}

// RedditCommentThing is a node of a comment tree: either a comment (t1) or a
// "load more" placeholder.
type RedditCommentThing struct {
	Kind string        `json:"kind"`
	Data RedditComment `json:"data"`
}

type RedditCommentListing struct {
	Data struct {
		Children []RedditCommentThing `json:"children"`
	} `json:"data"`
}

type RedditComment struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Body       string        `json:"body"`
	Author     string        `json:"author"`
	Score      int           `json:"score"`
	CreatedUTC float64       `json:"created_utc"`
	LinkID     string        `json:"link_id"`
	ParentID   string        `json:"parent_id"`
	Replies    RedditReplies `json:"replies"`
}

type RedditReplies struct {
	Children []RedditCommentThing
}

// UnmarshalJSON accepts the empty string reddit sends for comments without
// replies.
func (r *RedditReplies) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || b[0] != '{' {
		r.Children = nil
		return nil
	}

	var listing RedditCommentListing
	if err := json.Unmarshal(b, &listing); err != nil {
		return err
	}
	r.Children = listing.Data.Children
	return nil
}

// RedditError is the body reddit returns with 4xx responses.
type RedditError struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
	Error   int    `json:"error"`
}

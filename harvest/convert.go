package harvest

import (
	"math"
	"time"

	"github.com/kova98/postharvester/data"
	"github.com/kova98/postharvester/models"
)

func toPost(p models.RedditPost, subreddit string) data.Post {
	return data.Post{
		ID:                models.KindPost + "_" + p.ID,
		Title:             p.Title,
		Selftext:          p.Selftext,
		Author:            data.NormalizeAuthor(p.Author),
		Score:             p.Score,
		UpvoteRatio:       p.UpvoteRatio,
		URL:               p.URL,
		CreatedUTC:        fromUnix(p.CreatedUTC),
		Subreddit:         subreddit,
		IsOriginalContent: p.IsOriginalContent,
	}
}

func toComment(c models.RedditComment, postID string) data.Comment {
	return data.Comment{
		ID:         models.KindComment + "_" + c.ID,
		PostID:     postID,
		Body:       c.Body,
		Author:     data.NormalizeAuthor(c.Author),
		Score:      c.Score,
		CreatedUTC: fromUnix(c.CreatedUTC),
	}
}

// fromUnix converts reddit's fractional epoch seconds to a UTC time.
func fromUnix(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC()
}

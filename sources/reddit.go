package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kova98/postharvester/enums"
	"github.com/kova98/postharvester/models"
	"golang.org/x/oauth2"
)

const (
	DefaultAuthURL = "https://www.reddit.com/api/v1/access_token"
	DefaultBaseURL = "https://oauth.reddit.com"

	// reddit never returns more than this many items per listing page.
	maxPageSize = 100
)

type RedditConfig struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
	TimeFilter   enums.TimeFilter
	// AuthURL and BaseURL default to reddit's production endpoints.
	AuthURL string
	BaseURL string
}

// RedditClient reads listings from reddit's OAuth API on behalf of a script
// application.
type RedditClient struct {
	logger     *slog.Logger
	client     *http.Client
	baseURL    string
	timeFilter enums.TimeFilter
}

// NewRedditClient authenticates with the password grant and returns a client
// that keeps the token fresh. An authentication failure is returned as is.
func NewRedditClient(ctx context.Context, logger *slog.Logger, httpClient *http.Client, cfg RedditConfig) (*RedditClient, error) {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TimeFilter == "" {
		cfg.TimeFilter = enums.TimeFilterDay
	}

	base := withUserAgent(httpClient, cfg.UserAgent)
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.AuthURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	token, err := oauthCfg.PasswordCredentialsToken(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("reddit auth: %w", err)
	}
	logger.Info("authenticated with reddit", "username", cfg.Username, "expires", token.Expiry)

	source := oauth2.ReuseTokenSource(token, &passwordTokenSource{
		ctx:      ctx,
		config:   oauthCfg,
		username: cfg.Username,
		password: cfg.Password,
	})

	return &RedditClient{
		logger: logger,
		client: &http.Client{
			Timeout:   base.Timeout,
			Transport: &oauth2.Transport{Source: source, Base: base.Transport},
		},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeFilter: cfg.TimeFilter,
	}, nil
}

// passwordTokenSource logs in again once the token expires; reddit does not
// issue refresh tokens for the password grant.
type passwordTokenSource struct {
	ctx      context.Context
	config   *oauth2.Config
	username string
	password string
}

func (s *passwordTokenSource) Token() (*oauth2.Token, error) {
	return s.config.PasswordCredentialsToken(s.ctx, s.username, s.password)
}

// TopPosts returns at most limit top posts of the subreddit within the
// client's time window, in reddit's ranking order.
func (c *RedditClient) TopPosts(ctx context.Context, subreddit string, limit int) ([]models.RedditPost, error) {
	if limit <= 0 {
		return nil, nil
	}

	posts := make([]models.RedditPost, 0, min(limit, maxPageSize))
	after := ""
	for len(posts) < limit {
		q := url.Values{}
		q.Set("t", string(c.timeFilter))
		q.Set("limit", strconv.Itoa(min(limit-len(posts), maxPageSize)))
		q.Set("raw_json", "1")
		if after != "" {
			q.Set("after", after)
			q.Set("count", strconv.Itoa(len(posts)))
		}
		endpoint := fmt.Sprintf("%s/r/%s/top?%s", c.baseURL, url.PathEscape(subreddit), q.Encode())

		var listing models.RedditListing[models.RedditPost]
		if err := c.get(ctx, endpoint, &listing); err != nil {
			return nil, fmt.Errorf("top posts r/%s: %w", subreddit, err)
		}

		for _, child := range listing.Data.Children {
			if child.Kind != models.KindPost {
				continue
			}
			posts = append(posts, child.Data)
			if len(posts) == limit {
				break
			}
		}

		after = listing.Data.After
		if after == "" || len(listing.Data.Children) == 0 {
			break
		}
	}

	c.logger.Debug("fetched top posts", "subreddit", subreddit, "count", len(posts), "limit", limit)
	return posts, nil
}

// Comments fetches the comment tree of a post and returns its first limit
// comments in breadth-first order. "Load more" placeholders are dropped, not
// expanded.
func (c *RedditClient) Comments(ctx context.Context, postID string, limit int) (iter.Seq[models.RedditComment], error) {
	if limit <= 0 {
		return FlattenComments(nil, 0), nil
	}

	id := strings.TrimPrefix(postID, models.KindPost+"_")
	endpoint := fmt.Sprintf("%s/comments/%s?raw_json=1", c.baseURL, url.PathEscape(id))

	var listings []json.RawMessage
	if err := c.get(ctx, endpoint, &listings); err != nil {
		return nil, fmt.Errorf("comments %s: %w", postID, err)
	}
	if len(listings) < 2 {
		return nil, fmt.Errorf("comments %s: expected post and comment listings, got %d", postID, len(listings))
	}

	var comments models.RedditCommentListing
	if err := json.Unmarshal(listings[1], &comments); err != nil {
		return nil, fmt.Errorf("comments %s: decode: %w", postID, err)
	}

	return FlattenComments(comments.Data.Children, limit), nil
}

// FlattenComments walks a comment forest level by level, skipping "more"
// placeholders, and stops after limit comments.
func FlattenComments(roots []models.RedditCommentThing, limit int) iter.Seq[models.RedditComment] {
	return func(yield func(models.RedditComment) bool) {
		queue := append([]models.RedditCommentThing(nil), roots...)
		yielded := 0
		for i := 0; i < len(queue) && yielded < limit; i++ {
			if queue[i].Kind != models.KindComment {
				continue
			}

			comment := queue[i].Data
			queue = append(queue, comment.Replies.Children...)
			comment.Replies = models.RedditReplies{}

			if !yield(comment) {
				return
			}
			yielded++
		}
	}
}

func (c *RedditClient) get(ctx context.Context, endpoint string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return statusError(resp, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

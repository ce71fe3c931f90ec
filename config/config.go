package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/kova98/postharvester/enums"
)

// EnvDevelopment is the APP_ENV value of a local setup. Any other value is
// treated as production.
const EnvDevelopment = "DEV"

const (
	DefaultPostLimit    = 20
	DefaultCommentLimit = 5
	DefaultTimeFilter   = enums.TimeFilterDay
	DefaultUserAgent    = "script:postharvester:v1.5"
	DefaultDBPort       = "5432"
	DefaultDBSSLMode    = "require"

	// DB_SSLMODE default when APP_ENV is EnvDevelopment.
	DevelopmentDBSSLMode = "disable"

	// Seconds lib/pq waits for the server before giving up on a connection.
	ConnectTimeoutSeconds = 5
)

type AppConfig struct {
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	RedditUserAgent    string
	RedditProxyURL     string
	RedditAuthURL      string // empty means reddit's production endpoint
	RedditBaseURL      string
	Subreddits         []string
	PostLimit          int
	CommentLimit       int
	TimeFilter         enums.TimeFilter
	DBHost             string
	DBPort             string
	DBName             string
	DBUser             string
	DBPassword         string
	DBSSLMode          string
	PushgatewayURL     string
	RunMigrations      bool
	AppEnv             string
	LogLevel           slog.Level
}

// MissingEnvError lists every required variable that was not set.
type MissingEnvError struct {
	Keys []string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("missing required env vars: %s", strings.Join(e.Keys, ", "))
}

// Load reads the configuration from the environment.
func Load() (AppConfig, error) {
	cfg := AppConfig{}
	l := &loader{}

	cfg.RedditClientID = l.loadRequired("REDDIT_CLIENT_ID")
	cfg.RedditClientSecret = l.loadRequired("REDDIT_CLIENT_SECRET")
	cfg.RedditUsername = l.loadRequired("REDDIT_USERNAME")
	cfg.RedditPassword = l.loadRequired("REDDIT_PASSWORD")
	subreddits := l.loadRequired("SUBREDDITS")
	cfg.DBHost = l.loadRequired("DB_HOST")
	cfg.DBName = l.loadRequired("DB_NAME")
	cfg.DBUser = l.loadRequired("DB_USER")
	cfg.DBPassword = l.loadRequired("DB_PASSWORD")

	if len(l.missing) > 0 {
		return AppConfig{}, &MissingEnvError{Keys: l.missing}
	}

	cfg.Subreddits = SplitSubreddits(subreddits)
	if len(cfg.Subreddits) == 0 {
		return AppConfig{}, fmt.Errorf("SUBREDDITS has no subreddit names: %q", subreddits)
	}

	cfg.AppEnv = os.Getenv("APP_ENV")
	cfg.RedditUserAgent = loadOptional("REDDIT_USER_AGENT", DefaultUserAgent)
	cfg.RedditProxyURL = os.Getenv("REDDIT_PROXY_URL")
	cfg.RedditAuthURL = os.Getenv("REDDIT_AUTH_URL")
	cfg.RedditBaseURL = os.Getenv("REDDIT_BASE_URL")
	cfg.PostLimit = loadLimit("POST_LIMIT", DefaultPostLimit)
	cfg.CommentLimit = loadLimit("COMMENT_LIMIT", DefaultCommentLimit)
	cfg.DBPort = loadOptional("DB_PORT", DefaultDBPort)
	cfg.DBSSLMode = loadOptional("DB_SSLMODE", cfg.defaultSSLMode())
	cfg.PushgatewayURL = os.Getenv("PUSHGATEWAY_URL")
	cfg.LogLevel = LogLevel()

	cfg.TimeFilter = enums.TimeFilter(strings.ToLower(loadOptional("TIME_FILTER", string(DefaultTimeFilter))))
	if !cfg.TimeFilter.Valid() {
		slog.Warn("Invalid TIME_FILTER, using default", "value", cfg.TimeFilter, "default", DefaultTimeFilter)
		cfg.TimeFilter = DefaultTimeFilter
	}

	migrate := loadOptional("RUN_MIGRATIONS", "false")
	var err error
	cfg.RunMigrations, err = strconv.ParseBool(migrate)
	if err != nil {
		slog.Warn("Invalid RUN_MIGRATIONS, migrations disabled", "value", migrate)
		cfg.RunMigrations = false
	}

	return cfg, nil
}

// LogLevel parses LOG_LEVEL, falling back to INFO.
func LogLevel() slog.Level {
	lvlString := loadOptional("LOG_LEVEL", "INFO")
	level, err := parseLogLevel(lvlString)
	if err != nil {
		slog.Error("Invalid LOG_LEVEL", "error", err)
		return slog.LevelInfo
	}
	return level
}

// SplitSubreddits turns "foo, r/bar,,baz" into [foo bar baz].
func SplitSubreddits(s string) []string {
	parts := strings.Split(s, ",")
	subreddits := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		name = strings.TrimPrefix(name, "/")
		if len(name) >= 2 && strings.EqualFold(name[:2], "r/") {
			name = strings.TrimSpace(name[2:])
		}
		if name == "" {
			continue
		}
		subreddits = append(subreddits, name)
	}
	return subreddits
}

func (c AppConfig) PostgresDSN() string {
	q := url.Values{}
	q.Set("sslmode", c.DBSSLMode)
	q.Set("connect_timeout", strconv.Itoa(ConnectTimeoutSeconds))

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (c AppConfig) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

func (c AppConfig) defaultSSLMode() string {
	if c.IsDevelopment() {
		return DevelopmentDBSSLMode
	}
	return DefaultDBSSLMode
}

type loader struct {
	missing []string
}

func (l *loader) loadRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		l.missing = append(l.missing, key)
	}
	return value
}

func loadOptional(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// loadLimit falls back to the default when the value is unset, not an
// integer or negative.
func loadLimit(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		slog.Warn("Invalid limit, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return n
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	var err = level.UnmarshalText([]byte(s))
	return level, err
}

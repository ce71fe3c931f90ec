package harvest

import (
	"context"
	"time"

	"github.com/kova98/postharvester/enums"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const metricsJob = "postharvester"

// Metrics collects the counters of a single run. A nil *Metrics records
// nothing.
type Metrics struct {
	registry         *prometheus.Registry
	postsUpserted    *prometheus.CounterVec
	commentsUpserted *prometheus.CounterVec
	subreddits       *prometheus.CounterVec
	runDuration      prometheus.Gauge
	lastSuccess      prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		postsUpserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postharvester_posts_upserted_total",
			Help: "Posts written per subreddit.",
		}, []string{"subreddit"}),
		commentsUpserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postharvester_comments_upserted_total",
			Help: "Comments written per subreddit.",
		}, []string{"subreddit"}),
		subreddits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postharvester_subreddits_total",
			Help: "Subreddits processed, by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "postharvester_run_duration_seconds",
			Help: "Duration of the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "postharvester_last_success_timestamp_seconds",
			Help: "Unix time of the last run that finished without error.",
		}),
	}

	m.registry.MustRegister(m.postsUpserted, m.commentsUpserted, m.subreddits, m.runDuration, m.lastSuccess)
	return m
}

func (m *Metrics) observeSubreddit(r CommunityResult) {
	if m == nil {
		return
	}
	m.subreddits.WithLabelValues(string(r.Outcome)).Inc()
	if r.Outcome == enums.OutcomeCompleted {
		m.postsUpserted.WithLabelValues(r.Subreddit).Add(float64(r.Posts))
		m.commentsUpserted.WithLabelValues(r.Subreddit).Add(float64(r.Comments))
	}
}

func (m *Metrics) observeRun(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.runDuration.Set(d.Seconds())
	if err == nil {
		m.lastSuccess.SetToCurrentTime()
	}
}

// Push sends the run's metrics to a Prometheus Pushgateway, replacing the
// previous run's values.
func (m *Metrics) Push(ctx context.Context, gatewayURL string) error {
	if m == nil {
		return nil
	}
	return push.New(gatewayURL, metricsJob).Gatherer(m.registry).PushContext(ctx)
}

package enums

// Outcome is the result of harvesting a single subreddit.
type Outcome string

const (
	OutcomeInvalid Outcome = ""

	// OutcomeCompleted means every post and comment was written and the
	// subreddit's transaction is ready to commit.
	OutcomeCompleted Outcome = "completed"

	// OutcomeSkipped means reddit rejected a request (rate limit, private or
	// banned subreddit). The transaction is rolled back and the batch moves on.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed means an unexpected error. The batch stops.
	OutcomeFailed Outcome = "failed"
)

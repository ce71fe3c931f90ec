package harvest

import (
	"github.com/kova98/postharvester/enums"
	"github.com/kova98/postharvester/sources"
	"github.com/pkg/errors"
)

// CommunityResult describes what happened to one subreddit in a run.
type CommunityResult struct {
	Subreddit string
	Outcome   enums.Outcome
	Posts     int
	Comments  int
	Err       error
}

func (r CommunityResult) fail(err error) CommunityResult {
	r.Err = errors.Wrapf(err, "r/%s", r.Subreddit)
	if sources.IsRejection(err) {
		r.Outcome = enums.OutcomeSkipped
	} else {
		r.Outcome = enums.OutcomeFailed
	}
	return r
}

package contest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"yacontest/internal/state"
)

// ContestContext identifies one contest on one platform host.
type ContestContext struct {
	BaseUrl   *url.URL
	ContestId int64
}

// NewContestContext accepts a bare host ("contest.yandex.ru") or a full
// origin ("http://127.0.0.1:8080").
func NewContestContext(domain string, contestId int64) (ContestContext, error) {
	if contestId <= 0 {
		return ContestContext{}, ErrNoContestSelected
	}
	base, err := ParseDomain(domain)
	if err != nil {
		return ContestContext{}, err
	}
	return ContestContext{BaseUrl: base, ContestId: contestId}, nil
}

func ParseDomain(domain string) (*url.URL, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, fmt.Errorf("empty domain")
	}
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}
	base, err := url.Parse(domain)
	if err != nil {
		return nil, fmt.Errorf("invalid domain %q: %w", domain, err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid domain %q", domain)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""
	return base, nil
}

// Path returns the absolute path of a page under the contest, sub must start with "/".
func (c ContestContext) Path(sub string) string {
	return fmt.Sprintf("/contest/%d%s", c.ContestId, sub)
}

// Url returns the absolute url of a page under the contest.
func (c ContestContext) Url(sub string) string {
	return c.BaseUrl.ResolveReference(&url.URL{Path: c.Path(sub)}).String()
}

// EnterPath is where the platform redirects requests made without a valid session.
func (c ContestContext) EnterPath() string {
	return c.Path("/enter/")
}

func (c ContestContext) WithContest(contestId int64) ContestContext {
	return ContestContext{BaseUrl: c.BaseUrl, ContestId: contestId}
}

// SelectContest makes contestId the active contest. The cached problem
// directory belongs to the previous contest so it is dropped.
func SelectContest(ctx context.Context, h *state.Handle, contestId int64) error {
	if contestId <= 0 {
		return fmt.Errorf("invalid contest id %d", contestId)
	}
	return h.Update(ctx, func(r *state.Record) {
		r.ContestId = contestId
		r.Problems = nil
	})
}

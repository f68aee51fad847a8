package state

import (
	"context"
	"errors"
	"maps"
)

var ErrNotFound = errors.New("no saved configuration")

type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	// Origin is the scheme and host the cookie was sent to, empty means the
	// platform domain.
	Origin string `json:"origin,omitempty"`
}

// Record is everything that survives between invocations.
type Record struct {
	// Domain is the platform host, a scheme is optional and defaults to https.
	Domain    string
	Login     string
	Password  string
	ContestId int64
	// Lang is the preferred compiler display name, empty when unset.
	Lang    string
	Cookies []Cookie
	// Problems maps lowercase problem ids to absolute problem page urls,
	// it is only valid for ContestId.
	Problems map[string]string
}

func (r Record) Clone() Record {
	out := r
	if r.Cookies != nil {
		out.Cookies = append([]Cookie(nil), r.Cookies...)
	}
	if r.Problems != nil {
		out.Problems = maps.Clone(r.Problems)
	}
	return out
}

// Store persists a single Record, Save replaces it as a whole.
//
// note: fault injection point
type Store interface {
	// Load returns ErrNotFound when nothing was saved yet.
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, record Record) error
}

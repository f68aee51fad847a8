package globals

import (
	"context"
	"errors"
	"fmt"

	"yacontest/internal/components/prompt"
	"yacontest/internal/components/telemetry"
	"yacontest/internal/contest"
	"yacontest/internal/settings"
	"yacontest/internal/state"
)

const key = "yacontest.ctx"

type Value struct {
	Settings settings.Settings
	Store    state.SqliteStore
	Prompter prompt.Prompter
	Tel      telemetry.API
	// HttpDump is nil unless --dump-http was given.
	HttpDump telemetry.Output
	Tracing  telemetry.Tracing
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key).(*Value)
}

func (v *Value) Close(ctx context.Context) {
	err := v.Store.Close()
	if err != nil {
		v.Tel.ReportWarning("globals.close_store", err)
	}
	err = v.Tracing.Shutdown(ctx)
	if err != nil {
		v.Tel.ReportWarning("globals.shutdown_tracing", err)
	}
}

// State loads the saved record.
func (v *Value) State(ctx context.Context) (*state.Handle, error) {
	h, err := state.Load(ctx, v.Store)
	if errors.Is(err, state.ErrNotFound) {
		return nil, fmt.Errorf("%w, run `yacontest config` first", err)
	}
	return h, err
}

// Client builds a contest client for the selected contest, cache may be nil.
func (v *Value) Client(ctx context.Context, cache *contest.PageCache) (*contest.Client, error) {
	h, err := v.State(ctx)
	if err != nil {
		return nil, err
	}
	return contest.NewClient(h, v.Prompter, v.Tel, contest.Options{
		Session: contest.SessionOptions{
			UserAgent:         v.Settings.UserAgent,
			Timeout:           v.Settings.HttpTimeout(),
			RequestsPerSecond: v.Settings.RateLimit(),
			CloudflareBypass:  v.Settings.CloudflareBypass,
			HttpDump:          v.HttpDump,
		},
		PollTimeout: v.Settings.PollTimeout(),
		PageCache:   cache,
	})
}

package contest

import "errors"

var (
	ErrNoContestSelected    = errors.New("no contest selected, run \"yacontest select <contest id>\" first")
	ErrContestUnavailable   = errors.New("contest is unavailable")
	ErrAuthenticationFailed = errors.New("incorrect login or password")
	ErrSessionExpired       = errors.New("session expired right after logging in")
	ErrUnexpectedStatus     = errors.New("unexpected response status")
	ErrMalformedPage        = errors.New("unexpected page layout")
	ErrMalformedForm        = errors.New("unexpected submission form layout")
	ErrUnknownProblem       = errors.New("unknown problem")
	ErrFileNotFound         = errors.New("file not found")
	ErrNoCompilerSelected   = errors.New("no language/compiler selected")
	ErrSubmissionRejected   = errors.New("submission rejected")
	ErrNoSolutions          = errors.New("no solutions found")
	ErrPollingAborted       = errors.New("stopped waiting for the verdict")
)

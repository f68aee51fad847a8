package telemetry

import (
	"fmt"
)

// API is an abstraction over logging/metrics.
// It exists so tests can assert on what a component reports.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that failed in a way the user has to act on.
	//
	// The `id` names the component that broke, not the specific step inside it.
	// A failed login POST inside the session manager is `session.login`, the
	// fact that it was the POST belongs in the params or the wrapped error.
	//
	// Formatting rules:
	// 1) all lowercase
	// 2) use underscores for large components
	// 3) use dashes for methods part of a larger component
	//
	// Packages usually wrap the API they receive in a ScopedAPI, so an id only
	// needs `<struct or intf>.<method>`.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that did not fail the command but looks off,
	// like a submission row that could not be parsed.
	ReportWarning(id string, params ...any)

	// ReportDebug reports information that is only shown with --verbose.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the current value of a counter, these are points
	// in time and should not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id or message with a namespace before handing it to
// the inner API.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scope(id string) string {
	return fmt.Sprintf("%s: %s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scope(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scope(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scope(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scope(id), count)
}

package contest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"sync"
	"time"

	"yacontest/internal/assert"
	"yacontest/internal/components/prompt"
	"yacontest/internal/components/telemetry"
	"yacontest/internal/state"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	report_session_do      = "session.do"
	report_session_login   = "session.login"
	report_session_persist = "session.persist"
	report_session_logins  = "session.logins"
)

var tracer = otel.Tracer("yacontest/internal/contest")

// the platform sends failed logins back to the login page
const loginFailedPath = "/login/"

type SessionOptions struct {
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond float64
	CloudflareBypass  bool
	// HttpDump receives every exchange when set.
	HttpDump telemetry.Output
}

type FormFile struct {
	Param   string
	Name    string
	Content []byte
}

// Request describes a request so that it can be sent again after logging in.
type Request struct {
	Method string
	Url    string
	Query  url.Values
	// Form is sent urlencoded, or as multipart fields when Files is set.
	Form  map[string]string
	Files []FormFile
}

func Get(u string) Request {
	return Request{Method: http.MethodGet, Url: u}
}

// Session sends requests on behalf of the user and logs in again whenever
// the platform reports the session as expired.
type Session struct {
	// held across a full send/login/resend cycle so concurrent callers
	// never race to log in
	mu *sync.Mutex

	contest ContestContext
	http    *resty.Client
	jar     *cookiejar.Jar
	// every origin the session has cookies for, keyed by "scheme://host"
	origins map[string]*url.URL
	state   *state.Handle
	prompt  prompt.Prompter
	tel     telemetry.API
	logins  int64
}

func NewSession(
	contest ContestContext,
	h *state.Handle,
	prompter prompt.Prompter,
	tel telemetry.API,
	opts SessionOptions,
) (*Session, error) {
	assert.NotNil(contest.BaseUrl)
	assert.NotNil(h)
	assert.NotNil(prompter)
	assert.NotNil(tel)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}
	// the login link may point at a separate auth host
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, opts.HttpDump)

	s := &Session{
		mu:      &sync.Mutex{},
		contest: contest,
		http:    httpClient,
		jar:     jar,
		origins: map[string]*url.URL{},
		state:   h,
		prompt:  prompter,
		tel:     tel,
	}
	s.track(contest.BaseUrl)
	for _, c := range h.Record().Cookies {
		origin := contest.BaseUrl
		if c.Origin != "" {
			parsed, err := url.Parse(c.Origin)
			if err != nil || parsed.Host == "" {
				s.tel.ReportWarning(report_session_persist, fmt.Errorf("invalid cookie origin %q", c.Origin))
				continue
			}
			origin = parsed
		}
		s.jar.SetCookies(s.track(origin), []*http.Cookie{{Name: c.Name, Value: c.Value, Path: "/"}})
	}
	return s, nil
}

// track remembers the origin of u so its cookies are persisted, it returns
// that origin.
func (s *Session) track(u *url.URL) *url.URL {
	origin := &url.URL{Scheme: u.Scheme, Host: u.Host}
	key := origin.String()
	if known, ok := s.origins[key]; ok {
		return known
	}
	s.origins[key] = origin
	return origin
}

func (s *Session) Contest() ContestContext {
	return s.contest
}

// ForContest returns a session for another contest on the same host, it
// shares cookies and the login lock with s.
func (s *Session) ForContest(contestId int64) *Session {
	return &Session{
		mu:      s.mu,
		contest: s.contest.WithContest(contestId),
		http:    s.http,
		jar:     s.jar,
		origins: s.origins,
		state:   s.state,
		prompt:  s.prompt,
		tel:     s.tel,
	}
}

// Do sends req. If the platform answers with the contest entry page the
// session logs in and sends req once more, a second expiry is an error.
func (s *Session) Do(ctx context.Context, req Request) (*resty.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "session:Do")
	defer span.End()
	span.SetAttributes(
		attribute.String("method", req.Method),
		attribute.String("url", req.Url),
	)

	res, err := s.send(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	if !s.expired(res) {
		return res, s.checkStatus(req, res)
	}

	s.tel.ReportDebug("session expired, logging in", req.Method, req.Url)
	err = s.login(ctx, res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return nil, err
	}

	res, err = s.send(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	if s.expired(res) {
		err := fmt.Errorf("%w: %s %s", ErrSessionExpired, req.Method, req.Url)
		s.tel.ReportBroken(report_session_do, err)
		span.SetStatus(codes.Error, "expired twice")
		return nil, err
	}
	return res, s.checkStatus(req, res)
}

func (s *Session) send(ctx context.Context, req Request) (*resty.Response, error) {
	r := s.http.R().SetContext(ctx)
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if len(req.Files) > 0 {
		r.SetMultipartFormData(req.Form)
		for _, f := range req.Files {
			r.SetFileReader(f.Param, f.Name, bytes.NewReader(f.Content))
		}
	} else if req.Form != nil {
		r.SetFormData(req.Form)
	}
	return r.Execute(req.Method, req.Url)
}

func (s *Session) checkStatus(req Request, res *resty.Response) error {
	if !res.IsError() {
		return nil
	}
	return fmt.Errorf("%w: %s %s returned %s", ErrUnexpectedStatus, req.Method, req.Url, res.Status())
}

// FinalUrl is the url of the last request in the redirect chain.
func FinalUrl(res *resty.Response) *url.URL {
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		return res.RawResponse.Request.URL
	}
	u, err := url.Parse(res.Request.URL)
	if err != nil {
		return &url.URL{}
	}
	return u
}

func (s *Session) expired(res *resty.Response) bool {
	return FinalUrl(res).Path == s.contest.EnterPath()
}

func (s *Session) login(ctx context.Context, entry *resty.Response) error {
	ctx, span := tracer.Start(ctx, "session:login")
	defer span.End()

	loginError := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(entry.Body()))
	if err != nil {
		return loginError(fmt.Errorf("parse contest entry page: %w", err))
	}
	href, ok := doc.Find("a.link_access_login").First().Attr("href")
	if !ok {
		return loginError(fmt.Errorf(
			"%w, check that it exists and that you are registered: %s",
			ErrContestUnavailable, s.contest.Url("/"),
		))
	}
	loginUrl, err := FinalUrl(entry).Parse(href)
	if err != nil {
		return loginError(fmt.Errorf("%w: login link %q: %w", ErrMalformedPage, href, err))
	}

	s.track(loginUrl)

	res, err := s.send(ctx, Get(loginUrl.String()))
	if err != nil {
		s.tel.ReportBroken(report_session_login, fmt.Errorf("login page request: %w", err))
		return loginError(err)
	}
	doc, err = goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return loginError(fmt.Errorf("parse login page: %w", err))
	}
	form := doc.Find("form").First()
	if form.Length() == 0 {
		err := fmt.Errorf("%w: no login form at %s", ErrMalformedPage, loginUrl)
		s.tel.ReportBroken(report_session_login, err)
		return loginError(err)
	}

	fields := map[string]string{}
	form.Find("input").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		fields[name] = input.AttrOr("value", "")
	})

	record := s.state.Record()
	password := record.Password
	if password == "" {
		password, err = s.prompt.Password(fmt.Sprintf(
			"Session for %s has expired, enter the password to log in again",
			record.Login,
		))
		if err != nil {
			return loginError(fmt.Errorf("read password: %w", err))
		}
	}
	fields["login"] = record.Login
	fields["password"] = password

	res, err = s.send(ctx, Request{
		Method: http.MethodPost,
		Url:    loginUrl.String(),
		Form:   fields,
	})
	s.logins++
	s.tel.ReportCount(report_session_logins, s.logins)
	if err != nil {
		s.tel.ReportBroken(report_session_login, fmt.Errorf("login request: %w", err))
		return loginError(err)
	}

	s.track(FinalUrl(res))

	if FinalUrl(res).Path == loginFailedPath {
		authErr := fmt.Errorf(
			"%w for %q, run \"yacontest config\" if the login is wrong",
			ErrAuthenticationFailed, record.Login,
		)
		err := s.state.Update(ctx, func(r *state.Record) {
			r.Password = ""
		})
		if err != nil {
			s.tel.ReportBroken(report_session_persist, err)
			return loginError(errors.Join(authErr, err))
		}
		return loginError(authErr)
	}

	err = s.state.Update(ctx, func(r *state.Record) {
		r.Cookies = s.cookies()
	})
	if err != nil {
		s.tel.ReportBroken(report_session_persist, err)
		return loginError(fmt.Errorf("save session: %w", err))
	}
	return nil
}

func (s *Session) cookies() []state.Cookie {
	keys := make([]string, 0, len(s.origins))
	for key := range s.origins {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := []state.Cookie{}
	for _, key := range keys {
		for _, c := range s.jar.Cookies(s.origins[key]) {
			out = append(out, state.Cookie{Name: c.Name, Value: c.Value, Origin: key})
		}
	}
	return out
}

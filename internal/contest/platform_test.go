package contest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"yacontest/internal/components/prompt"
	"yacontest/internal/components/telemetry"
	"yacontest/internal/state"

	"github.com/stretchr/testify/require"
)

const (
	testLogin      = "student"
	testPassword   = "secret"
	sessionCookie  = "Session_id"
	testContestId  = 1
	testContestDir = "/contest/1"
)

const defaultSubmitForm = `<form method="post" action="/contest/1/submit/" enctype="multipart/form-data">
	<input type="hidden" name="sk" value="secret-key">
	<input type="hidden" name="retpath" value="/contest/1/problems/A/">
	<select name="abc-compilerId">
		<option value="gcc17">GNU   C++17
		</option>
		<option value="py3">Python 3</option>
	</select>
	<input type="radio" name="abc-solution" value="text">
	<input type="file" name="abc-file">
	<input type="submit" value="Send">
</form>`

type statusRow struct {
	id, verdict, time, memory, test, score string
}

type submission struct {
	fields   map[string]string
	file     string
	fileName string
	content  string
}

// fakePlatform serves just enough of the contest site to drive a Client:
// cookie sessions, the entry/login flow, problem pages, status polling and
// submissions.
type fakePlatform struct {
	t      *testing.T
	server *httptest.Server

	mu            sync.Mutex
	sessions      map[string]bool
	nextSession   int
	alwaysExpire  bool
	hideLoginLink bool
	requests      map[string]int
	loginPosts    int

	problems    []string
	form        string
	statement   string
	statuses    []statusRow
	statusIdx   int
	onStatus    func()
	submitError string
	submissions []submission
	report      []string
	standings   string
	submits     map[string]string
	sources     map[string]string
}

func newFakePlatform(t *testing.T) *fakePlatform {
	p := &fakePlatform{
		t:        t,
		sessions: map[string]bool{},
		requests: map[string]int{},
		problems: []string{"A", "B", "C"},
		form:     defaultSubmitForm,
		statement: `<div class="problem-statement">
			<h1 class="title">A. Sum</h1>
			<div class="legend"><p>Add two numbers.</p></div>
		</div>`,
		submits: map[string]string{},
		sources: map[string]string{},
	}
	p.server = httptest.NewServer(p)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePlatform) issueSession() state.Cookie {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSession++
	token := fmt.Sprintf("session-%d", p.nextSession)
	p.sessions[token] = true
	return state.Cookie{Name: sessionCookie, Value: token}
}

func (p *fakePlatform) expireSessions() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions = map[string]bool{}
}

func (p *fakePlatform) requestCount(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[path]
}

func (p *fakePlatform) logins() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loginPosts
}

func (p *fakePlatform) submissionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.submissions)
}

func (p *fakePlatform) lastSubmission() submission {
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(p.t, p.submissions)
	return p.submissions[len(p.submissions)-1]
}

func (p *fakePlatform) authorized(r *http.Request) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.alwaysExpire {
		return false
	}
	c, err := r.Cookie(sessionCookie)
	return err == nil && p.sessions[c.Value]
}

func (p *fakePlatform) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.requests[r.URL.Path]++
	p.mu.Unlock()

	switch r.URL.Path {
	case "/login/":
		p.serveLogin(w, r)
		return
	case testContestDir + "/enter/":
		p.serveEnter(w)
		return
	}

	if !strings.HasPrefix(r.URL.Path, testContestDir+"/") {
		http.NotFound(w, r)
		return
	}
	if !p.authorized(r) {
		http.Redirect(w, r, testContestDir+"/enter/", http.StatusFound)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, testContestDir)
	switch {
	case path == "/":
		io.WriteString(w, "<html><body>contest home</body></html>")
	case path == "/problems/":
		p.serveProblemList(w)
	case strings.HasPrefix(path, "/problems/"):
		if r.URL.Query().Get("ajax") == "submit-table" {
			p.serveStatus(w)
			return
		}
		p.serveProblem(w)
	case path == "/submit/":
		p.serveSubmit(w, r)
	case strings.HasPrefix(path, "/run-report/"):
		p.serveReport(w)
	case path == "/standings/":
		io.WriteString(w, p.standings)
	case path == "/submits":
		p.mu.Lock()
		body := p.submits[r.URL.Query().Get("p")]
		p.mu.Unlock()
		if body == "" {
			body = "<table><tr><th>Problem</th><th>Verdict</th><th>Report</th></tr></table>"
		}
		io.WriteString(w, body)
	case strings.HasPrefix(path, "/download-source/"):
		runId := strings.Trim(strings.TrimPrefix(path, "/download-source/"), "/")
		p.mu.Lock()
		source, ok := p.sources[runId]
		p.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.cpp"`, runId))
		io.WriteString(w, source)
	default:
		http.NotFound(w, r)
	}
}

func (p *fakePlatform) serveEnter(w http.ResponseWriter) {
	p.mu.Lock()
	hide := p.hideLoginLink
	p.mu.Unlock()

	if hide {
		io.WriteString(w, `<html><body><p>This contest is over.</p></body></html>`)
		return
	}
	io.WriteString(w, `<html><body>
		<p>You need to log in to take part.</p>
		<a class="link_access_login" href="/login/?retpath=%2Fcontest%2F1%2F">Log in</a>
	</body></html>`)
}

func (p *fakePlatform) serveLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		io.WriteString(w, `<html><body><form method="post" action="/login/">
			<input type="hidden" name="retpath" value="/contest/1/">
			<input type="hidden" name="csrf" value="token-1">
			<input type="text" name="login">
			<input type="password" name="password">
			<input type="submit" value="Log in">
		</form></body></html>`)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.mu.Lock()
	p.loginPosts++
	p.mu.Unlock()

	if r.PostForm.Get("csrf") != "token-1" ||
		r.PostForm.Get("login") != testLogin ||
		r.PostForm.Get("password") != testPassword {
		http.Redirect(w, r, "/login/?error=bad-credentials", http.StatusFound)
		return
	}

	cookie := p.issueSession()
	http.SetCookie(w, &http.Cookie{Name: cookie.Name, Value: cookie.Value, Path: "/"})
	http.Redirect(w, r, r.PostForm.Get("retpath"), http.StatusFound)
}

func (p *fakePlatform) serveProblemList(w http.ResponseWriter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out strings.Builder
	out.WriteString(`<html><body><ul class="menu"><li><a href="/contest/1/">Contest</a></li></ul><ul>`)
	for _, id := range p.problems {
		fmt.Fprintf(&out, `<li><a href="/contest/1/problems/%s/">%s. Problem</a></li>`, id, id)
	}
	out.WriteString(`</ul></body></html>`)
	io.WriteString(w, out.String())
}

func (p *fakePlatform) serveProblem(w http.ResponseWriter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(w, `<html><body>
		<form action="/search"><input name="q"></form>
		%s
		%s
	</body></html>`, p.statement, p.form)
}

func (p *fakePlatform) serveStatus(w http.ResponseWriter) {
	p.mu.Lock()
	hook := p.onStatus
	p.mu.Unlock()
	if hook != nil {
		hook()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var table strings.Builder
	table.WriteString(`<table><tr><th>ID</th><th>Дата</th><th>Вердикт</th><th>Время</th><th>Память</th><th>Тест</th><th>Баллы</th></tr>`)
	if len(p.statuses) > 0 {
		idx := p.statusIdx
		if idx >= len(p.statuses) {
			idx = len(p.statuses) - 1
		}
		p.statusIdx++
		s := p.statuses[idx]
		fmt.Fprintf(
			&table,
			`<tr><td>%s</td><td>2020-01-01</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			s.id, s.verdict, s.time, s.memory, s.test, s.score,
		)
	}
	table.WriteString(`</table>`)

	json.NewEncoder(w).Encode(map[string]string{"result": table.String()})
}

func (p *fakePlatform) serveSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub := submission{fields: map[string]string{}}
	for k, v := range r.MultipartForm.Value {
		sub.fields[k] = v[0]
	}
	for field, headers := range r.MultipartForm.File {
		f, err := headers[0].Open()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		content, _ := io.ReadAll(f)
		f.Close()
		sub.file = field
		sub.fileName = headers[0].Filename
		sub.content = string(content)
	}

	p.mu.Lock()
	p.submissions = append(p.submissions, sub)
	msg := p.submitError
	p.mu.Unlock()

	target := sub.fields["retpath"]
	if msg != "" {
		target += "?error=" + url.QueryEscape(msg)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (p *fakePlatform) serveReport(w http.ResponseWriter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(w, "<html><body><h2>Report</h2>")
	for _, detail := range p.report {
		fmt.Fprintf(w, "<pre>%s</pre>", html.EscapeString(detail))
	}
	io.WriteString(w, "</body></html>")
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

type fakePrompter struct {
	mu              sync.Mutex
	password        string
	passwordQueries int
	choice          int
	chooseErr       error
	chooseCalls     [][]string
}

func (f *fakePrompter) Ask(string) (string, error) {
	return "", prompt.ErrDeclined
}

func (f *fakePrompter) Password(string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwordQueries++
	if f.password == "" {
		return "", prompt.ErrDeclined
	}
	return f.password, nil
}

func (f *fakePrompter) Confirm(string) (bool, error) {
	return false, nil
}

func (f *fakePrompter) Choose(_ string, options []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chooseCalls = append(f.chooseCalls, options)
	if f.chooseErr != nil {
		return -1, f.chooseErr
	}
	return f.choice, nil
}

type testEnv struct {
	platform *fakePlatform
	client   *Client
	store    state.SqliteStore
	out      *bytes.Buffer
	clock    *fakeClock
	prompter *fakePrompter
	tel      *telemetry.Recorder
}

func (e testEnv) saved(t *testing.T) state.Record {
	t.Helper()
	record, err := e.store.Load(context.Background())
	require.NoError(t, err)
	return record
}

func openTestStore(t *testing.T) state.SqliteStore {
	t.Helper()
	store, err := state.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// newTestEnv builds a Client against p, mutate adjusts the stored record
// before it is loaded.
func newTestEnv(t *testing.T, p *fakePlatform, mutate func(r *state.Record)) testEnv {
	t.Helper()
	ctx := context.Background()

	record := state.Record{
		Domain:    p.server.URL,
		Login:     testLogin,
		Password:  testPassword,
		ContestId: testContestId,
	}
	if mutate != nil {
		mutate(&record)
	}

	store := openTestStore(t)
	require.NoError(t, store.Save(ctx, record))
	h, err := state.Load(ctx, store)
	require.NoError(t, err)

	env := testEnv{
		platform: p,
		store:    store,
		out:      &bytes.Buffer{},
		clock:    newFakeClock(),
		prompter: &fakePrompter{},
		tel:      &telemetry.Recorder{},
	}
	env.client, err = NewClient(h, env.prompter, env.tel, Options{
		Session: SessionOptions{
			UserAgent: "yacontest-test",
			Timeout:   5 * time.Second,
		},
		Clock: env.clock,
		Out:   env.out,
	})
	require.NoError(t, err)
	return env
}

// withSession stores a cookie the platform already accepts.
func withSession(p *fakePlatform) func(r *state.Record) {
	return func(r *state.Record) {
		r.Cookies = []state.Cookie{p.issueSession()}
	}
}

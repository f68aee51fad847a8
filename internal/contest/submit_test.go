package contest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"yacontest/internal/components/prompt"
	"yacontest/internal/state"

	"github.com/stretchr/testify/require"
)

func writeSolution(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "solution.cpp")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSubmitAndWait(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	p.statuses = []statusRow{
		{id: "12345", verdict: "Ожидание проверки", time: "-", memory: "-", test: "-", score: "-"},
		{id: "12345", verdict: "Тестируется", time: "-", memory: "-", test: "1", score: "-"},
		{id: "12345", verdict: "Тестируется", time: "-", memory: "-", test: "3", score: "-"},
		{id: "12345", verdict: "OK", time: "124 ms", memory: "3 MB", test: "-", score: "-"},
	}
	env := newTestEnv(t, p, withSession(p))

	file := writeSolution(t, "int main() { return 0; }")
	err := env.client.Submit(ctx, SubmitOptions{
		Problem:  "A",
		File:     file,
		Compiler: "gnu c++17",
		Wait:     true,
	})
	require.NoError(t, err)

	require.Equal(
		t,
		"Uploaded!\nWaiting...\nTesting...\nSolution 12345: OK, Time: 124 ms, Mem: 3 MB\n",
		env.out.String(),
	)

	sub := p.lastSubmission()
	require.Equal(t, "abc-file", sub.file)
	require.Equal(t, "solution.cpp", sub.fileName)
	require.Equal(t, "int main() { return 0; }", sub.content)
	require.Equal(t, "gcc17", sub.fields["abc-compilerId"])
	require.Equal(t, "file", sub.fields["abc-solution"])
	require.Equal(t, "secret-key", sub.fields["sk"])

	require.Equal(t, 1, p.requestCount("/contest/1/problems/"))
	require.Zero(t, p.logins())
	require.Empty(t, env.prompter.chooseCalls)

	// no request latency on the fake clock, every wait is a full interval
	require.Equal(t, []time.Duration{PollInterval, PollInterval, PollInterval}, env.clock.Sleeps())
}

func TestSubmitUsesSavedLanguage(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	env := newTestEnv(t, p, func(r *state.Record) {
		withSession(p)(r)
		r.Lang = "Python 3"
	})

	err := env.client.Submit(ctx, SubmitOptions{Problem: "b", File: writeSolution(t, "print(1)")})
	require.NoError(t, err)
	require.Equal(t, "py3", p.lastSubmission().fields["abc-compilerId"])
	require.Empty(t, env.prompter.chooseCalls)
}

func TestSubmitAsksForUnknownLanguage(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	env := newTestEnv(t, p, withSession(p))
	env.prompter.choice = 1

	err := env.client.Submit(ctx, SubmitOptions{
		Problem:  "a",
		File:     writeSolution(t, "print(1)"),
		Compiler: "python3",
	})
	require.NoError(t, err)

	require.Equal(t, [][]string{{"GNU C++17", "Python 3"}}, env.prompter.chooseCalls)
	require.Equal(t, "py3", p.lastSubmission().fields["abc-compilerId"])
	require.Contains(t, env.out.String(), "Unknown language: python3 (closest match: Python 3)")
}

func TestSubmitDeclinedLanguage(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	env := newTestEnv(t, p, withSession(p))
	env.prompter.chooseErr = prompt.ErrDeclined

	err := env.client.Submit(ctx, SubmitOptions{Problem: "a", File: writeSolution(t, "x")})
	require.ErrorIs(t, err, ErrNoCompilerSelected)
	require.Zero(t, p.submissionCount())
}

func TestSubmitFixedCompiler(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	p.form = `<form method="post" action="/contest/1/submit/">
		<input type="hidden" name="retpath" value="/contest/1/problems/A/">
		<input type="hidden" name="abc-compilerId" value="make2">
		<input type="hidden" name="abc-solution" value="text">
		<input type="file" name="abc-file">
	</form>`
	env := newTestEnv(t, p, withSession(p))

	err := env.client.Submit(ctx, SubmitOptions{Problem: "a", File: writeSolution(t, "all:"), Compiler: "GNU C++17"})
	require.NoError(t, err)
	require.Equal(t, "make2", p.lastSubmission().fields["abc-compilerId"])
	require.Empty(t, env.prompter.chooseCalls)
}

func TestSubmitRejected(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	p.submitError = "Submission limit exceeded"
	env := newTestEnv(t, p, withSession(p))

	err := env.client.Submit(ctx, SubmitOptions{Problem: "a", File: writeSolution(t, "x"), Compiler: "GNU C++17", Wait: true})
	require.ErrorIs(t, err, ErrSubmissionRejected)
	require.Contains(t, err.Error(), "Submission limit exceeded")
	require.NotContains(t, env.out.String(), "Uploaded!")
	require.Equal(t, 2, p.requestCount("/contest/1/problems/A/"))
}

func TestSubmitCompileErrorShowsReport(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	p.statuses = []statusRow{
		{id: "777", verdict: "CE", time: "-", memory: "-", test: "-", score: "-"},
	}
	p.report = []string{"solution.cpp:1:1: error: expected ';'"}
	env := newTestEnv(t, p, withSession(p))

	err := env.client.Submit(ctx, SubmitOptions{Problem: "a", File: writeSolution(t, "x"), Compiler: "GNU C++17", Wait: true})
	require.NoError(t, err)

	require.Equal(
		t,
		"Uploaded!\nWaiting...\nSolution 777: CE, Time: , Mem: \n"+
			"--------------------\nsolution.cpp:1:1: error: expected ';'\n--------------------\n",
		env.out.String(),
	)
	require.Equal(t, 1, p.requestCount("/contest/1/run-report/777/"))
}

func TestSubmitMissingFile(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	env := newTestEnv(t, p, withSession(p))

	err := env.client.Submit(ctx, SubmitOptions{Problem: "a", File: filepath.Join(t.TempDir(), "nope.cpp")})
	require.ErrorIs(t, err, ErrFileNotFound)

	err = env.client.Submit(ctx, SubmitOptions{Problem: "a", File: t.TempDir()})
	require.ErrorIs(t, err, ErrFileNotFound)

	// nothing is fetched before the file is checked
	require.Zero(t, p.requestCount("/contest/1/problems/"))
}

func TestSubmitUnknownProblem(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	env := newTestEnv(t, p, withSession(p))

	err := env.client.Submit(ctx, SubmitOptions{Problem: "zz", File: writeSolution(t, "x")})
	require.ErrorIs(t, err, ErrUnknownProblem)
	require.Contains(t, err.Error(), "a, b, c")
	require.Zero(t, p.submissionCount())
}

func TestCompilerOptions(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	env := newTestEnv(t, p, withSession(p))

	options, fixed, err := env.client.CompilerOptions(ctx)
	require.NoError(t, err)
	require.False(t, fixed)
	require.Equal(t, []CompilerOption{
		{Name: "GNU C++17", Value: "gcc17"},
		{Name: "Python 3", Value: "py3"},
	}, options)
}

func TestSetPreferredCompiler(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	h := state.NewHandle(store, state.Record{Domain: "contest.yandex.ru", Login: testLogin})

	require.NoError(t, SetPreferredCompiler(ctx, h, " GNU   C++17 "))
	saved, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "GNU C++17", saved.Lang)

	require.NoError(t, SetPreferredCompiler(ctx, h, ""))
	saved, err = store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, saved.Lang)
}

func TestChoosePreferredCompilerKeepsSession(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	env := newTestEnv(t, p, nil)
	env.prompter.choice = 1

	name, ok, err := env.client.ChoosePreferredCompiler(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Python 3", name)
	require.Equal(t, 1, p.logins())

	saved := env.saved(t)
	require.Equal(t, "Python 3", saved.Lang)
	require.NotEmpty(t, saved.Cookies)
	require.Len(t, saved.Problems, 3)
}

func TestChoosePreferredCompilerFixed(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	p.form = `<form method="post" action="/contest/1/submit/">
		<input type="hidden" name="abc-compilerId" value="make2">
		<input type="file" name="abc-file">
	</form>`
	env := newTestEnv(t, p, withSession(p))

	_, ok, err := env.client.ChoosePreferredCompiler(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, env.prompter.chooseCalls)
	require.Empty(t, env.saved(t).Lang)
}

package contest

import (
	"context"
	"net/url"
	"testing"

	"yacontest/internal/state"

	"github.com/stretchr/testify/require"
)

func TestParseProblemList(t *testing.T) {
	base, err := url.Parse("https://contest.yandex.ru/contest/3/problems/")
	require.NoError(t, err)

	problems, err := ParseProblemList(context.Background(), base, []byte(`<html><body>
		<ul class="nav"><li><a href="/contest/3/">Contest</a></li></ul>
		<ul>
			<li><a href="/contest/3/problems/A/">A. Sum</a></li>
			<li><a href="/contest/3/problems/B1/">B1. Product</a></li>
			<li><a href="C/">C. Relative</a></li>
			<li>no link</li>
		</ul>
	</body></html>`))
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"a":  "https://contest.yandex.ru/contest/3/problems/A/",
		"b1": "https://contest.yandex.ru/contest/3/problems/B1/",
		"c":  "https://contest.yandex.ru/contest/3/problems/C/",
	}, problems)

	_, err = ParseProblemList(context.Background(), base, []byte(`<p>nothing</p>`))
	require.ErrorIs(t, err, ErrMalformedPage)
}

func TestDirectoryFetchesListingOnce(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	env := newTestEnv(t, p, withSession(p))

	locator, err := env.client.Directory.Resolve(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, p.server.URL+"/contest/1/problems/A/", locator)

	_, err = env.client.Directory.Resolve(ctx, " b ")
	require.NoError(t, err)
	ids, err := env.client.Directory.Ids(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, ids)

	require.Equal(t, 1, p.requestCount("/contest/1/problems/"))
	require.Len(t, env.saved(t).Problems, 3)

	// a later invocation reads the persisted directory
	cached := env.saved(t)
	next := newTestEnv(t, p, func(r *state.Record) { *r = cached })
	_, err = next.client.Directory.Resolve(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, 1, p.requestCount("/contest/1/problems/"))
}

func TestDirectoryUnknownProblem(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t)
	env := newTestEnv(t, p, withSession(p))

	_, err := env.client.Directory.Resolve(ctx, "d")
	require.ErrorIs(t, err, ErrUnknownProblem)
	require.Contains(t, err.Error(), `"d"`)
	require.Contains(t, err.Error(), "a, b, c")
}

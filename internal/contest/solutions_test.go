package contest

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func submitsPage(rows ...string) string {
	out := `<html><body><table><tr><th>Problem</th><th>Verdict</th><th>Report</th></tr>`
	for _, row := range rows {
		out += row
	}
	return out + `</table></body></html>`
}

func submitRow(problem, verdict, runId string) string {
	return `<tr><td><a href="/contest/1/problems/` + problem + `/">` + problem + `</a></td>` +
		`<td><a href="/contest/1/run-report/` + runId + `/">` + verdict + `</a></td>` +
		`<td><a href="/contest/1/run-report/` + runId + `/">report</a></td></tr>`
}

func TestSourceExtension(t *testing.T) {
	testCases := []struct {
		header   string
		expected string
	}{
		{header: `attachment; filename="12345.cpp"`, expected: ".cpp"},
		{header: `attachment; filename=main.py`, expected: ".py"},
		{header: `attachment; filename*=UTF-8''sol.tar.go`, expected: ".go"},
		{header: `attachment; filename="Makefile"`, expected: ""},
		{header: ``, expected: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, SourceExtension(test.header), test.header)
	}
}

func TestParseSubmits(t *testing.T) {
	base, err := url.Parse("https://contest.yandex.ru/contest/1/submits?p=1")
	require.NoError(t, err)

	rows, skipped, err := ParseSubmits(context.Background(), base, []byte(submitsPage(
		submitRow("A", "OK", "10"),
		`<tr><td>broken</td></tr>`,
	)))
	require.NoError(t, err)
	require.Equal(t, 1, skipped)
	require.Len(t, rows, 1)
	require.Equal(t, "a", rows[0].Problem)
	require.Equal(t, "OK", rows[0].Verdict)
	require.Equal(t, "https://contest.yandex.ru/contest/1/download-source/10/", rows[0].SourceUrl())
}

func TestDownloadAccepted(t *testing.T) {
	p := newFakePlatform(t)
	p.submits["1"] = submitsPage(
		submitRow("A", "OK", "12"),
		submitRow("A", "OK", "11"),
		submitRow("B", "WA", "10"),
	)
	p.submits["2"] = submitsPage(
		submitRow("B", "OK", "9"),
	)
	p.sources["12"] = "newest a"
	p.sources["11"] = "older a"
	p.sources["9"] = "accepted b"
	env := newTestEnv(t, p, withSession(p))

	dir := t.TempDir()
	saved, err := env.client.DownloadAccepted(context.Background(), testContestId, dir)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, saved)

	a, err := os.ReadFile(filepath.Join(dir, "a.cpp"))
	require.NoError(t, err)
	require.Equal(t, "newest a", string(a))
	b, err := os.ReadFile(filepath.Join(dir, "b.cpp"))
	require.NoError(t, err)
	require.Equal(t, "accepted b", string(b))

	require.Equal(t, "Loaded an accepted solution for a!\nLoaded an accepted solution for b!\n", env.out.String())
	require.Zero(t, p.requestCount("/contest/1/download-source/11/"))
	require.Zero(t, p.requestCount("/contest/1/download-source/10/"))
}

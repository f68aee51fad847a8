package contest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"yacontest/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const report_solutions_parse = "solutions.parse"

// the extension is assumed to be alphanumeric
var filenameExtension = regexp.MustCompile(`(?i)filename\*?=.+?(\.\w+)["']?\s*(?:;|$)`)

// SubmitRow is one row of the contest submissions list.
type SubmitRow struct {
	Problem string
	Verdict string
	// Report is the absolute url of the run report.
	Report *url.URL
}

// SourceUrl is where the submitted source can be downloaded.
func (r SubmitRow) SourceUrl() string {
	u := *r.Report
	u.Path = strings.Replace(u.Path, "run-report", "download-source", 1)
	return u.String()
}

// ParseSubmits reads a page of the submissions list, each row links to the
// problem, the verdict and the run report in that order.
func ParseSubmits(ctx context.Context, base *url.URL, body []byte) ([]SubmitRow, int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("parse submissions: %w", err)
	}

	rows := doc.Find("tr")
	if rows.Length() < 2 {
		return nil, 0, nil
	}

	out := []SubmitRow{}
	skipped := 0
	rows.Slice(1, goquery.ToEnd).Each(func(_ int, tr *goquery.Selection) {
		anchors := htmlutil.GetAnchors(ctx, base, tr.Find("a"))
		if len(anchors) != 3 {
			skipped++
			return
		}
		out = append(out, SubmitRow{
			Problem: NormalizeProblemId(anchors[0].Name),
			Verdict: anchors[1].Name,
			Report:  anchors[2].Url,
		})
	})
	return out, skipped, nil
}

// SourceExtension pulls the file extension out of a Content-Disposition header.
func SourceExtension(contentDisposition string) string {
	m := filenameExtension.FindStringSubmatch(contentDisposition)
	if m == nil {
		return ""
	}
	return m[1]
}

// DownloadAccepted saves the newest accepted solution of every problem of
// contestId into dir, named by problem id. It returns the ids it saved.
func (c *Client) DownloadAccepted(ctx context.Context, contestId int64, dir string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "client:DownloadAccepted")
	defer span.End()

	session := c.Session
	if contestId != c.contest.ContestId {
		session = c.Session.ForContest(contestId)
	}
	contest := session.Contest()

	saved := map[string]bool{}
	order := []string{}
	seenReports := map[string]bool{}

	for page := 1; ; page++ {
		res, err := session.Do(ctx, Request{
			Method: http.MethodGet,
			Url:    contest.Url("/submits"),
			Query:  url.Values{"p": {strconv.Itoa(page)}},
		})
		if err != nil {
			return order, err
		}
		rows, skipped, err := ParseSubmits(ctx, FinalUrl(res), res.Body())
		if err != nil {
			return order, err
		}
		if skipped > 0 {
			c.tel.ReportWarning(report_solutions_parse, fmt.Errorf("skipped %d unrecognized submission rows", skipped), page)
		}
		if len(rows) == 0 && skipped == 0 {
			break
		}

		fresh := 0
		for _, row := range rows {
			if seenReports[row.Report.String()] {
				continue
			}
			seenReports[row.Report.String()] = true
			fresh++

			if saved[row.Problem] || row.Verdict != acceptedVerdict {
				continue
			}

			source, err := session.Do(ctx, Get(row.SourceUrl()))
			if err != nil {
				return order, err
			}
			name := row.Problem + SourceExtension(source.Header().Get("Content-Disposition"))
			err = os.WriteFile(filepath.Join(dir, name), source.Body(), 0644)
			if err != nil {
				return order, err
			}
			fmt.Fprintf(c.out, "Loaded an accepted solution for %s!\n", row.Problem)

			saved[row.Problem] = true
			order = append(order, row.Problem)
		}
		// a page with nothing new means the platform clamped the page number
		if fresh == 0 {
			break
		}
	}
	return order, nil
}

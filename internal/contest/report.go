package contest

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const reportDelimiter = "--------------------"

// ParseReport returns the trimmed text of every preformatted block of a run report.
func ParseReport(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse run report: %w", err)
	}
	details := []string{}
	doc.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		details = append(details, strings.TrimSpace(pre.Text()))
	})
	return details, nil
}

// FormatReport joins report blocks between delimiter lines.
func FormatReport(details []string) string {
	if len(details) == 0 {
		details = []string{"No description available"}
	}
	var out strings.Builder
	out.WriteString(reportDelimiter)
	out.WriteString("\n")
	out.WriteString(strings.Join(details, "\n"+reportDelimiter+"\n"))
	out.WriteString("\n")
	out.WriteString(reportDelimiter)
	return out.String()
}

// Report fetches the run report of a submission, compiler output for
// compilation errors.
func (c *Client) Report(ctx context.Context, runId string) (string, error) {
	res, err := c.Session.Do(ctx, Get(c.contest.Url(fmt.Sprintf("/run-report/%s/", runId))))
	if err != nil {
		return "", err
	}
	details, err := ParseReport(res.Body())
	if err != nil {
		return "", err
	}
	return FormatReport(details), nil
}

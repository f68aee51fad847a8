package contest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ErrNoStandings = errors.New("no results, try another page")

// Standings is one page of the contest leaderboard as plain text rows:
// place, participant, one cell per problem, then the totals.
type Standings struct {
	Rows [][]string
}

// ParseStandings reads the first table of a standings page. Problem cells
// wrap their value in a div, the cells after the last problem do not.
func ParseStandings(body []byte) (Standings, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Standings{}, fmt.Errorf("parse standings: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return Standings{}, ErrNoStandings
	}

	rows := [][]*goquery.Selection{}
	table.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, tr *goquery.Selection) {
		cells := []*goquery.Selection{}
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, td)
		})
		rows = append(rows, cells)
	})
	if len(rows) == 0 {
		return Standings{}, nil
	}

	lastProblem := len(rows[0])
	for i := 2; i < len(rows[0]); i++ {
		if rows[0][i].Find("div").Length() == 0 {
			lastProblem = i
			break
		}
	}

	out := Standings{}
	for _, row := range rows {
		text := make([]string, len(row))
		for i, cell := range row {
			if i >= 2 && i < lastProblem {
				if div := cell.Find("div").First(); div.Length() > 0 {
					cell = div
				}
			}
			text[i] = strings.TrimSpace(cell.Text())
		}
		out.Rows = append(out.Rows, text)
	}
	return out, nil
}

// Leaderboard fetches one page of the standings, pages start at 1.
func (c *Client) Leaderboard(ctx context.Context, page int) (Standings, error) {
	if page < 1 {
		page = 1
	}
	res, err := c.Session.Do(ctx, Request{
		Method: http.MethodGet,
		Url:    c.contest.Url("/standings/"),
		Query:  url.Values{"p": {strconv.Itoa(page)}},
	})
	if err != nil {
		return Standings{}, err
	}
	return ParseStandings(res.Body())
}

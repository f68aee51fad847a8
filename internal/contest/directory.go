package contest

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"yacontest/internal/components/telemetry"
	"yacontest/internal/state"
	"yacontest/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const report_directory_persist = "directory.persist"

// Directory maps problem ids to problem pages. The listing is fetched at
// most once per contest and kept in the persisted record.
type Directory struct {
	session *Session
	state   *state.Handle
	tel     telemetry.API
}

func NewDirectory(session *Session, h *state.Handle, tel telemetry.API) *Directory {
	return &Directory{session: session, state: h, tel: tel}
}

// NormalizeProblemId is the form ids are stored and compared in.
func NormalizeProblemId(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// All returns every problem of the contest, scraping the listing only when
// nothing is cached.
func (d *Directory) All(ctx context.Context) (map[string]string, error) {
	if cached := d.state.Record().Problems; len(cached) > 0 {
		return cached, nil
	}

	ctx, span := tracer.Start(ctx, "directory:All")
	defer span.End()

	base := d.session.Contest()
	res, err := d.session.Do(ctx, Get(base.Url("/problems/")))
	if err != nil {
		return nil, err
	}
	problems, err := ParseProblemList(ctx, FinalUrl(res), res.Body())
	if err != nil {
		return nil, err
	}

	err = d.state.Update(ctx, func(r *state.Record) {
		r.Problems = problems
	})
	if err != nil {
		d.tel.ReportBroken(report_directory_persist, err)
		return nil, fmt.Errorf("save problem list: %w", err)
	}
	return problems, nil
}

// Ids returns the sorted problem ids.
func (d *Directory) Ids(ctx context.Context) ([]string, error) {
	problems, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	return sortedIds(problems), nil
}

// Resolve returns the problem page url for id.
func (d *Directory) Resolve(ctx context.Context, id string) (string, error) {
	problems, err := d.All(ctx)
	if err != nil {
		return "", err
	}
	id = NormalizeProblemId(id)
	locator, ok := problems[id]
	if !ok {
		return "", fmt.Errorf(
			"%w %q, the available problems are: %s",
			ErrUnknownProblem, id, strings.Join(sortedIds(problems), ", "),
		)
	}
	return locator, nil
}

func sortedIds(problems map[string]string) []string {
	ids := make([]string, 0, len(problems))
	for id := range problems {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ParseProblemList reads the problem listing: the last list on the page,
// one link per problem whose last path segment is the problem id.
func ParseProblemList(ctx context.Context, base *url.URL, body []byte) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse problem list: %w", err)
	}

	problems := map[string]string{}
	doc.Find("ul").Last().Find("li").Each(func(_ int, li *goquery.Selection) {
		anchors := htmlutil.GetAnchors(ctx, base, li.Find("a").First())
		if len(anchors) == 0 {
			return
		}
		link := anchors[0].Url
		id := NormalizeProblemId(path.Base(strings.TrimSuffix(link.Path, "/")))
		if id == "" || id == "." || id == "/" {
			return
		}
		problems[id] = link.String()
	})

	if len(problems) == 0 {
		return nil, fmt.Errorf("%w: no problems in the problem list", ErrMalformedPage)
	}
	return problems, nil
}

package contest

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"yacontest/lib/htmlutil"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

const (
	statementDelimiter = "===================="
	sampleDelimiter    = "--------------------"
)

// formulas are served as images whose file name is the base64 of the TeX source
var texImagePath = regexp.MustCompile(`^/testsys/tex/render/([^/]*)\.[^./]*$`)

type Sample struct {
	Input  string
	Output string
}

// Statement is a problem statement in text form, sections are markdown.
type Statement struct {
	Title  string
	Limits string
	Legend string
	Input  string
	Output string
	Notes  string

	Samples []Sample
}

func decodeTex(encoded string) (string, bool) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		decoded, err := enc.DecodeString(encoded)
		if err == nil {
			return string(decoded), true
		}
	}
	return "", false
}

// replaceTexImages swaps rendered formula images for their $source$.
func replaceTexImages(sel *goquery.Selection) {
	sel.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, err := url.Parse(img.AttrOr("src", ""))
		if err != nil {
			return
		}
		m := texImagePath.FindStringSubmatch(src.Path)
		if m == nil {
			return
		}
		tex, ok := decodeTex(m[1])
		if !ok {
			return
		}
		img.ReplaceWithHtml(html.EscapeString("$" + tex + "$"))
	})
}

func toMarkdown(conv *md.Converter, sel *goquery.Selection) string {
	out := conv.Convert(sel)
	out = strings.ReplaceAll(out, `\-`, "-")
	out = strings.ReplaceAll(out, `\+`, "+")
	return strings.TrimSpace(out)
}

// headedSection renders the element with the given class together with the
// header that precedes it.
func headedSection(conv *md.Converter, root *goquery.Selection, class string) string {
	el := root.Find("." + class).First()
	if el.Length() == 0 {
		return ""
	}
	body := toMarkdown(conv, el)
	header := htmlutil.CleanText(el.Prev())
	if header == "" {
		return body
	}
	return header + "\n" + body
}

// ParseStatement reads the div.problem-statement element of a problem page.
func ParseStatement(root *goquery.Selection) (Statement, error) {
	if root.Length() == 0 {
		return Statement{}, fmt.Errorf("%w: no problem statement on the page", ErrMalformedPage)
	}
	root = root.First().Clone()
	replaceTexImages(root)

	title := root.Find(".title").First()
	if title.Length() == 0 {
		return Statement{}, fmt.Errorf("%w: problem statement has no title", ErrMalformedPage)
	}

	conv := md.NewConverter("", true, nil)
	out := Statement{Title: strings.TrimSpace(title.Text())}

	limitRow := root.Find("tr.time-limit").First()
	if limitRow.Length() > 0 {
		lines := []string{}
		limitRow.Parent().Children().Filter("tr").Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			lines = append(lines, strings.Join(cells, ": "))
		})
		out.Limits = strings.Join(lines, "\n")
	}

	if legend := root.Find(".legend").First(); legend.Length() > 0 {
		out.Legend = toMarkdown(conv, legend)
	}
	out.Input = headedSection(conv, root, "input-specification")
	out.Output = headedSection(conv, root, "output-specification")
	out.Notes = headedSection(conv, root, "notes")

	root.Find("table.sample-tests").Each(func(_ int, table *goquery.Selection) {
		cells := table.Find("tr").Eq(1).Find("td")
		if cells.Length() < 2 {
			return
		}
		out.Samples = append(out.Samples, Sample{
			Input:  cells.Eq(0).Text(),
			Output: cells.Eq(1).Text(),
		})
	})

	return out, nil
}

func (s Statement) String() string {
	samples := make([]string, len(s.Samples))
	for i, sample := range s.Samples {
		samples[i] = strings.Join([]string{
			strings.Repeat(">", 10), sample.Input,
			strings.Repeat("<", 10), sample.Output,
		}, "\n")
	}

	sections := []string{}
	for _, section := range []string{
		s.Title,
		s.Limits,
		s.Legend,
		s.Input,
		s.Output,
		s.Notes,
		strings.Join(samples, "\n"+sampleDelimiter+"\n"),
	} {
		if section != "" {
			sections = append(sections, section)
		}
	}
	return strings.Join(sections, "\n"+statementDelimiter+"\n")
}

// RenderStatement renders the statement of a problem page, failures are
// rendered in place of the statement so a batch download can go on.
func RenderStatement(doc *goquery.Document) string {
	statement, err := ParseStatement(doc.Find("div.problem-statement"))
	if err != nil {
		return "ERROR: problem statement was not loaded\n" + statementDelimiter + "\n" + err.Error()
	}
	return statement.String()
}

// LoadStatement fetches and renders the statement of one problem.
func (c *Client) LoadStatement(ctx context.Context, problem string) (string, error) {
	locator, err := c.Directory.Resolve(ctx, problem)
	if err != nil {
		return "", err
	}
	doc, err := c.fetchCachedDocument(ctx, locator)
	if err != nil {
		return "", err
	}
	return RenderStatement(doc), nil
}

package contest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"yacontest/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Phase is where a submission is in the judging pipeline.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseTesting
	PhaseFinal
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseTesting:
		return "testing"
	case PhaseFinal:
		return "final"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Outcome refines PhaseFinal.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeAccepted
	OutcomeRejected
	OutcomeCompileError
	OutcomePartialScore
)

var (
	// verdicts that are a prefix of this are still queued
	waitingVerdicts = []string{"Ожидание", "Waiting"}
	// verdicts equal to one of these are being judged
	testingVerdicts = []string{"Тестируется", "Testing"}
	// CE is a compilation error, PCF a precompile check failure
	compileErrorVerdicts = []string{"CE", "PCF"}
)

const acceptedVerdict = "OK"

// ClassifyVerdict maps the verdict text of the status table to a Phase.
func ClassifyVerdict(verdict string) Phase {
	verdict = strings.TrimSpace(verdict)
	for _, v := range testingVerdicts {
		if verdict == v {
			return PhaseTesting
		}
	}
	for _, v := range waitingVerdicts {
		if strings.HasPrefix(verdict, v) {
			return PhaseWaiting
		}
	}
	return PhaseFinal
}

func IsCompileError(verdict string) bool {
	verdict = strings.TrimSpace(verdict)
	for _, v := range compileErrorVerdicts {
		if verdict == v {
			return true
		}
	}
	return false
}

// SolutionStatus is the newest row of a problem's submission table. Test and
// Score are empty when the table shows "-".
type SolutionStatus struct {
	Id      string
	Verdict string
	Time    string
	Memory  string
	Test    string
	Score   string
}

func (s SolutionStatus) Phase() Phase {
	return ClassifyVerdict(s.Verdict)
}

func (s SolutionStatus) IsFinal() bool {
	return s.Phase() == PhaseFinal
}

func (s SolutionStatus) IsTesting() bool {
	return s.Phase() == PhaseTesting
}

func (s SolutionStatus) IsCompileError() bool {
	return IsCompileError(s.Verdict)
}

func (s SolutionStatus) Outcome() Outcome {
	if !s.IsFinal() {
		return OutcomeNone
	}
	switch {
	case s.IsCompileError():
		return OutcomeCompileError
	case strings.TrimSpace(s.Verdict) == acceptedVerdict:
		return OutcomeAccepted
	case s.Score != "":
		return OutcomePartialScore
	}
	return OutcomeRejected
}

func (s SolutionStatus) String() string {
	var out strings.Builder
	fmt.Fprintf(&out, "Solution %s: %s, Time: %s, Mem: %s", s.Id, s.Verdict, s.Time, s.Memory)
	if s.Test != "" {
		if s.IsTesting() {
			fmt.Fprintf(&out, ", Test: %s", s.Test)
		} else {
			fmt.Fprintf(&out, ", Failed test: %s", s.Test)
		}
	}
	if s.Score != "" {
		fmt.Fprintf(&out, ", Score: %s", s.Score)
	}
	return out.String()
}

// status table column titles, in both interface languages
var statusColumns = map[string]func(s *SolutionStatus) *string{
	"ID":      func(s *SolutionStatus) *string { return &s.Id },
	"Вердикт": func(s *SolutionStatus) *string { return &s.Verdict },
	"Verdict": func(s *SolutionStatus) *string { return &s.Verdict },
	"Время":   func(s *SolutionStatus) *string { return &s.Time },
	"Time":    func(s *SolutionStatus) *string { return &s.Time },
	"Память":  func(s *SolutionStatus) *string { return &s.Memory },
	"Memory":  func(s *SolutionStatus) *string { return &s.Memory },
	"Тест":    func(s *SolutionStatus) *string { return &s.Test },
	"Test":    func(s *SolutionStatus) *string { return &s.Test },
	"Баллы":   func(s *SolutionStatus) *string { return &s.Score },
	"Score":   func(s *SolutionStatus) *string { return &s.Score },
}

// ParseStatusTable reads the newest submission from the submission table
// fragment. Columns are matched by header title, not position.
func ParseStatusTable(fragment string) (SolutionStatus, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return SolutionStatus{}, fmt.Errorf("parse status table: %w", err)
	}

	rows := doc.Find("tr")
	if rows.Length() < 2 {
		return SolutionStatus{}, ErrNoSolutions
	}

	headers := []string{}
	rows.First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, htmlutil.CleanText(cell))
	})

	hasVerdict := false
	for _, h := range headers {
		if h == "Вердикт" || h == "Verdict" {
			hasVerdict = true
		}
	}
	if !hasVerdict {
		return SolutionStatus{}, fmt.Errorf("%w: no verdict column in the status table", ErrMalformedPage)
	}

	var out SolutionStatus
	rows.Eq(1).Find("td").Each(func(i int, cell *goquery.Selection) {
		if i >= len(headers) {
			return
		}
		field, ok := statusColumns[headers[i]]
		if !ok {
			return
		}
		value := htmlutil.CleanText(cell)
		if value == "-" {
			value = ""
		}
		*field(&out) = value
	})

	return out, nil
}

// Status fetches the newest submission for a problem.
func (c *Client) Status(ctx context.Context, problem string) (SolutionStatus, error) {
	locator, err := c.Directory.Resolve(ctx, problem)
	if err != nil {
		return SolutionStatus{}, err
	}
	res, err := c.Session.Do(ctx, Request{
		Method: http.MethodGet,
		Url:    locator,
		Query:  url.Values{"ajax": {"submit-table"}},
	})
	if err != nil {
		return SolutionStatus{}, err
	}

	var payload struct {
		Result string `json:"result"`
	}
	err = json.NewDecoder(bytes.NewReader(res.Body())).Decode(&payload)
	if err != nil {
		return SolutionStatus{}, fmt.Errorf("%w: submission table: %w", ErrMalformedPage, err)
	}
	return ParseStatusTable(payload.Result)
}

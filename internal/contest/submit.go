package contest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"yacontest/internal/components/prompt"
	"yacontest/internal/state"
	"yacontest/lib/textutil"
)

const report_submit_report = "submit.report"

type SubmitOptions struct {
	Problem string
	File    string
	// Compiler overrides the preferred compiler saved in the record.
	Compiler string
	// Wait polls until the submission gets a final verdict.
	Wait bool
}

// Submit uploads a solution file for a problem of the active contest.
func (c *Client) Submit(ctx context.Context, opts SubmitOptions) error {
	ctx, span := tracer.Start(ctx, "client:Submit")
	defer span.End()

	content, err := readSolution(opts.File)
	if err != nil {
		return err
	}

	problem := NormalizeProblemId(opts.Problem)
	locator, err := c.Directory.Resolve(ctx, problem)
	if err != nil {
		return err
	}

	doc, err := c.fetchDocument(ctx, Get(locator))
	if err != nil {
		return err
	}
	form, err := ExtractForm(doc)
	if err != nil {
		return err
	}

	preferred := opts.Compiler
	if preferred == "" {
		preferred = c.state.Record().Lang
	}
	err = c.chooseCompiler(&form, preferred)
	if err != nil {
		return err
	}

	res, err := c.Session.Do(ctx, Request{
		Method: http.MethodPost,
		Url:    c.contest.Url("/submit/"),
		Form:   form.Fields,
		Files: []FormFile{{
			Param:   form.FileField,
			Name:    filepath.Base(opts.File),
			Content: content,
		}},
	})
	if err != nil {
		return err
	}
	if msg := FinalUrl(res).Query().Get("error"); msg != "" {
		return fmt.Errorf("%w: %s", ErrSubmissionRejected, msg)
	}
	fmt.Fprintln(c.out, "Uploaded!")

	if !opts.Wait {
		return nil
	}
	fmt.Fprintln(c.out, "Waiting...")

	status, err := c.WaitForVerdict(ctx, problem)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, status)

	if status.IsCompileError() {
		detail, err := c.Report(ctx, status.Id)
		if err != nil {
			c.tel.ReportWarning(report_submit_report, err, status.Id)
			return err
		}
		fmt.Fprintln(c.out, detail)
	}
	return nil
}

// WaitForVerdict polls the newest submission of a problem until it is judged.
func (c *Client) WaitForVerdict(ctx context.Context, problem string) (SolutionStatus, error) {
	poller := Poller{
		Fetch: func(ctx context.Context) (SolutionStatus, error) {
			return c.Status(ctx, problem)
		},
		Clock:    c.clock,
		Out:      c.out,
		Interval: PollInterval,
		Timeout:  c.pollTimeout,
	}
	return poller.Run(ctx)
}

func readSolution(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// chooseCompiler sets the compiler selector of form, from the preferred
// display name when it is offered and by asking the user otherwise.
func (c *Client) chooseCompiler(form *SubmissionForm, preferred string) error {
	if !form.HasCompilerChoice() {
		return nil
	}
	if opt, ok := form.FindCompiler(preferred); ok {
		form.SetCompiler(opt)
		return nil
	}

	names := form.CompilerNames()
	if preferred != "" {
		msg := fmt.Sprintf("Unknown language: %s", preferred)
		if closest, _, ok := textutil.ClosestMatch(preferred, names); ok {
			msg += fmt.Sprintf(" (closest match: %s)", closest)
		}
		fmt.Fprintln(c.out, msg)
	}

	idx, err := c.prompt.Choose("Select a language/compiler", names)
	if err != nil {
		if errors.Is(err, prompt.ErrDeclined) || errors.Is(err, prompt.ErrNotInteractive) {
			return fmt.Errorf("%w: %w", ErrNoCompilerSelected, err)
		}
		return err
	}
	if idx < 0 || idx >= len(form.CompilerOptions) {
		return ErrNoCompilerSelected
	}
	form.SetCompiler(form.CompilerOptions[idx])
	return nil
}

// CompilerOptions returns the compilers offered by the first problem of the
// contest, fixed is true when that problem pins the compiler.
func (c *Client) CompilerOptions(ctx context.Context) (options []CompilerOption, fixed bool, err error) {
	ids, err := c.Directory.Ids(ctx)
	if err != nil {
		return nil, false, err
	}
	locator, err := c.Directory.Resolve(ctx, ids[0])
	if err != nil {
		return nil, false, err
	}
	doc, err := c.fetchDocument(ctx, Get(locator))
	if err != nil {
		return nil, false, err
	}
	form, err := ExtractForm(doc)
	if err != nil {
		return nil, false, err
	}
	if !form.HasCompilerChoice() {
		return nil, true, nil
	}
	return form.CompilerOptions, false, nil
}

// ChoosePreferredCompiler lets the user pick one of the compilers offered by
// the contest and saves the pick. It returns false when the compiler is fixed.
func (c *Client) ChoosePreferredCompiler(ctx context.Context) (string, bool, error) {
	options, fixed, err := c.CompilerOptions(ctx)
	if err != nil {
		return "", false, err
	}
	if fixed || len(options) == 0 {
		return "", false, nil
	}
	names := make([]string, len(options))
	for i, opt := range options {
		names[i] = opt.Name
	}

	idx, err := c.prompt.Choose("Select a language/compiler", names)
	if err != nil {
		return "", false, err
	}
	if idx < 0 || idx >= len(names) {
		return "", false, ErrNoCompilerSelected
	}
	// the record may have changed while fetching (relogin, problem list)
	err = SetPreferredCompiler(ctx, c.state, names[idx])
	if err != nil {
		return "", false, err
	}
	return names[idx], true, nil
}

// SetPreferredCompiler saves name as the compiler picked by default, an empty
// name resets the preference.
func SetPreferredCompiler(ctx context.Context, h *state.Handle, name string) error {
	return h.Update(ctx, func(r *state.Record) {
		r.Lang = textutil.CollapseWhitespace(name)
	})
}

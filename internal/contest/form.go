package contest

import (
	"fmt"
	"strings"

	"yacontest/lib/htmlutil"
	"yacontest/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

type FieldKind int

const (
	// FieldHidden is sent back with the value the page gave it.
	FieldHidden FieldKind = iota
	// FieldSolutionMarker tells the platform the solution is an uploaded file.
	FieldSolutionMarker
	// FieldFileSlot is where the solution file is attached.
	FieldFileSlot
	// FieldFixedCompiler is an input that pins the compiler, the problem has no choice.
	FieldFixedCompiler
	// FieldCompilerSelector is the select listing the available compilers.
	FieldCompilerSelector
	// FieldIgnored is any other select, it is not sent.
	FieldIgnored
)

func (k FieldKind) String() string {
	switch k {
	case FieldHidden:
		return "hidden"
	case FieldSolutionMarker:
		return "solution-marker"
	case FieldFileSlot:
		return "file-slot"
	case FieldFixedCompiler:
		return "fixed-compiler"
	case FieldCompilerSelector:
		return "compiler-selector"
	case FieldIgnored:
		return "ignored"
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// the value the platform expects in the solution marker for file uploads
const solutionFromFile = "file"

// ClassifyField decides what a form control is from its tag and name. Names
// carry generated prefixes so only their suffixes are compared.
func ClassifyField(tag, name string) FieldKind {
	if tag == "select" {
		if strings.HasSuffix(name, "compilerId") {
			return FieldCompilerSelector
		}
		return FieldIgnored
	}

	switch {
	case strings.HasSuffix(name, "solution"):
		return FieldSolutionMarker
	case strings.HasSuffix(name, "compiler"), strings.HasSuffix(name, "compilerId"):
		return FieldFixedCompiler
	case strings.HasSuffix(name, "file"):
		return FieldFileSlot
	}
	return FieldHidden
}

type CompilerOption struct {
	// Name is the display name with whitespace collapsed.
	Name  string
	Value string
}

// SubmissionForm is the submission form of a problem page, ready to be sent
// once a compiler is set and a file is attached.
type SubmissionForm struct {
	// Fields holds every value sent as is: hidden fields, the solution
	// marker and a fixed compiler.
	Fields    map[string]string
	FileField string
	// CompilerField is empty when the compiler is fixed or there is no selector.
	CompilerField   string
	CompilerOptions []CompilerOption
}

// HasCompilerChoice reports whether a compiler has to be picked before submitting.
func (f SubmissionForm) HasCompilerChoice() bool {
	return f.CompilerField != "" && len(f.CompilerOptions) > 0
}

func (f SubmissionForm) CompilerNames() []string {
	names := make([]string, len(f.CompilerOptions))
	for i, opt := range f.CompilerOptions {
		names[i] = opt.Name
	}
	return names
}

// FindCompiler looks an option up by display name, ignoring case and whitespace.
func (f SubmissionForm) FindCompiler(name string) (CompilerOption, bool) {
	if strings.TrimSpace(name) == "" {
		return CompilerOption{}, false
	}
	for _, opt := range f.CompilerOptions {
		if textutil.EqualNames(opt.Name, name) {
			return opt, true
		}
	}
	return CompilerOption{}, false
}

// SetCompiler fills the compiler selector with opt.
func (f *SubmissionForm) SetCompiler(opt CompilerOption) {
	f.Fields[f.CompilerField] = opt.Value
}

// ExtractForm reads the submission form, the last form on a problem page.
func ExtractForm(doc *goquery.Document) (SubmissionForm, error) {
	forms := doc.Find("form")
	if forms.Length() == 0 {
		return SubmissionForm{}, fmt.Errorf("%w: no form on the problem page", ErrMalformedForm)
	}
	form := forms.Last()

	out := SubmissionForm{Fields: map[string]string{}}
	fixedCompiler := false

	form.Find("input").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		switch ClassifyField("input", name) {
		case FieldSolutionMarker:
			out.Fields[name] = solutionFromFile
		case FieldFixedCompiler:
			out.Fields[name] = input.AttrOr("value", "")
			fixedCompiler = true
		case FieldFileSlot:
			out.FileField = name
		default:
			out.Fields[name] = input.AttrOr("value", "")
		}
	})

	if out.FileField == "" {
		return SubmissionForm{}, fmt.Errorf("%w: could not find the file field", ErrMalformedForm)
	}
	if fixedCompiler {
		return out, nil
	}

	form.Find("select").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		name := sel.AttrOr("name", "")
		if ClassifyField("select", name) != FieldCompilerSelector {
			return true
		}
		out.CompilerField = name
		sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
			display := htmlutil.CleanText(opt)
			out.CompilerOptions = append(out.CompilerOptions, CompilerOption{
				Name:  display,
				Value: opt.AttrOr("value", display),
			})
		})
		return false
	})

	return out, nil
}

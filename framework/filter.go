package framework

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Filter decides whether a case should be registered. It receives the case ID (see CaseID).
type Filter func(id string) bool

// CaseID is the string that filters match against: "section/name", or just the name for a case
// outside any section.
func CaseID(section, name string) string {
	if section == "" {
		return name
	}
	return section + "/" + name
}

type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

func (r RegexFilters) IsDefined() bool {
	return r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined()
}

func (r RegexFilters) AsFilter(id string) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(id)) &&
		!r.MustNotMatch.AnyMatch(id)
}

// Describe writes a short explanation of the active filters, or nothing if there are none.
func (r RegexFilters) Describe(output io.Writer) {
	if !r.IsDefined() {
		return
	}
	fmt.Fprintln(output, "Some cases will not be registered based on the filter criteria for this run:")
	if r.MustMatch.IsDefined() {
		fmt.Fprintf(output, "  skip any not matching %s\n", &r.MustMatch)
	}
	if r.MustNotMatch.IsDefined() {
		fmt.Fprintf(output, "  skip any matching %s\n", &r.MustNotMatch)
	}
	fmt.Fprintln(output)
}

// RegexList is a repeatable command-line value; it satisfies pflag.Value.
type RegexList struct {
	patterns []*regexp.Regexp
}

func (r *RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

func (r *RegexList) Type() string { return "regex" }

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

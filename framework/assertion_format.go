package framework

import (
	"regexp"
	"strings"
)

var labeledLineRegex = regexp.MustCompile(`^\t([A-Za-z ]+):\s*\t(.*)$`)

// reformatAssertion condenses the labeled block that testify passes to Errorf ("Error Trace:",
// "Error:", "Messages:") into the error text plus any user message. The stack trace is dropped.
// Text that is not in that format is returned unchanged.
func reformatAssertion(s string) string {
	if !strings.Contains(s, "\tError:") {
		return s
	}
	sections := make(map[string][]string)
	current := ""
	for _, line := range strings.Split(s, "\n") {
		if m := labeledLineRegex.FindStringSubmatch(line); m != nil {
			current = m[1]
			sections[current] = append(sections[current], strings.TrimRight(m[2], " "))
			continue
		}
		if current != "" && strings.HasPrefix(line, "\t") {
			sections[current] = append(sections[current], strings.TrimSpace(line))
		}
	}
	errorText := strings.TrimSpace(strings.Join(sections["Error"], "\n"))
	if errorText == "" {
		return s
	}
	if messages := strings.TrimSpace(strings.Join(sections["Messages"], "\n")); messages != "" {
		return messages + "\n" + errorText
	}
	return errorText
}

package client

import (
	"net/http"
	"sort"
	"strings"

	"github.com/alessio/shellescape"
)

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// CurlCommand returns a shell command line that repeats the given request.
func CurlCommand(method, url string, header http.Header, body []byte) string {
	var cmd commandBuilder
	cmd.add("curl", "-sS", "-X", method)
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range header[name] {
			cmd.add("-H", name+": "+value)
		}
	}
	if body != nil {
		cmd.add("--data-raw", string(body))
	}
	cmd.add(url)
	return cmd.String()
}

package servicedef

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
)

// ExtractSSEPayload returns the data of the first event in a text/event-stream body that parses
// as a JSON-RPC response carrying the given id. Events with other ids are skipped.
func ExtractSSEPayload(body []byte, id int64) ([]byte, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var data []string
	var first []byte
	flush := func() []byte {
		if len(data) == 0 {
			return nil
		}
		payload := []byte(strings.Join(data, "\n"))
		data = data[:0]
		if first == nil {
			first = payload
		}
		if r, err := ParseResponse(payload); err == nil {
			if got, ok := r.IDInt(); ok && got == id {
				return payload
			}
		}
		return nil
	}
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			if p := flush(); p != nil {
				return p, nil
			}
			continue
		}
		if strings.HasPrefix(line, "data:") {
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if p := flush(); p != nil {
		return p, nil
	}
	if first != nil {
		// No id matched; hand back the first event so the caller reports what the server sent.
		return first, nil
	}
	return nil, errors.New("event stream contained no data")
}

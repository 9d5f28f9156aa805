package api

import (
	"bufio"
	"io"
	"strings"
)

const maxSSELine = 1 << 20

// sseEvent is one dispatched server-sent event.
type sseEvent struct {
	Event string
	Data  string
}

// readSSE parses an event stream and calls emit for each complete event.
// Multiple data lines are joined with "\n"; comment lines are skipped.
// Parsing stops when emit returns false or the reader ends. An event still
// pending at EOF was never terminated by a blank line and is discarded.
func readSSE(r io.Reader, emit func(sseEvent) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	var (
		event string
		data  []string
	)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if line == "" {
			if len(data) > 0 {
				if !emit(sseEvent{Event: event, Data: strings.Join(data, "\n")}) {
					return nil
				}
			}
			event, data = "", nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			data = append(data, value)
		}
	}
	return scanner.Err()
}

package engine

import (
	"net/http"
	"strings"
)

// List is an ordered list of raw request header lines such as
// "Accept: text/plain". A line of the form "Name:" removes the header,
// and "Name;" sends it with an empty value.
//
// A List is attached to one transfer and must be freed once that transfer
// returns; a freed List applies nothing.
type List struct {
	lines []string
	freed bool
}

// Append adds line and returns l. A nil l starts a new List.
func (l *List) Append(line string) *List {
	if l == nil {
		l = &List{}
	}
	l.lines = append(l.lines, line)

	return l
}

// Len reports the number of lines.
func (l *List) Len() int {
	if l == nil || l.freed {
		return 0
	}

	return len(l.lines)
}

// Free releases the lines.
func (l *List) Free() {
	if l == nil {
		return
	}
	l.lines = nil
	l.freed = true
}

func (l *List) apply(h http.Header) {
	if l == nil || l.freed {
		return
	}

	for _, line := range l.lines {
		if name, ok := strings.CutSuffix(line, ";"); ok && !strings.Contains(name, ":") {
			h[http.CanonicalHeaderKey(strings.TrimSpace(name))] = []string{""}
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		value = strings.TrimSpace(value)
		if value == "" {
			h.Del(name)
			continue
		}
		h.Add(name, value)
	}
}

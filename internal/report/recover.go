package report

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/brogergvhs/genrescrape/internal/genrecache"
)

var lineRe = regexp.MustCompile(`^\* (.*) \(\[#(\d+)\]\((.*)\)\)`)

// Line is one genre entry of a report.
type Line struct {
	Number int
	Title  string
	URL    string
}

// ParseLine reports whether s is a genre entry. Text after the closing
// parenthesis is ignored.
func ParseLine(s string) (Line, bool) {
	m := lineRe.FindStringSubmatch(s)
	if m == nil {
		return Line{}, false
	}

	n, err := strconv.Atoi(m[2])
	if err != nil {
		return Line{}, false
	}

	return Line{Number: n, Title: m[1], URL: m[3]}, true
}

type Setter interface {
	Set(key string, e *genrecache.Entry) error
}

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
}

// Recover stores every genre entry found in r and returns how many were
// written. Lines that are not entries are skipped.
func Recover(r io.Reader, store Setter, log Logger) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	count := 0
	for lineNo := 1; sc.Scan(); lineNo++ {
		line, ok := ParseLine(sc.Text())
		if !ok {
			continue
		}
		if log != nil {
			log.Debugf("Found entry %d %q %s", line.Number, line.Title, line.URL)
		}

		entry := &genrecache.Entry{Title: line.Title, URL: line.URL}
		if err := store.Set(genrecache.Key(line.Number), entry); err != nil {
			return count, fmt.Errorf("line %d: %w", lineNo, err)
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return count, fmt.Errorf("read report: %w", err)
	}

	return count, nil
}

package player

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cue is one subtitle entry with its display window.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Matches both SRT ("00:00:01,000") and VTT ("00:00:01.000") timestamp lines.
var timeLineRe = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}[.,]\d{3})\s+-->\s+(\d{2}:\d{2}:\d{2}[.,]\d{3})`)

var tagRe = regexp.MustCompile(`<[^>]*>`)

// ParseFile loads cues from an .srt or .vtt file.
func ParseFile(path string) ([]Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt", ".vtt":
		return Parse(f)
	default:
		return nil, fmt.Errorf("unsupported subtitle format %q (use .srt or .vtt)", filepath.Ext(path))
	}
}

// Parse reads SRT or VTT cues; the two formats differ only in header and
// timestamp decimal separator for our purposes.
func Parse(r io.Reader) ([]Cue, error) {
	var cues []Cue
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		m := timeLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start, err1 := parseTimestamp(m[1])
		end, err2 := parseTimestamp(m[2])
		if err1 != nil || err2 != nil {
			continue
		}

		var textLines []string
		for scanner.Scan() {
			textLine := strings.TrimSpace(scanner.Text())
			if textLine == "" {
				break
			}
			clean := tagRe.ReplaceAllString(textLine, "")
			if clean != "" {
				textLines = append(textLines, clean)
			}
		}
		if len(textLines) > 0 {
			cues = append(cues, Cue{
				Start: start,
				End:   end,
				Text:  strings.Join(textLines, "\n"),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.Slice(cues, func(i, j int) bool { return cues[i].Start < cues[j].Start })
	return cues, nil
}

func parseTimestamp(s string) (time.Duration, error) {
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second)), nil
}

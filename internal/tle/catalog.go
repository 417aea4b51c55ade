package tle

import (
	"fmt"
	"os"
	"strings"

	"github.com/sentinelspace/platform/pkg/models"
)

// Warning describes a non-fatal issue encountered while parsing a batch of
// TLEs: a checksum mismatch or a skipped malformed record. Callers log these
// through their own logger rather than have this package depend on one.
type Warning struct {
	CatalogName string
	Line        int // 0 if the record was skipped entirely, else 1 or 2
	Message     string
}

func (w Warning) String() string {
	if w.Line == 0 {
		return fmt.Sprintf("tle: skipped record %q: %s", w.CatalogName, w.Message)
	}
	return fmt.Sprintf("tle: checksum failed on line %d for %q", w.Line, w.CatalogName)
}

// ParseText parses every TLE record out of raw text, handling both the
// 2-line (no name) and 3-line (name + 2 lines) formats. Malformed records
// are skipped and reported as warnings rather than aborting the whole batch;
// checksum failures are reported as warnings but do not block the record.
func ParseText(text string) ([]models.ElementSet, []Warning) {
	var rawLines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			rawLines = append(rawLines, line)
		}
	}

	var elements []models.ElementSet
	var warnings []Warning

	i := 0
	for i < len(rawLines) {
		switch {
		case strings.HasPrefix(rawLines[i], "1 ") && len(rawLines[i]) >= 69:
			if i+1 < len(rawLines) && strings.HasPrefix(rawLines[i+1], "2 ") {
				catNum := strings.TrimSpace(rawLines[i][2:7])
				name := "SAT-" + catNum
				elem, ck1, ck2, err := ParseLines(name, rawLines[i], rawLines[i+1])
				if err != nil {
					warnings = append(warnings, Warning{CatalogName: name, Message: err.Error()})
				} else {
					if !ck1 {
						warnings = append(warnings, Warning{CatalogName: name, Line: 1})
					}
					if !ck2 {
						warnings = append(warnings, Warning{CatalogName: name, Line: 2})
					}
					elements = append(elements, elem)
				}
				i += 2
			} else {
				i++
			}
		case i+2 < len(rawLines) && strings.HasPrefix(rawLines[i+1], "1 ") && strings.HasPrefix(rawLines[i+2], "2 "):
			name := strings.TrimSpace(rawLines[i])
			elem, ck1, ck2, err := ParseLines(name, rawLines[i+1], rawLines[i+2])
			if err != nil {
				warnings = append(warnings, Warning{CatalogName: name, Message: err.Error()})
			} else {
				if !ck1 {
					warnings = append(warnings, Warning{CatalogName: name, Line: 1})
				}
				if !ck2 {
					warnings = append(warnings, Warning{CatalogName: name, Line: 2})
				}
				elements = append(elements, elem)
			}
			i += 3
		default:
			i++
		}
	}

	return elements, warnings
}

// LoadFile parses every TLE record found in a local file.
func LoadFile(path string) ([]models.ElementSet, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("tle: reading catalog file: %w", err)
	}
	elements, warnings := ParseText(string(data))
	return elements, warnings, nil
}

// NewSnapshot is a thin convenience wrapper building an immutable
// models.CatalogSnapshot directly from parsed elements.
func NewSnapshot(elements []models.ElementSet) *models.CatalogSnapshot {
	return models.NewCatalogSnapshot(elements)
}

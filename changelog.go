package sss

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// SearchHeader opens a block of search results.
func SearchHeader(patternRLE string, generations int, rule string, seed int64) string {
	return fmt.Sprintf("# Search results matching pattern %s for %d gen in rule %s with seed=%d", patternRLE, generations, rule, seed)
}

// UpdateSummary is the headline of an update run.
func UpdateSummary(newSpeeds, improvedSpeeds, ships int) string {
	return fmt.Sprintf("5S collection updated - %d new and %d improved speeds out of %d ships.", newSpeeds, improvedSpeeds, ships)
}

func formatSpeeds(speeds []Speed) string {
	parts := make([]string, len(speeds))
	for i, sp := range speeds {
		parts[i] = sp.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// CollectionChanges lists the new and improved speeds of one collection, or
// returns "" when nothing changed.
func CollectionChanges(kind Kind, r MergeResult) string {
	if !r.Changed() {
		return ""
	}
	name := kind.String()
	return fmt.Sprintf("# %s%s speeds updated:\n# %s\n# %s\n",
		strings.ToUpper(name[:1]), name[1:], formatSpeeds(r.New), formatSpeeds(r.Improved))
}

// Changelog collects the text appended to a results file by one run.
type Changelog struct {
	lines []string
}

func (c *Changelog) Comment(format string, args ...any) {
	c.lines = append(c.lines, "# "+fmt.Sprintf(format, args...))
}

func (c *Changelog) Raw(text string) {
	c.lines = append(c.lines, strings.TrimRight(text, "\n"))
}

func (c *Changelog) Ship(s *Ship) {
	c.lines = append(c.lines, s.String())
}

func (c *Changelog) Empty() bool {
	return len(c.lines) == 0
}

func (c *Changelog) String() string {
	if len(c.lines) == 0 {
		return ""
	}
	return strings.Join(c.lines, "\n") + "\n"
}

// AppendTo appends the changelog to path with a timestamp line.
func (c *Changelog) AppendTo(path string, now time.Time) error {
	if c.Empty() {
		return nil
	}
	return AppendLines(path, "", "# "+now.UTC().Format(time.RFC3339), strings.TrimSuffix(c.String(), "\n"))
}

// AppendLines appends each line to path, creating it when needed.
func AppendLines(path string, lines ...string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: Failed to open %s: %v", ErrPersistenceFailure, path, err)
	}
	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("%w: Failed to append to %s: %v", ErrPersistenceFailure, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: Failed to close %s: %v", ErrPersistenceFailure, path, err)
	}
	return nil
}

package sss

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/sirupsen/logrus"
)

type docLine struct {
	text string
	ship *Ship
}

// Document is an sss file. Lines that are not ship records keep their
// position when the document is written back.
type Document struct {
	Path  string
	lines []docLine
}

// LoadDocument reads path. A missing file yields an empty document.
func LoadDocument(path string, log logrus.FieldLogger) (*Document, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Document{Path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Failed to open %s: %v", ErrPersistenceFailure, path, err)
	}
	defer f.Close()

	doc, err := ParseDocument(f, log)
	if err != nil {
		return nil, fmt.Errorf("%w: Failed to read %s: %v", ErrPersistenceFailure, path, err)
	}
	doc.Path = path
	return doc, nil
}

func ParseDocument(r io.Reader, log logrus.FieldLogger) (*Document, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	doc := &Document{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), "\r")
		ship, err := ParseShip(line)
		if err != nil {
			if trimmed := strings.TrimSpace(line); trimmed != "" && trimmed[0] != '#' {
				log.WithError(err).WithField("line", n).Warn("Keeping unrecognised line as text")
			}
			doc.lines = append(doc.lines, docLine{text: line})
			continue
		}
		doc.lines = append(doc.lines, docLine{ship: ship})
	}
	return doc, scanner.Err()
}

// Ships lists the records in file order.
func (d *Document) Ships() []*Ship {
	var out []*Ship
	for _, l := range d.lines {
		if l.ship != nil {
			out = append(out, l.ship)
		}
	}
	return out
}

// Render fills the record slots with ships in order. Ships beyond the last
// slot follow it; slots left over are dropped.
func (d *Document) Render(ships []*Ship) string {
	var sb strings.Builder
	last := -1
	for i, l := range d.lines {
		if l.ship != nil {
			last = i
		}
	}
	next := 0
	emitRest := func() {
		for ; next < len(ships); next++ {
			sb.WriteString(ships[next].String())
			sb.WriteByte('\n')
		}
	}
	for i, l := range d.lines {
		if l.ship == nil {
			sb.WriteString(l.text)
			sb.WriteByte('\n')
		} else if next < len(ships) {
			sb.WriteString(ships[next].String())
			sb.WriteByte('\n')
			next++
		}
		if i == last {
			emitRest()
		}
	}
	emitRest()
	return sb.String()
}

// SaveAtomic replaces Path with the rendered document. Readers see either
// the old or the new file.
func (d *Document) SaveAtomic(ships []*Ship) error {
	if err := renameio.WriteFile(d.Path, []byte(d.Render(ships)), 0o644); err != nil {
		return fmt.Errorf("%w: Failed to replace %s: %v", ErrPersistenceFailure, d.Path, err)
	}
	return nil
}

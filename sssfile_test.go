package sss

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	test "testing"
	"time"
)

const sampleDocument = `# Orthogonal ships
# minpop, rule, dx, dy, period, rle

4, B3/S23, 1, 0, 4, 2o$2o!
6, B3/S23, 2, 0, 5, 3o$3o!
# trailer
`

func TestParseDocument(t *test.T) {
	doc, err := ParseDocument(strings.NewReader(sampleDocument), quietLogger())
	if err != nil {
		t.Fatalf("Unexpected error parsing document: %v", err)
	}
	ships := doc.Ships()
	if len(ships) != 2 {
		t.Fatalf("Document holds %d ships, expected 2", len(ships))
	}
	if ships[1].Speed() != (Speed{2, 0, 5}) {
		t.Errorf("Second ship speed %s isn't (2, 0, 5)", ships[1].Speed())
	}
	if out := doc.Render(ships); out != sampleDocument {
		t.Errorf("Rendering unchanged ships altered the document:\n%s", out)
	}
}

func TestRenderExtraShips(t *test.T) {
	doc, _ := ParseDocument(strings.NewReader(sampleDocument), quietLogger())
	ships := append(doc.Ships(), &Ship{MinPop: 9, Rule: "B3/S23", DX: 2, DY: 0, Period: 4, RLE: "b4o$o3bo$4bo$o2bo!"})
	out := doc.Render(ships)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if lines[len(lines)-1] != "# trailer" {
		t.Errorf("Trailer moved: %q", lines[len(lines)-1])
	}
	if lines[len(lines)-2] != "9, B3/S23, 2, 0, 4, b4o$o3bo$4bo$o2bo!" {
		t.Errorf("Extra ship not written after the last record: %q", lines[len(lines)-2])
	}

	empty, _ := ParseDocument(strings.NewReader("# header only\n"), quietLogger())
	if out := empty.Render(ships[:1]); out != "# header only\n4, B3/S23, 1, 0, 4, 2o$2o!\n" {
		t.Errorf("Header only document rendered as %q", out)
	}
}

func TestParseDocumentKeepsMalformedLines(t *test.T) {
	doc, _ := ParseDocument(strings.NewReader("5, B3/S23, 1, 1\nnot a ship\n"), quietLogger())
	if len(doc.Ships()) != 0 {
		t.Errorf("Malformed lines parsed as ships")
	}
	if out := doc.Render(nil); out != "5, B3/S23, 1, 1\nnot a ship\n" {
		t.Errorf("Malformed lines not preserved: %q", out)
	}
}

func TestSaveAtomic(t *test.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Orthogonal ships.sss.txt")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	doc, err := LoadDocument(path, quietLogger())
	if err != nil {
		t.Fatalf("Unexpected error loading document: %v", err)
	}
	ships := doc.Ships()
	ships[0].MinPop = 3
	if err := doc.SaveAtomic(ships); err != nil {
		t.Fatalf("Unexpected error saving document: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "3, B3/S23, 1, 0, 4, 2o$2o!\n") {
		t.Errorf("Saved document missing the updated ship:\n%s", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Temporary files left behind: %d entries", len(entries))
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat saved document: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("Saved document mode %v, expected 0644", info.Mode().Perm())
	}
}

func TestSaveAtomicUnwritableDir(t *test.T) {
	doc := &Document{Path: filepath.Join(t.TempDir(), "missing", "Oblique ships.sss.txt")}
	if err := doc.SaveAtomic(nil); !errors.Is(err, ErrPersistenceFailure) {
		t.Errorf("Expected ErrPersistenceFailure, got %v", err)
	}
}

func TestLoadMissingDocument(t *test.T) {
	doc, err := LoadDocument(filepath.Join(t.TempDir(), "missing.sss.txt"), quietLogger())
	if err != nil {
		t.Fatalf("Missing file returned %v", err)
	}
	if len(doc.Ships()) != 0 {
		t.Errorf("Missing file produced ships")
	}
}

func TestChangelog(t *test.T) {
	if got := UpdateSummary(2, 1, 10); got != "5S collection updated - 2 new and 1 improved speeds out of 10 ships." {
		t.Errorf("Unexpected summary %q", got)
	}
	if got := SearchHeader("bo$2bo$3o!", 4, "B3/S23", 1); got != "# Search results matching pattern bo$2bo$3o! for 4 gen in rule B3/S23 with seed=1" {
		t.Errorf("Unexpected header %q", got)
	}

	changes := CollectionChanges(KindOrthogonal, MergeResult{New: []Speed{{1, 0, 4}}})
	if changes != "# Orthogonal speeds updated:\n# [(1, 0, 4)]\n# []\n" {
		t.Errorf("Unexpected collection changes %q", changes)
	}
	if CollectionChanges(KindDiagonal, MergeResult{}) != "" {
		t.Errorf("Unchanged collection produced text")
	}

	var log Changelog
	path := filepath.Join(t.TempDir(), "Updated ships.sss.txt")
	if err := log.AppendTo(path, time.Now()); err != nil {
		t.Errorf("Empty changelog returned %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Empty changelog created a file")
	}

	log.Comment("%s", UpdateSummary(1, 0, 1))
	log.Raw(changes)
	log.Ship(&Ship{MinPop: 4, Rule: "B3/S23", DX: 1, DY: 0, Period: 4, RLE: "2o$2o!"})
	for i := 0; i < 2; i++ {
		if err := log.AppendTo(path, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)); err != nil {
			t.Fatalf("Unexpected error appending: %v", err)
		}
	}
	data, _ := os.ReadFile(path)
	if strings.Count(string(data), "# 2024-01-02T03:04:05Z\n") != 2 {
		t.Errorf("Changelog not appended twice:\n%s", data)
	}
	if !strings.Contains(string(data), "\n4, B3/S23, 1, 0, 4, 2o$2o!\n") {
		t.Errorf("Changelog missing the ship record:\n%s", data)
	}
}

package sss

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	test "testing"
	"time"
)

const updateInbox = `5, B3/S23, 1, 1, 4, bo$2bo$3o!
x = 5, y = 4, rule = B3/S23
bo2bo$o4b$o3bo$4o!
x = 3, y = 1
3o!
`

func makeUpdater(t *test.T, dir string) *Updater {
	t.Helper()
	u := NewUpdater(&UpdateConfig{
		Collections: []CollectionFile{
			{Kind: "o", Path: filepath.Join(dir, "Orthogonal ships.sss.txt")},
			{Kind: "d", Path: filepath.Join(dir, "Diagonal ships.sss.txt")},
			{Kind: "k", Path: filepath.Join(dir, "Oblique ships.sss.txt")},
		},
		ChangelogFile:  filepath.Join(dir, "Updated ships.sss.txt"),
		MaxGenerations: DefaultAnalyzeMaxGen,
		Write:          true,
	}, quietLogger())
	u.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return u
}

func putFile(t *test.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func readFile(t *test.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestUpdateCollections(t *test.T) {
	dir := t.TempDir()
	u := makeUpdater(t, dir)
	putFile(t, u.Config.Collections[0].Path, "# Orthogonal ships\n10, B3/S23, 2, 0, 4, bo2bo$o4b$o3bo$4o!\n")

	report, err := u.UpdateFrom(context.Background(), strings.NewReader(updateInbox))
	if err != nil {
		t.Fatalf("Unexpected error updating: %v", err)
	}
	if report.Summary() != "5S collection updated - 1 new and 1 improved speeds out of 3 ships." {
		t.Errorf("Unexpected summary %q", report.Summary())
	}

	if got := readFile(t, u.Config.Collections[0].Path); got != "# Orthogonal ships\n9, B3aij/S2eik3aijnr, 2, 0, 4, b4o$o3bo$4bo$o2bo!\n" {
		t.Errorf("Orthogonal collection is\n%s", got)
	}
	if got := readFile(t, u.Config.Collections[1].Path); got != "5, B3aijn/S2ae3jnr, 1, 1, 4, 2bo$obo$b2o!\n" {
		t.Errorf("Diagonal collection is\n%s", got)
	}
	if _, err := os.Stat(u.Config.Collections[2].Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Unchanged oblique collection was written")
	}

	want := `
# 2024-01-02T03:04:05Z
# 5S collection updated - 1 new and 1 improved speeds out of 3 ships.
# Orthogonal speeds updated:
# []
# [(2, 0, 4)]
# Diagonal speeds updated:
# [(1, 1, 4)]
# []
9, B3aij/S2eik3aijnr, 2, 0, 4, b4o$o3bo$4bo$o2bo!
5, B3aijn/S2ae3jnr, 1, 1, 4, 2bo$obo$b2o!
`
	if got := readFile(t, u.Config.ChangelogFile); got != want {
		t.Errorf("Changelog is\n%s\nexpected\n%s", got, want)
	}
}

func TestUpdateNothingChanged(t *test.T) {
	dir := t.TempDir()
	u := makeUpdater(t, dir)
	putFile(t, u.Config.Collections[1].Path, "5, B3aijn/S2ae3jnr, 1, 1, 4, 2bo$obo$b2o!\n")

	report, err := u.UpdateFrom(context.Background(), strings.NewReader("5, B3/S23, 1, 1, 4, bo$2bo$3o!\n"))
	if err != nil {
		t.Fatalf("Unexpected error updating: %v", err)
	}
	if n, i := report.Counts(); n != 0 || i != 0 {
		t.Errorf("Counted %d new and %d improved speeds", n, i)
	}
	if _, err := os.Stat(u.Config.ChangelogFile); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Changelog written without changes")
	}
}

func TestUpdateDryRun(t *test.T) {
	dir := t.TempDir()
	u := makeUpdater(t, dir)
	u.Config.Write = false

	if _, err := u.UpdateFrom(context.Background(), strings.NewReader(updateInbox)); err != nil {
		t.Fatalf("Unexpected error updating: %v", err)
	}
	if _, err := os.Stat(u.Config.Collections[1].Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Collection written without write enabled")
	}
	if !strings.Contains(readFile(t, u.Config.ChangelogFile), "# Diagonal speeds updated:") {
		t.Errorf("Changelog missing for a dry run")
	}
}

func TestUpdateKeepsSiblingsOnFailure(t *test.T) {
	dir := t.TempDir()
	u := makeUpdater(t, dir)
	// a directory can be opened but not read as a collection
	if err := os.Mkdir(u.Config.Collections[0].Path, 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	report, err := u.UpdateFrom(context.Background(), strings.NewReader(updateInbox))
	if !errors.Is(err, ErrPersistenceFailure) {
		t.Fatalf("Expected a persistence failure, got %v", err)
	}
	if report == nil || report.Collections[0].Err == nil || report.Collections[1].Err != nil {
		t.Fatalf("Failure not reported against the orthogonal collection")
	}
	if got := readFile(t, u.Config.Collections[1].Path); got != "5, B3aijn/S2ae3jnr, 1, 1, 4, 2bo$obo$b2o!\n" {
		t.Errorf("Diagonal collection is\n%s", got)
	}
	if !strings.Contains(readFile(t, u.Config.ChangelogFile), "5, B3aijn/S2ae3jnr, 1, 1, 4, 2bo$obo$b2o!\n") {
		t.Errorf("Changelog lost the diagonal update")
	}
}

func TestUpdateRejectsBadCollection(t *test.T) {
	u := NewUpdater(&UpdateConfig{Collections: []CollectionFile{{Kind: "p", Path: "osc.txt"}}}, quietLogger())
	if _, err := u.Update(context.Background(), nil); err == nil {
		t.Errorf("Expected an error for an oscillator collection")
	}
	u.Config.Collections[0].Kind = "x"
	if _, err := u.Update(context.Background(), nil); err == nil {
		t.Errorf("Expected an error for an unknown kind")
	}
}

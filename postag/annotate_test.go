package postag

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/YuminosukeSato/tagtext/pkg/log"
)

func writeSplit(t *testing.T, dir, split, content string) string {
	t.Helper()
	path := filepath.Join(dir, split+"_data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "train_data.csv", want: "train"},
		{path: "/data/dev_data.csv", want: "dev"},
		{path: "./some/dir/test_data.csv", want: "test"},
	}
	for _, tt := range tests {
		if got := SplitName(tt.path); got != tt.want {
			t.Errorf("SplitName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestProcessSplitWritesAnnotations(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeSplit(t, dir, "train", "text,label\ngood movie,1\nbad movie,0\nok movie,2\n")

	a := NewAnnotator(log.NewTestLogger(log.LevelInfo))
	processed, skipped, err := a.ProcessSplit(csvPath, dir)
	if err != nil {
		t.Fatalf("ProcessSplit: %v", err)
	}
	if processed != 3 || skipped != 0 {
		t.Errorf("processed/skipped = %d/%d, want 3/0", processed, skipped)
	}

	// Position file: index-keyed, 0-based positions per token.
	posData, err := os.ReadFile(filepath.Join(dir, "train_pos.json"))
	if err != nil {
		t.Fatalf("read pos json: %v", err)
	}
	var positions map[string][]int
	if err := json.Unmarshal(posData, &positions); err != nil {
		t.Fatalf("parse pos json: %v", err)
	}
	if len(positions) != 3 {
		t.Fatalf("positions has %d rows, want 3", len(positions))
	}
	if got := positions["0"]; len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("positions[0] = %v, want [0 1]", got)
	}

	// Tag file: one tag per token, same lengths as positions.
	tagData, err := os.ReadFile(filepath.Join(dir, "train_postag.json"))
	if err != nil {
		t.Fatalf("read postag json: %v", err)
	}
	var tags map[string][]string
	if err := json.Unmarshal(tagData, &tags); err != nil {
		t.Fatalf("parse postag json: %v", err)
	}
	for key, rowTags := range tags {
		if len(rowTags) != len(positions[key]) {
			t.Errorf("row %s: %d tags vs %d positions", key, len(rowTags), len(positions[key]))
		}
	}

	if a.MaxPos() != 1 {
		t.Errorf("MaxPos = %d, want 1 (two-token rows)", a.MaxPos())
	}
}

func TestProcessSplitSkipsUntaggableRows(t *testing.T) {
	dir := t.TempDir()
	// Second row is whitespace only: tagging fails, row is skipped.
	csvPath := writeSplit(t, dir, "dev", "text,label\ngood movie,1\n   ,0\nok movie,2\n")

	a := NewAnnotator(log.NewTestLogger(log.LevelInfo))
	processed, skipped, err := a.ProcessSplit(csvPath, dir)
	if err != nil {
		t.Fatalf("ProcessSplit: %v", err)
	}
	if processed != 2 || skipped != 1 {
		t.Errorf("processed/skipped = %d/%d, want 2/1", processed, skipped)
	}

	data, err := os.ReadFile(filepath.Join(dir, "dev_postag.json"))
	if err != nil {
		t.Fatalf("read postag json: %v", err)
	}
	var tags map[string][]string
	if err := json.Unmarshal(data, &tags); err != nil {
		t.Fatalf("parse postag json: %v", err)
	}
	if _, ok := tags["1"]; ok {
		t.Error("skipped row 1 must not appear in the annotation file")
	}
	if _, ok := tags["0"]; !ok {
		t.Error("row 0 missing from annotation file")
	}
	if _, ok := tags["2"]; !ok {
		t.Error("row 2 missing despite a skipped earlier row")
	}
}

func TestWriteVocabs(t *testing.T) {
	dir := t.TempDir()
	writeSplit(t, dir, "train", "text,label\nthe movie was good,1\n")
	writeSplit(t, dir, "dev", "text,label\nbad movie,0\n")

	a := NewAnnotator(log.NewTestLogger(log.LevelInfo))
	for _, split := range []string{"train", "dev"} {
		if _, _, err := a.ProcessSplit(filepath.Join(dir, split+"_data.csv"), dir); err != nil {
			t.Fatalf("ProcessSplit(%s): %v", split, err)
		}
	}
	if err := a.WriteVocabs(dir); err != nil {
		t.Fatalf("WriteVocabs: %v", err)
	}

	// Position vocabulary: 0..maxPos, one per line.
	posData, err := os.ReadFile(filepath.Join(dir, "pos_vocab.txt"))
	if err != nil {
		t.Fatalf("read pos vocab: %v", err)
	}
	lines := strings.Split(string(posData), "\n")
	if len(lines) != a.MaxPos()+1 {
		t.Errorf("pos vocab has %d lines, want %d", len(lines), a.MaxPos()+1)
	}
	if lines[0] != "0" {
		t.Errorf("first position = %q, want 0", lines[0])
	}

	// Tag vocabulary: sorted, unique, contains markers and all seen tags.
	tagData, err := os.ReadFile(filepath.Join(dir, "postag_vocab.txt"))
	if err != nil {
		t.Fatalf("read tag vocab: %v", err)
	}
	tags := strings.Split(string(tagData), "\n")
	if !sort.StringsAreSorted(tags) {
		t.Errorf("tag vocabulary not sorted: %v", tags)
	}
	seen := make(map[string]bool)
	for _, tag := range tags {
		if seen[tag] {
			t.Errorf("duplicate tag %q", tag)
		}
		seen[tag] = true
	}
	for _, want := range []string{PadTag, UnkTag, "DT", "VBD", "NN"} {
		if !seen[want] {
			t.Errorf("tag vocabulary missing %q: %v", want, tags)
		}
	}
}

func TestAnnotatorAccumulatesAcrossSplits(t *testing.T) {
	dir := t.TempDir()
	writeSplit(t, dir, "train", "text,label\ngood movie,1\n")
	writeSplit(t, dir, "test", "text,label\na very long sentence with many words here,0\n")

	a := NewAnnotator(log.NewTestLogger(log.LevelInfo))
	if _, _, err := a.ProcessSplit(filepath.Join(dir, "train_data.csv"), dir); err != nil {
		t.Fatalf("ProcessSplit(train): %v", err)
	}
	shortMax := a.MaxPos()
	if _, _, err := a.ProcessSplit(filepath.Join(dir, "test_data.csv"), dir); err != nil {
		t.Fatalf("ProcessSplit(test): %v", err)
	}
	if a.MaxPos() <= shortMax {
		t.Errorf("MaxPos = %d, want growth past %d after longer split", a.MaxPos(), shortMax)
	}
}

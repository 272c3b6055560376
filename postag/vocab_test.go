package postag

import (
	"os"
	"path/filepath"
	"testing"
)

func testTagVocab(t *testing.T) *TagVocab {
	t.Helper()
	v, err := NewTagVocab([]string{PadTag, UnkTag, "DT", "NN", "VBD"})
	if err != nil {
		t.Fatalf("NewTagVocab: %v", err)
	}
	return v
}

func TestTagVocabLookup(t *testing.T) {
	v := testTagVocab(t)

	if v.Len() != 5 {
		t.Errorf("Len = %d, want 5", v.Len())
	}
	if v.PadID() != 0 {
		t.Errorf("PadID = %d, want 0", v.PadID())
	}
	if got := v.ID("NN"); got != 3 {
		t.Errorf("ID(NN) = %d, want 3", got)
	}
	// Out-of-vocabulary tags fall back to the unknown marker.
	if got := v.ID("JJ"); got != v.UnkID() {
		t.Errorf("ID(JJ) = %d, want UnkID %d", got, v.UnkID())
	}
}

func TestNewTagVocabValidation(t *testing.T) {
	tests := []struct {
		name string
		tags []string
	}{
		{name: "missing pad", tags: []string{UnkTag, "NN"}},
		{name: "missing unk", tags: []string{PadTag, "NN"}},
		{name: "duplicate", tags: []string{PadTag, UnkTag, "NN", "NN"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTagVocab(tt.tags); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadTagVocabRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postag_vocab.txt")
	if err := os.WriteFile(path, []byte("[PAD]\n[UNK]\nDT\nNN"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	v, err := LoadTagVocab(path)
	if err != nil {
		t.Fatalf("LoadTagVocab: %v", err)
	}
	if v.Len() != 4 {
		t.Errorf("Len = %d, want 4", v.Len())
	}
	if v.ID("DT") != 2 {
		t.Errorf("ID(DT) = %d, want 2 (file order)", v.ID("DT"))
	}
}

func TestLoadAnnotationsAndIDRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train_postag.json")
	// Row 1 is missing, as after a skipped row.
	content := `{"0": ["DT", "NN"], "2": ["VBD"]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ann, err := LoadAnnotations(path)
	if err != nil {
		t.Fatalf("LoadAnnotations: %v", err)
	}
	if len(ann) != 2 {
		t.Fatalf("len(ann) = %d, want 2", len(ann))
	}

	v := testTagVocab(t)
	rows := v.IDRows(ann, 3, 6)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	for i, row := range rows {
		if len(row) != 6 {
			t.Errorf("row %d length = %d, want 6", i, len(row))
		}
	}

	// Row 0: pad for [CLS], then DT NN, then padding.
	want0 := []int{0, 2, 3, 0, 0, 0}
	for j, want := range want0 {
		if rows[0][j] != want {
			t.Errorf("rows[0][%d] = %d, want %d", j, rows[0][j], want)
		}
	}
	// Skipped row 1 is all padding.
	for j, id := range rows[1] {
		if id != v.PadID() {
			t.Errorf("rows[1][%d] = %d, want pad", j, id)
		}
	}
}

func TestIDRowsTruncation(t *testing.T) {
	v := testTagVocab(t)
	ann := map[int][]string{0: {"DT", "NN", "VBD", "NN", "NN", "NN"}}

	rows := v.IDRows(ann, 1, 4)
	if len(rows[0]) != 4 {
		t.Fatalf("row length = %d, want 4", len(rows[0]))
	}
	// Position 0 pads for [CLS]; only 3 tag slots remain.
	if rows[0][0] != v.PadID() {
		t.Errorf("rows[0][0] = %d, want pad", rows[0][0])
	}
	if rows[0][3] != v.ID("VBD") {
		t.Errorf("rows[0][3] = %d, want VBD id", rows[0][3])
	}
}

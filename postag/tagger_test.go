package postag

import (
	"testing"
)

func TestTagBasic(t *testing.T) {
	tagger := NewTagger()

	tokens, err := tagger.Tag("the movie was good")
	if err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if len(tokens) != 4 {
		t.Fatalf("len(tokens) = %d, want 4", len(tokens))
	}

	wantTags := []string{"DT", "NN", "VBD", "NN"}
	for i, want := range wantTags {
		if tokens[i].Tag != want {
			t.Errorf("tokens[%d] = %s/%s, want tag %s", i, tokens[i].Text, tokens[i].Tag, want)
		}
	}
}

func TestTagRules(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "pronoun and modal",
			text: "I would watch it",
			want: []string{"PRP", "MD", "NN", "PRP"},
		},
		{
			name: "numbers and punctuation",
			text: "rated 10 !",
			want: []string{"VBD", "CD", "."},
		},
		{
			name: "adverb suffix",
			text: "really slowly",
			want: []string{"RB", "RB"},
		},
		{
			name: "gerund suffix",
			text: "the acting",
			want: []string{"DT", "VBG"},
		},
		{
			name: "proper noun mid sentence",
			text: "watch Casablanca",
			want: []string{"NN", "NNP"},
		},
		{
			name: "comma",
			text: "good , bad",
			want: []string{"NN", ",", "NN"},
		},
	}

	tagger := NewTagger()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := tagger.Tag(tt.text)
			if err != nil {
				t.Fatalf("Tag: %v", err)
			}
			if len(tokens) != len(tt.want) {
				t.Fatalf("got %d tokens %v, want %d", len(tokens), tokens, len(tt.want))
			}
			for i, want := range tt.want {
				if tokens[i].Tag != want {
					t.Errorf("tokens[%d] = %s/%s, want tag %s", i, tokens[i].Text, tokens[i].Tag, want)
				}
			}
		})
	}
}

func TestTagEmptyText(t *testing.T) {
	tagger := NewTagger()

	for _, text := range []string{"", "   ", "\t\n"} {
		if _, err := tagger.Tag(text); err == nil {
			t.Errorf("Tag(%q): expected error for empty input", text)
		}
	}
}

func TestTagDeterministic(t *testing.T) {
	tagger := NewTagger()
	text := "the quick brown fox jumps over the lazy dog !"

	first, err := tagger.Tag(text)
	if err != nil {
		t.Fatalf("Tag: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := tagger.Tag(text)
		if err != nil {
			t.Fatalf("Tag: %v", err)
		}
		for j := range first {
			if again[j].Tag != first[j].Tag {
				t.Fatalf("run %d: tag[%d] = %s, want %s", i, j, again[j].Tag, first[j].Tag)
			}
		}
	}
}

func TestPositionTagLengthMatch(t *testing.T) {
	tagger := NewTagger()
	texts := []string{
		"good movie",
		"a terrible, boring film !",
		"I liked it very much",
	}
	for _, text := range texts {
		tokens, err := tagger.Tag(text)
		if err != nil {
			t.Fatalf("Tag(%q): %v", text, err)
		}
		// One position and one tag per token by construction.
		if len(tokens) == 0 {
			t.Errorf("Tag(%q) returned no tokens", text)
		}
	}
}

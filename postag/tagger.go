// Package postag provides part-of-speech tagging, the annotation pass that
// generates per-split position/tag files, and the persisted tag vocabulary
// consumed by the embedding fusion layer.
package postag

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/YuminosukeSato/tagtext/pkg/errors"
)

// Token is one word of the input with its assigned Penn-style POS tag.
type Token struct {
	Text string
	Tag  string
}

// Tagger assigns POS tags using a closed-class lexicon followed by ordered
// pattern and suffix rules. The rule order is fixed, so tagging is
// deterministic for a given input.
type Tagger struct {
	lexicon  map[string]string
	patterns []patternRule
	suffixes []suffixRule
}

type patternRule struct {
	re  *regexp.Regexp
	tag string
}

type suffixRule struct {
	suffix string
	minLen int
	tag    string
}

// Closed-class words. Lookup is case-insensitive.
var lexicon = map[string]string{
	// determiners
	"a": "DT", "an": "DT", "the": "DT", "this": "DT", "that": "DT",
	"these": "DT", "those": "DT", "no": "DT", "every": "DT",
	// personal pronouns
	"i": "PRP", "you": "PRP", "he": "PRP", "she": "PRP", "it": "PRP",
	"we": "PRP", "they": "PRP", "me": "PRP", "him": "PRP", "her": "PRP",
	"us": "PRP", "them": "PRP",
	// possessive pronouns
	"my": "PRP$", "your": "PRP$", "his": "PRP$", "its": "PRP$",
	"our": "PRP$", "their": "PRP$",
	// prepositions and subordinating conjunctions
	"of": "IN", "in": "IN", "on": "IN", "at": "IN", "by": "IN",
	"with": "IN", "from": "IN", "about": "IN", "into": "IN",
	"through": "IN", "during": "IN", "before": "IN", "after": "IN",
	"above": "IN", "below": "IN", "under": "IN", "over": "IN",
	"between": "IN", "because": "IN", "if": "IN", "while": "IN",
	"since": "IN", "until": "IN", "although": "IN", "as": "IN",
	// coordinating conjunctions
	"and": "CC", "or": "CC", "but": "CC", "nor": "CC", "yet": "CC", "so": "CC",
	// modals
	"can": "MD", "could": "MD", "will": "MD", "would": "MD",
	"shall": "MD", "should": "MD", "may": "MD", "might": "MD", "must": "MD",
	// to
	"to": "TO",
	// forms of be/have/do
	"am": "VBP", "is": "VBZ", "are": "VBP", "was": "VBD", "were": "VBD",
	"be": "VB", "been": "VBN", "being": "VBG",
	"have": "VBP", "has": "VBZ", "had": "VBD",
	"do": "VBP", "does": "VBZ", "did": "VBD",
	// wh-words
	"who": "WP", "whom": "WP", "whose": "WP$", "which": "WDT",
	"what": "WP", "when": "WRB", "where": "WRB", "why": "WRB", "how": "WRB",
	// adverbs of degree
	"not": "RB", "very": "RB", "too": "RB", "quite": "RB", "never": "RB",
	"always": "RB", "often": "RB", "there": "EX",
	// interjections
	"oh": "UH", "ah": "UH", "wow": "UH", "yes": "UH", "please": "UH",
}

// Ordered pattern rules, checked before suffix rules.
var patterns = []patternRule{
	{re: regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`), tag: "CD"},
	{re: regexp.MustCompile(`^[0-9]{1,2}/[0-9]{1,2}/[0-9]{2,4}$`), tag: "CD"},
	{re: regexp.MustCompile(`^[.!?]$`), tag: "."},
	{re: regexp.MustCompile(`^[,;:]$`), tag: ","},
	{re: regexp.MustCompile(`^[()\[\]{}]$`), tag: "-LRB-"},
	{re: regexp.MustCompile(`^["'` + "`" + `]+$`), tag: "''"},
	{re: regexp.MustCompile(`^[$€£¥]$`), tag: "$"},
	{re: regexp.MustCompile(`^[^a-zA-Z0-9]+$`), tag: "SYM"},
}

// Ordered suffix rules; first match wins. minLen keeps short words like
// "as" or "red" from matching plural or adverb suffixes.
var suffixes = []suffixRule{
	{suffix: "ly", minLen: 4, tag: "RB"},
	{suffix: "ing", minLen: 5, tag: "VBG"},
	{suffix: "ed", minLen: 4, tag: "VBD"},
	{suffix: "est", minLen: 5, tag: "JJS"},
	{suffix: "er", minLen: 5, tag: "JJR"},
	{suffix: "ous", minLen: 5, tag: "JJ"},
	{suffix: "ful", minLen: 5, tag: "JJ"},
	{suffix: "able", minLen: 6, tag: "JJ"},
	{suffix: "ible", minLen: 6, tag: "JJ"},
	{suffix: "ive", minLen: 5, tag: "JJ"},
	{suffix: "al", minLen: 5, tag: "JJ"},
	{suffix: "ness", minLen: 6, tag: "NN"},
	{suffix: "ment", minLen: 6, tag: "NN"},
	{suffix: "tion", minLen: 6, tag: "NN"},
	{suffix: "sion", minLen: 6, tag: "NN"},
	{suffix: "ity", minLen: 5, tag: "NN"},
	{suffix: "ies", minLen: 5, tag: "NNS"},
	{suffix: "es", minLen: 4, tag: "NNS"},
	{suffix: "s", minLen: 4, tag: "NNS"},
}

// NewTagger creates a tagger with the built-in rule set.
func NewTagger() *Tagger {
	return &Tagger{
		lexicon:  lexicon,
		patterns: patterns,
		suffixes: suffixes,
	}
}

// Tag tokenizes text and assigns one POS tag per token. It returns an
// error when the text contains no tokens; callers treat that as a
// skippable row.
func (t *Tagger) Tag(text string) ([]Token, error) {
	words := splitWords(text)
	if len(words) == 0 {
		return nil, errors.NewValueError("Tag", "no tokens in text")
	}

	tokens := make([]Token, len(words))
	for i, w := range words {
		tokens[i] = Token{Text: w, Tag: t.tagWord(w, i)}
	}
	return tokens, nil
}

func (t *Tagger) tagWord(word string, position int) string {
	lower := strings.ToLower(word)

	if tag, ok := t.lexicon[lower]; ok {
		return tag
	}
	for _, p := range t.patterns {
		if p.re.MatchString(word) {
			return p.tag
		}
	}
	// Capitalized words past the sentence start are proper nouns.
	if position > 0 && len(word) > 0 {
		first := []rune(word)[0]
		if unicode.IsUpper(first) {
			return "NNP"
		}
	}
	for _, s := range t.suffixes {
		if len(lower) >= s.minLen && strings.HasSuffix(lower, s.suffix) {
			return s.tag
		}
	}
	return "NN"
}

// splitWords splits on whitespace, separating trailing/leading punctuation
// runs into their own tokens. Case is preserved for proper-noun detection.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return words
}

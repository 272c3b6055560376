// Package tokenize implements a WordPiece-style subword tokenizer producing
// fixed-length input-id and attention-mask sequences for the classifiers.
//
// The tokenizer is vocabulary-driven: a plain text file with one token per
// line, where subword continuations carry the "##" prefix. Encoding always
// yields sequences of exactly the configured maximum length, truncating and
// padding as needed.
package tokenize

import (
	"bufio"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/YuminosukeSato/tagtext/pkg/errors"
)

// Special tokens. PadToken must map to id 0 so padded positions match the
// zero value of an id slice.
const (
	PadToken = "[PAD]"
	UnkToken = "[UNK]"
	ClsToken = "[CLS]"
	SepToken = "[SEP]"
)

const subwordPrefix = "##"

// DefaultMaxLen is the fixed sequence length used when none is configured.
const DefaultMaxLen = 128

// Encoding is one tokenized example: input ids and the matching attention
// mask, both exactly MaxLen long.
type Encoding struct {
	InputIDs      []int
	AttentionMask []int
}

// Tokenizer splits text into subword units against a fixed vocabulary.
type Tokenizer struct {
	vocab  map[string]int
	tokens []string
	maxLen int
}

// NewTokenizer loads a vocabulary file (one token per line) and returns a
// tokenizer with the given maximum sequence length.
func NewTokenizer(vocabPath string, maxLen int) (*Tokenizer, error) {
	file, err := os.Open(vocabPath)
	if err != nil {
		return nil, errors.NewVocabularyError(vocabPath, err.Error())
	}
	defer file.Close()

	var tokens []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewVocabularyError(vocabPath, err.Error())
	}

	t, err := NewTokenizerFromVocab(tokens, maxLen)
	if err != nil {
		return nil, errors.Wrapf(err, "vocabulary %s", vocabPath)
	}
	return t, nil
}

// NewTokenizerFromVocab builds a tokenizer from an in-memory token list.
// The list must contain the four special tokens, with [PAD] first.
func NewTokenizerFromVocab(tokens []string, maxLen int) (*Tokenizer, error) {
	if maxLen < 4 {
		return nil, errors.NewValidationError("maxLen", "must be at least 4 ([CLS] + token + [SEP] + [PAD])", maxLen)
	}
	if len(tokens) == 0 {
		return nil, errors.NewVocabularyError("", "empty token list")
	}
	if tokens[0] != PadToken {
		return nil, errors.NewVocabularyError("", "first token must be "+PadToken)
	}

	vocab := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		if _, dup := vocab[tok]; dup {
			return nil, errors.NewVocabularyError("", "duplicate token "+tok)
		}
		vocab[tok] = i
	}
	for _, special := range []string{PadToken, UnkToken, ClsToken, SepToken} {
		if _, ok := vocab[special]; !ok {
			return nil, errors.NewVocabularyError("", "missing special token "+special)
		}
	}

	return &Tokenizer{
		vocab:  vocab,
		tokens: append([]string(nil), tokens...),
		maxLen: maxLen,
	}, nil
}

// BuildVocab derives a vocabulary from raw texts: the special tokens
// followed by every distinct basic token, sorted lexicographically for
// reproducible id assignment.
func BuildVocab(texts []string) []string {
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, tok := range basicTokenize(text) {
			seen[tok] = struct{}{}
		}
	}

	words := make([]string, 0, len(seen))
	for tok := range seen {
		words = append(words, tok)
	}
	sort.Strings(words)

	vocab := []string{PadToken, UnkToken, ClsToken, SepToken}
	return append(vocab, words...)
}

// VocabSize returns the number of tokens in the vocabulary.
func (t *Tokenizer) VocabSize() int { return len(t.tokens) }

// MaxLen returns the fixed sequence length of every encoding.
func (t *Tokenizer) MaxLen() int { return t.maxLen }

// PadID returns the id of the padding token.
func (t *Tokenizer) PadID() int { return t.vocab[PadToken] }

// UnkID returns the id of the unknown token.
func (t *Tokenizer) UnkID() int { return t.vocab[UnkToken] }

// Tokenize splits text into subword tokens without special tokens, padding,
// or truncation.
func (t *Tokenizer) Tokenize(text string) []string {
	var pieces []string
	for _, word := range basicTokenize(text) {
		pieces = append(pieces, t.wordpiece(word)...)
	}
	return pieces
}

// Encode tokenizes text into a fixed-length encoding: [CLS] tokens... [SEP]
// truncated to MaxLen and padded with [PAD]. The attention mask is 1 for
// real tokens and 0 for padding.
func (t *Tokenizer) Encode(text string) Encoding {
	pieces := t.Tokenize(text)
	if len(pieces) > t.maxLen-2 {
		pieces = pieces[:t.maxLen-2]
	}

	ids := make([]int, 0, t.maxLen)
	ids = append(ids, t.vocab[ClsToken])
	for _, p := range pieces {
		id, ok := t.vocab[p]
		if !ok {
			id = t.vocab[UnkToken]
		}
		ids = append(ids, id)
	}
	ids = append(ids, t.vocab[SepToken])

	mask := make([]int, t.maxLen)
	for i := range ids {
		mask[i] = 1
	}
	for len(ids) < t.maxLen {
		ids = append(ids, t.vocab[PadToken])
	}

	return Encoding{InputIDs: ids, AttentionMask: mask}
}

// wordpiece splits a single word greedily into the longest matching
// vocabulary pieces. Words with no matching prefix become [UNK].
func (t *Tokenizer) wordpiece(word string) []string {
	if _, ok := t.vocab[word]; ok {
		return []string{word}
	}

	var pieces []string
	runes := []rune(word)
	start := 0
	for start < len(runes) {
		end := len(runes)
		var match string
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = subwordPrefix + piece
			}
			if _, ok := t.vocab[piece]; ok {
				match = piece
				break
			}
			end--
		}
		if match == "" {
			return []string{UnkToken}
		}
		pieces = append(pieces, match)
		start = end
	}
	return pieces
}

// basicTokenize lowercases text and splits it on whitespace, treating each
// punctuation rune as its own token.
func basicTokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}

/*
Package moderation implements the content filter consulted before a chat message is relayed.

Matching is done with an Aho-Corasick automaton over the lowercased text, and a hit only
counts when it covers a whole word: "class" does not trip on "ass".
*/
package moderation

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

//go:embed words.txt
var defaultWordList string

// WordFilter flags text containing any word of its dictionary.
// It is immutable after construction and safe for concurrent use.
type WordFilter struct {
	matcher *goahocorasick.Machine
}

// NewWordFilter builds a filter over words. Blank entries are ignored; an empty
// dictionary yields a filter that never flags anything.
func NewWordFilter(words []string) (*WordFilter, error) {
	patterns := buildPatterns(words)
	if len(patterns) == 0 {
		return &WordFilter{}, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("building word matcher: %w", err)
	}
	return &WordFilter{matcher: m}, nil
}

// NewDefaultFilter builds a filter over the embedded word list plus extra.
func NewDefaultFilter(extra ...string) (*WordFilter, error) {
	return NewWordFilter(append(DefaultWords(), extra...))
}

// DefaultWords returns the embedded dictionary.
func DefaultWords() []string {
	words, _ := readWordList(strings.NewReader(defaultWordList))
	return words
}

// LoadWordList reads a dictionary file: one word per line, '#' starts a comment line.
func LoadWordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening word list: %w", err)
	}
	defer f.Close()

	return readWordList(f)
}

// IsProfane reports whether text contains a dictionary word as a whole word.
func (f *WordFilter) IsProfane(text string) bool {
	if f == nil || f.matcher == nil || text == "" {
		return false
	}

	content := lowerRunes(text)
	for _, term := range f.matcher.MultiPatternSearch(content, false) {
		start := term.Pos
		end := start + len(term.Word)
		if start < 0 || end > len(content) {
			continue
		}
		if atWordBoundary(content, start, end) {
			return true
		}
	}
	return false
}

func readWordList(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading word list: %w", err)
	}
	return words, nil
}

// buildPatterns lowercases, dedupes and sorts the dictionary for the double-array trie.
func buildPatterns(words []string) [][]rune {
	seen := make(map[string]struct{}, len(words))
	keys := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := string(lowerRunes(w))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	slices.Sort(keys)

	patterns := make([][]rune, len(keys))
	for i, k := range keys {
		patterns[i] = []rune(k)
	}
	return patterns
}

func lowerRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func atWordBoundary(content []rune, start, end int) bool {
	if start > 0 && isWordRune(content[start-1]) {
		return false
	}
	if end < len(content) && isWordRune(content[end]) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

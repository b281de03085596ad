// Package query produces the search queries that drive discovery.
package query

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"
)

// Generator yields one search query string per call.
type Generator interface {
	Next() string
}

// FixedList cycles deterministically through a configured query set.
type FixedList struct {
	queries []string
	next    int
}

// NewFixedList creates a fixed-list generator
func NewFixedList(queries []string) (*FixedList, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("fixed-list generator needs at least one query")
	}
	return &FixedList{queries: queries}, nil
}

// Next returns the next query in the cycle
func (g *FixedList) Next() string {
	q := g.queries[g.next]
	g.next = (g.next + 1) % len(g.queries)
	return q
}

// RandomSample draws 1-3 tokens per call from a rank-weighted
// vocabulary of common words. Each instance owns its own RNG so
// generators are independent of each other.
type RandomSample struct {
	vocab  []string
	cumul  []float64
	total  float64
	rng    *rand.Rand
	counts []int
}

// NewRandomSample creates a random-sample generator over the given
// vocabulary, most common word first. An empty vocabulary falls back
// to the built-in common-word list.
func NewRandomSample(vocab []string, seed int64) *RandomSample {
	if len(vocab) == 0 {
		vocab = defaultVocabulary
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Zipf-style weights: the word at rank r gets weight 1/r, matching
	// how a frequency-ordered common-word list is distributed.
	cumul := make([]float64, len(vocab))
	total := 0.0
	for i := range vocab {
		total += 1.0 / float64(i+1)
		cumul[i] = total
	}

	return &RandomSample{
		vocab: vocab,
		cumul: cumul,
		total: total,
		rng:   rand.New(rand.NewSource(seed)),
		// Token count distribution: 2 is twice as likely as 1 or 3.
		counts: []int{1, 2, 2, 3},
	}
}

// Next returns a fresh randomly sampled query
func (g *RandomSample) Next() string {
	n := g.counts[g.rng.Intn(len(g.counts))]
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = g.sampleWord()
	}
	return strings.Join(tokens, " ")
}

func (g *RandomSample) sampleWord() string {
	x := g.rng.Float64() * g.total
	idx := sort.SearchFloat64s(g.cumul, x)
	if idx >= len(g.vocab) {
		idx = len(g.vocab) - 1
	}
	return g.vocab[idx]
}

// LoadVocab reads a one-word-per-line vocabulary file, most common
// word first. Blank lines and #-comments are skipped.
func LoadVocab(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab file: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab file: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("vocab file %s contains no words", path)
	}
	return words, nil
}

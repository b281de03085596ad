package query

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: every generated query has 1 to 3 tokens and every token
// comes from the vocabulary.
func TestProperty_RandomSampleShape(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	vocabSet := make(map[string]bool, len(defaultVocabulary))
	for _, w := range defaultVocabulary {
		vocabSet[w] = true
	}

	properties.Property("queries have 1-3 vocabulary tokens", prop.ForAll(
		func(seed int64) bool {
			g := NewRandomSample(nil, seed)
			for i := 0; i < 50; i++ {
				tokens := strings.Fields(g.Next())
				if len(tokens) < 1 || len(tokens) > 3 {
					return false
				}
				for _, tok := range tokens {
					if !vocabSet[tok] {
						return false
					}
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("custom vocabulary is respected", prop.ForAll(
		func(seed int64) bool {
			vocab := []string{"alpha", "beta", "gamma"}
			g := NewRandomSample(vocab, seed)
			for i := 0; i < 20; i++ {
				for _, tok := range strings.Fields(g.Next()) {
					if tok != "alpha" && tok != "beta" && tok != "gamma" {
						return false
					}
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

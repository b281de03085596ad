package source

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: for any query string, the search URL parses back to the
// original query and always carries the playlist filter.
func TestProperty_SearchURLEncoding(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	src := NewYouTubeSource(nil)

	properties.Property("query round-trips through the search URL", prop.ForAll(
		func(query string) bool {
			if query == "" {
				return true
			}
			u, err := url.Parse(src.searchURL(query))
			if err != nil {
				return false
			}
			values := u.Query()
			return values.Get("search_query") == query && values.Get("sp") == "EgIQAw=="
		},
		gen.AnyString(),
	))

	properties.Property("search URL never contains a raw space", prop.ForAll(
		func(a, b string) bool {
			return !strings.Contains(src.searchURL(a+" "+b), " ")
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// Property: balancedObject recovers any JSON object embedded in
// surrounding script text.
func TestProperty_BalancedObjectExtraction(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("embedded object is recovered intact", prop.ForAll(
		func(key, value, suffix string) bool {
			obj := map[string]string{key: value}
			encoded, err := json.Marshal(obj)
			if err != nil {
				return false
			}
			script := fmt.Sprintf("var ytInitialData = %s;%s", encoded, suffix)

			extracted := balancedObject(script)
			var decoded map[string]string
			if err := json.Unmarshal([]byte(extracted), &decoded); err != nil {
				return false
			}
			return decoded[key] == value
		},
		gen.AnyString(),
		gen.AnyString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

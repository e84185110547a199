package topic

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Match is a post found by Search.
type Match struct {
	Number int
	Score  int
	// Text is the string that was matched; MatchedIndexes point into it.
	Text           string
	MatchedIndexes []int
}

type postSource []Post

func (s postSource) String(i int) string {
	p := s[i]
	return p.Author + " " + strings.Join(strings.Fields(p.Body), " ")
}

func (s postSource) Len() int { return len(s) }

// Search ranks posts by how well "author body" matches query. Best match
// first; ties keep stream order.
func (t *Topic) Search(query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	found := fuzzy.FindFrom(query, postSource(t.Posts))
	out := make([]Match, len(found))
	for i, m := range found {
		out[i] = Match{
			Number:         t.Posts[m.Index].Number,
			Score:          m.Score,
			Text:           m.Str,
			MatchedIndexes: m.MatchedIndexes,
		}
	}
	return out
}

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func byID(id string, score float64) Result {
	return Result{Payload: Payload{ArticleID: id}, Score: score}
}

func byURL(url string, score float64) Result {
	return Result{Payload: Payload{URL: url}, Score: score}
}

func TestDeduplicateFirstSeenWins(t *testing.T) {
	in := []Result{byID("a1", 0.9), byID("a2", 0.8), byID("a1", 0.7)}

	out := Deduplicate(in)

	assert.Len(t, out, 2)
	assert.Equal(t, "a1", out[0].Payload.ArticleID)
	assert.Equal(t, 0.9, out[0].Score)
	assert.Equal(t, "a2", out[1].Payload.ArticleID)
}

func TestDeduplicateArticleIDBeatsURL(t *testing.T) {
	// Same URL but distinct article ids: not duplicates of each other.
	in := []Result{
		{Payload: Payload{ArticleID: "a1", URL: "http://x"}, Score: 0.9},
		{Payload: Payload{ArticleID: "a2", URL: "http://x"}, Score: 0.8},
	}

	out := Deduplicate(in)
	assert.Len(t, out, 2)
}

func TestDeduplicateFallsBackToURL(t *testing.T) {
	in := []Result{byURL("http://x", 0.9), byURL("http://x", 0.7), byURL("http://y", 0.6)}

	out := Deduplicate(in)

	assert.Len(t, out, 2)
	assert.Equal(t, 0.9, out[0].Score)
}

func TestDeduplicateKeylessNeverCollapse(t *testing.T) {
	in := []Result{{Score: 0.9}, {Score: 0.8}, {Score: 0.7}}

	out := Deduplicate(in)
	assert.Len(t, out, 3)
}

func TestDeduplicateIdempotent(t *testing.T) {
	in := []Result{byID("a1", 0.9), byID("a1", 0.7), byURL("u", 0.6), {Score: 0.5}}

	once := Deduplicate(in)
	twice := Deduplicate(once)

	assert.Equal(t, once, twice)
}

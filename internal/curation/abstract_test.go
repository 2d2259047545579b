package curation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestAbstractTrimsQuotesAndTruncates(t *testing.T) {
	gen := &stubGenerator{response: `"Retraction tuning eliminates stringing on most printers."`}
	a := NewAbstractor(gen)

	got := a.Abstract(context.Background(), CandidateDocument{Title: "Stringing"}, StructuredSummary{})
	assert.Equal(t, "Retraction tuning eliminates stringing on most printers.", got)

	gen.response = strings.Repeat("x", 600)
	got = a.Abstract(context.Background(), CandidateDocument{Title: "Stringing"}, StructuredSummary{})
	assert.Len(t, got, maxAbstractLen)
}

func TestAbstractFallbackOnError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("provider down")}
	a := NewAbstractor(gen)

	summary := StructuredSummary{
		ContentType: TypeArticle,
		Article:     &ArticleSummary{Problem: "warping on large flat parts"},
	}
	got := a.Abstract(context.Background(), CandidateDocument{Title: "Warping guide"}, summary)

	assert.Equal(t, "Warping guide. warping on large flat parts...", got)
}

func TestAbstractFallbackUsesKeyPointWithoutProblem(t *testing.T) {
	gen := &stubGenerator{response: "   "}
	a := NewAbstractor(gen)

	summary := StructuredSummary{KeyPoints: []string{"dry your filament"}}
	got := a.Abstract(context.Background(), CandidateDocument{Title: "Filament care"}, summary)

	assert.Equal(t, "Filament care. dry your filament...", got)
}

func TestFilterContentFallbackOnError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("provider down")}
	a := NewAbstractor(gen)

	body := strings.Repeat("b", 3000)
	got := a.FilterContent(context.Background(), CandidateDocument{Title: "t", Body: body})

	assert.Len(t, got, fallbackContentLen+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestFilterContentFallbackKeepsCyrillicIntact(t *testing.T) {
	gen := &stubGenerator{err: errors.New("provider down")}
	a := NewAbstractor(gen)

	// An ASCII prefix pushes the cap boundary into the middle of a Cyrillic
	// run; the cut must land on a rune boundary and count characters.
	body := strings.Repeat("x", 1999) + strings.Repeat("я", 500)
	got := a.FilterContent(context.Background(), CandidateDocument{Title: "т", Body: body})

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, fallbackContentLen+3, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "я..."))
}

func TestAbstractTruncationCountsRunes(t *testing.T) {
	gen := &stubGenerator{response: strings.Repeat("ы", 600)}
	a := NewAbstractor(gen)

	got := a.Abstract(context.Background(), CandidateDocument{Title: "т"}, StructuredSummary{})

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxAbstractLen, utf8.RuneCountInString(got))
}

func TestFilterContentTruncatesLongResponse(t *testing.T) {
	gen := &stubGenerator{response: strings.Repeat("c", 6000)}
	a := NewAbstractor(gen)

	got := a.FilterContent(context.Background(), CandidateDocument{Title: "t", Body: "body"})

	assert.Len(t, got, maxFilteredContentLen)
}

func TestAbstractLimitsKeyPointsInPrompt(t *testing.T) {
	gen := &stubGenerator{response: "ok"}
	a := NewAbstractor(gen)

	summary := StructuredSummary{
		KeyPoints: []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"},
	}
	a.Abstract(context.Background(), CandidateDocument{Title: "t"}, summary)

	assert.Contains(t, gen.prompts[0], "p5")
	assert.NotContains(t, gen.prompts[0], "p6")
}

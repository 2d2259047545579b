package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/printkb/backend/internal/curation"
	"github.com/printkb/backend/pkg/utils"
)

func TestCleanHTML(t *testing.T) {
	html := `<html><head><title>Guide</title><style>body{}</style></head>
<body><nav>menu</nav><h1>Stringing</h1><p>Enable   retraction.</p>
<script>track()</script><footer>about</footer></body></html>`

	got := cleanHTML(html)

	assert.Equal(t, "Stringing Enable retraction.", got)
}

func TestCleanHTMLEmpty(t *testing.T) {
	assert.Equal(t, "", cleanHTML(""))
	assert.Equal(t, "", cleanHTML("<body><script>only()</script></body>"))
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Page Title", extractTitle("<html><head><title>Page Title</title></head></html>"))
	assert.Equal(t, "Heading", extractTitle("<body><h1>Heading</h1></body>"))
	assert.Equal(t, "Untitled", extractTitle("<body><p>no title</p></body>"))
}

func TestArticleIDFor(t *testing.T) {
	withURL := curation.CandidateDocument{Title: "t", Body: "b", URL: "http://example.com/a"}
	assert.Equal(t, utils.HashString("http://example.com/a"), articleIDFor(withURL))

	withoutURL := curation.CandidateDocument{Title: "t", Body: "b"}
	assert.Equal(t, utils.HashString("tb"), articleIDFor(withoutURL))

	// Stable across calls so re-ingestion upserts instead of duplicating.
	assert.Equal(t, articleIDFor(withURL), articleIDFor(withURL))
}

func TestProblemTypeCanonicalization(t *testing.T) {
	canonical := curation.StructuredSummary{
		Article: &curation.ArticleSummary{Problem: "thin wisps and oozing everywhere"},
	}
	assert.Equal(t, "stringing", problemType(canonical))

	freeText := curation.StructuredSummary{
		Article: &curation.ArticleSummary{Problem: "nozzle clogs"},
	}
	assert.Equal(t, "nozzle clogs", problemType(freeText))

	assert.Equal(t, "", problemType(curation.StructuredSummary{}))
}

package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
)

const listingHTML = `
<html><body>
  <div class="job-card">
    <h2 class="job-title"><a href="/jobs/42?utm_source=feed">  DevOps   Engineer </a></h2>
    <span class="company">Acme&nbsp;Corp</span>
    <span class="location">Cairo, Egypt</span>
    <div class="descr">Build and run the platform.</div>
    <span class="tag">Kubernetes</span><span class="tag">AWS</span>
    <span class="posted">2 days ago</span>
  </div>
  <div class="job-card">
    <h2 class="job-title"><a href="https://Example.COM/jobs/77">SRE</a></h2>
    <span class="company">Globex</span>
    <span class="posted">today</span>
  </div>
  <div class="job-card">
    <h2 class="job-title">No link here</h2>
  </div>
</body></html>`

func wuzzufLikeSource() pipeline.SourceConfig {
	return pipeline.SourceConfig{
		Name: "wuzzuf-devops",
		URL:  "https://example.com/jobs?q=devops",
		Selectors: pipeline.Selectors{
			Card:        "div.job-card",
			Title:       "h2.job-title a",
			Link:        "h2.job-title a",
			Company:     "span.company",
			Location:    "span.location",
			Description: "div.descr",
			Tags:        "span.tag",
			Date:        "span.posted",
		},
	}
}

func pageWith(html string) []pipeline.RawPage {
	return []pipeline.RawPage{{
		Source:    "wuzzuf-devops",
		URL:       "https://example.com/jobs?q=devops",
		Number:    1,
		HTML:      html,
		FetchedAt: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}}
}

func TestExtract_StructuredFields(t *testing.T) {
	t.Parallel()
	e := New(zap.NewNop())

	postings, err := e.Extract(pageWith(listingHTML), wuzzufLikeSource())
	require.NoError(t, err)
	require.Len(t, postings, 2) // card without a link is skipped

	first := postings[0]
	require.Equal(t, "DevOps Engineer", first.Title)
	require.Equal(t, "Acme Corp", first.Company)
	require.Equal(t, "Cairo, Egypt", first.Location)
	require.Equal(t, "Build and run the platform.", first.Description)
	require.Equal(t, []string{"Kubernetes", "AWS"}, first.Tags)
	require.Equal(t, "https://example.com/jobs/42", first.URL) // resolved, utm stripped
	require.Equal(t, time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC), first.PostedAt)
	require.NotEmpty(t, first.ID)

	second := postings[1]
	require.Equal(t, "https://example.com/jobs/77", second.URL) // host lowercased
	require.Equal(t, postings[0].Source, "wuzzuf-devops")
}

func TestExtract_Deterministic(t *testing.T) {
	t.Parallel()
	e := New(zap.NewNop())
	src := wuzzufLikeSource()

	a, err := e.Extract(pageWith(listingHTML), src)
	require.NoError(t, err)
	b, err := e.Extract(pageWith(listingHTML), src)
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, a[i].ID, b[i].ID)
	}
}

func TestExtract_CosmeticDifferencesKeepID(t *testing.T) {
	t.Parallel()
	e := New(zap.NewNop())
	src := wuzzufLikeSource()

	reformatted := `
<html><body>
  <div class="job-card">
    <h2 class="job-title"><a href="https://example.com/jobs/42#apply">DevOps Engineer</a></h2>
    <span class="company">Acme  Corp</span>
  </div>
</body></html>`

	a, err := e.Extract(pageWith(listingHTML), src)
	require.NoError(t, err)
	b, err := e.Extract(pageWith(reformatted), src)
	require.NoError(t, err)
	require.Equal(t, a[0].ID, b[0].ID)
}

func TestExtract_MissingAnchorsIsPageError(t *testing.T) {
	t.Parallel()
	e := New(zap.NewNop())

	_, err := e.Extract(pageWith("<html><body><p>maintenance</p></body></html>"), wuzzufLikeSource())
	var ee *pipeline.ExtractError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, "wuzzuf-devops", ee.Source)
	require.Equal(t, 1, ee.Page)
}

func TestExtract_BadPageDoesNotAbortOthers(t *testing.T) {
	t.Parallel()
	e := New(zap.NewNop())

	pages := pageWith(listingHTML)
	pages = append(pages, pipeline.RawPage{
		Source: "wuzzuf-devops",
		URL:    "https://example.com/jobs?q=devops&start=2",
		Number: 2,
		HTML:   "<html><body>nothing here</body></html>",
	})

	postings, err := e.Extract(pages, wuzzufLikeSource())
	require.Error(t, err)
	require.Len(t, postings, 2)
}

func TestExtract_CardAsAnchorFallback(t *testing.T) {
	t.Parallel()
	e := New(zap.NewNop())

	src := pipeline.SourceConfig{
		Name: "forasna",
		URL:  "https://forasna.example/jobs",
		Selectors: pipeline.Selectors{
			Card:  "a.job-card",
			Title: "h2.job-card__title",
		},
	}
	html := `<html><body>
	  <a class="job-card" href="/vacancy/9"><h2 class="job-card__title">IT Support</h2></a>
	</body></html>`

	postings, err := e.Extract([]pipeline.RawPage{{Source: "forasna", URL: src.URL, Number: 1, HTML: html}}, src)
	require.NoError(t, err)
	require.Len(t, postings, 1)
	require.Equal(t, "https://forasna.example/vacancy/9", postings[0].URL)
}

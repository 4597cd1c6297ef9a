// Package extractor parses rendered listing pages into structured postings
// using per-source CSS selector rules.
package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/AhmedOthman21/Tech-jobs/internal/identity"
	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
)

// Extractor implements pipeline.Extractor on top of goquery.
type Extractor struct {
	logger *zap.Logger
}

// New constructs an Extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract parses every page of a source. A page whose structural anchors are
// missing contributes an ExtractError but does not abort the remaining pages;
// the joined error is returned alongside whatever was recovered. Extraction
// is deterministic: identical raw input yields identical postings and ids.
func (e *Extractor) Extract(pages []pipeline.RawPage, src pipeline.SourceConfig) ([]pipeline.JobPosting, error) {
	var (
		postings []pipeline.JobPosting
		errs     []error
	)
	for _, page := range pages {
		found, err := e.extractPage(page, src)
		if err != nil {
			errs = append(errs, &pipeline.ExtractError{Source: src.Name, Page: page.Number, Err: err})
			continue
		}
		postings = append(postings, found...)
	}
	pipeline.PostingsExtracted.WithLabelValues(src.Name).Add(float64(len(postings)))
	return postings, errors.Join(errs...)
}

func (e *Extractor) extractPage(page pipeline.RawPage, src pipeline.SourceConfig) ([]pipeline.JobPosting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	cards := doc.Find(src.Selectors.Card)
	if cards.Length() == 0 {
		return nil, fmt.Errorf("no job cards matched selector %q", src.Selectors.Card)
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		base = nil
	}

	postings := make([]pipeline.JobPosting, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		posting, ok := e.extractCard(card, src, base, page.FetchedAt)
		if !ok {
			return
		}
		posting.ID = identity.ForPosting(posting)
		postings = append(postings, posting)
	})
	return postings, nil
}

func (e *Extractor) extractCard(card *goquery.Selection, src pipeline.SourceConfig, base *url.URL, fetchedAt time.Time) (pipeline.JobPosting, bool) {
	sel := src.Selectors

	title := CleanText(card.Find(sel.Title).First().Text())
	if title == "" {
		e.logger.Debug("job card without title, skipping", zap.String("source", src.Name))
		return pipeline.JobPosting{}, false
	}

	link := extractLink(card, sel, base)
	if link == "" {
		e.logger.Debug("job card without link, skipping",
			zap.String("source", src.Name),
			zap.String("title", title))
		return pipeline.JobPosting{}, false
	}

	posting := pipeline.JobPosting{
		Title:       title,
		URL:         link,
		Source:      src.Name,
		Company:     selectText(card, sel.Company),
		Location:    selectText(card, sel.Location),
		Description: selectText(card, sel.Description),
	}
	if sel.Tags != "" {
		card.Find(sel.Tags).Each(func(_ int, tag *goquery.Selection) {
			if text := CleanText(tag.Text()); text != "" {
				posting.Tags = append(posting.Tags, text)
			}
		})
	}
	if sel.Date != "" {
		posting.PostedAt = ParsePostedDate(card.Find(sel.Date).First().Text(), fetchedAt)
	}
	return posting, true
}

// extractLink tries, in order: the configured link selector, an anchor inside
// the title element, and finally the card itself when it is an <a>.
func extractLink(card *goquery.Selection, sel pipeline.Selectors, base *url.URL) string {
	if sel.Link != "" {
		if href, ok := card.Find(sel.Link).First().Attr("href"); ok {
			if link := CanonicalURL(href, base); link != "" {
				return link
			}
		}
	}
	title := card.Find(sel.Title).First()
	if goquery.NodeName(title) == "a" {
		if href, ok := title.Attr("href"); ok {
			if link := CanonicalURL(href, base); link != "" {
				return link
			}
		}
	}
	if href, ok := title.Find("a").First().Attr("href"); ok {
		if link := CanonicalURL(href, base); link != "" {
			return link
		}
	}
	if goquery.NodeName(card) == "a" {
		if href, ok := card.Attr("href"); ok {
			return CanonicalURL(href, base)
		}
	}
	return ""
}

func selectText(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return CleanText(card.Find(selector).First().Text())
}

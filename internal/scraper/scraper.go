// Package scraper builds the attractions catalogue from the Sabah tourism
// site. It fetches the destination listing, follows attraction links and
// groups the parsed pages by district.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/dom/jumbah-travel/internal/genai"
	"github.com/dom/jumbah-travel/internal/prompt"
)

const (
	DefaultBaseURL  = "https://www.infosabah.com.my/en"
	UnknownDistrict = "Unknown"

	attractionPathMarker = "/destination/"
	requestTimeout       = 30 * time.Second
)

var (
	contentClass  = regexp.MustCompile(`entry-content|article`)
	districtLabel = regexp.MustCompile(`(?i)district`)
)

// ErrStatus is wrapped when a page answers with a non-2xx status.
var ErrStatus = errors.New("unexpected status")

// Page is one parsed attraction page.
type Page struct {
	domain.Attraction
	District string
}

type Options struct {
	// Limit caps the number of attractions; zero means no limit.
	Limit int
	// Summarize asks the generator for a one-sentence summary per page.
	Summarize bool
}

type Scraper struct {
	client    *http.Client
	baseURL   string
	generator genai.Generator
}

// New returns a scraper for baseURL. generator may be nil when summaries are
// never requested.
func New(baseURL string, generator genai.Generator) *Scraper {
	return &Scraper{
		client:    &http.Client{Timeout: requestTimeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		generator: generator,
	}
}

// ListingURL is the destinations index the crawl starts from.
func (s *Scraper) ListingURL() string {
	return s.baseURL + "/destinations/"
}

// Scrape walks the listing and parses every attraction page it links to.
// Pages that fail to load are skipped.
func (s *Scraper) Scrape(ctx context.Context, opts Options) ([]Page, error) {
	listing := s.ListingURL()
	doc, err := s.fetch(ctx, listing)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	links, err := attractionLinks(doc, listing)
	if err != nil {
		return nil, err
	}

	var pages []Page
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		page, err := s.ParsePage(ctx, link, opts.Summarize)
		if err != nil {
			slog.Warn("scraper: skipping page", "url", link, "error", err)
			continue
		}
		pages = append(pages, *page)

		if opts.Limit > 0 && len(pages) >= opts.Limit {
			break
		}
	}
	return pages, nil
}

// ParsePage extracts name, description, image and district from one page.
func (s *Scraper) ParsePage(ctx context.Context, pageURL string, summarize bool) (*Page, error) {
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page := ParseDocument(doc)
	if summarize && page.Desc != "" {
		page.Summary = s.summarize(ctx, page.Desc)
	}
	return page, nil
}

// ParseDocument reads an attraction page that is already parsed.
func ParseDocument(doc *goquery.Document) *Page {
	page := &Page{}
	page.Name = strings.TrimSpace(doc.Find("h1").First().Text())

	content := doc.Find("div").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		return contentClass.MatchString(class)
	}).First()
	if content.Length() == 0 {
		content = doc.Find("article").First()
	}
	page.Desc = spacedText(content)

	if src, ok := doc.Find("img").First().Attr("src"); ok {
		page.Image = src
	}

	page.District = findDistrict(doc)
	return page
}

// GroupByDistrict arranges pages in the catalogue shape served by
// GET /attractions. Pages without a district go under UnknownDistrict.
func GroupByDistrict(pages []Page) domain.AttractionCatalog {
	catalog := domain.AttractionCatalog{}
	for _, p := range pages {
		district := p.District
		if district == "" {
			district = UnknownDistrict
		}
		entry, ok := catalog[district]
		if !ok {
			entry = &domain.District{Attractions: []domain.Attraction{}}
			catalog[district] = entry
		}
		entry.Attractions = append(entry.Attractions, p.Attraction)
	}
	return catalog
}

// Save writes the catalogue atomically, creating parent directories.
func Save(catalog domain.AttractionCatalog, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalogue: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".attractions-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write catalogue: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close catalogue: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Run performs one full scrape and writes the result to path.
func (s *Scraper) Run(ctx context.Context, path string, opts Options) (int, error) {
	pages, err := s.Scrape(ctx, opts)
	if err != nil {
		return 0, err
	}
	if err := Save(GroupByDistrict(pages), path); err != nil {
		return 0, err
	}
	return len(pages), nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "jumbah-scraper/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, pageURL, resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// summarize falls back to no summary when generation is off or fails.
func (s *Scraper) summarize(ctx context.Context, text string) string {
	if s.generator == nil || !s.generator.Available() {
		return ""
	}
	summary, err := s.generator.Generate(ctx, prompt.Summary(text))
	if err != nil {
		slog.Warn("scraper: summary failed", "error", err)
		return ""
	}
	return strings.TrimSpace(summary)
}

// attractionLinks resolves every anchor on the listing and keeps the
// attraction pages, deduplicated, in document order.
func attractionLinks(doc *goquery.Document, listing string) ([]string, error) {
	base, err := url.Parse(listing)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		if !strings.Contains(abs.Path, attractionPathMarker) {
			return
		}
		link := abs.String()
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links, nil
}

// findDistrict looks for the first element whose own text mentions a
// district and reads the value next to it: text after a colon in the same
// element, the following element, or the rest of the parent's text.
func findDistrict(doc *goquery.Document) string {
	var district string
	doc.Find("body *").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		own := ownText(sel)
		loc := districtLabel.FindStringIndex(own)
		if loc == nil {
			return true
		}

		if rest := strings.TrimSpace(strings.TrimLeft(own[loc[1]:], ": ")); rest != "" {
			district = rest
		} else if next := sel.Next(); next.Length() > 0 {
			district = strings.TrimSpace(next.Text())
		} else {
			parent := strings.TrimSpace(sel.Parent().Text())
			district = strings.TrimSpace(strings.TrimLeft(strings.TrimPrefix(parent, strings.TrimSpace(sel.Text())), ": "))
		}
		return false
	})
	return district
}

func ownText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
		}
	})
	return b.String()
}

// spacedText joins the trimmed text nodes under sel with single spaces.
func spacedText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
			case "script", "style":
			default:
				walk(c)
			}
		})
	}
	walk(sel)
	return strings.Join(parts, " ")
}

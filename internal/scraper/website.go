// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/metrics"
	"github.com/tomtom215/afritable/internal/models"
)

const (
	defaultScrapeTimeout = 10 * time.Second
	defaultMaxBodyBytes  = 5 << 20

	maxScrapedPhotos  = 20
	maxScrapedReviews = 10
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
}

// WebsiteScraper extracts menu, hours, social links and contact details from a
// restaurant's own website.
type WebsiteScraper struct {
	client  *http.Client
	maxBody int64
	pickUA  func() string
}

func NewWebsiteScraper(cfg config.ScraperConfig) *WebsiteScraper {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultScrapeTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &WebsiteScraper{
		client:  &http.Client{Timeout: timeout},
		maxBody: maxBody,
		pickUA:  func() string { return userAgents[rand.IntN(len(userAgents))] },
	}
}

// ScrapeWebsite fetches rawURL and extracts what it can. It never fails: any
// error yields models.EmptyScrapedData.
func (s *WebsiteScraper) ScrapeWebsite(ctx context.Context, rawURL string) models.ScrapedRestaurantData {
	doc, base, err := s.fetch(ctx, rawURL)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("url", logging.RedactURL(rawURL)).Msg("Website scrape failed")
		metrics.RecordScrape("website", false)
		return models.EmptyScrapedData()
	}

	data := Extract(doc, base)
	metrics.RecordScrape("website", data.Useful())
	return data
}

func (s *WebsiteScraper) fetch(ctx context.Context, rawURL string) (*goquery.Document, *url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, nil, fmt.Errorf("invalid website url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.pickUA())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("fetch: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, resp.Request.URL, nil
}

// Extract runs every field extractor over a parsed page. base resolves
// relative links and may be nil.
func Extract(doc *goquery.Document, base *url.URL) models.ScrapedRestaurantData {
	data := models.EmptyScrapedData()
	data.MenuItems = extractMenu(doc)
	data.SocialMedia = extractSocial(doc)
	if hours, ok := extractHours(doc); ok {
		data.BusinessHours = hours
	}
	data.Photos = extractPhotos(doc, base)
	data.Description = extractDescription(doc)
	data.Pricing = pricingFromMenu(data.MenuItems)
	data.Contact = extractContact(doc)
	data.Reviews = extractReviews(doc)
	return data
}

var menuItemSelectors = []string{
	"[itemtype*='schema.org/MenuItem']",
	".menu-item",
	"[class*='menu-item']",
	".dish",
	".food-item",
	".menu li",
	"#menu li",
}

var (
	menuNameSelectors  = "[itemprop='name'], .menu-item-name, .item-name, .dish-name, .name, h3, h4, strong"
	menuDescSelectors  = "[itemprop='description'], .menu-item-description, .item-description, .description, p"
	menuPriceSelectors = "[itemprop='price'], .price, [class*='price']"
	menuCatSelectors   = ".menu-category, .menu-section-title, .category, h2"
)

func extractMenu(doc *goquery.Document) []models.MenuItem {
	for _, sel := range menuItemSelectors {
		var items []models.MenuItem
		doc.Find(sel).Each(func(_ int, node *goquery.Selection) {
			name := collapse(node.Find(menuNameSelectors).First().Text())
			if name == "" {
				name = collapse(node.Text())
			}
			if len(name) < 2 || len(name) > 100 {
				return
			}
			desc := collapse(node.Find(menuDescSelectors).First().Text())
			if desc == name {
				desc = ""
			}
			priceText := node.Find(menuPriceSelectors).First().Text()
			if priceText == "" {
				priceText = node.Text()
			}

			item := models.MenuItem{
				Name:        name,
				Description: desc,
				Price:       ParsePrice(priceText),
				Category:    collapse(node.ParentsFiltered("section, .menu-section, .menu-category").First().Find(menuCatSelectors).First().Text()),
			}
			text := name + " " + desc
			item.DietaryTags = DietaryTags(text)
			item.IsPopular = IsPopular(text)
			item.Ingredients = Ingredients(text)
			items = append(items, item)
		})
		if len(items) > 0 {
			return items
		}
	}
	return []models.MenuItem{}
}

// socialPlatforms maps a host fragment to its platform key, in match order.
var socialPlatforms = []struct {
	host     string
	platform string
}{
	{"facebook.com", "facebook"},
	{"instagram.com", "instagram"},
	{"twitter.com", "twitter"},
	{"x.com", "twitter"},
	{"tiktok.com", "tiktok"},
	{"youtube.com", "youtube"},
	{"yelp.com", "yelp"},
	{"tripadvisor.", "tripadvisor"},
}

func extractSocial(doc *goquery.Document) map[string]string {
	out := map[string]string{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil || u.Host == "" {
			return
		}
		host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
		for _, p := range socialPlatforms {
			if host == p.host || strings.HasSuffix(host, "."+p.host) || (strings.HasSuffix(p.host, ".") && strings.Contains(host, p.host)) {
				if _, seen := out[p.platform]; !seen {
					out[p.platform] = u.String()
				}
				return
			}
		}
	})
	return out
}

var hoursSelectors = []string{
	"[itemprop='openingHours']",
	"table.hours",
	".opening-hours",
	".hours",
	"#hours",
	"[class*='hours']",
	"footer",
}

func extractHours(doc *goquery.Document) (models.WeeklyHours, bool) {
	for _, sel := range hoursSelectors {
		var text strings.Builder
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if content, ok := s.Attr("content"); ok {
				text.WriteString(content)
				text.WriteString("\n")
			}
			// Row and cell boundaries become separators so days do not run together.
			s.Find("tr, li, p, br, div").Each(func(_ int, c *goquery.Selection) {
				c.AppendHtml("\n")
			})
			text.WriteString(s.Text())
			text.WriteString("\n")
		})
		if hours, ok := ParseHours(text.String()); ok {
			return hours, true
		}
	}
	return nil, false
}

func extractPhotos(doc *goquery.Document, base *url.URL) []models.ScrapedPhoto {
	out := []models.ScrapedPhoto{}
	seen := map[string]bool{}
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, _ := img.Attr("src")
		if src == "" {
			src, _ = img.Attr("data-src")
		}
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "data:") {
			return true
		}
		lower := strings.ToLower(src)
		if strings.Contains(lower, "logo") || strings.Contains(lower, "icon") || strings.Contains(lower, "sprite") {
			return true
		}
		abs := resolve(base, src)
		if abs == "" || seen[abs] {
			return true
		}
		seen[abs] = true
		alt, _ := img.Attr("alt")
		out = append(out, models.ScrapedPhoto{URL: abs, Alt: collapse(alt)})
		return len(out) < maxScrapedPhotos
	})
	return out
}

func extractDescription(doc *goquery.Document) string {
	for _, sel := range []string{"meta[name='description']", "meta[property='og:description']"} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if c := collapse(content); c != "" {
				return c
			}
		}
	}
	return collapse(doc.Find(".about p, #about p").First().Text())
}

func extractContact(doc *goquery.Document) models.Contact {
	var c models.Contact
	if href, ok := doc.Find("a[href^='tel:']").First().Attr("href"); ok {
		c.Phone = CleanPhone(strings.TrimPrefix(href, "tel:"))
	}
	if href, ok := doc.Find("a[href^='mailto:']").First().Attr("href"); ok {
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		c.Email = strings.TrimSpace(addr)
	}
	c.Address = collapse(doc.Find("[itemprop='address'], address").First().Text())
	return c
}

func extractReviews(doc *goquery.Document) []models.ScrapedReview {
	out := []models.ScrapedReview{}
	doc.Find("[itemprop='review'], .review, .testimonial").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := collapse(s.Find("[itemprop='reviewBody'], .review-text, p").First().Text())
		if text == "" {
			text = collapse(s.Text())
		}
		if text == "" {
			return true
		}
		out = append(out, models.ScrapedReview{
			Author: collapse(s.Find("[itemprop='author'], .author, .reviewer").First().Text()),
			Text:   text,
		})
		return len(out) < maxScrapedReviews
	})
	return out
}

// pricingFromMenu buckets the mean menu price into the dollar-sign scale.
func pricingFromMenu(items []models.MenuItem) models.Pricing {
	var sum float64
	var n int
	for _, it := range items {
		if it.Price > 0 {
			sum += it.Price
			n++
		}
	}
	if n == 0 {
		return models.Pricing{}
	}
	avg := sum / float64(n)
	p := models.Pricing{Currency: "USD"}
	switch {
	case avg < 15:
		p.Range = "$"
	case avg < 30:
		p.Range = "$$"
	case avg < 50:
		p.Range = "$$$"
	default:
		p.Range = "$$$$"
	}
	return p
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

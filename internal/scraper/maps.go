// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package scraper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/metrics"
	"github.com/tomtom215/afritable/internal/models"
)

// ErrMapsDisabled is returned when Maps scraping is switched off in config.
var ErrMapsDisabled = errors.New("maps scraping disabled")

const maxMapsPhotos = 10

// MapsScraper drives a headless Chrome against Google Maps to read a
// business panel.
type MapsScraper struct {
	cfg config.ScraperConfig
}

func NewMapsScraper(cfg config.ScraperConfig) *MapsScraper {
	return &MapsScraper{cfg: cfg}
}

func (m *MapsScraper) Enabled() bool {
	return m.cfg.MapsEnabled
}

// rawListing mirrors the object returned by extractListingJS.
type rawListing struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Phone   string   `json:"phone"`
	Website string   `json:"website"`
	Rating  string   `json:"rating"`
	Reviews string   `json:"reviews"`
	Photos  []string `json:"photos"`
}

// extractListingJS reads the business panel in one round-trip. Missing
// elements come back as empty strings rather than blocking on a selector.
const extractListingJS = `(() => {
  const text = (sel) => { const el = document.querySelector(sel); return el ? el.textContent.trim() : ""; };
  const attr = (sel, a) => { const el = document.querySelector(sel); return el ? (el.getAttribute(a) || "") : ""; };
  const photos = Array.from(document.querySelectorAll("button[jsaction*='heroHeaderImage'] img, div.RZ66Rb img, img[decoding='async']"))
    .map((i) => i.src).filter((s) => s && s.startsWith("http"));
  return {
    name: text("h1"),
    address: text("button[data-item-id='address']"),
    phone: text("button[data-item-id^='phone']"),
    website: attr("a[data-item-id='authority']", "href"),
    rating: text("div.F7nice span[aria-hidden='true']"),
    reviews: attr("div.F7nice span[aria-label*='review']", "aria-label"),
    photos: Array.from(new Set(photos)),
  };
})()`

// ScrapeMapsListing searches Maps for query and returns the first business panel.
func (m *MapsScraper) ScrapeMapsListing(ctx context.Context, query string) (*models.MapsListing, error) {
	if !m.cfg.MapsEnabled {
		return nil, ErrMapsDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("maps scrape: empty query")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(userAgents[0]),
		chromedp.WindowSize(1366, 900),
	)
	if m.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(m.cfg.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeout := m.cfg.MapsTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	runCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var raw rawListing
	err := chromedp.Run(runCtx,
		chromedp.Navigate(m.cfg.MapsURL),
		chromedp.WaitVisible(`#searchboxinput`, chromedp.ByQuery),
		chromedp.SendKeys(`#searchboxinput`, query+kb.Enter, chromedp.ByQuery),
		chromedp.WaitVisible(`h1`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(extractListingJS, &raw),
	)
	if err != nil {
		metrics.RecordScrape("maps", false)
		logging.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("Maps scrape failed")
		return nil, fmt.Errorf("maps scrape %q: %w", query, err)
	}

	listing := listingFromRaw(raw)
	metrics.RecordScrape("maps", listing.Name != "")
	return listing, nil
}

// listingFromRaw cleans the panel values. Placeholder phones and websites are dropped.
func listingFromRaw(raw rawListing) *models.MapsListing {
	l := &models.MapsListing{
		Name:    strings.TrimSpace(raw.Name),
		Address: strings.TrimSpace(raw.Address),
		Phone:   CleanPhone(raw.Phone),
		Website: CleanWebsite(raw.Website),
		Photos:  []string{},
	}
	if v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(raw.Rating), ",", ".", 1), 64); err == nil {
		l.Rating = models.RoundRating(v)
	}
	l.ReviewCount = leadingNumber(raw.Reviews)
	for _, p := range raw.Photos {
		if len(l.Photos) == maxMapsPhotos {
			break
		}
		l.Photos = append(l.Photos, p)
	}
	return l
}

// leadingNumber returns the first integer in s, ignoring thousands separators.
func leadingNumber(s string) int {
	var digits strings.Builder
	started := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
			started = true
		case started && (r == ',' || r == '.' || r == ' '):
		case started:
			n, _ := strconv.Atoi(digits.String())
			return n
		}
	}
	n, _ := strconv.Atoi(digits.String())
	return n
}

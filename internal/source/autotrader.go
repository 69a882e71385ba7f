package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/mtlprog/carfinder/internal/domain"
)

const autoTraderName = "AutoTrader"

// AutoTrader card selectors.
const (
	selListing = `[data-qaid="cntnr-listing"]`
	selTitle   = `[data-qaid="cntnr-title"]`
	selPrice   = `[data-qaid="cntnr-price"]`
	selMileage = `[data-qaid="cntnr-mileage"]`
	selDealer  = `[data-qaid="cntnr-dealershipName"]`
	selVIN     = `[data-qaid="cntnr-vin"]`
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// AutoTrader scrapes one AutoTrader.ca search results page. It is
// best-effort: markup changes make it return fewer or no listings.
type AutoTrader struct {
	searchURL string
	timeout   time.Duration
}

// NewAutoTrader creates a scraper for searchURL.
func NewAutoTrader(searchURL string) *AutoTrader {
	return &AutoTrader{searchURL: searchURL, timeout: 30 * time.Second}
}

func (a *AutoTrader) Name() string { return autoTraderName }

// FetchListings downloads the search page and parses its listing cards.
func (a *AutoTrader) FetchListings(ctx context.Context) ([]domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		listings []domain.Listing
		skipped  int
	)

	c := colly.NewCollector(colly.UserAgent(userAgent))
	c.SetRequestTimeout(a.timeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnHTML("body", func(e *colly.HTMLElement) {
		listings, skipped = parseCards(e.DOM, e.Request.URL)
	})

	if err := c.Visit(a.searchURL); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("visiting %s: %w", a.searchURL, err)
	}
	c.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if skipped > 0 {
		slog.Warn("skipped unparseable AutoTrader cards", "skipped", skipped, "parsed", len(listings))
	}
	return listings, nil
}

// ParseHTML extracts listings from a saved AutoTrader results page.
func ParseHTML(html string, base *url.URL) ([]domain.Listing, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("parsing HTML: %w", err)
	}
	listings, skipped := parseCards(doc.Selection, base)
	return listings, skipped, nil
}

// parseCards returns the listings found under root and the number of cards
// that could not be parsed.
func parseCards(root *goquery.Selection, base *url.URL) ([]domain.Listing, int) {
	var (
		listings []domain.Listing
		skipped  int
	)

	root.Find(selListing).Each(func(_ int, card *goquery.Selection) {
		listing, err := parseCard(card, base)
		if err != nil {
			slog.Debug("skipping AutoTrader card", "error", err)
			skipped++
			return
		}
		listings = append(listings, listing)
	})

	return listings, skipped
}

func parseCard(card *goquery.Selection, base *url.URL) (domain.Listing, error) {
	title := text(card, selTitle)
	if title == "" {
		return domain.Listing{}, fmt.Errorf("%w: card without title", domain.ErrMalformedListing)
	}

	price, ok := domain.ParseDigits(text(card, selPrice))
	if !ok {
		return domain.Listing{}, fmt.Errorf("%w: %q has no price", domain.ErrMalformedListing, title)
	}

	listing := domain.Listing{
		Source:     autoTraderName,
		Title:      title,
		PriceLocal: price,
		Dealer:     text(card, selDealer),
		VIN:        domain.NormalizeVIN(text(card, selVIN)),
	}

	if km, ok := domain.ParseDigits(text(card, selMileage)); ok {
		n := int(km.IntPart())
		listing.MileageKm = &n
	}

	if href, ok := card.Find("a").First().Attr("href"); ok {
		listing.URL = absoluteURL(base, href)
	}

	return listing, nil
}

func text(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

func absoluteURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

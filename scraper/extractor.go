package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/earny00/steam-hidden-gem-hunter/config"
	"github.com/earny00/steam-hidden-gem-hunter/models"
	"github.com/earny00/steam-hidden-gem-hunter/normalize"
)

// The header asset is a pure function of the app id, so it works as a
// deterministic fallback when the scraped thumbnail is unusable.
const headerImageTemplate = "https://shared.akamai.steamstatic.com/store_item_assets/steam/apps/%s/header.jpg"

const blankThumbMarker = "blank.gif"

var (
	appIDRe       = regexp.MustCompile(`/app/(\d+)`)
	reviewCountRe = regexp.MustCompile(`([\d,]+)`)
	ratingRe      = regexp.MustCompile(`(\d+)%`)
)

// PageState threads the scan position into a single page parse.
type PageState struct {
	Today     time.Time
	Collected int // candidates accumulated before this page
	Target    int // stop emitting once Collected reaches this
}

// Extractor turns one page of search-result markup into candidates,
// applying the recency, review-band and price filters and enriching
// survivors through the detail fetcher.
type Extractor struct {
	region      *config.Region
	filters     config.Filters
	details     DetailFetcher
	detailDelay time.Duration
}

func NewExtractor(region *config.Region, filters config.Filters, details DetailFetcher, detailDelay time.Duration) *Extractor {
	return &Extractor{
		region:      region,
		filters:     filters,
		details:     details,
		detailDelay: detailDelay,
	}
}

// ExtractPage parses one results_html fragment. It returns the surviving
// candidates in row order plus the raw row count, so the caller can tell
// "page full of rejects" apart from "end of the result set".
func (e *Extractor) ExtractPage(ctx context.Context, resultsHTML string, state PageState) ([]models.Candidate, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultsHTML))
	if err != nil {
		return nil, 0, fmt.Errorf("parse results html: %w", err)
	}

	rows := doc.Find("a.search_result_row")

	var out []models.Candidate
	collected := state.Collected
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if collected >= state.Target {
			return false
		}

		cand, ok := e.extractRow(ctx, row, state.Today)
		if !ok {
			return true
		}

		out = append(out, cand)
		collected++

		if e.detailDelay > 0 {
			time.Sleep(e.detailDelay)
		}
		return true
	})

	return out, rows.Length(), nil
}

// extractRow applies the per-row pipeline. Malformed or filtered rows
// report !ok and are silently excluded.
func (e *Extractor) extractRow(ctx context.Context, row *goquery.Selection, today time.Time) (models.Candidate, bool) {
	title := strings.TrimSpace(row.Find(".title").Text())
	if title == "" {
		return models.Candidate{}, false
	}

	href, _ := row.Attr("href")
	m := appIDRe.FindStringSubmatch(href)
	if m == nil {
		return models.Candidate{}, false
	}
	appID := m[1]

	dateText := strings.TrimSpace(row.Find(".search_released").Text())
	released, ok := normalize.ParseDate(dateText)
	if !ok {
		return models.Candidate{}, false
	}

	days := normalize.DaysBetween(released, today)
	if days < 0 || days > e.filters.FreshnessWindowDays {
		return models.Candidate{}, false
	}

	tooltip, ok := row.Find(".search_review_summary").Attr("data-tooltip-html")
	if !ok {
		return models.Candidate{}, false
	}
	cm := reviewCountRe.FindStringSubmatch(tooltip)
	if cm == nil {
		return models.Candidate{}, false
	}
	reviews, err := strconv.Atoi(strings.ReplaceAll(cm[1], ",", ""))
	if err != nil {
		return models.Candidate{}, false
	}
	if reviews < e.filters.ReviewMin || reviews > e.filters.ReviewMax {
		return models.Candidate{}, false
	}

	rating := 0
	if rm := ratingRe.FindStringSubmatch(tooltip); rm != nil {
		rating, _ = strconv.Atoi(rm[1])
	}

	priceText := strings.TrimSpace(row.Find(".discount_final_price").First().Text())
	if priceText == "" {
		priceText = strings.TrimSpace(row.Find(".search_price").First().Text())
	}
	if priceText == "" {
		priceText = e.region.Symbol + "0"
	}
	amount, display := normalize.ParsePrice(priceText, e.region.Symbol)
	if amount == 0 {
		return models.Candidate{}, false
	}

	details := e.details.FetchDetails(ctx, appID)

	return models.Candidate{
		Title:            title,
		AppID:            appID,
		ReleaseDate:      released,
		DaysSinceRelease: days,
		ReviewCount:      reviews,
		RatingPercent:    rating,
		PriceAmount:      amount,
		PriceDisplay:     display,
		ThumbnailURL:     e.thumbnail(row, appID),
		HeaderImageURL:   HeaderImageURL(appID),
		Description:      details.Description,
		Tags:             details.Tags,
		Screenshots:      details.Screenshots,
	}, true
}

// thumbnail prefers the highest-resolution srcset entry over the plain
// src attribute, and falls back to the derived header asset when the
// scraped reference is missing, too short or a known blank placeholder.
func (e *Extractor) thumbnail(row *goquery.Selection, appID string) string {
	img := row.Find("img").First()

	src, _ := img.Attr("src")
	if srcset, ok := img.Attr("srcset"); ok && srcset != "" {
		parts := strings.Split(srcset, ",")
		if len(parts) > 1 {
			fields := strings.Fields(strings.TrimSpace(parts[len(parts)-1]))
			if len(fields) > 0 {
				src = fields[0]
			}
		}
	}

	if len(src) < 10 || strings.Contains(src, blankThumbMarker) {
		return HeaderImageURL(appID)
	}
	return src
}

// HeaderImageURL builds the CDN header asset URL for an app id.
func HeaderImageURL(appID string) string {
	return fmt.Sprintf(headerImageTemplate, appID)
}

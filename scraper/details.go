package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/earny00/steam-hidden-gem-hunter/models"
)

const defaultDetailsURL = "https://store.steampowered.com/api/appdetails"

const (
	fallbackDescription = "no description"
	fallbackTags        = "uncategorized"
)

var htmlTagRe = regexp.MustCompile(`<[^<]+?>`)

// DetailFetcher enriches a candidate with description, category tags and
// screenshots. Implementations are total with respect to failure: they
// degrade to placeholder values and never return an error.
type DetailFetcher interface {
	FetchDetails(ctx context.Context, appID string) models.Details
}

// SteamDetailFetcher queries the appdetails endpoint for one app at a time.
type SteamDetailFetcher struct {
	client  *http.Client
	baseURL string
	region  string
}

func NewDetailFetcher(client *http.Client, region string) *SteamDetailFetcher {
	return &SteamDetailFetcher{
		client:  client,
		baseURL: defaultDetailsURL,
		region:  region,
	}
}

type detailsEntry struct {
	Success bool `json:"success"`
	Data    struct {
		ShortDescription string `json:"short_description"`
		Genres           []struct {
			Description string `json:"description"`
		} `json:"genres"`
		Screenshots []struct {
			PathFull string `json:"path_full"`
		} `json:"screenshots"`
	} `json:"data"`
}

// FetchDetails returns the enrichment triple for appID. Any failure along
// the way (request, timeout, decode, missing success flag, app absent from
// the response map) yields the degraded placeholder triple.
func (f *SteamDetailFetcher) FetchDetails(ctx context.Context, appID string) models.Details {
	degraded := models.Details{
		Description: fallbackDescription,
		Tags:        fallbackTags,
		Degraded:    true,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL, nil)
	if err != nil {
		return degraded
	}
	q := req.URL.Query()
	q.Set("appids", appID)
	q.Set("l", "korean")
	q.Set("cc", f.region)
	req.URL.RawQuery = q.Encode()

	resp, err := f.client.Do(req)
	if err != nil {
		return degraded
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return degraded
	}

	var payload map[string]detailsEntry
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return degraded
	}

	entry, ok := payload[appID]
	if !ok || !entry.Success {
		return degraded
	}

	details := models.Details{
		Description: stripTags(entry.Data.ShortDescription),
		Tags:        fallbackTags,
	}
	if details.Description == "" {
		details.Description = fallbackDescription
	}

	if len(entry.Data.Genres) > 0 {
		labels := make([]string, 0, len(entry.Data.Genres))
		for _, g := range entry.Data.Genres {
			labels = append(labels, g.Description)
		}
		details.Tags = strings.Join(labels, ", ")
	}

	for _, shot := range entry.Data.Screenshots {
		if shot.PathFull != "" {
			details.Screenshots = append(details.Screenshots, shot.PathFull)
		}
	}

	return details
}

func stripTags(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

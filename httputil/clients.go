package httputil

import (
	"net/http"
	"time"
)

// Clients splits the two storefront collaborators by timeout budget:
// search pages get a generous bound, appdetails lookups stay short so a
// slow enrichment can never stall the scan for long.
type Clients struct {
	Search  *http.Client // paginated search endpoint
	Details *http.Client // appdetails enrichment endpoint
}

func NewClients() *Clients {
	return &Clients{
		Search: &http.Client{
			Timeout: 10 * time.Second,
		},
		Details: &http.Client{
			Timeout: 3 * time.Second,
		},
	}
}

package geo

import "net/http"

const Unknown = "Unknown"

// Location is the coarse geographic origin of a request.
type Location struct {
	Country string
	Region  string
	City    string
}

// Locator resolves a request's origin. Implementations are best-effort
// and must fall back to Unknown rather than fail.
type Locator interface {
	Locate(r *http.Request) Location
}

// HeaderLocator trusts geography headers injected by an edge proxy or
// CDN in front of the service. Fields missing from the request come
// back as Unknown.
type HeaderLocator struct{}

func NewHeaderLocator() *HeaderLocator {
	return &HeaderLocator{}
}

func (HeaderLocator) Locate(r *http.Request) Location {
	return Location{
		Country: headerOr(r, "X-Geo-Country", Unknown),
		Region:  headerOr(r, "X-Geo-Region", Unknown),
		City:    headerOr(r, "X-Geo-City", Unknown),
	}
}

func headerOr(r *http.Request, key, fallback string) string {
	if v := r.Header.Get(key); v != "" {
		return v
	}
	return fallback
}

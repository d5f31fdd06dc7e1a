package middleware

import (
	"cmp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"shortlink/internal/domain"
	"shortlink/internal/geo"
	"shortlink/internal/useragent"
)

const clickContextKey = "click_event"

// CollectClick derives an analytics event from the incoming redirect
// request before the handler runs. The handler decides whether the
// event is actually recorded; a failed resolve records nothing.
func CollectClick(locator geo.Locator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			ua := r.Header.Get("User-Agent")
			location := locator.Locate(r)

			c.Set(clickContextKey, &domain.ClickEvent{
				ID:        uuid.NewString(),
				Timestamp: time.Now().UTC(),
				IP:        sanitizeIP(c.RealIP()),
				Country:   location.Country,
				Region:    location.Region,
				City:      location.City,
				Browser:   useragent.Browser(ua),
				Platform:  useragent.Platform(ua),
				Referrer:  cmp.Or(r.Header.Get("Referer"), "Direct"),
			})
			return next(c)
		}
	}
}

// ClickFrom returns the event prepared by CollectClick, or nil.
func ClickFrom(c echo.Context) *domain.ClickEvent {
	event, _ := c.Get(clickContextKey).(*domain.ClickEvent)
	return event
}

// sanitizeIP strips everything up to the last colon, collapsing
// IPv4-mapped IPv6 forms like ::ffff:10.0.0.1 to the trailing IPv4
// part and bare IPv6 addresses to their final group.
func sanitizeIP(ip string) string {
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		return ip[idx+1:]
	}
	return ip
}

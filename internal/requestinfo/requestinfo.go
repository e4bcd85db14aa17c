//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request visitor hints
//  (user-agent fingerprint, client IP, country, and timestamp).  The
//  newsletter analytics sink reads them to tag subscription events.  These
//  structs are inert, so they are safe to log or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"net"
	"strings"
	"time"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties.
type UA struct {
	Browser     string // "Chrome", "Firefox", "Safari", etc.
	OS          string // "macOS", "Windows", "Android", "iOS", etc.
	Device      string // "Desktop", "Mobile", "Tablet", "Bot", or "Other"
	IsBot       bool
	PrimaryLang string // First tag from Accept-Language ("en", "pt-br", ...)
}

// Geo holds IP-based hints.  CountryISO is empty without a GeoLite2 DB.
type Geo struct {
	IP         net.IP
	CountryISO string
}

// RequestInfo is stored in the request context by Enrich.
type RequestInfo struct {
	UA        UA
	Geo       Geo
	Timestamp time.Time
}

//
//  -----------------------------
//  Geo locator
//  -----------------------------
//

// Locator wraps a MaxMind country database.  A nil *Locator is valid and
// resolves nothing.
type Locator struct {
	db *geoip2.Reader
}

// OpenLocator opens a GeoLite2 Country (or City) database.
func OpenLocator(path string) (*Locator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &Locator{db: db}, nil
}

// Close releases the database handle.
func (l *Locator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Country returns the ISO code for ip, or "" when unknown.
func (l *Locator) Country(ip net.IP) string {
	if l == nil || l.db == nil || ip == nil {
		return ""
	}
	rec, err := l.db.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}

//
//  -----------------------------
//  Context helpers
//  -----------------------------
//

type ctxKey struct{}

// FromContext returns the info stored by Enrich, or nil.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// NewContext returns ctx carrying info.
func NewContext(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

//
//  -----------------------------
//  Parsing helpers
//  -----------------------------
//

// ParseUA converts the raw headers into a UA.
func ParseUA(uaHeader, acceptLang string) UA {
	u := surfer.Parse(uaHeader)

	osName := strings.TrimPrefix(u.OS.Name.String(), "OS")
	if osName == "MacOSX" {
		osName = "macOS"
	}

	return UA{
		Browser:     strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		OS:          osName,
		Device:      deviceName(u),
		IsBot:       u.IsBot(),
		PrimaryLang: primaryLang(acceptLang),
	}
}

func deviceName(u *surfer.UserAgent) string {
	if u.IsBot() {
		return "Bot"
	}
	switch u.DeviceType {
	case surfer.DeviceComputer:
		return "Desktop"
	case surfer.DeviceTablet:
		return "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		return "Mobile"
	default:
		return "Other"
	}
}

// primaryLang extracts the first language tag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag := strings.TrimSpace(strings.Split(al, ",")[0])
	if i := strings.Index(tag, ";"); i != -1 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

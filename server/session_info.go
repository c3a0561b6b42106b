package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/jrsteele09/go-realm-auth/sessions"
	"github.com/ua-parser/uap-go/uaparser"
)

const (
	fallbackIP     = "127.0.0.1"
	unknownField   = "Unknown"
	headerCountry  = "CF-IPCountry"
	headerRealIP   = "X-Real-IP"
	headerForwards = "X-Forwarded-For"
)

// SessionInfoMiddleware derives the device description stored with every
// session opened by the request.
func (s *Server) SessionInfoMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := ExtractSessionInfo(r)
		ctx := context.WithValue(r.Context(), ContextKeySessionInfo, info)
		next(w, r.WithContext(ctx))
	}
}

func sessionInfoFrom(ctx context.Context) sessions.Info {
	if info, ok := ctx.Value(ContextKeySessionInfo).(sessions.Info); ok {
		return info
	}
	return sessions.Info{IPAddress: fallbackIP}
}

// ExtractSessionInfo reads the client ip, user agent and country from r.
func ExtractSessionInfo(r *http.Request) sessions.Info {
	ua := r.UserAgent()
	parsed := parseUserAgent(ua)
	country := strings.ToUpper(strings.TrimSpace(r.Header.Get(headerCountry)))
	if country == "" {
		country = unknownField
	}
	return sessions.Info{
		IPAddress:       clientIP(r),
		UserAgent:       ua,
		Browser:         parsed.browser,
		BrowserVersion:  parsed.version,
		OperatingSystem: parsed.os,
		DeviceType:      parsed.device,
		CountryCode:     country,
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's remote address. Values that do not parse as an ip are skipped.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get(headerForwards); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get(headerRealIP))); ip != nil {
		return ip.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return fallbackIP
}

// uaParser compiles the bundled uap-core regexes on first use.
var uaParser = sync.OnceValue(uaparser.NewFromSaved)

// desktopOS lists the uap-core os families reported as desktop when no
// device family is recognised.
var desktopOS = map[string]bool{
	"Windows":   true,
	"Mac OS X":  true,
	"Linux":     true,
	"Ubuntu":    true,
	"Fedora":    true,
	"Debian":    true,
	"Chrome OS": true,
	"FreeBSD":   true,
}

type userAgent struct {
	browser, version, os, device string
}

func parseUserAgent(ua string) userAgent {
	if strings.TrimSpace(ua) == "" {
		return userAgent{unknownField, unknownField, unknownField, unknownField}
	}
	c := uaParser().Parse(ua)
	return userAgent{
		browser: orUnknown(c.UserAgent.Family),
		version: orUnknown(c.UserAgent.ToVersionString()),
		os:      orUnknown(c.Os.Family),
		device:  deviceType(c),
	}
}

// deviceType folds the uap-core device family into tablet, mobile, desktop,
// bot or other.
func deviceType(c *uaparser.Client) string {
	family := c.Device.Family
	switch {
	case family == "Spider":
		return "bot"
	case strings.Contains(family, "iPad"), strings.Contains(family, "Kindle"),
		strings.Contains(strings.ToLower(family), "tablet"):
		return "tablet"
	case family != "" && family != "Other":
		return "mobile"
	case c.Os.Family == "Android", c.Os.Family == "iOS":
		return "mobile"
	case desktopOS[c.Os.Family]:
		return "desktop"
	}
	return "other"
}

func orUnknown(v string) string {
	if v == "" || v == "Other" {
		return unknownField
	}
	return v
}

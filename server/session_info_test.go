package server_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/go-realm-auth/server"
	"github.com/stretchr/testify/require"
)

func TestExtractSessionInfo_IP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"first forwarded hop", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.2:5000", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:5000", "198.51.100.4"},
		{"garbage forwarded falls through", map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "198.51.100.4"}, "10.0.0.2:5000", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.10:1234", "192.0.2.10"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"fallback", nil, "pipe", "127.0.0.1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", nil)
			req.RemoteAddr = c.remote
			for k, v := range c.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, c.want, server.ExtractSessionInfo(req).IPAddress)
		})
	}
}

func TestExtractSessionInfo_UserAgent(t *testing.T) {
	cases := []struct {
		name    string
		ua      string
		browser string
		version string // prefix
		os      string
		device  string
	}{
		{
			name:    "chrome on windows",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			browser: "Chrome", version: "126.0", os: "Windows", device: "desktop",
		},
		{
			name:    "edge",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.2592.56",
			browser: "Edge", version: "126.0", os: "Windows", device: "desktop",
		},
		{
			name:    "safari on iphone",
			ua:      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
			browser: "Mobile Safari", version: "17.5", os: "iOS", device: "mobile",
		},
		{
			name:    "firefox on linux",
			ua:      "Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
			browser: "Firefox", version: "127.0", os: "Linux", device: "desktop",
		},
		{
			name:    "chrome on android",
			ua:      "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
			browser: "Chrome Mobile", version: "126.0", os: "Android", device: "mobile",
		},
		{
			name:    "empty",
			browser: "Unknown", version: "Unknown", os: "Unknown", device: "Unknown",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", nil)
			req.Header.Set("User-Agent", c.ua)
			info := server.ExtractSessionInfo(req)
			require.Equal(t, c.ua, info.UserAgent)
			require.Equal(t, c.browser, info.Browser)
			require.True(t, strings.HasPrefix(info.BrowserVersion, c.version), info.BrowserVersion)
			require.Equal(t, c.os, info.OperatingSystem)
			require.Equal(t, c.device, info.DeviceType)
		})
	}
}

func TestExtractSessionInfo_Country(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	require.Equal(t, "Unknown", server.ExtractSessionInfo(req).CountryCode)

	req.Header.Set("CF-IPCountry", "gb")
	require.Equal(t, "GB", server.ExtractSessionInfo(req).CountryCode)
}

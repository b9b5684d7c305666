package normalize

import (
	"net"
	"net/url"
	"path"
	"strings"
)

// Tracking parameters stripped from canonical URLs.
var (
	trackingPrefixes = []string{"utm_", "hsa_"}
	trackingKeys     = map[string]struct{}{
		"gclid":   {},
		"fbclid":  {},
		"mc_cid":  {},
		"mc_eid":  {},
		"_hsenc":  {},
		"_hsmi":   {},
		"ref":     {},
		"ref_src": {},
		"ref_url": {},
	}
)

// Canonicalize resolves href against base and normalizes the result.
//
// Non-http(s) schemes (mailto:, tel:, javascript:, data:) are returned
// trimmed but otherwise untouched. Protocol-relative hrefs become https.
// A relative href without a base, or anything unparsable, yields "".
func Canonicalize(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	scheme := strings.ToLower(getScheme(href))
	if scheme != "" && !isHTTPScheme(scheme) {
		return href
	}

	switch {
	case strings.HasPrefix(href, "//"):
		href = "https:" + href
	case scheme == "":
		base = strings.TrimSpace(base)
		if base == "" {
			return ""
		}
		baseURL, err := url.Parse(base)
		if err != nil {
			return ""
		}
		ref, err := url.Parse(href)
		if err != nil {
			return ""
		}
		href = baseURL.ResolveReference(ref).String()
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if !isHTTPScheme(u.Scheme) {
		return href
	}
	if u.Host == "" {
		return ""
	}

	u.Host = normalizeHost(u.Scheme, u.Host)
	setPath(u)
	u.RawQuery = stripTracking(u.RawQuery)
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	return u.String()
}

// IsAbsoluteHTTP reports whether s is an absolute http(s) URL.
func IsAbsoluteHTTP(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isHTTPScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

// getScheme mirrors net/url's scheme detection without failing on the rest
// of the string, so opaque values like "mailto:%zz" still pass through.
func getScheme(raw string) string {
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' || c == '+' || c == '-' || c == '.':
			if i == 0 {
				return ""
			}
		case c == ':':
			if i == 0 {
				return ""
			}
			return raw[:i]
		default:
			return ""
		}
	}
	return ""
}

func normalizeHost(scheme, hostport string) string {
	host, port := hostport, ""
	if h, p, err := net.SplitHostPort(hostport); err == nil {
		host, port = h, p
	}
	host = strings.ToLower(host)

	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port == "" {
		if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}

// setPath collapses duplicate slashes and resolves dot segments while
// keeping the original percent-encoding.
func setPath(u *url.URL) {
	cleaned := cleanPath(u.EscapedPath())
	unescaped, err := url.PathUnescape(cleaned)
	if err != nil {
		u.Path = cleanPath(u.Path)
		u.RawPath = ""
		return
	}
	u.Path = unescaped
	u.RawPath = cleaned
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return "/"
	}
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	return cleaned
}

// stripTracking drops tracking parameters and keeps every other pair, in
// order, including ones with empty values.
func stripTracking(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	kept := make([]string, 0, strings.Count(rawQuery, "&")+1)
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			value = rawValue
		}
		if isTrackingParam(key) {
			continue
		}
		kept = append(kept, url.QueryEscape(key)+"="+url.QueryEscape(value))
	}
	return strings.Join(kept, "&")
}

func isTrackingParam(key string) bool {
	lk := strings.ToLower(key)
	if _, ok := trackingKeys[lk]; ok {
		return true
	}
	for _, prefix := range trackingPrefixes {
		if strings.HasPrefix(lk, prefix) {
			return true
		}
	}
	return false
}

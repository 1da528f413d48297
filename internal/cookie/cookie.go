// Package cookie parses Netscape-format cookie containers and filters the
// parsed records by target domain.
package cookie

import "strings"

const (
	httpOnlyPrefix = "#HttpOnly_"

	// Transport caps applied when a cookie is attached to a session.
	MaxNameLen  = 100
	MaxValueLen = 4000
)

// Cookie is one parsed session cookie record.
type Cookie struct {
	Domain  string
	Path    string
	Secure  bool
	Expires string
	Name    string
	Value   string
}

// Parse splits a cookie container into records. Lines starting with
// "#HttpOnly_" have the marker stripped (they are real cookies), other
// comment lines and anything with fewer than 7 tab-separated fields are
// skipped. An empty result is not an error; the caller decides what an
// empty container means.
func Parse(content string) []Cookie {
	var cookies []Cookie
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, httpOnlyPrefix) {
			line = line[len(httpOnlyPrefix):]
		} else if strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 7 {
			continue
		}
		if parts[5] == "" || parts[6] == "" {
			continue
		}
		cookies = append(cookies, Cookie{
			Domain:  parts[0],
			Path:    parts[2],
			Secure:  strings.EqualFold(parts[3], "TRUE"),
			Expires: parts[4],
			Name:    parts[5],
			Value:   parts[6],
		})
	}
	return cookies
}

// FilterByDomain keeps cookies whose domain equals one of the target
// suffixes or ends with it. Input order is preserved.
func FilterByDomain(cookies []Cookie, targetDomains []string) []Cookie {
	var filtered []Cookie
	for _, c := range cookies {
		for _, target := range targetDomains {
			if c.Domain == target || strings.HasSuffix(c.Domain, target) {
				filtered = append(filtered, c)
				break
			}
		}
	}
	return filtered
}

// BareDomain strips the leading wildcard dot so the cookie can be scoped
// to a concrete host.
func (c Cookie) BareDomain() string {
	return strings.TrimPrefix(c.Domain, ".")
}

// CappedName returns the cookie name truncated to the transport limit.
func (c Cookie) CappedName() string {
	if len(c.Name) > MaxNameLen {
		return c.Name[:MaxNameLen]
	}
	return c.Name
}

// CappedValue returns the cookie value truncated to the transport limit.
func (c Cookie) CappedValue() string {
	if len(c.Value) > MaxValueLen {
		return c.Value[:MaxValueLen]
	}
	return c.Value
}

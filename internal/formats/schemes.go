package formats

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// ProxySchemes lists every recognized proxy URI scheme prefix.
// Matching is case-insensitive and prefix-based.
var ProxySchemes = []string{
	"vmess://", "vless://", "trojan://",
	"ss://", "ssr://",
	"hysteria2://", "hy2://", "hysteria://",
	"tuic://",
	"wireguard://", "wg://",
	"socks://", "socks5://", "socks4://",
	"anytls://",
	"juicity://",
	"warp://",
	"dns://", "dnstt://",
}

// proxyURIRe extracts proxy URIs embedded mid-line, e.g. a config link
// pasted after channel decoration text.
var proxyURIRe = func() *regexp.Regexp {
	quoted := make([]string, len(ProxySchemes))
	for i, s := range ProxySchemes {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)[^\s<>"']+`)
}()

// IsProxyLine reports whether the line starts with a known proxy URI
// scheme.
func IsProxyLine(line string) bool {
	lower := strings.ToLower(line)
	for _, s := range ProxySchemes {
		if strings.HasPrefix(lower, s) {
			return true
		}
	}
	return false
}

// ExtractProxyURIs returns all proxy URIs found anywhere in text.
func ExtractProxyURIs(text string) []string {
	return proxyURIRe.FindAllString(text, -1)
}

// CanonicalLine normalizes a config line for dedup hashing: trimmed,
// inner control characters removed, and the scheme portion lowercased
// so cosmetic scheme casing does not defeat dedup.
func CanonicalLine(line string) string {
	clean := strings.TrimSpace(line)
	clean = strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' || r == '\t' {
			return -1
		}
		return r
	}, clean)
	if idx := strings.Index(clean, "://"); idx > 0 {
		clean = strings.ToLower(clean[:idx]) + clean[idx:]
	}
	return clean
}

// maybeUnwrapBase64 undoes whole-blob base64 wrapping, common for
// subscription payloads. A blob qualifies when it has no URI separator
// and no spaces, and its decode contains a known scheme; otherwise the
// text is returned unchanged.
func maybeUnwrapBase64(text string) string {
	clean := strings.TrimSpace(text)
	if len(clean) <= 10 || strings.Contains(clean, "://") || strings.ContainsAny(clean, " \t") {
		return text
	}
	compact := strings.Join(strings.Fields(clean), "")
	decoded, err := base64.StdEncoding.DecodeString(pad(compact))
	if err != nil {
		if decoded, err = base64.URLEncoding.DecodeString(pad(compact)); err != nil {
			return text
		}
	}
	unwrapped := string(decoded)
	lower := strings.ToLower(unwrapped)
	for _, s := range ProxySchemes {
		if strings.Contains(lower, s) {
			return unwrapped
		}
	}
	return text
}

// pad restores stripped base64 padding.
func pad(s string) string {
	if m := len(s) % 4; m != 0 {
		return s + strings.Repeat("=", 4-m)
	}
	return s
}

// SniffProxyText reports whether a content preview looks like proxy
// URI text: the first non-empty line carries a known scheme, or the
// whole preview is a base64 blob that unwraps to scheme text. Used by
// the router's content-based fallback.
func SniffProxyText(preview []byte) bool {
	text := string(preview)
	for _, line := range strings.Split(text, "\n") {
		clean := strings.TrimSpace(line)
		if clean == "" {
			continue
		}
		if IsProxyLine(clean) || len(ExtractProxyURIs(clean)) > 0 {
			return true
		}
		break
	}
	unwrapped := maybeUnwrapBase64(text)
	if unwrapped != text {
		return true
	}
	return false
}

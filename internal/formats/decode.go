package formats

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DecodedEntry is one proxy URI decoded into structured form for the
// derived JSON artifact. Raw always carries the original line so the
// artifact never loses information.
type DecodedEntry struct {
	Protocol string         `json:"protocol"`
	Raw      string         `json:"raw"`
	Decoded  map[string]any `json:"decoded,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// DecodedDocument is the ordered aggregate of all decoded entries for
// a route's proxy artifact.
type DecodedDocument struct {
	Total     int            `json:"total"`
	Protocols map[string]int `json:"protocols"`
	Entries   []DecodedEntry `json:"entries"`
}

// DecodeProxyLines decodes each proxy URI line into a structured entry
// and aggregates them into one ordered JSON document. Lines that fail
// scheme-specific decoding keep their raw form with an error marker.
func DecodeProxyLines(lines []string) ([]byte, error) {
	doc := DecodedDocument{Protocols: make(map[string]int)}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entry := DecodeProxyURI(line)
		doc.Entries = append(doc.Entries, entry)
		doc.Protocols[entry.Protocol]++
	}
	doc.Total = len(doc.Entries)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding decoded document: %w", err)
	}
	return data, nil
}

// DecodeProxyURI decodes a single proxy URI. The base64-delimited
// schemes (vmess, ss, ssr) unwrap their payload segment; every other
// scheme goes through generic URI parsing.
func DecodeProxyURI(line string) DecodedEntry {
	scheme := uriScheme(line)
	entry := DecodedEntry{Protocol: scheme, Raw: line}
	if scheme == "" {
		entry.Protocol = "unknown"
		return entry
	}

	var (
		decoded map[string]any
		err     error
	)
	switch scheme {
	case "vmess":
		decoded, err = decodeVmess(line)
	case "ss":
		decoded, err = decodeShadowsocks(line)
	case "ssr":
		decoded, err = decodeShadowsocksR(line)
	default:
		decoded, err = decodeGenericURI(line)
	}
	if err != nil {
		entry.Error = "decode_failed"
		return entry
	}
	entry.Decoded = decoded
	return entry
}

// uriScheme returns the lowercased scheme of a URI, or "".
func uriScheme(line string) string {
	idx := strings.Index(line, "://")
	if idx <= 0 {
		return ""
	}
	return strings.ToLower(line[:idx])
}

// decodeVmess unwraps the base64 JSON payload of a vmess URI.
func decodeVmess(line string) (map[string]any, error) {
	payload := line[len("vmess://"):]
	raw, err := decodeBase64Loose(payload)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("vmess payload is not JSON: %w", err)
	}
	return obj, nil
}

// decodeShadowsocks handles both SIP002 form
// (ss://base64(method:password)@host:port#tag) and the legacy form
// where the whole authority is one base64 blob.
func decodeShadowsocks(line string) (map[string]any, error) {
	body := line[len("ss://"):]
	if frag := strings.IndexByte(body, '#'); frag >= 0 {
		body = body[:frag]
	}

	if at := strings.LastIndexByte(body, '@'); at >= 0 {
		// SIP002: userinfo is base64(method:password).
		userinfo, hostport := body[:at], body[at+1:]
		method, password, err := splitSSUserinfo(userinfo)
		if err != nil {
			return nil, err
		}
		host, port := splitHostPort(hostport)
		out := map[string]any{
			"method":   method,
			"password": password,
			"server":   host,
		}
		if port != "" {
			out["port"] = port
		}
		addFragment(out, line)
		return out, nil
	}

	// Legacy: ss://base64(method:password@host:port)
	raw, err := decodeBase64Loose(body)
	if err != nil {
		return nil, err
	}
	text := string(raw)
	at := strings.LastIndexByte(text, '@')
	if at < 0 {
		return nil, fmt.Errorf("shadowsocks legacy payload missing authority")
	}
	methodPass, hostport := text[:at], text[at+1:]
	method, password, ok := strings.Cut(methodPass, ":")
	if !ok {
		return nil, fmt.Errorf("shadowsocks legacy payload missing method")
	}
	host, port := splitHostPort(hostport)
	out := map[string]any{
		"method":   method,
		"password": password,
		"server":   host,
	}
	if port != "" {
		out["port"] = port
	}
	addFragment(out, line)
	return out, nil
}

// splitSSUserinfo decodes SIP002 userinfo, which may be plain
// method:password or a base64 wrapping of it.
func splitSSUserinfo(userinfo string) (method, password string, err error) {
	// The base64 alphabet has no colon, so a colon means plain form.
	if m, p, ok := strings.Cut(userinfo, ":"); ok {
		return m, p, nil
	}
	raw, err := decodeBase64Loose(userinfo)
	if err != nil {
		return "", "", err
	}
	m, p, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", "", fmt.Errorf("shadowsocks userinfo missing separator")
	}
	return m, p, nil
}

// decodeShadowsocksR unwraps the full base64 SSR payload:
// host:port:protocol:method:obfs:base64(password)/?params.
func decodeShadowsocksR(line string) (map[string]any, error) {
	raw, err := decodeBase64Loose(line[len("ssr://"):])
	if err != nil {
		return nil, err
	}
	text := string(raw)

	main, params, _ := strings.Cut(text, "/?")
	parts := strings.Split(main, ":")
	if len(parts) < 6 {
		return nil, fmt.Errorf("shadowsocksr payload has %d fields, want 6", len(parts))
	}
	// The host may itself contain colons (IPv6); the trailing five
	// fields are fixed, everything before them is the host.
	tail := parts[len(parts)-5:]
	host := strings.Join(parts[:len(parts)-5], ":")

	out := map[string]any{
		"server":   host,
		"port":     tail[0],
		"protocol": tail[1],
		"method":   tail[2],
		"obfs":     tail[3],
	}
	if password, err := decodeBase64Loose(tail[4]); err == nil {
		out["password"] = string(password)
	}

	if params != "" {
		query := make(map[string]any)
		for _, kv := range strings.Split(params, "&") {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				continue
			}
			if decoded, err := decodeBase64Loose(v); err == nil {
				query[k] = string(decoded)
			} else {
				query[k] = v
			}
		}
		if len(query) > 0 {
			out["params"] = query
		}
	}
	return out, nil
}

// decodeGenericURI parses scheme, userinfo, host, port, query and
// fragment for all non-base64-delimited schemes.
func decodeGenericURI(line string) (map[string]any, error) {
	u, err := url.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("parsing uri: %w", err)
	}
	out := map[string]any{"server": u.Hostname()}
	if u.User != nil {
		out["user"] = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			out["password"] = pass
		}
	}
	if port := u.Port(); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			out["port"] = n
		}
	}
	if q := u.Query(); len(q) > 0 {
		query := make(map[string]any, len(q))
		for k, vs := range q {
			if len(vs) == 1 {
				query[k] = vs[0]
			} else {
				query[k] = vs
			}
		}
		out["query"] = query
	}
	if u.Fragment != "" {
		out["name"] = u.Fragment
	}
	return out, nil
}

// splitHostPort splits host:port, tolerating a missing port and IPv6
// bracket notation.
func splitHostPort(hostport string) (host, port string) {
	if strings.HasPrefix(hostport, "[") {
		if end := strings.IndexByte(hostport, ']'); end > 0 {
			host = hostport[1:end]
			if len(hostport) > end+1 && hostport[end+1] == ':' {
				port = hostport[end+2:]
			}
			return host, port
		}
	}
	if idx := strings.LastIndexByte(hostport, ':'); idx >= 0 {
		return hostport[:idx], hostport[idx+1:]
	}
	return hostport, ""
}

// addFragment copies the URI fragment (display name) into the decoded
// structure when present.
func addFragment(out map[string]any, line string) {
	if idx := strings.IndexByte(line, '#'); idx >= 0 && idx+1 < len(line) {
		if name, err := url.QueryUnescape(line[idx+1:]); err == nil {
			out["name"] = name
		}
	}
}

// decodeBase64Loose decodes standard or URL-safe base64 with or
// without padding.
func decodeBase64Loose(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.URLEncoding,
		base64.RawStdEncoding, base64.RawURLEncoding,
	} {
		if raw, err := enc.DecodeString(s); err == nil {
			return raw, nil
		}
	}
	if raw, err := base64.StdEncoding.DecodeString(pad(s)); err == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("not base64")
}

package formats

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProxyURI_Vmess(t *testing.T) {
	payload := map[string]any{"add": "1.2.3.4", "port": "443", "id": "uuid", "ps": "name"}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	line := "vmess://" + base64.StdEncoding.EncodeToString(raw)

	entry := DecodeProxyURI(line)
	assert.Equal(t, "vmess", entry.Protocol)
	assert.Empty(t, entry.Error)
	assert.Equal(t, "1.2.3.4", entry.Decoded["add"])
	assert.Equal(t, "name", entry.Decoded["ps"])
	assert.Equal(t, line, entry.Raw)
}

func TestDecodeProxyURI_VmessBadPayload(t *testing.T) {
	entry := DecodeProxyURI("vmess://%%%not-base64%%%")
	assert.Equal(t, "vmess", entry.Protocol)
	assert.Equal(t, "decode_failed", entry.Error)
	assert.Nil(t, entry.Decoded)
}

func TestDecodeProxyURI_ShadowsocksSIP002(t *testing.T) {
	userinfo := base64.RawURLEncoding.EncodeToString([]byte("chacha20-ietf-poly1305:secret"))
	line := "ss://" + userinfo + "@server.example:8388#My%20Server"

	entry := DecodeProxyURI(line)
	require.Empty(t, entry.Error)
	assert.Equal(t, "ss", entry.Protocol)
	assert.Equal(t, "chacha20-ietf-poly1305", entry.Decoded["method"])
	assert.Equal(t, "secret", entry.Decoded["password"])
	assert.Equal(t, "server.example", entry.Decoded["server"])
	assert.Equal(t, "8388", entry.Decoded["port"])
	assert.Equal(t, "My Server", entry.Decoded["name"])
}

func TestDecodeProxyURI_ShadowsocksPlainUserinfo(t *testing.T) {
	entry := DecodeProxyURI("ss://aes-256-gcm:pw@host:1234")
	require.Empty(t, entry.Error)
	assert.Equal(t, "aes-256-gcm", entry.Decoded["method"])
	assert.Equal(t, "pw", entry.Decoded["password"])
}

func TestDecodeProxyURI_ShadowsocksLegacy(t *testing.T) {
	line := "ss://" + base64.StdEncoding.EncodeToString([]byte("rc4-md5:pass@1.2.3.4:8388"))

	entry := DecodeProxyURI(line)
	require.Empty(t, entry.Error)
	assert.Equal(t, "rc4-md5", entry.Decoded["method"])
	assert.Equal(t, "pass", entry.Decoded["password"])
	assert.Equal(t, "1.2.3.4", entry.Decoded["server"])
	assert.Equal(t, "8388", entry.Decoded["port"])
}

func TestDecodeProxyURI_ShadowsocksR(t *testing.T) {
	password := base64.RawURLEncoding.EncodeToString([]byte("pw"))
	remarks := base64.RawURLEncoding.EncodeToString([]byte("tag"))
	inner := "1.2.3.4:8388:origin:aes-128-cfb:plain:" + password + "/?remarks=" + remarks
	line := "ssr://" + base64.RawURLEncoding.EncodeToString([]byte(inner))

	entry := DecodeProxyURI(line)
	require.Empty(t, entry.Error)
	assert.Equal(t, "ssr", entry.Protocol)
	assert.Equal(t, "1.2.3.4", entry.Decoded["server"])
	assert.Equal(t, "8388", entry.Decoded["port"])
	assert.Equal(t, "origin", entry.Decoded["protocol"])
	assert.Equal(t, "aes-128-cfb", entry.Decoded["method"])
	assert.Equal(t, "plain", entry.Decoded["obfs"])
	assert.Equal(t, "pw", entry.Decoded["password"])
	params := entry.Decoded["params"].(map[string]any)
	assert.Equal(t, "tag", params["remarks"])
}

func TestDecodeProxyURI_ShadowsocksRIPv6Host(t *testing.T) {
	password := base64.RawURLEncoding.EncodeToString([]byte("pw"))
	inner := "2001:db8::1:8388:origin:aes-128-cfb:plain:" + password
	line := "ssr://" + base64.RawURLEncoding.EncodeToString([]byte(inner))

	entry := DecodeProxyURI(line)
	require.Empty(t, entry.Error)
	assert.Equal(t, "2001:db8::1", entry.Decoded["server"])
	assert.Equal(t, "8388", entry.Decoded["port"])
}

func TestDecodeProxyURI_GenericVless(t *testing.T) {
	entry := DecodeProxyURI("vless://uuid-here@host.example:443?type=ws&security=tls#Name")
	require.Empty(t, entry.Error)
	assert.Equal(t, "vless", entry.Protocol)
	assert.Equal(t, "uuid-here", entry.Decoded["user"])
	assert.Equal(t, "host.example", entry.Decoded["server"])
	assert.Equal(t, 443, entry.Decoded["port"])
	query := entry.Decoded["query"].(map[string]any)
	assert.Equal(t, "ws", query["type"])
	assert.Equal(t, "Name", entry.Decoded["name"])
}

func TestDecodeProxyURI_Hysteria2(t *testing.T) {
	entry := DecodeProxyURI("hysteria2://auth@host:443?insecure=1#fast")
	require.Empty(t, entry.Error)
	assert.Equal(t, "hysteria2", entry.Protocol)
	assert.Equal(t, "host", entry.Decoded["server"])
}

func TestDecodeProxyURI_Unknown(t *testing.T) {
	entry := DecodeProxyURI("no scheme at all")
	assert.Equal(t, "unknown", entry.Protocol)
	assert.Equal(t, "no scheme at all", entry.Raw)
}

func TestDecodeProxyLines_Aggregates(t *testing.T) {
	lines := []string{
		"vless://a@h1:443",
		"vless://b@h2:443",
		"trojan://pw@h3:443",
		"",
	}
	data, err := DecodeProxyLines(lines)
	require.NoError(t, err)

	var doc DecodedDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 3, doc.Total)
	assert.Equal(t, 2, doc.Protocols["vless"])
	assert.Equal(t, 1, doc.Protocols["trojan"])
	require.Len(t, doc.Entries, 3)
	assert.Equal(t, "vless://a@h1:443", doc.Entries[0].Raw)
}

func TestDecodeProxyLines_KeepsFailedEntries(t *testing.T) {
	data, err := DecodeProxyLines([]string{"vmess://!!!"})
	require.NoError(t, err)

	var doc DecodedDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "decode_failed", doc.Entries[0].Error)
	assert.Equal(t, "vmess://!!!", doc.Entries[0].Raw)
}

func TestSplitHostPort(t *testing.T) {
	host, port := splitHostPort("example.com:443")
	assert.Equal(t, "example.com", host)
	assert.Equal(t, "443", port)

	host, port = splitHostPort("[2001:db8::1]:443")
	assert.Equal(t, "2001:db8::1", host)
	assert.Equal(t, "443", port)

	host, port = splitHostPort("bare-host")
	assert.Equal(t, "bare-host", host)
	assert.Empty(t, port)
}

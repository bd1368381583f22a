package formats

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsProxyLine(t *testing.T) {
	assert.True(t, IsProxyLine("vmess://payload"))
	assert.True(t, IsProxyLine("VLESS://uuid@host:443"))
	assert.True(t, IsProxyLine("hy2://pw@host"))
	assert.True(t, IsProxyLine("wireguard://key@host:51820"))
	assert.False(t, IsProxyLine("https://example.com"))
	assert.False(t, IsProxyLine("join our channel"))
	assert.False(t, IsProxyLine(""))
}

func TestExtractProxyURIs(t *testing.T) {
	text := "fresh configs!\nvless://id@h1:443?sni=x#a and trojan://pw@h2:443#b\nthanks"
	uris := ExtractProxyURIs(text)
	assert.Equal(t, []string{
		"vless://id@h1:443?sni=x#a",
		"trojan://pw@h2:443#b",
	}, uris)
}

func TestCanonicalLine(t *testing.T) {
	assert.Equal(t, "vmess://AbC", CanonicalLine("  VMESS://AbC \r\n"))
	assert.Equal(t, "plain text", CanonicalLine("\tplain\ttext\t"))
	assert.Equal(t, "", CanonicalLine("   "))
}

func TestCanonicalLine_CasingCollapses(t *testing.T) {
	// Scheme casing must not defeat dedup; the payload keeps its case.
	a := CanonicalLine("VMESS://PayLoad")
	b := CanonicalLine("vmess://PayLoad")
	assert.Equal(t, a, b)

	c := CanonicalLine("vmess://payload")
	assert.NotEqual(t, a, c)
}

func TestSniffProxyText(t *testing.T) {
	assert.True(t, SniffProxyText([]byte("\n\nss://abc@host:8388\n")))
	assert.True(t, SniffProxyText([]byte("config: vless://id@host:443 enjoy")))
	assert.False(t, SniffProxyText([]byte("dear subscribers, nothing today")))
	assert.False(t, SniffProxyText([]byte("")))
}

func TestSniffProxyText_FirstNonEmptyLineDecides(t *testing.T) {
	// A leading plain line makes line sniffing stop, and the content is
	// not a base64 blob either.
	assert.False(t, SniffProxyText([]byte("hello\nvmess://abc")))
}

func TestSniffProxyText_Base64Wrapped(t *testing.T) {
	wrapped := base64.StdEncoding.EncodeToString([]byte("vmess://abc\nvless://def"))
	assert.True(t, SniffProxyText([]byte(wrapped)))

	junk := base64.StdEncoding.EncodeToString([]byte("just some harmless words"))
	assert.False(t, SniffProxyText([]byte(junk)))
}

func TestMaybeUnwrapBase64_RoundTrip(t *testing.T) {
	inner := "trojan://pw@host:443#name\nss://abc@h:1"
	wrapped := base64.StdEncoding.EncodeToString([]byte(inner))
	assert.Equal(t, inner, maybeUnwrapBase64(wrapped))

	// Unpadded input still unwraps.
	unpadded := base64.RawStdEncoding.EncodeToString([]byte(inner))
	assert.Equal(t, inner, maybeUnwrapBase64(unpadded))

	// Plain text passes through untouched.
	assert.Equal(t, inner, maybeUnwrapBase64(inner))
}

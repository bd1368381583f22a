package formats

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
)

func linesOf(out []driven.ParseOutput) []string {
	lines := make([]string, 0, len(out))
	for _, o := range out {
		lines = append(lines, o.Payload["line"].(string))
	}
	return lines
}

func TestProxyText_ParsePlainLines(t *testing.T) {
	h := NewProxyText(domain.FormatProxyText)
	content := []byte("vmess://aaa\n\nvless://bbb@h:443\n")

	out, err := h.Parse(content, driven.FileMeta{})
	require.NoError(t, err)
	assert.Equal(t, []string{"vmess://aaa", "vless://bbb@h:443"}, linesOf(out))
}

func TestProxyText_ParseBase64Wrapped(t *testing.T) {
	h := NewProxyText(domain.FormatSubscription)
	inner := "trojan://pw@host:443#x\nss://Y2hhY2hhMjA6cHc=@h:8388"
	content := []byte(base64.StdEncoding.EncodeToString([]byte(inner)))

	out, err := h.Parse(content, driven.FileMeta{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"trojan://pw@host:443#x",
		"ss://Y2hhY2hhMjA6cHc=@h:8388",
	}, linesOf(out))
}

func TestProxyText_ParseExtractsEmbeddedURIs(t *testing.T) {
	h := NewProxyText(domain.FormatProxyText)
	content := []byte("new config: vless://id@h1:443#a enjoy!\n")

	out, err := h.Parse(content, driven.FileMeta{})
	require.NoError(t, err)
	assert.Equal(t, []string{"vless://id@h1:443#a"}, linesOf(out))
}

func TestProxyText_ParseKeepsUnknownLines(t *testing.T) {
	h := NewProxyText(domain.FormatProxyText)
	content := []byte("vmess://aaa\nfutureproto://something\n")

	out, err := h.Parse(content, driven.FileMeta{})
	require.NoError(t, err)
	assert.Equal(t, []string{"vmess://aaa", "futureproto://something"}, linesOf(out))
}

func TestProxyText_ParseDeduplicatesWithinFile(t *testing.T) {
	h := NewProxyText(domain.FormatProxyText)
	content := []byte("vmess://aaa\nVMESS://aaa\nvmess://aaa\n")

	out, err := h.Parse(content, driven.FileMeta{})
	require.NoError(t, err)
	assert.Len(t, out, 1, "scheme casing and repeats collapse to one record")
}

func TestProxyText_UniqueHashStableAcrossSources(t *testing.T) {
	h := NewProxyText(domain.FormatProxyText)

	a, err := h.Parse([]byte("  vmess://abc  \r\n"), driven.FileMeta{SourceID: "s1"})
	require.NoError(t, err)
	b, err := h.Parse([]byte("VMESS://abc"), driven.FileMeta{SourceID: "s2"})
	require.NoError(t, err)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].UniqueHash, b[0].UniqueHash,
		"the same URI from different sources is the same record")
}

func TestProxyText_BuildJoinsFirstSeenOrder(t *testing.T) {
	h := NewProxyText(domain.FormatProxyText)
	records := []domain.Record{
		{Payload: map[string]any{"line": "vmess://b"}},
		{Payload: map[string]any{"line": "vmess://a"}},
		{Payload: map[string]any{"line": "vmess://b"}},
	}

	data, err := h.Build(records, nil)
	require.NoError(t, err)
	assert.Equal(t, "vmess://b\nvmess://a", string(data))
}

package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergehub/mergebot/internal/core/domain"
)

func testArtifact() domain.Artifact {
	return domain.Artifact{
		RouteName:   "main",
		Format:      domain.FormatProxyText,
		Name:        "main.npvt",
		Data:        []byte("vmess://abc\nvless://def"),
		Hash:        "0123456789abcdef0123456789abcdef",
		RecordCount: 2,
		Changed:     true,
	}
}

func TestPublisher_Publish(t *testing.T) {
	var gotChatID, gotCaption, gotFilename string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottoken/sendDocument", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1 << 20))

		gotChatID = r.FormValue("chat_id")
		gotCaption = r.FormValue("caption")

		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotBody, err = io.ReadAll(file)
		require.NoError(t, err)

		fmt.Fprint(w, `{"ok":true,"result":{}}`)
	}))
	defer server.Close()

	p := NewPublisher()
	p.apiBase = server.URL

	dest := domain.Destination{
		ChatID:          "@out",
		Mode:            "on_change",
		CaptionTemplate: "{name}: {count} entries ({hash})",
		Token:           "token",
	}
	err := p.Publish(context.Background(), testArtifact(), dest)
	require.NoError(t, err)

	assert.Equal(t, "@out", gotChatID)
	assert.Equal(t, "main.npvt: 2 entries (0123456789ab)", gotCaption)
	assert.Equal(t, "main.npvt", gotFilename)
	assert.Equal(t, []byte("vmess://abc\nvless://def"), gotBody)
}

func TestPublisher_PublishAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"ok":false,"description":"chat not found","error_code":400}`)
	}))
	defer server.Close()

	p := NewPublisher()
	p.apiBase = server.URL

	err := p.Publish(context.Background(), testArtifact(), domain.Destination{
		ChatID: "@missing", Token: "token",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestPublisher_RequiresToken(t *testing.T) {
	p := NewPublisher()
	err := p.Publish(context.Background(), testArtifact(), domain.Destination{ChatID: "@out"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRenderCaption(t *testing.T) {
	assert.Empty(t, renderCaption("", testArtifact()))
	assert.Equal(t, "just text", renderCaption("just text", testArtifact()))
	assert.Equal(t, "main.npvt", renderCaption("{name}", testArtifact()))
}

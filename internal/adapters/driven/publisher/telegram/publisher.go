// Package telegram publishes built artifacts as Telegram documents via
// the Bot API sendDocument method.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
)

// Ensure Publisher implements the interface.
var _ driven.Publisher = (*Publisher)(nil)

// DefaultAPIBase is the Bot API endpoint prefix.
const DefaultAPIBase = "https://api.telegram.org"

// sendRate throttles outbound documents. The Bot API allows one
// message per second per chat; staying at that rate globally keeps a
// multi-destination run inside the limit without per-chat buckets.
const sendRate = 1

// Publisher delivers artifacts with sendDocument.
type Publisher struct {
	apiBase string
	http    *http.Client
	limiter *rate.Limiter
}

// NewPublisher creates a Telegram publisher.
func NewPublisher() *Publisher {
	return &Publisher{
		apiBase: DefaultAPIBase,
		http:    &http.Client{Timeout: 120 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(sendRate), 1),
	}
}

// Publish uploads the artifact to the destination chat. The caption
// template may reference {name}, {count}, and {hash}.
func (p *Publisher) Publish(ctx context.Context, artifact domain.Artifact, dest domain.Destination) error {
	if dest.Token == "" {
		return fmt.Errorf("publishing %s: %w: destination has no token", artifact.Name, domain.ErrInvalidInput)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("chat_id", dest.ChatID); err != nil {
		return fmt.Errorf("building upload: %w", err)
	}
	if caption := renderCaption(dest.CaptionTemplate, artifact); caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return fmt.Errorf("building upload: %w", err)
		}
	}
	part, err := w.CreateFormFile("document", artifact.Name)
	if err != nil {
		return fmt.Errorf("building upload: %w", err)
	}
	if _, err := part.Write(artifact.Data); err != nil {
		return fmt.Errorf("building upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("building upload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendDocument", p.apiBase, dest.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending document: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading send response: %w", err)
	}

	var envelope struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		ErrorCode   int    `json:"error_code"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("decoding send response: %w", err)
	}
	if !envelope.OK {
		return fmt.Errorf("sending document to %s: %s (code %d)",
			dest.ChatID, envelope.Description, envelope.ErrorCode)
	}
	return nil
}

// renderCaption fills the destination caption template.
func renderCaption(template string, artifact domain.Artifact) string {
	if template == "" {
		return ""
	}
	r := strings.NewReplacer(
		"{name}", artifact.Name,
		"{count}", fmt.Sprintf("%d", artifact.RecordCount),
		"{hash}", shortHash(artifact.Hash),
	)
	return r.Replace(template)
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

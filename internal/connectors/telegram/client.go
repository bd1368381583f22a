package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultAPIBase is the Bot API endpoint prefix.
	DefaultAPIBase = "https://api.telegram.org"

	// BotRequestRate is the proactive throttle (requests per second).
	// The Bot API allows ~30/sec globally; one connector stays well
	// under that so several sources can fetch in one run.
	BotRequestRate = 5

	// MaxDocumentSize bounds downloads; the Bot API caps getFile at
	// 20 MB anyway.
	MaxDocumentSize = 20 << 20

	longPollTimeout = 10 * time.Second
)

// Client is a minimal Telegram Bot API client covering the methods the
// connector needs: getUpdates, getFile, and file download.
type Client struct {
	apiBase string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Bot API client for the given token.
func NewClient(token string) *Client {
	return &Client{
		apiBase: DefaultAPIBase,
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(BotRequestRate), 1),
	}
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Update is one getUpdates entry. Channel posts and chat messages
// carry the same message shape under different keys.
type Update struct {
	UpdateID    int64    `json:"update_id"`
	Message     *Message `json:"message"`
	ChannelPost *Message `json:"channel_post"`
}

// Msg returns whichever message the update carries.
func (u Update) Msg() *Message {
	if u.Message != nil {
		return u.Message
	}
	return u.ChannelPost
}

// Message is a Bot API message.
type Message struct {
	MessageID int64     `json:"message_id"`
	Date      int64     `json:"date"`
	Chat      Chat      `json:"chat"`
	Text      string    `json:"text"`
	Caption   string    `json:"caption"`
	Document  *Document `json:"document"`
}

// Time returns the message timestamp.
func (m Message) Time() time.Time {
	return time.Unix(m.Date, 0).UTC()
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Type     string `json:"type"`
}

// Matches reports whether the chat is the one named by selector,
// which may be a numeric id or an @username.
func (c Chat) Matches(selector string) bool {
	if selector == "" {
		return true
	}
	if selector[0] == '@' {
		return c.Username != "" && "@"+c.Username == selector
	}
	return strconv.FormatInt(c.ID, 10) == selector
}

// Document is a file attached to a message.
type Document struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileName     string `json:"file_name"`
	FileSize     int64  `json:"file_size"`
	MimeType     string `json:"mime_type"`
}

// GetUpdates fetches updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("limit", "100")
	params.Set("timeout", strconv.Itoa(int(longPollTimeout.Seconds())))
	params.Set("allowed_updates", `["message","channel_post"]`)

	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// filePath is the getFile result.
type filePath struct {
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
}

// DownloadDocument resolves a file id and downloads its content.
func (c *Client) DownloadDocument(ctx context.Context, fileID string) ([]byte, error) {
	params := url.Values{}
	params.Set("file_id", fileID)

	var fp filePath
	if err := c.call(ctx, "getFile", params, &fp); err != nil {
		return nil, err
	}
	if fp.FileSize > MaxDocumentSize {
		return nil, fmt.Errorf("document of %d bytes exceeds download limit", fp.FileSize)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	dlURL := fmt.Sprintf("%s/file/bot%s/%s", c.apiBase, c.token, fp.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dlURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading document: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("document exceeds download limit")
	}
	return data, nil
}

// call performs one Bot API method call, honoring the proactive rate
// limiter and the server's retry_after on 429 responses.
func (c *Client) call(ctx context.Context, method string, params url.Values, result any) error {
	for attempt := 0; attempt < 3; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		endpoint := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		req.URL.RawQuery = params.Encode()

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("calling %s: %w", method, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("reading %s response: %w", method, err)
		}

		var envelope apiResponse
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("decoding %s response: %w", method, err)
		}

		if envelope.OK {
			if result == nil {
				return nil
			}
			if err := json.Unmarshal(envelope.Result, result); err != nil {
				return fmt.Errorf("decoding %s result: %w", method, err)
			}
			return nil
		}

		if envelope.ErrorCode == http.StatusTooManyRequests && envelope.Parameters != nil {
			wait := time.Duration(envelope.Parameters.RetryAfter) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("%s: %s (code %d)", method, envelope.Description, envelope.ErrorCode)
	}
	return fmt.Errorf("%s: retries exhausted", method)
}

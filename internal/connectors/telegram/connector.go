package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
	"github.com/mergehub/mergebot/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector fetches messages and documents from one Telegram chat.
type Connector struct {
	client *Client
	chat   string
	cursor *Cursor
}

// NewConnector creates a connector for the chat named in the source
// options ("chat": numeric id or @username). An empty chat selector
// accepts every chat the bot can see.
func NewConnector(token, chat string) (*Connector, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram connector: %w: missing bot token", domain.ErrInvalidInput)
	}
	return &Connector{
		client: NewClient(token),
		chat:   chat,
		cursor: NewCursor(),
	}, nil
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "telegram"
}

// Fetch yields message text and attached documents newer than the
// cursor, bounded by the fetch window on first runs.
func (c *Connector) Fetch(ctx context.Context, state []byte, window domain.FetchWindow) (<-chan driven.FetchItem, <-chan error) {
	items := make(chan driven.FetchItem)
	errs := make(chan error, 1)

	c.cursor = DecodeCursor(state)

	go func() {
		defer close(items)
		defer close(errs)

		if err := c.fetchAll(ctx, window, items); err != nil {
			errs <- err
		}
	}()

	return items, errs
}

func (c *Connector) fetchAll(ctx context.Context, window domain.FetchWindow, items chan<- driven.FetchItem) error {
	msgCutoff, fileCutoff := cutoffs(c.cursor, window)

	for {
		updates, err := c.client.GetUpdates(ctx, c.cursor.Offset)
		if err != nil {
			return fmt.Errorf("fetching updates: %w", err)
		}
		if len(updates) == 0 {
			return nil
		}

		for _, u := range updates {
			if u.UpdateID >= c.cursor.Offset {
				c.cursor.Offset = u.UpdateID + 1
			}

			msg := u.Msg()
			if msg == nil || !msg.Chat.Matches(c.chat) {
				continue
			}
			at := msg.Time()
			if at.After(c.cursor.LastMessageAt) {
				c.cursor.LastMessageAt = at
			}

			// A media post carries its text as a caption; proxy URIs
			// posted alongside a document still get ingested.
			text := msg.Text
			if text == "" {
				text = msg.Caption
			}
			if text != "" && at.After(msgCutoff) {
				item := driven.FetchItem{
					ExternalID: messageExternalID(msg),
					Filename:   "",
					Content:    []byte(text),
					ObservedAt: at,
				}
				if err := send(ctx, items, item); err != nil {
					return err
				}
			}

			if msg.Document != nil && at.After(fileCutoff) {
				doc := msg.Document
				content, err := c.client.DownloadDocument(ctx, doc.FileID)
				if err != nil {
					// One failed download never aborts the fetch; the
					// document will still be there next run.
					logger.Warn("telegram: skipping document %s: %v", doc.FileName, err)
					continue
				}
				item := driven.FetchItem{
					ExternalID: documentExternalID(msg, doc),
					Filename:   doc.FileName,
					Content:    content,
					ObservedAt: at,
				}
				if err := send(ctx, items, item); err != nil {
					return err
				}
			}
		}
	}
}

// State returns the cursor blob to persist.
func (c *Connector) State() []byte {
	return c.cursor.Encode()
}

// Close releases resources.
func (c *Connector) Close() error {
	return nil
}

// cutoffs resolves the oldest acceptable timestamps for message and
// file content. Subsequent runs rely on the update offset and accept
// everything the offset yields.
func cutoffs(cursor *Cursor, window domain.FetchWindow) (msgCutoff, fileCutoff time.Time) {
	if !window.FirstRun {
		return time.Time{}, time.Time{}
	}
	now := time.Now().UTC()
	if window.MessageLookback > 0 {
		msgCutoff = now.Add(-window.MessageLookback)
	}
	if window.FileLookback > 0 {
		fileCutoff = now.Add(-window.FileLookback)
	}
	return msgCutoff, fileCutoff
}

// messageExternalID builds the dedup key for message text.
func messageExternalID(msg *Message) string {
	return "msg:" + strconv.FormatInt(msg.Chat.ID, 10) + ":" + strconv.FormatInt(msg.MessageID, 10)
}

// documentExternalID builds the dedup key for a document. The
// file_unique_id is stable across forwards of the same file, so the
// same document posted twice is ingested once.
func documentExternalID(msg *Message, doc *Document) string {
	return "doc:" + strconv.FormatInt(msg.Chat.ID, 10) + ":" + doc.FileUniqueID
}

func send(ctx context.Context, items chan<- driven.FetchItem, item driven.FetchItem) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case items <- item:
		return nil
	}
}

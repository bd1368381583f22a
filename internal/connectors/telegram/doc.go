// Package telegram fetches content from Telegram chats through the Bot
// API. Both message text and attached documents are yielded; the
// connector tracks its position with an update-offset cursor and
// throttles requests to stay inside the Bot API limits.
package telegram

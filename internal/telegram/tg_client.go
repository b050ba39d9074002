package telegram

import (
	"fmt"
	"log"
	"strconv"

	"reqtrack/backend/internal/feedhub"
	"reqtrack/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client implements the feedhub.Client interface over the Telegram Bot API.
// One client exists per linked user; the hub pushes that user's
// notification events into Send and the write pump relays them.
type Client struct {
	UserID string
	ChatID string // Telegram chat id, stored as string on the user record
	Hub    *feedhub.ManagerService
	Send   chan models.NotificationEvent
	BotAPI *tgbotapi.BotAPI
}

func (c *Client) GetUserID() string { return c.UserID }

func (c *Client) GetSendChannel() chan<- models.NotificationEvent { return c.Send }

// Run starts the write pump. There is no read pump: inbound Telegram
// updates are handled centrally by the BotService.
func (c *Client) Run() {
	go c.writePump()
}

// Close closes the Send channel, which stops the write pump.
func (c *Client) Close() {
	close(c.Send)
}

// writePump relays notification events to the linked Telegram chat.
func (c *Client) writePump() {
	defer func() {
		log.Printf("Stopping writePump for Telegram client %s", c.UserID)
	}()

	for event := range c.Send {
		chatID, _ := strconv.ParseInt(c.ChatID, 10, 64)
		if chatID == 0 {
			continue
		}

		text := fmt.Sprintf("*%s*\n%s", escapeMarkdown(event.Title), escapeMarkdown(event.Message))
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown

		if _, err := c.BotAPI.Send(msg); err != nil {
			log.Printf("ERROR: Failed to send Telegram notification to user %s: %v", c.UserID, err)
		}
	}
}

// escapeMarkdown neutralizes characters Telegram treats as formatting.
func escapeMarkdown(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '*', '_', '`', '[':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

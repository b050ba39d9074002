// Package telegram bridges the notification feed to the Telegram Bot API.
// Users link their account with "/start <user id>"; afterwards every
// notification fanned out to them is mirrored to their Telegram chat.
package telegram

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"reqtrack/backend/internal/feedhub"
	"reqtrack/backend/internal/models"
	"reqtrack/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotService receives Telegram updates and maintains one feed client per
// linked user.
type BotService struct {
	BotAPI  *tgbotapi.BotAPI
	Hub     *feedhub.ManagerService
	Storage storage.Storage

	clients map[string]*Client // keyed by user id
}

// NewBotService creates a new BotService instance.
func NewBotService(token string, hub *feedhub.ManagerService, s storage.Storage) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)

	return &BotService{
		BotAPI:  bot,
		Hub:     hub,
		Storage: s,
		clients: make(map[string]*Client),
	}, nil
}

// RestoreLinkedSessions registers feed clients for every already-linked user.
func (s *BotService) RestoreLinkedSessions() {
	log.Println("Restoring linked Telegram sessions...")
	users, err := s.Storage.GetUsersWithTelegram()
	if err != nil {
		log.Printf("ERROR: Failed to list linked Telegram users: %v", err)
		return
	}
	for _, user := range users {
		s.registerClient(user.ID, user.TelegramID)
	}
	log.Printf("Restored %d linked Telegram sessions.", len(users))
}

// Run processes incoming Telegram updates. Only the linking commands are
// handled here; outbound delivery runs in the per-user client pumps.
func (s *BotService) Run() {
	s.RestoreLinkedSessions()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for update := range s.BotAPI.GetUpdatesChan(u) {
		if update.Message == nil {
			continue
		}
		chatID := update.Message.Chat.ID

		switch {
		case strings.HasPrefix(update.Message.Text, "/start"):
			s.handleStart(chatID, update.Message.Text)
		case update.Message.Text == "/stop":
			s.handleStop(chatID)
		default:
			s.reply(chatID, "Send /start <your user id> to link this chat to your account.")
		}
	}
}

// handleStart links a chat to the user id passed as the command argument.
func (s *BotService) handleStart(chatID int64, text string) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		s.reply(chatID, "Usage: /start <your user id>")
		return
	}
	userID := parts[1]

	if _, err := s.Storage.GetUserByID(userID); err != nil {
		s.reply(chatID, "Unknown user id. Check the id shown in your profile.")
		return
	}

	tgID := strconv.FormatInt(chatID, 10)
	if err := s.Storage.LinkTelegramID(userID, tgID); err != nil {
		log.Printf("ERROR: Failed to link Telegram chat %d to user %s: %v", chatID, userID, err)
		s.reply(chatID, "Linking failed, please try again later.")
		return
	}

	s.registerClient(userID, tgID)
	s.reply(chatID, "Linked. You will receive request notifications here. Send /stop to unlink delivery.")
}

// handleStop unregisters the feed client for the chat's user.
func (s *BotService) handleStop(chatID int64) {
	tgID := strconv.FormatInt(chatID, 10)
	for userID, client := range s.clients {
		if client.ChatID == tgID {
			s.Hub.UnregisterCh <- client
			delete(s.clients, userID)
			s.reply(chatID, "Notification delivery stopped.")
			return
		}
	}
	s.reply(chatID, "This chat is not linked.")
}

// registerClient creates and registers a feed client for a linked user,
// replacing any previous one.
func (s *BotService) registerClient(userID, tgID string) {
	if existing, ok := s.clients[userID]; ok {
		s.Hub.UnregisterCh <- existing
		delete(s.clients, userID)
	}

	client := &Client{
		UserID: userID,
		ChatID: tgID,
		Hub:    s.Hub,
		Send:   make(chan models.NotificationEvent, 10),
		BotAPI: s.BotAPI,
	}
	s.clients[userID] = client
	s.Hub.RegisterCh <- client
	client.Run()
}

func (s *BotService) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.BotAPI.Send(msg); err != nil {
		log.Printf("ERROR: Failed to send Telegram reply: %v", err)
	}
}

// LinkHint formats the instruction shown to users in the UI.
func LinkHint(botName, userID string) string {
	return fmt.Sprintf("Open https://t.me/%s and send: /start %s", botName, userID)
}

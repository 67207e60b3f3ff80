package notify

import (
	"encoding/json"
	"fmt"
	"strings"

	"avtoservis/internal/events"
	"avtoservis/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier forwards booking lifecycle events to admin chats.
type TelegramNotifier struct {
	bot          *tgbotapi.BotAPI
	adminChatIDs []int64
	logger       *zerolog.Logger
}

func NewTelegramNotifier(token string, adminChatIDs []int64, debug bool, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = debug

	return &TelegramNotifier{
		bot:          bot,
		adminChatIDs: adminChatIDs,
		logger:       logger,
	}, nil
}

// Register subscribes the notifier to booking events on the bus.
func (n *TelegramNotifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, n.handleBookingEvent)
	bus.Subscribe(events.EventBookingStatusChanged, n.handleBookingEvent)
	bus.Subscribe(events.EventBookingDeleted, n.handleBookingEvent)
}

func (n *TelegramNotifier) handleBookingEvent(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		n.logger.Error().Err(err).Str("event_type", event.Type).Msg("decode booking event")
		return err
	}

	text := formatBookingMessage(event.Type, payload)
	for _, chatID := range n.adminChatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send telegram notification")
		}
	}
	return nil
}

func formatBookingMessage(eventType string, p events.BookingEventPayload) string {
	var b strings.Builder

	switch eventType {
	case events.EventBookingCreated:
		b.WriteString("🆕 Новая запись на сервис\n")
	case events.EventBookingStatusChanged:
		b.WriteString(fmt.Sprintf("%s Статус записи изменён: %s\n", statusIcon(p.Status), p.Status))
	case events.EventBookingDeleted:
		b.WriteString("🗑 Запись удалена\n")
	default:
		b.WriteString("Запись обновлена\n")
	}

	b.WriteString(fmt.Sprintf("ID: %s\n", p.BookingID))
	b.WriteString(fmt.Sprintf("Дата: %s %s\n", p.Date.Format("02.01.2006"), p.Time))
	if p.Notes != "" {
		b.WriteString(fmt.Sprintf("💬 %s\n", p.Notes))
	}
	if p.ChangedBy != "" {
		b.WriteString(fmt.Sprintf("Кем: %s (%s)", p.ChangedBy, p.ChangedByRole))
	}
	return b.String()
}

func statusIcon(status string) string {
	switch status {
	case models.StatusConfirmed, models.StatusCompleted:
		return "✅"
	case models.StatusPending:
		return "⏳"
	case models.StatusCancelled:
		return "❌"
	default:
		return "❓"
	}
}

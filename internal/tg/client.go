package tg

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"affibot/internal/convo"
	"affibot/internal/metrics"
)

// Processor consumes normalized chat events; satisfied by *convo.Engine.
type Processor interface {
	HandleEvent(ctx context.Context, ev convo.Event)
}

// Client is the Telegram transport: it long-polls for updates, normalizes
// them into events and delivers outbound messages for the workflow engine.
type Client struct {
	api     *tgbotapi.BotAPI
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New authenticates against the Bot API.
func New(token string, metricRegistry *metrics.Metrics, logger *slog.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Client{
		api:     api,
		logger:  logger.With("component", "tg"),
		metrics: metricRegistry,
	}, nil
}

// Username returns the authenticated bot account name.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// Run polls for updates until the context is cancelled. Each update is
// processed in its own goroutine; per-user ordering is the processor's job.
func (c *Client) Run(ctx context.Context, processor Processor) error {
	if err := c.registerCommands(); err != nil {
		c.logger.Warn("register command menu failed", "error", err)
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := c.api.GetUpdatesChan(cfg)

	c.logger.Info("telegram polling started", "bot", c.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			ev, ok := c.normalize(update)
			if !ok {
				continue
			}
			if ev.Callback != "" {
				c.countIncoming("callback")
			} else {
				c.countIncoming("message")
			}
			go processor.HandleEvent(ctx, ev)
		}
	}
}

// normalize turns one raw update into a transport-free event. Updates without
// an addressable user or chat are dropped.
func (c *Client) normalize(update tgbotapi.Update) (convo.Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		// Ack immediately so the button stops spinning even if handling is slow.
		if _, err := c.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			c.logger.Warn("answer callback failed", "error", err)
		}
		if cq.Message == nil || cq.From == nil {
			return convo.Event{}, false
		}
		return convo.Event{
			UserID:   cq.From.ID,
			ChatID:   cq.Message.Chat.ID,
			Username: cq.From.UserName,
			Callback: cq.Data,
		}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return convo.Event{}, false
	}
	ev := convo.Event{
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Username: msg.From.UserName,
	}
	if msg.IsCommand() {
		ev.Command = msg.Command()
		ev.Args = msg.CommandArguments()
	} else {
		ev.Text = msg.Text
	}
	return ev, true
}

// SendText delivers a plain text message.
func (c *Client) SendText(chatID int64, text string) error {
	_, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	c.countOutgoing("text")
	return nil
}

// SendMenu delivers a message with an inline keyboard.
func (c *Client) SendMenu(chatID int64, text string, rows [][]convo.Button) error {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		keyboard = append(keyboard, buttons)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.InlineKeyboardMarkup{InlineKeyboard: keyboard}
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send menu: %w", err)
	}
	c.countOutgoing("menu")
	return nil
}

// SendPhoto delivers an in-memory PNG.
func (c *Client) SendPhoto(chatID int64, caption string, png []byte) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "chart.png", Bytes: png})
	photo.Caption = caption
	if _, err := c.api.Send(photo); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	c.countOutgoing("photo")
	return nil
}

// SendDocument delivers an in-memory file under the given name.
func (c *Client) SendDocument(chatID int64, filename string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	doc.Caption = caption
	if _, err := c.api.Send(doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	c.countOutgoing("document")
	return nil
}

// registerCommands publishes the command menu shown in the chat input field.
func (c *Client) registerCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start working with bot"},
		tgbotapi.BotCommand{Command: "help", Description: "Help information"},
		tgbotapi.BotCommand{Command: "offers", Description: "List of offers"},
		tgbotapi.BotCommand{Command: "sources", Description: "List of traffic sources"},
		tgbotapi.BotCommand{Command: "analyze", Description: "Analytics and forecasting"},
		tgbotapi.BotCommand{Command: "report", Description: "Generate report"},
		tgbotapi.BotCommand{Command: "summary", Description: "Marketing summary PDF"},
		tgbotapi.BotCommand{Command: "addoffer", Description: "Add new offer"},
		tgbotapi.BotCommand{Command: "addsource", Description: "Add new traffic source"},
		tgbotapi.BotCommand{Command: "grant_admin", Description: "Grant admin rights"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Cancel current operation"},
	)
	_, err := c.api.Request(cfg)
	return err
}

func (c *Client) countIncoming(kind string) {
	if c.metrics != nil {
		c.metrics.TGIncomingMessages.WithLabelValues(kind).Inc()
	}
}

func (c *Client) countOutgoing(kind string) {
	if c.metrics != nil {
		c.metrics.TGOutgoingMessages.WithLabelValues(kind).Inc()
	}
}

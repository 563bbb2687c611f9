// Package telegram provides a client for sending market notifications via Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/mandipulse/internal/analytics"
	"github.com/rewired-gh/mandipulse/internal/logger"
	"github.com/rewired-gh/mandipulse/internal/models"
)

const moversCount = 3

// Client handles Telegram notifications and bot commands.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	dataset        func() models.Dataset
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SetDataset supplies the current Dataset for the /movers command.
func (c *Client) SetDataset(current func() models.Dataset) {
	c.dataset = current
}

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	var reply tgbotapi.MessageConfig
	switch msg.Command() {
	case "ping":
		reply = tgbotapi.NewMessage(msg.Chat.ID, "Pong")
	case "movers":
		var d models.Dataset
		if c.dataset != nil {
			d = c.dataset()
		}
		reply = tgbotapi.NewMessage(msg.Chat.ID, formatMovers(d))
		reply.ParseMode = "MarkdownV2"
	default:
		return
	}
	if _, err := c.bot.Send(reply); err != nil {
		logger.Warn("Failed to answer /%s: %v", msg.Command(), err)
	}
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError reports that external sources failed and synthetic data is being served.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	return c.sendMarkdownV2(formatError(cycleErr))
}

// SendRecovery reports that external sources answered again after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	return c.sendMarkdownV2(formatRecovery(failureCount))
}

// Send notifies the triggered price alerts, grouped by commodity.
func (c *Client) Send(groups []models.AlertGroup) error {
	if len(groups) == 0 {
		return nil
	}
	return c.sendMarkdownV2(formatAlerts(groups))
}

func formatError(err error) string {
	return fmt.Sprintf("⚠️ *Market sources unavailable*\nServing synthetic prices\\.\n`%s`", escapeMarkdownV2(err.Error()))
}

func formatRecovery(failureCount int) string {
	return fmt.Sprintf("✅ *Market sources recovered* after %d consecutive failure\\(s\\)", failureCount)
}

// formatAlerts formats triggered alert groups into a Telegram MarkdownV2 message.
func formatAlerts(groups []models.AlertGroup) string {
	var b strings.Builder
	b.WriteString("🔔 *Price Alerts Triggered*\n\n")

	if len(groups) > 0 && len(groups[0].Alerts) > 0 {
		dateStr := escapeMarkdownV2(groups[0].Alerts[0].TriggeredAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "📅 %s\n\n", dateStr)
	}

	for i, group := range groups {
		fmt.Fprintf(&b, "%d\\. *%s*\n", i+1, escapeMarkdownV2(group.Commodity))
		for _, a := range group.Alerts {
			emoji, verb := "📈", "above"
			if a.Type == models.AlertBelow {
				emoji, verb = "📉", "below"
			}
			fmt.Fprintf(&b, "   %s %s: %s %s target %s\n",
				emoji,
				escapeMarkdownV2(a.Region),
				escapeMarkdownV2(formatPrice(a.Price, a.Unit)),
				verb,
				escapeMarkdownV2(formatPrice(a.TargetPrice, a.Unit)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatMovers lists the top gainers and losers of d.
func formatMovers(d models.Dataset) string {
	if len(d) == 0 {
		return escapeMarkdownV2("No market data yet.")
	}
	var b strings.Builder
	write := func(title string, rs []models.PricedRecord) {
		fmt.Fprintf(&b, "*%s*\n", title)
		if len(rs) == 0 {
			b.WriteString("   none\n")
		}
		for _, r := range rs {
			fmt.Fprintf(&b, "   %s \\(%s\\) %s %s\n",
				escapeMarkdownV2(r.Name),
				escapeMarkdownV2(r.Region),
				escapeMarkdownV2(formatPrice(r.CurrentPrice, r.Unit)),
				escapeMarkdownV2(fmt.Sprintf("%+.2f%%", r.ChangePercent)))
		}
	}
	write("📈 Top gainers", analytics.TopGainers(d, moversCount))
	b.WriteString("\n")
	write("📉 Top losers", analytics.TopLosers(d, moversCount))
	return b.String()
}

func formatPrice(price float64, unit string) string {
	s := "₹" + strconv.FormatFloat(price, 'f', 2, 64)
	if _, per, ok := strings.Cut(unit, "/"); ok {
		s += "/" + per
	}
	return s
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

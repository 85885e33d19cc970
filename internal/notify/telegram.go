package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"ipbot/internal/config"
	"ipbot/internal/types"
	"ipbot/internal/utils"

	"go.uber.org/zap"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier sends IP change alerts through the Telegram Bot API
type TelegramNotifier struct {
	config   *config.TelegramConfig
	logger   *zap.Logger
	client   *http.Client
	baseURL  string
	hostname string
}

// TelegramMessage represents a Telegram API message
type TelegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// TelegramResponse represents a Telegram API response
type TelegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters,omitempty"`
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(cfg *config.TelegramConfig, logger *zap.Logger) (*TelegramNotifier, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram bot token and chat ID are required")
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			DisableCompression:  true,
			MaxIdleConnsPerHost: 5,
		},
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &TelegramNotifier{
		config:   cfg,
		logger:   logger,
		client:   client,
		baseURL:  telegramAPIBase,
		hostname: hostname,
	}, nil
}

// NotifyIPChange sends an IP change notification
func (n *TelegramNotifier) NotifyIPChange(change *types.IPChange) error {
	return n.sendMessage(formatMessage(n.hostname, change))
}

// formatMessage formats an IP change alert for Telegram
func formatMessage(hostname string, change *types.IPChange) string {
	var b strings.Builder

	b.WriteString("🌐 *Public IP Change Detected*\n\n")
	b.WriteString(fmt.Sprintf("*Host:* `%s`\n", hostname))
	if change.OldIP != "" {
		b.WriteString(fmt.Sprintf("*Old IP:* `%s`\n", change.OldIP))
	}
	b.WriteString(fmt.Sprintf("*New IP:* `%s`\n", change.NewIP))
	b.WriteString(fmt.Sprintf("*Time:* `%s`\n", change.ChangedAt.Format("2006-01-02 15:04:05")))

	return b.String()
}

// sendMessage sends a message to the configured chat ID
func (n *TelegramNotifier) sendMessage(text string) error {
	msg := TelegramMessage{
		ChatID:    n.config.ChatID,
		Text:      text,
		ParseMode: "Markdown",
	}

	// Retry the send operation
	return utils.Retry(3, time.Second, func() error {
		return n.doSendMessage(msg)
	})
}

// doSendMessage performs the actual message sending
func (n *TelegramNotifier) doSendMessage(msg TelegramMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.config.BotToken)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			n.logger.Error("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var telegramResp TelegramResponse
	if err := json.Unmarshal(body, &telegramResp); err != nil {
		return fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		// Honor the rate limit before the retry wrapper resends
		if retryAfter := telegramResp.Parameters.RetryAfter; retryAfter > 0 {
			n.logger.Warn("Telegram rate limit hit",
				zap.Int("retry_after", retryAfter))
			time.Sleep(time.Duration(retryAfter) * time.Second)
		}
		return fmt.Errorf("rate limit exceeded")
	}

	if !telegramResp.OK {
		if telegramResp.Description != "" {
			return fmt.Errorf("telegram API error: %s", telegramResp.Description)
		}
		return fmt.Errorf("telegram API returned status %d without description", resp.StatusCode)
	}

	return nil
}

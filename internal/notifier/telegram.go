package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
)

const telegramAPIBase = "https://api.telegram.org"

// telegramResponse is the Bot API envelope; ok=false carries a description.
type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// TelegramChannel delivers via the Telegram Bot API. Bot token and chat id
// come from the settings row, so the channel is constructed once and stays
// valid across settings changes.
type TelegramChannel struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewTelegramChannel(logger *zap.Logger) *TelegramChannel {
	client := resty.New().
		SetBaseURL(telegramAPIBase).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &TelegramChannel{
		httpClient: client,
		logger:     logger,
	}
}

func (c *TelegramChannel) Name() string { return "telegram" }

// Configured requires both the bot token and the chat id.
func (c *TelegramChannel) Configured(s *models.NotificationSettings) bool {
	return s.TelegramBotToken != nil && *s.TelegramBotToken != "" &&
		s.TelegramChatID != nil && *s.TelegramChatID != ""
}

func (c *TelegramChannel) Send(ctx context.Context, s *models.NotificationSettings, deviceName, message string) error {
	var response telegramResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"chat_id": *s.TelegramChatID,
			"text":    fmt.Sprintf("%s\n\nDevice: %s", message, deviceName),
		}).
		SetResult(&response).
		SetError(&response).
		Post(fmt.Sprintf("/bot%s/sendMessage", *s.TelegramBotToken))
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	if !resp.IsSuccess() || !response.OK {
		return fmt.Errorf("telegram API error: status=%d description=%s", resp.StatusCode(), response.Description)
	}
	return nil
}

package discord

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/notification"
)

const footerText = "Risk Manager 🛡️"

// Client는 Discord 웹훅 클라이언트입니다
// 비어 있는 웹훅 URL로 보내는 알림은 조용히 건너뜁니다
type Client struct {
	tradeWebhook string
	errorWebhook string
	infoWebhook  string
	http         *resty.Client
}

var _ notification.Notifier = (*Client)(nil)

// ClientOption은 클라이언트 설정 함수입니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

// NewClient는 새로운 Discord 클라이언트를 생성합니다
func NewClient(tradeWebhook, errorWebhook, infoWebhook string, opts ...ClientOption) *Client {
	c := &Client{
		tradeWebhook: tradeWebhook,
		errorWebhook: errorWebhook,
		infoWebhook:  infoWebhook,
		http: resty.New().
			SetTimeout(10*time.Second).
			SetHeader("Content-Type", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sendToWebhook은 웹훅으로 메시지를 전송합니다
func (c *Client) sendToWebhook(webhookURL string, msg WebhookMessage) error {
	if webhookURL == "" {
		return nil
	}

	resp, err := c.http.R().
		SetBody(msg).
		Post(webhookURL)
	if err != nil {
		return fmt.Errorf("웹훅 전송 실패: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("웹훅 응답 오류 (status: %d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

package discord

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salonikashyap7899/RISK-MANAGER/internal/domain"
)

// WebhookMessage는 웹훅 요청 본문입니다. Content는 임베드 위에 일반 텍스트로 표시됩니다
type WebhookMessage struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"` // RFC3339
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// newEmbed는 색상, 푸터, 전송 시각이 채워진 임베드를 만듭니다
func newEmbed(color int, footer string) *Embed {
	return &Embed{
		Color:     color,
		Footer:    &EmbedFooter{Text: footer},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (e *Embed) field(name, value string, inline bool) *Embed {
	e.Fields = append(e.Fields, EmbedField{Name: name, Value: value, Inline: inline})
	return e
}

// legField는 주문 레그의 가격과 처리 결과를 인라인 필드로 추가합니다
// 가격이 없는 레그는 상태만 표시합니다
func (e *Embed) legField(name string, price *decimal.Decimal, state domain.LegState) *Embed {
	value := string(state)
	if price != nil {
		value = fmt.Sprintf("$%s (%s)", price.String(), state)
	}
	return e.field(name, value, true)
}

// codeField는 값을 코드 블록으로 감싸 한 줄 전체 필드로 추가합니다
func (e *Embed) codeField(name, value string) *Embed {
	return e.field(name, codeBlock(value), false)
}

// message는 임베드 하나를 담은 웹훅 본문을 만듭니다
func (e *Embed) message(content string) WebhookMessage {
	return WebhookMessage{Content: content, Embeds: []Embed{*e}}
}

func codeBlock(s string) string {
	return "```" + s + "```"
}

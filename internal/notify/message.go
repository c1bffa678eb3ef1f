package notify

import (
	"fmt"
	"strings"

	"shuttlebus/internal/domain/models"
)

// Adaptive Card text colours.
const (
	ColorAccent    = "Accent"
	ColorWarning   = "Warning"
	ColorAttention = "Attention"
)

// Message is a rendered notification addressed to one or more travelers.
type Message struct {
	Title      string
	Color      string
	Body       string
	Facts      []Fact
	Recipients []models.Recipient
}

type Fact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type webhookMessage struct {
	Type        string       `json:"type"`
	Attachments []attachment `json:"attachments"`
}

type attachment struct {
	ContentType string       `json:"contentType"`
	Content     adaptiveCard `json:"content"`
}

type adaptiveCard struct {
	Type    string         `json:"type"`
	Schema  string         `json:"$schema"`
	Version string         `json:"version"`
	Body    []cardElement  `json:"body"`
	MSTeams msTeamsSection `json:"msteams"`
}

type cardElement struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Size    string `json:"size,omitempty"`
	Weight  string `json:"weight,omitempty"`
	Color   string `json:"color,omitempty"`
	Wrap    bool   `json:"wrap,omitempty"`
	Spacing string `json:"spacing,omitempty"`
	Facts   []Fact `json:"facts,omitempty"`
}

type msTeamsSection struct {
	Entities []mention `json:"entities"`
}

type mention struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Mentioned mentioned `json:"mentioned"`
}

type mentioned struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// card renders m as a Teams message carrying an Adaptive Card with one mention per recipient.
func (m Message) card() webhookMessage {
	tags := make([]string, 0, len(m.Recipients))
	entities := make([]mention, 0, len(m.Recipients))
	for _, r := range m.Recipients {
		tag := fmt.Sprintf("<at>%s</at>", r.Name)
		tags = append(tags, tag)
		entities = append(entities, mention{
			Type:      "mention",
			Text:      tag,
			Mentioned: mentioned{ID: r.Email, Name: r.Name},
		})
	}

	body := []cardElement{
		{Type: "TextBlock", Size: "Medium", Weight: "Bolder", Text: m.Title, Color: m.Color},
	}
	if m.Body != "" {
		body = append(body, cardElement{Type: "TextBlock", Text: m.Body, Wrap: true})
	}
	if len(m.Facts) > 0 {
		body = append(body, cardElement{Type: "FactSet", Facts: m.Facts})
	}
	if len(tags) > 0 {
		body = append(body, cardElement{Type: "TextBlock", Text: strings.Join(tags, " "), Wrap: true, Spacing: "Medium"})
	}

	return webhookMessage{
		Type: "message",
		Attachments: []attachment{{
			ContentType: "application/vnd.microsoft.card.adaptive",
			Content: adaptiveCard{
				Type:    "AdaptiveCard",
				Schema:  "http://adaptivecards.io/schemas/adaptive-card.json",
				Version: "1.2",
				Body:    body,
				MSTeams: msTeamsSection{Entities: entities},
			},
		}},
	}
}

package render

import (
	"bytes"
	"time"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"portfolio-backend/internal/models"
)

const displayTimeLayout = "15:04"

// Renderer turns transcript snapshots into the views the widget displays.
// It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	loc    *time.Location
}

func New(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}

	md := goldmark.New(
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		goldmark.WithExtensions(
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					chromahtml.WithLineNumbers(false),
				),
			),
		),
	)

	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("code", "pre", "span")
	// Inline styles from the highlighter; nothing that can move or resize elements.
	p.AllowStyles("color", "background-color", "font-weight", "font-style").OnElements("span", "pre")

	return &Renderer{md: md, policy: p, loc: loc}
}

// Markdown renders src and sanitizes the result. Raw HTML in src is passed to
// the sanitizer, never to the page.
func (r *Renderer) Markdown(src string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return r.policy.Sanitize(src)
	}
	return string(r.policy.SanitizeBytes(buf.Bytes()))
}

func (r *Renderer) DisplayTime(t time.Time) string {
	return t.In(r.loc).Format(displayTimeLayout)
}

func (r *Renderer) Message(m models.Message) models.MessageView {
	return models.MessageView{
		ID:          m.ID,
		Role:        m.Role,
		Text:        m.Text,
		HTML:        r.Markdown(m.Text),
		Timestamp:   m.Timestamp,
		DisplayTime: r.DisplayTime(m.Timestamp),
	}
}

func (r *Renderer) Conversation(sessionID uuid.UUID, snap models.Snapshot) models.ConversationView {
	msgs := make([]models.MessageView, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		msgs = append(msgs, r.Message(m))
	}
	return models.ConversationView{
		SessionID: sessionID,
		Messages:  msgs,
		Pending:   snap.Pending,
		Draft:     snap.Draft,
		Seq:       snap.Seq,
	}
}

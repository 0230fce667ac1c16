package mailbox

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/mailstudy/mailstudy/internal/questionnaire"
	"github.com/mailstudy/mailstudy/internal/session"
)

// ErrNotFound marks a missing email, attachment or inline part.
var ErrNotFound = errors.New("not found")

var cidRe = regexp.MustCompile(`src=["']cid:([^"']+)["']`)

// Part is raw attachment or inline content served to the browser.
type Part struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Mailbox serves the study's .eml corpus from one directory, together
// with the per-email question catalog (questions.json in the same
// directory). The email id is the file name.
type Mailbox struct {
	dir     string
	catalog questionnaire.Catalog
}

// Open ensures the directory exists and loads the question catalog.
func Open(dir string) (*Mailbox, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mailbox dir: %w", err)
	}
	return &Mailbox{
		dir:     dir,
		catalog: questionnaire.LoadCatalog(filepath.Join(dir, "questions.json")),
	}, nil
}

// List returns inbox rows for every parseable .eml file, sorted by
// file name. Unparseable messages are skipped, not fatal.
func (m *Mailbox) List() ([]session.EmailSummary, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".eml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]session.EmailSummary, 0, len(names))
	for _, name := range names {
		env, err := m.read(name)
		if err != nil {
			continue
		}
		out = append(out, session.EmailSummary{
			ID:      name,
			Subject: subjectOf(env),
			From:    env.GetHeader("From"),
			Date:    env.GetHeader("Date"),
		})
	}
	return out, nil
}

// Get renders one message. HTML-less messages get their text body
// escaped into a <pre> block; cid: image references are rewritten to
// the inline-part endpoint so the browser can fetch them.
func (m *Mailbox) Get(id string) (session.Email, error) {
	env, err := m.read(id)
	if err != nil {
		return session.Email{}, err
	}

	body := env.HTML
	if body == "" {
		body = "<pre style='white-space:pre-wrap;font-family:system-ui,monospace'>" +
			html.EscapeString(env.Text) + "</pre>"
	}
	body = cidRe.ReplaceAllString(body, `src="/api/email/`+id+`/inline/$1"`)

	atts := make([]session.Attachment, 0, len(env.Attachments))
	for _, p := range env.Attachments {
		atts = append(atts, session.Attachment{
			Filename:    attachmentName(p),
			ContentType: p.ContentType,
			Size:        len(p.Content),
		})
	}

	return session.Email{
		ID:          id,
		Subject:     subjectOf(env),
		From:        env.GetHeader("From"),
		To:          env.GetHeader("To"),
		Date:        env.GetHeader("Date"),
		HTML:        body,
		Attachments: atts,
	}, nil
}

// Attachment returns the indexed attachment's content.
func (m *Mailbox) Attachment(id string, index int) (Part, error) {
	env, err := m.read(id)
	if err != nil {
		return Part{}, err
	}
	if index < 0 || index >= len(env.Attachments) {
		return Part{}, ErrNotFound
	}
	p := env.Attachments[index]
	return Part{Filename: attachmentName(p), ContentType: p.ContentType, Content: p.Content}, nil
}

// Inline resolves a Content-ID referenced from the HTML body.
func (m *Mailbox) Inline(id, cid string) (Part, error) {
	env, err := m.read(id)
	if err != nil {
		return Part{}, err
	}
	for _, parts := range [][]*enmime.Part{env.Inlines, env.OtherParts, env.Attachments} {
		for _, p := range parts {
			if strings.Trim(p.ContentID, "<>") == cid {
				return Part{Filename: attachmentName(p), ContentType: p.ContentType, Content: p.Content}, nil
			}
		}
	}
	return Part{}, ErrNotFound
}

// Questions returns the email's question tree, with the catalog's
// default set as fallback.
func (m *Mailbox) Questions(id string) []questionnaire.Question {
	return m.catalog.For(id)
}

// Count reports how many .eml files the directory holds.
func (m *Mailbox) Count() int {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".eml") {
			n++
		}
	}
	return n
}

func (m *Mailbox) read(id string) (*enmime.Envelope, error) {
	// the id is a file name from the URL; keep it inside the mailbox
	if id == "" || id != filepath.Base(id) {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(m.dir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer f.Close()
	return enmime.ReadEnvelope(f)
}

func subjectOf(env *enmime.Envelope) string {
	if s := env.GetHeader("Subject"); s != "" {
		return s
	}
	return "(no subject)"
}

func attachmentName(p *enmime.Part) string {
	if p.FileName != "" {
		return p.FileName
	}
	return "attachment"
}

// Package client is the HTTP implementation of the engine's store
// collaborator, speaking the MailStudy backend API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mailstudy/mailstudy/internal/grading"
	"github.com/mailstudy/mailstudy/internal/questionnaire"
	"github.com/mailstudy/mailstudy/internal/session"
)

type Client struct {
	base string
	http *http.Client
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func New(cfg Config) *Client {
	h := &http.Client{}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Client{base: strings.TrimSuffix(cfg.BaseURL, "/"), http: h}
}

var _ session.Store = (*Client)(nil)

func (c *Client) ListEmails(ctx context.Context) ([]session.EmailSummary, error) {
	var out []session.EmailSummary
	if err := c.getJSON(ctx, "/api/emails", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AnsweredIDs(ctx context.Context, participantID string) ([]string, error) {
	path := "/api/answered"
	if participantID != "" {
		path += "?participant=" + url.QueryEscape(participantID)
	}
	var out struct {
		Answered []string `json:"answered"`
	}
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Answered, nil
}

func (c *Client) GetEmail(ctx context.Context, id string) (session.Email, error) {
	var out session.Email
	err := c.getJSON(ctx, "/api/email/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) GetQuestions(ctx context.Context, emailID string) ([]questionnaire.Question, error) {
	var out []questionnaire.Question
	if err := c.getJSON(ctx, "/api/questions/"+url.PathEscape(emailID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSolutions(ctx context.Context, emailID string) (map[string]grading.Solution, error) {
	// entries normalize themselves while decoding, legacy shapes included
	var out struct {
		Solutions map[string]grading.Solution `json:"solutions"`
	}
	if err := c.getJSON(ctx, "/api/supposed/"+url.PathEscape(emailID), &out); err != nil {
		return nil, err
	}
	return out.Solutions, nil
}

func (c *Client) SubmitAnswers(ctx context.Context, sub session.Submission) error {
	res, err := c.postJSON(ctx, "/api/answer", sub, "")
	if err != nil {
		return err
	}
	defer res.Body.Close()
	switch {
	case res.StatusCode == http.StatusConflict:
		return session.ErrAlreadyAnswered
	case res.StatusCode/100 != 2:
		return fmt.Errorf("submit answers: %s", res.Status)
	}
	return nil
}

func (c *Client) AdminLogin(ctx context.Context, password string) (string, error) {
	res, err := c.postJSON(ctx, "/api/admin/login", map[string]string{"password": password}, "")
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return "", fmt.Errorf("admin login: %s", res.Status)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) PutSolutions(ctx context.Context, emailID string, solutions map[string]grading.Solution, token string) error {
	body := map[string]any{"solutions": solutions}
	res, err := c.postJSON(ctx, "/api/supposed/"+url.PathEscape(emailID), body, token)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return session.ErrAdminRequired
	case res.StatusCode/100 != 2:
		return fmt.Errorf("put solutions: %s", res.Status)
	}
	return nil
}

// ExportAnswers streams the NDJSON answer export. The caller owns the
// returned body.
func (c *Client) ExportAnswers(ctx context.Context, participantID, token string) (io.ReadCloser, error) {
	path := "/api/export/answers"
	if participantID != "" {
		path += "?participant=" + url.QueryEscape(participantID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case res.StatusCode == http.StatusUnauthorized:
		res.Body.Close()
		return nil, session.ErrAdminRequired
	case res.StatusCode/100 != 2:
		res.Body.Close()
		return nil, fmt.Errorf("export answers: %s", res.Status)
	}
	return res.Body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("GET %s: %s", path, res.Status)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, token string) (*http.Response, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.http.Do(req)
}

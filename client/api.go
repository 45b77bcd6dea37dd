package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mat1312/psicologo/internal/model"
)

type apiErrorBody struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// do issues a request and decodes the JSON body into out. Non-2xx responses
// are turned into errors; 404 maps to ErrNotFound.
func (c *Client) do(ctx context.Context, method, path, token string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, errorMessage(data))
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode, errorMessage(data))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func errorMessage(body []byte) string {
	var eb apiErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		return eb.Message
	}
	return string(body)
}

// GetMe resolves the profile for the configured credential, creating one on
// first sight.
func (c *Client) GetMe(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profiles/me", "", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile fetches a profile by id.
func (c *Client) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(id), "", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateSession starts a new chat session for the patient.
func (c *Client) CreateSession(ctx context.Context, patientID string, title *string) (*model.ChatSession, error) {
	var payload interface{}
	if title != nil {
		payload = map[string]string{"title": *title}
	}
	var s model.ChatSession
	path := fmt.Sprintf("/api/patients/%s/sessions", url.PathEscape(patientID))
	if err := c.do(ctx, http.MethodPost, path, "", payload, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns a patient's sessions, most recent activity first.
func (c *Client) ListSessions(ctx context.Context, patientID string) ([]model.ChatSession, error) {
	var out []model.ChatSession
	path := fmt.Sprintf("/api/patients/%s/sessions", url.PathEscape(patientID))
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages returns a session's messages strictly after afterSeq, in seq
// order. A zero afterSeq fetches from the beginning.
func (c *Client) ListMessages(ctx context.Context, sessionID string, afterSeq int64, limit int) ([]model.Message, error) {
	path := fmt.Sprintf("/api/sessions/%s/messages?afterSeq=%s", url.PathEscape(sessionID), strconv.FormatInt(afterSeq, 10))
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	var out []model.Message
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChatResult is the relay's answer for one chat turn. The persisted records
// let the caller reconcile its optimistic entries.
type ChatResult struct {
	Response         string         `json:"response"`
	AudioURL         string         `json:"audioUrl"`
	UserMessage      *model.Message `json:"userMessage"`
	AssistantMessage *model.Message `json:"assistantMessage"`
}

// Chat relays one turn through the analysis backend.
func (c *Client) Chat(ctx context.Context, sessionID, message string, mood *int) (*ChatResult, error) {
	payload := map[string]interface{}{
		"message":   message,
		"sessionId": sessionID,
	}
	if mood != nil {
		payload["mood"] = *mood
	}
	var out ChatResult
	if err := c.do(ctx, http.MethodPost, "/api/chat", "", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LogMood records a mood score in [1,5] for the patient.
func (c *Client) LogMood(ctx context.Context, patientID string, score int, note *string) (*model.MoodLog, error) {
	payload := map[string]interface{}{"moodScore": score}
	if note != nil {
		payload["note"] = *note
	}
	var out model.MoodLog
	path := fmt.Sprintf("/api/patients/%s/moods", url.PathEscape(patientID))
	if err := c.do(ctx, http.MethodPost, path, "", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDashboard fetches the server-side aggregation for a therapist.
func (c *Client) GetDashboard(ctx context.Context, therapistID string) (*model.Dashboard, error) {
	var out model.Dashboard
	path := fmt.Sprintf("/api/therapists/%s/dashboard", url.PathEscape(therapistID))
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminOverview is the privileged aggregate used by the dashboard fallback.
// It requires the privileged token.
type AdminOverview struct {
	Success   bool                         `json:"success"`
	Relations []model.TherapistPatientLink `json:"relations"`
	Profiles  []model.Profile              `json:"profiles"`
}

func (c *Client) adminOverview(ctx context.Context) (*AdminOverview, error) {
	if c.privilegedToken == "" {
		return nil, fmt.Errorf("no privileged token configured")
	}
	var out AdminOverview
	if err := c.do(ctx, http.MethodGet, "/api/admin/overview", c.privilegedToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// listSessionsPrivileged lists a patient's sessions with the privileged token.
func (c *Client) listSessionsPrivileged(ctx context.Context, patientID string) ([]model.ChatSession, error) {
	var out []model.ChatSession
	path := fmt.Sprintf("/api/patients/%s/sessions", url.PathEscape(patientID))
	if err := c.do(ctx, http.MethodGet, path, c.privilegedToken, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// getNotePrivileged resolves a patient's note with the privileged token.
// Absence is a normal state reported as a nil note.
func (c *Client) getNotePrivileged(ctx context.Context, patientID string) (*model.PatientNote, error) {
	var out struct {
		Note *model.PatientNote `json:"note"`
	}
	path := "/api/admin/notes?patientId=" + url.QueryEscape(patientID)
	if err := c.do(ctx, http.MethodGet, path, c.privilegedToken, nil, &out); err != nil {
		return nil, err
	}
	return out.Note, nil
}

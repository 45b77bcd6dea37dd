// Package gateway relays analysis requests to the external AI backend.
// Every route is a thin single-attempt proxy: it checks the caller presented
// a credential, forwards the payload and credential unmodified, and mirrors
// upstream failures back with their status and detail.
package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/mat1312/psicologo/internal/api/respond"
	"github.com/mat1312/psicologo/internal/api/validate"
	"github.com/mat1312/psicologo/internal/auth"
	"github.com/mat1312/psicologo/internal/model"
	"github.com/mat1312/psicologo/internal/services"
)

// Relay holds the upstream client and the services the chat route persists
// through.
type Relay struct {
	client   *resty.Client
	messages *services.MessageService
	log      zerolog.Logger
}

func New(baseURL string, messages *services.MessageService, log zerolog.Logger) *Relay {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second).
		SetRetryCount(0)
	return &Relay{client: client, messages: messages, log: log}
}

// upstreamErrorBody is the error shape the analysis backend answers with.
type upstreamErrorBody struct {
	Detail string `json:"detail"`
}

// forward posts the payload to the upstream path with the caller's
// credential. It returns the decoded body on 2xx and writes the error
// response itself otherwise.
func (g *Relay) forward(w http.ResponseWriter, r *http.Request, token, path string, payload interface{}, out interface{}) bool {
	resp, err := g.client.R().
		SetContext(r.Context()).
		SetHeader("Authorization", "Bearer "+token).
		SetBody(payload).
		Post(path)
	if err != nil {
		g.log.Error().Err(err).Str("path", path).Msg("analysis backend unreachable")
		respond.WriteInternalError(w, "analysis backend unavailable")
		return false
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		detail := upstreamDetail(resp.Body())
		status := resp.StatusCode()
		if status == http.StatusUnauthorized {
			respond.WriteUnauthorized(w, detail)
			return false
		}
		respond.WriteError(w, status, detail)
		return false
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			g.log.Error().Err(err).Str("path", path).Msg("analysis backend returned malformed body")
			respond.WriteInternalError(w, "analysis backend returned malformed body")
			return false
		}
	}
	return true
}

// upstreamDetail extracts {"detail": ...} when present, else the raw text.
func upstreamDetail(body []byte) string {
	var eb upstreamErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Detail != "" {
		return eb.Detail
	}
	return string(body)
}

func (g *Relay) bearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, err := auth.ExtractBearer(r)
	if err != nil {
		respond.WriteUnauthorized(w, err.Error())
		return "", false
	}
	return token, true
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Mood      *int   `json:"mood,omitempty"`
}

type chatUpstreamResponse struct {
	Response string `json:"response"`
	AudioURL string `json:"audio_url,omitempty"`
}

// chat relays a turn and, on success, persists the user and assistant
// messages so clients can reconcile their optimistic entries by id.
func (g *Relay) chat(w http.ResponseWriter, r *http.Request, upstreamPath string) {
	token, ok := g.bearer(w, r)
	if !ok {
		return
	}
	var in chatRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.ChatMessage(in.Message, in.SessionID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	var up chatUpstreamResponse
	if !g.forward(w, r, token, upstreamPath, in, &up) {
		return
	}

	userMsg, err := g.messages.AppendMessage(r.Context(), &model.Message{
		SessionID: in.SessionID,
		Role:      model.MessageRoleUser,
		Content:   in.Message,
	})
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	assistantMsg, err := g.messages.AppendMessage(r.Context(), &model.Message{
		SessionID: in.SessionID,
		Role:      model.MessageRoleAssistant,
		Content:   up.Response,
	})
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"response":         up.Response,
		"audioUrl":         up.AudioURL,
		"userMessage":      userMsg,
		"assistantMessage": assistantMsg,
	})
}

// Chat handles POST /api/chat.
func (g *Relay) Chat(w http.ResponseWriter, r *http.Request) {
	g.chat(w, r, "/therapy-session")
}

// PatientChat handles POST /api/patient-chat.
func (g *Relay) PatientChat(w http.ResponseWriter, r *http.Request) {
	g.chat(w, r, "/api/patient-chat")
}

// passthrough relays the request body without interpreting it beyond a JSON
// well-formedness check, and mirrors the upstream 2xx body to the caller.
func (g *Relay) passthrough(w http.ResponseWriter, r *http.Request, upstreamPath string) {
	token, ok := g.bearer(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respond.WriteBadRequest(w, "unreadable body")
		return
	}
	var payload map[string]interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			respond.WriteBadRequest(w, "invalid json")
			return
		}
	}
	var out json.RawMessage
	if !g.forward(w, r, token, upstreamPath, payload, &out) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// MoodAnalysis handles POST /api/mood-analysis.
func (g *Relay) MoodAnalysis(w http.ResponseWriter, r *http.Request) {
	g.passthrough(w, r, "/api/mood-analysis")
}

// PathologyAnalysis handles POST /api/pathology-analysis.
func (g *Relay) PathologyAnalysis(w http.ResponseWriter, r *http.Request) {
	g.passthrough(w, r, "/api/pathology-analysis")
}

// ResourceRecommendation handles POST /api/resource-recommendation.
func (g *Relay) ResourceRecommendation(w http.ResponseWriter, r *http.Request) {
	g.passthrough(w, r, "/api/resource-recommendation")
}

// SessionSummary handles POST /api/session-summary.
func (g *Relay) SessionSummary(w http.ResponseWriter, r *http.Request) {
	g.passthrough(w, r, "/api/session-summary")
}

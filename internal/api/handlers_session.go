package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mat1312/psicologo/internal/api/respond"
	"github.com/mat1312/psicologo/internal/model"
)

func (a *API) CreateSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	patientID := mux.Vars(r)["patientId"]
	if !a.guardPatient(w, r, actor, patientID) {
		return
	}
	var in struct {
		Title *string `json:"title,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			respond.WriteBadRequest(w, "invalid json")
			return
		}
	}
	out, err := a.sessions.CreateSession(r.Context(), &model.ChatSession{PatientID: patientID, Title: in.Title})
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (a *API) ListSessions(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	patientID := mux.Vars(r)["patientId"]
	if !a.guardPatient(w, r, actor, patientID) {
		return
	}
	lst, err := a.sessions.ListSessions(r.Context(), patientID)
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, lst)
}

func (a *API) ListMessages(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	sessionID := mux.Vars(r)["sessionId"]
	sess, err := a.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	if !a.guardPatient(w, r, actor, sess.PatientID) {
		return
	}

	var afterSeq int64
	if v := r.URL.Query().Get("afterSeq"); v != "" {
		afterSeq, err = strconv.ParseInt(v, 10, 64)
		if err != nil || afterSeq < 0 {
			respond.WriteBadRequest(w, "afterSeq must be a non-negative integer")
			return
		}
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
	}

	lst, err := a.messages.ListMessages(r.Context(), sessionID, afterSeq, limit)
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	if lst == nil {
		lst = []*model.Message{}
	}
	respond.WriteJSON(w, http.StatusOK, lst)
}

// AppendMessage writes a message directly into a session. Used by the relay
// worker path and admin tooling; chat turns normally go through the gateway.
func (a *API) AppendMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	sessionID := mux.Vars(r)["sessionId"]
	sess, err := a.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	if !a.guardPatient(w, r, actor, sess.PatientID) {
		return
	}
	var in struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	out, err := a.messages.AppendMessage(r.Context(), &model.Message{
		SessionID: sessionID,
		Role:      model.MessageRole(in.Role),
		Content:   in.Content,
	})
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mat1312/psicologo/internal/api/respond"
)

func (a *API) CreateLink(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	therapistID := mux.Vars(r)["therapistId"]
	if actor.ActorID != therapistID && !actor.IsAdmin() {
		respond.WriteForbidden(w, "cannot manage another therapist's assignments")
		return
	}
	var in struct {
		PatientID string `json:"patientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.PatientID == "" {
		respond.WriteBadRequest(w, "patientId is required")
		return
	}
	link, already, err := a.links.CreateLink(r.Context(), therapistID, in.PatientID)
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	status := http.StatusCreated
	if already {
		status = http.StatusOK
	}
	respond.WriteJSON(w, status, map[string]interface{}{
		"link":          link,
		"alreadyExists": already,
	})
}

func (a *API) ListLinks(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	therapistID := mux.Vars(r)["therapistId"]
	if actor.ActorID != therapistID && !actor.IsAdmin() {
		respond.WriteForbidden(w, "cannot view another therapist's assignments")
		return
	}
	lst, err := a.links.ListLinks(r.Context(), therapistID)
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, lst)
}

func (a *API) GetDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	therapistID := mux.Vars(r)["therapistId"]
	if actor.ActorID != therapistID && !actor.IsAdmin() {
		respond.WriteForbidden(w, "cannot view another therapist's dashboard")
		return
	}
	d, err := a.dashboard.BuildDashboard(r.Context(), therapistID)
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, d)
}

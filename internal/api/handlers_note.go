package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mat1312/psicologo/internal/api/respond"
	"github.com/mat1312/psicologo/internal/model"
)

func (a *API) GetNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	patientID := mux.Vars(r)["patientId"]
	if !a.guardPatient(w, r, actor, patientID) {
		return
	}
	n, err := a.notes.GetNote(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// No note yet is a normal state, not an error.
			respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"note": nil})
			return
		}
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"note": n})
}

func (a *API) PutNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	patientID := mux.Vars(r)["patientId"]
	if !a.guardPatient(w, r, actor, patientID) {
		return
	}
	var in struct {
		Content     string  `json:"content"`
		TherapistID *string `json:"therapistId,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	therapistID := in.TherapistID
	if therapistID == nil && actor.ActorID != patientID && !actor.IsAdmin() {
		therapistID = &actor.ActorID
	}
	out, err := a.notes.SaveNote(r.Context(), &model.PatientNote{
		PatientID:   patientID,
		TherapistID: therapistID,
		Content:     in.Content,
	})
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mat1312/psicologo/internal/api/respond"
	"github.com/mat1312/psicologo/internal/model"
)

// Admin bypass surface. These handlers answer with a {success|error} JSON
// shape and skip the per-patient access checks; the admin key type is the
// only guard.

func (a *API) AdminOverview(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	links, err := a.links.ListAllLinks(r.Context())
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	profiles, err := a.profiles.ListProfiles(r.Context())
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	if links == nil {
		links = []*model.TherapistPatientLink{}
	}
	if profiles == nil {
		profiles = []*model.Profile{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"relations": links,
		"profiles":  profiles,
	})
}

func (a *API) AdminGetNote(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	patientID := r.URL.Query().Get("patientId")
	if patientID == "" {
		respond.WriteBadRequest(w, "patientId is required")
		return
	}
	n, err := a.notes.GetNote(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "note": nil})
			return
		}
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "note": n})
}

func (a *API) AdminSaveNote(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	var in struct {
		PatientID   string  `json:"patientId"`
		TherapistID *string `json:"therapistId,omitempty"`
		Content     string  `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.PatientID == "" {
		respond.WriteBadRequest(w, "patientId is required")
		return
	}
	n, err := a.notes.SaveNote(r.Context(), &model.PatientNote{
		PatientID:   in.PatientID,
		TherapistID: in.TherapistID,
		Content:     in.Content,
	})
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "note": n})
}

func (a *API) AdminAddLink(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	var in struct {
		TherapistID string `json:"therapistId"`
		PatientID   string `json:"patientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.TherapistID == "" || in.PatientID == "" {
		respond.WriteBadRequest(w, "therapistId and patientId are required")
		return
	}
	link, already, err := a.links.CreateLink(r.Context(), in.TherapistID, in.PatientID)
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	all, err := a.links.ListAllLinks(r.Context())
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"relation":      link,
		"alreadyExists": already,
		"allRelations":  all,
	})
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mat1312/psicologo/internal/api/respond"
	"github.com/mat1312/psicologo/internal/api/validate"
	"github.com/mat1312/psicologo/internal/model"
)

func (a *API) LogMood(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	patientID := mux.Vars(r)["patientId"]
	if !a.guardPatient(w, r, actor, patientID) {
		return
	}
	var in struct {
		Score int     `json:"moodScore"`
		Note  *string `json:"note,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.MoodScore(in.Score); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := a.moods.LogMood(r.Context(), &model.MoodLog{
		PatientID: patientID,
		Score:     in.Score,
		Note:      in.Note,
	})
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (a *API) ListMoods(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	patientID := mux.Vars(r)["patientId"]
	if !a.guardPatient(w, r, actor, patientID) {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	lst, err := a.moods.ListMoods(r.Context(), patientID, limit)
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	if lst == nil {
		lst = []*model.MoodLog{}
	}
	respond.WriteJSON(w, http.StatusOK, lst)
}

func (a *API) ListMoodData(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	patientID := mux.Vars(r)["patientId"]
	if !a.guardPatient(w, r, actor, patientID) {
		return
	}
	lst, err := a.moods.ListMoodData(r.Context(), patientID)
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	if lst == nil {
		lst = []*model.MoodDatum{}
	}
	respond.WriteJSON(w, http.StatusOK, lst)
}

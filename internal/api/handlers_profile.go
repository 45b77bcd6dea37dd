package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mat1312/psicologo/internal/api/respond"
	"github.com/mat1312/psicologo/internal/api/validate"
	"github.com/mat1312/psicologo/internal/model"
)

func (a *API) CreateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	var in struct {
		ID        string  `json:"id"`
		Email     string  `json:"email"`
		FirstName *string `json:"firstName,omitempty"`
		LastName  *string `json:"lastName,omitempty"`
		Role      string  `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.CreateProfile(in.Email, in.Role); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	p := &model.Profile{
		ID:        in.ID,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      model.Role(in.Role),
	}
	out, err := a.profiles.CreateProfile(r.Context(), p, actor.MetadataRole)
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (a *API) GetProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireActor(w, r); !ok {
		return
	}
	id := mux.Vars(r)["profileId"]
	p, err := a.profiles.GetProfile(r.Context(), id)
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// GetMe resolves the calling actor to a profile, creating one on first sight.
func (a *API) GetMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	p, err := a.profiles.ResolveActorProfile(r.Context(), actor.ActorID, actor.Email, actor.MetadataRole)
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

func (a *API) ListProfiles(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	lst, err := a.profiles.ListProfiles(r.Context())
	if err != nil {
		respond.WriteFromError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, lst)
}

package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tunestats/tunestats/models"
)

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Welcome to the TuneStats API!"})
}

type addUserRequest struct {
	Name               string `json:"name"`
	EmailID            string `json:"emailId"`
	CurrentAccessToken string `json:"currentAccessToken"`
	RefreshToken       string `json:"refreshToken"`
}

// addUser registers a new listener. The accumulator starts at zero and
// the checkpoint at now, so the tracker's first attribution interval
// begins at registration time. A duplicate email is a benign no-op.
func (app *application) addUser(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	if req.EmailID == "" {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	user := &models.User{
		Email:         req.EmailID,
		Name:          req.Name,
		AccessToken:   req.CurrentAccessToken,
		RefreshToken:  req.RefreshToken,
		ListenTime:    0,
		LastCheckTime: time.Now().UnixNano(),
		CreatedAt:     time.Now().UTC(),
	}

	created, err := app.store.CreateUser(user)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if !created {
		app.logger.Info("user already exists", "user", req.EmailID)
		jsonResponse(w, http.StatusOK, map[string]string{"message": "User already exists"})
		return
	}

	app.logger.Info("added new user", "user", req.EmailID)
	jsonResponse(w, http.StatusCreated, map[string]string{"message": "User added"})
}

// userStats returns the stored listening stats for one user.
func (app *application) userStats(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("emailId")

	user, err := app.store.GetUserByEmail(email)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if user == nil {
		app.clientError(w, http.StatusNotFound)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"emailId":            user.Email,
		"name":               user.Name,
		"listenTimeNanos":    user.ListenTime,
		"lastCheckTimeNanos": user.LastCheckTime,
		"dateTimeAddedInUTC": user.CreatedAt,
	})
}

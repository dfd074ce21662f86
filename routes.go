package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", app.home)
	mux.HandleFunc("HEAD /{$}", app.home)
	mux.HandleFunc("POST /addUser", app.addUser)
	mux.HandleFunc("GET /api/v1/users/{emailId}", app.userStats)

	standard := alice.New(app.recoverPanic, app.logRequest, commonHeaders)

	return standard.Then(mux)
}

package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /v1/system/state", handler.GetSystemState)
}

func registerReadRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
	mux.HandleFunc("GET /v1/teams/{teamID}/history", handler.GetTeamHistory)
	mux.HandleFunc("GET /v1/users", handler.ListUsers)
	mux.HandleFunc("GET /v1/users/{userID}", handler.GetUser)
	mux.HandleFunc("GET /v1/users/{userID}/history", handler.GetUserHistory)
	mux.HandleFunc("GET /v1/hardware", handler.ListHardware)
	mux.HandleFunc("GET /v1/hardware/{hardwareID}", handler.GetHardware)
	mux.HandleFunc("GET /v1/scoreboard", handler.GetScoreboard)
	mux.HandleFunc("GET /v1/leaderboards/teams", handler.ListTeamStandings)
	mux.HandleFunc("GET /v1/leaderboards/categories", handler.ListCategoryStandings)
}

func registerWriteRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("PUT /v1/teams/{teamID}", handler.UpsertTeam)
	mux.HandleFunc("POST /v1/teams", handler.UpsertTeam)
	mux.HandleFunc("DELETE /v1/teams/{teamID}", handler.DeleteTeam)
	mux.HandleFunc("POST /v1/users", handler.CreateUser)
	mux.HandleFunc("PUT /v1/users/{userID}", handler.UpdateUser)
	mux.HandleFunc("PUT /v1/users/{userID}/offset", handler.SetUserOffset)
	mux.HandleFunc("POST /v1/teams/{teamID}/users/{userID}/retire", handler.RetireUser)
	mux.HandleFunc("POST /v1/hardware", handler.UpsertHardware)
	mux.HandleFunc("PUT /v1/hardware/{hardwareID}", handler.UpsertHardware)
	mux.HandleFunc("DELETE /v1/hardware/{hardwareID}", handler.DeleteHardware)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/sweep", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSweepJob)))
	mux.Handle("POST /v1/internal/jobs/reset", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunResetJob)))
}

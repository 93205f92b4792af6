// Package api exposes the reminder service over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"dose-go/internal/api/recovery"
	"dose-go/internal/dose"
)

// Notifications is the permission side of the notification gateway.
type Notifications interface {
	Permission() dose.Permission
	RequestPermission(ctx context.Context) dose.Permission
}

// LoopStatus reports the scheduler's loop states for the health check.
type LoopStatus interface {
	LoopStates() (medications, appointments string)
}

// Handler serves the JSON API.
type Handler struct {
	svc           *dose.ReminderService
	notifications Notifications
	loops         LoopStatus
	logger        dose.Logger
}

func NewHandler(svc *dose.ReminderService, notifications Notifications, loops LoopStatus, logger dose.Logger) *Handler {
	return &Handler{svc: svc, notifications: notifications, loops: loops, logger: logger}
}

// NewRouter registers every route on a new router.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(recovery.Middleware(h.logger))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api.HandleFunc("/medications", h.ListMedications).Methods(http.MethodGet)
	api.HandleFunc("/medications", h.CreateMedication).Methods(http.MethodPost)
	api.HandleFunc("/medications/{id}/toggle", h.ToggleMedication).Methods(http.MethodPost)
	api.HandleFunc("/medications/{id}/ask", h.AskAboutMedication).Methods(http.MethodPost)
	api.HandleFunc("/medications/{id}", h.DeleteMedication).Methods(http.MethodDelete)

	api.HandleFunc("/appointments", h.ListAppointments).Methods(http.MethodGet)
	api.HandleFunc("/appointments", h.CreateAppointment).Methods(http.MethodPost)
	api.HandleFunc("/appointments/{id}", h.DeleteAppointment).Methods(http.MethodDelete)

	api.HandleFunc("/journal", h.ListJournal).Methods(http.MethodGet)
	api.HandleFunc("/journal", h.CreateJournalEntry).Methods(http.MethodPost)

	api.HandleFunc("/files", h.ListFiles).Methods(http.MethodGet)
	api.HandleFunc("/files", h.UploadFiles).Methods(http.MethodPost)
	api.HandleFunc("/files/{id}", h.DeleteFile).Methods(http.MethodDelete)

	api.HandleFunc("/notifications/permission", h.GetPermission).Methods(http.MethodGet)
	api.HandleFunc("/notifications/permission", h.RequestPermission).Methods(http.MethodPost)

	return r
}

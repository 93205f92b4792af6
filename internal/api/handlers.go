package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"

	"dose-go/internal/api/respond"
	"dose-go/internal/dose"
)

const maxUploadMemory = 32 << 20

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Health GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	meds, appts := h.loops.LoopStates()
	respond.WriteJSON(w, http.StatusOK, map[string]string{
		"status":           "ok",
		"permission":       h.notifications.Permission().String(),
		"medication_loop":  meds,
		"appointment_loop": appts,
	})
}

// ListMedications GET /api/medications
func (h *Handler) ListMedications(w http.ResponseWriter, r *http.Request) {
	meds := h.svc.Medications()
	respond.WriteJSON(w, http.StatusOK, map[string]any{"medications": nonNil(meds), "count": len(meds)})
}

// CreateMedication POST /api/medications
func (h *Handler) CreateMedication(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Dosage string `json:"dosage"`
		Time   string `json:"time"`
	}
	if err := decode(r, &req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	m, err := h.svc.AddMedication(req.Name, req.Dosage, req.Time)
	if err != nil {
		respond.WriteServiceError(w, err, h.logger)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, m)
}

// ToggleMedication POST /api/medications/{id}/toggle
func (h *Handler) ToggleMedication(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.ToggleTaken(mux.Vars(r)["id"])
	if err != nil {
		respond.WriteServiceError(w, err, h.logger)
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}

// DeleteMedication DELETE /api/medications/{id}
func (h *Handler) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMedication(mux.Vars(r)["id"]); err != nil {
		respond.WriteServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AskAboutMedication POST /api/medications/{id}/ask
func (h *Handler) AskAboutMedication(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
			respond.WriteBadRequest(w, "Invalid JSON")
			return
		}
	}
	answer, err := h.svc.AskAboutMedication(r.Context(), mux.Vars(r)["id"], req.Question)
	if err != nil {
		if errors.Is(err, dose.ErrNotFound) {
			respond.WriteNotFound(w, err.Error())
			return
		}
		respond.WriteError(w, http.StatusServiceUnavailable, "assistant is not available")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// ListAppointments GET /api/appointments
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	appts := h.svc.Appointments()
	respond.WriteJSON(w, http.StatusOK, map[string]any{"appointments": nonNil(appts), "count": len(appts)})
}

// CreateAppointment POST /api/appointments
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date      string `json:"date"`
		Time      string `json:"time"`
		Specialty string `json:"specialty"`
		Location  string `json:"location"`
	}
	if err := decode(r, &req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	a, err := h.svc.AddAppointment(req.Date, req.Time, req.Specialty, req.Location)
	if err != nil {
		respond.WriteServiceError(w, err, h.logger)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, a)
}

// DeleteAppointment DELETE /api/appointments/{id}
func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAppointment(mux.Vars(r)["id"]); err != nil {
		respond.WriteServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListJournal GET /api/journal
func (h *Handler) ListJournal(w http.ResponseWriter, r *http.Request) {
	entries := h.svc.JournalEntries()
	respond.WriteJSON(w, http.StatusOK, map[string]any{"entries": nonNil(entries), "count": len(entries)})
}

// CreateJournalEntry POST /api/journal
func (h *Handler) CreateJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decode(r, &req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	e, err := h.svc.AddJournalEntry(req.Content)
	if err != nil {
		respond.WriteServiceError(w, err, h.logger)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, e)
}

// ListFiles GET /api/files
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files := h.svc.ArchivedFiles()
	respond.WriteJSON(w, http.StatusOK, map[string]any{"files": nonNil(files), "count": len(files)})
}

// UploadFiles POST /api/files (multipart, one or more "files" parts)
func (h *Handler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respond.WriteBadRequest(w, "expected a multipart form")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respond.WriteBadRequest(w, "no files in form field \"files\"")
		return
	}

	inputs := make([]dose.FileInput, len(headers))
	for i, fh := range headers {
		inputs[i] = fileInput(fh)
	}
	stored, err := h.svc.ArchiveFiles(r.Context(), inputs)

	var failures []string
	if err != nil {
		failures = splitJoined(err)
	}
	if len(stored) == 0 {
		respond.WriteJSON(w, http.StatusBadRequest, map[string]any{"files": []dose.ArchivedFile{}, "errors": failures})
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]any{"files": stored, "errors": nonNil(failures)})
}

// DeleteFile DELETE /api/files/{id}
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteArchivedFile(mux.Vars(r)["id"]); err != nil {
		respond.WriteServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPermission GET /api/notifications/permission
func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]string{"permission": h.notifications.Permission().String()})
}

// RequestPermission POST /api/notifications/permission
func (h *Handler) RequestPermission(w http.ResponseWriter, r *http.Request) {
	p := h.notifications.RequestPermission(r.Context())
	respond.WriteJSON(w, http.StatusOK, map[string]string{"permission": p.String()})
}

func fileInput(fh *multipart.FileHeader) dose.FileInput {
	declared := fh.Header.Get("Content-Type")
	if declared == "application/octet-stream" {
		declared = ""
	}
	return dose.FileInput{
		Name: fh.Filename,
		Type: declared,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// splitJoined flattens an errors.Join result into messages.
func splitJoined(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

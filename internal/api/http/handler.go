package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"nextcloud-notes/internal/repository/memory"
	svc "nextcloud-notes/internal/service"
	notesService "nextcloud-notes/internal/service/notes"
	"nextcloud-notes/pkg/notesapi"
)

// SupportedAPIVersions версии Notes API, которые сообщает эмулятор
var SupportedAPIVersions = []string{"0.2", "1.0"}

const appVersion = "4.0.0"

// Handler реализует HTTP API приложения Nextcloud Notes поверх NoteService
type Handler struct {
	noteService svc.NoteService
	logger      logrus.FieldLogger
}

// NewHandler создает новый экземпляр HTTP хэндлера
func NewHandler(noteService svc.NoteService, logger logrus.FieldLogger) *Handler {
	return &Handler{
		noteService: noteService,
		logger:      logger,
	}
}

// Register регистрирует маршруты Notes API и capabilities на mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+notesapi.CapabilitiesPath, h.Capabilities)
	mux.HandleFunc("GET "+notesapi.NotesPath, h.ListNotes)
	mux.HandleFunc("POST "+notesapi.NotesPath, h.CreateNote)
	mux.HandleFunc("GET "+notesapi.NotesPath+"/{id}", h.GetNote)
	mux.HandleFunc("PUT "+notesapi.NotesPath+"/{id}", h.UpdateNote)
	mux.HandleFunc("DELETE "+notesapi.NotesPath+"/{id}", h.DeleteNote)
}

// Capabilities отвечает в формате OCS со списком версий Notes API
func (h *Handler) Capabilities(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"ocs": map[string]any{
			"meta": map[string]any{
				"status":     "ok",
				"statuscode": http.StatusOK,
				"message":    "OK",
			},
			"data": map[string]any{
				"capabilities": map[string]any{
					"notes": map[string]any{
						"api_version": SupportedAPIVersions,
						"version":     appVersion,
					},
				},
			},
		},
	})
}

// ListNotes возвращает все заметки; на совпавший If-None-Match отвечает 304
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, etag, err := h.noteService.List(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	w.Header().Set("ETag", etag)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.writeJSON(w, http.StatusOK, notes)
}

// GetNote возвращает заметку по ID
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	note, err := h.noteService.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, note)
}

// CreateNote создает заметку из JSON тела запроса
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	fields, ok := h.decodeFields(w, r)
	if !ok {
		return
	}

	note, err := h.noteService.Create(r.Context(), fields)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, note)
}

// UpdateNote обновляет переданные поля заметки
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	fields, ok := h.decodeFields(w, r)
	if !ok {
		return
	}

	note, err := h.noteService.Update(r.Context(), id, fields)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, note)
}

// DeleteNote удаляет заметку по ID
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.noteService.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid note id")
		return 0, false
	}
	return id, true
}

func (h *Handler) decodeFields(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	fields := map[string]any{}
	if r.Body == nil || r.ContentLength == 0 {
		return fields, true
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	return fields, true
}

// handleError конвертирует ошибки сервиса в HTTP статусы Notes API
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, memory.ErrNoteNotFound):
		h.writeError(w, http.StatusNotFound, "note not found")
	case errors.Is(err, memory.ErrInsufficientStorage):
		h.writeError(w, http.StatusInsufficientStorage, "insufficient storage")
	case errors.Is(err, notesService.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, "invalid note id")
	case errors.Is(err, notesService.ErrInvalidNote):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).Error("notes emulator internal error")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"message": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Warn("failed to write response")
	}
}

// etagMatches сравнивает If-None-Match с текущим ETag (слабое сравнение, список через запятую)
func etagMatches(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}

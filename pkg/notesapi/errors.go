package notesapi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials возвращается, когда сервер отклонил учетные данные (401)
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidNoteID возвращается, когда сервер отклонил идентификатор заметки (400)
	ErrInvalidNoteID = errors.New("invalid note id")
	// ErrNoteNotFound возвращается, когда заметка не найдена (404)
	ErrNoteNotFound = errors.New("note not found")
	// ErrInsufficientStorage возвращается, когда на сервере не хватает места (507)
	ErrInsufficientStorage = errors.New("insufficient storage")
	// ErrNoteIDNotSet возвращается UpdateNote до отправки запроса, если у заметки нет ID
	ErrNoteIDNotSet = errors.New("note id not set")
	// ErrAPIVersionUnavailable возвращается, если сервер не сообщил версию API заметок
	ErrAPIVersionUnavailable = errors.New("notes api version unavailable")
	// ErrListConsumed возвращается при повторном проходе по ленивому списку заметок
	ErrListConsumed = errors.New("note list already consumed")
)

// formatMessage формирует сообщение вида `Msg: key="val", key="val"`
func formatMessage(msg string, kv ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	b.WriteString(": ")
	for i := 0; i+1 < len(kv); i += 2 {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v=\"%v\"", kv[i], kv[i+1])
	}
	return b.String()
}

// InvalidCredentialsError - сервер ответил 401.
// Пароль в ошибку не попадает.
type InvalidCredentialsError struct {
	Username string
	Hostname string
}

func (e *InvalidCredentialsError) Error() string {
	return formatMessage("Invalid credentials", "username", e.Username, "hostname", e.Hostname)
}

func (e *InvalidCredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// InvalidNoteIDError - сервер ответил 400 на идентификатор заметки
type InvalidNoteIDError struct {
	NoteID   int64
	Hostname string
}

func (e *InvalidNoteIDError) Error() string {
	return formatMessage("Invalid note id", "note_id", e.NoteID, "hostname", e.Hostname)
}

func (e *InvalidNoteIDError) Is(target error) bool {
	return target == ErrInvalidNoteID
}

// NoteNotFoundError - заметка с NoteID не существует
type NoteNotFoundError struct {
	NoteID   int64
	Hostname string
}

func (e *NoteNotFoundError) Error() string {
	return formatMessage("Note not found", "note_id", e.NoteID, "hostname", e.Hostname)
}

func (e *NoteNotFoundError) Is(target error) bool {
	return target == ErrNoteNotFound
}

// InsufficientStorageError - на сервере недостаточно места для сохранения Note
type InsufficientStorageError struct {
	Hostname string
	Note     Note
}

func (e *InsufficientStorageError) Error() string {
	return formatMessage("Not enough free space for saving note", "hostname", e.Hostname, "note", e.Note)
}

func (e *InsufficientStorageError) Is(target error) bool {
	return target == ErrInsufficientStorage
}

// UnexpectedStatusError - сервер вернул статус, для которого нет отдельной ошибки
type UnexpectedStatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *UnexpectedStatusError) Error() string {
	return formatMessage("Unexpected response status",
		"method", e.Method, "url", e.URL, "status", e.StatusCode, "body", e.Body)
}

package notes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"nextcloud-notes/internal/repository"
	svc "nextcloud-notes/internal/service"
	"nextcloud-notes/pkg/notesapi"
)

var (
	// ErrInvalidID возвращается для неположительного идентификатора заметки
	ErrInvalidID = errors.New("note id must be positive")
	// ErrInvalidNote возвращается, если поля заметки не удалось разобрать
	ErrInvalidNote = errors.New("invalid note")
)

var _ svc.NoteService = (*service)(nil)

type service struct {
	noteRepository repository.NoteRepository
}

// NewNoteService создает новый экземпляр сервиса для работы с заметками
func NewNoteService(noteRepository repository.NoteRepository) svc.NoteService {
	return &service{
		noteRepository: noteRepository,
	}
}

// Create создает заметку из wire-полей; ID и Modified назначает репозиторий
func (s *service) Create(ctx context.Context, fields map[string]any) (notesapi.Note, error) {
	note, err := notesapi.NoteFromMap(fields)
	if err != nil {
		return notesapi.Note{}, fmt.Errorf("%w: %v", ErrInvalidNote, err)
	}
	note.ID = 0

	return s.noteRepository.Create(ctx, note)
}

// Get возвращает заметку по её ID
func (s *service) Get(ctx context.Context, id int64) (notesapi.Note, error) {
	if id <= 0 {
		return notesapi.Note{}, ErrInvalidID
	}

	return s.noteRepository.GetByID(ctx, id)
}

// List возвращает все заметки и ETag, вычисленный по их содержимому
func (s *service) List(ctx context.Context) ([]notesapi.Note, string, error) {
	notes, err := s.noteRepository.List(ctx)
	if err != nil {
		return nil, "", err
	}

	etag, err := collectionETag(notes)
	if err != nil {
		return nil, "", err
	}

	return notes, etag, nil
}

// Update применяет переданные поля поверх существующей заметки.
// Отсутствующие в запросе поля сохраняют прежние значения.
func (s *service) Update(ctx context.Context, id int64, fields map[string]any) (notesapi.Note, error) {
	if id <= 0 {
		return notesapi.Note{}, ErrInvalidID
	}

	existing, err := s.noteRepository.GetByID(ctx, id)
	if err != nil {
		return notesapi.Note{}, err
	}

	merged := existing.ToMap()
	maps.Copy(merged, fields)

	note, err := notesapi.NoteFromMap(merged)
	if err != nil {
		return notesapi.Note{}, fmt.Errorf("%w: %v", ErrInvalidNote, err)
	}
	note.ID = id

	return s.noteRepository.Update(ctx, note)
}

// Delete удаляет заметку по ID
func (s *service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}

	return s.noteRepository.Delete(ctx, id)
}

// collectionETag строит сильный ETag по упорядоченной коллекции заметок
func collectionETag(notes []notesapi.Note) (string, error) {
	payload, err := json.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}
	sum := sha256.Sum256(payload)
	return `"` + hex.EncodeToString(sum[:16]) + `"`, nil
}

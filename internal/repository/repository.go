package repository

import (
	"context"

	"nextcloud-notes/pkg/notesapi"
)

// NoteRepository интерфейс для работы с заметками в хранилище эмулятора
type NoteRepository interface {
	// Create сохраняет новую заметку и возвращает ее с назначенными ID и Modified
	Create(ctx context.Context, note notesapi.Note) (notesapi.Note, error)

	// GetByID возвращает заметку по её ID
	GetByID(ctx context.Context, id int64) (notesapi.Note, error)

	// List возвращает все заметки, упорядоченные по ID
	List(ctx context.Context) ([]notesapi.Note, error)

	// Update заменяет существующую заметку и возвращает ее с новым Modified
	Update(ctx context.Context, note notesapi.Note) (notesapi.Note, error)

	// Delete удаляет заметку по ID
	Delete(ctx context.Context, id int64) error
}

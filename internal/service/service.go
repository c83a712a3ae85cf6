package service

import (
	"context"

	"nextcloud-notes/pkg/notesapi"
)

// NoteService интерфейс бизнес-логики эмулятора Notes API
type NoteService interface {
	// Create создает заметку из wire-полей; id из запроса игнорируется
	Create(ctx context.Context, fields map[string]any) (notesapi.Note, error)

	// Get возвращает заметку по её ID
	Get(ctx context.Context, id int64) (notesapi.Note, error)

	// List возвращает все заметки и ETag коллекции
	List(ctx context.Context) ([]notesapi.Note, string, error)

	// Update обновляет переданные поля заметки с указанным ID
	Update(ctx context.Context, id int64, fields map[string]any) (notesapi.Note, error)

	// Delete удаляет заметку по ID
	Delete(ctx context.Context, id int64) error
}

package memory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"nextcloud-notes/internal/repository"
	"nextcloud-notes/pkg/notesapi"
)

var (
	// ErrNoteNotFound возвращается, когда заметка не найдена
	ErrNoteNotFound = errors.New("note not found")
	// ErrInsufficientStorage возвращается, когда заметка не помещается в квоту
	ErrInsufficientStorage = errors.New("insufficient storage")
)

var _ repository.NoteRepository = (*repo)(nil)

type repo struct {
	mu     sync.RWMutex
	notes  map[int64]notesapi.Note
	nextID int64
	// quota ограничивает суммарный размер content всех заметок; 0 - без ограничений
	quota int
	used  int
}

// NewRepository создает новый экземпляр in-memory репозитория на основе map.
// quotaBytes ограничивает суммарный размер содержимого заметок (0 - без ограничений).
func NewRepository(quotaBytes int) repository.NoteRepository {
	return &repo{
		notes:  make(map[int64]notesapi.Note),
		nextID: 1,
		quota:  quotaBytes,
	}
}

// Create сохраняет новую заметку; переданный ID игнорируется
func (r *repo) Create(ctx context.Context, note notesapi.Note) (notesapi.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.fits(len(note.Content)) {
		return notesapi.Note{}, ErrInsufficientStorage
	}

	note.ID = r.nextID
	r.nextID++
	note.Modified = time.Now().Unix()

	r.notes[note.ID] = note
	r.used += len(note.Content)

	return note, nil
}

// GetByID возвращает заметку по её ID
func (r *repo) GetByID(ctx context.Context, id int64) (notesapi.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	note, exists := r.notes[id]
	if !exists {
		return notesapi.Note{}, ErrNoteNotFound
	}

	return note, nil
}

// List возвращает все заметки, упорядоченные по ID
func (r *repo) List(ctx context.Context) ([]notesapi.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := make([]notesapi.Note, 0, len(r.notes))
	for _, note := range r.notes {
		notes = append(notes, note)
	}
	slices.SortFunc(notes, func(a, b notesapi.Note) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return notes, nil
}

// Update заменяет существующую заметку и обновляет время изменения
func (r *repo) Update(ctx context.Context, note notesapi.Note) (notesapi.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.notes[note.ID]
	if !exists {
		return notesapi.Note{}, ErrNoteNotFound
	}

	if !r.fits(len(note.Content) - len(existing.Content)) {
		return notesapi.Note{}, ErrInsufficientStorage
	}

	note.Modified = time.Now().Unix()
	r.notes[note.ID] = note
	r.used += len(note.Content) - len(existing.Content)

	return note, nil
}

// Delete удаляет заметку по ID
func (r *repo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.notes[id]
	if !exists {
		return ErrNoteNotFound
	}

	delete(r.notes, id)
	r.used -= len(existing.Content)

	return nil
}

func (r *repo) fits(delta int) bool {
	return r.quota <= 0 || r.used+delta <= r.quota
}

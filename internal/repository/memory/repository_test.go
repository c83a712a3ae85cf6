package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextcloud-notes/pkg/notesapi"
)

func TestRepository_CreateAssignsIDAndModified(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(0)

	first, err := r.Create(ctx, notesapi.NewNote("Spam", "Bacon", notesapi.WithID(999)))
	require.NoError(t, err)
	second, err := r.Create(ctx, notesapi.NewNote("Eggs", ""))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID, "client supplied id must be ignored")
	assert.Equal(t, int64(2), second.ID)
	assert.NotZero(t, first.Modified)
}

func TestRepository_ListOrderedByID(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(0)

	for _, title := range []string{"a", "b", "c"} {
		_, err := r.Create(ctx, notesapi.NewNote(title, ""))
		require.NoError(t, err)
	}
	require.NoError(t, r.Delete(ctx, 2))

	notes, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "a", notes[0].Title)
	assert.Equal(t, "c", notes[1].Title)
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(0)

	_, err := r.GetByID(ctx, 42)
	assert.ErrorIs(t, err, ErrNoteNotFound)

	_, err = r.Update(ctx, notesapi.NewNote("x", "", notesapi.WithID(42)))
	assert.ErrorIs(t, err, ErrNoteNotFound)

	assert.ErrorIs(t, r.Delete(ctx, 42), ErrNoteNotFound)
}

func TestRepository_Quota(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(10)

	note, err := r.Create(ctx, notesapi.NewNote("a", "12345"))
	require.NoError(t, err)

	_, err = r.Create(ctx, notesapi.NewNote("b", "123456"))
	assert.ErrorIs(t, err, ErrInsufficientStorage)

	note.Content = "1234567890"
	_, err = r.Update(ctx, note)
	require.NoError(t, err, "update within quota must succeed")

	note.Content = "12345678901"
	_, err = r.Update(ctx, note)
	assert.ErrorIs(t, err, ErrInsufficientStorage)

	require.NoError(t, r.Delete(ctx, note.ID))
	_, err = r.Create(ctx, notesapi.NewNote("c", "1234567890"))
	assert.NoError(t, err, "deleting frees quota")
}

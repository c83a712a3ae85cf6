package notesapi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewNote_Defaults(t *testing.T) {
	note := NewNote("title", "content")

	assert.Equal(t, "title", note.Title)
	assert.Equal(t, "content", note.Content)
	assert.Empty(t, note.Category)
	assert.False(t, note.Favorite)
	assert.Zero(t, note.ID)
	assert.Zero(t, note.Modified)
	assert.False(t, note.Persisted())
	assert.True(t, note.ModifiedTime().IsZero())
}

func TestNewNote_Options(t *testing.T) {
	note := NewNote("title", "content",
		WithCategory("work"),
		WithFavorite(true),
		WithID(1337),
		WithModified(100000),
	)

	assert.Equal(t, Note{
		Title:    "title",
		Content:  "content",
		Category: "work",
		Favorite: true,
		ID:       1337,
		Modified: 100000,
	}, note)
	assert.True(t, note.Persisted())
}

func TestNewNote_GeneratedModified(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	note := NewNote("t", "c", WithModified(5), WithGeneratedModified())
	assert.Equal(t, fixed.Unix(), note.Modified)
}

func TestNewNote_ModifiedTime(t *testing.T) {
	ts := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	note := NewNote("t", "c", WithModifiedTime(ts))

	assert.Equal(t, ts.Unix(), note.Modified)
	assert.True(t, ts.Equal(note.ModifiedTime()))
}

func TestUpdateModified(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	var note Note
	note.UpdateModified()
	assert.Equal(t, fixed.Unix(), note.Modified)

	explicit := time.Unix(42, 0)
	note.UpdateModified(explicit)
	assert.Equal(t, int64(42), note.Modified)

	note.UpdateModified(time.Time{})
	assert.Equal(t, fixed.Unix(), note.Modified, "zero time falls back to now")

	assert.Equal(t, fixed.Unix(), NewNote("t", "c", WithModifiedTime(time.Time{})).Modified)
}

func TestToMap(t *testing.T) {
	t.Run("empty note", func(t *testing.T) {
		m := Note{}.ToMap()

		assert.Len(t, m, 6)
		assert.Equal(t, "", m["title"])
		assert.Equal(t, "", m["content"])
		assert.Equal(t, "", m["category"])
		assert.Equal(t, false, m["favorite"])
		assert.Nil(t, m["id"])
		assert.Nil(t, m["modified"])
	})

	t.Run("full note", func(t *testing.T) {
		m := NewNote("a", "b", WithCategory("c"), WithFavorite(true), WithID(7), WithModified(9)).ToMap()

		assert.Equal(t, map[string]any{
			"title":    "a",
			"content":  "b",
			"category": "c",
			"favorite": true,
			"id":       int64(7),
			"modified": int64(9),
		}, m)
	})
}

func TestNoteFromMap(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want Note
	}{
		{
			name: "all keys",
			in: map[string]any{
				"title": "t", "content": "c", "category": "cat",
				"favorite": true, "id": float64(1337), "modified": float64(100000),
			},
			want: Note{Title: "t", Content: "c", Category: "cat", Favorite: true, ID: 1337, Modified: 100000},
		},
		{
			name: "missing keys use defaults",
			in:   map[string]any{"title": "only"},
			want: Note{Title: "only"},
		},
		{
			name: "null values use defaults",
			in: map[string]any{
				"title": "t", "content": "c", "category": nil,
				"favorite": nil, "id": nil, "modified": nil,
			},
			want: Note{Title: "t", Content: "c"},
		},
		{
			name: "unknown keys ignored",
			in:   map[string]any{"title": "t", "etag": "abc", "readonly": false, "error": false},
			want: Note{Title: "t"},
		},
		{
			name: "integer values",
			in:   map[string]any{"id": 5, "modified": int64(6)},
			want: Note{ID: 5, Modified: 6},
		},
		{
			name: "empty map",
			in:   map[string]any{},
			want: Note{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NoteFromMap(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNoteFromMap_TypeMismatch(t *testing.T) {
	_, err := NoteFromMap(map[string]any{"id": "not a number"})
	assert.Error(t, err)

	_, err = NoteFromMap(map[string]any{"favorite": "yes"})
	assert.Error(t, err)
}

func TestNoteFromMap_RejectsLossyNumbers(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
	}{
		{"fractional modified", map[string]any{"modified": 1.9}},
		{"fractional id", map[string]any{"id": float64(2.5)}},
		{"fractional json number", map[string]any{"id": json.Number("1.5")}},
		{"id out of range", map[string]any{"id": json.Number("99999999999999999999")}},
		{"number for string field", map[string]any{"title": json.Number("5")}},
		{"float for string field", map[string]any{"content": float64(5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NoteFromMap(tt.in)
			assert.Error(t, err)
		})
	}

	note, err := NoteFromMap(map[string]any{"id": json.Number("42"), "modified": float64(100000)})
	require.NoError(t, err)
	assert.Equal(t, Note{ID: 42, Modified: 100000}, note)
}

func TestNote_UnmarshalJSONPrecision(t *testing.T) {
	var note Note
	require.NoError(t, json.Unmarshal([]byte(`{"id":9007199254740993,"modified":1700000000}`), &note))
	assert.Equal(t, int64(9007199254740993), note.ID)

	err := json.Unmarshal([]byte(`{"id":1,"modified":1.9}`), &note)
	assert.Error(t, err, "fractional modified must not be truncated")
}

func TestNote_JSON(t *testing.T) {
	data := []byte(`{"id":1337,"title":"Test title","content":"Test content","category":null,"favorite":null,"modified":100000,"etag":"x"}`)

	var note Note
	require.NoError(t, json.Unmarshal(data, &note))
	assert.Equal(t, NewNote("Test title", "Test content", WithID(1337), WithModified(100000)), note)

	encoded, err := json.Marshal(NewNote("a", "b"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"a","content":"b","category":"","favorite":false,"id":null,"modified":null}`, string(encoded))

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &note))
}

func TestNote_String(t *testing.T) {
	assert.Equal(t,
		`Note{title: "", content: "", category: "", favorite: false, id: null, modified: null}`,
		Note{}.String())

	note := NewNote("Title", "Body", WithCategory("work"), WithFavorite(true), WithID(1337), WithModified(100000))
	assert.Equal(t,
		`Note{title: "Title", content: "Body", category: "work", favorite: true, id: 1337, modified: 1970-01-02 03:46:40}`,
		note.String())
}

func TestNote_Equal(t *testing.T) {
	a := NewNote("t", "c", WithID(1))
	b := NewNote("t", "c", WithID(1))
	c := NewNote("t", "c", WithID(2))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func noteGenerator() *rapid.Generator[Note] {
	return rapid.Custom(func(t *rapid.T) Note {
		return Note{
			Title:    rapid.String().Draw(t, "title"),
			Content:  rapid.String().Draw(t, "content"),
			Category: rapid.String().Draw(t, "category"),
			Favorite: rapid.Bool().Draw(t, "favorite"),
			ID:       rapid.Int64Min(0).Draw(t, "id"),
			Modified: rapid.Int64Range(0, 1<<40).Draw(t, "modified"),
		}
	})
}

func TestNote_MapRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		note := noteGenerator().Draw(t, "note")

		got, err := NoteFromMap(note.ToMap())
		if err != nil {
			t.Fatalf("NoteFromMap: %v", err)
		}
		if !got.Equal(note) {
			t.Fatalf("round trip mismatch: %s != %s", got, note)
		}
	})
}

func TestNote_JSONRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		note := noteGenerator().Draw(t, "note")

		data, err := json.Marshal(note)
		if err != nil {
			t.Fatalf("json.Marshal: %v", err)
		}
		var got Note
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("json.Unmarshal: %v", err)
		}
		if got != note {
			t.Fatalf("round trip mismatch: %s != %s", got, note)
		}
	})
}

func TestNote_EqualityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := noteGenerator().Draw(t, "a")
		b := noteGenerator().Draw(t, "b")

		if a.Equal(b) != (a.Title == b.Title &&
			a.Content == b.Content && a.Category == b.Category &&
			a.Favorite == b.Favorite && a.ID == b.ID && a.Modified == b.Modified) {
			t.Fatalf("Equal disagrees with field comparison for %s and %s", a, b)
		}
		if !a.Equal(a) {
			t.Fatalf("Equal is not reflexive for %s", a)
		}
	})
}

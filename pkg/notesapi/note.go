package notesapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// now подменяется в тестах
var now = time.Now

// Note представляет заметку приложения Nextcloud Notes.
// Незаполненные поля имеют нулевые значения: пустые строки, false,
// ID == 0 (заметка еще не сохранена на сервере) и Modified == 0 (время не задано).
type Note struct {
	Title    string `json:"title"`    // Заголовок заметки
	Content  string `json:"content"`  // Содержание заметки
	Category string `json:"category"` // Категория заметки
	Favorite bool   `json:"favorite"` // Отмечена ли заметка как избранная
	ID       int64  `json:"id"`       // Идентификатор, назначается сервером
	Modified int64  `json:"modified"` // Время последнего изменения (unix timestamp, секунды)
}

// NoteOption задает необязательное поле заметки при создании через NewNote
type NoteOption func(*noteBuilder)

type noteBuilder struct {
	note             Note
	generateModified bool
}

// WithCategory задает категорию заметки
func WithCategory(category string) NoteOption {
	return func(b *noteBuilder) { b.note.Category = category }
}

// WithFavorite отмечает заметку как избранную
func WithFavorite(favorite bool) NoteOption {
	return func(b *noteBuilder) { b.note.Favorite = favorite }
}

// WithID задает идентификатор заметки
func WithID(id int64) NoteOption {
	return func(b *noteBuilder) { b.note.ID = id }
}

// WithModified задает время изменения как unix timestamp
func WithModified(ts int64) NoteOption {
	return func(b *noteBuilder) { b.note.Modified = ts }
}

// WithModifiedTime задает время изменения как time.Time.
// Нулевое time.Time означает текущее время, как в UpdateModified.
func WithModifiedTime(t time.Time) NoteOption {
	return func(b *noteBuilder) { b.note.UpdateModified(t) }
}

// WithGeneratedModified устанавливает время изменения в текущее время.
// Имеет приоритет над WithModified и WithModifiedTime.
func WithGeneratedModified() NoteOption {
	return func(b *noteBuilder) { b.generateModified = true }
}

// NewNote создает заметку; все поля кроме title и content задаются опциями
func NewNote(title, content string, opts ...NoteOption) Note {
	b := noteBuilder{note: Note{Title: title, Content: content}}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}
	if b.generateModified {
		b.note.UpdateModified()
	}
	return b.note
}

var jsonNumberType = reflect.TypeOf(json.Number(""))

// strictNumberHook декодирует id и modified только из целых чисел без потери точности
func strictNumberHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int64 {
		if from == jsonNumberType {
			return nil, fmt.Errorf("expected %s, got number %s", to.Kind(), data)
		}
		return data, nil
	}

	switch v := data.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %s", v)
		}
		return n, nil
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return nil, fmt.Errorf("expected integer, got %v", v)
		}
		return int64(v), nil
	}
	return data, nil
}

// NoteFromMap собирает заметку из wire-представления.
// Читаются только шесть известных ключей, остальные игнорируются.
// Отсутствующие ключи и значения null дают значения по умолчанию.
// id и modified должны быть целыми числами (int, float64 без дробной части или json.Number).
func NoteFromMap(m map[string]any) (Note, error) {
	var n Note
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		DecodeHook: mapstructure.DecodeHookFuncType(strictNumberHook),
		Result:     &n,
	})
	if err != nil {
		return Note{}, fmt.Errorf("mapstructure.NewDecoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return Note{}, fmt.Errorf("decode note: %w", err)
	}
	return n, nil
}

// ToMap возвращает wire-представление заметки ровно с шестью ключами.
// id и modified равны nil, если не заданы.
func (n Note) ToMap() map[string]any {
	m := map[string]any{
		"title":    n.Title,
		"content":  n.Content,
		"category": n.Category,
		"favorite": n.Favorite,
		"id":       nil,
		"modified": nil,
	}
	if n.ID != 0 {
		m["id"] = n.ID
	}
	if n.Modified != 0 {
		m["modified"] = n.Modified
	}
	return m
}

// MarshalJSON кодирует заметку в wire-формат
func (n Note) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.ToMap())
}

// UnmarshalJSON декодирует заметку из wire-формата.
// Числа читаются как json.Number, поэтому большие id не теряют точность.
func (n *Note) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	decoded, err := NoteFromMap(m)
	if err != nil {
		return err
	}
	*n = decoded
	return nil
}

// UpdateModified устанавливает время изменения в t.
// Если t не передан или равен нулевому time.Time, используется текущее время.
func (n *Note) UpdateModified(t ...time.Time) {
	if len(t) > 0 && !t[0].IsZero() {
		n.Modified = t[0].Unix()
		return
	}
	n.Modified = now().Unix()
}

// ModifiedTime возвращает время изменения; нулевое time.Time, если не задано
func (n Note) ModifiedTime() time.Time {
	if n.Modified == 0 {
		return time.Time{}
	}
	return time.Unix(n.Modified, 0)
}

// Persisted сообщает, была ли заметка сохранена на сервере
func (n Note) Persisted() bool {
	return n.ID != 0
}

// Equal сравнивает заметки по значению всех полей
func (n Note) Equal(other Note) bool {
	return n == other
}

func (n Note) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Note{title: %q, content: %q, category: %q, favorite: %t, id: ",
		n.Title, n.Content, n.Category, n.Favorite)
	if n.ID != 0 {
		fmt.Fprintf(&b, "%d", n.ID)
	} else {
		b.WriteString("null")
	}
	b.WriteString(", modified: ")
	if n.Modified != 0 {
		b.WriteString(n.ModifiedTime().UTC().Format(time.DateTime))
	} else {
		b.WriteString("null")
	}
	b.WriteString("}")
	return b.String()
}

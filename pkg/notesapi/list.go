package notesapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
)

// etagCache единственный слот кэша списка заметок.
// notes возвращаются только если сервер подтвердил etag ответом 304.
type etagCache struct {
	etag  string
	notes []Note
}

func (c *etagCache) store(etag string, notes []Note) {
	c.etag = etag
	c.notes = slices.Clone(notes)
}

func (c *etagCache) snapshot() []Note {
	if c.notes == nil {
		return []Note{}
	}
	return slices.Clone(c.notes)
}

// NoteList результат ListNotes.
//
// Материализованный список (кэширование включено) можно обходить сколько угодно раз.
// Ленивый список (кэширование выключено) читает тело ответа по мере обхода
// и обходится только один раз; повторный обход возвращает ErrListConsumed.
type NoteList struct {
	notes    []Note
	stream   *noteStream
	consumed bool
}

func newMaterializedList(notes []Note) *NoteList {
	return &NoteList{notes: notes}
}

func newStreamList(body io.ReadCloser) *NoteList {
	return &NoteList{stream: &noteStream{body: body, dec: json.NewDecoder(body)}}
}

// Materialized сообщает, загружен ли список целиком
func (l *NoteList) Materialized() bool {
	return l.stream == nil
}

// All возвращает итератор по заметкам
func (l *NoteList) All() iter.Seq2[Note, error] {
	if l.Materialized() {
		return func(yield func(Note, error) bool) {
			for _, note := range l.notes {
				if !yield(note, nil) {
					return
				}
			}
		}
	}

	return func(yield func(Note, error) bool) {
		if l.consumed {
			yield(Note{}, ErrListConsumed)
			return
		}
		l.consumed = true
		defer l.stream.close()

		for {
			note, ok, err := l.stream.next()
			if err != nil {
				yield(Note{}, err)
				return
			}
			if !ok {
				return
			}
			if !yield(note, nil) {
				return
			}
		}
	}
}

// Notes возвращает все заметки слайсом.
// Для ленивого списка это расходует его.
func (l *NoteList) Notes() ([]Note, error) {
	if l.Materialized() {
		return slices.Clone(l.notes), nil
	}

	notes := []Note{}
	for note, err := range l.All() {
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// Close освобождает тело ответа ленивого списка, не дочитывая его
func (l *NoteList) Close() error {
	if l.stream == nil {
		return nil
	}
	l.consumed = true
	return l.stream.close()
}

// noteStream читает JSON массив заметок по одному элементу
type noteStream struct {
	body    io.ReadCloser
	dec     *json.Decoder
	started bool
	closed  bool
}

func (s *noteStream) next() (Note, bool, error) {
	if s.closed {
		return Note{}, false, nil
	}
	if !s.started {
		tok, err := s.dec.Token()
		if err != nil {
			return Note{}, false, fmt.Errorf("decode notes: %w", err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return Note{}, false, errors.New("decode notes: expected JSON array")
		}
		s.started = true
	}

	if !s.dec.More() {
		if _, err := s.dec.Token(); err != nil {
			return Note{}, false, fmt.Errorf("decode notes: %w", err)
		}
		return Note{}, false, nil
	}

	var note Note
	if err := s.dec.Decode(&note); err != nil {
		return Note{}, false, fmt.Errorf("decode notes: %w", err)
	}
	return note, true, nil
}

func (s *noteStream) close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

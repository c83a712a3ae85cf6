package notesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// CapabilitiesPath - эндпоинт обнаружения возможностей сервера
	CapabilitiesPath = "/ocs/v2.php/cloud/capabilities"
	// NotesPath - коллекция заметок Notes API v1
	NotesPath = "/index.php/apps/notes/api/v1/notes"

	// RequestIDHeader - заголовок с идентификатором запроса для корреляции логов
	RequestIDHeader = "X-Request-ID"

	defaultScheme    = "https"
	defaultUserAgent = "nextcloud-notes-go/1.0"
	maxErrorBody     = 1024
)

// Названия операций для логов и метрик
const (
	opAPIVersion = "get_api_version"
	opListNotes  = "list_notes"
	opGetNote    = "get_note"
	opCreateNote = "create_note"
	opUpdateNote = "update_note"
	opDeleteNote = "delete_note"
)

// API интерфейс Notes API, реализуется *Client
type API interface {
	APIVersion(ctx context.Context) (string, error)
	ListNotes(ctx context.Context) (*NoteList, error)
	GetNote(ctx context.Context, noteID int64) (Note, error)
	CreateNote(ctx context.Context, note Note) (Note, error)
	UpdateNote(ctx context.Context, note Note) (Note, error)
	DeleteNote(ctx context.Context, noteID int64) error
}

var _ API = (*Client)(nil)

// Observer получает метрики клиента: завершенные запросы и обращения к кэшу списка.
// code == 0 означает, что ответ не был получен.
type Observer interface {
	ObserveRequest(operation string, code int, duration time.Duration)
	ObserveCache(hit bool)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, int, time.Duration) {}
func (nopObserver) ObserveCache(bool)                         {}

// Client клиент Notes API приложения Nextcloud.
//
// Client хранит кэш списка заметок (ETag + снимок) и не безопасен для
// одновременного использования из нескольких горутин: кэш читается перед
// запросом и записывается после ответа. При конкурентном доступе вызовы
// нужно сериализовать снаружи.
type Client struct {
	username string
	password string
	hostname string

	scheme      string
	etagCaching bool
	userAgent   string
	httpClient  *http.Client
	logger      logrus.FieldLogger
	limiter     *rate.Limiter
	observer    Observer

	cache etagCache
}

// Option настраивает Client
type Option func(*Client)

// WithETagCaching включает или выключает кэширование списка заметок по ETag (по умолчанию включено)
func WithETagCaching(enabled bool) Option {
	return func(c *Client) { c.etagCaching = enabled }
}

// WithScheme задает схему URL ("https" по умолчанию)
func WithScheme(scheme string) Option {
	return func(c *Client) { c.scheme = scheme }
}

// WithHTTPClient задает HTTP клиент (таймауты, TLS, прокси)
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger задает логгер; запросы логируются на уровне debug
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRateLimit ограничивает частоту запросов клиента.
// Запрос ждет свободного слота, повторов при ошибках нет.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithObserver передает метрики запросов и кэша в observer
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithUserAgent задает заголовок User-Agent
func WithUserAgent(userAgent string) Option {
	return func(c *Client) { c.userAgent = userAgent }
}

// NewClient создает новый клиент Notes API для сервера hostname
func NewClient(username, password, hostname string, opts ...Option) (*Client, error) {
	c := &Client{
		username:    username,
		password:    password,
		hostname:    hostname,
		scheme:      defaultScheme,
		etagCaching: true,
		userAgent:   defaultUserAgent,
		httpClient:  http.DefaultClient,
		logger:      logrus.StandardLogger(),
		observer:    nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.hostname == "" {
		return nil, errors.New("hostname cannot be empty")
	}
	if c.scheme != "http" && c.scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", c.scheme)
	}

	return c, nil
}

// Username возвращает имя пользователя Nextcloud
func (c *Client) Username() string { return c.username }

// Hostname возвращает хост Nextcloud
func (c *Client) Hostname() string { return c.hostname }

// ETagCaching сообщает, включено ли кэширование списка заметок
func (c *Client) ETagCaching() bool { return c.etagCaching }

// CachedETag возвращает ETag закэшированного списка заметок ("" если кэш пуст)
func (c *Client) CachedETag() string { return c.cache.etag }

// ClearCache сбрасывает кэш списка заметок
func (c *Client) ClearCache() { c.cache = etagCache{} }

func (c *Client) String() string {
	return fmt.Sprintf("NotesAPI[%s]", c.hostname)
}

// APIVersion возвращает наибольшую версию Notes API, поддерживаемую сервером
func (c *Client) APIVersion(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, opAPIVersion, http.MethodGet, CapabilitiesPath, nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, statusErrors{
		http.StatusUnauthorized: c.invalidCredentials,
	}); err != nil {
		return "", err
	}

	var capabilities struct {
		OCS struct {
			Data struct {
				Capabilities struct {
					Notes struct {
						APIVersion []string `json:"api_version"`
					} `json:"notes"`
				} `json:"capabilities"`
			} `json:"data"`
		} `json:"ocs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&capabilities); err != nil {
		return "", fmt.Errorf("decode capabilities: %w", err)
	}

	versions := capabilities.OCS.Data.Capabilities.Notes.APIVersion
	if len(versions) == 0 {
		return "", ErrAPIVersionUnavailable
	}
	return versions[len(versions)-1], nil
}

// ListNotes возвращает все заметки.
//
// При включенном кэшировании запрос отправляется с If-None-Match и ETag
// предыдущего ответа; на 304 возвращается копия закэшированного списка.
// Результат всегда материализован и может обходиться многократно.
//
// При выключенном кэшировании результат ленивый: заметки читаются из тела
// ответа по мере обхода, обойти список можно только один раз.
func (c *Client) ListNotes(ctx context.Context) (*NoteList, error) {
	header := http.Header{}
	if c.etagCaching {
		header.Set("If-None-Match", c.cache.etag)
	}

	resp, err := c.do(ctx, opListNotes, http.MethodGet, NotesPath, nil, header)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified && c.etagCaching {
		resp.Body.Close()
		c.observer.ObserveCache(true)
		c.logger.WithField("etag", c.cache.etag).Debug("note list served from cache")
		return newMaterializedList(c.cache.snapshot()), nil
	}

	if err := c.checkStatus(resp, statusErrors{
		http.StatusUnauthorized: c.invalidCredentials,
	}); err != nil {
		resp.Body.Close()
		return nil, err
	}

	if !c.etagCaching {
		return newStreamList(resp.Body), nil
	}
	defer resp.Body.Close()

	var notes []Note
	if err := json.NewDecoder(resp.Body).Decode(&notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	if notes == nil {
		notes = []Note{}
	}

	c.cache.store(resp.Header.Get("ETag"), notes)
	c.observer.ObserveCache(false)
	return newMaterializedList(notes), nil
}

// GetNote возвращает заметку с идентификатором noteID
func (c *Client) GetNote(ctx context.Context, noteID int64) (Note, error) {
	resp, err := c.do(ctx, opGetNote, http.MethodGet, notePath(noteID), nil, nil)
	if err != nil {
		return Note{}, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, statusErrors{
		http.StatusBadRequest:   c.invalidNoteID(noteID),
		http.StatusUnauthorized: c.invalidCredentials,
		http.StatusNotFound:     c.noteNotFound(noteID),
	}); err != nil {
		return Note{}, err
	}

	return decodeNote(resp.Body)
}

// CreateNote создает новую заметку.
// ID и Modified назначаются сервером и возвращаются в созданной заметке.
func (c *Client) CreateNote(ctx context.Context, note Note) (Note, error) {
	resp, err := c.do(ctx, opCreateNote, http.MethodPost, NotesPath, note.ToMap(), nil)
	if err != nil {
		return Note{}, err
	}
	defer resp.Body.Close()

	// 400 здесь невозможен: сервер игнорирует переданный id
	if err := c.checkStatus(resp, statusErrors{
		http.StatusUnauthorized:        c.invalidCredentials,
		http.StatusInsufficientStorage: c.insufficientStorage(note),
	}); err != nil {
		return Note{}, err
	}

	return decodeNote(resp.Body)
}

// UpdateNote заменяет заметку с идентификатором note.ID.
// Если ID не задан, возвращает ErrNoteIDNotSet без обращения к серверу.
func (c *Client) UpdateNote(ctx context.Context, note Note) (Note, error) {
	if !note.Persisted() {
		return Note{}, fmt.Errorf("%w: %s", ErrNoteIDNotSet, note)
	}

	body := note.ToMap()
	delete(body, "id")

	resp, err := c.do(ctx, opUpdateNote, http.MethodPut, notePath(note.ID), body, nil)
	if err != nil {
		return Note{}, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, statusErrors{
		http.StatusBadRequest:          c.invalidNoteID(note.ID),
		http.StatusUnauthorized:        c.invalidCredentials,
		http.StatusNotFound:            c.noteNotFound(note.ID),
		http.StatusInsufficientStorage: c.insufficientStorage(note),
	}); err != nil {
		return Note{}, err
	}

	return decodeNote(resp.Body)
}

// DeleteNote удаляет заметку с идентификатором noteID
func (c *Client) DeleteNote(ctx context.Context, noteID int64) error {
	resp, err := c.do(ctx, opDeleteNote, http.MethodDelete, notePath(noteID), nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.checkStatus(resp, statusErrors{
		http.StatusBadRequest:   c.invalidNoteID(noteID),
		http.StatusUnauthorized: c.invalidCredentials,
		http.StatusNotFound:     c.noteNotFound(noteID),
	})
}

// do выполняет один HTTP запрос без повторов.
// Тело ответа закрывает вызывающая сторона.
func (c *Client) do(ctx context.Context, op, method, path string, body any, header http.Header) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limiter: %w", op, err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: json.Marshal: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	url := c.scheme + "://" + c.hostname + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: http.NewRequest: %w", op, err)
	}

	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("OCS-APIRequest", "true")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.SetBasicAuth(c.username, c.password)

	log := c.logger.WithFields(logrus.Fields{
		"operation":  op,
		"method":     method,
		"url":        url,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observer.ObserveRequest(op, 0, duration)
		log.WithError(err).WithField("duration", duration).Debug("notes api request failed")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.observer.ObserveRequest(op, resp.StatusCode, duration)
	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": duration,
	}).Debug("notes api request completed")

	return resp, nil
}

// statusErrors сопоставляет статусы ответа с доменными ошибками операции
type statusErrors map[int]func() error

// checkStatus возвращает доменную ошибку для известного статуса или
// UnexpectedStatusError для любого другого статуса вне 2xx
func (c *Client) checkStatus(resp *http.Response, mapped statusErrors) error {
	if newErr, ok := mapped[resp.StatusCode]; ok {
		return newErr()
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &UnexpectedStatusError{
		Method:     resp.Request.Method,
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       string(bytes.TrimSpace(body)),
	}
}

func (c *Client) invalidCredentials() error {
	return &InvalidCredentialsError{Username: c.username, Hostname: c.hostname}
}

func (c *Client) invalidNoteID(noteID int64) func() error {
	return func() error { return &InvalidNoteIDError{NoteID: noteID, Hostname: c.hostname} }
}

func (c *Client) noteNotFound(noteID int64) func() error {
	return func() error { return &NoteNotFoundError{NoteID: noteID, Hostname: c.hostname} }
}

func (c *Client) insufficientStorage(note Note) func() error {
	return func() error { return &InsufficientStorageError{Hostname: c.hostname, Note: note} }
}

func notePath(noteID int64) string {
	return NotesPath + "/" + strconv.FormatInt(noteID, 10)
}

func decodeNote(r io.Reader) (Note, error) {
	var note Note
	if err := json.NewDecoder(r).Decode(&note); err != nil {
		return Note{}, fmt.Errorf("decode note: %w", err)
	}
	return note, nil
}

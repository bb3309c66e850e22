package importer

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Ошибки адаптеров внешних API
var (
	// ErrInvalidPayload означает пустой или не соответствующий ожидаемой форме ответ API
	ErrInvalidPayload = errors.New("invalid payload from external API")

	// ErrRequestFailed означает сетевую или HTTP ошибку при обращении к API
	ErrRequestFailed = errors.New("external API request failed")
)

// RawContest — нормализованный элемент списка контестов внешнего API.
// Общая форма для всех источников: название, абсолютное время начала и ссылка.
type RawContest struct {
	Name      string
	StartTime time.Time
	Link      string
}

// Source — адаптер одного внешнего источника контестов.
// Fetch только читает: никаких побочных эффектов в хранилище.
type Source interface {
	// Name возвращает человекочитаемое имя источника для логов
	Name() string
	// Platform возвращает платформу, под которой импортируются контесты
	Platform() string
	// Fetch загружает и нормализует список предстоящих контестов
	Fetch(ctx context.Context) ([]RawContest, error)
}

// ImportReport агрегирует результат реконсиляции одного источника
type ImportReport struct {
	Platform        string `json:"platform"`
	Created         int    `json:"created"`
	SkippedExisting int    `json:"skipped_existing"`
	CreatedIDs      []uint `json:"created_ids"`
}

// newHTTPClient создает HTTP-клиент адаптеров с таймаутом.
// Таймаут ограничивает зависание одного источника рамками его цикла.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

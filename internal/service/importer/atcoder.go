package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/yourusername/contest-tracker-api/internal/domain/entity"
)

// defaultAtCoderURL — сторонний агрегатор расписания AtCoder
const defaultAtCoderURL = "https://atcoder-api.qatadaazzeh.workers.dev/upcoming"

// atcoderTimeLayout соответствует формату "2025-11-01 21:00:00+0900"
const atcoderTimeLayout = "2006-01-02 15:04:05-0700"

// AtCoderSource загружает предстоящие контесты AtCoder через сторонний API
type AtCoderSource struct {
	client *http.Client
	url    string
}

// NewAtCoderSource создает адаптер AtCoder.
// Пустой url означает эндпоинт по умолчанию.
func NewAtCoderSource(client *http.Client, url string) *AtCoderSource {
	if client == nil {
		client = newHTTPClient(0)
	}
	if url == "" {
		url = defaultAtCoderURL
	}
	return &AtCoderSource{client: client, url: url}
}

// Name возвращает имя источника
func (s *AtCoderSource) Name() string { return "atcoder" }

// Platform возвращает платформу источника
func (s *AtCoderSource) Platform() string { return entity.PlatformAtCoder }

// atcoderContest — элемент ответа агрегатора
type atcoderContest struct {
	ContestID   string `json:"contestId"`
	ContestName string `json:"contestName"`
	ContestTime string `json:"contestTime"`
	ContestURL  string `json:"contestUrl"`
}

// Fetch загружает список контестов. Элементы с нераспознаваемым временем
// логируются и пропускаются, не прерывая всю партию.
func (s *AtCoderSource) Fetch(ctx context.Context) ([]RawContest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: atcoder: %v", ErrRequestFailed, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: atcoder: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: atcoder: unexpected status %d", ErrRequestFailed, resp.StatusCode)
	}

	var payload []atcoderContest
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: atcoder: %v", ErrInvalidPayload, err)
	}

	contests := make([]RawContest, 0, len(payload))
	for _, c := range payload {
		start, err := time.Parse(atcoderTimeLayout, c.ContestTime)
		if err != nil {
			log.Printf("[AtCoderSource] Не удалось разобрать время контеста %q: %q, пропускаем", c.ContestName, c.ContestTime)
			continue
		}

		link := c.ContestURL
		if link == "" {
			link = fmt.Sprintf("https://atcoder.jp/contests/%s", c.ContestID)
		}

		contests = append(contests, RawContest{
			Name:      c.ContestName,
			StartTime: start.UTC(),
			Link:      link,
		})
	}
	return contests, nil
}

package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/yourusername/contest-tracker-api/internal/domain/entity"
)

// defaultCodeforcesURL — публичный список контестов Codeforces
const defaultCodeforcesURL = "https://codeforces.com/api/contest.list"

// codeforcesContestsLink — общая страница контестов; API не отдает прямую ссылку
const codeforcesContestsLink = "https://codeforces.com/contests"

// CodeforcesSource загружает предстоящие контесты из официального API Codeforces
type CodeforcesSource struct {
	client *http.Client
	url    string
}

// NewCodeforcesSource создает адаптер Codeforces.
// Пустой url означает эндпоинт по умолчанию.
func NewCodeforcesSource(client *http.Client, url string) *CodeforcesSource {
	if client == nil {
		client = newHTTPClient(0)
	}
	if url == "" {
		url = defaultCodeforcesURL
	}
	return &CodeforcesSource{client: client, url: url}
}

// Name возвращает имя источника
func (s *CodeforcesSource) Name() string { return "codeforces" }

// Platform возвращает платформу источника
func (s *CodeforcesSource) Platform() string { return entity.PlatformCodeforces }

// codeforcesResponse — форма ответа /api/contest.list
type codeforcesResponse struct {
	Status string `json:"status"`
	Result []struct {
		Name             string `json:"name"`
		Phase            string `json:"phase"`
		StartTimeSeconds int64  `json:"startTimeSeconds"`
	} `json:"result"`
}

// Fetch загружает список контестов и оставляет только ещё не начавшиеся (phase == BEFORE)
func (s *CodeforcesSource) Fetch(ctx context.Context) ([]RawContest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: codeforces: %v", ErrRequestFailed, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: codeforces: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: codeforces: unexpected status %d", ErrRequestFailed, resp.StatusCode)
	}

	var payload codeforcesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: codeforces: %v", ErrInvalidPayload, err)
	}

	if payload.Status != "OK" || payload.Result == nil {
		return nil, fmt.Errorf("%w: codeforces: status=%q", ErrInvalidPayload, payload.Status)
	}

	contests := make([]RawContest, 0, len(payload.Result))
	for _, c := range payload.Result {
		if c.Phase != "BEFORE" {
			continue
		}
		contests = append(contests, RawContest{
			Name:      c.Name,
			StartTime: time.Unix(c.StartTimeSeconds, 0).UTC(),
			Link:      codeforcesContestsLink,
		})
	}
	return contests, nil
}

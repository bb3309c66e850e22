package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/yourusername/contest-tracker-api/internal/domain/entity"
)

// defaultLeetCodeURL — GraphQL эндпоинт LeetCode
const defaultLeetCodeURL = "https://leetcode.com/graphql"

// leetcodeFallbackLink используется, когда у контеста нет slug
const leetcodeFallbackLink = "https://leetcode.com/contest/"

// leetcodeQuery запрашивает список предстоящих контестов
const leetcodeQuery = `
	query {
		upcomingContests {
			title
			titleSlug
			startTime
			duration
		}
	}
`

// LeetCodeSource загружает предстоящие контесты через GraphQL API LeetCode
type LeetCodeSource struct {
	client *http.Client
	url    string
}

// NewLeetCodeSource создает адаптер LeetCode.
// Пустой url означает эндпоинт по умолчанию.
func NewLeetCodeSource(client *http.Client, url string) *LeetCodeSource {
	if client == nil {
		client = newHTTPClient(0)
	}
	if url == "" {
		url = defaultLeetCodeURL
	}
	return &LeetCodeSource{client: client, url: url}
}

// Name возвращает имя источника
func (s *LeetCodeSource) Name() string { return "leetcode" }

// Platform возвращает платформу источника
func (s *LeetCodeSource) Platform() string { return entity.PlatformLeetCode }

// leetcodeResponse — форма GraphQL-ответа
type leetcodeResponse struct {
	Data *struct {
		UpcomingContests []struct {
			Title     string `json:"title"`
			TitleSlug string `json:"titleSlug"`
			StartTime int64  `json:"startTime"`
		} `json:"upcomingContests"`
	} `json:"data"`
}

// Fetch выполняет GraphQL-запрос и нормализует список контестов
func (s *LeetCodeSource) Fetch(ctx context.Context) ([]RawContest, error) {
	body, err := json.Marshal(map[string]string{"query": leetcodeQuery})
	if err != nil {
		return nil, fmt.Errorf("%w: leetcode: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: leetcode: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: leetcode: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: leetcode: unexpected status %d", ErrRequestFailed, resp.StatusCode)
	}

	var payload leetcodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: leetcode: %v", ErrInvalidPayload, err)
	}

	if payload.Data == nil || payload.Data.UpcomingContests == nil {
		return nil, fmt.Errorf("%w: leetcode: missing upcomingContests", ErrInvalidPayload)
	}

	contests := make([]RawContest, 0, len(payload.Data.UpcomingContests))
	for _, c := range payload.Data.UpcomingContests {
		link := leetcodeFallbackLink
		if c.TitleSlug != "" {
			link = fmt.Sprintf("https://leetcode.com/contest/%s", c.TitleSlug)
		}

		contests = append(contests, RawContest{
			Name:      c.Title,
			StartTime: time.Unix(c.StartTime, 0).UTC(),
			Link:      link,
		})
	}
	return contests, nil
}

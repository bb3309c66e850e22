package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/contest-tracker-api/internal/domain/entity"
	"github.com/yourusername/contest-tracker-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-tracker-api/internal/pkg/errors"
	"github.com/yourusername/contest-tracker-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestGinContext создает *gin.Context для тестов с JSON body
func newTestGinContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

// inMemoryContestRepo — репозиторий в памяти для тестов полного цикла handler → service
type inMemoryContestRepo struct {
	contests map[uint]*entity.Contest
	nextID   uint
}

func newInMemoryContestRepo() *inMemoryContestRepo {
	return &inMemoryContestRepo{contests: make(map[uint]*entity.Contest), nextID: 1}
}

func (r *inMemoryContestRepo) Create(contest *entity.Contest) error {
	contest.ID = r.nextID
	r.nextID++
	copied := *contest
	r.contests[contest.ID] = &copied
	return nil
}

func (r *inMemoryContestRepo) GetByID(id uint) (*entity.Contest, error) {
	contest, ok := r.contests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *contest
	return &copied, nil
}

func (r *inMemoryContestRepo) List() ([]entity.Contest, error) {
	result := make([]entity.Contest, 0, len(r.contests))
	for _, contest := range r.contests {
		result = append(result, *contest)
	}
	return result, nil
}

func (r *inMemoryContestRepo) ListUpcoming() ([]entity.Contest, error) {
	var result []entity.Contest
	for _, contest := range r.contests {
		if !contest.Done && !contest.Skipped {
			result = append(result, *contest)
		}
	}
	return result, nil
}

func (r *inMemoryContestRepo) ListPast() ([]entity.Contest, error) {
	var result []entity.Contest
	for _, contest := range r.contests {
		if contest.Done || contest.Skipped {
			result = append(result, *contest)
		}
	}
	return result, nil
}

func (r *inMemoryContestRepo) Update(contest *entity.Contest) error {
	if _, ok := r.contests[contest.ID]; !ok {
		return apperrors.ErrNotFound
	}
	copied := *contest
	r.contests[contest.ID] = &copied
	return nil
}

func (r *inMemoryContestRepo) Delete(id uint) error {
	if _, ok := r.contests[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.contests, id)
	return nil
}

func (r *inMemoryContestRepo) FindDuplicate(platform, name string, dayStart, dayEnd time.Time) (*entity.Contest, error) {
	for _, contest := range r.contests {
		if contest.Platform == platform && contest.Name == name &&
			!contest.StartTime.Before(dayStart) && contest.StartTime.Before(dayEnd) {
			copied := *contest
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *inMemoryContestRepo) GetStats() (*repository.ContestStats, error) {
	stats := &repository.ContestStats{}
	for _, contest := range r.contests {
		stats.TotalContests++
		switch {
		case contest.Done:
			stats.CompletedContests++
			if contest.QuestionsSolved != nil {
				stats.TotalQuestions += int64(*contest.QuestionsSolved)
			}
		case contest.Skipped:
			stats.SkippedContests++
		default:
			stats.UpcomingContests++
		}
	}
	return stats, nil
}

func (r *inMemoryContestRepo) CountByPlatform(platform string) (int64, error) {
	var count int64
	for _, contest := range r.contests {
		if contest.Platform == platform {
			count++
		}
	}
	return count, nil
}

// newTestHandler собирает handler поверх репозитория в памяти
func newTestHandler() (*ContestHandler, *inMemoryContestRepo) {
	repo := newInMemoryContestRepo()
	svc := service.NewContestService(repo, nil)
	return NewContestHandler(svc), repo
}

// ============================================================================
// Валидация запросов
// ============================================================================

func TestCreateContest_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{
			name:       "empty body",
			body:       nil,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "missing link",
			body: map[string]interface{}{
				"name":     "Weekly Contest 420",
				"platform": "LeetCode",
				"date":     "2025-11-09T02:30:00Z",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown platform",
			body: map[string]interface{}{
				"name":     "Some Contest",
				"platform": "Kaggle",
				"date":     "2025-11-09T02:30:00Z",
				"link":     "https://example.com",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "negative questions_solved",
			body: map[string]interface{}{
				"name":             "Some Contest",
				"platform":         "Codeforces",
				"date":             "2025-11-09T02:30:00Z",
				"link":             "https://codeforces.com/contests",
				"questions_solved": -1,
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, repo := newTestHandler()

			c, w := newTestGinContext("POST", "/api/contests", tt.body)
			handler.CreateContest(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := parseJSONResponse(t, w)
			assert.Contains(t, resp["error"], "Validation error")
			assert.Empty(t, repo.contests, "Невалидный запрос не должен создавать запись")
		})
	}
}

func TestCreateContest_Success(t *testing.T) {
	handler, repo := newTestHandler()

	body := map[string]interface{}{
		"name":     "Weekly Contest 420",
		"platform": "LeetCode",
		"date":     "2025-11-09T02:30:00Z",
		"link":     "https://leetcode.com/contest/weekly-contest-420",
	}

	c, w := newTestGinContext("POST", "/api/contests", body)
	handler.CreateContest(c)

	require.Equal(t, http.StatusCreated, w.Code, "Body: %s", w.Body.String())
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "Weekly Contest 420", resp["name"])
	assert.Equal(t, "02:30", resp["time"], "Поле time выводится из даты в формате HH:MM UTC")
	assert.Equal(t, false, resp["done"])
	assert.Len(t, repo.contests, 1)
}

func TestCreateContest_ContradictoryStatusNormalized(t *testing.T) {
	// POST с done=true и skipped=true одновременно: запись сохраняется
	// с приоритетом done, оба терминальных статуса не бывают true вместе
	handler, repo := newTestHandler()

	body := map[string]interface{}{
		"name":             "Weekly Contest 421",
		"platform":         "LeetCode",
		"date":             "2025-11-16T02:30:00Z",
		"link":             "https://leetcode.com/contest/weekly-contest-421",
		"done":             true,
		"skipped":          true,
		"questions_solved": 5,
	}

	c, w := newTestGinContext("POST", "/api/contests", body)
	handler.CreateContest(c)

	require.Equal(t, http.StatusCreated, w.Code, "Body: %s", w.Body.String())
	resp := parseJSONResponse(t, w)
	assert.Equal(t, true, resp["done"])
	assert.Equal(t, false, resp["skipped"], "done и skipped не бывают true одновременно")

	stored := repo.contests[1]
	require.NotNil(t, stored)
	assert.True(t, stored.Done)
	assert.False(t, stored.Skipped)
	assert.Nil(t, stored.SkippedDate)
}

func TestCreateContest_QuestionsSolvedIgnoredWhenNotDone(t *testing.T) {
	// questions_solved в запросе без done=true не сохраняется
	handler, repo := newTestHandler()

	body := map[string]interface{}{
		"name":             "Codeforces Round 993",
		"platform":         "Codeforces",
		"date":             "2025-11-12T17:35:00Z",
		"link":             "https://codeforces.com/contests",
		"questions_solved": 3,
	}

	c, w := newTestGinContext("POST", "/api/contests", body)
	handler.CreateContest(c)

	require.Equal(t, http.StatusCreated, w.Code)
	stored := repo.contests[1]
	require.NotNil(t, stored)
	assert.False(t, stored.Done)
	assert.Nil(t, stored.QuestionsSolved, "Решённые задачи хранятся только для выполненных контестов")
}

func TestCreateContest_FieldErrorKeysMatchJSON(t *testing.T) {
	// Ключи в errors совпадают с JSON-именами полей запроса
	handler, _ := newTestHandler()

	body := map[string]interface{}{
		"platform":         "Kaggle",
		"date":             "2025-11-09T02:30:00Z",
		"link":             "https://example.com",
		"questions_solved": -1,
	}

	c, w := newTestGinContext("POST", "/api/contests", body)
	handler.CreateContest(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := parseJSONResponse(t, w)
	fieldErrors, ok := resp["errors"].(map[string]interface{})
	require.True(t, ok, "Ответ должен содержать errors по полям: %s", w.Body.String())
	assert.Contains(t, fieldErrors, "name")
	assert.Contains(t, fieldErrors, "platform")
	assert.Contains(t, fieldErrors, "questions_solved")
}

// ============================================================================
// Чтение и переходы статуса
// ============================================================================

func TestGetContest_NotFound(t *testing.T) {
	handler, _ := newTestHandler()

	c, w := newTestGinContext("GET", "/api/contests/99", nil)
	c.Set("contestID", uint(99))
	handler.GetContest(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "Contest not found", resp["error"])
}

func TestMarkDone_SetsStatusAndQuestions(t *testing.T) {
	handler, repo := newTestHandler()
	require.NoError(t, repo.Create(&entity.Contest{
		Name:      "Codeforces Round 990",
		Platform:  entity.PlatformCodeforces,
		StartTime: time.Date(2025, 11, 1, 17, 35, 0, 0, time.UTC),
		Link:      "https://codeforces.com/contests",
	}))

	c, w := newTestGinContext("PUT", "/api/contests/1/mark-done", map[string]interface{}{
		"questions_solved": 5,
	})
	c.Set("contestID", uint(1))
	handler.MarkDone(c)

	require.Equal(t, http.StatusOK, w.Code, "Body: %s", w.Body.String())
	resp := parseJSONResponse(t, w)
	assert.Equal(t, true, resp["done"])
	assert.Equal(t, false, resp["skipped"])
	assert.Equal(t, float64(5), resp["questions_solved"])
	assert.NotEmpty(t, resp["completed_date"])
}

func TestMarkDone_MissingBodyDefaultsToZero(t *testing.T) {
	handler, repo := newTestHandler()
	require.NoError(t, repo.Create(&entity.Contest{
		Name:      "ABC 377",
		Platform:  entity.PlatformAtCoder,
		StartTime: time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC),
		Link:      "https://atcoder.jp/contests/abc377",
	}))

	// Запрос вообще без тела эквивалентен 0 решённых задач
	c, w := newTestGinContext("PUT", "/api/contests/1/mark-done", nil)
	c.Set("contestID", uint(1))
	handler.MarkDone(c)

	require.Equal(t, http.StatusOK, w.Code, "Body: %s", w.Body.String())
	resp := parseJSONResponse(t, w)
	assert.Equal(t, float64(0), resp["questions_solved"])

	// Пустой JSON-объект тоже допустим
	c2, w2 := newTestGinContext("PUT", "/api/contests/1/mark-done", map[string]interface{}{})
	c2.Set("contestID", uint(1))
	handler.MarkDone(c2)
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestMarkSkipped_AfterDone_ClearsDoneFields(t *testing.T) {
	handler, repo := newTestHandler()
	questionsSolved := 4
	now := time.Now().UTC()
	require.NoError(t, repo.Create(&entity.Contest{
		Name:            "Weekly Contest 419",
		Platform:        entity.PlatformLeetCode,
		StartTime:       time.Date(2025, 11, 2, 2, 30, 0, 0, time.UTC),
		Link:            "https://leetcode.com/contest/weekly-contest-419",
		Done:            true,
		QuestionsSolved: &questionsSolved,
		CompletedDate:   &now,
	}))

	c, w := newTestGinContext("PUT", "/api/contests/1/mark-skipped", nil)
	c.Set("contestID", uint(1))
	handler.MarkSkipped(c)

	require.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, true, resp["skipped"])
	assert.Equal(t, false, resp["done"])
	assert.Nil(t, resp["questions_solved"], "Решённые задачи обнуляются при пропуске")
	assert.Nil(t, resp["completed_date"])
}

func TestResetContest_ReturnsToPending(t *testing.T) {
	handler, repo := newTestHandler()
	questionsSolved := 3
	now := time.Now().UTC()
	require.NoError(t, repo.Create(&entity.Contest{
		Name:            "Codeforces Round 991",
		Platform:        entity.PlatformCodeforces,
		StartTime:       time.Date(2025, 11, 5, 17, 35, 0, 0, time.UTC),
		Link:            "https://codeforces.com/contests",
		Done:            true,
		QuestionsSolved: &questionsSolved,
		CompletedDate:   &now,
	}))

	c, w := newTestGinContext("PUT", "/api/contests/1/reset", nil)
	c.Set("contestID", uint(1))
	handler.ResetContest(c)

	require.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, false, resp["done"])
	assert.Equal(t, false, resp["skipped"])
	assert.Nil(t, resp["questions_solved"])
}

func TestDeleteContest(t *testing.T) {
	handler, repo := newTestHandler()
	require.NoError(t, repo.Create(&entity.Contest{
		Name:      "ABC 378",
		Platform:  entity.PlatformAtCoder,
		StartTime: time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC),
		Link:      "https://atcoder.jp/contests/abc378",
	}))

	c, w := newTestGinContext("DELETE", "/api/contests/1", nil)
	c.Set("contestID", uint(1))
	handler.DeleteContest(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, repo.contests)

	// Повторное удаление — 404
	c2, w2 := newTestGinContext("DELETE", "/api/contests/1", nil)
	c2.Set("contestID", uint(1))
	handler.DeleteContest(c2)
	assert.Equal(t, http.StatusNotFound, w2.Code)
}

// ============================================================================
// Статистика и экспорт
// ============================================================================

func TestGetStatsSummary(t *testing.T) {
	handler, repo := newTestHandler()

	solved := []int{2, 4, 6}
	now := time.Now().UTC()
	for i := range solved {
		questionsSolved := solved[i]
		require.NoError(t, repo.Create(&entity.Contest{
			Name:            "Contest",
			Platform:        entity.PlatformLeetCode,
			StartTime:       now,
			Link:            "https://leetcode.com/contest/",
			Done:            true,
			QuestionsSolved: &questionsSolved,
			CompletedDate:   &now,
		}))
	}
	require.NoError(t, repo.Create(&entity.Contest{
		Name:        "Skipped Contest",
		Platform:    entity.PlatformCodeforces,
		StartTime:   now,
		Link:        "https://codeforces.com/contests",
		Skipped:     true,
		SkippedDate: &now,
	}))

	c, w := newTestGinContext("GET", "/api/contests/stats/summary", nil)
	handler.GetStatsSummary(c)

	require.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, float64(12), resp["total_questions_solved"])
	assert.Equal(t, float64(4.0), resp["average_questions_solved"])
	assert.Equal(t, float64(75), resp["participation_rate"])
}

func TestExportContests_CSV(t *testing.T) {
	handler, repo := newTestHandler()
	require.NoError(t, repo.Create(&entity.Contest{
		Name:      "Weekly Contest 420",
		Platform:  entity.PlatformLeetCode,
		StartTime: time.Date(2025, 11, 9, 2, 30, 0, 0, time.UTC),
		Link:      "https://leetcode.com/contest/weekly-contest-420",
	}))

	c, w := newTestGinContext("GET", "/api/contests/export?format=csv", nil)
	handler.ExportContests(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	// UTF-8 BOM для корректного открытия в Excel
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, w.Body.String(), "Weekly Contest 420")
}

func TestHealth(t *testing.T) {
	handler, _ := newTestHandler()

	c, w := newTestGinContext("GET", "/api/health", nil)
	handler.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "OK", resp["status"])
}

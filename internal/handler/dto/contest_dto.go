package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yourusername/contest-tracker-api/internal/domain/entity"
)

// ContestResponse представляет контест в формате для ответа клиенту.
// Поле time — производная строка HH:MM (UTC), вычисляется из date и не хранится в БД.
type ContestResponse struct {
	ID              uint       `json:"id"`
	Name            string     `json:"name"`
	Platform        string     `json:"platform"`
	Date            time.Time  `json:"date"`
	Time            string     `json:"time"`
	Link            string     `json:"link"`
	Done            bool       `json:"done"`
	Skipped         bool       `json:"skipped"`
	QuestionsSolved *int       `json:"questions_solved"`
	CompletedDate   *time.Time `json:"completed_date"`
	SkippedDate     *time.Time `json:"skipped_date"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewContestResponse создает DTO для контеста
func NewContestResponse(c *entity.Contest) *ContestResponse {
	return &ContestResponse{
		ID:              c.ID,
		Name:            c.Name,
		Platform:        c.Platform,
		Date:            c.StartTime,
		Time:            c.StartTime.UTC().Format("15:04"),
		Link:            c.Link,
		Done:            c.Done,
		Skipped:         c.Skipped,
		QuestionsSolved: c.QuestionsSolved,
		CompletedDate:   c.CompletedDate,
		SkippedDate:     c.SkippedDate,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// NewListContestResponse создает слайс DTO для списка контестов
func NewListContestResponse(contests []entity.Contest) []*ContestResponse {
	responses := make([]*ContestResponse, len(contests))
	for i := range contests {
		responses[i] = NewContestResponse(&contests[i])
	}
	return responses
}

// ContestStatsResponse представляет агрегированную статистику по контестам
type ContestStatsResponse struct {
	TotalContests          int64   `json:"total_contests"`
	CompletedContests      int64   `json:"completed_contests"`
	SkippedContests        int64   `json:"skipped_contests"`
	UpcomingContests       int64   `json:"upcoming_contests"`
	TotalQuestionsSolved   int64   `json:"total_questions_solved"`
	AverageQuestionsSolved float64 `json:"average_questions_solved"`
	// ParticipationRate — целый процент: completed / (completed + skipped) * 100.
	// Равен 0, если знаменатель нулевой.
	ParticipationRate int `json:"participation_rate"`
}

// jsonFieldNames сопоставляет Go-имена полей запроса их JSON-именам:
// validator.FieldError отдает имя Go-поля, а клиенту нужны ключи из JSON
var jsonFieldNames = map[string]string{
	"Name":            "name",
	"Platform":        "platform",
	"Date":            "date",
	"Link":            "link",
	"Done":            "done",
	"Skipped":         "skipped",
	"QuestionsSolved": "questions_solved",
	"CompletedDate":   "completed_date",
	"SkippedDate":     "skipped_date",
}

// FieldErrors преобразует ошибку валидации gin/validator в сообщения по полям.
// Для не-валидационных ошибок возвращает общее сообщение.
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = "invalid request body"
		return out
	}

	for _, fe := range verrs {
		field := jsonFieldNames[fe.Field()]
		if field == "" {
			field = strings.ToLower(fe.Field())
		}
		switch fe.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "oneof":
			out[field] = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
		case "url", "startswith":
			out[field] = fmt.Sprintf("%s must be a valid http(s) URL", field)
		case "min", "gte":
			out[field] = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s", field, fe.Param())
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return out
}

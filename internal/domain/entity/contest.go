package entity

import (
	"regexp"
	"strings"
	"time"
)

// Платформы, на которых проводятся контесты.
// Закрытый набор значений, совпадает с CHECK-ограничением в миграции.
const (
	PlatformLeetCode   = "LeetCode"
	PlatformCodeforces = "Codeforces"
	PlatformAtCoder    = "AtCoder"
	PlatformHackerRank = "HackerRank"
	PlatformCodeChef   = "CodeChef"
	PlatformTopCoder   = "TopCoder"
)

// Platforms содержит все допустимые платформы
var Platforms = []string{
	PlatformLeetCode,
	PlatformCodeforces,
	PlatformAtCoder,
	PlatformHackerRank,
	PlatformCodeChef,
	PlatformTopCoder,
}

// IsValidPlatform проверяет, входит ли платформа в закрытый набор
func IsValidPlatform(platform string) bool {
	for _, p := range Platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// linkPattern — ссылка на контест обязана начинаться с http:// или https://
var linkPattern = regexp.MustCompile(`^https?://.+`)

// Contest представляет один отслеживаемый контест
type Contest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Platform  string    `gorm:"size:20;not null;index" json:"platform"`
	StartTime time.Time `gorm:"column:date;not null;index" json:"date"`
	Link      string    `gorm:"size:1024;not null" json:"link"`

	// Статусные флаги. Инвариант: Done и Skipped не бывают true одновременно.
	Done    bool `gorm:"not null;default:false;index" json:"done"`
	Skipped bool `gorm:"not null;default:false" json:"skipped"`

	// QuestionsSolved заполняется только для завершённых контестов
	QuestionsSolved *int       `json:"questions_solved"`
	CompletedDate   *time.Time `json:"completed_date"`
	SkippedDate     *time.Time `json:"skipped_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName задает имя таблицы для GORM
func (Contest) TableName() string {
	return "contests"
}

// Normalize приводит поля к каноническому виду перед сохранением
func (c *Contest) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Link = strings.TrimSpace(c.Link)
}

// HasValidLink проверяет, что ссылка начинается с http(s)://
func (c *Contest) HasValidLink() bool {
	return linkPattern.MatchString(c.Link)
}

// IsUpcoming возвращает true, если контест ещё не завершён и не пропущен
func (c *Contest) IsUpcoming() bool {
	return !c.Done && !c.Skipped
}

// IsPast возвращает true, если контест завершён или пропущен
func (c *Contest) IsPast() bool {
	return c.Done || c.Skipped
}

// MarkDone переводит контест в состояние "выполнен".
// Сбрасывает состояние "пропущен" и его поля, чтобы сохранить взаимное исключение.
func (c *Contest) MarkDone(questionsSolved int, now time.Time) {
	if questionsSolved < 0 {
		questionsSolved = 0
	}
	c.Done = true
	c.QuestionsSolved = &questionsSolved
	c.CompletedDate = &now

	c.Skipped = false
	c.SkippedDate = nil
}

// MarkSkipped переводит контест в состояние "пропущен".
// Сбрасывает состояние "выполнен" вместе с QuestionsSolved и CompletedDate.
func (c *Contest) MarkSkipped(now time.Time) {
	c.Skipped = true
	c.SkippedDate = &now

	c.Done = false
	c.QuestionsSolved = nil
	c.CompletedDate = nil
}

// ResetToPending возвращает контест в состояние "предстоящий",
// очищая оба терминальных состояния и связанные с ними поля
func (c *Contest) ResetToPending() {
	c.Done = false
	c.Skipped = false
	c.QuestionsSolved = nil
	c.CompletedDate = nil
	c.SkippedDate = nil
}

// FinishedAt возвращает дату завершения или пропуска контеста.
// Используется для сортировки прошедших контестов.
func (c *Contest) FinishedAt() *time.Time {
	if c.CompletedDate != nil {
		return c.CompletedDate
	}
	return c.SkippedDate
}

package repository

import (
	"time"

	"github.com/yourusername/contest-tracker-api/internal/domain/entity"
)

// ContestStats содержит агрегированную статистику по контестам
type ContestStats struct {
	TotalContests     int64
	CompletedContests int64
	SkippedContests   int64
	UpcomingContests  int64
	TotalQuestions    int64
}

// ContestRepository определяет методы для работы с контестами
type ContestRepository interface {
	Create(contest *entity.Contest) error
	GetByID(id uint) (*entity.Contest, error)
	// List возвращает все контесты, отсортированные по дате начала (возрастание)
	List() ([]entity.Contest, error)
	// ListUpcoming возвращает контесты, которые ещё не выполнены и не пропущены
	ListUpcoming() ([]entity.Contest, error)
	// ListPast возвращает выполненные или пропущенные контесты,
	// отсортированные по дате завершения/пропуска (убывание)
	ListPast() ([]entity.Contest, error)
	Update(contest *entity.Contest) error
	Delete(id uint) error
	// FindDuplicate ищет контест той же платформы с тем же именем,
	// начинающийся в окне [dayStart, dayEnd). Используется реконсилером импорта.
	FindDuplicate(platform, name string, dayStart, dayEnd time.Time) (*entity.Contest, error)
	// GetStats возвращает агрегированную статистику одним набором запросов
	GetStats() (*ContestStats, error)
	// CountByPlatform возвращает число контестов платформы
	CountByPlatform(platform string) (int64, error)
}

package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/contest-tracker-api/internal/domain/entity"
	"github.com/yourusername/contest-tracker-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-tracker-api/internal/pkg/errors"
)

// ContestRepo реализует repository.ContestRepository
type ContestRepo struct {
	db *gorm.DB
}

// NewContestRepo создает новый репозиторий контестов
func NewContestRepo(db *gorm.DB) *ContestRepo {
	return &ContestRepo{db: db}
}

// Create создает новый контест
func (r *ContestRepo) Create(contest *entity.Contest) error {
	if err := r.db.Create(contest).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		if isCheckViolation(err) {
			return apperrors.ErrValidation
		}
		return err
	}
	return nil
}

// GetByID возвращает контест по ID
func (r *ContestRepo) GetByID(id uint) (*entity.Contest, error) {
	var contest entity.Contest
	err := r.db.First(&contest, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &contest, nil
}

// List возвращает все контесты, отсортированные по дате начала
func (r *ContestRepo) List() ([]entity.Contest, error) {
	var contests []entity.Contest
	err := r.db.Order("date ASC").Find(&contests).Error
	if err != nil {
		return nil, err
	}
	return contests, nil
}

// ListUpcoming возвращает предстоящие контесты (не выполненные и не пропущенные)
func (r *ContestRepo) ListUpcoming() ([]entity.Contest, error) {
	var contests []entity.Contest
	err := r.db.Where("done = ? AND skipped = ?", false, false).
		Order("date ASC").
		Find(&contests).Error
	if err != nil {
		return nil, err
	}
	return contests, nil
}

// ListPast возвращает прошедшие контесты (выполненные или пропущенные),
// отсортированные по дате завершения либо пропуска
func (r *ContestRepo) ListPast() ([]entity.Contest, error) {
	var contests []entity.Contest
	err := r.db.Where("done = ? OR skipped = ?", true, true).
		Order("COALESCE(completed_date, skipped_date) DESC").
		Find(&contests).Error
	if err != nil {
		return nil, err
	}
	return contests, nil
}

// Update сохраняет все поля контеста, включая обнулённые указатели.
// Save с полной структурой нужен, чтобы переходы статусов могли записывать NULL.
func (r *ContestRepo) Update(contest *entity.Contest) error {
	result := r.db.Model(contest).
		Select("*").
		Omit("id", "created_at").
		Updates(contest)
	if result.Error != nil {
		if isCheckViolation(result.Error) {
			return apperrors.ErrValidation
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete удаляет контест по ID
func (r *ContestRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.Contest{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindDuplicate ищет контест той же платформы с тем же именем в пределах
// календарного дня UTC. Окно [dayStart, dayEnd) сглаживает секундный джиттер
// времени начала между циклами внешних API.
func (r *ContestRepo) FindDuplicate(platform, name string, dayStart, dayEnd time.Time) (*entity.Contest, error) {
	var contest entity.Contest
	err := r.db.Where("platform = ? AND name = ? AND date >= ? AND date < ?",
		platform, name, dayStart, dayEnd).
		First(&contest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &contest, nil
}

// GetStats возвращает агрегированную статистику по контестам
func (r *ContestRepo) GetStats() (*repository.ContestStats, error) {
	var stats repository.ContestStats

	if err := r.db.Model(&entity.Contest{}).Count(&stats.TotalContests).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&entity.Contest{}).Where("done = ?", true).
		Count(&stats.CompletedContests).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&entity.Contest{}).Where("skipped = ?", true).
		Count(&stats.SkippedContests).Error; err != nil {
		return nil, err
	}
	stats.UpcomingContests = stats.TotalContests - stats.CompletedContests - stats.SkippedContests

	// Сумма решённых задач только по выполненным контестам
	err := r.db.Model(&entity.Contest{}).
		Where("done = ?", true).
		Select("COALESCE(SUM(questions_solved), 0)").
		Scan(&stats.TotalQuestions).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// CountByPlatform возвращает число контестов указанной платформы
func (r *ContestRepo) CountByPlatform(platform string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Contest{}).
		Where("platform = ?", platform).
		Count(&count).Error
	return count, err
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == "23505"
}

// isCheckViolation проверяет Postgres check violation (23514): нарушение
// CHECK-ограничений таблицы contests (платформа, done/skipped, questions_solved)
func isCheckViolation(err error) bool {
	return pgErrorCode(err) == "23514"
}

// pgErrorCode извлекает SQLSTATE из ошибки pgconn или lib/pq драйвера
func pgErrorCode(err error) string {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

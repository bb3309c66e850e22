package importer

import (
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/contest-tracker-api/internal/domain/entity"
	"github.com/yourusername/contest-tracker-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-tracker-api/internal/pkg/errors"
)

// Reconciler вливает нормализованные списки контестов в хранилище
// без дублирования уже существующих записей
type Reconciler struct {
	contestRepo repository.ContestRepository
}

// NewReconciler создает новый реконсилер импорта
func NewReconciler(contestRepo repository.ContestRepository) *Reconciler {
	return &Reconciler{contestRepo: contestRepo}
}

// Reconcile обрабатывает элементы по одному: существующий контест той же
// платформы с тем же именем в пределах календарного дня UTC пропускается
// (пользовательские правки никогда не перезаписываются), отсутствующий —
// создается в статусе "предстоящий".
func (r *Reconciler) Reconcile(platform string, items []RawContest) (*ImportReport, error) {
	report := &ImportReport{
		Platform:   platform,
		CreatedIDs: []uint{},
	}

	for _, item := range items {
		dayStart, dayEnd := utcDayWindow(item.StartTime)

		existing, err := r.contestRepo.FindDuplicate(platform, item.Name, dayStart, dayEnd)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("reconcile %s: duplicate check for %q: %w", platform, item.Name, err)
		}

		if existing != nil {
			report.SkippedExisting++
			continue
		}

		contest := &entity.Contest{
			Name:      item.Name,
			Platform:  platform,
			StartTime: item.StartTime.UTC(),
			Link:      item.Link,
			Done:      false,
			Skipped:   false,
		}
		contest.Normalize()

		if err := r.contestRepo.Create(contest); err != nil {
			return nil, fmt.Errorf("reconcile %s: create %q: %w", platform, item.Name, err)
		}

		report.Created++
		report.CreatedIDs = append(report.CreatedIDs, contest.ID)
	}

	return report, nil
}

// utcDayWindow возвращает границы календарного дня UTC [start, end),
// содержащего момент t. Окно в день сглаживает секундный джиттер времени
// начала между циклами внешних API, но не склеивает одноимённые контесты
// разных дней (еженедельные серии).
func utcDayWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

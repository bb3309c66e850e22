package service

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/yourusername/contest-tracker-api/internal/domain/entity"
	"github.com/yourusername/contest-tracker-api/internal/domain/repository"
	"github.com/yourusername/contest-tracker-api/internal/handler/dto"
	apperrors "github.com/yourusername/contest-tracker-api/internal/pkg/errors"
)

// statsCacheKey — ключ кеша агрегированной статистики
const statsCacheKey = "contests:stats:summary"

// statsCacheTTL — время жизни кеша статистики
const statsCacheTTL = 60 * time.Second

// ContestService предоставляет методы для работы с контестами
type ContestService struct {
	contestRepo repository.ContestRepository
	cacheRepo   repository.CacheRepository
}

// NewContestService создает новый сервис контестов.
// cacheRepo может быть nil — тогда статистика считается на каждый запрос.
func NewContestService(contestRepo repository.ContestRepository, cacheRepo repository.CacheRepository) *ContestService {
	return &ContestService{
		contestRepo: contestRepo,
		cacheRepo:   cacheRepo,
	}
}

// ListContests возвращает все контесты, отсортированные по дате начала
func (s *ContestService) ListContests() ([]entity.Contest, error) {
	return s.contestRepo.List()
}

// ListUpcoming возвращает предстоящие контесты
func (s *ContestService) ListUpcoming() ([]entity.Contest, error) {
	return s.contestRepo.ListUpcoming()
}

// ListPast возвращает прошедшие контесты (выполненные или пропущенные)
func (s *ContestService) ListPast() ([]entity.Contest, error) {
	return s.contestRepo.ListPast()
}

// GetContestByID возвращает контест по ID
func (s *ContestService) GetContestByID(id uint) (*entity.Contest, error) {
	return s.contestRepo.GetByID(id)
}

// CreateContest валидирует и сохраняет новый контест.
// Статусные поля проходят через методы сущности: произвольная комбинация
// done/skipped/questions_solved из запроса приводится к допустимому состоянию.
func (s *ContestService) CreateContest(contest *entity.Contest) error {
	contest.Normalize()

	if err := s.validateContest(contest); err != nil {
		return err
	}

	normalizeStatus(contest, time.Now().UTC())

	if err := s.contestRepo.Create(contest); err != nil {
		return err
	}

	s.invalidateStatsCache()
	return nil
}

// UpdateContest полностью обновляет контест по ID.
// Статусные поля проходят через методы сущности, чтобы сохранить инварианты.
func (s *ContestService) UpdateContest(id uint, updated *entity.Contest) (*entity.Contest, error) {
	contest, err := s.contestRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	updated.Normalize()
	if err := s.validateContest(updated); err != nil {
		return nil, err
	}

	contest.Name = updated.Name
	contest.Platform = updated.Platform
	contest.StartTime = updated.StartTime
	contest.Link = updated.Link

	contest.Done = updated.Done
	contest.Skipped = updated.Skipped
	contest.QuestionsSolved = updated.QuestionsSolved
	contest.CompletedDate = updated.CompletedDate
	contest.SkippedDate = updated.SkippedDate
	normalizeStatus(contest, time.Now().UTC())

	if err := s.contestRepo.Update(contest); err != nil {
		return nil, err
	}

	s.invalidateStatsCache()
	return contest, nil
}

// MarkDone помечает контест выполненным с указанным числом решённых задач
func (s *ContestService) MarkDone(id uint, questionsSolved int) (*entity.Contest, error) {
	contest, err := s.contestRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	contest.MarkDone(questionsSolved, time.Now().UTC())

	if err := s.contestRepo.Update(contest); err != nil {
		return nil, err
	}

	s.invalidateStatsCache()
	return contest, nil
}

// MarkSkipped помечает контест пропущенным
func (s *ContestService) MarkSkipped(id uint) (*entity.Contest, error) {
	contest, err := s.contestRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	contest.MarkSkipped(time.Now().UTC())

	if err := s.contestRepo.Update(contest); err != nil {
		return nil, err
	}

	s.invalidateStatsCache()
	return contest, nil
}

// ResetToPending возвращает контест в состояние "предстоящий"
func (s *ContestService) ResetToPending(id uint) (*entity.Contest, error) {
	contest, err := s.contestRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	contest.ResetToPending()

	if err := s.contestRepo.Update(contest); err != nil {
		return nil, err
	}

	s.invalidateStatsCache()
	return contest, nil
}

// DeleteContest удаляет контест по ID
func (s *ContestService) DeleteContest(id uint) error {
	if err := s.contestRepo.Delete(id); err != nil {
		return err
	}
	s.invalidateStatsCache()
	return nil
}

// GetStatsSummary возвращает агрегированную статистику по контестам.
// Результат кешируется на statsCacheTTL, кеш инвалидируется при мутациях.
func (s *ContestService) GetStatsSummary() (*dto.ContestStatsResponse, error) {
	if s.cacheRepo != nil {
		var cached dto.ContestStatsResponse
		if err := s.cacheRepo.GetJSON(statsCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, err := s.contestRepo.GetStats()
	if err != nil {
		return nil, err
	}

	response := buildStatsResponse(stats)

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(statsCacheKey, response, statsCacheTTL); err != nil {
			log.Printf("[ContestService] Не удалось записать статистику в кеш: %v", err)
		}
	}

	return response, nil
}

// buildStatsResponse вычисляет производные метрики из сырых счётчиков
func buildStatsResponse(stats *repository.ContestStats) *dto.ContestStatsResponse {
	response := &dto.ContestStatsResponse{
		TotalContests:        stats.TotalContests,
		CompletedContests:    stats.CompletedContests,
		SkippedContests:      stats.SkippedContests,
		UpcomingContests:     stats.UpcomingContests,
		TotalQuestionsSolved: stats.TotalQuestions,
	}

	if stats.CompletedContests > 0 {
		avg := float64(stats.TotalQuestions) / float64(stats.CompletedContests)
		// Округляем до одного знака после запятой
		response.AverageQuestionsSolved = math.Round(avg*10) / 10
	}

	finished := stats.CompletedContests + stats.SkippedContests
	if finished > 0 {
		rate := float64(stats.CompletedContests) / float64(finished) * 100
		response.ParticipationRate = int(math.Round(rate))
	}

	return response
}

// normalizeStatus приводит статусные поля к допустимому состоянию через
// переходы сущности, а не прямым копированием: done и skipped никогда не
// бывают true одновременно (при противоречивом входе приоритет у done),
// questions_solved хранится только для выполненных контестов.
// Явно переданные даты завершения/пропуска сохраняются.
func normalizeStatus(contest *entity.Contest, now time.Time) {
	explicitCompleted := contest.CompletedDate
	explicitSkipped := contest.SkippedDate

	switch {
	case contest.Done:
		questionsSolved := 0
		if contest.QuestionsSolved != nil {
			questionsSolved = *contest.QuestionsSolved
		}
		contest.MarkDone(questionsSolved, now)
		if explicitCompleted != nil {
			contest.CompletedDate = explicitCompleted
		}
	case contest.Skipped:
		contest.MarkSkipped(now)
		if explicitSkipped != nil {
			contest.SkippedDate = explicitSkipped
		}
	default:
		contest.ResetToPending()
	}
}

// validateContest проверяет доменные правила, не покрываемые binding-тегами
func (s *ContestService) validateContest(contest *entity.Contest) error {
	if contest.Name == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	if !entity.IsValidPlatform(contest.Platform) {
		return fmt.Errorf("%w: unknown platform %q", apperrors.ErrValidation, contest.Platform)
	}
	if contest.StartTime.IsZero() {
		return fmt.Errorf("%w: date is required", apperrors.ErrValidation)
	}
	if !contest.HasValidLink() {
		return fmt.Errorf("%w: link must start with http:// or https://", apperrors.ErrValidation)
	}
	return nil
}

// invalidateStatsCache сбрасывает кеш статистики после мутации
func (s *ContestService) invalidateStatsCache() {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(statsCacheKey); err != nil {
		log.Printf("[ContestService] Не удалось инвалидировать кеш статистики: %v", err)
	}
}

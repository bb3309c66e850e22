package importer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scheduler периодически запускает полный конвейер импорта:
// каждый источник + реконсилер, один раз при старте и далее по таймеру.
// Ошибка одного источника изолируется и не мешает остальным.
type Scheduler struct {
	sources    []Source
	reconciler *Reconciler
	interval   time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler создает планировщик импорта.
// interval <= 0 заменяется значением по умолчанию (6 часов).
func NewScheduler(sources []Source, reconciler *Reconciler, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Scheduler{
		sources:    sources,
		reconciler: reconciler,
		interval:   interval,
	}
}

// Start запускает цикл импорта: один прогон сразу, затем по таймеру.
// Повторный вызов без Stop игнорируется.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		log.Printf("[ImportScheduler] Планировщик уже запущен, повторный Start игнорируется")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log.Printf("[ImportScheduler] Запуск: %d источников, период %v", len(s.sources), s.interval)

		// Первый прогон сразу при старте. Рестарт процесса безопасен:
		// реконсилер идемпотентен благодаря проверке дубликатов.
		s.RunCycle(runCtx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunCycle(runCtx)
			case <-runCtx.Done():
				log.Printf("[ImportScheduler] Завершение работы планировщика импорта")
				return
			}
		}
	}()
}

// Stop останавливает планировщик и дожидается завершения текущего цикла
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}

// RunCycle выполняет один полный цикл импорта по всем источникам.
// Возвращает отчёты успешно обработанных источников.
func (s *Scheduler) RunCycle(ctx context.Context) []*ImportReport {
	cycleID := uuid.NewString()
	started := time.Now()
	log.Printf("[ImportScheduler] Цикл %s: начало", cycleID)

	reports := make([]*ImportReport, 0, len(s.sources))
	for _, source := range s.sources {
		select {
		case <-ctx.Done():
			log.Printf("[ImportScheduler] Цикл %s: прерван", cycleID)
			return reports
		default:
		}

		report, err := s.runSource(ctx, source)
		if err != nil {
			// Ошибка одного источника не прерывает цикл для остальных
			log.Printf("[ImportScheduler] Цикл %s: источник %s завершился с ошибкой: %v", cycleID, source.Name(), err)
			continue
		}

		log.Printf("[ImportScheduler] Цикл %s: %s — создано %d, пропущено существующих %d",
			cycleID, source.Name(), report.Created, report.SkippedExisting)
		reports = append(reports, report)
	}

	log.Printf("[ImportScheduler] Цикл %s: завершён за %v (%d/%d источников успешно)",
		cycleID, time.Since(started).Round(time.Millisecond), len(reports), len(s.sources))
	return reports
}

// runSource выполняет конвейер одного источника: fetch + reconcile
func (s *Scheduler) runSource(ctx context.Context, source Source) (*ImportReport, error) {
	items, err := source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return s.reconciler.Reconcile(source.Platform(), items)
}

package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/contest-tracker-api/internal/domain/entity"
	"github.com/yourusername/contest-tracker-api/internal/handler/dto"
	apperrors "github.com/yourusername/contest-tracker-api/internal/pkg/errors"
	"github.com/yourusername/contest-tracker-api/internal/service"
)

// ContestHandler обрабатывает запросы, связанные с контестами
type ContestHandler struct {
	contestService *service.ContestService
}

// NewContestHandler создает новый обработчик контестов
func NewContestHandler(contestService *service.ContestService) *ContestHandler {
	return &ContestHandler{
		contestService: contestService,
	}
}

// ContestRequest представляет запрос на создание или полное обновление контеста
type ContestRequest struct {
	Name            string     `json:"name" binding:"required,min=1,max=200"`
	Platform        string     `json:"platform" binding:"required,oneof=LeetCode Codeforces AtCoder HackerRank CodeChef TopCoder"`
	Date            time.Time  `json:"date" binding:"required"`
	Link            string     `json:"link" binding:"required"`
	Done            bool       `json:"done"`
	Skipped         bool       `json:"skipped"`
	QuestionsSolved *int       `json:"questions_solved" binding:"omitempty,gte=0"`
	CompletedDate   *time.Time `json:"completed_date"`
	SkippedDate     *time.Time `json:"skipped_date"`
}

// toEntity преобразует запрос в сущность
func (r *ContestRequest) toEntity() *entity.Contest {
	return &entity.Contest{
		Name:            r.Name,
		Platform:        r.Platform,
		StartTime:       r.Date,
		Link:            r.Link,
		Done:            r.Done,
		Skipped:         r.Skipped,
		QuestionsSolved: r.QuestionsSolved,
		CompletedDate:   r.CompletedDate,
		SkippedDate:     r.SkippedDate,
	}
}

// MarkDoneRequest представляет тело запроса mark-done.
// Отсутствующее questions_solved трактуется как 0.
type MarkDoneRequest struct {
	QuestionsSolved *int `json:"questions_solved" binding:"omitempty,gte=0"`
}

// ListContests возвращает все контесты, отсортированные по дате начала
// GET /api/contests
func (h *ContestHandler) ListContests(c *gin.Context) {
	contests, err := h.contestService.ListContests()
	if err != nil {
		h.handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListContestResponse(contests))
}

// ListUpcoming возвращает предстоящие контесты
// GET /api/contests/upcoming
func (h *ContestHandler) ListUpcoming(c *gin.Context) {
	contests, err := h.contestService.ListUpcoming()
	if err != nil {
		h.handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListContestResponse(contests))
}

// ListPast возвращает прошедшие контесты (выполненные или пропущенные)
// GET /api/contests/past
func (h *ContestHandler) ListPast(c *gin.Context) {
	contests, err := h.contestService.ListPast()
	if err != nil {
		h.handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListContestResponse(contests))
}

// GetContest возвращает контест по ID
// GET /api/contests/:id
func (h *ContestHandler) GetContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint) // Получаем из контекста

	contest, err := h.contestService.GetContestByID(contestID)
	if err != nil {
		h.handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContestResponse(contest))
}

// CreateContest создает новый контест
// POST /api/contests
func (h *ContestHandler) CreateContest(c *gin.Context) {
	var req ContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "errors": dto.FieldErrors(err)})
		return
	}

	contest := req.toEntity()
	if err := h.contestService.CreateContest(contest); err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewContestResponse(contest))
}

// UpdateContest полностью обновляет контест
// PUT /api/contests/:id
func (h *ContestHandler) UpdateContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req ContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "errors": dto.FieldErrors(err)})
		return
	}

	contest, err := h.contestService.UpdateContest(contestID, req.toEntity())
	if err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewContestResponse(contest))
}

// MarkDone помечает контест выполненным
// PUT /api/contests/:id/mark-done
func (h *ContestHandler) MarkDone(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req MarkDoneRequest
	// Отсутствующее или пустое тело допустимо и означает 0 решённых задач
	if c.Request.Body != nil {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "errors": dto.FieldErrors(err)})
			return
		}
	}

	questionsSolved := 0
	if req.QuestionsSolved != nil {
		questionsSolved = *req.QuestionsSolved
	}

	contest, err := h.contestService.MarkDone(contestID, questionsSolved)
	if err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewContestResponse(contest))
}

// MarkSkipped помечает контест пропущенным
// PUT /api/contests/:id/mark-skipped
func (h *ContestHandler) MarkSkipped(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	contest, err := h.contestService.MarkSkipped(contestID)
	if err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewContestResponse(contest))
}

// ResetContest возвращает контест в состояние "предстоящий"
// PUT /api/contests/:id/reset
func (h *ContestHandler) ResetContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	contest, err := h.contestService.ResetToPending(contestID)
	if err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewContestResponse(contest))
}

// DeleteContest удаляет контест
// DELETE /api/contests/:id
func (h *ContestHandler) DeleteContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	if err := h.contestService.DeleteContest(contestID); err != nil {
		h.handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contest deleted successfully"})
}

// GetStatsSummary возвращает агрегированную статистику
// GET /api/contests/stats/summary
func (h *ContestHandler) GetStatsSummary(c *gin.Context) {
	stats, err := h.contestService.GetStatsSummary()
	if err != nil {
		h.handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportContests экспортирует все контесты в CSV или Excel формате
// GET /api/contests/export?format=csv|xlsx
func (h *ContestHandler) ExportContests(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")

	contests, err := h.contestService.ListContests()
	if err != nil {
		h.handleContestError(c, err)
		return
	}

	filename := fmt.Sprintf("contests_%s", time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, contests, filename)
	default:
		h.exportCSV(c, contests, filename)
	}
}

// Health возвращает статус сервиса
// GET /api/health
func (h *ContestHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// contestStatusLabel возвращает человекочитаемый статус для экспорта
func contestStatusLabel(contest *entity.Contest) string {
	switch {
	case contest.Done:
		return "Выполнен"
	case contest.Skipped:
		return "Пропущен"
	default:
		return "Предстоит"
	}
}

// exportCSV экспортирует контесты в CSV с правильным экранированием спецсимволов
func (h *ContestHandler) exportCSV(c *gin.Context, contests []entity.Contest, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	// Используем encoding/csv для правильного экранирования запятых/кавычек
	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// Заголовки
	writer.Write([]string{"Название", "Платформа", "Дата", "Время (UTC)", "Статус", "Решено задач", "Ссылка"})

	// Данные
	for i := range contests {
		contest := &contests[i]

		solved := ""
		if contest.QuestionsSolved != nil {
			solved = strconv.Itoa(*contest.QuestionsSolved)
		}

		writer.Write([]string{
			sanitizeForExcel(contest.Name),
			contest.Platform,
			contest.StartTime.UTC().Format("2006-01-02"),
			contest.StartTime.UTC().Format("15:04"),
			contestStatusLabel(contest),
			solved,
			contest.Link,
		})
	}
}

// exportXLSX экспортирует контесты в Excel с использованием StreamWriter
func (h *ContestHandler) exportXLSX(c *gin.Context, contests []entity.Contest, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Контесты"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[ContestHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	// Заголовки
	headers := []interface{}{"Название", "Платформа", "Дата", "Время (UTC)", "Статус", "Решено задач", "Ссылка"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[ContestHandler] Ошибка записи заголовков: %v", err)
	}

	// Данные
	for i := range contests {
		contest := &contests[i]
		rowNum := i + 2 // Начинаем с 2 строки (1 - заголовки)
		cell := fmt.Sprintf("A%d", rowNum)

		solved := ""
		if contest.QuestionsSolved != nil {
			solved = strconv.Itoa(*contest.QuestionsSolved)
		}

		row := []interface{}{
			sanitizeForExcel(contest.Name),
			contest.Platform,
			contest.StartTime.UTC().Format("2006-01-02"),
			contest.StartTime.UTC().Format("15:04"),
			contestStatusLabel(contest),
			solved,
			contest.Link,
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[ContestHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[ContestHandler] Ошибка при Flush: %v", err)
	}

	// Записываем в response
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[ContestHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// handleContestError преобразует доменные ошибки в HTTP статусы
func (h *ContestHandler) handleContestError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contest not found"})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in ContestHandler: %v", err)
		// Детали внутренних ошибок не раскрываются клиенту в release режиме
		if gin.Mode() == gin.ReleaseMode {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

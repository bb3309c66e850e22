package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContest_MarkDone_SetsCompletionFields(t *testing.T) {
	// Arrange: предстоящий контест
	contest := &Contest{
		Name:     "Weekly Contest 420",
		Platform: PlatformLeetCode,
	}
	now := time.Date(2025, 11, 2, 10, 30, 0, 0, time.UTC)

	// Act
	contest.MarkDone(3, now)

	// Assert
	assert.True(t, contest.Done, "Флаг done должен быть установлен")
	assert.False(t, contest.Skipped, "Флаг skipped должен быть сброшен")
	require.NotNil(t, contest.QuestionsSolved)
	assert.Equal(t, 3, *contest.QuestionsSolved)
	require.NotNil(t, contest.CompletedDate)
	assert.Equal(t, now, *contest.CompletedDate)
	assert.Nil(t, contest.SkippedDate, "SkippedDate должен быть очищен")
}

func TestContest_MarkDone_ClampsNegativeQuestionsSolved(t *testing.T) {
	contest := &Contest{Name: "ABC 377", Platform: PlatformAtCoder}

	contest.MarkDone(-5, time.Now())

	require.NotNil(t, contest.QuestionsSolved)
	assert.Equal(t, 0, *contest.QuestionsSolved, "Отрицательное число задач приводится к нулю")
}

func TestContest_MarkSkipped_ClearsDoneFields(t *testing.T) {
	// Arrange: контест уже отмечен как выполненный
	contest := &Contest{Name: "Codeforces Round 990", Platform: PlatformCodeforces}
	contest.MarkDone(4, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))

	// Act: помечаем как пропущенный
	skipTime := time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)
	contest.MarkSkipped(skipTime)

	// Assert: поля состояния "выполнен" должны быть очищены
	assert.True(t, contest.Skipped)
	assert.False(t, contest.Done)
	assert.Nil(t, contest.QuestionsSolved, "QuestionsSolved должен быть обнулён при пропуске")
	assert.Nil(t, contest.CompletedDate, "CompletedDate должен быть обнулён при пропуске")
	require.NotNil(t, contest.SkippedDate)
	assert.Equal(t, skipTime, *contest.SkippedDate)
}

func TestContest_MarkDone_AfterSkipped_ClearsSkippedFields(t *testing.T) {
	contest := &Contest{Name: "Starters 150", Platform: PlatformCodeChef}
	contest.MarkSkipped(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))

	contest.MarkDone(2, time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC))

	assert.True(t, contest.Done)
	assert.False(t, contest.Skipped)
	assert.Nil(t, contest.SkippedDate, "SkippedDate должен быть обнулён при возврате в done")
}

func TestContest_TransitionsNeverBothTerminal(t *testing.T) {
	// Произвольная последовательность переходов не должна приводить
	// к одновременному done && skipped
	contest := &Contest{Name: "Weekly Contest 421", Platform: PlatformLeetCode}
	now := time.Now()

	contest.MarkDone(1, now)
	assert.False(t, contest.Done && contest.Skipped)

	contest.MarkSkipped(now)
	assert.False(t, contest.Done && contest.Skipped)

	contest.MarkDone(5, now)
	assert.False(t, contest.Done && contest.Skipped)

	contest.ResetToPending()
	assert.False(t, contest.Done && contest.Skipped)
	assert.True(t, contest.IsUpcoming())
}

func TestContest_ResetToPending_ClearsAllStatusFields(t *testing.T) {
	contest := &Contest{Name: "SRM 850", Platform: PlatformTopCoder}
	contest.MarkDone(7, time.Now())

	contest.ResetToPending()

	assert.False(t, contest.Done)
	assert.False(t, contest.Skipped)
	assert.Nil(t, contest.QuestionsSolved)
	assert.Nil(t, contest.CompletedDate)
	assert.Nil(t, contest.SkippedDate)
}

func TestContest_HasValidLink(t *testing.T) {
	tests := []struct {
		name  string
		link  string
		valid bool
	}{
		{"https ссылка", "https://codeforces.com/contests", true},
		{"http ссылка", "http://atcoder.jp/contests/abc377", true},
		{"без схемы", "codeforces.com/contests", false},
		{"ftp схема", "ftp://example.com", false},
		{"пустая строка", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contest := &Contest{Link: tt.link}
			assert.Equal(t, tt.valid, contest.HasValidLink())
		})
	}
}

func TestContest_FinishedAt(t *testing.T) {
	completed := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	skipped := time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC)

	done := &Contest{CompletedDate: &completed}
	assert.Equal(t, &completed, done.FinishedAt())

	skip := &Contest{SkippedDate: &skipped}
	assert.Equal(t, &skipped, skip.FinishedAt())

	pending := &Contest{}
	assert.Nil(t, pending.FinishedAt())
}

func TestIsValidPlatform(t *testing.T) {
	assert.True(t, IsValidPlatform(PlatformCodeforces))
	assert.True(t, IsValidPlatform(PlatformHackerRank))
	assert.False(t, IsValidPlatform("Kaggle"))
	assert.False(t, IsValidPlatform(""))
	assert.False(t, IsValidPlatform("leetcode"), "Сравнение чувствительно к регистру")
}

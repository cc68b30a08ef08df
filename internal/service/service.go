// Package service реализует бизнес-логику сервиса foodwrapped.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/foodwrapped-system/internal/mailparse"
	"github.com/mmeshcher/foodwrapped-system/internal/model"
	"github.com/mmeshcher/foodwrapped-system/internal/stats"
	"github.com/mmeshcher/foodwrapped-system/internal/vibe"
)

// ErrNoValidEmails возвращается, когда из батча не извлечён ни один чек.
var (
	ErrNoValidEmails = errors.New("no valid receipt emails found")
	// ErrVibeUnavailable возвращается, когда клиент генерации не сконфигурирован.
	ErrVibeUnavailable = errors.New("vibe generation is not configured")
)

// Repository описывает контракт хранилища истории загрузок, используемый сервисом.
type Repository interface {
	Close() error
	SaveSummary(ctx context.Context, s *model.Statistics) (int64, error)
	ListSummaries(ctx context.Context, limit int) ([]model.SummaryRecord, error)
}

// Service содержит бизнес-логику сервиса foodwrapped.
type Service struct {
	repo       Repository
	vibeClient *vibe.Client
	logger     *zap.Logger
}

// NewService создаёт новый сервис. Репозиторий и клиент генерации могут быть nil:
// соответствующие возможности при этом отключены, базовая обработка загрузок работает.
func NewService(repo Repository, vibeClient *vibe.Client, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		vibeClient: vibeClient,
		logger:     logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// ProcessUpload разбирает батч загруженных файлов, агрегирует статистику
// и, если настроена история, сохраняет сводку. Ошибка сохранения истории
// не ломает выдачу статистики.
func (s *Service) ProcessUpload(ctx context.Context, uploads []mailparse.Upload) (*model.Statistics, error) {
	entries := mailparse.ParseUploads(uploads, s.logger)
	if len(entries) == 0 {
		return nil, ErrNoValidEmails
	}

	summary := stats.Aggregate(entries)

	if s.repo != nil {
		if _, err := s.repo.SaveSummary(ctx, summary); err != nil {
			s.logger.Warn("save summary to history", zap.Error(err))
		}
	}

	return summary, nil
}

// GenerateVibe строит промпт по статистике и запрашивает внешний сервис генерации.
func (s *Service) GenerateVibe(ctx context.Context, summary *model.Statistics) (*vibe.Vibe, error) {
	if s.vibeClient == nil {
		return nil, ErrVibeUnavailable
	}

	v, err := s.vibeClient.Generate(ctx, vibe.BuildPrompt(summary))
	if err != nil {
		return nil, fmt.Errorf("generate vibe: %w", err)
	}

	return v, nil
}

// GetHistory возвращает последние сохранённые сводки загрузок.
// Без настроенного хранилища история пуста.
func (s *Service) GetHistory(ctx context.Context, limit int) ([]model.SummaryRecord, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListSummaries(ctx, limit)
}

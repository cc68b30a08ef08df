// Package handler содержит HTTP-обработчики API сервиса foodwrapped.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/foodwrapped-system/internal/mailparse"
	"github.com/mmeshcher/foodwrapped-system/internal/model"
	"github.com/mmeshcher/foodwrapped-system/internal/service"
	"github.com/mmeshcher/foodwrapped-system/internal/vibe"
)

// maxUploadMemory ограничивает объём multipart-формы, удерживаемый в памяти.
const maxUploadMemory = 32 << 20

// historyLimit — сколько последних сводок отдаёт история.
const historyLimit = 20

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	ProcessUpload(ctx context.Context, uploads []mailparse.Upload) (*model.Statistics, error)
	GenerateVibe(ctx context.Context, summary *model.Statistics) (*vibe.Vibe, error)
	GetHistory(ctx context.Context, limit int) ([]model.SummaryRecord, error)
}

// Handler реализует HTTP-обработчики API сервиса foodwrapped.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
	}
}

// UploadEmails принимает multipart-батч файлов писем и возвращает агрегированную статистику.
func (h *Handler) UploadEmails(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "No files uploaded.")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded.")
		return
	}

	uploads := make([]mailparse.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.logger.Warn("open uploaded file", zap.String("filename", fh.Filename), zap.Error(err))
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.logger.Warn("read uploaded file", zap.String("filename", fh.Filename), zap.Error(err))
			continue
		}
		uploads = append(uploads, mailparse.Upload{Filename: fh.Filename, Data: data})
	}

	summary, err := h.service.ProcessUpload(r.Context(), uploads)
	if err != nil {
		if errors.Is(err, service.ErrNoValidEmails) {
			writeError(w, http.StatusBadRequest, "No valid .eml files found.")
			return
		}
		h.logger.Error("process upload error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

type generateVibeRequest struct {
	Stats *model.Statistics `json:"stats"`
}

type generateVibeResponse struct {
	Vibe   string            `json:"vibe"`
	Colors map[string]string `json:"colors"`
}

// GenerateVibe принимает статистику и возвращает сгенерированное описание.
func (h *Handler) GenerateVibe(w http.ResponseWriter, r *http.Request) {
	var req generateVibeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stats == nil {
		writeError(w, http.StatusBadRequest, "Missing stats payload")
		return
	}

	v, err := h.service.GenerateVibe(r.Context(), req.Stats)
	if err != nil {
		h.logger.Error("generate vibe error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, generateVibeResponse{
		Vibe:   v.Sentence,
		Colors: v.Colors,
	})
}

type historyItemResponse struct {
	ID            int64  `json:"id"`
	RecipientName string `json:"recipient_name,omitempty"`
	TotalItems    int    `json:"total_items"`
	UniqueItems   int    `json:"unique_items"`
	BusiestDate   string `json:"busiest_date,omitempty"`
	BusiestCount  int    `json:"busiest_count"`
	TopRestaurant string `json:"top_restaurant,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// GetHistory возвращает последние сохранённые сводки загрузок.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.GetHistory(r.Context(), historyLimit)
	if err != nil {
		h.logger.Error("get history error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	if len(records) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]historyItemResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, historyItemResponse{
			ID:            rec.ID,
			RecipientName: rec.RecipientName,
			TotalItems:    rec.TotalItems,
			UniqueItems:   rec.UniqueItems,
			BusiestDate:   rec.BusiestDate,
			BusiestCount:  rec.BusiestCount,
			TopRestaurant: rec.TopRestaurant,
			CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

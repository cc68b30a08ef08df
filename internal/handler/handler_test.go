package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/foodwrapped-system/internal/mailparse"
	"github.com/mmeshcher/foodwrapped-system/internal/model"
	"github.com/mmeshcher/foodwrapped-system/internal/service"
	"github.com/mmeshcher/foodwrapped-system/internal/vibe"
)

type stubService struct {
	uploads []mailparse.Upload

	statsResp *model.Statistics
	statsErr  error

	vibeResp *vibe.Vibe
	vibeErr  error

	historyResp []model.SummaryRecord
	historyErr  error
}

func (s *stubService) ProcessUpload(ctx context.Context, uploads []mailparse.Upload) (*model.Statistics, error) {
	s.uploads = uploads
	return s.statsResp, s.statsErr
}

func (s *stubService) GenerateVibe(ctx context.Context, summary *model.Statistics) (*vibe.Vibe, error) {
	return s.vibeResp, s.vibeErr
}

func (s *stubService) GetHistory(ctx context.Context, limit int) ([]model.SummaryRecord, error) {
	return s.historyResp, s.historyErr
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	return NewHandler(svc, logger)
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestUploadEmails_Success(t *testing.T) {
	svc := &stubService{
		statsResp: &model.Statistics{
			RecipientName:     "John Doe",
			ItemCounts:        []model.ItemCount{{Item: "Burger", Count: 2}},
			TotalItemsOrdered: 2,
			TotalUniqueItems:  1,
		},
	}
	h := newTestHandler(t, svc)

	body, contentType := multipartBody(t, map[string][]byte{
		"order.eml": []byte("raw email bytes"),
	})

	req := httptest.NewRequest(http.MethodPost, "/upload_emls", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadEmails(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	require.Len(t, svc.uploads, 1)
	assert.Equal(t, "order.eml", svc.uploads[0].Filename)

	var got model.Statistics
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, "John Doe", got.RecipientName)
	assert.Equal(t, 2, got.TotalItemsOrdered)
}

func TestUploadEmails_NoFiles(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	body, contentType := multipartBody(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/upload_emls", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadEmails(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Contains(t, got["error"], "No files uploaded")
}

func TestUploadEmails_NoValidReceipts(t *testing.T) {
	svc := &stubService{statsErr: service.ErrNoValidEmails}
	h := newTestHandler(t, svc)

	body, contentType := multipartBody(t, map[string][]byte{
		"letter.eml": []byte("not a receipt"),
	})

	req := httptest.NewRequest(http.MethodPost, "/upload_emls", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadEmails(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGenerateVibe_MissingStats(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/generate-vibe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.GenerateVibe(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGenerateVibe_Success(t *testing.T) {
	svc := &stubService{
		vibeResp: &vibe.Vibe{
			Sentence: "You're a waffle fry goblin",
			Colors:   map[string]string{"primary": "#ff8800"},
		},
	}
	h := newTestHandler(t, svc)

	payload := `{"stats": {"total_items_ordered": 3, "item_counts": []}}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate-vibe", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	h.GenerateVibe(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var got generateVibeResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, "You're a waffle fry goblin", got.Vibe)
	assert.Equal(t, "#ff8800", got.Colors["primary"])
}

func TestGenerateVibe_ServiceError(t *testing.T) {
	svc := &stubService{vibeErr: vibe.ErrMalformedReply}
	h := newTestHandler(t, svc)

	payload := `{"stats": {"total_items_ordered": 3}}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate-vibe", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	h.GenerateVibe(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestGetHistory_NoContent(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()

	h.GetHistory(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestGetHistory_JSONResponse(t *testing.T) {
	now := time.Now().UTC()
	svc := &stubService{
		historyResp: []model.SummaryRecord{
			{
				ID:            1,
				RecipientName: "John Doe",
				TotalItems:    5,
				UniqueItems:   3,
				BusiestDate:   "2025-02-12",
				BusiestCount:  2,
				TopRestaurant: "The Skillet",
				CreatedAt:     now,
			},
		},
	}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()

	h.GetHistory(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var got []historyItemResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "John Doe", got[0].RecipientName)
	assert.Equal(t, "2025-02-12", got[0].BusiestDate)
}

// Package mailparse превращает загруженные файлы писем в последовательность извлечённых чеков.
package mailparse

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/foodwrapped-system/internal/extractor"
	"github.com/mmeshcher/foodwrapped-system/internal/model"
	"github.com/mmeshcher/foodwrapped-system/internal/validation"
)

// Upload представляет один загруженный файл батча.
type Upload struct {
	Filename string
	Data     []byte
}

// ParseUploads разбирает батч загруженных файлов: отдельные .eml и zip-архивы
// с .eml внутри. Порядок писем сохраняется. Файлы, которые не удалось разобрать
// или в которых не распознан чек, пропускаются и не прерывают обработку батча.
func ParseUploads(uploads []Upload, logger *zap.Logger) []model.EmailEntry {
	entries := []model.EmailEntry{}

	for _, up := range uploads {
		if !validation.IsSupportedUpload(up.Filename) {
			logger.Debug("skipping unsupported file", zap.String("filename", up.Filename))
			continue
		}

		if strings.HasSuffix(strings.ToLower(up.Filename), ".zip") {
			entries = append(entries, parseArchive(up, logger)...)
			continue
		}

		if entry, ok := parseEML(up.Data, up.Filename); ok {
			entries = append(entries, entry)
		} else {
			logger.Debug("no receipt recognized", zap.String("filename", up.Filename))
		}
	}

	return entries
}

// parseArchive извлекает письма из zip-архива, обходя вложенные каталоги.
func parseArchive(up Upload, logger *zap.Logger) []model.EmailEntry {
	zr, err := zip.NewReader(bytes.NewReader(up.Data), int64(len(up.Data)))
	if err != nil {
		logger.Warn("skipping broken archive", zap.String("filename", up.Filename), zap.Error(err))
		return nil
	}

	var entries []model.EmailEntry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".eml") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			logger.Warn("skipping unreadable archive entry", zap.String("entry", f.Name), zap.Error(err))
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			logger.Warn("skipping unreadable archive entry", zap.String("entry", f.Name), zap.Error(err))
			continue
		}

		if entry, ok := parseEML(data, path.Base(f.Name)); ok {
			entries = append(entries, entry)
		}
	}

	return entries
}

// parseEML разбирает одно письмо и извлекает из него чек.
// Письмо без полного набора маркеров чека отбрасывается целиком.
func parseEML(data []byte, filename string) (model.EmailEntry, bool) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return model.EmailEntry{}, false
	}

	body := longestTextBody(msg.Header, msg.Body)
	receipt, ok := extractor.Extract(HTMLToText(body))
	if !ok {
		return model.EmailEntry{}, false
	}

	to := msg.Header.Get("To")
	if to == "" {
		to = msg.Header.Get("Delivered-To")
	}
	recipient, _ := extractor.NameFromHeader(to)

	return model.EmailEntry{
		Subject:       decodeSubject(msg.Header.Get("Subject")),
		RecipientName: recipient,
		Attachments: []model.Attachment{
			{Filename: filename, Receipt: *receipt},
		},
	}, true
}

// longestTextBody выбирает самое длинное декодированное текстовое тело письма
// среди multipart-альтернатив; односоставное письмо декодируется как есть.
func longestTextBody(h mail.Header, body io.Reader) string {
	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return longestPartBody(body, params["boundary"])
	}

	return decodeBody(body, h.Get("Content-Transfer-Encoding"))
}

func longestPartBody(r io.Reader, boundary string) string {
	if boundary == "" {
		return ""
	}

	best := ""
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			return best
		}

		mediaType, params, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		switch {
		case strings.HasPrefix(mediaType, "multipart/"):
			if nested := longestPartBody(part, params["boundary"]); len(nested) > len(best) {
				best = nested
			}
		case mediaType == "text/html" || mediaType == "text/plain" || mediaType == "":
			if text := decodeBody(part, part.Header.Get("Content-Transfer-Encoding")); len(text) > len(best) {
				best = text
			}
		}
	}
}

// decodeBody читает тело части с учётом Content-Transfer-Encoding.
// Ошибки декодирования не фатальны: возвращается то, что удалось прочитать.
func decodeBody(r io.Reader, encoding string) string {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}

	data, _ := io.ReadAll(r)
	return string(data)
}

func decodeSubject(raw string) string {
	decoded, err := new(mime.WordDecoder).DecodeHeader(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Package extractor извлекает структурированные чеки из текста писем с подтверждением заказа.
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mmeshcher/foodwrapped-system/internal/model"
)

// Format описывает один известный формат чека: набор обязательных маркеров,
// по которым текст распознаётся как настоящий чек. Новые форматы добавляются
// в список formats без изменения логики агрегации.
type Format struct {
	Name    string
	Markers []string
}

// FormatDukeDining — формат писем точек питания Duke University.
var FormatDukeDining = Format{
	Name:    "duke-dining",
	Markers: []string{"Target:", "Duke University", "Transaction #"},
}

var formats = []Format{FormatDukeDining}

const targetMarker = "Target:"

var (
	transactionIDRe = regexp.MustCompile(`#(\d{5,})`)
	orderTimeRe     = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{1,2}:\d{2} [AP]M`)
	timeOfDayRe     = regexp.MustCompile(`\d{1,2}:\d{2} [AP]M`)
	totalRe         = regexp.MustCompile(`(?i)total[:\s]*\$?(\d+(?:\.\d{1,2})?)`)
	itemLineRe      = regexp.MustCompile(`^\d+\.\s+`)
	bareTimeRe      = regexp.MustCompile(`^\d{1,2}:\d{2}(?:\s*[AP]M)?$`)
)

// Строки статуса заказа, которые не могут быть названием ресторана.
var statusWords = map[string]struct{}{
	"completed": {},
	"cancelled": {},
	"ready":     {},
	"started":   {},
}

// Matches сообщает, содержит ли текст все обязательные маркеры формата.
func (f Format) Matches(text string) bool {
	for _, m := range f.Markers {
		if !strings.Contains(text, m) {
			return false
		}
	}
	return true
}

// Extract распознаёт чек в нормализованном тексте письма.
// Если текст не содержит полного набора маркеров ни одного известного формата,
// возвращается false — частичный чек никогда не создаётся.
// Каждое необязательное поле извлекается независимо: нераспознанное значение
// остаётся пустым и не мешает извлечению остальных.
func Extract(text string) (*model.Receipt, bool) {
	matched := false
	for _, f := range formats {
		if f.Matches(text) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, false
	}

	r := &model.Receipt{Items: []model.ReceiptItem{}}

	if m := transactionIDRe.FindStringSubmatch(text); m != nil {
		r.TransactionID = m[1]
	}

	if m := orderTimeRe.FindString(text); m != "" {
		r.OrderTime = m
	}

	if idx := strings.Index(text, targetMarker); idx >= 0 {
		tail := text[idx:]
		if m := timeOfDayRe.FindString(tail); m != "" {
			r.PickupTime = m
		}
		r.RestaurantName = restaurantName(tail)
	}

	if m := totalRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			r.Total = &v
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if !itemLineRe.MatchString(line) {
			continue
		}
		_, rest, _ := strings.Cut(line, ".")
		if name := strings.TrimSpace(rest); name != "" {
			r.Items = append(r.Items, model.ReceiptItem{Name: name})
		}
	}

	return r, true
}

// restaurantName выбирает название ресторана из строк, следующих за маркером места выдачи:
// первая непустая строка, которая не является словом статуса или временем и длиннее двух символов.
func restaurantName(tail string) string {
	lines := strings.Split(tail, "\n")
	for _, line := range lines[1:] {
		candidate := strings.TrimSpace(line)
		if candidate == "" || len(candidate) <= 2 {
			continue
		}
		if _, ok := statusWords[strings.ToLower(candidate)]; ok {
			continue
		}
		if bareTimeRe.MatchString(candidate) {
			continue
		}
		return candidate
	}
	return ""
}

// Package validation содержит функции валидации входных данных.
package validation

import "strings"

// IsSupportedUpload проверяет по имени файла, поддерживается ли формат загрузки.
// Сервис принимает отдельные письма .eml и zip-архивы с письмами.
func IsSupportedUpload(filename string) bool {
	name := strings.ToLower(strings.TrimSpace(filename))
	if name == "" {
		return false
	}
	return strings.HasSuffix(name, ".eml") || strings.HasSuffix(name, ".zip")
}

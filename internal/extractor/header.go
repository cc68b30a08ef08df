package extractor

import (
	"net/mail"
	"regexp"
	"strings"
)

var alphaRunRe = regexp.MustCompile(`[A-Za-z]+`)

// NameFromHeader выводит отображаемое имя получателя из заголовка письма.
// Если в заголовке есть display name, оно возвращается как есть; иначе имя
// собирается из локальной части адреса. Пустой заголовок даёт false.
func NameFromHeader(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}

	var name, address string
	if a, err := mail.ParseAddress(header); err == nil {
		name = a.Name
		address = a.Address
	} else if strings.Contains(header, "@") {
		address = strings.Trim(header, "<> ")
	}

	if name != "" {
		return name, true
	}
	if address == "" {
		return "", false
	}

	local, _, _ := strings.Cut(address, "@")

	var words []string
	for _, p := range splitLocalPart(local) {
		if p == "" {
			continue
		}
		words = append(words, capitalize(p))
	}
	if len(words) == 0 {
		return "", false
	}

	return strings.Join(words, " "), true
}

// splitLocalPart разбивает локальную часть адреса на фрагменты имени:
// по точкам, иначе по подчёркиваниям, иначе по буквенным последовательностям.
func splitLocalPart(local string) []string {
	switch {
	case strings.Contains(local, "."):
		return strings.Split(local, ".")
	case strings.Contains(local, "_"):
		return strings.Split(local, "_")
	default:
		return alphaRunRe.FindAllString(local, -1)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

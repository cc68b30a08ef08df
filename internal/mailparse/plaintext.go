package mailparse

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText приводит тело письма к видимому тексту: текстовые узлы документа,
// разделённые переводами строк, содержимое script и style отбрасывается.
// Тело без разметки проходит насквозь с сохранением структуры строк.
func HTMLToText(body string) string {
	tok := html.NewTokenizer(strings.NewReader(body))

	var parts []string
	skip := 0

	for {
		switch tok.Next() {
		case html.ErrorToken:
			return strings.Join(parts, "\n")
		case html.StartTagToken:
			name, _ := tok.TagName()
			if isInvisibleTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			if isInvisibleTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			parts = append(parts, string(tok.Text()))
		}
	}
}

func isInvisibleTag(name string) bool {
	return name == "script" || name == "style"
}

// Package tabular разбирает строки CSV-выгрузки с разнородными разделителями.
package tabular

import "strings"

// ParseLine разбирает одну строку выгрузки на ячейки.
// Разделитель определяется для каждой строки отдельно: источники экспорта
// смешивают «;» и «,» между листами, поэтому выбирается тот символ,
// которого в строке больше (при равенстве — «;»). Разделитель внутри
// двойных кавычек считается частью значения.
func ParseLine(line string) []string {
	if line == "" {
		return []string{}
	}

	delimiter := inferDelimiter(line)

	var cells []string
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == delimiter && !inQuotes:
			cells = append(cells, cleanCell(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	cells = append(cells, cleanCell(current.String()))

	return cells
}

// SplitLines разбивает сырой текст выгрузки на непустые строки.
func SplitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func inferDelimiter(line string) rune {
	semi := strings.Count(line, ";")
	comma := strings.Count(line, ",")
	if semi >= comma {
		return ';'
	}
	return ','
}

// cleanCell убирает одну пару обрамляющих кавычек, символы возврата каретки
// и внешние пробелы.
func cleanCell(val string) string {
	if val == "" {
		return ""
	}
	val = strings.TrimPrefix(val, `"`)
	val = strings.TrimSuffix(val, `"`)
	val = strings.ReplaceAll(val, "\r", "")
	return strings.TrimSpace(val)
}

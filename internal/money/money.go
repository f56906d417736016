// Package money нормализует денежные значения из внешней выгрузки.
package money

import (
	"math"
	"strconv"
	"strings"
)

// ParsePrice преобразует сырую денежную строку в число.
// Источник смешивает форматы: «R$ 1.234,56», «1234.56», «12,5» и мусор.
// Функция никогда не возвращает ошибку — непригодное значение означает ноль,
// потому что выгрузка внешняя и отдельная битая ячейка не должна ронять пакет.
func ParsePrice(raw string) float64 {
	if raw == "" {
		return 0
	}

	clean := strings.ReplaceAll(raw, "R$", "")
	clean = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, clean)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return 0
	}

	lastComma := strings.LastIndex(clean, ",")
	lastDot := strings.LastIndex(clean, ".")

	switch {
	case lastComma > lastDot:
		// Запятая — десятичный разделитель, точки — группировка тысяч.
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	case lastComma != -1 && lastDot == -1:
		clean = strings.Replace(clean, ",", ".", 1)
	}

	val, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(val) {
		return 0
	}
	return val
}

// FormatAmount выводит сумму с двумя знаками после точки без группировки,
// как того требует поле суммы платёжного кода.
func FormatAmount(v float64) string {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

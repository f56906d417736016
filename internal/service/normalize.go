package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks разбирает строку в NFD и удаляет комбинируемые диакритические
// знаки. "José" и "Jose" после этого совпадают.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName приводит имя к канонической форме для сопоставления
// консультанта с его заказами: без диакритики, в нижнем регистре, с одиночными
// пробелами. Лист заказов хранит имя как свободный текст, поэтому это
// единственный надёжный ключ соединения.
func NormalizeName(s string) string {
	if s == "" {
		return ""
	}

	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}

	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

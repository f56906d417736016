// Package pix формирует платёжный код BR Code (PIX) в формате EMV QR.
package pix

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mmeshcher/vega-gateway/internal/money"
)

// Encoder собирает статический платёжный код для настроенного получателя.
type Encoder struct {
	key      string
	merchant string
	city     string
	txid     string
}

// NewEncoder создаёт кодировщик для указанного ключа PIX и данных продавца.
// Имя продавца обрезается до 25 символов, город — до 15, как того требует
// стандарт.
func NewEncoder(key, merchant, city, txid string) *Encoder {
	return &Encoder{
		key:      key,
		merchant: truncate(merchant, 25),
		city:     truncate(city, 15),
		txid:     txid,
	}
}

// Payload возвращает полный платёжный код для указанной суммы.
// Структура полей фиксирована стандартом: любой переставленный или
// изменённый байт ломает контрольную сумму и совместимость со сканерами.
func (e *Encoder) Payload(amount float64) string {
	merchantAccount := field("00", "br.gov.bcb.pix") + field("01", e.key)

	var b strings.Builder
	b.WriteString(field("00", "01"))                     // Payload Format Indicator
	b.WriteString(field("26", merchantAccount))          // Merchant Account Information
	b.WriteString(field("52", "0000"))                   // Merchant Category Code
	b.WriteString(field("53", "986"))                    // валюта BRL
	b.WriteString(field("54", money.FormatAmount(amount)))
	b.WriteString(field("58", "BR"))
	b.WriteString(field("59", e.merchant))
	b.WriteString(field("60", e.city))
	b.WriteString(field("62", field("05", e.txid)))      // Additional Data: TXID
	b.WriteString("6304")                                // тег CRC, значение добавляется ниже

	payload := b.String()
	return payload + checksum(payload)
}

// QRCodeURL возвращает ссылку на внешний рендер QR-кода для готового кода.
// Это презентационная деталь: сам код самодостаточен, рендер можно заменить
// любым другим без изменения полезной нагрузки.
func (e *Encoder) QRCodeURL(payload string) string {
	return "https://api.qrserver.com/v1/create-qr-code/?size=400x400&margin=12&data=" + url.QueryEscape(payload)
}

// field кодирует одно поле TLV: двухсимвольный тег, длина значения двумя
// десятичными цифрами, само значение. Значения длиннее 99 символов в прямом
// поле недопустимы.
func field(tag, value string) string {
	if len(value) > 99 {
		value = value[:99]
	}
	return fmt.Sprintf("%s%02d%s", tag, len(value), value)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

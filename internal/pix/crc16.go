package pix

import "fmt"

const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// checksum вычисляет CRC16/CCITT-FALSE и возвращает его в виде четырёх
// шестнадцатеричных цифр в верхнем регистре. Именно этот вариант контрольной
// суммы требует Банк Центральный Бразилии для кодов PIX: расхождение хотя бы
// в одном бите делает код нечитаемым для платёжных приложений.
func checksum(data string) string {
	crc := uint16(crcInitial)
	for i := 0; i < len(data); i++ {
		crc ^= uint16(data[i]) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc)
}

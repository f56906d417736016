package pix

import (
	"math"
	"strings"
	"testing"
)

func TestChecksumKnownVector(t *testing.T) {
	// Эталонное значение CRC16/CCITT-FALSE для строки "123456789".
	if got := checksum("123456789"); got != "29B1" {
		t.Fatalf("checksum(123456789) = %s, want 29B1", got)
	}
}

func TestPayloadReferenceVector(t *testing.T) {
	enc := NewEncoder("+5511991818307", "DROGA VEGA", "SAO PAULO", "DROGAVEGA01")

	want := "00020126360014br.gov.bcb.pix0114+5511991818307520400005303986540510.005802BR5910DROGA VEGA6009SAO PAULO62150511DROGAVEGA0163045CF2"

	got := enc.Payload(10.00)
	if got != want {
		t.Fatalf("Payload(10.00) =\n%s\nwant\n%s", got, want)
	}

	// Код детерминирован: повторный вызов обязан дать байт-в-байт тот же результат.
	if again := enc.Payload(10.00); again != got {
		t.Fatalf("Payload is not deterministic: %s vs %s", got, again)
	}
}

func TestPayloadChecksumFormat(t *testing.T) {
	enc := NewEncoder("chave@exemplo.com", "LOJA EXEMPLO", "RIO DE JANEIRO", "TX01")

	for _, amount := range []float64{0, 0.01, 19.9, 1234.56} {
		p := enc.Payload(amount)

		idx := strings.LastIndex(p, "6304")
		if idx != len(p)-8 {
			t.Fatalf("payload must end with 6304 + 4 checksum chars: %s", p)
		}

		crc := p[len(p)-4:]
		for _, ch := range crc {
			if !strings.ContainsRune("0123456789ABCDEF", ch) {
				t.Fatalf("checksum %q is not uppercase hex in %s", crc, p)
			}
		}
	}
}

func TestPayloadClampsInvalidAmount(t *testing.T) {
	enc := NewEncoder("+5511991818307", "DROGA VEGA", "SAO PAULO", "DROGAVEGA01")

	if got, want := enc.Payload(math.NaN()), enc.Payload(0); got != want {
		t.Fatalf("NaN amount must encode as zero: %s vs %s", got, want)
	}
	if !strings.Contains(enc.Payload(math.NaN()), "54040.00") {
		t.Fatalf("zero amount field missing: %s", enc.Payload(math.NaN()))
	}
}

func TestPayloadTruncatesMerchantFields(t *testing.T) {
	enc := NewEncoder("k", strings.Repeat("N", 40), strings.Repeat("C", 30), "TX01")

	p := enc.Payload(1)
	if !strings.Contains(p, "5925"+strings.Repeat("N", 25)) {
		t.Fatalf("merchant name not truncated to 25: %s", p)
	}
	if !strings.Contains(p, "6015"+strings.Repeat("C", 15)) {
		t.Fatalf("merchant city not truncated to 15: %s", p)
	}
}

func TestQRCodeURLEncodesPayload(t *testing.T) {
	enc := NewEncoder("+5511991818307", "DROGA VEGA", "SAO PAULO", "DROGAVEGA01")

	p := enc.Payload(10)
	u := enc.QRCodeURL(p)

	if !strings.Contains(u, "%2B5511991818307") {
		t.Fatalf("payload must be URL-encoded in %s", u)
	}
	if !strings.HasPrefix(u, "https://api.qrserver.com/") {
		t.Fatalf("unexpected QR renderer URL: %s", u)
	}
}

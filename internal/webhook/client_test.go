package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAddOrdersPayload(t *testing.T) {
	var got map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "text/plain" {
			t.Fatalf("content type = %s, want text/plain", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("body is not JSON: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	rows := []OrderRow{{
		Date:        "12/01/2025, 10:30:00",
		Consultant:  "Ana Souza",
		Product:     "Dipirona 500mg",
		Quantity:    2,
		UnitValue:   12.5,
		TotalValue:  25,
		UnitCost:    6.25,
		Code:        "10234",
		TotalCost:   12.5,
		CustomerTel: "5511900001111",
	}}

	if err := client.AddOrders(context.Background(), rows); err != nil {
		t.Fatalf("AddOrders error: %v", err)
	}

	if got["_action"] != ActionAddOrders || got["sheetName"] != "pedidos" {
		t.Fatalf("unexpected envelope: %v", got)
	}

	rawRows, ok := got["rows"].([]any)
	if !ok || len(rawRows) != 1 {
		t.Fatalf("rows missing: %v", got["rows"])
	}
	row := rawRows[0].(map[string]any)
	for _, key := range []string{
		"data", "consultor", "produto", "quantity", "valorUnitario",
		"valorTotalManual", "valorPMC", "custoUnitario", "codigo",
		"clienteInfo", "valorCustoTotal", "clienteWhatsapp",
	} {
		if _, present := row[key]; !present {
			t.Fatalf("wire key %q missing in row: %v", key, row)
		}
	}
	if row["consultor"] != "Ana Souza" || row["valorPMC"] != 25.0 {
		t.Fatalf("unexpected row values: %v", row)
	}
}

func TestDeleteOrdersRedundantFields(t *testing.T) {
	var got map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	client.now = func() time.Time { return time.Date(2025, 1, 12, 10, 0, 0, 0, time.UTC) }

	if err := client.DeleteOrders(context.Background(), "7", "Ana Souza"); err != nil {
		t.Fatalf("DeleteOrders error: %v", err)
	}

	if got["_action"] != ActionDeleteOrders {
		t.Fatalf("action = %v", got["_action"])
	}
	if got["consultantName"] != "Ana Souza" || got["consultor"] != "Ana Souza" {
		t.Fatalf("consultant fields must be redundant: %v", got)
	}
	if got["staffId"] != "7" {
		t.Fatalf("staffId = %v", got["staffId"])
	}
	if got["timestamp"] != "2025-01-12T10:00:00Z" {
		t.Fatalf("timestamp = %v", got["timestamp"])
	}
}

// Статус ответа не интерпретируется: доставленный запрос — это успех,
// даже если бэкенд ответил ошибкой, которую невозможно прочитать.
func TestPostIgnoresResponseStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	if err := client.UpdateStatus(context.Background(), "7", "ATIVO"); err != nil {
		t.Fatalf("dispatched request must count as success, got %v", err)
	}
}

func TestPostTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // закрытый сервер гарантирует транспортную ошибку

	client := NewClient(ts.URL)
	if err := client.AddStaff(context.Background(), StaffRow{ID: "1"}); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestClientNotConfigured(t *testing.T) {
	client := NewClient("")
	if err := client.UpdateStatus(context.Background(), "1", "ATIVO"); err == nil {
		t.Fatalf("expected error for empty webhook URL")
	}
}

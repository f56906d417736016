// Package webhook отправляет команды записи бэкенду таблицы.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Имена действий, которые понимает скрипт на стороне таблицы.
const (
	ActionAddOrders    = "ADD_ORDERS"
	ActionDeleteOrders = "DELETE_ORDERS"
	ActionAddStaff     = "ADD_STAFF"
	ActionUpdateStatus = "UPDATE_STATUS"
)

const ordersSheet = "pedidos"
const staffSheet = "Equipe"

// OrderRow — строка заказа в формате, который ожидает скрипт таблицы.
// Имена полей совпадают с колонками листа и менять их нельзя.
type OrderRow struct {
	Date         string  `json:"data"`
	Consultant   string  `json:"consultor"`
	Product      string  `json:"produto"`
	Quantity     int     `json:"quantity"`
	UnitValue    float64 `json:"valorUnitario"`
	ManualTotal  string  `json:"valorTotalManual"`
	TotalValue   float64 `json:"valorPMC"`
	UnitCost     float64 `json:"custoUnitario"`
	Code         string  `json:"codigo"`
	CustomerName string  `json:"clienteInfo"`
	TotalCost    float64 `json:"valorCustoTotal"`
	CustomerTel  string  `json:"clienteWhatsapp"`
}

// StaffRow — строка заявки на вступление в команду.
type StaffRow struct {
	ID         string `json:"id"`
	Name       string `json:"nome"`
	PixKey     string `json:"chavePix"`
	Password   string `json:"senha"`
	AccessCode string `json:"acesso"`
	Status     string `json:"status"`
}

// Client отправляет команды записи на веб-хук таблицы.
//
// Бэкенд таблицы не отдаёт читаемый ответ на прямые запросы, поэтому клиент
// работает в режиме «отправил и забыл»: тело и статус ответа игнорируются,
// успехом считается сам факт доставки без транспортной ошибки. Это осознанное
// ограничение источника, а не упрощение; подтверждение записи возможно только
// повторным чтением листа.
type Client struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient создаёт клиент записи для указанного адреса веб-хука.
func NewClient(url string) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		now: time.Now,
	}
}

// AddOrders добавляет строки заказов в лист «pedidos».
func (c *Client) AddOrders(ctx context.Context, rows []OrderRow) error {
	return c.post(ctx, map[string]any{
		"_action":   ActionAddOrders,
		"sheetName": ordersSheet,
		"rows":      rows,
	})
}

// DeleteOrders приказывает бэкенду физически удалить все строки консультанта.
// Имя передаётся в двух полях: разные версии скрипта ищут его под разными
// ключами.
func (c *Client) DeleteOrders(ctx context.Context, staffID, consultant string) error {
	return c.post(ctx, map[string]any{
		"_action":        ActionDeleteOrders,
		"sheetName":      ordersSheet,
		"staffId":        staffID,
		"consultantName": consultant,
		"consultor":      consultant,
		"timestamp":      c.now().UTC().Format(time.RFC3339),
	})
}

// AddStaff добавляет заявку сотрудника в лист «Equipe».
func (c *Client) AddStaff(ctx context.Context, row StaffRow) error {
	return c.post(ctx, map[string]any{
		"_action":   ActionAddStaff,
		"sheetName": staffSheet,
		"rows":      []StaffRow{row},
	})
}

// UpdateStatus меняет статус сотрудника в листе «Equipe».
func (c *Client) UpdateStatus(ctx context.Context, staffID, status string) error {
	return c.post(ctx, map[string]any{
		"sheetName": staffSheet,
		"rows": []map[string]string{{
			"id":      staffID,
			"status":  status,
			"_action": ActionUpdateStatus,
		}},
	})
}

func (c *Client) post(ctx context.Context, payload map[string]any) error {
	if c == nil || c.url == "" {
		return fmt.Errorf("webhook client not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	// Ответ намеренно не читается, см. комментарий к Client.
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return nil
}

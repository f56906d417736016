// Package sheets предоставляет чтение и разбор табличного источника данных магазина.
package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Client инкапсулирует HTTP-чтение CSV-выгрузок листов таблицы.
type Client struct {
	baseURL    string
	sheetID    string
	httpClient *retryablehttp.Client
	now        func() time.Time
}

// NewClient создаёт клиент чтения таблицы с указанным идентификатором.
func NewClient(baseURL, sheetID string) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 2
	httpClient.RetryWaitMin = 500 * time.Millisecond
	httpClient.RetryWaitMax = 2 * time.Second
	httpClient.HTTPClient.Timeout = 10 * time.Second
	httpClient.Logger = nil

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		sheetID:    sheetID,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// FetchSheet загружает CSV-содержимое одного листа.
// К каждому запросу добавляется параметр с текущим временем: выгрузка
// агрессивно кэшируется на стороне источника, и без него повторное чтение
// после записи возвращает устаревшие данные.
func (c *Client) FetchSheet(ctx context.Context, tab string) (string, error) {
	if c == nil || c.sheetID == "" {
		return "", fmt.Errorf("sheets client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	reqURL := fmt.Sprintf("%s/%s/gviz/tq?tqx=out:csv&sheet=%s&cb=%d",
		base, c.sheetID, url.QueryEscape(tab), c.now().UnixMilli())

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return string(body), nil
}

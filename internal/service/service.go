// Package service реализует бизнес-логику шлюза данных магазина.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/vega-gateway/internal/model"
	"github.com/mmeshcher/vega-gateway/internal/pix"
	"github.com/mmeshcher/vega-gateway/internal/sheets"
	"github.com/mmeshcher/vega-gateway/internal/webhook"
)

// Ошибки, по которым ветвятся вызывающие.
var (
	// ErrStaffNotFound возвращается, если сотрудник с указанным идентификатором неизвестен.
	ErrStaffNotFound = errors.New("staff member not found")
	// ErrNothingToSettle возвращается при попытке ликвидации без незакрытых заказов.
	ErrNothingToSettle = errors.New("nothing to settle")
	// ErrSettlementInProgress возвращается при повторной ликвидации того же консультанта.
	ErrSettlementInProgress = errors.New("settlement already in progress")
	// ErrSettlementFailed возвращается, когда удалённая запись не прошла и данные восстановлены.
	ErrSettlementFailed = errors.New("remote deletion failed, local data restored")
	// ErrInvalidAccessCode возвращается, если код доступа не совпал ни с одним активным сотрудником.
	ErrInvalidAccessCode = errors.New("invalid access code")
	// ErrInvalidCredentials возвращается при неверной паре контакт/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmptyCart возвращается при оформлении пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
)

// Листы, не являющиеся каталожными вкладками. Их нельзя читать как каталог.
var systemTabs = map[string]bool{
	"pedidos":                 true,
	"Equipe":                  true,
	"RESUMO":                  true,
	"DASHBOARD":               true,
	"historico de pagamentos": true,
}

const consultantShareRate = 0.20

// SheetSource описывает контракт чтения табличного источника.
type SheetSource interface {
	FetchSheet(ctx context.Context, tab string) (string, error)
}

// CommandSink описывает контракт отправки команд записи.
type CommandSink interface {
	AddOrders(ctx context.Context, rows []webhook.OrderRow) error
	DeleteOrders(ctx context.Context, staffID, consultant string) error
	AddStaff(ctx context.Context, row webhook.StaffRow) error
	UpdateStatus(ctx context.Context, staffID, status string) error
}

// Options задаёт параметры работы сервиса.
type Options struct {
	CatalogTabs     []string
	Admins          []string
	SettleDelay     time.Duration
	RefreshInterval time.Duration
}

// Service владеет локальными копиями коллекций магазина и координирует
// обмен с внешней таблицей. Локальные копии никогда не считаются
// авторитетными: источником истины остаётся таблица, данные перечитываются
// по требованию.
type Service struct {
	source  SheetSource
	sink    CommandSink
	encoder *pix.Encoder
	logger  *zap.Logger
	opts    Options

	mu       sync.RWMutex
	products []model.Product
	staff    []model.StaffMember
	orders   []model.Order

	settleMu sync.Mutex
	settling map[string]bool

	now func() time.Time
}

// NewService создаёт сервис шлюза с указанными клиентами источника и записи.
func NewService(source SheetSource, sink CommandSink, encoder *pix.Encoder, opts Options, logger *zap.Logger) *Service {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 7 * time.Second
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		source:   source,
		sink:     sink,
		encoder:  encoder,
		logger:   logger,
		opts:     opts,
		settling: make(map[string]bool),
		now:      time.Now,
	}
}

// RefreshCatalog перечитывает все каталожные вкладки и заменяет локальный каталог.
// Вкладки загружаются параллельно, но итог склеивается в настроенном порядке
// вкладок: от него зависит детерминизм выбора первого совпадения ниже по коду.
// Ошибка отдельной вкладки деградирует до пустого результата и пишется в лог.
func (s *Service) RefreshCatalog(ctx context.Context) {
	results := make([][]model.Product, len(s.opts.CatalogTabs))

	g, gctx := errgroup.WithContext(ctx)
	for i, tab := range s.opts.CatalogTabs {
		i, tab := i, tab
		if systemTabs[tab] {
			continue
		}
		g.Go(func() error {
			csvText, err := s.source.FetchSheet(gctx, tab)
			if err != nil {
				s.logger.Warn("catalog tab fetch failed", zap.String("tab", tab), zap.Error(err))
				return nil
			}
			products, report := sheets.MapProducts(csvText, tab)
			if report.Malformed > 0 || report.Invalid > 0 {
				s.logger.Debug("catalog rows skipped",
					zap.String("tab", tab),
					zap.Int("malformed", report.Malformed),
					zap.Int("invalid", report.Invalid))
			}
			results[i] = products
			return nil
		})
	}
	_ = g.Wait()

	var combined []model.Product
	for _, part := range results {
		combined = append(combined, part...)
	}

	s.mu.Lock()
	s.products = combined
	s.mu.Unlock()

	s.logger.Info("catalog refreshed", zap.Int("products", len(combined)))
}

// RefreshStaff перечитывает лист команды.
func (s *Service) RefreshStaff(ctx context.Context) error {
	csvText, err := s.source.FetchSheet(ctx, "Equipe")
	if err != nil {
		return fmt.Errorf("fetch staff sheet: %w", err)
	}

	staff, report := sheets.MapStaff(csvText, s.opts.Admins)
	if report.Malformed > 0 {
		s.logger.Debug("staff rows skipped", zap.Int("malformed", report.Malformed))
	}

	s.mu.Lock()
	s.staff = staff
	s.mu.Unlock()

	return nil
}

// RefreshOrders перечитывает лист заказов, целиком заменяя локальную копию.
func (s *Service) RefreshOrders(ctx context.Context) error {
	csvText, err := s.source.FetchSheet(ctx, "pedidos")
	if err != nil {
		return fmt.Errorf("fetch orders sheet: %w", err)
	}

	orders, report := sheets.MapOrders(csvText)
	if report.Malformed > 0 {
		s.logger.Debug("order rows skipped", zap.Int("malformed", report.Malformed))
	}

	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()

	return nil
}

// StartBackgroundRefresh запускает фоновое периодическое обновление всех коллекций.
func (s *Service) StartBackgroundRefresh(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.opts.RefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RefreshCatalog(ctx)
				if err := s.RefreshStaff(ctx); err != nil {
					s.logger.Warn("staff refresh failed", zap.Error(err))
				}
				if err := s.RefreshOrders(ctx); err != nil {
					s.logger.Warn("orders refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

// Catalog возвращает копию текущего каталога.
func (s *Service) Catalog() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Staff возвращает копию текущего списка сотрудников.
func (s *Service) Staff() []model.StaffMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.StaffMember, len(s.staff))
	copy(out, s.staff)
	return out
}

// Orders возвращает копию текущего списка заказов.
func (s *Service) Orders() []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// AuthenticateByAccessCode ищет активного сотрудника по коду входа в магазин.
func (s *Service) AuthenticateByAccessCode(code string) (*model.StaffMember, error) {
	cleaned := strings.ToLower(strings.TrimSpace(code))
	if cleaned == "" {
		return nil, ErrInvalidAccessCode
	}

	for _, member := range s.Staff() {
		if member.Status != model.StaffStatusActive {
			continue
		}
		if strings.ToLower(strings.TrimSpace(member.AccessCode)) == cleaned {
			m := member
			return &m, nil
		}
	}
	return nil, ErrInvalidAccessCode
}

// AuthenticateByCredentials ищет активного сотрудника по контакту и паролю.
// Контакт сравнивается по цифрам с двунаправленным вхождением: номер может
// быть записан с кодом страны или без него.
func (s *Service) AuthenticateByCredentials(contact, password string) (*model.StaffMember, error) {
	digits := stripNonDigits(contact)
	if digits == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	for _, member := range s.Staff() {
		if member.Status != model.StaffStatusActive {
			continue
		}
		memberDigits := stripNonDigits(member.Contact)
		if memberDigits == "" {
			continue
		}
		matches := strings.Contains(memberDigits, digits) || strings.Contains(digits, memberDigits)
		if matches && member.Password == password {
			m := member
			return &m, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// FindStaffByID ищет сотрудника по идентификатору.
func (s *Service) FindStaffByID(id string) (*model.StaffMember, error) {
	for _, member := range s.Staff() {
		if member.ID == id {
			m := member
			return &m, nil
		}
	}
	return nil, ErrStaffNotFound
}

// CheckoutResult — итог оформления корзины: сумма и платёжный код для неё.
type CheckoutResult struct {
	Total     float64 `json:"total"`
	Payload   string  `json:"payload"`
	QRCodeURL string  `json:"qrCodeUrl"`
}

// Checkout записывает позиции корзины в лист заказов и возвращает платёжный
// код PIX на итоговую сумму. Код пересобирается на каждое оформление из
// текущей суммы корзины и нигде не хранится.
func (s *Service) Checkout(ctx context.Context, items []model.CartItem, consultant string, customer model.CustomerInfo) (*CheckoutResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	timestamp := s.now().Format("02/01/2006, 15:04:05")

	rows := make([]webhook.OrderRow, 0, len(items))
	var total float64
	for _, item := range items {
		lineTotal := round2(item.Price * float64(item.Quantity))
		total += lineTotal

		rows = append(rows, webhook.OrderRow{
			Date:         timestamp,
			Consultant:   strings.TrimSpace(consultant),
			Product:      item.Description,
			Quantity:     item.Quantity,
			UnitValue:    item.Price,
			TotalValue:   lineTotal,
			UnitCost:     item.CostPrice,
			Code:         item.Code,
			CustomerName: customer.Name,
			TotalCost:    round2(item.CostPrice * float64(item.Quantity)),
			CustomerTel:  customer.WhatsApp,
		})
	}

	if err := s.sink.AddOrders(ctx, rows); err != nil {
		return nil, fmt.Errorf("record orders: %w", err)
	}

	payload := s.encoder.Payload(total)
	return &CheckoutResult{
		Total:     round2(total),
		Payload:   payload,
		QRCodeURL: s.encoder.QRCodeURL(payload),
	}, nil
}

// ConsultantStats считает сводку незакрытых продаж консультанта по
// нормализованному совпадению имени.
func (s *Service) ConsultantStats(name string) model.ConsultantStats {
	target := NormalizeName(name)

	stats := model.ConsultantStats{Orders: []model.Order{}}
	if target == "" {
		return stats
	}

	for _, order := range s.Orders() {
		if NormalizeName(order.Consultant) != target {
			continue
		}
		stats.Orders = append(stats.Orders, order)
		stats.Sales += order.TotalValue
		stats.Costs += order.TotalCost
	}

	stats.Profit = math.Max(0, stats.Sales-stats.Costs)
	stats.ConsultantShare = stats.Profit * consultantShareRate
	return stats
}

// RequestAffiliate отправляет заявку на вступление в команду со статусом PENDENTE.
func (s *Service) RequestAffiliate(ctx context.Context, name, pixKey, password, accessCode string) (string, error) {
	id := uuid.NewString()

	err := s.sink.AddStaff(ctx, webhook.StaffRow{
		ID:         id,
		Name:       strings.TrimSpace(name),
		PixKey:     pixKey,
		Password:   password,
		AccessCode: accessCode,
		Status:     string(model.StaffStatusPending),
	})
	if err != nil {
		return "", fmt.Errorf("add staff: %w", err)
	}
	return id, nil
}

// SetStaffStatus одобряет или отклоняет заявку сотрудника.
func (s *Service) SetStaffStatus(ctx context.Context, staffID string, status model.StaffStatus) error {
	if status != model.StaffStatusActive && status != model.StaffStatusRejected {
		return fmt.Errorf("status %q is not allowed", status)
	}
	if err := s.sink.UpdateStatus(ctx, staffID, string(status)); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

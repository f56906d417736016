package sheets

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/mmeshcher/vega-gateway/internal/model"
	"github.com/mmeshcher/vega-gateway/internal/money"
	"github.com/mmeshcher/vega-gateway/internal/tabular"
)

// DefaultManufacturer подставляется, когда в строке товара не указан производитель.
const DefaultManufacturer = "DROGA VEGA"

// prescriptionCategories — категории, товары которых отпускаются по рецепту.
var prescriptionCategories = map[string]bool{
	"ÉTICOS":      true,
	"GENERICO":    true,
	"TERMOLABEIS": true,
}

// Фиксированные позиции колонок в листах источника.
const (
	productColCode         = 0
	productColManufacturer = 1
	productColDescription  = 2
	productColPrice        = 6
	productColCost         = 10
	productMinColumns      = 11

	staffColID         = 0
	staffColName       = 1
	staffColContact    = 2
	staffColPassword   = 3
	staffColAccessCode = 4
	staffColStatus     = 5
	staffColPayment    = 6
	staffMinColumns    = 5

	orderColDate       = 0
	orderColConsultant = 1
	orderColProduct    = 2
	orderColQuantity   = 3
	orderColUnitValue  = 4
	orderColTotalValue = 6
	orderColUnitCost   = 7
	orderColCode       = 8
	orderColTotalCost  = 10
	orderMinColumns    = 3
)

// Report подсчитывает судьбу строк при отображении листа в записи.
// Malformed — строки, не прошедшие проверку минимальной формы;
// Invalid — строки правильной формы, не прошедшие проверку обязательных полей.
// Политика у обеих категорий одна (молчаливый пропуск), но причины различаются
// и логируются отдельно.
type Report struct {
	Mapped    int
	Malformed int
	Invalid   int
}

// MapProducts отображает CSV-содержимое каталожной вкладки в список товаров.
// Первая строка — заголовок, отбрасывается. Строка без описания или с нулевой
// ценой продажи не попадает в каталог.
func MapProducts(csvText, category string) ([]model.Product, Report) {
	var report Report
	lines := tabular.SplitLines(csvText)
	if len(lines) < 2 {
		return nil, report
	}

	products := make([]model.Product, 0, len(lines)-1)
	for i, line := range lines[1:] {
		col := tabular.ParseLine(line)
		if len(col) < productMinColumns {
			report.Malformed++
			continue
		}

		description := col[productColDescription]
		price := money.ParsePrice(col[productColPrice])
		if description == "" || price <= 0 {
			report.Invalid++
			continue
		}

		code := col[productColCode]
		if code == "" {
			code = "S/C"
		}
		manufacturer := col[productColManufacturer]
		if manufacturer == "" {
			manufacturer = DefaultManufacturer
		}

		products = append(products, model.Product{
			ID:                   fmt.Sprintf("%s-%s-%d", category, col[productColCode], i+1),
			Code:                 code,
			Name:                 firstWord(description),
			Description:          description,
			Price:                price,
			CostPrice:            money.ParsePrice(col[productColCost]),
			Category:             category,
			Manufacturer:         manufacturer,
			RequiresPrescription: prescriptionCategories[strings.ToUpper(category)],
		})
		report.Mapped++
	}

	return products, report
}

// MapStaff отображает CSV-содержимое листа «Equipe» в список сотрудников.
// Роль вычисляется по списку неизменяемых администраторов, а не читается из
// таблицы. Пустой статус означает ATIVO, пустой статус выплаты — PENDENTE.
func MapStaff(csvText string, admins []string) ([]model.StaffMember, Report) {
	var report Report
	lines := tabular.SplitLines(csvText)
	if len(lines) < 2 {
		return nil, report
	}

	staff := make([]model.StaffMember, 0, len(lines)-1)
	for _, line := range lines[1:] {
		col := tabular.ParseLine(line)
		if len(col) < staffMinColumns {
			report.Malformed++
			continue
		}

		status := model.StaffStatusActive
		if v := cell(col, staffColStatus); v != "" {
			status = model.StaffStatus(strings.ToUpper(v))
		}
		payment := model.PaymentStatusPending
		if v := cell(col, staffColPayment); v != "" {
			payment = model.PaymentStatus(strings.ToUpper(v))
		}

		contact := col[staffColContact]

		staff = append(staff, model.StaffMember{
			ID:            col[staffColID],
			Name:          col[staffColName],
			Contact:       contact,
			Password:      col[staffColPassword],
			AccessCode:    col[staffColAccessCode],
			Role:          DeriveRole(contact, admins),
			Status:        status,
			PaymentStatus: payment,
		})
		report.Mapped++
	}

	return staff, report
}

// MapOrders отображает CSV-содержимое листа «pedidos» в список заказов.
// Строки с неполным хвостом допустимы: отсутствующие денежные колонки дают
// ноль, некорректное количество — ноль.
func MapOrders(csvText string) ([]model.Order, Report) {
	var report Report
	lines := tabular.SplitLines(csvText)
	if len(lines) < 2 {
		return nil, report
	}

	orders := make([]model.Order, 0, len(lines)-1)
	for _, line := range lines[1:] {
		col := tabular.ParseLine(line)
		if len(col) < orderMinColumns {
			report.Malformed++
			continue
		}

		orders = append(orders, model.Order{
			Date:       cell(col, orderColDate),
			Consultant: cell(col, orderColConsultant),
			Product:    cell(col, orderColProduct),
			Quantity:   cast.ToInt(cell(col, orderColQuantity)),
			UnitValue:  money.ParsePrice(cell(col, orderColUnitValue)),
			TotalValue: money.ParsePrice(cell(col, orderColTotalValue)),
			UnitCost:   money.ParsePrice(cell(col, orderColUnitCost)),
			Code:       cell(col, orderColCode),
			TotalCost:  money.ParsePrice(cell(col, orderColTotalCost)),
		})
		report.Mapped++
	}

	return orders, report
}

// DeriveRole определяет роль сотрудника по контактному идентификатору.
// Сравнение двунаправленное по вхождению цифровых подстрок: номера в списке
// администраторов и в таблице могут различаться кодом страны или региона.
func DeriveRole(contact string, admins []string) model.StaffRole {
	digits := stripNonDigits(contact)
	if digits == "" {
		return model.RoleConsultant
	}

	for _, admin := range admins {
		adminDigits := stripNonDigits(admin)
		if adminDigits == "" {
			continue
		}
		if strings.Contains(digits, adminDigits) || strings.Contains(adminDigits, digits) {
			return model.RoleAdmin
		}
	}
	return model.RoleConsultant
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

// cell возвращает значение колонки или пустую строку, если строка короче.
func cell(col []string, idx int) string {
	if idx >= len(col) {
		return ""
	}
	return col[idx]
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}

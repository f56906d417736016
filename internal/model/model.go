// Package model содержит доменные сущности шлюза данных магазина.
package model

// StaffRole описывает роль сотрудника в магазине.
type StaffRole string

const (
	// RoleAdmin — администратор с доступом к управлению командой и ликвидации.
	RoleAdmin StaffRole = "ADM"
	// RoleConsultant — консультант, оформляющий продажи.
	RoleConsultant StaffRole = "CONSULTOR"
)

// StaffStatus описывает статус жизненного цикла сотрудника.
// Значения совпадают с ячейками листа, поэтому хранятся как есть.
type StaffStatus string

const (
	StaffStatusPending  StaffStatus = "PENDENTE"
	StaffStatusActive   StaffStatus = "ATIVO"
	StaffStatusRejected StaffStatus = "RECUSADO"
)

// PaymentStatus описывает статус выплаты сотруднику.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "PAGO"
	PaymentStatusPending PaymentStatus = "PENDENTE"
)

// Product представляет товар из каталожной вкладки таблицы.
type Product struct {
	ID                   string  `json:"id"`
	Code                 string  `json:"code"`
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	Price                float64 `json:"price"`
	CostPrice            float64 `json:"costPrice"`
	Category             string  `json:"category"`
	Manufacturer         string  `json:"manufacturer"`
	RequiresPrescription bool    `json:"requiresPrescription"`
}

// StaffMember представляет сотрудника из листа «Equipe».
// Role не хранится в таблице, а вычисляется по списку неизменяемых администраторов.
type StaffMember struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Contact       string        `json:"user"`
	Password      string        `json:"-"`
	AccessCode    string        `json:"-"`
	Role          StaffRole     `json:"role"`
	Status        StaffStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

// Order представляет строку листа «pedidos». Заказы неизменяемы после загрузки:
// их удаляет только процесс ликвидации, и только пакетно.
type Order struct {
	Date       string  `json:"date"`
	Consultant string  `json:"consultant"`
	Product    string  `json:"product"`
	Quantity   int     `json:"quantity"`
	UnitValue  float64 `json:"unitValue"`
	TotalValue float64 `json:"totalValue"`
	UnitCost   float64 `json:"unitCost"`
	TotalCost  float64 `json:"totalCost"`
	Code       string  `json:"code"`
}

// CartItem описывает позицию корзины при оформлении заказа.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// CustomerInfo содержит данные покупателя, передаваемые вместе с заказом.
type CustomerInfo struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	WhatsApp string `json:"whatsapp"`
}

// ConsultantStats содержит сводку незакрытых продаж консультанта.
type ConsultantStats struct {
	Sales           float64 `json:"sales"`
	Costs           float64 `json:"costs"`
	Profit          float64 `json:"profit"`
	ConsultantShare float64 `json:"consultantShare"`
	Orders          []Order `json:"orders"`
}

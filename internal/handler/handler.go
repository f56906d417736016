// Package handler содержит HTTP-обработчики API шлюза данных магазина.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/vega-gateway/internal/middleware"
	"github.com/mmeshcher/vega-gateway/internal/model"
	"github.com/mmeshcher/vega-gateway/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Catalog() []model.Product
	Staff() []model.StaffMember
	Orders() []model.Order
	AuthenticateByAccessCode(code string) (*model.StaffMember, error)
	AuthenticateByCredentials(contact, password string) (*model.StaffMember, error)
	FindStaffByID(id string) (*model.StaffMember, error)
	Checkout(ctx context.Context, items []model.CartItem, consultant string, customer model.CustomerInfo) (*service.CheckoutResult, error)
	ConsultantStats(name string) model.ConsultantStats
	RequestAffiliate(ctx context.Context, name, pixKey, password, accessCode string) (string, error)
	SetStaffStatus(ctx context.Context, staffID string, status model.StaffStatus) error
	SettleConsultant(ctx context.Context, staffID string) error
}

// Handler реализует HTTP-обработчики API шлюза.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type accessRequest struct {
	Code string `json:"code"`
}

type loginRequest struct {
	Contact  string `json:"user"`
	Password string `json:"password"`
}

// EnterByAccessCode открывает сессию по коду входа в магазин.
func (h *Handler) EnterByAccessCode(w http.ResponseWriter, r *http.Request) {
	var req accessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	member, err := h.service.AuthenticateByAccessCode(req.Code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAccessCode) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("access code auth error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, member.ID)
	writeJSON(w, member)
}

// Login открывает сессию по контакту и паролю сотрудника.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Contact == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	member, err := h.service.AuthenticateByCredentials(req.Contact, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, member.ID)
	writeJSON(w, member)
}

// GetCatalog возвращает текущий каталог товаров.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.service.Catalog())
}

type checkoutRequest struct {
	Items      []model.CartItem   `json:"items"`
	Consultant string             `json:"consultant"`
	Customer   model.CustomerInfo `json:"customer"`
}

// Checkout записывает заказ и возвращает платёжный код PIX на сумму корзины.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	res, err := h.service.Checkout(r.Context(), req.Items, req.Consultant, req.Customer)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			http.Error(w, "cart is empty", http.StatusBadRequest)
			return
		}
		h.logger.Error("checkout error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	writeJSON(w, res)
}

type affiliateRequest struct {
	Name       string `json:"name"`
	PixKey     string `json:"pixKey"`
	Password   string `json:"password"`
	AccessCode string `json:"accessCode"`
}

// RequestAffiliate принимает заявку на вступление в команду.
func (h *Handler) RequestAffiliate(w http.ResponseWriter, r *http.Request) {
	var req affiliateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.PixKey == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.RequestAffiliate(r.Context(), req.Name, req.PixKey, req.Password, req.AccessCode)
	if err != nil {
		h.logger.Error("affiliate request error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
}

// GetOrders возвращает текущий список заказов.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.service.Orders()
	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, orders)
}

// GetStaff возвращает список сотрудников. Доступно только администратору.
func (h *Handler) GetStaff(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	writeJSON(w, h.service.Staff())
}

// GetStats возвращает сводку незакрытых продаж текущего сотрудника.
// Администратор может запросить сводку любого консультанта параметром name.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	member, ok := h.currentMember(w, r)
	if !ok {
		return
	}

	name := member.Name
	if requested := r.URL.Query().Get("name"); requested != "" {
		if member.Role != model.RoleAdmin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		name = requested
	}

	writeJSON(w, h.service.ConsultantStats(name))
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStaffStatus одобряет или отклоняет заявку сотрудника. Только для администратора.
func (h *Handler) SetStaffStatus(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	staffID := chi.URLParam(r, "id")
	if err := h.service.SetStaffStatus(r.Context(), staffID, model.StaffStatus(req.Status)); err != nil {
		h.logger.Error("set staff status error", zap.Error(err), zap.String("staffID", staffID))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Settle запускает ликвидацию незакрытых заказов консультанта. Только для администратора.
//
// Ответы различают «нечего ликвидировать», «ликвидация уже идёт» и «удалённая
// запись отклонена, данные восстановлены»: для финансовой операции причина
// отказа видима пользователю, в отличие от молчаливой деградации при чтении.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	staffID := chi.URLParam(r, "id")
	err := h.service.SettleConsultant(r.Context(), staffID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, service.ErrStaffNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, service.ErrNothingToSettle):
		http.Error(w, "nothing to settle", http.StatusUnprocessableEntity)
	case errors.Is(err, service.ErrSettlementInProgress):
		http.Error(w, "settlement already in progress", http.StatusConflict)
	case errors.Is(err, service.ErrSettlementFailed):
		http.Error(w, "remote rejected, local data restored", http.StatusBadGateway)
	default:
		h.logger.Error("settlement error", zap.Error(err), zap.String("staffID", staffID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) currentMember(w http.ResponseWriter, r *http.Request) (*model.StaffMember, bool) {
	staffID, ok := middleware.GetStaffIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil, false
	}

	member, err := h.service.FindStaffByID(staffID)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil, false
	}
	return member, true
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	member, ok := h.currentMember(w, r)
	if !ok {
		return false
	}
	if member.Role != model.RoleAdmin {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

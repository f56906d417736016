package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/mmeshcher/vega-gateway/internal/model"
)

// SettleConsultant ликвидирует незакрытые заказы консультанта: оптимистично
// убирает их из локальной копии, отправляет команду удаления бэкенду таблицы
// и затем сверяется с авторитетным состоянием.
//
// Запись в таблицу асинхронна на стороне источника, поэтому после успешной
// отправки выдерживается пауза и лист перечитывается целиком — немедленное
// чтение после записи может вернуть ещё не удалённые строки. При транспортной
// ошибке локальное состояние восстанавливается из снимка в точности, и только
// затем отдельно делается попытка пересинхронизации; откат от неё не зависит.
//
// Для одного консультанта одновременно может идти только одна ликвидация:
// два конкурентных оптимистичных удаления испортили бы снимок для отката.
func (s *Service) SettleConsultant(ctx context.Context, staffID string) error {
	member, err := s.FindStaffByID(staffID)
	if err != nil {
		return err
	}

	target := NormalizeName(member.Name)
	if target == "" {
		return ErrStaffNotFound
	}

	s.settleMu.Lock()
	if s.settling[target] {
		s.settleMu.Unlock()
		return ErrSettlementInProgress
	}
	s.settling[target] = true
	s.settleMu.Unlock()

	defer func() {
		s.settleMu.Lock()
		delete(s.settling, target)
		s.settleMu.Unlock()
	}()

	// Снимок и оптимистичное удаление под одной блокировкой: между ними не
	// должно вклиниться ни одно другое изменение коллекции.
	s.mu.Lock()
	snapshot := make([]model.Order, len(s.orders))
	copy(snapshot, s.orders)

	remaining := make([]model.Order, 0, len(s.orders))
	removed := 0
	for _, order := range s.orders {
		if NormalizeName(order.Consultant) == target {
			removed++
			continue
		}
		remaining = append(remaining, order)
	}

	if removed == 0 {
		s.mu.Unlock()
		return ErrNothingToSettle
	}
	s.orders = remaining
	s.mu.Unlock()

	s.logger.Info("settlement started",
		zap.String("staffID", staffID),
		zap.String("consultant", member.Name),
		zap.Int("orders", removed))

	if err := s.sink.DeleteOrders(ctx, member.ID, member.Name); err != nil {
		s.rollbackOrders(snapshot)
		s.logger.Error("settlement rolled back", zap.String("staffID", staffID), zap.Error(err))

		// Пересинхронизация — отдельная услуга вежливости: откат уже состоялся.
		if refreshErr := s.RefreshOrders(ctx); refreshErr != nil {
			s.logger.Warn("post-rollback resync failed", zap.Error(refreshErr))
		}
		return fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}

	if err := s.waitSettleDelay(ctx); err != nil {
		return err
	}

	if err := s.refetchOrdersWithRetry(ctx); err != nil {
		// Оптимистичное состояние остаётся рабочим приближением до следующего
		// фонового обновления.
		s.logger.Warn("post-settlement refetch failed", zap.Error(err))
		return nil
	}

	s.logger.Info("settlement reconciled", zap.String("staffID", staffID))
	return nil
}

func (s *Service) rollbackOrders(snapshot []model.Order) {
	s.mu.Lock()
	s.orders = snapshot
	s.mu.Unlock()
}

func (s *Service) waitSettleDelay(ctx context.Context) error {
	timer := time.NewTimer(s.opts.SettleDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) refetchOrdersWithRetry(ctx context.Context) error {
	backoff := retry.WithMaxRetries(3, retry.NewConstant(2*time.Second))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.RefreshOrders(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

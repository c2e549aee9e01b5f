package coin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sharespace/sharespace-api/internal/domain/notify"
	"github.com/sharespace/sharespace-api/internal/pkg/gateway"
)

// Channel names the path a payment confirmation arrived on
type Channel string

const (
	ChannelVerify  Channel = "verify"
	ChannelWebhook Channel = "webhook"
)

// OrderChecker queries the payment gateway
type OrderChecker interface {
	CheckOrderStatus(ctx context.Context, orderID string) (*gateway.Order, error)
}

// Notifier pushes realtime events to a user
type Notifier interface {
	Publish(ctx context.Context, userID uuid.UUID, eventType string, data any)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service handles coin pricing, settlement and wallet operations
type Service struct {
	pricing      PricingStore
	pricingAdmin PricingAdmin
	ledger       Ledger
	gateway      OrderChecker
	notifier     Notifier
}

// NewService creates coin service. notifier may be nil.
func NewService(pricing PricingStore, pricingAdmin PricingAdmin, ledger Ledger, orders OrderChecker, notifier Notifier) *Service {
	return &Service{
		pricing:      pricing,
		pricingAdmin: pricingAdmin,
		ledger:       ledger,
		gateway:      orders,
		notifier:     notifier,
	}
}

// Pricing returns the base rate and active tiers
func (s *Service) Pricing(ctx context.Context) (*BaseRate, []PricingTier, error) {
	rate, err := s.pricing.GetBaseRate(ctx)
	if err != nil {
		return nil, nil, err
	}
	tiers, err := s.pricing.GetActiveTiers(ctx)
	if err != nil {
		return nil, nil, err
	}
	return rate, tiers, nil
}

// ResolveForAmount prices amount with the current configuration. When the
// configuration cannot be loaded it falls back to 1:1 instead of failing.
func (s *Service) ResolveForAmount(ctx context.Context, amount int64) (Resolution, *BaseRate) {
	rate, tiers, err := s.Pricing(ctx)
	if err != nil {
		log.Warn().Err(err).Int64("amount", amount).Msg("Pricing unavailable, using 1:1 fallback")
		return Resolve(amount, nil, nil), nil
	}
	return Resolve(amount, tiers, rate), rate
}

// SettleTopup credits coins for reference at most once
func (s *Service) SettleTopup(ctx context.Context, userID uuid.UUID, coins int64, reference string, metadata JSONMap) (*SettlementResult, error) {
	t, err := s.ledger.CreditIfNotSettled(ctx, userID, coins, reference, metadata)
	if err == nil {
		return &SettlementResult{
			Status:       StatusSettled,
			Coins:        t.Amount,
			BalanceAfter: t.BalanceAfter,
			Reference:    reference,
		}, nil
	}
	if !errors.Is(err, ErrAlreadySettled) {
		return nil, err
	}

	log.Info().Str("reference", reference).Msg("Topup already settled")
	result := &SettlementResult{Status: StatusAlreadyProcessed, Reference: reference}
	existing, lookupErr := s.ledger.GetTopupByReference(ctx, reference)
	if lookupErr != nil {
		log.Warn().Err(lookupErr).Str("reference", reference).Msg("Failed to load settled topup")
	} else if existing != nil {
		result.Coins = existing.Amount
		result.BalanceAfter = existing.BalanceAfter
	}
	return result, nil
}

// ProcessOrder drives a gateway order through the topup state machine.
// callerID is set on user-facing paths and must own the order.
func (s *Service) ProcessOrder(ctx context.Context, orderID string, callerID *uuid.UUID, channel Channel) (*Outcome, error) {
	order, err := s.gateway.CheckOrderStatus(ctx, orderID)
	if err != nil {
		if errors.Is(err, gateway.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if callerID != nil && order.CustomerID != *callerID {
		log.Warn().
			Str("order_id", orderID).
			Str("caller_id", callerID.String()).
			Str("customer_id", order.CustomerID.String()).
			Msg("Topup verification by non-owner")
		return nil, ErrOrderOwnerMismatch
	}

	outcome := &Outcome{OrderID: order.ID, GatewayStatus: order.Status}
	if outcome.OrderID == "" {
		outcome.OrderID = orderID
	}

	if !order.IsCaptured() {
		log.Info().
			Str("order_id", orderID).
			Str("gateway_status", order.Status).
			Str("channel", string(channel)).
			Msg("Ignoring non-captured order")
		outcome.State = StateIgnored
		return outcome, nil
	}

	if order.CustomerID == uuid.Nil || order.Amount <= 0 {
		return nil, ErrInvalidOrder
	}

	resolution, rate := s.ResolveForAmount(ctx, order.Amount)
	if rate != nil && order.Amount < rate.MinTopup {
		log.Warn().
			Str("order_id", orderID).
			Int64("amount", order.Amount).
			Int64("min_topup", rate.MinTopup).
			Msg("Captured order below minimum topup, settling anyway")
	}

	metadata := resolution.Metadata()
	metadata["amount"] = order.Amount
	metadata["currency"] = order.Currency
	metadata["gateway_status"] = order.Status
	metadata["channel"] = string(channel)

	settlement, err := s.SettleTopup(ctx, order.CustomerID, resolution.Coins, outcome.OrderID, metadata)
	if err != nil {
		return nil, err
	}

	outcome.State = StateSettled
	outcome.Resolution = &resolution
	outcome.Settlement = settlement

	if settlement.Status == StatusSettled {
		log.Info().
			Str("order_id", outcome.OrderID).
			Str("user_id", order.CustomerID.String()).
			Int64("coins", settlement.Coins).
			Str("source", string(resolution.Source)).
			Str("channel", string(channel)).
			Msg("Topup settled")
		s.publish(ctx, order.CustomerID, notify.EventTopupSettled, map[string]any{
			"order_id":      outcome.OrderID,
			"coins":         settlement.Coins,
			"balance_after": settlement.BalanceAfter,
		})
		s.publish(ctx, order.CustomerID, notify.EventBalanceUpdated, map[string]any{
			"type":          string(TxTopup),
			"amount":        settlement.Coins,
			"balance_after": settlement.BalanceAfter,
		})
	}
	return outcome, nil
}

// GetBalance returns the current coin balance
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.ledger.GetBalance(ctx, userID)
}

// ListTransactions returns a page of the user's ledger
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	return s.ledger.ListTransactions(ctx, userID, limit, offset)
}

// AdminAdjust applies a signed correction by an admin
func (s *Service) AdminAdjust(ctx context.Context, userID uuid.UUID, delta int64, reason string, adminID uuid.UUID) (*Transaction, error) {
	if delta == 0 {
		return nil, ErrInvalidAmount
	}
	t, err := s.ledger.Apply(ctx, Entry{
		UserID:    userID,
		Type:      TxAdminAdjustment,
		Amount:    delta,
		Metadata:  JSONMap{"reason": reason},
		CreatedBy: &adminID,
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("user_id", userID.String()).
		Str("admin_id", adminID.String()).
		Int64("delta", delta).
		Msg("Coin balance adjusted")
	s.publishBalance(ctx, t)
	return t, nil
}

// Reward grants promotional coins
func (s *Service) Reward(ctx context.Context, userID uuid.UUID, coins int64, reason string, adminID uuid.UUID) (*Transaction, error) {
	if coins <= 0 {
		return nil, ErrInvalidAmount
	}
	t, err := s.ledger.Apply(ctx, Entry{
		UserID:    userID,
		Type:      TxReward,
		Amount:    coins,
		Metadata:  JSONMap{"reason": reason},
		CreatedBy: &adminID,
	})
	if err != nil {
		return nil, err
	}
	s.publishBalance(ctx, t)
	return t, nil
}

// ListTiers returns every configured tier
func (s *Service) ListTiers(ctx context.Context) ([]PricingTier, error) {
	return s.pricingAdmin.ListTiers(ctx)
}

// UpdateBaseRate changes the flat rate
func (s *Service) UpdateBaseRate(ctx context.Context, coinsPer1000, minTopup int64) (*BaseRate, error) {
	rate, err := s.pricingAdmin.UpdateBaseRate(ctx, coinsPer1000, minTopup)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return rate, nil
}

// CreateTier adds a pricing tier
func (s *Service) CreateTier(ctx context.Context, tier *PricingTier) error {
	if err := s.pricingAdmin.CreateTier(ctx, tier); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// UpdateTier applies changes to an existing tier
func (s *Service) UpdateTier(ctx context.Context, id uuid.UUID, apply func(*PricingTier)) (*PricingTier, error) {
	tier, err := s.pricingAdmin.GetTier(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(tier)
	tier.ID = id
	if err := s.pricingAdmin.UpdateTier(ctx, tier); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return tier, nil
}

// DeactivateTier disables a tier; ledger metadata may still reference it
func (s *Service) DeactivateTier(ctx context.Context, id uuid.UUID) error {
	if err := s.pricingAdmin.DeactivateTier(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if c, ok := s.pricing.(cacheInvalidator); ok {
		c.Invalidate(ctx)
	}
}

func (s *Service) publishBalance(ctx context.Context, t *Transaction) {
	s.publish(ctx, t.UserID, notify.EventBalanceUpdated, map[string]any{
		"type":          string(t.Type),
		"amount":        t.Amount,
		"balance_after": t.BalanceAfter,
	})
}

func (s *Service) publish(ctx context.Context, userID uuid.UUID, eventType string, data any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, userID, eventType, data)
}

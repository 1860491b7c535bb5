package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/academyhub/paycore/internal/domain/paymentmethod"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

// cleanupConcurrency bounds the users swept in parallel by CleanupExpiredAllTenants
const cleanupConcurrency = 8

// SaveMethodRequest carries tokenization output to be stored in the vault
type SaveMethodRequest struct {
	UserID         string
	Gateway        types.PaymentGatewayType
	Card           *gateway.CardDetails
	BillingAddress map[string]any
	Metadata       map[string]any
	// MakeDefault forces the method to become default, the first method always does
	MakeDefault bool
}

// PaymentMethodService is the vault of reusable payment tokens
type PaymentMethodService interface {
	SaveFromTokenization(ctx context.Context, req *SaveMethodRequest) (*paymentmethod.SavedPaymentMethod, error)
	List(ctx context.Context, filter *types.PaymentMethodFilter) ([]*paymentmethod.SavedPaymentMethod, error)
	GetDefault(ctx context.Context, userID string, gateway *types.PaymentGatewayType) (*paymentmethod.SavedPaymentMethod, error)
	// GetUsable returns the default method, else the most recently used active one, else nil
	GetUsable(ctx context.Context, userID string, gateway *types.PaymentGatewayType) (*paymentmethod.SavedPaymentMethod, error)
	MarkAsDefault(ctx context.Context, userID, methodID string) (*paymentmethod.SavedPaymentMethod, error)
	Deactivate(ctx context.Context, methodID string) error
	// Delete revokes the token remotely when possible and always tombstones it locally
	Delete(ctx context.Context, userID, methodID string) error
	TouchLastUsed(ctx context.Context, methodID string) error
	CleanupExpired(ctx context.Context, userID string) (int, error)
	CleanupExpiredAllTenants(ctx context.Context) (int, error)
	Count(ctx context.Context, userID string) (int, error)
	HasPaymentMethods(ctx context.Context, userID string) (bool, error)
}

type paymentMethodService struct {
	ServiceParams
	resolver GatewayResolver
	now      func() time.Time
}

func NewPaymentMethodService(params ServiceParams, resolver GatewayResolver) PaymentMethodService {
	return &paymentMethodService{
		ServiceParams: params,
		resolver:      resolver,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *paymentMethodService) SaveFromTokenization(ctx context.Context, req *SaveMethodRequest) (*paymentmethod.SavedPaymentMethod, error) {
	if req == nil || req.Card == nil || req.Card.Token == "" {
		return nil, ierr.NewError("card token is required").
			WithHint("Tokenization result has no token").
			Mark(ierr.ErrValidation)
	}

	var saved *paymentmethod.SavedPaymentMethod
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		now := s.now()

		existing, err := s.PaymentMethodRepo.FindByToken(ctx, req.UserID, string(req.Gateway), req.Card.Token)
		if err != nil && !ierr.IsNotFound(err) {
			return err
		}

		if existing != nil {
			applyCardDetails(existing, req.Card)
			existing.IsActive = true
			if req.BillingAddress != nil {
				existing.BillingAddress = req.BillingAddress
			}
			existing.UpdatedAt = now
			if err := s.PaymentMethodRepo.Update(ctx, existing); err != nil {
				return err
			}
			saved = existing
		} else {
			count, err := s.Count(ctx, req.UserID)
			if err != nil {
				return err
			}

			m := &paymentmethod.SavedPaymentMethod{
				ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_METHOD),
				UserID:         req.UserID,
				Gateway:        string(req.Gateway),
				Token:          req.Card.Token,
				Type:           lo.Ternary(req.Card.Type == "", types.SavedPaymentMethodTypeCard, req.Card.Type),
				IsActive:       true,
				IsDefault:      count == 0,
				BillingAddress: req.BillingAddress,
				Metadata:       req.Metadata,
				BaseModel:      types.GetDefaultBaseModel(ctx),
			}
			applyCardDetails(m, req.Card)
			if err := m.Validate(); err != nil {
				return err
			}
			if err := s.PaymentMethodRepo.Create(ctx, m); err != nil {
				return err
			}
			saved = m
		}

		if req.MakeDefault && !saved.IsDefault {
			if err := s.PaymentMethodRepo.ClearDefault(ctx, req.UserID, saved.ID); err != nil {
				return err
			}
			saved.IsDefault = true
			return s.PaymentMethodRepo.Update(ctx, saved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("saved payment method",
		"payment_method_id", saved.ID,
		"user_id", saved.UserID,
		"gateway", saved.Gateway,
		"is_default", saved.IsDefault,
	)
	return saved, nil
}

func (s *paymentMethodService) List(ctx context.Context, filter *types.PaymentMethodFilter) ([]*paymentmethod.SavedPaymentMethod, error) {
	if filter == nil || filter.UserID == "" {
		return nil, ierr.NewError("user id is required").
			WithHint("Specify the user to list payment methods for").
			Mark(ierr.ErrValidation)
	}
	return s.PaymentMethodRepo.List(ctx, filter)
}

func (s *paymentMethodService) GetDefault(ctx context.Context, userID string, gateway *types.PaymentGatewayType) (*paymentmethod.SavedPaymentMethod, error) {
	methods, err := s.PaymentMethodRepo.List(ctx, &types.PaymentMethodFilter{UserID: userID, Gateway: gateway})
	if err != nil {
		return nil, err
	}
	now := s.now()
	m, ok := lo.Find(methods, func(m *paymentmethod.SavedPaymentMethod) bool {
		return m.IsDefault && m.IsUsable(now)
	})
	if !ok {
		return nil, ierr.NewError("no default payment method").
			WithHint("No default payment method found").
			Mark(ierr.ErrNotFound)
	}
	return m, nil
}

func (s *paymentMethodService) GetUsable(ctx context.Context, userID string, gateway *types.PaymentGatewayType) (*paymentmethod.SavedPaymentMethod, error) {
	methods, err := s.PaymentMethodRepo.List(ctx, &types.PaymentMethodFilter{UserID: userID, Gateway: gateway})
	if err != nil {
		return nil, err
	}

	// the repository orders default first, then by last use
	now := s.now()
	m, ok := lo.Find(methods, func(m *paymentmethod.SavedPaymentMethod) bool {
		return m.IsUsable(now)
	})
	if !ok {
		return nil, nil
	}
	return m, nil
}

func (s *paymentMethodService) MarkAsDefault(ctx context.Context, userID, methodID string) (*paymentmethod.SavedPaymentMethod, error) {
	var m *paymentmethod.SavedPaymentMethod

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		m, err = s.ownedMethod(ctx, userID, methodID)
		if err != nil {
			return err
		}
		if !m.IsUsable(s.now()) {
			return ierr.NewError("payment method not usable").
				WithHint("Only active, unexpired payment methods can be the default").
				Mark(ierr.ErrInvalidOperation)
		}

		if err := s.PaymentMethodRepo.ClearDefault(ctx, userID, m.ID); err != nil {
			return err
		}
		m.IsDefault = true
		m.UpdatedAt = s.now()
		return s.PaymentMethodRepo.Update(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *paymentMethodService) Deactivate(ctx context.Context, methodID string) error {
	m, err := s.PaymentMethodRepo.Get(ctx, methodID)
	if err != nil {
		return err
	}
	m.IsActive = false
	m.IsDefault = false
	m.UpdatedAt = s.now()
	return s.PaymentMethodRepo.Update(ctx, m)
}

func (s *paymentMethodService) Delete(ctx context.Context, userID, methodID string) error {
	m, err := s.ownedMethod(ctx, userID, methodID)
	if err != nil {
		return err
	}

	s.revokeToken(ctx, m)

	if err := s.PaymentMethodRepo.SoftDelete(ctx, m.ID, s.now()); err != nil {
		return err
	}
	s.Logger.Infow("deleted payment method",
		"payment_method_id", m.ID,
		"user_id", userID,
	)

	if m.IsDefault {
		s.promoteNextDefault(ctx, userID)
	}
	return nil
}

func (s *paymentMethodService) TouchLastUsed(ctx context.Context, methodID string) error {
	m, err := s.PaymentMethodRepo.Get(ctx, methodID)
	if err != nil {
		return err
	}
	now := s.now()
	m.LastUsedAt = &now
	m.UpdatedAt = now
	return s.PaymentMethodRepo.Update(ctx, m)
}

func (s *paymentMethodService) CleanupExpired(ctx context.Context, userID string) (int, error) {
	methods, err := s.PaymentMethodRepo.ListExpirable(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	deactivated := 0
	for _, m := range methods {
		if !m.IsExpired(now) {
			continue
		}
		m.IsActive = false
		m.IsDefault = false
		m.UpdatedAt = now
		if err := s.PaymentMethodRepo.Update(ctx, m); err != nil {
			return deactivated, err
		}
		deactivated++
	}

	if deactivated > 0 {
		s.Logger.Infow("deactivated expired payment methods",
			"user_id", userID,
			"count", deactivated,
		)
	}
	return deactivated, nil
}

func (s *paymentMethodService) CleanupExpiredAllTenants(ctx context.Context) (int, error) {
	owners, err := s.PaymentMethodRepo.ListUsersWithActiveMethods(ctx)
	if err != nil {
		return 0, err
	}

	var total atomic.Int64
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(cleanupConcurrency)
	for _, owner := range owners {
		p.Go(func(ctx context.Context) error {
			tenantCtx := types.SetTenantID(ctx, owner.TenantID)
			n, err := s.CleanupExpired(tenantCtx, owner.UserID)
			total.Add(int64(n))
			if err != nil {
				s.Logger.Errorw("expired payment method cleanup failed",
					"tenant_id", owner.TenantID,
					"user_id", owner.UserID,
					"error", err,
				)
			}
			return err
		})
	}
	err = p.Wait()

	s.Logger.Infow("expired payment method sweep finished",
		"users", len(owners),
		"deactivated", total.Load(),
	)
	return int(total.Load()), err
}

func (s *paymentMethodService) Count(ctx context.Context, userID string) (int, error) {
	methods, err := s.PaymentMethodRepo.List(ctx, &types.PaymentMethodFilter{UserID: userID})
	if err != nil {
		return 0, err
	}
	return len(methods), nil
}

func (s *paymentMethodService) HasPaymentMethods(ctx context.Context, userID string) (bool, error) {
	n, err := s.Count(ctx, userID)
	return n > 0, err
}

func (s *paymentMethodService) ownedMethod(ctx context.Context, userID, methodID string) (*paymentmethod.SavedPaymentMethod, error) {
	m, err := s.PaymentMethodRepo.Get(ctx, methodID)
	if err != nil {
		return nil, err
	}
	if m.UserID != userID {
		// do not reveal methods of other users
		return nil, ierr.NewError("payment method not found").
			WithHint("Payment method not found").
			Mark(ierr.ErrNotFound)
	}
	return m, nil
}

// revokeToken is best effort, local deletion proceeds whatever happens here
func (s *paymentMethodService) revokeToken(ctx context.Context, m *paymentmethod.SavedPaymentMethod) {
	if s.resolver == nil {
		return
	}
	client, err := s.resolver.Resolve(ctx, types.GetTenantID(ctx), lo.ToPtr(m.Gateway))
	if err != nil {
		s.Logger.Warnw("could not resolve gateway to revoke token",
			"payment_method_id", m.ID,
			"gateway", m.Gateway,
			"error", err,
		)
		return
	}
	tokenizer, ok := client.(gateway.Tokenizer)
	if !ok {
		return
	}
	if err := tokenizer.DeleteToken(ctx, m.Token); err != nil {
		s.Logger.Warnw("remote token revocation failed",
			"payment_method_id", m.ID,
			"gateway", m.Gateway,
			"error", err,
		)
	}
}

func (s *paymentMethodService) promoteNextDefault(ctx context.Context, userID string) {
	next, err := s.GetUsable(ctx, userID, nil)
	if err != nil || next == nil {
		return
	}
	if _, err := s.MarkAsDefault(ctx, userID, next.ID); err != nil {
		s.Logger.Warnw("could not promote next default payment method",
			"user_id", userID,
			"error", err,
		)
	}
}

func applyCardDetails(m *paymentmethod.SavedPaymentMethod, card *gateway.CardDetails) {
	if card.Brand != "" {
		m.Brand = lo.ToPtr(card.Brand)
	}
	if card.LastFour != "" {
		m.LastFour = lo.ToPtr(card.LastFour)
	}
	if card.ExpiryMonth != nil {
		m.ExpiryMonth = card.ExpiryMonth
	}
	if card.ExpiryYear != nil {
		m.ExpiryYear = card.ExpiryYear
	}
	if card.HolderName != "" {
		m.HolderName = lo.ToPtr(card.HolderName)
	}
	if card.CustomerID != "" {
		m.GatewayCustomerID = lo.ToPtr(card.CustomerID)
	}
}

package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/strandhq/strand/internal/audit"
	"github.com/strandhq/strand/internal/authz"
	"github.com/strandhq/strand/internal/contexts"
	"github.com/strandhq/strand/internal/model"
	"github.com/strandhq/strand/internal/roles"
	"github.com/strandhq/strand/internal/slug"
	"github.com/strandhq/strand/internal/store"
)

// createRetries bounds the persist loop when a slug is claimed between the
// probe and the insert.
const createRetries = 3

type AccountService struct {
	*AbstractService

	allocator *slug.Allocator
}

func NewAccountService(abstract *AbstractService, tenancy TenancyConfig) *AccountService {
	return &AccountService{
		AbstractService: abstract,
		allocator:       slug.NewAllocator(tenancy.SlugMaxAttempts),
	}
}

// requireUser returns the acting user from the carrier.
func requireUser(ctx context.Context) (*model.User, error) {
	user, ok := contexts.GetUser(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no acting user", ErrNotAuthorized)
	}

	return user, nil
}

type CreateAccountInput struct {
	Name     string
	PlanTier string
}

// CreateAccount creates an account, allocates its globally unique slug and
// makes the acting user its owner with an immediately active membership.
func (s *AccountService) CreateAccount(ctx context.Context, input CreateAccountInput) (*model.Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: account name is empty", ErrValidation)
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanCreateAccount(ctx, user) {
		return nil, ErrNotAuthorized
	}

	planTier := input.PlanTier
	if planTier == "" {
		planTier = "free"
	}

	var account *model.Account

	// The probe minimizes collisions; the unique constraint decides. When a
	// concurrent create wins the same slug, re-probe and try again.
	for attempt := 0; attempt < createRetries; attempt++ {
		allocated, err := s.allocator.Allocate(ctx, name, func(ctx context.Context, candidate string) (bool, error) {
			return s.store.Accounts.SlugTaken(ctx, candidate)
		})
		if err != nil {
			return nil, err
		}

		candidate := &model.Account{Name: name, Slug: allocated, PlanTier: planTier}

		err = s.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.store.Accounts.Create(ctx, candidate); err != nil {
				return err
			}

			if user != nil {
				now := time.Now().UTC()
				membership := &model.AccountMembership{
					AccountID: candidate.ID,
					UserID:    user.ID,
					Role:      roles.AccountRoleOwner,
					Status:    roles.MembershipStatusActive,
				}
				membership.AcceptedAt = &now

				if err := s.store.AccountMemberships.Create(ctx, membership); err != nil {
					return err
				}

				candidate.OwnerID = &user.ID
				if err := s.store.Accounts.Update(ctx, candidate); err != nil {
					return err
				}
			}

			return nil
		})
		if err == nil {
			account = candidate
			break
		}

		if !store.IsUniqueViolation(err) {
			return nil, err
		}
	}

	if account == nil {
		return nil, fmt.Errorf("%w: account slug for %q", slug.ErrExhausted, name)
	}

	s.auditor.Record(ctx, "account.create", audit.AccountSubject(account.ID), map[string]string{"slug": account.Slug})

	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	account, err := s.store.Accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanViewAccount(ctx, user, account) {
		return nil, ErrNotAuthorized
	}

	return account, nil
}

// ListAccounts returns the accounts visible to the acting user.
func (s *AccountService) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanListAccounts(ctx, user) {
		return nil, ErrNotAuthorized
	}

	if user == nil {
		// System and test principals see everything.
		return s.store.Accounts.List(ctx)
	}

	return s.policies.VisibleAccounts(ctx, user)
}

type UpdateAccountInput struct {
	Name     *string
	PlanTier *string
	Settings map[string]string
	Metadata map[string]string
}

func (s *AccountService) UpdateAccount(ctx context.Context, id string, input UpdateAccountInput) (*model.Account, error) {
	account, err := s.store.Accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanUpdateAccount(ctx, user, account) {
		return nil, ErrNotAuthorized
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, fmt.Errorf("%w: account name is empty", ErrValidation)
		}

		account.Name = strings.TrimSpace(*input.Name)
	}

	if input.PlanTier != nil {
		account.PlanTier = *input.PlanTier
	}

	if input.Settings != nil {
		account.Settings = input.Settings
	}

	if input.Metadata != nil {
		account.Metadata = input.Metadata
	}

	if err := s.store.Accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "account.update", audit.AccountSubject(account.ID), nil)

	return account, nil
}

// DeleteAccount removes the account and everything under it. Owner only.
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	account, err := s.store.Accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanDeleteAccount(ctx, user, account) {
		return ErrNotAuthorized
	}

	if err := s.store.Accounts.Delete(ctx, id); err != nil {
		return err
	}

	s.auditor.Record(ctx, "account.delete", audit.AccountSubject(id), map[string]string{"slug": account.Slug})

	return nil
}

// ArchiveAccount and SuspendAccount are admin-gated status moves.
func (s *AccountService) ArchiveAccount(ctx context.Context, id string) (*model.Account, error) {
	return s.setStatus(ctx, id, model.AccountStatusArchived, "account.archive")
}

func (s *AccountService) SuspendAccount(ctx context.Context, id string) (*model.Account, error) {
	return s.setStatus(ctx, id, model.AccountStatusSuspended, "account.suspend")
}

func (s *AccountService) setStatus(ctx context.Context, id string, status model.AccountStatus, action string) (*model.Account, error) {
	account, err := s.store.Accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user, _ := contexts.GetUser(ctx)
	if !s.policies.CanUpdateAccount(ctx, user, account) {
		return nil, ErrNotAuthorized
	}

	account.Status = status
	if err := s.store.Accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, action, audit.AccountSubject(account.ID), map[string]string{"status": string(status)})

	return account, nil
}

// ResolveAccountBySlug is an unscoped lookup for boundary adapters that
// enter through a tenant URL rather than an id.
func (s *AccountService) ResolveAccountBySlug(ctx context.Context, accountSlug string) (*model.Account, error) {
	return authz.RunWithSystemUnscoped(ctx, "resolve-account-slug", func(ctx context.Context) (*model.Account, error) {
		return s.store.Accounts.GetBySlug(ctx, accountSlug)
	})
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/isp-manager/internal/cache"
	"github.com/magabrotheeeer/isp-manager/internal/models"
)

// CustomerService управляет абонентами.
type CustomerService struct {
	base
}

// NewCustomerService создает новый экземпляр CustomerService.
func NewCustomerService(d Deps) *CustomerService {
	return &CustomerService{base: newBase(d)}
}

// Create проверяет ввод и сохраняет нового абонента.
func (s *CustomerService) Create(ctx context.Context, in models.CustomerInput) (*models.Customer, error) {
	const op = "services.CustomerService.Create"

	if errs := s.Validator.ValidateCustomer(in.Name, in.Email, in.RouterID); len(errs) > 0 {
		return nil, errs
	}
	c, err := models.NewCustomer(in.Name, in.Email, in.Phone, in.Address, in.RouterID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.Now()
	c.CreatedAt, c.UpdatedAt = now, now

	err = s.Tx.WithinTx(ctx, func(repo Repository) error {
		id, err := repo.CreateCustomer(ctx, c)
		if err != nil {
			return err
		}
		c.ID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.Log.Info("customer created", slog.Int64("id", c.ID), slog.String("router_id", c.RouterID))
	s.cacheSet(cache.CustomerKey(c.ID), c)
	return c, nil
}

// Get возвращает абонента по ID, сначала из кеша.
func (s *CustomerService) Get(ctx context.Context, id int64) (*models.Customer, error) {
	const op = "services.CustomerService.Get"

	var cached models.Customer
	if s.cacheGet(cache.CustomerKey(id), &cached) {
		return &cached, nil
	}

	var c *models.Customer
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		var err error
		c, err = repo.GetCustomer(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cacheSet(cache.CustomerKey(id), c)
	return c, nil
}

// List возвращает абонентов по имени с числом активных подписок.
func (s *CustomerService) List(ctx context.Context) ([]models.CustomerSummary, error) {
	const op = "services.CustomerService.List"

	var list []models.CustomerSummary
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		var err error
		list, err = repo.ListCustomers(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Subscriptions возвращает все подписки абонента.
func (s *CustomerService) Subscriptions(ctx context.Context, id int64) ([]models.SubscriptionDetails, error) {
	const op = "services.CustomerService.Subscriptions"

	var list []models.SubscriptionDetails
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		if _, err := repo.GetCustomer(ctx, id); err != nil {
			return err
		}
		var err error
		list, err = repo.ListCustomerSubscriptions(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Search ищет абонентов по подстроке. Пустой результат различает
// отсутствие совпадений и пустую базу.
func (s *CustomerService) Search(ctx context.Context, term string) (*models.SearchResult, error) {
	const op = "services.CustomerService.Search"

	if errs := s.Validator.ValidateSearchTerm(term); len(errs) > 0 {
		return nil, errs
	}
	term = strings.TrimSpace(term)

	result := &models.SearchResult{Term: term}
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		found, err := repo.SearchCustomers(ctx, term)
		if err != nil {
			return err
		}
		result.Customers = found
		if len(found) > 0 {
			result.Outcome = models.SearchFound
			return nil
		}
		total, err := repo.CountCustomers(ctx)
		if err != nil {
			return err
		}
		if total == 0 {
			result.Outcome = models.SearchNoRecords
		} else {
			result.Outcome = models.SearchNoMatches
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Update применяет изменения. Незаданные поля патча сохраняют текущие значения,
// итоговые значения проверяются так же, как при создании.
func (s *CustomerService) Update(ctx context.Context, id int64, patch models.CustomerPatch) (*models.Customer, error) {
	const op = "services.CustomerService.Update"

	var c *models.Customer
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		var err error
		c, err = repo.GetCustomer(ctx, id)
		if err != nil {
			return err
		}

		name, email := pick(patch.Name, c.Name), pick(patch.Email, c.Email)
		if errs := s.Validator.ValidateCustomer(name, email, c.RouterID); len(errs) > 0 {
			return errs
		}
		if err := c.SetName(name); err != nil {
			return err
		}
		if err := c.SetEmail(email); err != nil {
			return err
		}
		if patch.Phone != nil {
			if err := c.SetPhone(*patch.Phone); err != nil {
				return err
			}
		}
		if patch.Address != nil {
			c.SetAddress(*patch.Address)
		}
		c.UpdatedAt = s.Now()
		return repo.UpdateCustomer(ctx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.Log.Info("customer updated", slog.Int64("id", id))
	s.cacheInvalidate(cache.CustomerKey(id))
	return c, nil
}

// Delete удаляет абонента вместе с подписками.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	const op = "services.CustomerService.Delete"

	var subs []models.SubscriptionDetails
	err := s.Tx.WithinTx(ctx, func(repo Repository) error {
		var err error
		subs, err = repo.ListCustomerSubscriptions(ctx, id)
		if err != nil {
			return err
		}
		return repo.DeleteCustomer(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.Log.Info("customer deleted", slog.Int64("id", id), slog.Int("subscriptions", len(subs)))
	s.cacheInvalidate(cache.CustomerKey(id))
	for _, sub := range subs {
		s.cacheInvalidate(cache.SubscriptionKey(sub.ID))
	}
	return nil
}

func pick(v *string, current string) string {
	if v == nil {
		return current
	}
	return *v
}

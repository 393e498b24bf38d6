package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/repositories"
	"pos_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Customer ---
var (
	ErrPhoneNumberExists = errors.New("phone number already exists")
)

// --- Customer DTOs ---
type CreateCustomerRequest struct {
	Name         string          `json:"name" binding:"required"`
	Phone        *string         `json:"phone"`
	Address      *string         `json:"address"`
	DeliveryCost decimal.Decimal `json:"delivery_cost"`
}

type UpdateCustomerRequest struct {
	Name         *string          `json:"name"`
	Phone        *string          `json:"phone"`
	Address      *string          `json:"address"`
	DeliveryCost *decimal.Decimal `json:"delivery_cost"`
}

// --- CustomerService Interface ---
type CustomerService interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	UpdateCustomer(ctx context.Context, customerID int64, req UpdateCustomerRequest) (*models.Customer, error)
}

type customerService struct {
	store repositories.Store
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(store repositories.Store) CustomerService {
	return &customerService{store: store}
}

var phoneRegex = regexp.MustCompile(`^\+?[0-9\s\-()]{5,20}$`)

func normalizePhone(phone *string) (*string, error) {
	pn := utils.NewNullString(utils.DerefString(phone))
	if pn == nil {
		return nil, nil
	}
	if !phoneRegex.MatchString(*pn) {
		return nil, fmt.Errorf("%w: phone number format is invalid", ErrValidation)
	}
	return pn, nil
}

func duplicatePhone(err error, phone *string) error {
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return fmt.Errorf("%w: %s", ErrPhoneNumberExists, utils.DerefString(phone))
	}
	return err
}

func (s *customerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: customer name cannot be empty", ErrValidation)
	}
	if req.DeliveryCost.IsNegative() {
		return nil, fmt.Errorf("%w: delivery cost cannot be negative", ErrValidation)
	}
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Name:         name,
		Phone:        phone,
		Address:      utils.NewNullString(utils.DerefString(req.Address)),
		DeliveryCost: req.DeliveryCost,
	}
	err = s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		return r.Customers.Create(ctx, customer)
	})
	if err != nil {
		return nil, duplicatePhone(err, phone)
	}
	return customer, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*models.Customer, error) {
	var customer *models.Customer
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		customer, err = r.Customers.GetByID(ctx, customerID)
		if err != nil {
			return notFound(err, ErrCustomerNotFound, "customer %d", customerID)
		}
		return nil
	})
	return customer, err
}

func (s *customerService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		customers, err = r.Customers.List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, customerID int64, req UpdateCustomerRequest) (*models.Customer, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("%w: customer name cannot be empty if provided", ErrValidation)
	}
	if req.DeliveryCost != nil && req.DeliveryCost.IsNegative() {
		return nil, fmt.Errorf("%w: delivery cost cannot be negative", ErrValidation)
	}
	var phone *string
	if req.Phone != nil {
		var err error
		if phone, err = normalizePhone(req.Phone); err != nil {
			return nil, err
		}
	}

	var customer *models.Customer
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		customer, err = r.Customers.GetByID(ctx, customerID)
		if err != nil {
			return notFound(err, ErrCustomerNotFound, "customer %d", customerID)
		}
		if req.Name != nil {
			customer.Name = strings.TrimSpace(*req.Name)
		}
		if req.Phone != nil {
			customer.Phone = phone
		}
		if req.Address != nil {
			customer.Address = utils.NewNullString(*req.Address)
		}
		if req.DeliveryCost != nil {
			customer.DeliveryCost = *req.DeliveryCost
		}
		return r.Customers.Update(ctx, customer)
	})
	if err != nil {
		return nil, duplicatePhone(err, phone)
	}
	return customer, nil
}

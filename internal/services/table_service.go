package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/repositories"
)

// TableService manages dine-in tables. Reservations are taken and released
// by the order lifecycle only.
type TableService interface {
	CreateTable(ctx context.Context, name string) (*models.DiningTable, error)
	GetTable(ctx context.Context, tableID int64) (*models.DiningTable, error)
	ListTables(ctx context.Context) ([]models.DiningTable, error)
}

type tableService struct {
	store repositories.Store
}

// NewTableService creates a new instance of TableService.
func NewTableService(store repositories.Store) TableService {
	return &tableService{store: store}
}

func (s *tableService) CreateTable(ctx context.Context, name string) (*models.DiningTable, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: table name is required", ErrValidation)
	}
	table := &models.DiningTable{Name: name}
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		return r.Tables.Create(ctx, table)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: table %q", ErrConflict, name)
		}
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return table, nil
}

func (s *tableService) GetTable(ctx context.Context, tableID int64) (*models.DiningTable, error) {
	var table *models.DiningTable
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		table, err = r.Tables.GetByID(ctx, tableID)
		if err != nil {
			return notFound(err, ErrTableNotFound, "table %d", tableID)
		}
		return nil
	})
	return table, err
}

func (s *tableService) ListTables(ctx context.Context) ([]models.DiningTable, error) {
	var tables []models.DiningTable
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		tables, err = r.Tables.List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

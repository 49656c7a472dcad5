package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"stockly/internal/model"
	"stockly/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactRequest is the shared create/update payload for clients and
// suppliers.
type ContactRequest struct {
	Name    string  `json:"name" binding:"required"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address string  `json:"address"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Zip     string  `json:"zip"`
	Country string  `json:"country"`
	Notes   *string `json:"notes"`
}

type ClientService interface {
	GetClients(ctx context.Context, page, limit int, search string) ([]model.Client, int64, error)
	GetClient(ctx context.Context, id string) (*model.Client, error)
	CreateClient(ctx context.Context, userID string, req ContactRequest) (*model.Client, error)
	UpdateClient(ctx context.Context, userID, id string, req ContactRequest) (*model.Client, error)
	DeleteClient(ctx context.Context, userID, id string) error
}

type clientService struct {
	clientRepo repository.ClientRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewClientService(
	clientRepo repository.ClientRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ClientService {
	return &clientService{clientRepo: clientRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *clientService) GetClients(ctx context.Context, page, limit int, search string) ([]model.Client, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.clientRepo.List(ctx, page, limit, search)
}

func (s *clientService) GetClient(ctx context.Context, id string) (*model.Client, error) {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid client id: %w", err)
	}
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("client not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return client, nil
}

func (s *clientService) CreateClient(ctx context.Context, userID string, req ContactRequest) (*model.Client, error) {
	client := &model.Client{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Zip:     req.Zip,
		Country: req.Country,
		Notes:   req.Notes,
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.clientRepo.Create(txCtx, client); err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}
		return logContactAudit(txCtx, s.auditRepo, userID, model.ActionCreateClient, client.ID, client.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) UpdateClient(ctx context.Context, userID, id string, req ContactRequest) (*model.Client, error) {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid client id: %w", err)
	}
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("client not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	client.Name = req.Name
	client.Email = req.Email
	client.Phone = req.Phone
	client.Address = req.Address
	client.City = req.City
	client.State = req.State
	client.Zip = req.Zip
	client.Country = req.Country
	client.Notes = req.Notes

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.clientRepo.Update(txCtx, client); err != nil {
			return fmt.Errorf("failed to update client: %w", err)
		}
		return logContactAudit(txCtx, s.auditRepo, userID, model.ActionUpdateClient, client.ID, client.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) DeleteClient(ctx context.Context, userID, id string) error {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid client id: %w", err)
	}
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("client not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.clientRepo.Delete(txCtx, clientID); err != nil {
			return fmt.Errorf("failed to delete client: %w", err)
		}
		return logContactAudit(txCtx, s.auditRepo, userID, model.ActionDeleteClient, client.ID, client.Name, nil)
	})
}

type SupplierService interface {
	GetSuppliers(ctx context.Context, page, limit int, search string) ([]model.Supplier, int64, error)
	GetSupplier(ctx context.Context, id string) (*model.Supplier, error)
	CreateSupplier(ctx context.Context, userID string, req ContactRequest) (*model.Supplier, error)
	UpdateSupplier(ctx context.Context, userID, id string, req ContactRequest) (*model.Supplier, error)
	DeleteSupplier(ctx context.Context, userID, id string) error
}

type supplierService struct {
	supplierRepo repository.SupplierRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewSupplierService(
	supplierRepo repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) SupplierService {
	return &supplierService{supplierRepo: supplierRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *supplierService) GetSuppliers(ctx context.Context, page, limit int, search string) ([]model.Supplier, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.supplierRepo.List(ctx, page, limit, search)
}

func (s *supplierService) GetSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid supplier id: %w", err)
	}
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("supplier not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) CreateSupplier(ctx context.Context, userID string, req ContactRequest) (*model.Supplier, error) {
	supplier := &model.Supplier{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Zip:     req.Zip,
		Country: req.Country,
		Notes:   req.Notes,
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Create(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to create supplier: %w", err)
		}
		return logContactAudit(txCtx, s.auditRepo, userID, model.ActionCreateSupplier, supplier.ID, supplier.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, userID, id string, req ContactRequest) (*model.Supplier, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid supplier id: %w", err)
	}
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("supplier not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	supplier.Name = req.Name
	supplier.Email = req.Email
	supplier.Phone = req.Phone
	supplier.Address = req.Address
	supplier.City = req.City
	supplier.State = req.State
	supplier.Zip = req.Zip
	supplier.Country = req.Country
	supplier.Notes = req.Notes

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Update(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to update supplier: %w", err)
		}
		return logContactAudit(txCtx, s.auditRepo, userID, model.ActionUpdateSupplier, supplier.ID, supplier.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *supplierService) DeleteSupplier(ctx context.Context, userID, id string) error {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid supplier id: %w", err)
	}
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("supplier not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Delete(txCtx, supplierID); err != nil {
			return fmt.Errorf("failed to delete supplier: %w", err)
		}
		return logContactAudit(txCtx, s.auditRepo, userID, model.ActionDeleteSupplier, supplier.ID, supplier.Name, nil)
	})
}

func logContactAudit(ctx context.Context, auditRepo repository.AuditRepository, userID, action string, entityID uuid.UUID, name string, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}
	details := "{}"
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			details = string(raw)
		}
	}
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID.String(),
		EntityName: name,
		Details:    details,
	}
	if err := auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

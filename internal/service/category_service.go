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

// DTOs
type CustomFieldRequest struct {
	Name     string   `json:"name" binding:"required"`
	Kind     string   `json:"kind" binding:"required,oneof=text number date boolean dropdown"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

type CreateCategoryRequest struct {
	Name         string               `json:"name" binding:"required"`
	Description  string               `json:"description"`
	CustomFields []CustomFieldRequest `json:"custom_fields" binding:"dive"`
}

type UpdateCategoryRequest struct {
	Name         string               `json:"name" binding:"required"`
	Description  string               `json:"description"`
	CustomFields []CustomFieldRequest `json:"custom_fields" binding:"dive"`
}

type CategoryService interface {
	GetCategories(ctx context.Context, page, limit int) ([]model.Category, int64, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	CreateCategory(ctx context.Context, userID string, req CreateCategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, userID, id string, req UpdateCategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, userID, id string) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func buildFields(reqs []CustomFieldRequest) ([]model.CategoryField, error) {
	fields := make([]model.CategoryField, 0, len(reqs))
	for _, fr := range reqs {
		if fr.Kind == model.FieldKindDropdown && len(fr.Options) == 0 {
			return nil, fmt.Errorf("dropdown field %q needs at least one option", fr.Name)
		}
		field := model.CategoryField{
			Name:     fr.Name,
			Kind:     fr.Kind,
			Required: fr.Required,
		}
		if len(fr.Options) > 0 {
			raw, _ := json.Marshal(fr.Options)
			field.Options = string(raw)
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func (s *categoryService) GetCategories(ctx context.Context, page, limit int) ([]model.Category, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.categoryRepo.List(ctx, page, limit)
}

func (s *categoryService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid category id: %w", err)
	}
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("category not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return category, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, userID string, req CreateCategoryRequest) (*model.Category, error) {
	if _, err := s.categoryRepo.FindByName(ctx, req.Name); err == nil {
		return nil, fmt.Errorf("category %q already exists", req.Name)
	}
	fields, err := buildFields(req.CustomFields)
	if err != nil {
		return nil, err
	}

	category := &model.Category{
		Name:         req.Name,
		Description:  req.Description,
		CustomFields: fields,
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categoryRepo.Create(txCtx, category); err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionCreateCategory, category, req)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory replaces the category's fields wholesale: the request's
// custom field list is the new definition set.
func (s *categoryService) UpdateCategory(ctx context.Context, userID, id string, req UpdateCategoryRequest) (*model.Category, error) {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid category id: %w", err)
	}
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("category not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	fields, err := buildFields(req.CustomFields)
	if err != nil {
		return nil, err
	}
	for i := range fields {
		fields[i].CategoryID = category.ID
	}
	category.Name = req.Name
	category.Description = req.Description
	category.CustomFields = fields

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categoryRepo.Upsert(txCtx, category); err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionUpdateCategory, category, req)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes the category and, by ownership, its custom fields.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, id string) error {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid category id: %w", err)
	}
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("category not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categoryRepo.Delete(txCtx, categoryID); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionDeleteCategory, category, nil)
	})
}

func (s *categoryService) logAudit(ctx context.Context, userID, action string, category *model.Category, payload interface{}) error {
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
		EntityID:   category.ID.String(),
		EntityName: category.Name,
		Details:    details,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

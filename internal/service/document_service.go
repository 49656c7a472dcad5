package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stockly/internal/model"
	"stockly/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type LineItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" binding:"min=0"`
	TaxRate     float64 `json:"tax_rate" binding:"min=0"`
	Discount    float64 `json:"discount" binding:"min=0,max=100"`
}

type DocumentFieldRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

type CreateDocumentRequest struct {
	ClientID      string                 `json:"client_id"` // optional: snapshot from an existing client
	ClientName    string                 `json:"client_name"`
	ClientEmail   string                 `json:"client_email"`
	ClientPhone   string                 `json:"client_phone"`
	ClientAddress string                 `json:"client_address"`
	IssueDate     *time.Time             `json:"issue_date"`
	DueDate       *time.Time             `json:"due_date"`
	DiscountType  string                 `json:"discount_type" binding:"omitempty,oneof=percentage fixed"`
	DiscountValue float64                `json:"discount_value" binding:"min=0"`
	TaxRate       float64                `json:"tax_rate" binding:"min=0"`
	Notes         string                 `json:"notes"`
	Items         []LineItemRequest      `json:"items" binding:"required,min=1,dive"`
	CustomFields  []DocumentFieldRequest `json:"custom_fields" binding:"dive"`
}

type UpdateDocumentRequest = CreateDocumentRequest

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type DocumentService interface {
	GetDocuments(ctx context.Context, docType string, page, limit int, status string) ([]model.Document, int64, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	CreateDocument(ctx context.Context, userID, docType string, req CreateDocumentRequest) (*model.Document, error)
	UpdateDocument(ctx context.Context, userID, id string, req UpdateDocumentRequest) (*model.Document, error)
	UpdateStatus(ctx context.Context, userID, id string, req UpdateStatusRequest) (*model.Document, error)
	DeleteDocument(ctx context.Context, userID, id string) error
}

type documentService struct {
	documentRepo repository.DocumentRepository
	clientRepo   repository.ClientRepository
	settingRepo  repository.SettingRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewDocumentService(
	documentRepo repository.DocumentRepository,
	clientRepo repository.ClientRepository,
	settingRepo repository.SettingRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) DocumentService {
	return &documentService{
		documentRepo: documentRepo,
		clientRepo:   clientRepo,
		settingRepo:  settingRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

// ComputeTotals derives every money field on the document from its line
// items. Line total = quantity x unit price less the line discount percent.
// The document discount (percentage or fixed) applies to the subtotal, tax
// applies to the post-discount amount, and every rounded value is rounded
// half-up at the cent boundary.
func ComputeTotals(doc *model.Document) {
	hundred := decimal.NewFromInt(100)

	subtotal := decimal.Zero
	for i := range doc.Items {
		item := &doc.Items[i]
		line := item.UnitPrice.Mul(decimal.NewFromFloat(item.Quantity))
		if item.Discount > 0 {
			off := line.Mul(decimal.NewFromFloat(item.Discount)).Div(hundred)
			line = line.Sub(off)
		}
		item.Total = line.Round(2)
		subtotal = subtotal.Add(item.Total)
	}
	doc.Subtotal = subtotal.Round(2)

	discount := decimal.Zero
	switch doc.DiscountType {
	case model.DiscountFixed:
		discount = doc.DiscountValue
	default: // percentage
		discount = doc.Subtotal.Mul(doc.DiscountValue).Div(hundred)
	}
	if discount.GreaterThan(doc.Subtotal) {
		discount = doc.Subtotal
	}
	doc.DiscountAmount = discount.Round(2)

	taxable := doc.Subtotal.Sub(doc.DiscountAmount)
	doc.TaxAmount = taxable.Mul(decimal.NewFromFloat(doc.TaxRate)).Div(hundred).Round(2)
	doc.Total = taxable.Add(doc.TaxAmount).Round(2)
}

func (s *documentService) GetDocuments(ctx context.Context, docType string, page, limit int, status string) ([]model.Document, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.documentRepo.List(ctx, docType, page, limit, status)
}

func (s *documentService) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid document id: %w", err)
	}
	doc, err := s.documentRepo.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("document not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return doc, nil
}

func (s *documentService) CreateDocument(ctx context.Context, userID, docType string, req CreateDocumentRequest) (*model.Document, error) {
	doc := &model.Document{
		Type:         docType,
		Status:       model.InvoiceStatusDraft,
		DiscountType: model.DiscountPercentage,
		Notes:        req.Notes,
		TaxRate:      req.TaxRate,
	}
	if docType == model.DocTypeEstimate {
		doc.Status = model.EstimateStatusDraft
	}
	if req.DiscountType != "" {
		doc.DiscountType = req.DiscountType
	}
	doc.DiscountValue = decimal.NewFromFloat(req.DiscountValue)
	doc.IssueDate = time.Now()
	if req.IssueDate != nil {
		doc.IssueDate = *req.IssueDate
	}
	doc.DueDate = req.DueDate

	if err := s.applyClientSnapshot(ctx, doc, req); err != nil {
		return nil, err
	}
	if doc.ClientName == "" {
		return nil, errors.New("client name is required")
	}

	applyChildren(doc, req)
	ComputeTotals(doc)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, err := s.nextNumber(txCtx, docType)
		if err != nil {
			return err
		}
		doc.Number = number
		if err := s.documentRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionCreateDocument, doc, req)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) UpdateDocument(ctx context.Context, userID, id string, req UpdateDocumentRequest) (*model.Document, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid document id: %w", err)
	}
	doc, err := s.documentRepo.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("document not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	doc.Notes = req.Notes
	doc.TaxRate = req.TaxRate
	if req.DiscountType != "" {
		doc.DiscountType = req.DiscountType
	}
	doc.DiscountValue = decimal.NewFromFloat(req.DiscountValue)
	if req.IssueDate != nil {
		doc.IssueDate = *req.IssueDate
	}
	doc.DueDate = req.DueDate
	if err := s.applyClientSnapshot(ctx, doc, req); err != nil {
		return nil, err
	}

	applyChildren(doc, req)
	ComputeTotals(doc)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.documentRepo.ReplaceChildren(txCtx, doc); err != nil {
			return fmt.Errorf("failed to update document items: %w", err)
		}
		// Children already written above; save only the document row.
		bare := *doc
		bare.Items = nil
		bare.CustomFields = nil
		if err := s.documentRepo.Update(txCtx, &bare); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionUpdateDocument, doc, req)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) UpdateStatus(ctx context.Context, userID, id string, req UpdateStatusRequest) (*model.Document, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid document id: %w", err)
	}
	doc, err := s.documentRepo.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("document not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !model.ValidDocumentStatus(doc.Type, req.Status) {
		return nil, fmt.Errorf("invalid status %q for %s", req.Status, strings.ToLower(doc.Type))
	}
	doc.Status = req.Status

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		bare := *doc
		bare.Items = nil
		bare.CustomFields = nil
		if err := s.documentRepo.Update(txCtx, &bare); err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionUpdateDocument, doc, req)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument detaches the document's line items and custom fields
// (nullified back-references, not cascaded) before removing the document row.
func (s *documentService) DeleteDocument(ctx context.Context, userID, id string) error {
	docID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}
	doc, err := s.documentRepo.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("document not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.documentRepo.Delete(txCtx, docID); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionDeleteDocument, doc, nil)
	})
}

// applyClientSnapshot copies client fields onto the document. With a
// client_id the stored client is the source; otherwise the request's inline
// fields are taken as-is.
func (s *documentService) applyClientSnapshot(ctx context.Context, doc *model.Document, req CreateDocumentRequest) error {
	if req.ClientID == "" {
		doc.ClientName = req.ClientName
		doc.ClientEmail = req.ClientEmail
		doc.ClientPhone = req.ClientPhone
		doc.ClientAddress = req.ClientAddress
		return nil
	}
	clientID, err := uuid.Parse(req.ClientID)
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
	doc.ClientName = client.Name
	if client.Email != nil {
		doc.ClientEmail = *client.Email
	}
	if client.Phone != nil {
		doc.ClientPhone = *client.Phone
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{client.Address, client.City, client.State, client.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	doc.ClientAddress = strings.Join(parts, ", ")
	return nil
}

func applyChildren(doc *model.Document, req CreateDocumentRequest) {
	doc.Items = doc.Items[:0]
	for i, ir := range req.Items {
		doc.Items = append(doc.Items, model.DocumentItem{
			Name:        ir.Name,
			Description: ir.Description,
			Quantity:    ir.Quantity,
			UnitPrice:   decimal.NewFromFloat(ir.UnitPrice),
			TaxRate:     ir.TaxRate,
			Discount:    ir.Discount,
			Position:    i,
		})
	}
	doc.CustomFields = doc.CustomFields[:0]
	for _, fr := range req.CustomFields {
		doc.CustomFields = append(doc.CustomFields, model.DocumentField{
			Name:  fr.Name,
			Value: fr.Value,
		})
	}
}

// nextNumber produces the next sequential document number, prefix taken from
// settings (INV- / EST- by default).
func (s *documentService) nextNumber(ctx context.Context, docType string) (string, error) {
	prefixKey := model.SettingInvoicePrefix
	prefix := "INV-"
	if docType == model.DocTypeEstimate {
		prefixKey = model.SettingEstimatePrefix
		prefix = "EST-"
	}
	if v, ok, err := s.settingRepo.Get(ctx, prefixKey); err != nil {
		return "", fmt.Errorf("reading number prefix: %w", err)
	} else if ok && v != "" {
		prefix = v
	}

	last, err := s.documentRepo.LastNumber(ctx, docType)
	if err != nil {
		return "", fmt.Errorf("reading last document number: %w", err)
	}
	next := 1
	if last != "" {
		digits := last[strings.LastIndexFunc(last, func(r rune) bool { return r < '0' || r > '9' })+1:]
		if n, err := strconv.Atoi(digits); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, next), nil
}

func (s *documentService) logAudit(ctx context.Context, userID, action string, doc *model.Document, payload interface{}) error {
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
		EntityID:   doc.ID.String(),
		EntityName: doc.Number,
		Details:    details,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

package repository

import (
	"context"

	"stockly/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	Update(ctx context.Context, doc *model.Document) error
	Upsert(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllByType(ctx context.Context, docType string) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	FindAllByType(ctx context.Context, docType string) ([]model.Document, error)
	List(ctx context.Context, docType string, page, limit int, status string) ([]model.Document, int64, error)
	LastNumber(ctx context.Context, docType string) (string, error)
	ReplaceChildren(ctx context.Context, doc *model.Document) error
	DetachChildren(ctx context.Context, id uuid.UUID) error
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create persists the document together with its nested line items and
// custom fields (gorm walks the associations).
func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Session(&gorm.Session{FullSaveAssociations: true}).Save(doc).Error
}

// Upsert replaces an existing document (and its children) by id, or inserts
// it when absent. Used by merge restores; children are rewritten wholesale so
// no stale lines survive.
func (r *documentRepository) Upsert(ctx context.Context, doc *model.Document) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("id = ?", doc.ID).Delete(&model.Document{}).Error; err != nil {
		return err
	}
	if err := db.Where("document_id = ?", doc.ID).Delete(&model.DocumentItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("document_id = ?", doc.ID).Delete(&model.DocumentField{}).Error; err != nil {
		return err
	}
	return db.Create(doc).Error
}

// Delete removes a document after detaching its children. Children are
// nullified, never cascaded: orphaned rows keep existing with a nil
// back-reference until explicitly cleaned up.
func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.DetachChildren(ctx, id); err != nil {
		return err
	}
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Document{}).Error
}

// DeleteAllByType clears every document of one type along with its attached
// children. Used by replace restores.
func (r *documentRepository) DeleteAllByType(ctx context.Context, docType string) error {
	db := GetDB(ctx, r.db)
	sub := db.Model(&model.Document{}).Select("id").Where("type = ?", docType)
	if err := db.Where("document_id IN (?)", sub).Delete(&model.DocumentItem{}).Error; err != nil {
		return err
	}
	sub = db.Model(&model.Document{}).Select("id").Where("type = ?", docType)
	if err := db.Where("document_id IN (?)", sub).Delete(&model.DocumentField{}).Error; err != nil {
		return err
	}
	return db.Where("type = ?", docType).Delete(&model.Document{}).Error
}

func (r *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	if err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("CustomFields").
		First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindAllByType(ctx context.Context, docType string) ([]model.Document, error) {
	var docs []model.Document
	if err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("CustomFields").
		Where("type = ?", docType).Order("created_at asc").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepository) List(ctx context.Context, docType string, page, limit int, status string) ([]model.Document, int64, error) {
	var docs []model.Document
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Document{}).Where("type = ?", docType)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("CustomFields").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// LastNumber returns the highest document number for the type, empty when
// none exist yet.
func (r *documentRepository) LastNumber(ctx context.Context, docType string) (string, error) {
	var doc model.Document
	err := GetDB(ctx, r.db).Where("type = ?", docType).Order("number desc").First(&doc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return doc.Number, nil
}

// ReplaceChildren rewrites a document's line items and custom fields from the
// slices on doc, re-pointing every back-reference at the document.
func (r *documentRepository) ReplaceChildren(ctx context.Context, doc *model.Document) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("document_id = ?", doc.ID).Delete(&model.DocumentItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("document_id = ?", doc.ID).Delete(&model.DocumentField{}).Error; err != nil {
		return err
	}
	for i := range doc.Items {
		doc.Items[i].DocumentID = &doc.ID
		if err := db.Create(&doc.Items[i]).Error; err != nil {
			return err
		}
	}
	for i := range doc.CustomFields {
		doc.CustomFields[i].DocumentID = &doc.ID
		if err := db.Create(&doc.CustomFields[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// DetachChildren nullifies the back-references of a document's children.
func (r *documentRepository) DetachChildren(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.DocumentItem{}).Where("document_id = ?", id).
		Update("document_id", nil).Error; err != nil {
		return err
	}
	return db.Model(&model.DocumentField{}).Where("document_id = ?", id).
		Update("document_id", nil).Error
}

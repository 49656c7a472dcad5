package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"stockly/internal/backup"
	"stockly/internal/model"
	"stockly/internal/repository"

	"github.com/google/uuid"
)

// BackupFileExt is the extension of backup files, encrypted or not.
const BackupFileExt = ".stocklybackup"

// RestorePolicy selects what happens to existing rows during import.
type RestorePolicy string

const (
	// RestoreReplace clears each entity family before inserting restored
	// rows. Destructive, and the default.
	RestoreReplace RestorePolicy = "replace"
	// RestoreMerge upserts restored rows by id, leaving unrelated rows
	// alone.
	RestoreMerge RestorePolicy = "merge"
)

// SkippedRow identifies one record that could not be restored.
type SkippedRow struct {
	Family string `json:"family"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// RestoreReport is returned to the caller so partial imports are never
// silent: it carries per-family imported counts and every skipped row with
// its reason.
type RestoreReport struct {
	Imported map[string]int `json:"imported"`
	Skipped  []SkippedRow   `json:"skipped"`
}

func (r *RestoreReport) skip(family string, index int, err error) {
	r.Skipped = append(r.Skipped, SkippedRow{Family: family, Index: index, Reason: err.Error()})
	log.Printf("restore: skipping %s[%d]: %v", family, index, err)
}

// BackupInfo describes one backup file on disk.
type BackupInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type BackupService interface {
	ExportAllData(ctx context.Context, userID, password string) (string, error)
	ImportAllData(ctx context.Context, userID, path, password string, policy RestorePolicy) (*RestoreReport, error)
	ListBackups() ([]BackupInfo, error)
	BackupPath(name string) (string, error)
	DeleteBackup(ctx context.Context, userID, name string) error
}

type backupService struct {
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	clientRepo   repository.ClientRepository
	supplierRepo repository.SupplierRepository
	documentRepo repository.DocumentRepository
	settingRepo  repository.SettingRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	backupDir    string
	producer     backup.ProducerInfo
}

func NewBackupService(
	itemRepo repository.ItemRepository,
	categoryRepo repository.CategoryRepository,
	clientRepo repository.ClientRepository,
	supplierRepo repository.SupplierRepository,
	documentRepo repository.DocumentRepository,
	settingRepo repository.SettingRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	backupDir string,
	producer backup.ProducerInfo,
) BackupService {
	return &backupService{
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		clientRepo:   clientRepo,
		supplierRepo: supplierRepo,
		documentRepo: documentRepo,
		settingRepo:  settingRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		backupDir:    backupDir,
		producer:     producer,
	}
}

// ExportAllData serializes the whole store into one container file. With a
// non-empty password the JSON is encrypted before it touches disk. Returns
// the path of the written file.
func (s *backupService) ExportAllData(ctx context.Context, userID, password string) (string, error) {
	encrypted := password != ""
	c := backup.NewContainer(s.producer, encrypted)

	items, err := s.itemRepo.FindAll(ctx)
	if err != nil {
		return "", fmt.Errorf("export failed: fetching items: %w", err)
	}
	for i := range items {
		c.Items = append(c.Items, backup.ToItemRecord(&items[i]))
	}

	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return "", fmt.Errorf("export failed: fetching categories: %w", err)
	}
	for i := range categories {
		c.Categories = append(c.Categories, backup.ToCategoryRecord(&categories[i]))
	}

	clients, err := s.clientRepo.FindAll(ctx)
	if err != nil {
		return "", fmt.Errorf("export failed: fetching clients: %w", err)
	}
	for i := range clients {
		c.Clients = append(c.Clients, backup.ToClientRecord(&clients[i]))
	}

	suppliers, err := s.supplierRepo.FindAll(ctx)
	if err != nil {
		return "", fmt.Errorf("export failed: fetching suppliers: %w", err)
	}
	for i := range suppliers {
		c.Suppliers = append(c.Suppliers, backup.ToSupplierRecord(&suppliers[i]))
	}

	invoices, err := s.documentRepo.FindAllByType(ctx, model.DocTypeInvoice)
	if err != nil {
		return "", fmt.Errorf("export failed: fetching invoices: %w", err)
	}
	for i := range invoices {
		c.Invoices = append(c.Invoices, backup.ToDocumentRecord(&invoices[i]))
	}

	estimates, err := s.documentRepo.FindAllByType(ctx, model.DocTypeEstimate)
	if err != nil {
		return "", fmt.Errorf("export failed: fetching estimates: %w", err)
	}
	for i := range estimates {
		c.Estimates = append(c.Estimates, backup.ToDocumentRecord(&estimates[i]))
	}

	settings, err := s.settingRepo.All(ctx)
	if err != nil {
		return "", fmt.Errorf("export failed: fetching settings: %w", err)
	}
	if len(settings) > 0 {
		c.Settings = settings
	}

	data, err := c.Encode()
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	if encrypted {
		data, err = backup.Encrypt(data, password)
		if err != nil {
			return "", fmt.Errorf("export failed: %w", err)
		}
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("export failed: creating backup directory: %w", err)
	}
	name := "stockly-backup-" + time.Now().Format("20060102-150405") + BackupFileExt
	final := filepath.Join(s.backupDir, name)

	// Write through a scratch file so a crash mid-write never leaves a
	// half-finished backup behind.
	tmp := final + ".tmp"
	defer os.Remove(tmp)
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", fmt.Errorf("export failed: writing backup file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return "", fmt.Errorf("export failed: finalizing backup file: %w", err)
	}

	s.audit(ctx, userID, model.ActionExportBackup, name, map[string]interface{}{
		"encrypted": encrypted,
		"items":     len(c.Items),
		"invoices":  len(c.Invoices),
		"estimates": len(c.Estimates),
	})
	return final, nil
}

// ImportAllData restores a backup file into the store. Decryption is
// attempted when the file is not plaintext JSON. The whole restore runs in
// one transaction: a structural failure rolls every phase back, while
// malformed rows are skipped and reported.
func (s *backupService) ImportAllData(ctx context.Context, userID, path, password string, policy RestorePolicy) (*RestoreReport, error) {
	if policy == "" {
		policy = RestoreReplace
	}
	if policy != RestoreReplace && policy != RestoreMerge {
		return nil, fmt.Errorf("import failed: unknown restore policy %q", policy)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("import failed: reading backup file: %w", err)
	}

	if backup.LooksEncrypted(data) {
		if password == "" {
			return nil, fmt.Errorf("import failed: backup is encrypted and no password was given: %w", backup.ErrDecryptionFailed)
		}
		data, err = backup.Decrypt(data, password)
		if err != nil {
			return nil, fmt.Errorf("import failed: %w", err)
		}
	}

	c, err := backup.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("import failed: %w", err)
	}

	report := &RestoreReport{Imported: make(map[string]int)}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Fixed phase order: categories first so item restore validates
		// category names against the right candidate set.
		categoryNames, err := s.restoreCategories(txCtx, c, policy, report)
		if err != nil {
			return err
		}
		if err := s.restoreItems(txCtx, c, policy, report, categoryNames); err != nil {
			return err
		}
		if err := s.restoreClients(txCtx, c, policy, report); err != nil {
			return err
		}
		if err := s.restoreSuppliers(txCtx, c, policy, report); err != nil {
			return err
		}
		if err := s.restoreDocuments(txCtx, c.Invoices, model.DocTypeInvoice, "invoices", policy, report); err != nil {
			return err
		}
		if err := s.restoreDocuments(txCtx, c.Estimates, model.DocTypeEstimate, "estimates", policy, report); err != nil {
			return err
		}
		return s.restoreSettings(txCtx, c, policy, report)
	})
	if err != nil {
		return nil, fmt.Errorf("import failed: %w", err)
	}

	s.audit(ctx, userID, model.ActionImportBackup, filepath.Base(path), map[string]interface{}{
		"policy":   string(policy),
		"imported": report.Imported,
		"skipped":  len(report.Skipped),
	})
	return report, nil
}

// restoreCategories returns the set of category names available to the item
// phase: the restored ones plus every pre-existing row that survives this
// phase. Rows survive under merge, and under replace when the container has
// no categories section (an absent section clears nothing).
func (s *backupService) restoreCategories(ctx context.Context, c *backup.Container, policy RestorePolicy, report *RestoreReport) (map[string]bool, error) {
	names := make(map[string]bool)
	if policy == RestoreMerge || c.Categories == nil {
		existing, err := s.categoryRepo.FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("restoring categories: %w", err)
		}
		for i := range existing {
			names[existing[i].Name] = true
		}
	}
	if c.Categories == nil {
		return names, nil
	}
	if policy == RestoreReplace {
		if err := s.categoryRepo.DeleteAll(ctx); err != nil {
			return nil, fmt.Errorf("restoring categories: %w", err)
		}
		names = make(map[string]bool)
	}

	for i, record := range c.Categories {
		category, err := backup.FromCategoryRecord(record)
		if err != nil {
			report.skip("categories", i, err)
			continue
		}
		if names[category.Name] {
			report.skip("categories", i, fmt.Errorf("duplicate category name %q", category.Name))
			continue
		}
		var insertErr error
		if policy == RestoreMerge {
			insertErr = s.categoryRepo.Upsert(ctx, category)
		} else {
			insertErr = s.categoryRepo.Create(ctx, category)
		}
		if insertErr != nil {
			report.skip("categories", i, insertErr)
			continue
		}
		names[category.Name] = true
		report.Imported["categories"]++
	}
	return names, nil
}

func (s *backupService) restoreItems(ctx context.Context, c *backup.Container, policy RestorePolicy, report *RestoreReport, categoryNames map[string]bool) error {
	if c.Items == nil {
		return nil
	}
	if policy == RestoreReplace {
		if err := s.itemRepo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("restoring items: %w", err)
		}
	}

	seenSKU := make(map[string]uuid.UUID)
	for i, record := range c.Items {
		item, err := backup.FromItemRecord(record)
		if err != nil {
			report.skip("items", i, err)
			continue
		}

		// SKU is the business key: enforce uniqueness here, not as an
		// incidental database error.
		if prev, ok := seenSKU[item.SKU]; ok && prev != item.ID {
			report.skip("items", i, &SKUConflictError{SKU: item.SKU})
			continue
		}
		if policy == RestoreMerge {
			if existing, err := s.itemRepo.FindBySKU(ctx, item.SKU); err == nil && existing.ID != item.ID {
				report.skip("items", i, &SKUConflictError{SKU: item.SKU})
				continue
			}
		}

		// Unknown category names get a bare auto-created category so the
		// item keeps its grouping.
		if item.Category != "" && !categoryNames[item.Category] {
			if err := s.categoryRepo.Create(ctx, &model.Category{Name: item.Category}); err != nil {
				report.skip("items", i, fmt.Errorf("auto-creating category %q: %w", item.Category, err))
				continue
			}
			categoryNames[item.Category] = true
		}

		var insertErr error
		if policy == RestoreMerge {
			insertErr = s.itemRepo.Upsert(ctx, item)
		} else {
			insertErr = s.itemRepo.Create(ctx, item)
		}
		if insertErr != nil {
			report.skip("items", i, insertErr)
			continue
		}
		seenSKU[item.SKU] = item.ID
		report.Imported["items"]++
	}
	return nil
}

func (s *backupService) restoreClients(ctx context.Context, c *backup.Container, policy RestorePolicy, report *RestoreReport) error {
	if c.Clients == nil {
		return nil
	}
	if policy == RestoreReplace {
		if err := s.clientRepo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("restoring clients: %w", err)
		}
	}
	for i, record := range c.Clients {
		client, err := backup.FromClientRecord(record)
		if err != nil {
			report.skip("clients", i, err)
			continue
		}
		var insertErr error
		if policy == RestoreMerge {
			insertErr = s.clientRepo.Upsert(ctx, client)
		} else {
			insertErr = s.clientRepo.Create(ctx, client)
		}
		if insertErr != nil {
			report.skip("clients", i, insertErr)
			continue
		}
		report.Imported["clients"]++
	}
	return nil
}

func (s *backupService) restoreSuppliers(ctx context.Context, c *backup.Container, policy RestorePolicy, report *RestoreReport) error {
	if c.Suppliers == nil {
		return nil
	}
	if policy == RestoreReplace {
		if err := s.supplierRepo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("restoring suppliers: %w", err)
		}
	}
	for i, record := range c.Suppliers {
		supplier, err := backup.FromSupplierRecord(record)
		if err != nil {
			report.skip("suppliers", i, err)
			continue
		}
		var insertErr error
		if policy == RestoreMerge {
			insertErr = s.supplierRepo.Upsert(ctx, supplier)
		} else {
			insertErr = s.supplierRepo.Create(ctx, supplier)
		}
		if insertErr != nil {
			report.skip("suppliers", i, insertErr)
			continue
		}
		report.Imported["suppliers"]++
	}
	return nil
}

func (s *backupService) restoreDocuments(ctx context.Context, records []backup.DocumentRecord, docType, family string, policy RestorePolicy, report *RestoreReport) error {
	if records == nil {
		return nil
	}
	if policy == RestoreReplace {
		if err := s.documentRepo.DeleteAllByType(ctx, docType); err != nil {
			return fmt.Errorf("restoring %s: %w", family, err)
		}
	}
	for i, record := range records {
		doc, err := backup.FromDocumentRecord(record, docType)
		if err != nil {
			report.skip(family, i, err)
			continue
		}
		// FromDocumentRecord already points every child at the parent id;
		// a document persisted with detached children would violate the
		// no-orphans invariant.
		var insertErr error
		if policy == RestoreMerge {
			insertErr = s.documentRepo.Upsert(ctx, doc)
		} else {
			insertErr = s.documentRepo.Create(ctx, doc)
		}
		if insertErr != nil {
			report.skip(family, i, insertErr)
			continue
		}
		report.Imported[family]++
	}
	return nil
}

func (s *backupService) restoreSettings(ctx context.Context, c *backup.Container, policy RestorePolicy, report *RestoreReport) error {
	if c.Settings == nil {
		return nil
	}
	if policy == RestoreReplace {
		if err := s.settingRepo.ReplaceAll(ctx, c.Settings); err != nil {
			return fmt.Errorf("restoring settings: %w", err)
		}
	} else {
		for k, v := range c.Settings {
			if err := s.settingRepo.Set(ctx, k, v); err != nil {
				return fmt.Errorf("restoring settings: %w", err)
			}
		}
	}
	report.Imported["settings"] = len(c.Settings)
	return nil
}

// ListBackups returns the backups on disk, newest first.
func (s *backupService) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("listing backups: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), BackupFileExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Name:      entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].CreatedAt.After(backups[j].CreatedAt) })
	return backups, nil
}

// BackupPath resolves a backup name to its on-disk path, rejecting names
// that try to escape the backup directory.
func (s *backupService) BackupPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || !strings.HasSuffix(name, BackupFileExt) {
		return "", fmt.Errorf("invalid backup name %q", name)
	}
	path := filepath.Join(s.backupDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("backup %q not found: %w", name, err)
	}
	return path, nil
}

func (s *backupService) DeleteBackup(ctx context.Context, userID, name string) error {
	path, err := s.BackupPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting backup: %w", err)
	}
	s.audit(ctx, userID, model.ActionDeleteBackup, name, nil)
	return nil
}

// audit writes a best-effort audit row; backup operations must not fail just
// because the audit insert did.
func (s *backupService) audit(ctx context.Context, userID, action, entityName string, details map[string]interface{}) {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}
	payload := "{}"
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			payload = string(raw)
		}
	}
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityName: entityName,
		Details:    payload,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("audit: failed to record %s: %v", action, err)
	}
}

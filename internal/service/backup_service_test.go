package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stockly/internal/backup"
	"stockly/internal/model"
	"stockly/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type backupFixture struct {
	svc          BackupService
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	clientRepo   repository.ClientRepository
	supplierRepo repository.SupplierRepository
	documentRepo repository.DocumentRepository
	settingRepo  repository.SettingRepository
	dir          string
}

func newBackupFixture(t *testing.T) *backupFixture {
	t.Helper()
	db := newTestDB(t)
	dir := t.TempDir()

	f := &backupFixture{
		itemRepo:     repository.NewItemRepository(db),
		categoryRepo: repository.NewCategoryRepository(db),
		clientRepo:   repository.NewClientRepository(db),
		supplierRepo: repository.NewSupplierRepository(db),
		documentRepo: repository.NewDocumentRepository(db),
		settingRepo:  repository.NewSettingRepository(db),
		dir:          dir,
	}
	f.svc = NewBackupService(
		f.itemRepo, f.categoryRepo, f.clientRepo, f.supplierRepo,
		f.documentRepo, f.settingRepo,
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		dir,
		backup.ProducerInfo{AppVersion: "test", Platform: "test"},
	)
	return f
}

func (f *backupFixture) seedStore(t *testing.T) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	if err := f.categoryRepo.Create(ctx, &model.Category{
		Name: "Rings",
		CustomFields: []model.CategoryField{
			{Name: "Ring Size", Kind: model.FieldKindNumber},
		},
	}); err != nil {
		t.Fatalf("seeding category: %v", err)
	}

	for _, item := range []model.Item{
		{Name: "Gold Band", SKU: "RING-0001", Category: "Rings", Price: 499, StockQuantity: 8, MeasurementUnit: model.UnitPiece},
		{Name: "Silver Band", SKU: "RING-0002", Category: "Rings", Price: 199, StockQuantity: 5, MeasurementUnit: model.UnitPiece},
	} {
		it := item
		if err := f.itemRepo.Create(ctx, &it); err != nil {
			t.Fatalf("seeding item: %v", err)
		}
	}

	if err := f.clientRepo.Create(ctx, &model.Client{Name: "Ada Lovelace"}); err != nil {
		t.Fatalf("seeding client: %v", err)
	}
	if err := f.supplierRepo.Create(ctx, &model.Supplier{Name: "Goldsmith Supply Co"}); err != nil {
		t.Fatalf("seeding supplier: %v", err)
	}

	invoice := &model.Document{
		Type:         model.DocTypeInvoice,
		Number:       "INV-0001",
		ClientName:   "Ada Lovelace",
		Status:       model.InvoiceStatusSent,
		DiscountType: model.DiscountPercentage,
		Items: []model.DocumentItem{
			{Name: "Ring resize", Quantity: 1, UnitPrice: decimal.NewFromInt(40), Position: 0},
			{Name: "Chain repair", Quantity: 2, UnitPrice: decimal.NewFromInt(30), Position: 1},
			{Name: "Engraving", Quantity: 1, UnitPrice: decimal.NewFromInt(15), Position: 2},
		},
	}
	if err := f.documentRepo.Create(ctx, invoice); err != nil {
		t.Fatalf("seeding invoice: %v", err)
	}

	estimate := &model.Document{
		Type:         model.DocTypeEstimate,
		Number:       "EST-0001",
		ClientName:   "Ada Lovelace",
		Status:       model.EstimateStatusDraft,
		DiscountType: model.DiscountPercentage,
		Items: []model.DocumentItem{
			{Name: "Custom pendant", Quantity: 1, UnitPrice: decimal.NewFromInt(900), Position: 0},
		},
	}
	if err := f.documentRepo.Create(ctx, estimate); err != nil {
		t.Fatalf("seeding estimate: %v", err)
	}

	if err := f.settingRepo.Set(ctx, model.SettingCurrency, "USD"); err != nil {
		t.Fatalf("seeding setting: %v", err)
	}
	return invoice.ID
}

// writeContainer writes a hand-built container to a backup file.
func writeContainer(t *testing.T, dir string, c map[string]interface{}) string {
	t.Helper()
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal container: %v", err)
	}
	path := filepath.Join(dir, "crafted"+BackupFileExt)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write container: %v", err)
	}
	return path
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newBackupFixture(t)
	ctx := context.Background()
	invoiceID := f.seedStore(t)

	path, err := f.svc.ExportAllData(ctx, "", "")
	if err != nil {
		t.Fatalf("ExportAllData: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if backup.LooksEncrypted(raw) {
		t.Fatal("plaintext export flagged as encrypted")
	}

	// Wipe the store, then restore from the file.
	if err := f.itemRepo.DeleteAll(ctx); err != nil {
		t.Fatalf("wiping items: %v", err)
	}
	if err := f.documentRepo.DeleteAllByType(ctx, model.DocTypeInvoice); err != nil {
		t.Fatalf("wiping invoices: %v", err)
	}

	report, err := f.svc.ImportAllData(ctx, "", path, "", RestoreReplace)
	if err != nil {
		t.Fatalf("ImportAllData: %v", err)
	}
	if len(report.Skipped) != 0 {
		t.Fatalf("unexpected skips: %+v", report.Skipped)
	}
	want := map[string]int{
		"items": 2, "categories": 1, "clients": 1, "suppliers": 1,
		"invoices": 1, "estimates": 1, "settings": 1,
	}
	for family, count := range want {
		if report.Imported[family] != count {
			t.Errorf("imported[%s] = %d, want %d", family, report.Imported[family], count)
		}
	}

	// Line items must come back attached to the restored invoice.
	doc, err := f.documentRepo.FindByID(ctx, invoiceID)
	if err != nil {
		t.Fatalf("restored invoice missing: %v", err)
	}
	if len(doc.Items) != 3 {
		t.Fatalf("restored invoice has %d line items, want 3", len(doc.Items))
	}
	for i, it := range doc.Items {
		if it.DocumentID == nil || *it.DocumentID != invoiceID {
			t.Errorf("line item %d not re-linked: %v", i, it.DocumentID)
		}
	}

	if v, ok, err := f.settingRepo.Get(ctx, model.SettingCurrency); err != nil || !ok || v != "USD" {
		t.Errorf("restored setting = %q ok=%v err=%v", v, ok, err)
	}
}

func TestExportEncryptedRoundTrip(t *testing.T) {
	f := newBackupFixture(t)
	ctx := context.Background()
	f.seedStore(t)

	path, err := f.svc.ExportAllData(ctx, "", "hunter2")
	if err != nil {
		t.Fatalf("ExportAllData: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !backup.LooksEncrypted(raw) {
		t.Fatal("encrypted export not flagged")
	}

	if _, err := f.svc.ImportAllData(ctx, "", path, "", RestoreReplace); err == nil {
		t.Fatal("import of encrypted backup without password succeeded")
	}
	if _, err := f.svc.ImportAllData(ctx, "", path, "wrong", RestoreReplace); err == nil {
		t.Fatal("import with wrong password succeeded")
	}

	report, err := f.svc.ImportAllData(ctx, "", path, "hunter2", RestoreReplace)
	if err != nil {
		t.Fatalf("ImportAllData with correct password: %v", err)
	}
	if report.Imported["items"] != 2 {
		t.Errorf("imported items = %d, want 2", report.Imported["items"])
	}
}

func TestImportSkipsBadRowsAndReports(t *testing.T) {
	f := newBackupFixture(t)
	ctx := context.Background()

	items := make([]map[string]interface{}, 0, 10)
	for i := 0; i < 10; i++ {
		rec := map[string]interface{}{
			"id":   uuid.NewString(),
			"name": "Item",
			"sku":  "SKU-" + string(rune('A'+i)),
		}
		if i == 3 {
			delete(rec, "sku")
		}
		items = append(items, rec)
	}
	path := writeContainer(t, f.dir, map[string]interface{}{
		"version": backup.CurrentVersion,
		"items":   items,
	})

	report, err := f.svc.ImportAllData(ctx, "", path, "", RestoreReplace)
	if err != nil {
		t.Fatalf("ImportAllData: %v", err)
	}
	if report.Imported["items"] != 9 {
		t.Errorf("imported items = %d, want 9", report.Imported["items"])
	}
	if len(report.Skipped) != 1 {
		t.Fatalf("skipped = %+v, want exactly one", report.Skipped)
	}
	s := report.Skipped[0]
	if s.Family != "items" || s.Index != 3 || !strings.Contains(s.Reason, "sku") {
		t.Errorf("skip entry = %+v", s)
	}
}

func TestImportReplaceClearsMergeKeeps(t *testing.T) {
	f := newBackupFixture(t)
	ctx := context.Background()

	seedExisting := func() {
		if err := f.itemRepo.Create(ctx, &model.Item{
			Name: "Pre-existing", SKU: "OLD-0001", MeasurementUnit: model.UnitPiece,
		}); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}
	seedExisting()

	path := writeContainer(t, f.dir, map[string]interface{}{
		"version": backup.CurrentVersion,
		"items": []map[string]interface{}{
			{"id": uuid.NewString(), "name": "Restored", "sku": "NEW-0001"},
		},
	})

	if _, err := f.svc.ImportAllData(ctx, "", path, "", RestoreReplace); err != nil {
		t.Fatalf("replace import: %v", err)
	}
	if _, err := f.itemRepo.FindBySKU(ctx, "OLD-0001"); err != gorm.ErrRecordNotFound {
		t.Errorf("replace left pre-existing item behind (err=%v)", err)
	}
	if _, err := f.itemRepo.FindBySKU(ctx, "NEW-0001"); err != nil {
		t.Errorf("replace did not restore item: %v", err)
	}

	seedExisting()
	if _, err := f.svc.ImportAllData(ctx, "", path, "", RestoreMerge); err != nil {
		t.Fatalf("merge import: %v", err)
	}
	if _, err := f.itemRepo.FindBySKU(ctx, "OLD-0001"); err != nil {
		t.Errorf("merge removed unrelated item: %v", err)
	}
	if _, err := f.itemRepo.FindBySKU(ctx, "NEW-0001"); err != nil {
		t.Errorf("merge did not restore item: %v", err)
	}
}

func TestImportMergeSkipsSKUConflicts(t *testing.T) {
	f := newBackupFixture(t)
	ctx := context.Background()

	if err := f.itemRepo.Create(ctx, &model.Item{
		Name: "Holder", SKU: "DUP-0001", MeasurementUnit: model.UnitPiece,
	}); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	path := writeContainer(t, f.dir, map[string]interface{}{
		"version": backup.CurrentVersion,
		"items": []map[string]interface{}{
			{"id": uuid.NewString(), "name": "Impostor", "sku": "DUP-0001"},
		},
	})

	report, err := f.svc.ImportAllData(ctx, "", path, "", RestoreMerge)
	if err != nil {
		t.Fatalf("ImportAllData: %v", err)
	}
	if report.Imported["items"] != 0 || len(report.Skipped) != 1 {
		t.Fatalf("report = %+v, want one sku conflict skip", report)
	}
	if !strings.Contains(report.Skipped[0].Reason, "DUP-0001") {
		t.Errorf("skip reason = %q", report.Skipped[0].Reason)
	}
}

func TestImportKeepsExistingCategoryWhenSectionAbsent(t *testing.T) {
	f := newBackupFixture(t)
	ctx := context.Background()

	if err := f.categoryRepo.Create(ctx, &model.Category{Name: "Rings"}); err != nil {
		t.Fatalf("seeding category: %v", err)
	}

	// No categories section: the existing category survives and must be in
	// the candidate set, or the item would collide with it on auto-create.
	path := writeContainer(t, f.dir, map[string]interface{}{
		"version": backup.CurrentVersion,
		"items": []map[string]interface{}{
			{"id": uuid.NewString(), "name": "Gold Band", "sku": "RING-0001", "category": "Rings"},
		},
	})

	for _, policy := range []RestorePolicy{RestoreReplace, RestoreMerge} {
		report, err := f.svc.ImportAllData(ctx, "", path, "", policy)
		if err != nil {
			t.Fatalf("ImportAllData(%s): %v", policy, err)
		}
		if report.Imported["items"] != 1 || len(report.Skipped) != 0 {
			t.Errorf("%s report = %+v, want 1 item and no skips", policy, report)
		}
	}
	if _, err := f.categoryRepo.FindByName(ctx, "Rings"); err != nil {
		t.Errorf("existing category lost: %v", err)
	}
}

func TestImportAutoCreatesUnknownCategories(t *testing.T) {
	f := newBackupFixture(t)
	ctx := context.Background()

	path := writeContainer(t, f.dir, map[string]interface{}{
		"version": backup.CurrentVersion,
		"items": []map[string]interface{}{
			{"id": uuid.NewString(), "name": "Orphan", "sku": "ORP-0001", "category": "Heirlooms"},
		},
	})

	if _, err := f.svc.ImportAllData(ctx, "", path, "", RestoreReplace); err != nil {
		t.Fatalf("ImportAllData: %v", err)
	}
	if _, err := f.categoryRepo.FindByName(ctx, "Heirlooms"); err != nil {
		t.Errorf("category not auto-created: %v", err)
	}
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	f := newBackupFixture(t)
	path := writeContainer(t, f.dir, map[string]interface{}{
		"version": backup.CurrentVersion + 1,
	})

	_, err := f.svc.ImportAllData(context.Background(), "", path, "", RestoreReplace)
	if err == nil || !strings.Contains(err.Error(), "version") {
		t.Fatalf("got %v, want version error", err)
	}
}

func TestListAndDeleteBackups(t *testing.T) {
	f := newBackupFixture(t)
	ctx := context.Background()

	path, err := f.svc.ExportAllData(ctx, "", "")
	if err != nil {
		t.Fatalf("ExportAllData: %v", err)
	}
	name := filepath.Base(path)

	backups, err := f.svc.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(backups) != 1 || backups[0].Name != name {
		t.Fatalf("backups = %+v, want just %s", backups, name)
	}

	if _, err := f.svc.BackupPath("../" + name); err == nil {
		t.Error("path traversal accepted")
	}
	if _, err := f.svc.BackupPath("nope.txt"); err == nil {
		t.Error("wrong extension accepted")
	}

	if err := f.svc.DeleteBackup(ctx, "", name); err != nil {
		t.Fatalf("DeleteBackup: %v", err)
	}
	backups, err = f.svc.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(backups) != 0 {
		t.Fatalf("backups after delete = %+v", backups)
	}
}

package application

import (
	"context"
	"errors"
	"testing"
	"time"

	stock "factory-ops/internal/stock/domain"
	stockmem "factory-ops/internal/stock/infrastructure/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newStockService(t *testing.T) (*Service, *stockmem.StockRepository) {
	t.Helper()
	repo := stockmem.NewStockRepository()
	service, err := NewService(repo, WithClock(fixedClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, repo
}

func seedRecord() *stock.ToolStock {
	return &stock.ToolStock{
		ToolName:        "DRILL-8MM",
		ATCPocketNo:     "P-04",
		CurrentStock:    20,
		MinimumStock:    5,
		MaximumStock:    50,
		ReorderLevel:    10,
		ReorderQuantity: 15,
		Unit:            "pieces",
	}
}

func TestCreateDerivesStatus(t *testing.T) {
	service, _ := newStockService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, seedRecord())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("no id assigned")
	}
	if created.Status != stock.StatusInStock {
		t.Fatalf("status = %s, want in_stock", created.Status)
	}

	dup := seedRecord()
	if _, err := service.Create(ctx, dup); !errors.Is(err, stock.ErrDuplicate) {
		t.Fatalf("duplicate create err = %v, want ErrDuplicate", err)
	}
}

func TestAddAndRemoveStock(t *testing.T) {
	service, _ := newStockService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, seedRecord())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	record, err := service.RemoveStock(ctx, created.ID, 12, "operator-1")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if record.CurrentStock != 8 {
		t.Fatalf("current = %d, want 8", record.CurrentStock)
	}
	if record.Status != stock.StatusLowStock {
		t.Fatalf("status = %s, want low_stock at 8 of reorder 10", record.Status)
	}

	record, err = service.RemoveStock(ctx, created.ID, 8, "operator-1")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if record.Status != stock.StatusOutOfStock {
		t.Fatalf("status = %s, want out_of_stock", record.Status)
	}

	record, err = service.AddStock(ctx, created.ID, 30, "storekeeper")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if record.CurrentStock != 30 || record.Status != stock.StatusInStock {
		t.Fatalf("after restock: %+v", record)
	}
	if record.LastRestockAt.IsZero() {
		t.Fatal("restock time not stamped")
	}
	if record.UpdatedBy != "storekeeper" {
		t.Fatalf("updated by = %q", record.UpdatedBy)
	}
}

func TestRemoveStockInsufficient(t *testing.T) {
	service, _ := newStockService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, seedRecord())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = service.RemoveStock(ctx, created.ID, 21, "operator-1")
	if !errors.Is(err, stock.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// The record is unchanged after the rejected withdrawal.
	record, err := service.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.CurrentStock != 20 {
		t.Fatalf("current = %d, want 20", record.CurrentStock)
	}
}

func TestQuantityMustBePositive(t *testing.T) {
	service, _ := newStockService(t)
	ctx := context.Background()
	created, _ := service.Create(ctx, seedRecord())

	if _, err := service.AddStock(ctx, created.ID, 0, ""); !errors.Is(err, stock.ErrInvalid) {
		t.Fatalf("zero add: err = %v, want ErrInvalid", err)
	}
	if _, err := service.RemoveStock(ctx, created.ID, -1, ""); !errors.Is(err, stock.ErrInvalid) {
		t.Fatalf("negative remove: err = %v, want ErrInvalid", err)
	}
}

func TestUpdateRederivesStatus(t *testing.T) {
	service, _ := newStockService(t)
	ctx := context.Background()
	created, _ := service.Create(ctx, seedRecord())

	// Raising the reorder level reclassifies the same quantity.
	reorder := 25
	record, err := service.Update(ctx, created.ID, UpdateInput{ReorderLevel: &reorder})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if record.Status != stock.StatusLowStock {
		t.Fatalf("status = %s, want low_stock with reorder raised to 25", record.Status)
	}
}

func TestListLowStock(t *testing.T) {
	service, _ := newStockService(t)
	ctx := context.Background()

	healthy := seedRecord()
	if _, err := service.Create(ctx, healthy); err != nil {
		t.Fatalf("create: %v", err)
	}
	low := seedRecord()
	low.ATCPocketNo = "P-05"
	low.CurrentStock = 9
	if _, err := service.Create(ctx, low); err != nil {
		t.Fatalf("create: %v", err)
	}

	records, err := service.ListLowStock(ctx)
	if err != nil {
		t.Fatalf("list low stock: %v", err)
	}
	if len(records) != 1 || records[0].ATCPocketNo != "P-05" {
		t.Fatalf("low stock records = %+v", records)
	}
}

func TestBatchCreateContinuesPastFailures(t *testing.T) {
	service, _ := newStockService(t)
	ctx := context.Background()

	first := seedRecord()
	dup := seedRecord()
	third := seedRecord()
	third.ATCPocketNo = "P-06"

	result, err := service.BatchCreate(ctx, []*stock.ToolStock{first, dup, third})
	if err != nil {
		t.Fatalf("batch create: %v", err)
	}
	if result.Created != 2 || result.Failed != 1 {
		t.Fatalf("result = %+v, want 2 created / 1 failed", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Index != 1 {
		t.Fatalf("errors = %+v, want the duplicate reported at index 1", result.Errors)
	}

	// The record after the failing one was persisted.
	if _, err := service.Get(ctx, third.ID); err != nil {
		t.Fatalf("third record not persisted: %v", err)
	}
}

func TestDeleteMissing(t *testing.T) {
	service, _ := newStockService(t)
	if err := service.Delete(context.Background(), "stock-missing"); !errors.Is(err, stock.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

package service_test

import (
	"context"
	"testing"

	"lanepos/internal/apperr"
	"lanepos/internal/dto"
	"lanepos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog() (service.CatalogService, *stubItemRepo) {
	itemRepo := newStubItemRepo()
	inv := service.NewInventoryService(itemRepo, &stubMovementRepo{})
	return service.NewCatalogService(itemRepo, inv, nil), itemRepo
}

func TestCreateItem_WithBarcodes(t *testing.T) {
	catalog, itemRepo := newCatalog()

	resp, err := catalog.CreateItem(context.Background(), dto.CreateItemRequest{
		Name:     "Trail Mix",
		Price:    decimal.NewFromFloat(7.49),
		TaxRate:  decimal.NewFromFloat(0.0875),
		Quantity: 12,
		Barcodes: []string{"3030303030303", "3030303030304"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Active)
	assert.Len(t, resp.Barcodes, 2)
	assert.Equal(t, 1, resp.PackSize) // defaulted

	// Both barcodes resolve to the same item.
	item, err := catalog.ResolveBarcode(context.Background(), "3030303030304")
	require.NoError(t, err)
	assert.Equal(t, resp.ID, item.ID.String())
	assert.Len(t, itemRepo.items, 1)
}

func TestResolveBarcode_InactiveItemHidden(t *testing.T) {
	catalog, itemRepo := newCatalog()
	item := seedItem(itemRepo, "Old Stock", "4040404040404", 2.00, 0, 5)

	require.NoError(t, catalog.DeactivateItem(context.Background(), item.ID))

	_, err := catalog.ResolveBarcode(context.Background(), "4040404040404")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	// Reactivating restores resolution.
	require.NoError(t, catalog.ReactivateItem(context.Background(), item.ID))
	_, err = catalog.ResolveBarcode(context.Background(), "4040404040404")
	assert.NoError(t, err)
}

func TestUpdateItem_FieldsApplied(t *testing.T) {
	catalog, itemRepo := newCatalog()
	item := seedItem(itemRepo, "Cereal", "5050505050505", 4.99, 0.05, 8)

	resp, err := catalog.UpdateItem(context.Background(), item.ID, dto.UpdateItemRequest{
		Name:    "Cereal Family Size",
		Price:   decimal.NewFromFloat(6.99),
		TaxRate: decimal.NewFromFloat(0.06),
	})
	require.NoError(t, err)
	assert.Equal(t, "Cereal Family Size", resp.Name)
	assert.Equal(t, "6.99", resp.Price.String())
	// Quantity untouched by edits.
	assert.Equal(t, 8, resp.Quantity)
}

func TestBarcodeManagement(t *testing.T) {
	catalog, itemRepo := newCatalog()
	item := seedItem(itemRepo, "Yogurt", "6060606060606", 1.25, 0, 30)

	require.NoError(t, catalog.AddBarcode(context.Background(), item.ID, "6060606060607"))
	_, err := catalog.ResolveBarcode(context.Background(), "6060606060607")
	assert.NoError(t, err)

	require.NoError(t, catalog.RemoveBarcode(context.Background(), item.ID, "6060606060607"))
	_, err = catalog.ResolveBarcode(context.Background(), "6060606060607")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	// Unknown item rejected.
	err = catalog.AddBarcode(context.Background(), uuid.New(), "7070707070707")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestListItems_ActiveFilter(t *testing.T) {
	catalog, itemRepo := newCatalog()
	a := seedItem(itemRepo, "Active One", "8080808080808", 1.00, 0, 1)
	b := seedItem(itemRepo, "Inactive One", "9090909090909", 1.00, 0, 1)
	_ = a
	require.NoError(t, catalog.DeactivateItem(context.Background(), b.ID))

	resp, err := catalog.ListItems(context.Background(), dto.ItemFilter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)

	all, err := catalog.ListItems(context.Background(), dto.ItemFilter{Active: "all", Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
}

func TestAdjustStock_DelegatesToInventory(t *testing.T) {
	catalog, itemRepo := newCatalog()
	item := seedItem(itemRepo, "Candles", "1212121212121", 3.00, 0, 5)

	resp, err := catalog.AdjustStock(context.Background(), item.ID, dto.AdjustStockRequest{Delta: -2, Reason: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Quantity)
}

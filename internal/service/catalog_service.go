package service

import (
	"context"

	"lanepos/internal/apperr"
	"lanepos/internal/dto"
	"lanepos/internal/model"
	"lanepos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PriceCachePrefix is the redis key prefix for cached price-check responses.
// The price-check handler populates these; the catalog invalidates them on
// every item edit so a stale price is bounded by the write, not the TTL.
const PriceCachePrefix = "price:"

// CatalogService owns item CRUD and barcode resolution. The ledger consumes
// only ResolveBarcode; everything else is the thin management surface.
type CatalogService interface {
	// ResolveBarcode returns the single active item for a barcode, or NotFound.
	ResolveBarcode(ctx context.Context, code string) (*model.Item, error)

	CreateItem(ctx context.Context, req dto.CreateItemRequest) (*dto.ItemResponse, error)
	GetItem(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error)
	ListItems(ctx context.Context, filter dto.ItemFilter) (*dto.ItemListResponse, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req dto.UpdateItemRequest) (*dto.ItemResponse, error)
	DeactivateItem(ctx context.Context, id uuid.UUID) error
	ReactivateItem(ctx context.Context, id uuid.UUID) error

	AddBarcode(ctx context.Context, itemID uuid.UUID, code string) error
	RemoveBarcode(ctx context.Context, itemID uuid.UUID, code string) error

	AdjustStock(ctx context.Context, itemID uuid.UUID, req dto.AdjustStockRequest) (*dto.ItemResponse, error)
}

type catalogService struct {
	repo      repository.ItemRepository
	inventory InventoryService
	rdb       *redis.Client // nil in unit tests
}

func NewCatalogService(repo repository.ItemRepository, inventory InventoryService, rdb *redis.Client) CatalogService {
	return &catalogService{repo: repo, inventory: inventory, rdb: rdb}
}

func (s *catalogService) ResolveBarcode(ctx context.Context, code string) (*model.Item, error) {
	item, err := s.repo.FindByBarcode(ctx, code)
	if err != nil {
		return nil, apperr.Newf(apperr.NotFound, "no active item matches barcode %q", code)
	}
	return item, nil
}

func (s *catalogService) CreateItem(ctx context.Context, req dto.CreateItemRequest) (*dto.ItemResponse, error) {
	packSize := req.PackSize
	if packSize < 1 {
		packSize = 1
	}
	item := &model.Item{
		ID:       uuid.New(),
		Name:     req.Name,
		Price:    req.Price,
		TaxRate:  req.TaxRate,
		Quantity: req.Quantity,
		Cost:     req.Cost,
		PackSize: packSize,
		Active:   true,
	}
	for _, code := range req.Barcodes {
		item.Barcodes = append(item.Barcodes, model.Barcode{ID: uuid.New(), ItemID: item.ID, Code: code})
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return itemToResponse(item), nil
}

func (s *catalogService) GetItem(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "item not found")
	}
	return itemToResponse(item), nil
}

func (s *catalogService) ListItems(ctx context.Context, filter dto.ItemFilter) (*dto.ItemListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		data = append(data, *itemToResponse(&items[i]))
	}
	return &dto.ItemListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *catalogService) UpdateItem(ctx context.Context, id uuid.UUID, req dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "item not found")
	}
	item.Name = req.Name
	item.Price = req.Price
	item.TaxRate = req.TaxRate
	item.Cost = req.Cost
	if req.PackSize >= 1 {
		item.PackSize = req.PackSize
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	s.invalidatePriceCache(ctx, item)
	return itemToResponse(item), nil
}

func (s *catalogService) DeactivateItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperr.New(apperr.NotFound, "item not found")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.invalidatePriceCache(ctx, item)
	return nil
}

func (s *catalogService) ReactivateItem(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apperr.New(apperr.NotFound, "item not found")
	}
	return s.repo.Reactivate(ctx, id)
}

func (s *catalogService) AddBarcode(ctx context.Context, itemID uuid.UUID, code string) error {
	if _, err := s.repo.FindByID(ctx, itemID); err != nil {
		return apperr.New(apperr.NotFound, "item not found")
	}
	return s.repo.AddBarcode(ctx, &model.Barcode{ID: uuid.New(), ItemID: itemID, Code: code})
}

func (s *catalogService) RemoveBarcode(ctx context.Context, itemID uuid.UUID, code string) error {
	if err := s.repo.RemoveBarcode(ctx, itemID, code); err != nil {
		return err
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, PriceCachePrefix+code).Err(); err != nil {
			log.Warn().Err(err).Str("barcode", code).Msg("catalog: price cache invalidation failed")
		}
	}
	return nil
}

func (s *catalogService) AdjustStock(ctx context.Context, itemID uuid.UUID, req dto.AdjustStockRequest) (*dto.ItemResponse, error) {
	item, err := s.inventory.Adjust(ctx, itemID, req.Delta, req.Reason)
	if err != nil {
		return nil, err
	}
	return itemToResponse(item), nil
}

// invalidatePriceCache drops every cached price entry for the item's barcodes.
// Best-effort: a failed DEL only means the stale entry lives until its TTL.
func (s *catalogService) invalidatePriceCache(ctx context.Context, item *model.Item) {
	if s.rdb == nil {
		return
	}
	barcodes := item.Barcodes
	if len(barcodes) == 0 {
		var err error
		barcodes, err = s.repo.ListBarcodes(ctx, item.ID)
		if err != nil {
			log.Warn().Err(err).Str("item_id", item.ID.String()).Msg("catalog: listing barcodes for cache invalidation failed")
			return
		}
	}
	for _, b := range barcodes {
		if err := s.rdb.Del(ctx, PriceCachePrefix+b.Code).Err(); err != nil {
			log.Warn().Err(err).Str("barcode", b.Code).Msg("catalog: price cache invalidation failed")
		}
	}
}

func itemToResponse(item *model.Item) *dto.ItemResponse {
	codes := make([]string, 0, len(item.Barcodes))
	for _, b := range item.Barcodes {
		codes = append(codes, b.Code)
	}
	return &dto.ItemResponse{
		ID:       item.ID.String(),
		Name:     item.Name,
		Price:    item.Price,
		TaxRate:  item.TaxRate,
		Quantity: item.Quantity,
		Cost:     item.Cost,
		PackSize: item.PackSize,
		Active:   item.Active,
		Barcodes: codes,
	}
}

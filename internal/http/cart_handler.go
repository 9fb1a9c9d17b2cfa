package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/pricing"
	"github.com/go-chi/chi/v5"
)

// ProductClient is the slice of the commerce API the cart handlers need.
type ProductClient interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

type CartHandler struct {
	store   *cart.Store
	catalog ProductClient
	timeout time.Duration
}

func NewCartHandler(store *cart.Store, catalog ProductClient, timeout time.Duration) *CartHandler {
	return &CartHandler{
		store:   store,
		catalog: catalog,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	OptionID  int64 `json:"option_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartSummaryDTO struct {
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"item_count"`
}

type CartResponseDTO struct {
	Items   []domain.CartLine `json:"items"`
	Summary CartSummaryDTO    `json:"summary"`
	Capped  bool              `json:"capped,omitempty"`
}

func cartResponse(lines []domain.CartLine, capped bool) CartResponseDTO {
	subtotal := pricing.Subtotal(lines)
	return CartResponseDTO{
		Items: lines,
		Summary: CartSummaryDTO{
			Subtotal:  pricing.RoundDisplay(subtotal),
			Tax:       pricing.RoundDisplay(pricing.Tax(subtotal)),
			Total:     pricing.RoundDisplay(pricing.GrandTotal(lines)),
			ItemCount: pricing.ItemCount(lines),
		},
		Capped: capped,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	// Re-read storage so changes from other entry points are visible.
	if err := h.store.Load(ctx); err != nil {
		if aborted(r.Context()) {
			return
		}
		respondError(w, http.StatusInternalServerError, "storage_error", "could not read cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(h.store.Lines(), false))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.OptionID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_option_id", "option_id must be positive")
		return
	}
	// Over-stock quantities are clamped against the option's stock below,
	// so only non-positive values are rejected outright.
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
		return
	}

	// Catalog data is authoritative: price, discount, stock and image come
	// from the product detail, never from the client.
	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		if aborted(r.Context()) {
			return
		}
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusBadGateway, "catalog_error", err.Error())
		return
	}

	line, ok := lineFromProduct(product, req.OptionID, req.Quantity)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "product option not found")
		return
	}
	if line.StockCap <= 0 {
		respondError(w, http.StatusConflict, "out_of_stock", "option is out of stock")
		return
	}

	if err := h.store.Load(ctx); err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", "could not read cart")
		return
	}
	capped, err := h.store.AddOrMerge(ctx, line)
	if err != nil {
		if aborted(r.Context()) {
			return
		}
		respondError(w, http.StatusInternalServerError, "storage_error", "could not persist cart")
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(h.store.Lines(), capped))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "line_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.store.Load(ctx); err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", "could not read cart")
		return
	}
	if err := h.store.SetQuantity(ctx, lineID, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "cart line not found")
			return
		}
		if aborted(r.Context()) {
			return
		}
		respondError(w, http.StatusInternalServerError, "storage_error", "could not persist cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(h.store.Lines(), false))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "line_id is required")
		return
	}

	if err := h.store.Load(ctx); err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", "could not read cart")
		return
	}
	if err := h.store.Remove(ctx, lineID); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "cart line not found")
			return
		}
		if aborted(r.Context()) {
			return
		}
		respondError(w, http.StatusInternalServerError, "storage_error", "could not persist cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(h.store.Lines(), false))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.Clear(ctx); err != nil {
		if aborted(r.Context()) {
			return
		}
		respondError(w, http.StatusInternalServerError, "storage_error", "could not persist cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(h.store.Lines(), false))
}

// lineFromProduct resolves the requested option inside the product detail and
// builds the cart line from its catalog data.
func lineFromProduct(p *catalog.Product, optionID int64, quantity int) (domain.CartLine, bool) {
	for _, color := range p.Colors {
		for _, opt := range color.Options {
			if opt.ID != optionID {
				continue
			}
			image := color.ImageURL
			if image == "" {
				image = domain.FallbackImageURL
			}
			line := domain.CartLine{
				LineID:          domain.MakeLineID(p.ID, opt.ID),
				ProductID:       p.ID,
				OptionID:        opt.ID,
				ProductName:     p.Name,
				Color:           color.Color,
				Size:            opt.Size,
				UnitPrice:       opt.Price,
				DiscountPercent: opt.DiscountPercentage,
				ImageURL:        image,
				Quantity:        quantity,
				StockCap:        opt.Stock,
			}
			return line, true
		}
	}
	return domain.CartLine{}, false
}

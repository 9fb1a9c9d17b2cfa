// Package catalog is the HTTP client for the external commerce API: product
// detail lookups and purchase submission. The API is a collaborator; its
// wire shapes are mirrored here and nowhere else.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

var ErrProductNotFound = errors.New("product not found")

type ProductOption struct {
	ID                 int64   `json:"id"`
	Size               string  `json:"size"`
	Price              float64 `json:"price"`
	DiscountPercentage int     `json:"discount_percentage"`
	Stock              int     `json:"stock"`
}

type ProductColor struct {
	ID        int64           `json:"id"`
	Color     string          `json:"color"`
	ImageURL  string          `json:"image_url"`
	ImageURL2 string          `json:"image_url_2"`
	Options   []ProductOption `json:"options"`
}

type Product struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Materials   string         `json:"materials"`
	Sex         string         `json:"sex"`
	Type        string         `json:"type"`
	Colors      []ProductColor `json:"colors"`
}

// PurchaseRequest is one cart line's purchase call.
type PurchaseRequest struct {
	ProductOptionID int64
	Quantity        int
	PaymentMethod   string
	ShippingAddress string
	Notes           string
}

type productResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Product *Product `json:"product"`
}

type purchaseResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	sfg        singleflight.Group // Collapses concurrent lookups of one product
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	settings := gobreaker.Settings{
		Name: "commerce-api",
		// A canceled request is the caller navigating away, not an API
		// failure; it must not trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// GetProduct fetches one product's catalog detail by id.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	v, err, _ := c.sfg.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/products/%d", c.baseURL, id), "", nil)
		if err != nil {
			return nil, err
		}

		var resp productResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("malformed product response: %w", err)
		}
		if !resp.Success || resp.Product == nil {
			if resp.Error != "" {
				return nil, fmt.Errorf("product fetch failed: %s", resp.Error)
			}
			return nil, ErrProductNotFound
		}
		return resp.Product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Product), nil
}

// SubmitPurchase submits one purchase, form-encoded. A transport failure,
// non-success status or malformed response is an error; the API's own error
// message is preserved when it sends one.
func (c *Client) SubmitPurchase(ctx context.Context, req PurchaseRequest) error {
	form := url.Values{}
	form.Set("product_option_id", strconv.FormatInt(req.ProductOptionID, 10))
	form.Set("quantity", strconv.Itoa(req.Quantity))
	form.Set("payment_method", req.PaymentMethod)
	form.Set("shipping_address", req.ShippingAddress)
	form.Set("notes", req.Notes)

	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/purchases",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}

	var resp purchaseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("malformed purchase response: %w", err)
	}
	if !resp.Success {
		if resp.Error != "" {
			return fmt.Errorf("purchase rejected: %s", resp.Error)
		}
		return errors.New("purchase rejected")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, target, contentType string, body io.Reader) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("commerce api request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("commerce api returned status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		return data, nil
	})
}

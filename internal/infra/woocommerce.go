package infra

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WooProduct is the subset of the WooCommerce REST v3 product resource the
// synchronizer consumes.
type WooProduct struct {
	ID           int64  `json:"id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Status       string `json:"status"` // "publish" → active locally
	Price        string `json:"price"`
	RegularPrice string `json:"regular_price"`
	StockQty     *int   `json:"stock_quantity"`
	Categories   []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"categories"`
	Images []struct {
		Src string `json:"src"`
	} `json:"images"`
}

// WooOrder is the subset of the order resource consumed by order sync.
type WooOrder struct {
	ID            int64  `json:"id"`
	Status        string `json:"status"`
	Total         string `json:"total"`
	TotalTax      string `json:"total_tax"`
	PaymentMethod string `json:"payment_method"`
	Billing       struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Address1  string `json:"address_1"`
		City      string `json:"city"`
	} `json:"billing"`
	LineItems []WooLineItem `json:"line_items"`
}

type WooLineItem struct {
	ProductID int64           `json:"product_id"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     string          `json:"total"`
}

// DecimalField parses WooCommerce's stringly-typed money fields, treating
// empty strings as zero.
func DecimalField(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// WooCredentials identifies one store. Clients are constructed per call site
// from these values; there is no shared client singleton.
type WooCredentials struct {
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string
}

// WooClient talks to the WooCommerce REST API v3 with Basic auth. Calls block
// for at most the HTTP client timeout and are never retried here — a failed
// fetch is terminal for the caller's page loop.
type WooClient struct {
	creds      WooCredentials
	httpClient *http.Client
}

func NewWooClient(creds WooCredentials) *WooClient {
	return &WooClient{
		creds:      creds,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *WooClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := strings.TrimRight(c.creds.StoreURL, "/") + "/wp-json/wc/v3" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("woocommerce: create request: %w", err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.creds.ConsumerKey + ":" + c.creds.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("woocommerce: store unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("woocommerce: store returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("woocommerce: decode response: %w", err)
	}
	return nil
}

// Products fetches one catalog page.
func (c *WooClient) Products(ctx context.Context, page, perPage int) ([]WooProduct, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var products []WooProduct
	if err := c.get(ctx, "/products", q, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Orders fetches one page of completed orders, newest first.
func (c *WooClient) Orders(ctx context.Context, page, perPage int) ([]WooOrder, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("status", "completed")
	q.Set("orderby", "date")
	q.Set("order", "desc")

	var orders []WooOrder
	if err := c.get(ctx, "/orders", q, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Ping performs a minimal single-product fetch to validate credentials.
func (c *WooClient) Ping(ctx context.Context) error {
	_, err := c.Products(ctx, 1, 1)
	return err
}

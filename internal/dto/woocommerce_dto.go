package dto

// SaveConnectionRequest stores or replaces the active store credentials.
type SaveConnectionRequest struct {
	StoreURL       string `json:"store_url"       validate:"required,url"`
	ConsumerKey    string `json:"consumer_key"    validate:"required"`
	ConsumerSecret string `json:"consumer_secret" validate:"required"`
	SyncProducts   bool   `json:"sync_products"`
	SyncOrders     bool   `json:"sync_orders"`
}

// TestConnectionRequest carries credentials for a one-shot connectivity probe;
// nothing is persisted.
type TestConnectionRequest struct {
	StoreURL       string `json:"store_url"       validate:"required,url"`
	ConsumerKey    string `json:"consumer_key"    validate:"required"`
	ConsumerSecret string `json:"consumer_secret" validate:"required"`
}

// ConnectionResponse never echoes the consumer secret.
type ConnectionResponse struct {
	ID           string  `json:"id"`
	StoreURL     string  `json:"store_url"`
	ConsumerKey  string  `json:"consumer_key"`
	SyncProducts bool    `json:"sync_products"`
	SyncOrders   bool    `json:"sync_orders"`
	LastSync     *string `json:"last_sync"`
	Active       bool    `json:"active"`
}

// ProductSyncResult summarizes one catalog sync run.
type ProductSyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// OrderSyncResult summarizes one order sync run. Per-order failures are
// collected in Errors; only a failed page fetch aborts the run.
type OrderSyncResult struct {
	Synced  int      `json:"synced"`
	Skipped int      `json:"skipped"`
	Total   int      `json:"total"`
	Errors  []string `json:"errors,omitempty"`
}

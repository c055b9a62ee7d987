package types

import "time"

type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand,omitempty"`
	Category      string  `json:"category,omitempty"`
	PurchasePrice float64 `json:"purchase_price"`
	SellingPrice  float64 `json:"selling_price"`
	Stock         int     `json:"stock"`
}

type BillItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Profit    float64 `json:"profit"`
}

type Bill struct {
	ID           string     `json:"bill_id"`
	CustomerName string     `json:"customer_name"`
	VehicleInfo  string     `json:"vehicle_info,omitempty"`
	Items        []BillItem `json:"items"`
	Subtotal     float64    `json:"subtotal"`
	Profit       float64    `json:"profit"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Event struct {
	Type    string         `json:"type"`
	Ts      time.Time      `json:"timestamp"`
	Payload map[string]any `json:"payload,omitempty"`
}

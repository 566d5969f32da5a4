package models

import (
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/sales"
)

type FilterOptions struct {
	Cities        []string `json:"cities"`
	CustomerTypes []string `json:"customer_types"`
	Genders       []string `json:"genders"`
}

type Summary struct {
	Rows       int             `json:"rows"`
	Columns    int             `json:"columns"`
	Cities     []string        `json:"cities"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

type HourlySales struct {
	Hour         int             `json:"hour"`
	Transactions int             `json:"transactions"`
	Sales        decimal.Decimal `json:"sales"`
}

type TransactionRow struct {
	OrderID string            `json:"order_id"`
	Values  map[string]string `json:"values"`
}

type TransactionPage struct {
	Columns []string         `json:"columns"`
	Rows    []TransactionRow `json:"rows"`
	Summary Summary          `json:"summary"`
}

type DatasetStatus struct {
	Loaded    bool                `json:"loaded"`
	Path      string              `json:"path"`
	Sheet     string              `json:"sheet"`
	// ErrorKind encodes as its snake_case name, omitted after a good load.
	ErrorKind sales.LoadErrorKind `json:"error_kind,omitempty"`
	Message   string              `json:"message,omitempty"`
	LoadedAt  time.Time           `json:"loaded_at"`
}

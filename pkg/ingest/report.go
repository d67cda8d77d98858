package ingest

const (
	TableCustomers  = "customers"
	TableSellers    = "sellers"
	TableProducts   = "products"
	TableOrders     = "orders"
	TableOrderItems = "order_items"
	TablePayments   = "payments"
)

// LoadOrder is the foreign-key-safe write order. Reset truncates in reverse.
var LoadOrder = []string{TableCustomers, TableSellers, TableProducts, TableOrders, TableOrderItems, TablePayments}

// Drop reasons
const (
	ReasonMissingKey          = "missing_key"
	ReasonDuplicate           = "duplicate"
	ReasonMissingDate         = "missing_date"
	ReasonUnparseableDate     = "unparseable_date"
	ReasonUnknownOrder        = "unknown_order"
	ReasonInvalidAmount       = "invalid_amount"
	ReasonInvalidInstallments = "invalid_installments"
)

type TableReport struct {
	Read    int            `json:"read"`
	Dropped map[string]int `json:"dropped,omitempty"`
	Written int64          `json:"written"`
}

func (r *TableReport) drop(reason string) {
	if r.Dropped == nil {
		r.Dropped = make(map[string]int)
	}
	r.Dropped[reason]++
}

// Kept is the number of rows that survived cleaning.
func (r *TableReport) Kept() int {
	kept := r.Read
	for _, n := range r.Dropped {
		kept -= n
	}
	return kept
}

// Report accounts for every row of a run, per destination table.
type Report struct {
	RunID  string                  `json:"run_id"`
	DryRun bool                    `json:"dry_run"`
	Tables map[string]*TableReport `json:"tables"`
}

func NewReport(runID string) *Report {
	r := &Report{
		RunID:  runID,
		Tables: make(map[string]*TableReport, len(LoadOrder)),
	}
	for _, table := range LoadOrder {
		r.Tables[table] = &TableReport{}
	}
	return r
}

func (r *Report) Table(name string) *TableReport {
	t, ok := r.Tables[name]
	if !ok {
		t = &TableReport{}
		r.Tables[name] = t
	}
	return t
}

// Written returns rows written per table.
func (r *Report) Written() map[string]int64 {
	out := make(map[string]int64, len(r.Tables))
	for name, t := range r.Tables {
		out[name] = t.Written
	}
	return out
}

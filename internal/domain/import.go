package domain

// ClientImportRow is one data row of the client spreadsheet. Line is the
// 1-based sheet row it came from.
type ClientImportRow struct {
	Line    int
	TaxID   string
	Name    string
	Address string
	Phone   string
	Email   string
}

// OrderImportRow is one data row of the order spreadsheet.
type OrderImportRow struct {
	Line        int
	ClientTaxID string
	Date        string
	Description string
	Status      string
}

// SkippedRow records an import row that was not inserted and why.
type SkippedRow struct {
	File   string
	Line   int
	Reason string
}

// ImportReport summarizes one importer run.
type ImportReport struct {
	ClientsInserted int
	OrdersInserted  int
	Skipped         []SkippedRow
}

package dto

// TableRow is one recovered line of a delivery note item table.
// QuantityOrdered is never empty for an emitted row.
type TableRow struct {
	LineNo            string `json:"line_no,omitempty"`
	Code              string `json:"code"`
	QuantityOrdered   string `json:"quantity_ordered"`
	QuantityDelivered string `json:"quantity_delivered"`
	Description       string `json:"description,omitempty"`
}

// InvoiceItem is one priced line of an invoice. Values are kept as printed.
type InvoiceItem struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	Unit       string `json:"unit"`
	UnitPrice  string `json:"unit_price"`
	ValueNet   string `json:"value_net"`
	VATRate    string `json:"vat_rate"`
	VATValue   string `json:"vat_value"`
	GrossValue string `json:"gross_value"`
}

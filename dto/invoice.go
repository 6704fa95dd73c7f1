package dto

type InvoiceSeller struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	NIP           string `json:"nip"`
	Bank          string `json:"bank"`
	AccountNumber string `json:"account_number"`
	BDO           string `json:"bdo"`
}

type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	NIP     string `json:"nip"`
}

type Recipient struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type InvoiceDetails struct {
	Number        string `json:"number"`
	IssueDate     string `json:"issue_date"`
	SaleDate      string `json:"sale_date"`
	PaymentMethod string `json:"payment_method"`
	OrderNumber   string `json:"order_number"`
}

// InvoiceRecord is the structured result of reading a sales invoice (FV).
// Every field is always serialized; missing values are empty strings.
type InvoiceRecord struct {
	Seller        InvoiceSeller  `json:"seller"`
	Buyer         Party          `json:"buyer"`
	Recipient     Recipient      `json:"recipient"`
	Invoice       InvoiceDetails `json:"invoice"`
	Items         []InvoiceItem  `json:"items"`
	TotalItems    int            `json:"total_items"`
	UncleanedText string         `json:"uncleaned_text"`
	Source        *SourceInfo    `json:"source,omitempty"`
}

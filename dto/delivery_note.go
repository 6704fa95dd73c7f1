package dto

const DeliveryNoteDocumentType = "DOKUMENT DOSTAWY"

type DeliveryNoteSeller struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	NIP           string `json:"nip"`
	Bank          string `json:"bank"`
	AccountNumber string `json:"account_number"`
}

type DeliveryInfo struct {
	Address string `json:"address"`
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
}

type DeliveryDates struct {
	OrderDate    string `json:"order_date"`
	DeliveryDate string `json:"delivery_date"`
}

// Representative is a person block printed as "<label> <id> <name>".
type Representative struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DeliveryNoteRecord is the structured result of reading a delivery note (WZ).
type DeliveryNoteRecord struct {
	DocumentType        string             `json:"document_type"`
	DocumentNumber      string             `json:"document_number"`
	OrderNumber         string             `json:"order_number"`
	ClientNumber        string             `json:"client_number"`
	ReferenceNumber     string             `json:"reference_number"`
	Seller              DeliveryNoteSeller `json:"seller"`
	Buyer               Party              `json:"buyer"`
	Delivery            DeliveryInfo       `json:"delivery"`
	Dates               DeliveryDates      `json:"dates"`
	SalesRepresentative Representative     `json:"sales_representative"`
	AccountManager      Representative     `json:"account_manager"`
	Items               []TableRow         `json:"items"`
	TotalItems          int                `json:"total_items"`
	Remarks             string             `json:"remarks"`
	UncleanedText       string             `json:"uncleaned_text"`
	Source              *SourceInfo        `json:"source,omitempty"`
}

// Package deliverynote reads Lyreco delivery notes ("WZ", Dokument Dostawy)
// from OCR text.
package deliverynote

import (
	"regexp"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/Aashish23092/ocr-invoice-extraction/utils"
)

var fields = utils.NewFieldTable[dto.DeliveryNoteRecord]().
	Add("document_number", `DOKUMENT\s+DOSTAWY\s+(\d+)`,
		func(r *dto.DeliveryNoteRecord, v string) { r.DocumentNumber = v }).
	Add("client_number", `Nr\s+Klient[a-z]*\s+(\d+)`,
		func(r *dto.DeliveryNoteRecord, v string) { r.ClientNumber = v }).
	Add("reference_number", `(?:Nr|Numer)\s+referencyjny\s*[:\-]?\s*([^\n]+)`,
		func(r *dto.DeliveryNoteRecord, v string) { r.ReferenceNumber = v }).
	Add("seller.name", `LYRECO\s+POLSKA\s+S\.A\.`,
		func(r *dto.DeliveryNoteRecord, v string) { r.Seller.Name = v }).
	Add("seller.address", `ul\.\s+[^\n]+Komor[oó]w`,
		func(r *dto.DeliveryNoteRecord, v string) { r.Seller.Address = v }).
	Add("seller.bank", `BNP\s+Paribas\s+Bank\s+Polska\s+SA`,
		func(r *dto.DeliveryNoteRecord, v string) { r.Seller.Bank = v }).
	Add("seller.account_number", `\b(\d{26})\b`,
		func(r *dto.DeliveryNoteRecord, v string) { r.Seller.AccountNumber = v }).
	Add("buyer.name", `Nabywca\s*[:\-]?[ \t]*([^\n]+)`,
		func(r *dto.DeliveryNoteRecord, v string) { r.Buyer.Name = v }).
	Add("buyer.address", `Nabywca[^\n]*\n\s*([^\n]+)`,
		func(r *dto.DeliveryNoteRecord, v string) { r.Buyer.Address = v }).
	Add("delivery.address", `Adres\s+dostawy\s*[:\-]?\s*([^\n]+)`,
		func(r *dto.DeliveryNoteRecord, v string) { r.Delivery.Address = v }).
	Add("delivery.contact", `Osoba\s+kontaktowa\s*[:\-]?\s*([^\n]+)`,
		func(r *dto.DeliveryNoteRecord, v string) { r.Delivery.Contact = v }).
	Add("delivery.phone", `\bTel(?:efon)?\.?\s*[:\-]?\s*(\+?\d[\d \-]{6,}\d)`,
		func(r *dto.DeliveryNoteRecord, v string) { r.Delivery.Phone = v }).
	Add("dates.order_date", `Data\s+Zam[oó]wienia\s+(\d{2}\.\d{2}\.\d{4})`,
		func(r *dto.DeliveryNoteRecord, v string) { r.Dates.OrderDate = v }).
	Add("dates.delivery_date", `Data\s+Dostawy\s+(\d{2}\.\d{2}\.\d{4})`,
		func(r *dto.DeliveryNoteRecord, v string) { r.Dates.DeliveryDate = v }).
	Add("sales_representative.id", `Przedstawiciel\s+handlowy\s*[:\-]?\s*(\d+)`,
		func(r *dto.DeliveryNoteRecord, v string) { r.SalesRepresentative.ID = v }).
	Add("sales_representative.name", `Przedstawiciel\s+handlowy\s*[:\-]?\s*\d+\s+(\S+)`,
		func(r *dto.DeliveryNoteRecord, v string) { r.SalesRepresentative.Name = v }).
	Add("account_manager.id", `Opiekun\s+klienta\s*[:\-]?\s*(\d+)`,
		func(r *dto.DeliveryNoteRecord, v string) { r.AccountManager.ID = v }).
	Add("account_manager.name", `Opiekun\s+klienta\s*[:\-]?\s*\d+\s+(\S+)`,
		func(r *dto.DeliveryNoteRecord, v string) { r.AccountManager.Name = v }).
	Add("remarks", `UWAGA:.*`,
		func(r *dto.DeliveryNoteRecord, v string) { r.Remarks = v })

var (
	sellerTaxID = utils.SellerTaxIDPattern(utils.StrictTaxIDShape)

	// The label is sometimes lost by OCR while the number survives, so the
	// labelled 7-10 digit value is preferred and the last long digit run in
	// the whole text is the fallback.
	labelledOrderNumber = utils.MustFieldPattern("order_number", `Nr\s+Zam[oó]wienia\s*[:\-]?\s*(\d{7,10})\b`)
	anyOrderNumber      = utils.MustFieldPattern("order_number", `\b(\d{8,})\b`)
)

// RowPattern is the item line layout:
//
//	10   20.483.639   5   5   Papier ksero A4
//
// line number, product code, ordered quantity, optional delivered quantity,
// optional description.
var RowPattern = utils.MustRowPattern(`^\s*` +
	`(?:(?P<line>\d{1,4})\s+)?` +
	`(?P<code>\d{2}\.\d{3}\.?\s*\d{3})\s+` +
	`(?P<qty_ordered>\S+)` +
	`(?:\s+(?P<qty_delivered>\S+))?` +
	`(?:\s+(?P<desc>.*\S))?\s*$`)

// StopPattern marks the "no further delivery in the upcoming period" section
// printed below the table; nothing after it is an item.
var StopPattern = regexp.MustCompile(`(?i)do\s+dostawy\s+w\s+najbliższym\s+okresie`)

var scanner = utils.NewTableRowScanner(RowPattern, StopPattern)

// Parse builds a delivery note record from OCR text. It never fails; fields
// that cannot be found are left empty.
func Parse(text string) dto.DeliveryNoteRecord {
	rec, _ := ParseDetailed(text)
	return rec
}

// ParseDetailed is Parse plus the outcome of every field lookup and the table
// scan report.
func ParseDetailed(text string) (dto.DeliveryNoteRecord, Report) {
	rec := dto.DeliveryNoteRecord{DocumentType: dto.DeliveryNoteDocumentType}
	outcomes := fields.Apply(text, &rec)

	order := utils.FindField(labelledOrderNumber, text)
	if order.Value == "" {
		order.Value = utils.FindLast(anyOrderNumber, text)
		order.Found = order.Value != ""
	}
	rec.OrderNumber = order.Value

	seller, buyer := utils.ResolveTaxIDs(text, sellerTaxID)
	rec.Seller.NIP = seller.Value
	rec.Buyer.NIP = buyer.Value
	outcomes = append(outcomes, order, seller, buyer)

	scan := scanner.ScanDetailed(text)
	rec.Items = scan.Rows
	rec.TotalItems = len(rec.Items)
	rec.UncleanedText = text

	return rec, Report{Fields: outcomes, Table: scan}
}

// Report collects the inspectable outcomes of one Parse call.
type Report struct {
	Fields []utils.ExtractedField
	Table  utils.ScanReport
}

// FieldLabels lists every field path the parser resolves.
func FieldLabels() []string {
	return append(fields.Labels(), labelledOrderNumber.Label, sellerTaxID.Label, utils.BuyerTaxIDPattern.Label)
}

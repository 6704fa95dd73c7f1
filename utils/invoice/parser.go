// Package invoice reads Lyreco sales invoices (FV) from OCR text.
package invoice

import (
	"regexp"
	"strings"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/Aashish23092/ocr-invoice-extraction/utils"
)

var fields = utils.NewFieldTable[dto.InvoiceRecord]().
	Add("seller.name", `^LYRECO POLSKA S\.A\.`,
		func(r *dto.InvoiceRecord, v string) { r.Seller.Name = v }).
	Add("seller.address", `ul\.\s+([^\n]+Komorów)`,
		func(r *dto.InvoiceRecord, v string) { r.Seller.Address = v }).
	Add("seller.bank", `BNP\s+Paribas\s+Bank\s+Polska\s+SA`,
		func(r *dto.InvoiceRecord, v string) { r.Seller.Bank = v }).
	Add("seller.account_number", `(\d{26})`,
		func(r *dto.InvoiceRecord, v string) { r.Seller.AccountNumber = v }).
	Add("seller.bdo", `BDO[:\s]+(\d+)`,
		func(r *dto.InvoiceRecord, v string) { r.Seller.BDO = v }).
	Add("buyer.name", `CEVA\s+LOGISTICS\s+POLAND\s+SP\s+Z\.?O\.?O\.?`,
		func(r *dto.InvoiceRecord, v string) { r.Buyer.Name = v }).
	Add("buyer.address", `UL\.?\s+DWORKOWA\s+[^\n]+`,
		func(r *dto.InvoiceRecord, v string) { r.Buyer.Address = v }).
	Add("recipient.name", `Odbiorca\s+([A-Z0-9\s\.\-]+)`,
		func(r *dto.InvoiceRecord, v string) { r.Recipient.Name = v }).
	Add("recipient.address", `Odbiorca[^\n]*\n([A-Z0-9\s\.\-]+)`,
		func(r *dto.InvoiceRecord, v string) { r.Recipient.Address = v }).
	Add("invoice.number", `Potwierdzenie\s+zamówienia\s+(\d+)`,
		func(r *dto.InvoiceRecord, v string) { r.Invoice.Number = v }).
	Add("invoice.issue_date", `Data\s+wystawienia\s+([\d/]+)`,
		func(r *dto.InvoiceRecord, v string) { r.Invoice.IssueDate = v }).
	Add("invoice.sale_date", `Data\s+sprzedaży\s*[:\-]?\s*([\d/]+)`,
		func(r *dto.InvoiceRecord, v string) { r.Invoice.SaleDate = v }).
	Add("invoice.payment_method", `Sposób\s+płatności\s*[:\-]?\s*([^\n]+)`,
		func(r *dto.InvoiceRecord, v string) { r.Invoice.PaymentMethod = v }).
	Add("invoice.order_number", `Zamówienie\s+Nr\s+(\d+)`,
		func(r *dto.InvoiceRecord, v string) { r.Invoice.OrderNumber = v })

var sellerTaxID = utils.SellerTaxIDPattern(utils.TaxIDShape)

// itemPattern matches one priced line, optionally preceded by a "|" column
// border:  20.483.639 Papier A4 5 | RYZ 12,50 62,50 | 23% 14,38 76,88
// It is case-sensitive on purpose: units are printed in capitals.
var itemPattern = regexp.MustCompile(`(?m)` +
	`(?:^|\|\s*)?` +
	`(?P<code>\d{2}\.\d{3}\.\d{3})\s+` +
	`(?P<desc>.+?)\s+` +
	`(?P<qty>\d+)\s*\|\s*` +
	`(?P<unit>[A-ZŁ]+)\s+` +
	`(?P<price_net>[\d.,]+)\s+` +
	`(?P<value_net>[\d.,]+)\s*\|\s*` +
	`(?P<vat_rate>[\d.,]+%)\s+` +
	`(?P<vat_value>[\d.,]+)\s+` +
	`(?P<gross_value>[\d.,]+)`)

// Parse builds an invoice record from OCR text. It never fails; fields that
// cannot be found are left empty.
func Parse(text string) dto.InvoiceRecord {
	rec, _ := ParseDetailed(text)
	return rec
}

// ParseDetailed is Parse plus the outcome of every field lookup.
func ParseDetailed(text string) (dto.InvoiceRecord, []utils.ExtractedField) {
	var rec dto.InvoiceRecord
	outcomes := fields.Apply(text, &rec)

	seller, buyer := utils.ResolveTaxIDs(text, sellerTaxID)
	rec.Seller.NIP = seller.Value
	rec.Buyer.NIP = buyer.Value
	outcomes = append(outcomes, seller, buyer)

	rec.Items = ParseItems(text)
	rec.TotalItems = len(rec.Items)
	rec.UncleanedText = text

	return rec, outcomes
}

// ParseItems returns every priced item line in order of appearance.
func ParseItems(text string) []dto.InvoiceItem {
	items := []dto.InvoiceItem{}
	names := itemPattern.SubexpNames()

	for _, m := range itemPattern.FindAllStringSubmatch(text, -1) {
		g := make(map[string]string, len(names))
		for i, name := range names {
			if name != "" {
				g[name] = m[i]
			}
		}
		items = append(items, dto.InvoiceItem{
			Code:       g["code"],
			Name:       strings.TrimSpace(g["desc"]),
			Quantity:   g["qty"],
			Unit:       g["unit"],
			UnitPrice:  g["price_net"],
			ValueNet:   g["value_net"],
			VATRate:    g["vat_rate"],
			VATValue:   g["vat_value"],
			GrossValue: g["gross_value"],
		})
	}
	return items
}

// FieldLabels lists the field paths resolved by the pattern table.
func FieldLabels() []string {
	return append(fields.Labels(), sellerTaxID.Label, utils.BuyerTaxIDPattern.Label)
}

package invoice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/Aashish23092/ocr-invoice-extraction/utils"
)

const sampleInvoice = `LYRECO POLSKA S.A.
ul. Sokołowska 33, 05-806 Komorów
NIP: 527-10-35-486
BDO: 000012345
BNP Paribas Bank Polska SA 12345678901234567890123456
Nabywca
CEVA LOGISTICS POLAND SP Z.O.O.
UL. DWORKOWA 14, 00-001 WARSZAWA
NIP: 951-23-57-312
Odbiorca CEVA MAGAZYN 2, WARSZAWA
UL. MAGAZYNOWA 5, 02-222 WARSZAWA
Potwierdzenie zamówienia 987654
Data wystawienia 12/03/2024
Data sprzedaży: 11/03/2024
Sposób płatności: przelew 30 dni
Zamówienie Nr 4455667
20.483.639 Papier ksero A4 80g 5 | RYZ 12,50 62,50 | 23% 14,38 76,88
| 31.001.002 Długopis niebieski 10 | SZT 1,20 12,00 | 23% 2,76 14,76
`

func TestParse(t *testing.T) {
	rec := Parse(sampleInvoice)

	assert.Equal(t, "LYRECO POLSKA S.A.", rec.Seller.Name)
	assert.Equal(t, "Sokołowska 33, 05-806 Komorów", rec.Seller.Address)
	assert.Equal(t, "527-10-35-486", rec.Seller.NIP)
	assert.Equal(t, "BNP Paribas Bank Polska SA", rec.Seller.Bank)
	assert.Equal(t, "12345678901234567890123456", rec.Seller.AccountNumber)
	assert.Equal(t, "000012345", rec.Seller.BDO)

	assert.Equal(t, "CEVA LOGISTICS POLAND SP Z.O.O.", rec.Buyer.Name)
	assert.Equal(t, "UL. DWORKOWA 14, 00-001 WARSZAWA", rec.Buyer.Address)
	assert.Equal(t, "951-23-57-312", rec.Buyer.NIP)

	assert.Equal(t, "CEVA MAGAZYN 2", rec.Recipient.Name)
	assert.Equal(t, "UL. MAGAZYNOWA 5", rec.Recipient.Address)

	assert.Equal(t, "987654", rec.Invoice.Number)
	assert.Equal(t, "12/03/2024", rec.Invoice.IssueDate)
	assert.Equal(t, "11/03/2024", rec.Invoice.SaleDate)
	assert.Equal(t, "przelew 30 dni", rec.Invoice.PaymentMethod)
	assert.Equal(t, "4455667", rec.Invoice.OrderNumber)

	assert.Equal(t, sampleInvoice, rec.UncleanedText)
	assert.Nil(t, rec.Source)
}

func TestParseItems(t *testing.T) {
	rec := Parse(sampleInvoice)

	require.Len(t, rec.Items, 2)
	assert.Equal(t, 2, rec.TotalItems)
	assert.Equal(t, dto.InvoiceItem{
		Code:       "20.483.639",
		Name:       "Papier ksero A4 80g",
		Quantity:   "5",
		Unit:       "RYZ",
		UnitPrice:  "12,50",
		ValueNet:   "62,50",
		VATRate:    "23%",
		VATValue:   "14,38",
		GrossValue: "76,88",
	}, rec.Items[0])
	assert.Equal(t, "31.001.002", rec.Items[1].Code)
	assert.Equal(t, "Długopis niebieski", rec.Items[1].Name)
	assert.Equal(t, "SZT", rec.Items[1].Unit)
}

func TestParseTaxIDNearBuyerLabel(t *testing.T) {
	text := "Nabywca CEVA NIP 951-23-57-312\nkopia dla klienta\nNIP 527-10-35-486"
	rec := Parse(text)

	assert.Equal(t, "951-23-57-312", rec.Buyer.NIP)
	assert.Equal(t, "527-10-35-486", rec.Seller.NIP)
}

func TestParseEmptyText(t *testing.T) {
	rec, outcomes := ParseDetailed("")

	assert.Equal(t, dto.InvoiceSeller{}, rec.Seller)
	assert.NotNil(t, rec.Items)
	assert.Empty(t, rec.Items)
	assert.Equal(t, 0, rec.TotalItems)
	assert.Len(t, outcomes, len(FieldLabels()))
	assert.Equal(t, 0, utils.CountFound(outcomes))

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items":[]`)
	assert.NoError(t, dto.ValidateRecord(dto.KindInvoice, data))
}

func TestParseMatchesSchema(t *testing.T) {
	data, err := json.Marshal(Parse(sampleInvoice))
	require.NoError(t, err)
	assert.NoError(t, dto.ValidateRecord(dto.KindInvoice, data))
}

func TestParseIgnoresSurroundingBlankLines(t *testing.T) {
	plain := Parse(sampleInvoice)
	padded := Parse("\n\n  \n" + sampleInvoice + "\n\n\n")

	plain.UncleanedText, padded.UncleanedText = "", ""
	assert.Equal(t, plain, padded)
}

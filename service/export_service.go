package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
)

const (
	ItemsSheet    = "Items"
	DocumentSheet = "Document"

	// XLSXContentType is the media type of the generated workbooks.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportService renders records as XLSX workbooks: an "Items" sheet with one
// row per item and a "Document" sheet with the header fields.
type ExportService struct {
	logger *slog.Logger
}

func NewExportService(logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{logger: logger}
}

type fieldValue struct {
	field string
	value string
}

// InvoiceXLSX renders an invoice record.
func (s *ExportService) InvoiceXLSX(rec *dto.InvoiceRecord) ([]byte, error) {
	headers := []string{"Code", "Name", "Quantity", "Unit", "Unit price", "Net value", "VAT rate", "VAT value", "Gross value"}
	rows := make([][]string, 0, len(rec.Items))
	for _, it := range rec.Items {
		rows = append(rows, []string{it.Code, it.Name, it.Quantity, it.Unit, it.UnitPrice, it.ValueNet, it.VATRate, it.VATValue, it.GrossValue})
	}

	fields := []fieldValue{
		{"seller.name", rec.Seller.Name},
		{"seller.address", rec.Seller.Address},
		{"seller.nip", rec.Seller.NIP},
		{"seller.bank", rec.Seller.Bank},
		{"seller.account_number", rec.Seller.AccountNumber},
		{"seller.bdo", rec.Seller.BDO},
		{"buyer.name", rec.Buyer.Name},
		{"buyer.address", rec.Buyer.Address},
		{"buyer.nip", rec.Buyer.NIP},
		{"recipient.name", rec.Recipient.Name},
		{"recipient.address", rec.Recipient.Address},
		{"invoice.number", rec.Invoice.Number},
		{"invoice.issue_date", rec.Invoice.IssueDate},
		{"invoice.sale_date", rec.Invoice.SaleDate},
		{"invoice.payment_method", rec.Invoice.PaymentMethod},
		{"invoice.order_number", rec.Invoice.OrderNumber},
		{"total_items", fmt.Sprint(rec.TotalItems)},
	}
	fields = append(fields, sourceFields(rec.Source)...)

	return s.workbook(dto.KindInvoice, headers, rows, fields)
}

// DeliveryNoteXLSX renders a delivery note record.
func (s *ExportService) DeliveryNoteXLSX(rec *dto.DeliveryNoteRecord) ([]byte, error) {
	headers := []string{"Line", "Code", "Ordered", "Delivered", "Description"}
	rows := make([][]string, 0, len(rec.Items))
	for _, it := range rec.Items {
		rows = append(rows, []string{it.LineNo, it.Code, it.QuantityOrdered, it.QuantityDelivered, it.Description})
	}

	fields := []fieldValue{
		{"document_type", rec.DocumentType},
		{"document_number", rec.DocumentNumber},
		{"order_number", rec.OrderNumber},
		{"client_number", rec.ClientNumber},
		{"reference_number", rec.ReferenceNumber},
		{"seller.name", rec.Seller.Name},
		{"seller.address", rec.Seller.Address},
		{"seller.nip", rec.Seller.NIP},
		{"seller.bank", rec.Seller.Bank},
		{"seller.account_number", rec.Seller.AccountNumber},
		{"buyer.name", rec.Buyer.Name},
		{"buyer.address", rec.Buyer.Address},
		{"buyer.nip", rec.Buyer.NIP},
		{"delivery.address", rec.Delivery.Address},
		{"delivery.contact", rec.Delivery.Contact},
		{"delivery.phone", rec.Delivery.Phone},
		{"dates.order_date", rec.Dates.OrderDate},
		{"dates.delivery_date", rec.Dates.DeliveryDate},
		{"sales_representative.id", rec.SalesRepresentative.ID},
		{"sales_representative.name", rec.SalesRepresentative.Name},
		{"account_manager.id", rec.AccountManager.ID},
		{"account_manager.name", rec.AccountManager.Name},
		{"remarks", rec.Remarks},
		{"total_items", fmt.Sprint(rec.TotalItems)},
	}
	fields = append(fields, sourceFields(rec.Source)...)

	return s.workbook(dto.KindDeliveryNote, headers, rows, fields)
}

func sourceFields(src *dto.SourceInfo) []fieldValue {
	if src == nil {
		return nil
	}
	return []fieldValue{
		{"source.url", src.URL},
		{"source.method", src.Method},
		{"source.engine", src.Engine},
		{"source.pages", fmt.Sprint(src.Pages)},
		{"source.confidence", fmt.Sprintf("%.1f", src.Confidence)},
	}
}

func (s *ExportService) workbook(kind dto.RecordKind, headers []string, rows [][]string, fields []fieldValue) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ItemsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(DocumentSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	write := func(sheet string, col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}

	for i, h := range headers {
		if err := write(ItemsSheet, i+1, 1, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	// Quantities and amounts stay text: OCR output uses decimal commas and
	// may keep leading zeros in codes.
	for r, values := range rows {
		for c, v := range values {
			if err := write(ItemsSheet, c+1, r+2, v); err != nil {
				return nil, fmt.Errorf("write item: %w", err)
			}
		}
	}

	if err := write(DocumentSheet, 1, 1, "Field"); err != nil {
		return nil, err
	}
	if err := write(DocumentSheet, 2, 1, "Value"); err != nil {
		return nil, err
	}
	for i, fv := range fields {
		if err := write(DocumentSheet, 1, i+2, fv.field); err != nil {
			return nil, fmt.Errorf("write field: %w", err)
		}
		if err := write(DocumentSheet, 2, i+2, fv.value); err != nil {
			return nil, fmt.Errorf("write field: %w", err)
		}
	}

	_ = f.SetColWidth(ItemsSheet, "A", "A", 14)
	_ = f.SetColWidth(ItemsSheet, "B", "B", 40)
	_ = f.SetColWidth(DocumentSheet, "A", "A", 28)
	_ = f.SetColWidth(DocumentSheet, "B", "B", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"kind", kind,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

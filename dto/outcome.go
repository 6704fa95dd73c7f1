package dto

// ExtractionOutcome is the result of one URL-based extraction. Exactly one of
// Invoice and DeliveryNote is set, matching Kind.
type ExtractionOutcome struct {
	Kind         RecordKind
	Invoice      *InvoiceRecord
	DeliveryNote *DeliveryNoteRecord
	// Forwarded reports whether the record was queued for the forward URL.
	Forwarded bool
}

// Record returns the populated record.
func (o *ExtractionOutcome) Record() any {
	if o.Kind == KindInvoice {
		return o.Invoice
	}
	return o.DeliveryNote
}

package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RecordKind names one of the two document types.
type RecordKind string

const (
	KindInvoice      RecordKind = "fv"
	KindDeliveryNote RecordKind = "wz"
)

const stringProp = `{"type": "string"}`

func objectSchema(fields ...string) string {
	props := make([]string, 0, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		props = append(props, fmt.Sprintf("%q: %s", f, stringProp))
		required = append(required, fmt.Sprintf("%q", f))
	}
	return fmt.Sprintf(`{"type": "object", "properties": {%s}, "required": [%s]}`,
		strings.Join(props, ", "), strings.Join(required, ", "))
}

var (
	invoiceItemSchema = objectSchema("code", "name", "quantity", "unit", "unit_price",
		"value_net", "vat_rate", "vat_value", "gross_value")

	tableRowSchema = `{
		"type": "object",
		"properties": {
			"line_no": {"type": "string"},
			"code": {"type": "string", "pattern": "^\\S+$"},
			"quantity_ordered": {"type": "string", "pattern": "^[0-9]+$"},
			"quantity_delivered": {"type": "string", "pattern": "^[0-9]*$"},
			"description": {"type": "string"}
		},
		"required": ["code", "quantity_ordered", "quantity_delivered"]
	}`

	invoiceSchema = fmt.Sprintf(`{
		"type": "object",
		"properties": {
			"seller": %s,
			"buyer": %s,
			"recipient": %s,
			"invoice": %s,
			"items": {"type": "array", "items": %s},
			"total_items": {"type": "integer", "minimum": 0},
			"uncleaned_text": {"type": "string"}
		},
		"required": ["seller", "buyer", "recipient", "invoice", "items", "total_items", "uncleaned_text"]
	}`,
		objectSchema("name", "address", "nip", "bank", "account_number", "bdo"),
		objectSchema("name", "address", "nip"),
		objectSchema("name", "address"),
		objectSchema("number", "issue_date", "sale_date", "payment_method", "order_number"),
		invoiceItemSchema,
	)

	deliveryNoteSchema = fmt.Sprintf(`{
		"type": "object",
		"properties": {
			"document_type": {"const": %q},
			"document_number": {"type": "string"},
			"order_number": {"type": "string"},
			"client_number": {"type": "string"},
			"reference_number": {"type": "string"},
			"seller": %s,
			"buyer": %s,
			"delivery": %s,
			"dates": %s,
			"sales_representative": %s,
			"account_manager": %s,
			"items": {"type": "array", "items": %s},
			"total_items": {"type": "integer", "minimum": 0},
			"remarks": {"type": "string"},
			"uncleaned_text": {"type": "string"}
		},
		"required": ["document_type", "document_number", "order_number", "client_number",
			"reference_number", "seller", "buyer", "delivery", "dates", "sales_representative",
			"account_manager", "items", "total_items", "remarks", "uncleaned_text"]
	}`,
		DeliveryNoteDocumentType,
		objectSchema("name", "address", "nip", "bank", "account_number"),
		objectSchema("name", "address", "nip"),
		objectSchema("address", "contact", "phone"),
		objectSchema("order_date", "delivery_date"),
		objectSchema("id", "name"),
		objectSchema("id", "name"),
		tableRowSchema,
	)
)

var (
	compileOnce sync.Once
	compiled    map[RecordKind]*jsonschema.Schema
	compileErr  error
)

// RecordSchema returns the JSON Schema document for a record kind.
func RecordSchema(kind RecordKind) (json.RawMessage, bool) {
	switch kind {
	case KindInvoice:
		return json.RawMessage(invoiceSchema), true
	case KindDeliveryNote:
		return json.RawMessage(deliveryNoteSchema), true
	}
	return nil, false
}

func compileSchemas() {
	compiled = make(map[RecordKind]*jsonschema.Schema, 2)
	for _, kind := range []RecordKind{KindInvoice, KindDeliveryNote} {
		raw, _ := RecordSchema(kind)
		url := string(kind) + ".json"

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("add schema %s: %w", kind, err)
			return
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			compileErr = fmt.Errorf("compile schema %s: %w", kind, err)
			return
		}
		compiled[kind] = schema
	}
}

// ValidateRecord checks serialized record JSON against the schema of kind.
func ValidateRecord(kind RecordKind, data []byte) error {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return compileErr
	}
	schema, ok := compiled[kind]
	if !ok {
		return fmt.Errorf("unknown record kind %q", kind)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}

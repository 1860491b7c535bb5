package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Metadata represents a JSONB field for storing key-value pairs
type Metadata map[string]string

// Scan implements the sql.Scanner interface for Metadata
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(Metadata)
		return nil
	}

	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}

	result := make(Metadata)
	err = json.Unmarshal(bytes, &result)
	*m = result
	return err
}

// Value implements the driver.Valuer interface for Metadata
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(make(Metadata))
	}
	return json.Marshal(m)
}

// JSONMap represents a JSONB field with arbitrary values, used for raw gateway payloads
type JSONMap map[string]any

// Scan implements the sql.Scanner interface for JSONMap
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}

	result := make(JSONMap)
	err = json.Unmarshal(bytes, &result)
	*m = result
	return err
}

// Value implements the driver.Valuer interface for JSONMap
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}
}

// Keys of the typed payment metadata fields
const (
	MetadataKeyInvoiceNumber      = "invoice_number"
	MetadataKeyInvoiceGeneratedAt = "invoice_generated_at"
	MetadataKeyIsAutoRenewal      = "is_auto_renewal"
	MetadataKeyPurchaseSource     = "purchase_source"
	MetadataKeyMerchantReference  = "merchant_reference"
	MetadataKeyUserAgent          = "user_agent"
	MetadataKeyIPAddress          = "ip_address"
	MetadataKeySaveCard           = "save_card"
	MetadataKeyCouponCode         = "coupon_code"
)

// PaymentMetadata is the typed metadata stored on a payment.
// Keys unknown to this struct survive round trips through Extras.
type PaymentMetadata struct {
	InvoiceNumber      string         `json:"-"`
	InvoiceGeneratedAt *time.Time     `json:"-"`
	IsAutoRenewal      bool           `json:"-"`
	PurchaseSource     PurchaseSource `json:"-"`
	MerchantReference  string         `json:"-"`
	UserAgent          string         `json:"-"`
	IPAddress          string         `json:"-"`
	SaveCard           bool           `json:"-"`
	CouponCode         string         `json:"-"`
	Extras             map[string]any `json:"-"`
}

// HasInvoiceNumber reports whether an invoice number was already allocated
func (m PaymentMetadata) HasInvoiceNumber() bool {
	return m.InvoiceNumber != ""
}

// MarshalJSON flattens the known fields and extras into one object
func (m PaymentMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extras)+8)
	for k, v := range m.Extras {
		out[k] = v
	}
	if m.InvoiceNumber != "" {
		out[MetadataKeyInvoiceNumber] = m.InvoiceNumber
	}
	if m.InvoiceGeneratedAt != nil {
		out[MetadataKeyInvoiceGeneratedAt] = m.InvoiceGeneratedAt.UTC().Format(time.RFC3339)
	}
	if m.IsAutoRenewal {
		out[MetadataKeyIsAutoRenewal] = true
	}
	if m.PurchaseSource != "" {
		out[MetadataKeyPurchaseSource] = string(m.PurchaseSource)
	}
	if m.MerchantReference != "" {
		out[MetadataKeyMerchantReference] = m.MerchantReference
	}
	if m.UserAgent != "" {
		out[MetadataKeyUserAgent] = m.UserAgent
	}
	if m.IPAddress != "" {
		out[MetadataKeyIPAddress] = m.IPAddress
	}
	if m.SaveCard {
		out[MetadataKeySaveCard] = true
	}
	if m.CouponCode != "" {
		out[MetadataKeyCouponCode] = m.CouponCode
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits a flat object into known fields and extras
func (m *PaymentMetadata) UnmarshalJSON(data []byte) error {
	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = PaymentMetadata{}
	m.InvoiceNumber = takeString(raw, MetadataKeyInvoiceNumber)
	if ts := takeString(raw, MetadataKeyInvoiceGeneratedAt); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			m.InvoiceGeneratedAt = &parsed
		}
	}
	m.IsAutoRenewal = takeBool(raw, MetadataKeyIsAutoRenewal)
	m.PurchaseSource = PurchaseSource(takeString(raw, MetadataKeyPurchaseSource))
	m.MerchantReference = takeString(raw, MetadataKeyMerchantReference)
	m.UserAgent = takeString(raw, MetadataKeyUserAgent)
	m.IPAddress = takeString(raw, MetadataKeyIPAddress)
	m.SaveCard = takeBool(raw, MetadataKeySaveCard)
	m.CouponCode = takeString(raw, MetadataKeyCouponCode)

	if len(raw) > 0 {
		m.Extras = raw
	}
	return nil
}

// Scan implements the sql.Scanner interface for PaymentMetadata
func (m *PaymentMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = PaymentMetadata{}
		return nil
	}
	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return m.UnmarshalJSON(bytes)
}

// Value implements the driver.Valuer interface for PaymentMetadata
func (m PaymentMetadata) Value() (driver.Value, error) {
	return m.MarshalJSON()
}

func takeString(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	delete(raw, key)
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func takeBool(raw map[string]any, key string) bool {
	v, ok := raw[key]
	if !ok {
		return false
	}
	delete(raw, key)
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	case float64:
		return t != 0
	default:
		return false
	}
}

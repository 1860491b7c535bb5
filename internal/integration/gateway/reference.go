package gateway

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// MerchantReference is the {tenant}-{payment}-{unix} string echoed back by gateways.
// Fields are nil when the reference could not be parsed.
type MerchantReference struct {
	TenantID  *string
	PaymentID *string
	Timestamp *int64
}

// IsValid reports whether every segment was parsed
func (r MerchantReference) IsValid() bool {
	return r.TenantID != nil && r.PaymentID != nil && r.Timestamp != nil
}

// BuildMerchantReference encodes tenant and payment ids with the current time
func BuildMerchantReference(tenantID, paymentID string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%d", tenantID, paymentID, now.Unix())
}

// ParseMerchantReference decodes a reference built by BuildMerchantReference.
// Anything other than three non empty segments with a numeric timestamp yields all nil fields.
func ParseMerchantReference(ref string) MerchantReference {
	parts := strings.Split(strings.TrimSpace(ref), "-")
	if len(parts) != 3 || lo.Contains(parts, "") {
		return MerchantReference{}
	}

	ts, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return MerchantReference{}
	}

	return MerchantReference{
		TenantID:  lo.ToPtr(parts[0]),
		PaymentID: lo.ToPtr(parts[1]),
		Timestamp: lo.ToPtr(ts),
	}
}

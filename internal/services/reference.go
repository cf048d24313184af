package services

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// randomHex returns n uppercase hex characters from a fresh UUID.
func randomHex(n int) string {
	id := uuid.New()
	s := strings.ToUpper(hex.EncodeToString(id[:]))
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// NewControlNumber builds an invoice control number: ZP-YYMMDD-XXXXXX.
func NewControlNumber(now time.Time) string {
	return "ZP-" + now.Format("060102") + "-" + randomHex(6)
}

// NewReleaseCode builds a release order code: RO-YYMMDD-XXXXXX.
func NewReleaseCode(now time.Time) string {
	return "RO-" + now.Format("060102") + "-" + randomHex(6)
}

// NewTrackingNumber builds a cargo tracking number: ZP-YYYY-XXXXXXXX.
func NewTrackingNumber(now time.Time) string {
	return "ZP-" + now.Format("2006") + "-" + randomHex(8)
}

// NewPaymentReference builds a manual payment reference: PAY-XXXXXXXX.
func NewPaymentReference() string {
	return "PAY-" + randomHex(8)
}

// NewWithdrawalReference builds a wallet withdrawal reference:
// WD-XXXXXXXX.
func NewWithdrawalReference() string {
	return "WD-" + randomHex(8)
}

// NewAutoPaymentReference builds a wallet auto-payment reference:
// WLT-AUTO-XXXXXXXX.
func NewAutoPaymentReference() string {
	return "WLT-AUTO-" + randomHex(8)
}

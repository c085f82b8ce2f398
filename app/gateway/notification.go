package gateway

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// approvedAuthCode is the ISO-style two character approval code shared by
// both gateways.
const approvedAuthCode = "00"

var (
	approvedMessagePattern = regexp.MustCompile(`(?i)aprobad|approved`)
	deniedMessagePattern   = regexp.MustCompile(`(?i)denegad|denied`)
)

// Notification is the normalized shape of a gateway delivery. The two
// integrations populate it from different field names; everything downstream
// of the gateway package works only with this struct.
type Notification struct {
	Gateway     string
	OperationID string

	StatusCode int32
	AuthCode   string
	TotalPaid  string
	Message    string

	Params map[string]string
}

// OperationKey is the ledger correlation key. Scoping the gateway name keeps
// two gateways that happen to mint the same operation id apart, while the
// webhook and the return redirect of one transaction still collide.
func (n *Notification) OperationKey() string {
	return n.Gateway + ":" + n.OperationID
}

// Denied reports an explicit denial signal: a zero status code, a non-approval
// auth code, or a denial message. A denial always overrides every positive
// signal, since gateways leave stale positive fields behind but never fake a
// denial.
func (n *Notification) Denied() bool {
	if n.StatusCode == 0 {
		return true
	}
	authCode := strings.TrimSpace(n.AuthCode)
	if authCode != "" && authCode != approvedAuthCode {
		return true
	}
	return deniedMessagePattern.MatchString(n.Message)
}

// Approved implements the any-positive, denial-wins decision: one positive
// signal suffices because the gateways are inconsistent about which field
// they populate, but Denied always wins.
func (n *Notification) Approved() bool {
	if n.Denied() {
		return false
	}
	if n.StatusCode == 1 {
		return true
	}
	if strings.TrimSpace(n.AuthCode) == approvedAuthCode {
		return true
	}
	if cents, ok := ParseAmountCents(n.TotalPaid); ok && cents > 0 {
		return true
	}
	return approvedMessagePattern.MatchString(n.Message)
}

// TotalPaidCents returns the paid amount, falling back to the echoed amount
// parameter when the gateway left the total empty.
func (n *Notification) TotalPaidCents() (int64, bool) {
	if cents, ok := ParseAmountCents(n.TotalPaid); ok && cents > 0 {
		return cents, true
	}
	if cents, ok := ParseAmountCents(n.Params[ParamAmount]); ok && cents > 0 {
		return cents, true
	}
	return 0, false
}

// ParseAmountCents parses a decimal money string ("130", "130.5", "130.00")
// into cents without going through floating point.
func ParseAmountCents(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(raw, "-") {
		negative = true
		raw = raw[1:]
	}

	wholePart := raw
	fractionPart := ""
	if idx := strings.IndexByte(raw, '.'); idx >= 0 {
		wholePart = raw[:idx]
		fractionPart = raw[idx+1:]
	}
	if wholePart == "" {
		wholePart = "0"
	}
	if len(fractionPart) > 2 {
		fractionPart = fractionPart[:2]
	}
	for len(fractionPart) < 2 {
		fractionPart += "0"
	}

	whole, err := strconv.ParseInt(wholePart, 10, 64)
	if err != nil {
		return 0, false
	}
	fraction, err := strconv.ParseInt(fractionPart, 10, 64)
	if err != nil {
		return 0, false
	}

	cents := whole*100 + fraction
	if negative {
		cents = -cents
	}
	return cents, true
}

// FormatAmountCents renders cents as the two-decimal string both checkout
// pages expect.
func FormatAmountCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
}

// SubjectRefFromOrderID extracts the subscriber id from the structured
// "payment-{subjectRef}-{timestamp}" order id pattern.
func SubjectRefFromOrderID(orderID string) string {
	orderID = strings.TrimSpace(orderID)
	if !strings.HasPrefix(orderID, "payment-") {
		return ""
	}
	rest := strings.TrimPrefix(orderID, "payment-")
	idx := strings.LastIndexByte(rest, '-')
	if idx <= 0 {
		return ""
	}
	subjectRef := rest[:idx]
	timestamp := rest[idx+1:]
	if subjectRef == "" || timestamp == "" {
		return ""
	}
	if _, err := strconv.ParseInt(timestamp, 10, 64); err != nil {
		return ""
	}
	return subjectRef
}

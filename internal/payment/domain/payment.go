package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// Method selects the active instrument form.
type Method string

const (
	MethodCard Method = "card"
	MethodUPI  Method = "upi"
)

// Status of a payment attempt. An attempt is ephemeral: it exists only
// within the stage and is never persisted across reloads.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusValidating Status = "validating"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("payment: invalid %s: %s", e.Field, e.Reason)
}

// CardDetails is the card instrument input.
type CardDetails struct {
	Number      string
	Holder      string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func (d CardDetails) Validate() error {
	if countDigits(d.Number) < 16 {
		return &ValidationError{Field: "cardNumber", Reason: "must have at least 16 digits"}
	}
	if strings.TrimSpace(d.Holder) == "" {
		return &ValidationError{Field: "cardHolder", Reason: "holder name is required"}
	}
	if strings.TrimSpace(d.ExpiryMonth) == "" || strings.TrimSpace(d.ExpiryYear) == "" {
		return &ValidationError{Field: "expiry", Reason: "expiry month and year are required"}
	}
	if len(d.CVV) < 3 {
		return &ValidationError{Field: "cvv", Reason: "must have at least 3 digits"}
	}
	return nil
}

// UPIDetails is the UPI instrument input.
type UPIDetails struct {
	ID string
}

func (d UPIDetails) Validate() error {
	if !strings.Contains(d.ID, "@") {
		return &ValidationError{Field: "upiId", Reason: "must contain '@'"}
	}
	return nil
}

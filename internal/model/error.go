package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON           = "INVALID_JSON"
	ErrCodeMissingField          = "MISSING_FIELD"
	ErrCodeProductNotFound       = "PRODUCT_NOT_FOUND"
	ErrCodeProductInactive       = "PRODUCT_INACTIVE"
	ErrCodeInvalidQuantity       = "INVALID_QUANTITY"
	ErrCodeLineNotFound          = "LINE_NOT_FOUND"
	ErrCodeProfileNotFound       = "PROFILE_NOT_FOUND"
	ErrCodeUnauthorised          = "UNAUTHORIZED"
	ErrCodeMalformedPrescription = "MALFORMED_PRESCRIPTION"
	ErrCodeNoInlinePrescription  = "NO_INLINE_PRESCRIPTION"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// DomainError represents a business-rule failure that callers can act on.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound       = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrProductInactive       = NewDomainError(ErrCodeProductInactive, "Product is no longer purchasable")
	ErrInvalidQuantity       = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be at least one")
	ErrLineNotFound          = NewDomainError(ErrCodeLineNotFound, "Cart line not found")
	ErrProfileNotFound       = NewDomainError(ErrCodeProfileNotFound, "Prescription profile not found")
	ErrUnauthorised          = NewDomainError(ErrCodeUnauthorised, "Prescription profile belongs to another user")
	ErrMalformedPrescription = NewDomainError(ErrCodeMalformedPrescription, "Prescription data is incomplete or malformed")
	ErrNoInlinePrescription  = NewDomainError(ErrCodeNoInlinePrescription, "Cart line has no inline prescription to save")
)

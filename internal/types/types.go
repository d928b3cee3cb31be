// Package types provides common type definitions for the portfolio tracker.
package types

// CollectionKind distinguishes the two kinds of stock collections
type CollectionKind string

const (
	// KindPortfolio is a cash-balance-carrying collection
	KindPortfolio CollectionKind = "portfolio"
	// KindStockList is a shareable watchlist without a balance
	KindStockList CollectionKind = "stock_list"
)

// Visibility controls who may view a stock list
type Visibility string

const (
	// VisibilityPublic lists are visible to everyone
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate lists are visible to the owner only
	VisibilityPrivate Visibility = "private"
	// VisibilityShared lists are visible to the owner and their friends
	VisibilityShared Visibility = "shared"
)

// Valid reports whether v is one of the three recognized visibility values
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityShared:
		return true
	}
	return false
}

// RelationshipType is the state of the edge between two accounts.
// The pair is stored ordered (lower account id first), so the request
// direction is encoded in the type rather than in the column order.
type RelationshipType string

const (
	// RelU1Request means the lower-id user requested the higher-id user
	RelU1Request RelationshipType = "u1request"
	// RelU2Request means the higher-id user requested the lower-id user
	RelU2Request RelationshipType = "u2request"
	// RelFriend is an accepted, active friendship
	RelFriend RelationshipType = "friend"
	// RelRejected is a declined request or removed friendship
	RelRejected RelationshipType = "rejected"
)

// TradeOutcome describes what a trade did to the holding row
type TradeOutcome string

const (
	// OutcomeAdded means a new holding row was inserted
	OutcomeAdded TradeOutcome = "added"
	// OutcomeUpdated means an existing holding row changed share count
	OutcomeUpdated TradeOutcome = "updated"
	// OutcomeRemoved means the holding reached zero shares and was deleted
	OutcomeRemoved TradeOutcome = "removed"
)

// Service error codes returned by core operations
const (
	// CodeInvalidArgument marks malformed or missing caller input
	CodeInvalidArgument = "INVALID_ARGUMENT"
	// CodeNotFound marks a missing collection, stock, user or review
	CodeNotFound = "NOT_FOUND"
	// CodeForbidden marks an authenticated but unauthorized access
	CodeForbidden = "FORBIDDEN"
	// CodeConflict marks a uniqueness violation (username, review, request)
	CodeConflict = "CONFLICT"
	// CodeInsufficientFunds marks a buy exceeding the portfolio balance
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	// CodeInsufficientShares marks a sell exceeding the held share count
	CodeInsufficientShares = "INSUFFICIENT_SHARES"
	// CodeInsufficientData marks a statistic over too short a price series
	CodeInsufficientData = "INSUFFICIENT_DATA"
	// CodeStorageFailure marks an underlying store error
	CodeStorageFailure = "STORAGE_FAILURE"
)

// ServiceError represents a structured error returned by core operations
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewInvalidArgument builds an INVALID_ARGUMENT error
func NewInvalidArgument(message string) *ServiceError {
	return &ServiceError{Code: CodeInvalidArgument, Message: message}
}

// NewNotFound builds a NOT_FOUND error
func NewNotFound(message string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: message}
}

// NewForbidden builds a FORBIDDEN error
func NewForbidden(message string) *ServiceError {
	return &ServiceError{Code: CodeForbidden, Message: message}
}

// NewConflict builds a CONFLICT error
func NewConflict(message string) *ServiceError {
	return &ServiceError{Code: CodeConflict, Message: message}
}

// NewStorageFailure wraps an underlying store error
func NewStorageFailure(operation string, cause error) *ServiceError {
	return &ServiceError{
		Code:    CodeStorageFailure,
		Message: "storage failure during " + operation,
		Details: map[string]interface{}{
			"operation": operation,
			"cause":     cause.Error(),
		},
	}
}

// IsCode reports whether err is a ServiceError carrying the given code
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	se, ok := err.(*ServiceError)
	return ok && se.Code == code
}

package services

import (
	"time"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(name, email, password string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	VerifyEmail(token string) error
	GetUserByID(id string) (*models.User, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType) (*models.Category, error)
	GetUserCategories(userID string) ([]models.Category, error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name string, categoryType models.CategoryType) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
// Nil fields are not applied; date bounds are inclusive and independently
// combinable.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
}

// TransactionPatch lists the fields of a transaction that may be partially
// updated. A nil field leaves the stored value unchanged.
type TransactionPatch struct {
	Amount      *int64
	Type        *models.TransactionType
	CategoryID  *string
	Description *string
	Date        *time.Time
}

// MonthlySummary is an aggregate of one calendar month of a user's
// transactions. Amounts are in cents.
type MonthlySummary struct {
	Year       int   `json:"year"`
	Month      int   `json:"month"`
	Income     int64 `json:"income"`
	Expense    int64 `json:"expense"`
	NetSavings int64 `json:"net_savings"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, categoryID *string, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, patch TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	GetMonthlySummary(userID string) ([]MonthlySummary, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}

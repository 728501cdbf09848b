package services

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db              *gorm.DB
	categoryService CategoryServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, categoryService CategoryServicer) TransactionServicer {
	return &transactionService{
		db:              db,
		categoryService: categoryService,
	}
}

// CreateTransaction creates a new transaction for a user. A provided
// category must exist and belong to the same user. A zero date defaults
// to the current time.
func (s *transactionService) CreateTransaction(
	userID string,
	categoryID *string,
	transactionType models.TransactionType,
	amount int64,
	description string,
	date time.Time,
) (*models.Transaction, error) {
	// Validate input. Amounts are unsigned magnitudes; income vs expense
	// comes from the type.
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction type must be income or expense")
	}

	if categoryID != nil {
		if _, err := s.categoryService.GetCategoryByID(userID, *categoryID); err != nil {
			return nil, err
		}
	}

	// Default date to now if not provided
	if date.IsZero() {
		date = time.Now()
	}

	transaction := &models.Transaction{
		UserID:      userID,
		CategoryID:  categoryID,
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		Date:        date,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID. Same access semantics
// as categories: missing is not-found, someone else's is forbidden.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ?", transactionID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if transaction.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return &transaction, nil
}

// UpdateTransaction applies a partial update. Only non-nil patch fields are
// written; everything else keeps its stored value.
func (s *transactionService) UpdateTransaction(userID, transactionID string, patch TransactionPatch) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.Amount != nil {
		if *patch.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *patch.Amount
	}
	if patch.Type != nil {
		if *patch.Type != models.TransactionTypeIncome && *patch.Type != models.TransactionTypeExpense {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction type must be income or expense")
		}
		updates["type"] = *patch.Type
	}
	if patch.CategoryID != nil {
		if _, err := s.categoryService.GetCategoryByID(userID, *patch.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *patch.CategoryID
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Date != nil {
		updates["date"] = *patch.Date
	}

	if len(updates) > 0 {
		if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return transaction, nil
}

// DeleteTransaction deletes a transaction
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// monthlyRow is the projection used for the summary aggregation.
type monthlyRow struct {
	Type   models.TransactionType
	Amount int64
	Date   time.Time
}

// GetMonthlySummary groups the user's transactions by calendar (year, month)
// and sums income and expense per group, newest month first. Months without
// transactions are omitted.
//
// The fold runs in Go because year/month extraction has no SQL form shared
// by postgres and the sqlite the test suite runs on.
func (s *transactionService) GetMonthlySummary(userID string) ([]MonthlySummary, error) {
	var rows []monthlyRow
	if err := s.db.Model(&models.Transaction{}).
		Select("type", "amount", "date").
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	type yearMonth struct {
		year  int
		month int
	}
	buckets := make(map[yearMonth]*MonthlySummary)
	for _, row := range rows {
		key := yearMonth{year: row.Date.Year(), month: int(row.Date.Month())}
		bucket, ok := buckets[key]
		if !ok {
			bucket = &MonthlySummary{Year: key.year, Month: key.month}
			buckets[key] = bucket
		}
		switch row.Type {
		case models.TransactionTypeIncome:
			bucket.Income += row.Amount
		case models.TransactionTypeExpense:
			bucket.Expense += row.Amount
		}
	}

	summary := make([]MonthlySummary, 0, len(buckets))
	for _, bucket := range buckets {
		bucket.NetSavings = bucket.Income - bucket.Expense
		summary = append(summary, *bucket)
	}

	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Year != summary[j].Year {
			return summary[i].Year > summary[j].Year
		}
		return summary[i].Month > summary[j].Month
	})

	return summary, nil
}

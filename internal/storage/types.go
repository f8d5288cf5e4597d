package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("storage: not found")
	ErrClosed       = errors.New("storage: store is closed")
	ErrSchemaTooNew = errors.New("storage: schema version newer than code")
)

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

type User struct {
	ID               int64
	Email            string
	PasswordHash     string
	FirstName        string
	LastName         string
	Phone            string
	DateOfBirth      string
	Address          string
	City             string
	State            string
	Zip              string
	Country          string
	ProfilePic       string
	SecurityScore    int
	TwoFactorEnabled bool
	BiometricEnabled bool
	IsVerified       bool
	IsActive         bool
}

type Account struct {
	ID               int64
	UserID           int64
	AccountType      string
	AccountNumber    string
	RoutingNumber    string
	Balance          float64
	AvailableBalance float64
	Currency         string
	Status           string
	AccountName      string
	IsPrimary        bool
	Color            string
}

type Transaction struct {
	ID              int64
	AccountID       int64
	Type            TransactionType
	Amount          float64
	Description     string
	Category        string
	MerchantName    string
	ReferenceNumber string
	Status          string
}

// Card holds clear-text card fields. Number and CVV are sealed on write and
// opened on read; they never reach the database unencrypted.
type Card struct {
	ID             int64
	AccountID      int64
	Number         string
	CardType       string
	CardBrand      string
	ExpiryDate     string
	CardholderName string
	CVV            string
	Status         string
	IsFrozen       bool
	DailyLimit     float64
}

type SavingsGoal struct {
	ID            int64
	UserID        int64
	GoalName      string
	TargetAmount  float64
	CurrentAmount float64
	TargetDate    string
	Status        string
}

type Investment struct {
	ID             int64
	UserID         int64
	InvestmentType string
	Symbol         string
	Name           string
	Quantity       float64
	AverageCost    float64
	CurrentPrice   float64
	CurrentValue   float64
	ChangePercent  float64
	ChangeValue    float64
	IsESG          bool
	Sector         string
	AssetClass     string
	RiskLevel      string
}

type UserRepository interface {
	// CreateIfAbsent inserts the user unless the email is already taken. It
	// reports whether a row was written; either way u.ID is set.
	CreateIfAbsent(ctx context.Context, u *User) (bool, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	Get(ctx context.Context, id int64) (*Account, error)
	ListByUser(ctx context.Context, userID int64) ([]Account, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *Transaction) error
	ListByAccount(ctx context.Context, accountID int64) ([]Transaction, error)
}

type CardRepository interface {
	Create(ctx context.Context, card *Card) error
	Get(ctx context.Context, id int64) (*Card, error)
	ListByAccount(ctx context.Context, accountID int64) ([]Card, error)
}

type SavingsGoalRepository interface {
	Create(ctx context.Context, goal *SavingsGoal) error
	ListByUser(ctx context.Context, userID int64) ([]SavingsGoal, error)
}

type InvestmentRepository interface {
	Create(ctx context.Context, inv *Investment) error
	ListByUser(ctx context.Context, userID int64) ([]Investment, error)
}

// Repositories groups the entity repositories bound to one Querier, either
// the store itself or an open transaction.
type Repositories struct {
	Users        UserRepository
	Accounts     AccountRepository
	Transactions TransactionRepository
	Cards        CardRepository
	SavingsGoals SavingsGoalRepository
	Investments  InvestmentRepository
}

package seed

import (
	"errors"
	"fmt"

	"github.com/securebank/securebank-init/internal/storage"
	"github.com/shopspring/decimal"
)

const (
	DemoEmail    = "demo@securebank.com"
	DemoPassword = "Demo123!"

	incomeCategory = "Income"
)

var ErrInvalidDataset = errors.New("invalid seed dataset")

type UserSeed struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	Phone         string
	City          string
	State         string
	ProfilePic    string
	SecurityScore int
	IsVerified    bool
	IsActive      bool
}

type AccountSeed struct {
	AccountType   string
	AccountNumber string
	AccountName   string
	Balance       decimal.Decimal
	IsPrimary     bool
	Color         string
}

type TransactionSeed struct {
	Type        storage.TransactionType
	Amount      decimal.Decimal
	Description string
	Category    string
}

type SavingsGoalSeed struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    string
}

type CardSeed struct {
	Number         string
	CardType       string
	CardBrand      string
	ExpiryDate     string
	CardholderName string
	CVV            string
}

type InvestmentSeed struct {
	InvestmentType string
	Symbol         string
	Name           string
	Quantity       decimal.Decimal
	AverageCost    decimal.Decimal
	CurrentPrice   decimal.Decimal
	Sector         string
	AssetClass     string
	RiskLevel      string
	IsESG          bool
}

// Dataset is the fixed demo graph: one user, a checking account with its
// transactions and card, a savings account backing one goal, and a small
// investment portfolio.
type Dataset struct {
	User         UserSeed
	Checking     AccountSeed
	Transactions []TransactionSeed
	Savings      AccountSeed
	SavingsGoal  SavingsGoalSeed
	Card         CardSeed
	Investments  []InvestmentSeed
}

func DemoDataset() Dataset {
	return Dataset{
		User: UserSeed{
			Email:         DemoEmail,
			Password:      DemoPassword,
			FirstName:     "John",
			LastName:      "Doe",
			Phone:         "555-123-4567",
			City:          "San Francisco",
			State:         "CA",
			ProfilePic:    "JD",
			SecurityScore: 85,
			IsVerified:    true,
			IsActive:      true,
		},
		Checking: AccountSeed{
			AccountType:   "Checking",
			AccountNumber: "1234567890",
			AccountName:   "Primary Checking",
			Balance:       money("5250.00"),
			IsPrimary:     true,
			Color:         "from-blue-600 to-blue-800",
		},
		Transactions: []TransactionSeed{
			{Type: storage.TransactionCredit, Amount: money("3000.00"), Description: "Salary Deposit", Category: "Income"},
			{Type: storage.TransactionDebit, Amount: money("150.00"), Description: "Grocery Store", Category: "Food"},
			{Type: storage.TransactionDebit, Amount: money("80.00"), Description: "Gas Station", Category: "Transportation"},
			{Type: storage.TransactionDebit, Amount: money("200.00"), Description: "Electric Bill", Category: "Utilities"},
			{Type: storage.TransactionDebit, Amount: money("50.00"), Description: "Restaurant", Category: "Food"},
			{Type: storage.TransactionCredit, Amount: money("500.00"), Description: "Freelance Payment", Category: "Income"},
			{Type: storage.TransactionDebit, Amount: money("120.00"), Description: "Clothing Store", Category: "Shopping"},
			{Type: storage.TransactionDebit, Amount: money("45.00"), Description: "Internet Bill", Category: "Utilities"},
			{Type: storage.TransactionDebit, Amount: money("300.00"), Description: "Car Insurance", Category: "Insurance"},
			{Type: storage.TransactionDebit, Amount: money("60.00"), Description: "Pharmacy", Category: "Healthcare"},
		},
		Savings: AccountSeed{
			AccountType:   "Savings",
			AccountNumber: "0987654321",
			AccountName:   "Emergency Fund",
			Balance:       money("15000.00"),
			IsPrimary:     false,
			Color:         "from-green-600 to-green-800",
		},
		SavingsGoal: SavingsGoalSeed{
			Name:          "New Car",
			TargetAmount:  money("20000.00"),
			CurrentAmount: money("15000.00"),
			TargetDate:    "2026-12-31",
		},
		Card: CardSeed{
			Number:         "4532015112830366",
			CardType:       "Debit",
			CardBrand:      "Visa",
			ExpiryDate:     "12/2028",
			CardholderName: "John Doe",
			CVV:            "123",
		},
		Investments: []InvestmentSeed{
			{InvestmentType: "Stock", Symbol: "AAPL", Name: "Apple Inc.", Quantity: money("10"), AverageCost: money("175.50"), CurrentPrice: money("178.25"), Sector: "Technology", AssetClass: "Stock", RiskLevel: "moderate", IsESG: true},
			{InvestmentType: "ETF", Symbol: "VOO", Name: "Vanguard S&P 500", Quantity: money("25"), AverageCost: money("420.00"), CurrentPrice: money("435.00"), Sector: "Technology", AssetClass: "ETF", RiskLevel: "low", IsESG: true},
			{InvestmentType: "Stock", Symbol: "TSLA", Name: "Tesla Inc.", Quantity: money("15"), AverageCost: money("245.00"), CurrentPrice: money("238.50"), Sector: "Technology", AssetClass: "Stock", RiskLevel: "high", IsESG: false},
		},
	}
}

// Validate checks the dataset before anything is written: credits must be
// income and debits must not, amounts are positive, and every investment can
// produce its derived figures.
func (d Dataset) Validate() error {
	if d.User.Email == "" || d.User.Password == "" {
		return fmt.Errorf("%w: user email and password are required", ErrInvalidDataset)
	}
	if d.Checking.AccountNumber == d.Savings.AccountNumber {
		return fmt.Errorf("%w: checking and savings share account number %s", ErrInvalidDataset, d.Checking.AccountNumber)
	}

	for i, txn := range d.Transactions {
		if !txn.Amount.IsPositive() {
			return fmt.Errorf("%w: transaction %d (%s) amount must be positive", ErrInvalidDataset, i, txn.Description)
		}
		switch txn.Type {
		case storage.TransactionCredit:
			if txn.Category != incomeCategory {
				return fmt.Errorf("%w: credit transaction %d (%s) has category %q", ErrInvalidDataset, i, txn.Description, txn.Category)
			}
		case storage.TransactionDebit:
			if txn.Category == incomeCategory {
				return fmt.Errorf("%w: debit transaction %d (%s) is categorised as income", ErrInvalidDataset, i, txn.Description)
			}
		default:
			return fmt.Errorf("%w: transaction %d has unknown type %q", ErrInvalidDataset, i, txn.Type)
		}
	}

	for _, inv := range d.Investments {
		if _, err := ComputeInvestmentMetrics(inv.Quantity, inv.AverageCost, inv.CurrentPrice); err != nil {
			return fmt.Errorf("%w: investment %s: %v", ErrInvalidDataset, inv.Symbol, err)
		}
	}
	return nil
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

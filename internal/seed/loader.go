package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/securebank/securebank-init/internal/crypto"
	"github.com/securebank/securebank-init/internal/storage"
	"golang.org/x/sync/errgroup"
)

const referencePrefix = "TXN-"

var ErrSeedAborted = errors.New("seed aborted")

type Options struct {
	// Atomic writes the whole dataset in one transaction. Any failure rolls
	// everything back instead of being logged and skipped.
	Atomic           bool
	PasswordCost     int
	BatchParallelism int
	Logger           *slog.Logger
}

// Result records the rows the loader wrote. Failures holds the steps that
// failed in tolerant mode and Skipped names the steps that never ran because
// the row they hang off was not written.
type Result struct {
	AlreadySeeded     bool
	UserID            int64
	CheckingAccountID int64
	SavingsAccountID  int64
	SavingsGoalID     int64
	CardID            int64
	TransactionIDs    []int64
	InvestmentIDs     []int64
	Failures          []error
	Skipped           []string
}

func (r Result) Partial() bool {
	return len(r.Failures) > 0 || len(r.Skipped) > 0
}

type Loader struct {
	store *storage.Store
	data  Dataset
	opts  Options
}

func NewLoader(store *storage.Store, data Dataset, opts Options) (*Loader, error) {
	if store == nil {
		return nil, fmt.Errorf("new seed loader: store is nil")
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if opts.PasswordCost == 0 {
		opts.PasswordCost = crypto.DefaultPasswordCost
	}
	if opts.BatchParallelism < 1 {
		opts.BatchParallelism = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Loader{store: store, data: data, opts: opts}, nil
}

// Run writes the dataset unless its user already exists. In tolerant mode it
// returns an error only for failures that leave nothing to report; row level
// failures are collected in the Result.
func (l *Loader) Run(ctx context.Context) (Result, error) {
	hash, err := crypto.HashPassword(l.data.User.Password, l.opts.PasswordCost)
	if err != nil {
		return Result{}, fmt.Errorf("seed demo data: %w", err)
	}

	if !l.opts.Atomic {
		return l.run(ctx, l.store.Repositories, hash, l.opts.BatchParallelism)
	}

	var result Result
	err = l.store.InTx(ctx, func(_ storage.Querier, repos storage.Repositories) error {
		var runErr error
		result, runErr = l.run(ctx, repos, hash, 1)
		return runErr
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSeedAborted, err)
	}
	return result, nil
}

type step struct {
	name     string
	requires func(*Result) bool
	run      func(ctx context.Context, p *pipeline) error
}

type pipeline struct {
	repos       storage.Repositories
	data        Dataset
	hash        string
	parallelism int
	strict      bool
	logger      *slog.Logger
	result      Result
	done        bool

	mu sync.Mutex
}

func (l *Loader) run(ctx context.Context, repos storage.Repositories, hash string, parallelism int) (Result, error) {
	p := &pipeline{
		repos:       repos,
		data:        l.data,
		hash:        hash,
		parallelism: parallelism,
		strict:      l.opts.Atomic,
		logger:      l.opts.Logger,
	}

	for _, s := range steps() {
		if p.done {
			break
		}
		if err := ctx.Err(); err != nil {
			return p.result, err
		}
		if s.requires != nil && !s.requires(&p.result) {
			p.logger.Warn("seed step skipped", "step", s.name, "reason", "parent row missing")
			p.result.Skipped = append(p.result.Skipped, s.name)
			continue
		}
		if err := s.run(ctx, p); err != nil {
			if p.strict {
				return p.result, fmt.Errorf("seed %s: %w", s.name, err)
			}
			p.fail(s.name, err)
		}
	}

	if !p.result.AlreadySeeded {
		p.logger.Info("demo data seeded",
			"user_id", p.result.UserID,
			"transactions", len(p.result.TransactionIDs),
			"investments", len(p.result.InvestmentIDs),
			"failures", len(p.result.Failures),
			"skipped", len(p.result.Skipped),
		)
	}
	return p.result, nil
}

func (p *pipeline) fail(step string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Error("seed step failed", "step", step, "error", err)
	p.result.Failures = append(p.result.Failures, fmt.Errorf("seed %s: %w", step, err))
}

func steps() []step {
	hasUser := func(r *Result) bool { return r.UserID != 0 }
	hasChecking := func(r *Result) bool { return r.CheckingAccountID != 0 }
	hasSavings := func(r *Result) bool { return r.SavingsAccountID != 0 }

	return []step{
		{name: "user", run: seedUser},
		{name: "checking account", requires: hasUser, run: seedCheckingAccount},
		{name: "transactions", requires: hasChecking, run: seedTransactions},
		{name: "savings account", requires: hasUser, run: seedSavingsAccount},
		{name: "savings goal", requires: hasSavings, run: seedSavingsGoal},
		{name: "card", requires: hasChecking, run: seedCard},
		{name: "investments", requires: hasUser, run: seedInvestments},
	}
}

func seedUser(ctx context.Context, p *pipeline) error {
	seed := p.data.User
	user := &storage.User{
		Email:         seed.Email,
		PasswordHash:  p.hash,
		FirstName:     seed.FirstName,
		LastName:      seed.LastName,
		Phone:         seed.Phone,
		City:          seed.City,
		State:         seed.State,
		ProfilePic:    seed.ProfilePic,
		SecurityScore: seed.SecurityScore,
		IsVerified:    seed.IsVerified,
		IsActive:      seed.IsActive,
	}
	created, err := p.repos.Users.CreateIfAbsent(ctx, user)
	if err != nil {
		return err
	}
	p.result.UserID = user.ID
	if !created {
		p.result.AlreadySeeded = true
		p.done = true
		p.logger.Info("demo data already present", "email", seed.Email, "user_id", user.ID)
		return nil
	}
	p.logger.Debug("demo user created", "user_id", user.ID)
	return nil
}

func seedCheckingAccount(ctx context.Context, p *pipeline) error {
	id, err := createAccount(ctx, p, p.data.Checking)
	if err != nil {
		return err
	}
	p.result.CheckingAccountID = id
	return nil
}

func seedSavingsAccount(ctx context.Context, p *pipeline) error {
	id, err := createAccount(ctx, p, p.data.Savings)
	if err != nil {
		return err
	}
	p.result.SavingsAccountID = id
	return nil
}

func createAccount(ctx context.Context, p *pipeline, seed AccountSeed) (int64, error) {
	balance := seed.Balance.InexactFloat64()
	account := &storage.Account{
		UserID:           p.result.UserID,
		AccountType:      seed.AccountType,
		AccountNumber:    seed.AccountNumber,
		Balance:          balance,
		AvailableBalance: balance,
		AccountName:      seed.AccountName,
		IsPrimary:        seed.IsPrimary,
		Color:            seed.Color,
	}
	if err := p.repos.Accounts.Create(ctx, account); err != nil {
		return 0, err
	}
	p.logger.Debug("account created", "account_id", account.ID, "type", seed.AccountType)
	return account.ID, nil
}

func seedTransactions(ctx context.Context, p *pipeline) error {
	ids, err := runBatch(ctx, p, "transaction", len(p.data.Transactions), func(ctx context.Context, i int) (int64, error) {
		seed := p.data.Transactions[i]
		txn := &storage.Transaction{
			AccountID:       p.result.CheckingAccountID,
			Type:            seed.Type,
			Amount:          seed.Amount.InexactFloat64(),
			Description:     seed.Description,
			Category:        seed.Category,
			ReferenceNumber: referencePrefix + uuid.NewString(),
		}
		if err := p.repos.Transactions.Create(ctx, txn); err != nil {
			return 0, fmt.Errorf("%s: %w", seed.Description, err)
		}
		return txn.ID, nil
	})
	p.result.TransactionIDs = ids
	return err
}

func seedSavingsGoal(ctx context.Context, p *pipeline) error {
	seed := p.data.SavingsGoal
	goal := &storage.SavingsGoal{
		UserID:        p.result.UserID,
		GoalName:      seed.Name,
		TargetAmount:  seed.TargetAmount.InexactFloat64(),
		CurrentAmount: seed.CurrentAmount.InexactFloat64(),
		TargetDate:    seed.TargetDate,
	}
	if err := p.repos.SavingsGoals.Create(ctx, goal); err != nil {
		return err
	}
	p.result.SavingsGoalID = goal.ID
	return nil
}

func seedCard(ctx context.Context, p *pipeline) error {
	seed := p.data.Card
	card := &storage.Card{
		AccountID:      p.result.CheckingAccountID,
		Number:         seed.Number,
		CardType:       seed.CardType,
		CardBrand:      seed.CardBrand,
		ExpiryDate:     seed.ExpiryDate,
		CardholderName: seed.CardholderName,
		CVV:            seed.CVV,
	}
	if err := p.repos.Cards.Create(ctx, card); err != nil {
		return err
	}
	p.result.CardID = card.ID
	return nil
}

func seedInvestments(ctx context.Context, p *pipeline) error {
	ids, err := runBatch(ctx, p, "investment", len(p.data.Investments), func(ctx context.Context, i int) (int64, error) {
		seed := p.data.Investments[i]
		metrics, err := ComputeInvestmentMetrics(seed.Quantity, seed.AverageCost, seed.CurrentPrice)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", seed.Symbol, err)
		}
		inv := &storage.Investment{
			UserID:         p.result.UserID,
			InvestmentType: seed.InvestmentType,
			Symbol:         seed.Symbol,
			Name:           seed.Name,
			Quantity:       seed.Quantity.InexactFloat64(),
			AverageCost:    seed.AverageCost.InexactFloat64(),
			CurrentPrice:   seed.CurrentPrice.InexactFloat64(),
			CurrentValue:   metrics.CurrentValue.InexactFloat64(),
			ChangePercent:  metrics.ChangePercent.InexactFloat64(),
			ChangeValue:    metrics.ChangeValue.InexactFloat64(),
			IsESG:          seed.IsESG,
			Sector:         seed.Sector,
			AssetClass:     seed.AssetClass,
			RiskLevel:      seed.RiskLevel,
		}
		if err := p.repos.Investments.Create(ctx, inv); err != nil {
			return 0, err
		}
		return inv.ID, nil
	})
	p.result.InvestmentIDs = ids
	return err
}

// runBatch inserts n sibling rows with at most p.parallelism in flight. In
// strict mode the first failure cancels the rest and is returned; otherwise
// each failure is recorded and the remaining rows still go in. The returned
// IDs keep dataset order and leave out failed rows.
func runBatch(ctx context.Context, p *pipeline, kind string, n int, insert func(ctx context.Context, i int) (int64, error)) ([]int64, error) {
	ids := make([]int64, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			id, err := insert(gctx, i)
			if err != nil {
				if p.strict {
					return err
				}
				p.fail(kind, err)
				return nil
			}
			ids[i] = id
			return nil
		})
	}
	err := g.Wait()

	written := make([]int64, 0, n)
	for _, id := range ids {
		if id != 0 {
			written = append(written, id)
		}
	}
	return written, err
}

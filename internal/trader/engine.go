package trader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"demo-options-trader/internal/config"
	"demo-options-trader/internal/history"
	"demo-options-trader/internal/ledger"
	"demo-options-trader/internal/models"
	"demo-options-trader/internal/notify"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrEngineClosed is returned by operations attempted after Close.
var ErrEngineClosed = errors.New("engine is closed")

// Dependencies are the collaborators an Engine is built from. Nil fields are
// replaced by in-process defaults.
type Dependencies struct {
	Ledger   *ledger.Ledger
	History  *history.Log
	Notifier notify.Notifier
	Clock    Clock
	Random   RandomSource
	Strategy OutcomeStrategy
}

// Engine runs the lifecycle of one trade at a time: open, count down, resolve.
type Engine struct {
	SessionID uuid.UUID
	StartTime time.Time

	logger    *zap.Logger
	cfg       *config.Config
	ledger    *ledger.Ledger
	history   *history.Log
	notifier  notify.Notifier
	clock     Clock
	random    RandomSource
	countdown *Countdown

	strategy OutcomeStrategy
	printer  *message.Printer

	// ctx outlives individual requests; resolutions persist with it.
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	active      *models.Trade
	closed      bool
	onCountdown func(tradeID uuid.UUID, remaining int)
}

// NewEngine creates a new trade engine.
func NewEngine(logger *zap.Logger, cfg *config.Config, deps Dependencies) *Engine {
	logger = logger.Named("engine")
	ctx, cancel := context.WithCancel(context.Background())

	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Random == nil {
		deps.Random = NewRandomSource(cfg.Trading.RandomSeed)
	}
	if deps.Strategy == nil {
		deps.Strategy = NewFixedOdds(cfg.Trading)
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop
	}
	if deps.Ledger == nil {
		deps.Ledger = ledger.New(decimal.NewFromFloat(cfg.Trading.InitialBalance))
	}
	if deps.History == nil {
		deps.History = history.NewLog(ctx, history.NewMemoryStore(), cfg.Trading.HistoryLimit, logger)
	}

	e := &Engine{
		SessionID:   uuid.New(),
		StartTime:   deps.Clock.Now(),
		logger:      logger,
		cfg:         cfg,
		ledger:      deps.Ledger,
		history:     deps.History,
		notifier:    deps.Notifier,
		clock:       deps.Clock,
		random:      deps.Random,
		countdown:   NewCountdown(deps.Clock, cfg.Trading.TickInterval, logger),
		strategy:    deps.Strategy,
		printer:     message.NewPrinter(language.English),
		ctx:         ctx,
		cancel:      cancel,
	}
	e.countdown.OnTick(e.handleTick)

	e.logger.Info("Engine initialized",
		zap.String("session_id", e.SessionID.String()),
		zap.String("balance", e.ledger.Balance().String()),
		zap.String("strategy", e.strategy.Name()),
		zap.Int("history_entries", e.history.Len()),
	)
	return e
}

// Submit parses raw user input and opens a trade. Unparseable stakes are
// reported the same way as non-positive ones.
func (e *Engine) Submit(ctx context.Context, direction, stake string) (models.Trade, error) {
	dir, err := models.ParseDirection(direction)
	if err != nil {
		return models.Trade{}, err
	}
	amount, err := models.ParseStake(stake)
	if err != nil {
		e.notify(models.EventInvalidStake, "Invalid Amount", "Please enter a valid trade amount", models.CategoryDestructive)
		return models.Trade{}, err
	}
	return e.Open(ctx, dir, amount)
}

// Open validates and starts a trade. The balance is not touched until the
// trade resolves.
func (e *Engine) Open(ctx context.Context, direction models.Direction, stake decimal.Decimal) (models.Trade, error) {
	if err := ctx.Err(); err != nil {
		return models.Trade{}, err
	}

	e.mu.Lock()
	trade, n, err := e.open(direction, stake)
	e.mu.Unlock()

	if n != nil {
		e.notifier.Notify(*n)
	}
	if err != nil {
		e.logger.Debug("Trade rejected",
			zap.String("direction", string(direction)),
			zap.String("stake", stake.String()),
			zap.Error(err),
		)
		return models.Trade{}, err
	}

	e.logger.Info("Trade opened",
		zap.String("trade_id", trade.ID.String()),
		zap.String("direction", string(trade.Direction)),
		zap.String("stake", trade.Stake.String()),
	)
	return trade, nil
}

// open runs with e.mu held.
func (e *Engine) open(direction models.Direction, stake decimal.Decimal) (models.Trade, *models.Notification, error) {
	switch {
	case e.closed:
		return models.Trade{}, nil, ErrEngineClosed
	case e.active != nil:
		return models.Trade{}, nil, models.ErrTradeAlreadyActive
	case !direction.Valid():
		return models.Trade{}, nil, models.ErrInvalidDirection
	case !stake.IsPositive() || !models.ValidMoney(stake):
		n := e.notification(models.EventInvalidStake, "Invalid Amount",
			"Please enter a valid trade amount", models.CategoryDestructive)
		return models.Trade{}, &n, models.ErrInvalidStake
	case stake.GreaterThan(e.ledger.Balance()):
		n := e.notification(models.EventInsufficientBalance, "Insufficient Balance",
			"Your trade amount exceeds your available balance", models.CategoryDestructive)
		return models.Trade{}, &n, models.ErrInsufficientBalance
	}

	trade := models.Trade{
		ID:        uuid.New(),
		Direction: direction,
		Stake:     stake,
		OpenedAt:  e.clock.Now(),
	}
	ticks := e.cfg.Trading.CountdownTicks
	if err := e.countdown.Start(ticks, func() { e.resolve(trade.ID) }); err != nil {
		return models.Trade{}, nil, fmt.Errorf("failed to start countdown: %w", err)
	}
	e.active = &trade

	n := e.notification(models.EventTradeStarted,
		fmt.Sprintf("%s Trade Started!", direction),
		fmt.Sprintf("%s - %d seconds remaining", e.formatMoney(stake), int((time.Duration(ticks)*e.cfg.Trading.TickInterval).Seconds())),
		models.CategoryNeutral)
	return trade, &n, nil
}

// resolve settles the active trade. It is called once per trade, by the
// countdown, and is a no-op if the trade is no longer active.
func (e *Engine) resolve(id uuid.UUID) {
	e.mu.Lock()
	if e.closed || e.active == nil || e.active.ID != id {
		e.mu.Unlock()
		e.logger.Debug("Ignoring resolution of inactive trade", zap.String("trade_id", id.String()))
		return
	}
	trade := *e.active

	result, payout := e.strategy.Decide(trade.Stake, e.random.Float64())
	if result == models.ResultWin {
		e.ledger.Credit(payout)
	} else {
		e.ledger.Debit(payout.Neg())
	}

	resolved := trade.Resolved(result, payout, e.clock.Now())
	if err := e.history.Append(e.ctx, resolved); err != nil {
		// The resolution stands; only durability is lost.
		e.logger.Error("Failed to persist trade history", zap.String("trade_id", id.String()), zap.Error(err))
	}
	e.active = nil

	pending := []models.Notification{e.resultNotification(resolved)}
	if n, ok := e.autoRecharge(); ok {
		pending = append(pending, n)
	}
	balance := e.ledger.Balance()
	e.mu.Unlock()

	e.logger.Info("Trade resolved",
		zap.String("trade_id", id.String()),
		zap.String("result", string(result)),
		zap.String("payout", payout.String()),
		zap.String("balance", balance.String()),
	)
	for _, n := range pending {
		e.notifier.Notify(n)
	}
}

// autoRecharge runs with e.mu held, right after a resolution.
func (e *Engine) autoRecharge() (models.Notification, bool) {
	ar := e.cfg.Trading.AutoRecharge
	if !ar.Enabled {
		return models.Notification{}, false
	}
	if !e.ledger.Balance().LessThan(decimal.NewFromFloat(ar.Threshold)) {
		return models.Notification{}, false
	}
	amount := decimal.NewFromFloat(ar.Amount)
	e.ledger.Credit(amount)
	e.logger.Info("Balance auto-recharged", zap.String("amount", amount.String()))
	return e.rechargeNotification(amount), true
}

// Credit adds a user recharge to the balance.
func (e *Engine) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() || !models.ValidMoney(amount) {
		return models.ErrInvalidAmount
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	e.ledger.Credit(amount)
	e.mu.Unlock()

	e.logger.Info("Balance recharged", zap.String("amount", amount.String()))
	e.notifier.Notify(e.rechargeNotification(amount))
	return nil
}

// ClearHistory empties the trade history.
func (e *Engine) ClearHistory(ctx context.Context) error {
	if err := e.history.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	e.logger.Info("Trade history cleared")
	e.notify(models.EventHistoryCleared, "History Cleared", "All trade history has been removed", models.CategoryNeutral)
	return nil
}

// Balance returns the current balance.
func (e *Engine) Balance() decimal.Decimal {
	return e.ledger.Balance()
}

// ActiveTrade returns the trade currently counting down, if any.
func (e *Engine) ActiveTrade() (models.Trade, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return models.Trade{}, false
	}
	return *e.active, true
}

// RemainingTicks returns the ticks left on the active trade's countdown.
func (e *Engine) RemainingTicks() int {
	return e.countdown.Remaining()
}

// History returns resolved trades, newest first.
func (e *Engine) History() []models.Trade {
	return e.history.List()
}

// Stats summarises the trade history.
func (e *Engine) Stats() history.Stats {
	return e.history.Stats()
}

// OnCountdown registers a hook called on every countdown tick.
func (e *Engine) OnCountdown(fn func(tradeID uuid.UUID, remaining int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onCountdown = fn
}

func (e *Engine) handleTick(remaining int) {
	e.mu.Lock()
	fn := e.onCountdown
	var id uuid.UUID
	if e.active != nil {
		id = e.active.ID
	}
	e.mu.Unlock()

	if fn != nil && id != uuid.Nil {
		fn(id, remaining)
	}
}

// Close ends the session. A trade still counting down is abandoned: its stake
// was never debited and it is not recorded.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.countdown.Stop()
	if e.active != nil {
		e.logger.Warn("Abandoning active trade", zap.String("trade_id", e.active.ID.String()))
		e.active = nil
	}
	e.cancel()
	e.logger.Info("Engine closed", zap.Duration("uptime", e.clock.Now().Sub(e.StartTime)))
}

func (e *Engine) resultNotification(t models.Trade) models.Notification {
	if *t.Result == models.ResultWin {
		return e.notification(models.EventTradeWon, "Trade Won!",
			fmt.Sprintf("You Won! +%s profit", e.formatMoney(*t.Payout)), models.CategorySuccess)
	}
	return e.notification(models.EventTradeLost, "Trade Lost",
		fmt.Sprintf("You Lost! %s", e.formatMoney(t.Payout.Abs())), models.CategoryDestructive)
}

func (e *Engine) rechargeNotification(amount decimal.Decimal) models.Notification {
	return e.notification(models.EventBalanceRecharged, "Balance Recharged!",
		fmt.Sprintf("Added %s to your demo account", e.formatMoney(amount)), models.CategorySuccess)
}

func (e *Engine) notify(event models.Event, title, description string, category models.Category) {
	e.notifier.Notify(e.notification(event, title, description, category))
}

func (e *Engine) notification(event models.Event, title, description string, category models.Category) models.Notification {
	return models.Notification{
		Event:       event,
		Title:       title,
		Description: description,
		Category:    category,
		Timestamp:   e.clock.Now(),
	}
}

// formatMoney renders "$1,000,000,080" or "$0.80".
func (e *Engine) formatMoney(d decimal.Decimal) string {
	if d.IsInteger() {
		return e.printer.Sprintf("$%d", d.IntPart())
	}
	return e.printer.Sprintf("$%.2f", d.InexactFloat64())
}

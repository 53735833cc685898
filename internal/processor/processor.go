package processor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/liamashdown/buyalert/internal/alerts"
	"github.com/liamashdown/buyalert/internal/blockscout"
	"github.com/liamashdown/buyalert/internal/config"
	"github.com/liamashdown/buyalert/internal/dexscreener"
	"github.com/liamashdown/buyalert/internal/fetch"
	"github.com/liamashdown/buyalert/internal/ledger"
	"github.com/liamashdown/buyalert/internal/metrics"
	"github.com/liamashdown/buyalert/internal/storage"
	"github.com/sirupsen/logrus"
)

// ErrDataUnavailable aborts a cycle when there is no usable market data
var ErrDataUnavailable = errors.New("market data unavailable")

// MarketSource returns the trading pairs of a token
type MarketSource interface {
	GetPairs(ctx context.Context, token string) ([]dexscreener.Pair, error)
}

// TransferSource returns the most recent transfers of a token
type TransferSource interface {
	GetTransfers(ctx context.Context, token string) ([]blockscout.Transfer, error)
	GetTransfersWithPolicy(ctx context.Context, token string, policy fetch.RetryPolicy) ([]blockscout.Transfer, error)
}

// AlertStore keeps a history of alerted buys
type AlertStore interface {
	InsertBuyAlert(ctx context.Context, alert *storage.BuyAlert) error
	RecentTxHashes(ctx context.Context, token string, limit int) ([]string, error)
}

// State of the polling loop
type State int32

const (
	StateIdle State = iota
	StateCycling
)

func (s State) String() string {
	if s == StateCycling {
		return "cycling"
	}
	return "idle"
}

// Processor runs the poll, classify, dedup and alert loop for one token
type Processor struct {
	cfg           *config.Config
	market        MarketSource
	transfers     TransferSource
	alertSender   alerts.Sender
	store         AlertStore // optional
	ledger        *ledger.Ledger
	preloadPolicy fetch.RetryPolicy
	log           *logrus.Logger

	cycleMu sync.Mutex
	state   atomic.Int32
	ready   atomic.Bool
	trigger chan struct{}

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates a new processor. store may be nil.
func New(
	cfg *config.Config,
	market MarketSource,
	transfers TransferSource,
	alertSender alerts.Sender,
	store AlertStore,
	log *logrus.Logger,
) *Processor {
	return &Processor{
		cfg:           cfg,
		market:        market,
		transfers:     transfers,
		alertSender:   alertSender,
		store:         store,
		ledger:        ledger.New(cfg.LedgerMax, cfg.LedgerKeep),
		preloadPolicy: fetch.DefaultPolicy(cfg.FetchRetries, cfg.PreloadRetryBase),
		log:           log,
		trigger:       make(chan struct{}, 1),
		sleep:         sleepContext,
		now:           time.Now,
	}
}

// Ledger exposes the dedup ledger
func (p *Processor) Ledger() *ledger.Ledger {
	return p.ledger
}

// State reports whether a cycle is running
func (p *Processor) State() State {
	return State(p.state.Load())
}

// Ready reports whether preload has finished
func (p *Processor) Ready() bool {
	return p.ready.Load()
}

// MarkReady flags the processor ready when preload is disabled
func (p *Processor) MarkReady() {
	p.ready.Store(true)
}

// Trigger requests a cycle. While a cycle runs, further triggers
// collapse into a single queued one.
func (p *Processor) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled: once after InitialDelay, then every
// PollInterval, plus on Trigger. Cycles never overlap and a failed cycle
// does not stop the schedule.
func (p *Processor) Run(ctx context.Context) {
	initial := time.NewTimer(p.cfg.InitialDelay)
	defer initial.Stop()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-initial.C:
		case <-ticker.C:
		case <-p.trigger:
		}
		p.safeCycle(ctx)
	}
}

func (p *Processor) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("panic", r).Error("Recovered from panic in poll cycle")
		}
	}()

	err := p.RunCycle(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
	case errors.Is(err, ErrDataUnavailable):
		p.log.WithError(err).Debug("Skipping cycle")
	case fetch.IsTransient(err):
		p.log.WithError(err).Debug("Transient upstream error")
	default:
		p.log.WithError(err).Error("Check error")
	}
}

// RunCycle runs one fetch, classify and alert pass. Concurrent callers
// are serialized.
func (p *Processor) RunCycle(ctx context.Context) error {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	p.state.Store(int32(StateCycling))
	defer p.state.Store(int32(StateIdle))

	start := time.Now()
	err := p.runCycle(ctx)
	metrics.RecordCycle(time.Since(start), cycleStatus(err))
	return err
}

func (p *Processor) runCycle(ctx context.Context) error {
	pair, err := p.fetchPairContext(ctx)
	if err != nil {
		return err
	}

	transfers, err := p.transfers.GetTransfers(ctx, p.cfg.TokenAddress)
	if err != nil {
		return fmt.Errorf("fetch transfers: %w", err)
	}

	for i := range transfers {
		t := &transfers[i]

		txHash := t.ID()
		if txHash == "" {
			metrics.TransfersProcessed.WithLabelValues("missing_id").Inc()
			continue
		}

		// claim the id before anything can fail
		if !p.ledger.CheckAndInsert(txHash) {
			metrics.TransfersProcessed.WithLabelValues("duplicate").Inc()
			continue
		}

		trade, verdict := Classify(t, pair, p.cfg.MinBuyUSD)
		metrics.TransfersProcessed.WithLabelValues(verdict.String()).Inc()

		switch verdict {
		case VerdictNotABuy:
			continue
		case VerdictBelowThreshold:
			p.log.WithFields(logrus.Fields{
				"tx_hash":    txHash,
				"amount_usd": round2(trade.AmountUSD),
			}).Info("Skip small buy")
			continue
		}

		p.log.WithFields(logrus.Fields{
			"tx_hash":    txHash,
			"buyer":      trade.Buyer,
			"amount_usd": round2(trade.AmountUSD),
			"tokens":     trade.TokensReceived,
		}).Info("New buy")

		p.sendAlert(ctx, trade, pair)

		if err := p.sleep(ctx, p.cfg.AlertSpacing); err != nil {
			return err
		}
	}

	evicted := p.ledger.PruneIfOversized()
	if evicted > 0 {
		p.log.WithFields(logrus.Fields{
			"evicted": evicted,
			"kept":    p.ledger.Size(),
		}).Info("Cleaned up old transaction cache")
	}
	metrics.RecordLedger(p.ledger.Size(), evicted)

	return nil
}

// fetchPairContext loads this cycle's market snapshot
func (p *Processor) fetchPairContext(ctx context.Context) (PairContext, error) {
	pairs, err := p.market.GetPairs(ctx, p.cfg.TokenAddress)
	if err != nil {
		return PairContext{}, fmt.Errorf("fetch market data: %w", err)
	}

	selected := dexscreener.SelectPair(pairs, p.cfg.ChainID)
	if selected == nil {
		return PairContext{}, fmt.Errorf("%w: no pairs for token", ErrDataUnavailable)
	}

	pc := p.newPairContext(selected)
	if pc.PairAddress == "" {
		p.log.Warn("No pair address found")
		return PairContext{}, fmt.Errorf("%w: no pair address", ErrDataUnavailable)
	}

	return pc, nil
}

func (p *Processor) newPairContext(pair *dexscreener.Pair) PairContext {
	priceNative := parseFloat(pair.PriceNative)
	if priceNative <= 0 {
		priceNative = 1
	}

	marketCap := pair.MarketCap
	if marketCap == 0 {
		marketCap = pair.FDV
	}

	return PairContext{
		PairAddress:  CanonicalAddress(pair.PairAddress),
		PriceUSD:     parseFloat(pair.PriceUSD),
		PriceNative:  priceNative,
		MarketCapUSD: marketCap,
		TokenName:    firstNonEmpty(p.cfg.TokenName, pair.BaseToken.Name, "Token"),
		TokenSymbol:  firstNonEmpty(p.cfg.TokenSymbol, pair.BaseToken.Symbol, "TKN"),
		QuoteSymbol:  firstNonEmpty(pair.QuoteToken.Symbol, "ETH"),
	}
}

// sendAlert delivers one buy alert. Delivery errors are logged, never returned.
func (p *Processor) sendAlert(ctx context.Context, trade Trade, pair PairContext) {
	payload := p.buildPayload(trade, pair)

	sendStatus := "success"
	delivery := storage.DeliverySent
	if err := p.alertSender.Send(ctx, payload); err != nil {
		sendStatus = "error"
		delivery = storage.DeliveryFailed
		p.log.WithError(err).WithField("tx_hash", trade.TxHash).Error("Failed to send alert")
	} else {
		p.log.WithFields(logrus.Fields{
			"tx_hash":    trade.TxHash,
			"amount_usd": round2(trade.AmountUSD),
		}).Info("Alert sent")
	}
	metrics.RecordAlert(sendStatus, alerts.NameOf(p.alertSender), trade.AmountUSD)

	if p.store == nil {
		return
	}
	record := &storage.BuyAlert{
		TxHash:         trade.TxHash,
		TokenAddress:   CanonicalAddress(p.cfg.TokenAddress),
		PairAddress:    pair.PairAddress,
		Buyer:          trade.Buyer,
		AmountUSD:      trade.AmountUSD,
		AmountNative:   trade.AmountNative,
		TokensReceived: trade.TokensReceived,
		PriceUSD:       pair.PriceUSD,
		MarketCapUSD:   pair.MarketCapUSD,
		Delivery:       delivery,
	}
	if err := p.store.InsertBuyAlert(ctx, record); err != nil {
		p.log.WithError(err).WithField("tx_hash", trade.TxHash).Warn("Failed to record alert")
	}
}

func (p *Processor) buildPayload(trade Trade, pair PairContext) *alerts.BuyPayload {
	payload := &alerts.BuyPayload{
		TokenName:      pair.TokenName,
		TokenSymbol:    pair.TokenSymbol,
		QuoteSymbol:    pair.QuoteSymbol,
		AmountUSD:      trade.AmountUSD,
		AmountNative:   trade.AmountNative,
		TokensReceived: trade.TokensReceived,
		Position:       trade.Position,
		PriceUSD:       pair.PriceUSD,
		MarketCapUSD:   pair.MarketCapUSD,
		Buyer:          trade.Buyer,
		TxHash:         trade.TxHash,
		ChartURL:       fmt.Sprintf("%s/%s/%s", p.cfg.DexScreenerWebURL, p.cfg.ChainID, p.cfg.TokenAddress),
		Timestamp:      p.now(),
		Environment:    p.cfg.Environment,
	}
	if trade.Buyer != "" {
		payload.BuyerURL = p.cfg.ExplorerURL + "/address/" + trade.Buyer
	}
	if trade.TxHash != "" {
		payload.TxURL = p.cfg.ExplorerURL + "/tx/" + trade.TxHash
	}
	return payload
}

// Preload marks the current transfer feed as seen without classifying it,
// so only buys made after startup are alerted. Recently alerted tx hashes
// from the store are loaded first. Failure leaves the ledger partially
// filled and is not fatal.
func (p *Processor) Preload(ctx context.Context) error {
	defer p.ready.Store(true)

	p.log.Info("Loading existing transactions...")

	if p.store != nil {
		hashes, err := p.store.RecentTxHashes(ctx, CanonicalAddress(p.cfg.TokenAddress), p.cfg.LedgerKeep)
		if err != nil {
			p.log.WithError(err).Warn("Could not load alert history")
		} else {
			p.ledger.InsertAll(hashes)
		}
	}

	transfers, err := p.transfers.GetTransfersWithPolicy(ctx, p.cfg.TokenAddress, p.preloadPolicy)
	if err != nil {
		p.log.WithError(err).Warn("Could not pre-load transactions")
		return fmt.Errorf("preload transfers: %w", err)
	}

	ids := make([]string, 0, len(transfers))
	for i := range transfers {
		if id := transfers[i].ID(); id != "" {
			ids = append(ids, id)
		}
	}
	p.ledger.InsertAll(ids)
	metrics.RecordLedger(p.ledger.Size(), 0)

	p.log.WithField("count", p.ledger.Size()).Info("Loaded existing txs (will skip these)")
	return nil
}

// SendDemoAlert sends a synthetic buy using live market data
func (p *Processor) SendDemoAlert(ctx context.Context) error {
	p.log.Info("Sending demo alert...")

	pair, err := p.fetchPairContext(ctx)
	if err != nil {
		return fmt.Errorf("could not fetch token data (is the token listed on a DEX?): %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"token":      pair.TokenName,
		"price_usd":  pair.PriceUSD,
		"market_cap": pair.MarketCapUSD,
	}).Info("Token found")

	trade := Trade{
		TxHash:         "0xdemo" + strconv.FormatInt(p.now().UnixMilli(), 16) + "abcdef1234567890abcdef1234567890",
		Buyer:          "0xabcdef1234567890abcdef1234567890abcdef12",
		AmountUSD:      150,
		AmountNative:   0.05,
		TokensReceived: 1000000,
		Position:       500,
	}

	if err := p.alertSender.Send(ctx, p.buildPayload(trade, pair)); err != nil {
		return fmt.Errorf("send demo alert: %w", err)
	}

	p.log.Info("Demo alert sent")
	return nil
}

func cycleStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrDataUnavailable):
		return "no_data"
	case fetch.IsTransient(err):
		return "transient_error"
	default:
		return "error"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseFloat(s string) float64 {
	val, _ := strconv.ParseFloat(s, 64)
	return val
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/logger"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
	"github.com/HuskeLuv/SFC-sub003/internal/pagination"
	"github.com/HuskeLuv/SFC-sub003/internal/quotes"
)

// Price sources reported per holding.
const (
	PriceSourceQuote    = "quote"
	PriceSourceFallback = "fallback"
)

// maxPositionRetries bounds the compare-and-swap attempts of one operation.
const maxPositionRetries = 5

var (
	hundred = decimal.NewFromInt(100)

	errVersionConflict = errors.New("position version changed")
)

// Holding is one position with its derived figures.
type Holding struct {
	PositionID    string            `json:"position_id"`
	StockID       *string           `json:"stock_id,omitempty"`
	AssetID       *string           `json:"asset_id,omitempty"`
	Symbol        string            `json:"symbol"`
	Name          string            `json:"name"`
	Class         models.AssetClass `json:"class"`
	Quantity      decimal.Decimal   `json:"quantity"`
	AvgPrice      decimal.Decimal   `json:"avg_price"`
	TotalInvested decimal.Decimal   `json:"total_invested"`
	CurrentPrice  decimal.Decimal   `json:"current_price"`
	CurrentValue  decimal.Decimal   `json:"current_value"`
	ReturnPercent decimal.Decimal   `json:"return_percent"`
	Allocation    decimal.Decimal   `json:"allocation_percent"`
	PriceSource   string            `json:"price_source"`
	LastUpdate    time.Time         `json:"last_update"`
}

// ClassAllocation compares the actual share of a class with its target.
type ClassAllocation struct {
	Class         models.AssetClass `json:"class"`
	CurrentValue  decimal.Decimal   `json:"current_value"`
	Percent       decimal.Decimal   `json:"percent"`
	TargetPercent *decimal.Decimal  `json:"target_percent,omitempty"`
	GapPercent    *decimal.Decimal  `json:"gap_percent,omitempty"`
}

// PortfolioSummary aggregates every open position of a user.
type PortfolioSummary struct {
	Holdings        []Holding         `json:"holdings"`
	ByClass         []ClassAllocation `json:"by_class"`
	TotalInvested   decimal.Decimal   `json:"total_invested"`
	CurrentValue    decimal.Decimal   `json:"current_value"`
	ReturnPercent   decimal.Decimal   `json:"return_percent"`
	FallbackSymbols []string          `json:"fallback_symbols"`
}

// OperationInput describes an aporte or resgate. Exactly one of StockID and AssetID is set.
type OperationInput struct {
	StockID       *string
	AssetID       *string
	InstitutionID *string
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	Date          time.Time
	Notes         string
}

// OperationResult is the position after an operation and the audit row it produced.
type OperationResult struct {
	Position    models.Portfolio        `json:"position"`
	Transaction models.StockTransaction `json:"transaction"`
}

// AllocationTargetInput is the desired share of one class.
type AllocationTargetInput struct {
	Class   models.AssetClass
	Percent decimal.Decimal
}

// CashTotals sums one kind of stock transaction.
type CashTotals struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// CashSummary sums contributions and withdrawals over a window. It is built
// from the transaction log and may not match position totals.
type CashSummary struct {
	ByType           map[models.StockTransactionType]CashTotals `json:"by_type"`
	NetContributions decimal.Decimal                            `json:"net_contributions"`
}

// operationNotes is the JSON stored with every stock transaction.
type operationNotes struct {
	Operation          string  `json:"operation"`
	RequestorID        string  `json:"requestor_id"`
	ActingConsultantID *string `json:"acting_consultant_id"`
	Justification      string  `json:"justification"`
	InstitutionID      *string `json:"institution_id"`
	StockID            *string `json:"stock_id"`
	AssetID            *string `json:"asset_id"`
	Symbol             string  `json:"symbol,omitempty"`
	Notes              string  `json:"notes,omitempty"`
}

// portfolioService aggregates positions and applies aportes and resgates.
type portfolioService struct {
	db     *gorm.DB
	quotes quotes.Source

	// afterLoad runs between reading a position and writing it back.
	afterLoad func(tx *gorm.DB, position *models.Portfolio)
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB, source quotes.Source) PortfolioServicer {
	return &portfolioService{db: db, quotes: source}
}

// GetPortfolio prices every open position of the target user. Positions
// without a quote are valued at their average price and listed as fallbacks.
func (s *portfolioService) GetPortfolio(ctx context.Context, acting ActingContext) (*PortfolioSummary, error) {
	var positions []models.Portfolio
	if err := s.db.WithContext(ctx).
		Preload("Stock").Preload("Asset").
		Where("user_id = ? AND quantity > 0", acting.TargetUserID).
		Order("created_at ASC").
		Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	keys := make([]string, 0, len(positions))
	for i := range positions {
		keys = append(keys, quoteKey(&positions[i]))
	}

	prices := map[string]quotes.Quote{}
	if len(keys) > 0 && s.quotes != nil {
		found, err := s.quotes.Quotes(ctx, keys)
		if err != nil {
			logger.Named("portfolio").Warnw("quote lookup failed, using average prices",
				"user_id", acting.TargetUserID, "symbols", len(keys), "error", err)
		} else {
			prices = found
		}
	}

	summary := &PortfolioSummary{
		Holdings:        make([]Holding, 0, len(positions)),
		TotalInvested:   decimal.Zero,
		CurrentValue:    decimal.Zero,
		ReturnPercent:   decimal.Zero,
		FallbackSymbols: []string{},
	}

	for i := range positions {
		p := &positions[i]
		key := keys[i]
		h := Holding{
			PositionID:    p.ID,
			StockID:       p.StockID,
			AssetID:       p.AssetID,
			Symbol:        p.Symbol(),
			Name:          p.Name(),
			Class:         p.Class(),
			Quantity:      p.Quantity,
			AvgPrice:      p.AvgPrice,
			TotalInvested: p.TotalInvested,
			CurrentPrice:  p.AvgPrice,
			PriceSource:   PriceSourceFallback,
			LastUpdate:    p.LastUpdate,
		}
		if q, ok := prices[key]; ok && q.Price.IsPositive() {
			h.CurrentPrice = q.Price
			h.PriceSource = PriceSourceQuote
		} else {
			summary.FallbackSymbols = append(summary.FallbackSymbols, key)
		}
		h.CurrentValue = p.Quantity.Mul(h.CurrentPrice)
		h.ReturnPercent = returnPercent(h.CurrentValue, p.TotalInvested)

		summary.TotalInvested = summary.TotalInvested.Add(p.TotalInvested)
		summary.CurrentValue = summary.CurrentValue.Add(h.CurrentValue)
		summary.Holdings = append(summary.Holdings, h)
	}
	summary.ReturnPercent = returnPercent(summary.CurrentValue, summary.TotalInvested)

	byClass := map[models.AssetClass]decimal.Decimal{}
	for i := range summary.Holdings {
		h := &summary.Holdings[i]
		h.Allocation = percentOf(h.CurrentValue, summary.CurrentValue)
		byClass[h.Class] = byClass[h.Class].Add(h.CurrentValue)
	}

	targets, err := s.GetAllocationTargets(acting)
	if err != nil {
		return nil, err
	}
	targetByClass := make(map[models.AssetClass]decimal.Decimal, len(targets))
	for _, t := range targets {
		targetByClass[t.Class] = t.TargetPercent
		if _, ok := byClass[t.Class]; !ok {
			byClass[t.Class] = decimal.Zero
		}
	}

	for class, value := range byClass {
		alloc := ClassAllocation{
			Class:        class,
			CurrentValue: value,
			Percent:      percentOf(value, summary.CurrentValue),
		}
		if target, ok := targetByClass[class]; ok {
			gap := target.Sub(alloc.Percent)
			alloc.TargetPercent = &target
			alloc.GapPercent = &gap
		}
		summary.ByClass = append(summary.ByClass, alloc)
	}
	sort.Slice(summary.ByClass, func(i, j int) bool { return summary.ByClass[i].Class < summary.ByClass[j].Class })
	if summary.ByClass == nil {
		summary.ByClass = []ClassAllocation{}
	}

	return summary, nil
}

// Aporte buys into a position: quantity and total invested grow and the
// average price becomes total invested over quantity.
func (s *portfolioService) Aporte(ctx context.Context, acting ActingContext, input OperationInput) (*OperationResult, error) {
	if err := validateOperation(input); err != nil {
		return nil, err
	}
	return s.applyOperation(ctx, acting, input, models.StockTransactionCompra,
		func(p *models.Portfolio) error {
			p.Quantity = p.Quantity.Add(input.Quantity)
			p.TotalInvested = p.TotalInvested.Add(input.Quantity.Mul(input.Price))
			p.AvgPrice = p.TotalInvested.Div(p.Quantity)
			return nil
		})
}

// Resgate sells from a position at the current average price. The average
// price is kept unless the position is closed, in which case it resets to zero.
func (s *portfolioService) Resgate(ctx context.Context, acting ActingContext, input OperationInput) (*OperationResult, error) {
	if err := validateOperation(input); err != nil {
		return nil, err
	}
	return s.applyOperation(ctx, acting, input, models.StockTransactionVenda,
		func(p *models.Portfolio) error {
			if p.ID == "" {
				return apperrors.ErrPositionNotFound
			}
			if input.Quantity.GreaterThan(p.Quantity) {
				return apperrors.ErrInsufficientShares
			}
			p.Quantity = p.Quantity.Sub(input.Quantity)
			p.TotalInvested = p.TotalInvested.Sub(input.Quantity.Mul(p.AvgPrice))
			if p.Quantity.IsZero() {
				p.AvgPrice = decimal.Zero
				p.TotalInvested = decimal.Zero
			}
			return nil
		})
}

// ListTransactions returns the target user's stock transactions, newest first.
func (s *portfolioService) ListTransactions(acting ActingContext, page pagination.PageRequest) (*pagination.PageResponse[models.StockTransaction], error) {
	query := s.db.Model(&models.StockTransaction{}).Where("user_id = ?", acting.TargetUserID)
	resp, err := pagination.Find[models.StockTransaction](query, page, "date DESC, created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return resp, nil
}

// CashSummary groups stock transactions by type over an inclusive window.
func (s *portfolioService) CashSummary(acting ActingContext, from, to *time.Time) (*CashSummary, error) {
	query := s.db.Where("user_id = ?", acting.TargetUserID)
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date <= ?", *to)
	}

	var txs []models.StockTransaction
	if err := query.Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &CashSummary{
		ByType: map[models.StockTransactionType]CashTotals{
			models.StockTransactionCompra: {Total: decimal.Zero},
			models.StockTransactionVenda:  {Total: decimal.Zero},
		},
		NetContributions: decimal.Zero,
	}
	for _, tx := range txs {
		totals := summary.ByType[tx.Type]
		totals.Total = totals.Total.Add(tx.Total)
		totals.Count++
		summary.ByType[tx.Type] = totals
	}
	summary.NetContributions = summary.ByType[models.StockTransactionCompra].Total.
		Sub(summary.ByType[models.StockTransactionVenda].Total)
	return summary, nil
}

// GetAllocationTargets returns the target user's class targets.
func (s *portfolioService) GetAllocationTargets(acting ActingContext) ([]models.AllocationTarget, error) {
	var targets []models.AllocationTarget
	if err := s.db.Where("user_id = ?", acting.TargetUserID).Order("class ASC").Find(&targets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return targets, nil
}

// SetAllocationTargets replaces the target user's class targets. The
// percentages must not add up to more than 100.
func (s *portfolioService) SetAllocationTargets(acting ActingContext, inputs []AllocationTargetInput) ([]models.AllocationTarget, error) {
	sum := decimal.Zero
	seen := make(map[models.AssetClass]bool, len(inputs))
	targets := make([]models.AllocationTarget, 0, len(inputs))
	for _, in := range inputs {
		if !in.Class.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown asset class "+string(in.Class))
		}
		if seen[in.Class] {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "duplicate asset class "+string(in.Class))
		}
		if in.Percent.IsNegative() || in.Percent.GreaterThan(hundred) {
			return nil, apperrors.ErrInvalidTargets
		}
		seen[in.Class] = true
		sum = sum.Add(in.Percent)
		targets = append(targets, models.AllocationTarget{
			UserID:        acting.TargetUserID,
			Class:         in.Class,
			TargetPercent: in.Percent,
		})
	}
	if sum.GreaterThan(hundred) {
		return nil, apperrors.ErrInvalidTargets
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", acting.TargetUserID).Delete(&models.AllocationTarget{}).Error; err != nil {
			return err
		}
		if len(targets) == 0 {
			return nil
		}
		return tx.Create(&targets).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Class < targets[j].Class })
	return targets, nil
}

// applyOperation reads the position, applies mutate and writes it back only if
// nobody else changed it in between, appending the stock transaction in the
// same database transaction. Lost races are retried a bounded number of times.
func (s *portfolioService) applyOperation(ctx context.Context, acting ActingContext, input OperationInput,
	txType models.StockTransactionType, mutate func(*models.Portfolio) error) (*OperationResult, error) {

	symbol, err := s.resolveInstrument(ctx, acting, input)
	if err != nil {
		return nil, err
	}

	notes, err := json.Marshal(buildNotes(acting, input, txType, symbol))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	for attempt := 1; attempt <= maxPositionRetries; attempt++ {
		var result OperationResult
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			position, err := loadPosition(tx, acting.TargetUserID, input, txType == models.StockTransactionCompra)
			if err != nil {
				return err
			}
			if s.afterLoad != nil {
				s.afterLoad(tx, position)
			}

			expected := position.Version
			if err := mutate(position); err != nil {
				return err
			}
			position.Version = expected + 1
			position.LastUpdate = time.Now().UTC()
			if input.InstitutionID != nil {
				position.InstitutionID = input.InstitutionID
			}

			res := tx.Model(&models.Portfolio{}).
				Where("id = ? AND version = ?", position.ID, expected).
				Updates(map[string]interface{}{
					"quantity":       position.Quantity,
					"avg_price":      position.AvgPrice,
					"total_invested": position.TotalInvested,
					"institution_id": position.InstitutionID,
					"version":        position.Version,
					"last_update":    position.LastUpdate,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errVersionConflict
			}

			stockTx := models.StockTransaction{
				UserID:      acting.TargetUserID,
				PortfolioID: position.ID,
				StockID:     input.StockID,
				AssetID:     input.AssetID,
				Type:        txType,
				Quantity:    input.Quantity,
				Price:       input.Price,
				Total:       input.Quantity.Mul(input.Price),
				Date:        date,
				Notes:       datatypes.JSON(notes),
			}
			if err := tx.Create(&stockTx).Error; err != nil {
				return err
			}

			result = OperationResult{Position: *position, Transaction: stockTx}
			return nil
		})
		if err == nil {
			return &result, nil
		}
		if errors.Is(err, errVersionConflict) {
			logger.Named("portfolio").Debugw("position changed concurrently, retrying",
				"user_id", acting.TargetUserID, "attempt", attempt)
			continue
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil, apperrors.ErrConflict
}

// resolveInstrument checks the referenced stock or asset exists and returns its
// symbol. Assets must be catalogue entries or owned by the target user.
func (s *portfolioService) resolveInstrument(ctx context.Context, acting ActingContext, input OperationInput) (string, error) {
	db := s.db.WithContext(ctx)
	if input.InstitutionID != nil {
		var count int64
		if err := db.Model(&models.Institution{}).Where("id = ?", *input.InstitutionID).Count(&count).Error; err != nil {
			return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return "", apperrors.ErrInstitutionNotFound
		}
	}

	if input.StockID != nil {
		var stock models.Stock
		if err := db.First(&stock, "id = ?", *input.StockID).Error; err != nil {
			return "", notFoundOr(err, apperrors.ErrStockNotFound)
		}
		return stock.Ticker, nil
	}

	var asset models.Asset
	err := db.Where("id = ? AND (user_id IS NULL OR user_id = ?)", *input.AssetID, acting.TargetUserID).First(&asset).Error
	if err != nil {
		return "", notFoundOr(err, apperrors.ErrAssetNotFound)
	}
	if asset.Symbol != nil {
		return *asset.Symbol, nil
	}
	return asset.Name, nil
}

// loadPosition reads the user's position in the instrument. Buys create an
// empty position on first use; sells get an empty, unsaved one.
func loadPosition(tx *gorm.DB, userID string, input OperationInput, create bool) (*models.Portfolio, error) {
	var position models.Portfolio
	err := positionQuery(tx, userID, input).First(&position).Error
	if err == nil {
		return &position, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !create {
		return &models.Portfolio{}, nil
	}

	position = models.Portfolio{
		UserID:        userID,
		StockID:       input.StockID,
		AssetID:       input.AssetID,
		Quantity:      decimal.Zero,
		AvgPrice:      decimal.Zero,
		TotalInvested: decimal.Zero,
		LastUpdate:    time.Now().UTC(),
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&position).Error; err != nil {
		return nil, err
	}
	// Re-read so a position created concurrently is picked up with its version.
	var stored models.Portfolio
	if err := positionQuery(tx, userID, input).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func positionQuery(tx *gorm.DB, userID string, input OperationInput) *gorm.DB {
	if input.StockID != nil {
		return tx.Where("user_id = ? AND stock_id = ?", userID, *input.StockID)
	}
	return tx.Where("user_id = ? AND asset_id = ?", userID, *input.AssetID)
}

func validateOperation(input OperationInput) error {
	if (input.StockID == nil) == (input.AssetID == nil) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "exactly one of stock_id and asset_id is required")
	}
	if !input.Quantity.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be positive")
	}
	if !input.Price.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "price must be positive")
	}
	return nil
}

func buildNotes(acting ActingContext, input OperationInput, txType models.StockTransactionType, symbol string) operationNotes {
	operation := "aporte"
	if txType == models.StockTransactionVenda {
		operation = "resgate"
	}
	notes := operationNotes{
		Operation:     operation,
		RequestorID:   acting.RequestorID,
		Justification: acting.Justification,
		InstitutionID: input.InstitutionID,
		StockID:       input.StockID,
		AssetID:       input.AssetID,
		Symbol:        symbol,
		Notes:         input.Notes,
	}
	if acting.IsActing() {
		consultant := acting.RequestorID
		notes.ActingConsultantID = &consultant
	}
	return notes
}

// quoteKey is the symbol used to price a position. Assets owned by a user are
// always priced by id so their symbol never matches someone else's row.
func quoteKey(p *models.Portfolio) string {
	if p.Asset != nil && p.Asset.UserID != nil {
		return quotes.AssetKeyPrefix + p.Asset.ID
	}
	if symbol := p.Symbol(); symbol != "" {
		return symbol
	}
	if p.AssetID != nil {
		return quotes.AssetKeyPrefix + *p.AssetID
	}
	return ""
}

// returnPercent is (current - invested) / invested * 100, or 0 without investment.
func returnPercent(current, invested decimal.Decimal) decimal.Decimal {
	if invested.IsZero() {
		return decimal.Zero
	}
	return current.Sub(invested).Div(invested).Mul(hundred)
}

// percentOf is part / total * 100, or 0 when total is 0.
func percentOf(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred)
}

package services

import (
	"sort"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/models"
)

// Grouping dimensions accepted by BuildSummary.
const (
	GroupByCategory = "category"
	GroupByType     = "type"
	GroupByAsset    = "asset"
	GroupByMonth    = "month"
)

const reportCurrency = money.BRL

// proceedsMarkers flag a row as investment proceeds when found in its
// category or description, ignoring case.
var proceedsMarkers = []string{"dividendo", "provento", "jcp"}

// SummaryRequest selects the rows and the grouping of a summary. The window
// applies only when both bounds are set.
type SummaryRequest struct {
	StartDate *time.Time
	EndDate   *time.Time
	GroupBy   string
}

// SummaryGroup is the rows sharing one key.
type SummaryGroup struct {
	Key          string               `json:"key"`
	Total        decimal.Decimal      `json:"total"`
	TotalDisplay string               `json:"total_display"`
	Count        int                  `json:"count"`
	Items        []models.Transaction `json:"items"`
}

// Summary totals the filtered ledger rows.
type Summary struct {
	GroupBy         string          `json:"group_by"`
	StartDate       *time.Time      `json:"start_date,omitempty"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
	Groups          []SummaryGroup  `json:"groups"`
	Total           decimal.Decimal `json:"total"`
	TotalDisplay    string          `json:"total_display"`
	Average         decimal.Decimal `json:"average"`
	AverageDisplay  string          `json:"average_display"`
	Count           int             `json:"count"`
	Proceeds        decimal.Decimal `json:"proceeds"`
	ProceedsDisplay string          `json:"proceeds_display"`
	ProceedsCount   int             `json:"proceeds_count"`
}

// reportService builds read-only summaries over the ledger.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// BuildSummary groups the target user's ledger rows by the requested
// dimension. Group totals always add up to the overall total.
func (s *reportService) BuildSummary(acting ActingContext, req SummaryRequest) (*Summary, error) {
	if req.GroupBy == "" {
		req.GroupBy = GroupByCategory
	}
	keyOf, ok := groupKeyFuncs[req.GroupBy]
	if !ok {
		return nil, apperrors.ErrInvalidGroupBy
	}

	query := s.db.Where("user_id = ?", acting.TargetUserID)
	windowed := req.StartDate != nil && req.EndDate != nil
	if windowed {
		if req.EndDate.Before(*req.StartDate) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "endDate must not be before startDate")
		}
		query = query.Where("date >= ? AND date <= ?", *req.StartDate, *req.EndDate)
	}

	var rows []models.Transaction
	if err := query.Order("date ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &Summary{
		GroupBy:  req.GroupBy,
		Groups:   []SummaryGroup{},
		Total:    decimal.Zero,
		Average:  decimal.Zero,
		Proceeds: decimal.Zero,
	}
	if windowed {
		summary.StartDate = req.StartDate
		summary.EndDate = req.EndDate
	}

	index := map[string]int{}
	for _, row := range rows {
		key := keyOf(row)
		i, ok := index[key]
		if !ok {
			i = len(summary.Groups)
			index[key] = i
			summary.Groups = append(summary.Groups, SummaryGroup{Key: key, Total: decimal.Zero})
		}
		g := &summary.Groups[i]
		g.Total = g.Total.Add(row.Amount)
		g.Count++
		g.Items = append(g.Items, row)

		summary.Total = summary.Total.Add(row.Amount)
		summary.Count++
		if isProceeds(row) {
			summary.Proceeds = summary.Proceeds.Add(row.Amount)
			summary.ProceedsCount++
		}
	}

	sort.Slice(summary.Groups, func(i, j int) bool { return summary.Groups[i].Key < summary.Groups[j].Key })
	for i := range summary.Groups {
		summary.Groups[i].TotalDisplay = displayBRL(summary.Groups[i].Total)
	}

	if summary.Count > 0 {
		summary.Average = summary.Total.Div(decimal.NewFromInt(int64(summary.Count)))
	}
	summary.TotalDisplay = displayBRL(summary.Total)
	summary.AverageDisplay = displayBRL(summary.Average)
	summary.ProceedsDisplay = displayBRL(summary.Proceeds)
	return summary, nil
}

var groupKeyFuncs = map[string]func(models.Transaction) string{
	GroupByCategory: func(t models.Transaction) string { return t.Category },
	GroupByType:     func(t models.Transaction) string { return string(t.Type) },
	GroupByAsset:    func(t models.Transaction) string { return t.Asset },
	GroupByMonth:    func(t models.Transaction) string { return t.Date.Format("2006-01") },
}

func isProceeds(t models.Transaction) bool {
	text := strings.ToLower(t.Category + " " + t.Description)
	for _, marker := range proceedsMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// displayBRL formats an amount in reais, rounded to centavos.
func displayBRL(amount decimal.Decimal) string {
	cur := money.GetCurrency(reportCurrency)
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), reportCurrency).Display()
}

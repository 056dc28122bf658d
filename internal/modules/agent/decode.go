// Package agent wires the overlay's capture pipeline: it turns
// intercepted (or externally ingested) endpoint payloads into a live
// domain.BucketMap, and serves that map through a small read-only and
// override-mutating HTTP API for the overlay UI.
package agent

import (
	"encoding/json"
	"fmt"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/normalizer"
)

// Wire shapes for the three Platform-A streams and Platform-B's
// holdings response. Field names mirror the upstream JSON exactly;
// only the fields the normalizer needs are declared.

type performanceWireRow struct {
	GoalID                    string   `json:"goalId"`
	TotalInvestmentValue      *float64 `json:"totalInvestmentValue"`
	PendingProcessingAmount   *float64 `json:"pendingProcessingAmount"`
	TotalCumulativeReturn     *float64 `json:"totalCumulativeReturn"`
	SimpleRateOfReturnPercent *float64 `json:"simpleRateOfReturnPercent"`
}

type investibleWireRow struct {
	GoalID                string   `json:"goalId"`
	GoalName              string   `json:"goalName"`
	InvestmentGoalType    string   `json:"investmentGoalType"`
	TotalInvestmentAmount *float64 `json:"totalInvestmentAmount"`
}

type summaryWireRow struct {
	GoalID             string `json:"goalId"`
	GoalName           string `json:"goalName"`
	InvestmentGoalType string `json:"investmentGoalType"`
}

type holdingsWireResponse struct {
	Data []struct {
		RefNo    string `json:"refno"`
		Holdings []struct {
			Code            string  `json:"code"`
			Name            string  `json:"name"`
			ProductType     string  `json:"productType"`
			CurrentValueLcy float64 `json:"currentValueLcy"`
			CurrentUnits    float64 `json:"currentUnits"`
		} `json:"holdings"`
	} `json:"data"`
}

// decodePerformance parses a Platform-A /v1/goals/performance body.
func decodePerformance(body []byte) ([]normalizer.PerformanceRecord, error) {
	var rows []performanceWireRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("agent: decode performance: %w", err)
	}
	out := make([]normalizer.PerformanceRecord, len(rows))
	for i, r := range rows {
		out[i] = normalizer.PerformanceRecord{
			GoalID:                    domain.GoalId(r.GoalID),
			TotalInvestmentValue:      r.TotalInvestmentValue,
			PendingProcessingAmount:   r.PendingProcessingAmount,
			TotalCumulativeReturn:     r.TotalCumulativeReturn,
			SimpleRateOfReturnPercent: r.SimpleRateOfReturnPercent,
		}
	}
	return out, nil
}

// decodeInvestible parses a Platform-A /v2/goals/investible body.
func decodeInvestible(body []byte) ([]normalizer.InvestibleRecord, error) {
	var rows []investibleWireRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("agent: decode investible: %w", err)
	}
	out := make([]normalizer.InvestibleRecord, len(rows))
	for i, r := range rows {
		out[i] = normalizer.InvestibleRecord{
			GoalID:                domain.GoalId(r.GoalID),
			GoalName:              r.GoalName,
			InvestmentGoalType:    r.InvestmentGoalType,
			TotalInvestmentAmount: r.TotalInvestmentAmount,
		}
	}
	return out, nil
}

// decodeSummary parses a Platform-A /v1/goals body.
func decodeSummary(body []byte) ([]normalizer.SummaryRecord, error) {
	var rows []summaryWireRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("agent: decode summary: %w", err)
	}
	out := make([]normalizer.SummaryRecord, len(rows))
	for i, r := range rows {
		out[i] = normalizer.SummaryRecord{
			GoalID:             domain.GoalId(r.GoalID),
			GoalName:           r.GoalName,
			InvestmentGoalType: r.InvestmentGoalType,
		}
	}
	return out, nil
}

// decodeHoldings parses a Platform-B find-holdings-with-pnl body. The
// refno grouping is flattened: the overlay treats every holding row
// across every account as one flat set.
func decodeHoldings(body []byte) ([]domain.HoldingRow, error) {
	var resp holdingsWireResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("agent: decode holdings: %w", err)
	}
	var out []domain.HoldingRow
	for _, account := range resp.Data {
		for _, h := range account.Holdings {
			out = append(out, domain.HoldingRow{
				Code:            domain.InstrumentCode(h.Code),
				Name:            h.Name,
				ProductType:     h.ProductType,
				CurrentValueLcy: h.CurrentValueLcy,
				CurrentUnits:    h.CurrentUnits,
			})
		}
	}
	return out, nil
}

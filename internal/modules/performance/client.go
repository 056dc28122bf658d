package performance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/interception"
)

// ErrMissingAuthorization is returned when the captured auth context
// has no Authorization value — the request must not be issued (spec
// §4.3's header composition rule).
var ErrMissingAuthorization = errors.New("performance: missing authorization, refusing to issue request")

// Client fetches a single goal's performance series from the BFF,
// composing headers from the interception layer's captured auth
// context.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Auth    *interception.AuthContext
}

// NewClient creates a Client. httpClient defaults to http.DefaultClient.
func NewClient(httpClient *http.Client, baseURL string, auth *interception.AuthContext) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{HTTP: httpClient, BaseURL: baseURL, Auth: auth}
}

// bffPerformancePayload mirrors the BFF response shape closely enough
// to decode the fields PerformanceSeries needs.
type bffPerformancePayload struct {
	TimeSeries []struct {
		Date                          string   `json:"date"`
		Amount                        *float64 `json:"amount"`
		CumulativeNetInvestmentAmount *float64 `json:"cumulativeNetInvestmentAmount"`
	} `json:"timeSeries"`
	ReturnsTable struct {
		OneMonth  *float64 `json:"oneMonth"`
		SixMonth  *float64 `json:"sixMonth"`
		YTD       *float64 `json:"ytd"`
		OneYear   *float64 `json:"oneYear"`
		ThreeYear *float64 `json:"threeYear"`
	} `json:"returnsTable"`
	NetInvestment       float64  `json:"netInvestment"`
	EndingBalance       float64  `json:"endingBalance"`
	AnnualisedIRR       *float64 `json:"annualisedIrr"`
	SimpleReturnPercent *float64 `json:"simpleReturnPercent"`
	GainOrLossTable     struct {
		NetInvestment struct {
			AllTimeValue *float64 `json:"allTimeValue"`
		} `json:"netInvestment"`
	} `json:"gainOrLossTable"`
	Fees *float64 `json:"fees"`
}

// Fetch issues the BFF performance request for goalID. The request is
// tagged as synthetic so the interception layer does not re-observe
// its own outbound traffic.
func (c *Client) Fetch(ctx context.Context, goalID domain.GoalId) (*domain.PerformanceSeries, error) {
	snapshot := c.Auth.Get()
	if snapshot.Authorization == "" {
		return nil, ErrMissingAuthorization
	}

	url := fmt.Sprintf("%s/v1/performance?goalId=%s", c.BaseURL, goalID)
	req, err := http.NewRequestWithContext(interception.WithSyntheticRequest(ctx), http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("performance: build request: %w", err)
	}
	req.Header.Set("Authorization", snapshot.Authorization)
	if snapshot.ClientID != "" {
		req.Header.Set("client-id", snapshot.ClientID)
	}
	if snapshot.DeviceID != "" {
		req.Header.Set("device-id", snapshot.DeviceID)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performance: fetch %s: %w", goalID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("performance: fetch %s: unexpected status %d", goalID, resp.StatusCode)
	}

	var payload bffPerformancePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("performance: decode %s: %w", goalID, err)
	}

	series := domain.PerformanceSeries{
		GoalID: goalID,
		Returns: domain.ReturnsTable{
			OneMonth:  payload.ReturnsTable.OneMonth,
			SixMonth:  payload.ReturnsTable.SixMonth,
			YTD:       payload.ReturnsTable.YTD,
			OneYear:   payload.ReturnsTable.OneYear,
			ThreeYear: payload.ReturnsTable.ThreeYear,
		},
		NetInvestment:        payload.NetInvestment,
		EndingBalance:        payload.EndingBalance,
		AnnualisedIRR:        payload.AnnualisedIRR,
		SimpleReturnPercent:  payload.SimpleReturnPercent,
		AllTimeNetInvestment: payload.GainOrLossTable.NetInvestment.AllTimeValue,
		Fees:                 payload.Fees,
	}

	for _, point := range payload.TimeSeries {
		parsedDate, err := parseAPIDate(point.Date)
		if err != nil {
			continue
		}
		series.TimeSeries = append(series.TimeSeries, domain.TimeSeriesPoint{
			Date:                          parsedDate,
			Amount:                        point.Amount,
			CumulativeNetInvestmentAmount: point.CumulativeNetInvestmentAmount,
		})
	}

	return &series, nil
}

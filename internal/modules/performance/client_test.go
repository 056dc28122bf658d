package performance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/interception"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_RefusesRequestWithoutAuthorization(t *testing.T) {
	auth := &interception.AuthContext{}
	client := NewClient(nil, "https://bff.example.com", auth)

	_, err := client.Fetch(context.Background(), "g1")
	assert.ErrorIs(t, err, ErrMissingAuthorization)
}

func TestClient_FetchDecodesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"timeSeries": [{"date":"2024-01-01","amount":100,"cumulativeNetInvestmentAmount":100}],
			"returnsTable": {"oneMonth": 5.5},
			"netInvestment": 1000,
			"endingBalance": 1100,
			"annualisedIrr": 3.2,
			"gainOrLossTable": {"netInvestment": {"allTimeValue": 1000}}
		}`))
	}))
	defer server.Close()

	auth := &interception.AuthContext{}
	auth.Merge(interception.Snapshot{Authorization: "Bearer token-123"})

	client := NewClient(server.Client(), server.URL, auth)
	series, err := client.Fetch(context.Background(), "g1")
	require.NoError(t, err)
	require.NotNil(t, series)

	assert.Equal(t, 1000.0, series.NetInvestment)
	assert.Equal(t, 1100.0, series.EndingBalance)
	require.NotNil(t, series.Returns.OneMonth)
	assert.InDelta(t, 5.5, *series.Returns.OneMonth, 0.0001)
	require.Len(t, series.TimeSeries, 1)
}

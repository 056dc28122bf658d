package interception

// Endpoint identifies one of the five observed third-party endpoints.
type Endpoint string

const (
	EndpointPlatformAPerformance    Endpoint = "platform_a_performance"
	EndpointPlatformAInvestible     Endpoint = "platform_a_investible"
	EndpointPlatformAGoalSummaries  Endpoint = "platform_a_goal_summaries"
	EndpointPlatformABFFPerformance Endpoint = "platform_a_bff_performance"
	EndpointPlatformBHoldings       Endpoint = "platform_b_holdings"
)

// urlPatterns are substring matches against the request URL, applied
// in declaration order — the first match wins. The BFF performance
// host is checked before the more general goal-performance pattern
// since declaration order decides ties.
var urlPatterns = []struct {
	endpoint Endpoint
	substr   string
}{
	{EndpointPlatformABFFPerformance, "bff.prod.silver.endowus.com/v1/performance"},
	{EndpointPlatformAPerformance, "/v1/goals/performance"},
	{EndpointPlatformAInvestible, "/v2/goals/investible"},
	{EndpointPlatformAGoalSummaries, "/v1/goals"},
	{EndpointPlatformBHoldings, "/fsmone/rest/holding/client/protected/find-holdings-with-pnl"},
}

// MatchEndpoint returns the Endpoint a request URL corresponds to, and
// whether any pattern matched.
func MatchEndpoint(url string) (Endpoint, bool) {
	for _, p := range urlPatterns {
		if contains(url, p.substr) {
			return p.endpoint, true
		}
	}
	return "", false
}

func contains(haystack, needle string) bool {
	return len(needle) == 0 || indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	n, m := len(haystack), len(needle)
	if m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if haystack[i:i+m] == needle {
			return i
		}
	}
	return -1
}

// EndpointPayload is delivered to the Port's callback once a matched
// response has been cloned and parsed.
type EndpointPayload struct {
	Endpoint Endpoint
	Body     []byte // raw JSON body, caller decodes into its own shape
}

// EndpointPayloadFunc receives one captured payload at a time. It must
// not block the caller for long — the interception layer invokes it
// asynchronously from the HTTP round trip, but a slow callback still
// serializes against other captures.
type EndpointPayloadFunc func(EndpointPayload)

// Port is a start(onEndpointPayload) operation with a teardown handle.
// Production binds it to Transport; tests inject a stub.
type Port interface {
	// Start begins observing traffic, invoking onPayload for every
	// matched, successfully-parsed response. Returns a stop function.
	Start(onPayload EndpointPayloadFunc) (stop func(), err error)

	// Auth returns the AuthContext this port populates from observed
	// Platform-A request headers.
	Auth() *AuthContext
}

package search

import "github.com/kirinyoku/citypulse/internal/gateway"

const (
	MsgNetwork       = "Network error occurred. Please check your connection."
	MsgSearchFailed  = "Failed to search events"
	MsgEventFailed   = "Failed to load event"
	MsgCachedResults = "Showing cached results. Please check your connection."
)

// userMessage maps a gateway failure to the text shown in State.Error.
func userMessage(err error, fallback string) string {
	if gateway.IsNetworkError(err) {
		return MsgNetwork
	}

	if apiErr, ok := gateway.AsAPIError(err); ok {
		return apiErr.Message
	}

	return fallback
}

package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for HTTP requests with proxy/retry logic.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// Get performs a GET request to url with the given query parameters and
	// extra headers. Non-200 responses return a *network.StatusError.
	Get(ctx context.Context, url string, params map[string]string, headers map[string]string) ([]byte, error)
}

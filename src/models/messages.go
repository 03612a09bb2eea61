package models

// -----------------------------------------------------------------------------
// SubscribeCommand for client messages
// -----------------------------------------------------------------------------

// MSubscribeCommand narrows the fetch results pushed to a websocket client.
// The fields mirror the listing query parameters.
type MSubscribeCommand struct {
	Command   string `json:"command"`
	ForwardPE string `json:"forward_pe"`
	MA50      bool   `json:"ma50"`
	MA200     bool   `json:"ma200"`
}

// -----------------------------------------------------------------------------
// Push payloads
// -----------------------------------------------------------------------------

// MStockUpdate is pushed to websocket clients when a fetch job finishes.
type MStockUpdate struct {
	Type      string         `json:"type"` // "SUBSCRIBED", "UPDATE" or "ERROR"
	Result    *MFetchResult  `json:"result,omitempty"`
	Filter    *MRecordFilter `json:"filter,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

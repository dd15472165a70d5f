package observability

// LifecycleEvent is the envelope published when a live connection opens,
// closes, or fails.
type LifecycleEvent struct {
	Kind    string      `json:"event_type"`
	Name    string      `json:"event_name"`
	Payload interface{} `json:"payload"`
}

// CorrelationHeaders builds broker headers carrying request and trace ids,
// skipping whichever are empty.
func CorrelationHeaders(requestID, traceID string) map[string]string {
	headers := make(map[string]string, 2)
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}

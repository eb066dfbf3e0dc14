package models

// ImportResult is relayed verbatim to whoever started the import.
type ImportResult struct {
	SuccessCount int      `json:"successCount"`
	FailedCount  int      `json:"failedCount"`
	SkippedCount int      `json:"skippedCount"`
	Errors       []string `json:"errors"`
}

type ImportRowsRequest struct {
	Rows []map[string]any `json:"rows"`
}

// FilePath: internal/models/api.models.filters.go
package models

// ReadingFilters are the query parameters accepted by the history
// endpoint and the reading store's Query operation.
type ReadingFilters struct {
	NodeID   string `schema:"node_id"`
	Limit    int    `schema:"limit"`
	DaysBack int    `schema:"days_back"`
}

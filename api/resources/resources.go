// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/floodwatch/hub/internal/errors"
	"github.com/floodwatch/hub/internal/floodservice"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Readings    *ReadingHandlers
	Nodes       *NodeHandlers
	Predictions *PredictionHandlers
	System      *SystemHandlers
}

// NewResources creates a new Resources instance
func NewResources(svc *floodservice.FloodService) *Resources {
	return &Resources{
		Readings:    &ReadingHandlers{service: svc},
		Nodes:       &NodeHandlers{service: svc},
		Predictions: &PredictionHandlers{service: svc},
		System:      &SystemHandlers{service: svc},
	}
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// FilePath: api/resources/api.resource.nodes.go
package resources

import (
	"net/http"

	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"

	"github.com/floodwatch/hub/internal/errors"
	"github.com/floodwatch/hub/internal/floodservice"
)

// NodeHandlers encapsulates the node-status HTTP handlers
type NodeHandlers struct {
	service *floodservice.FloodService
}

// @Summary List all nodes
// @Description List every known node with liveness and risk snapshot
// @Tags nodes
// @Produce json
// @Success 200 {object} floodservice.NodesOverview
// @Failure 500 {object} errors.APIError
// @Router /nodes [get]
func (h *NodeHandlers) ListNodes(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	overview, err := h.service.AllNodes(r.Context())
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to list nodes").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, overview)
}

// @Summary Get node status
// @Description Full status report for a single node
// @Tags nodes
// @Produce json
// @Param nodeId path string true "Node ID"
// @Success 200 {object} floodservice.NodeDetail
// @Failure 404 {object} errors.APIError
// @Router /status/{nodeId} [get]
func (h *NodeHandlers) GetNodeStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	nodeID := vars["nodeId"]
	requestID := nuts.NID("req", 12)

	detail, err := h.service.NodeStatus(r.Context(), nodeID)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to get node status").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

// asAPIError passes structured errors through and wraps anything else.
func asAPIError(err error, fallbackMsg string) *errors.APIError {
	if apiErr, ok := err.(*errors.APIError); ok {
		return apiErr
	}
	return errors.NewInternalError(fallbackMsg, err)
}

// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/floodwatch/hub/api/middleware"
	"github.com/floodwatch/hub/api/resources"
	"github.com/floodwatch/hub/internal/floodservice"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.DeviceTokenMiddleware
	resources *resources.Resources
}

func NewRouter(svc *floodservice.FloodService, deviceConfig middleware.DeviceTokenConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewDeviceTokenMiddleware(deviceConfig),
		resources: resources.NewResources(svc),
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/health", r.resources.System.Health).Methods(http.MethodGet)
	api.HandleFunc("/system-info", r.resources.System.SystemInfo).Methods(http.MethodGet)

	// Device ingestion, token protected
	ingest := api.PathPrefix("/sensor-data").Subrouter()
	ingest.Use(r.auth.Authenticate)
	ingest.HandleFunc("", r.resources.Readings.PostSensorData).Methods(http.MethodPost)

	// Dashboard and analysis
	api.HandleFunc("/history", r.resources.Readings.GetHistory).Methods(http.MethodGet)
	api.HandleFunc("/nodes", r.resources.Nodes.ListNodes).Methods(http.MethodGet)
	api.HandleFunc("/status/{nodeId}", r.resources.Nodes.GetNodeStatus).Methods(http.MethodGet)
	api.HandleFunc("/predict", r.resources.Predictions.Predict).Methods(http.MethodPost)
	api.HandleFunc("/analyze-all", r.resources.Predictions.AnalyzeAll).Methods(http.MethodGet)

	// Manual transport checks
	api.HandleFunc("/test-telegram", r.resources.Predictions.TestTelegram).Methods(http.MethodGet)
	api.HandleFunc("/test-alert", r.resources.Predictions.TestAlert).Methods(http.MethodPost)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// FilePath: internal/floodservice/floodservice.go

// Package floodservice wires the rules core to its collaborators and
// exposes the operations the API surface and the sweep loop consume.
package floodservice

import (
	"context"
	"time"

	"github.com/floodwatch/hub/internal/alerting"
	"github.com/floodwatch/hub/internal/analysis"
	"github.com/floodwatch/hub/internal/config"
	"github.com/floodwatch/hub/internal/errors"
	"github.com/floodwatch/hub/internal/flood"
	"github.com/floodwatch/hub/internal/liveness"
	"github.com/floodwatch/hub/internal/repository"
)

// FloodService contains the rules core and all collaborator
// dependencies.
type FloodService struct {
	Readings   repository.ReadingRepository
	Engine     *flood.Engine
	Gate       *alerting.Gate
	Summarizer *analysis.Summarizer
	Liveness   *liveness.Evaluator
	Notifier   alerting.Notifier

	cfg *config.Config
}

// New creates a new FloodService instance.
func New(
	cfg *config.Config,
	readings repository.ReadingRepository,
	engine *flood.Engine,
	gate *alerting.Gate,
	summarizer *analysis.Summarizer,
	live *liveness.Evaluator,
	notifier alerting.Notifier,
) *FloodService {
	return &FloodService{
		Readings:   readings,
		Engine:     engine,
		Gate:       gate,
		Summarizer: summarizer,
		Liveness:   live,
		Notifier:   notifier,
		cfg:        cfg,
	}
}

// Validate checks that all required dependencies are initialized.
func (s *FloodService) Validate() error {
	if s.Readings == nil {
		return ErrMissingDependency("readings")
	}
	if s.Engine == nil {
		return ErrMissingDependency("engine")
	}
	if s.Gate == nil {
		return ErrMissingDependency("gate")
	}
	if s.Summarizer == nil {
		return ErrMissingDependency("summarizer")
	}
	if s.Liveness == nil {
		return ErrMissingDependency("liveness")
	}
	return nil
}

func ErrMissingDependency(name string) error {
	return errors.NewInternalError("missing dependency: "+name, nil)
}

// ServiceStatus reports the availability of the external
// collaborators for health and system-info responses.
type ServiceStatus struct {
	StorageConnected   bool `json:"storage_connected"`
	TelegramConfigured bool `json:"telegram_configured"`
	GeminiAvailable    bool `json:"gemini_available"`
}

// Status probes collaborator availability. Storage is pinged with a
// short bounded timeout; the other two are configuration flags.
func (s *FloodService) Status(ctx context.Context) ServiceStatus {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return ServiceStatus{
		StorageConnected:   s.Readings.Ping(pingCtx) == nil,
		TelegramConfigured: s.Notifier.Configured(),
		GeminiAvailable:    s.Summarizer.Available(),
	}
}

// Config exposes the loaded configuration to the API layer for the
// system-info endpoint.
func (s *FloodService) Config() *config.Config {
	return s.cfg
}

package sweep

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/hub/internal/alerting"
	"github.com/floodwatch/hub/internal/analysis"
	"github.com/floodwatch/hub/internal/config"
	"github.com/floodwatch/hub/internal/flood"
	"github.com/floodwatch/hub/internal/floodservice"
	"github.com/floodwatch/hub/internal/liveness"
	"github.com/floodwatch/hub/internal/models"
	"github.com/floodwatch/hub/internal/repository"
)

// floodedRepo always reports one node in flooding conditions.
type floodedRepo struct {
	mu      sync.Mutex
	queries int
}

func (f *floodedRepo) Store(_ context.Context, r *models.SensorReading) (*models.Stored, error) {
	return &models.Stored{DataID: r.DataID, Timestamp: r.Timestamp, Durable: true}, nil
}

func (f *floodedRepo) Query(_ context.Context, filters models.ReadingFilters) ([]models.SensorReading, error) {
	f.mu.Lock()
	f.queries++
	f.mu.Unlock()

	now := time.Now()
	out := make([]models.SensorReading, 6)
	for i := range out {
		out[i] = models.SensorReading{
			DataID:          models.NewDataID("node_1", now),
			NodeID:          "node_1",
			PiezoValue:      80,
			UltrasonicValue: 85,
			RainSensorValue: 80,
			Location:        "Riverside",
			Timestamp:       now.Add(-time.Duration(i) * 10 * time.Minute).Format("2006-01-02 15:04:05"),
		}
	}
	return repository.FilterReadings(out, filters, now), nil
}

func (f *floodedRepo) Statistics(ctx context.Context) (*models.DataStatistics, error) {
	readings, err := f.Query(ctx, models.ReadingFilters{})
	if err != nil {
		return nil, err
	}
	return repository.BuildStatistics(readings), nil
}

func (f *floodedRepo) Ping(context.Context) error { return nil }

func (f *floodedRepo) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (c *countingNotifier) Configured() bool { return true }

func (c *countingNotifier) Deliver(context.Context, string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return true
}

func (c *countingNotifier) delivered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func newSweepService(notifier alerting.Notifier) *floodservice.FloodService {
	cfg := &config.Config{
		Risk: config.RiskConfig{
			WaterLevelWarning:  50,
			WaterLevelDanger:   80,
			WaterLevelElevated: 30,
			BaseRiskDanger:     85,
			BaseRiskWarning:    60,
			BaseRiskElevated:   40,
			BaseRiskNormal:     20,
			TrendRapidRiseCm:   15,
			TrendRiseCm:        8,
			TrendRecedeCm:      -5,
			TrendRapidFactor:   1.4,
			TrendRiseFactor:    1.2,
			TrendRecedeFactor:  0.8,
			BandCritical:       80,
			BandHigh:           60,
			BandModerate:       40,
		},
		Alerting: config.AlertingConfig{
			RiskThreshold:      50,
			Cooldown:           15 * time.Minute,
			HistoricalCooldown: 30 * time.Minute,
		},
		Sweep: config.SweepConfig{
			Interval:      30 * time.Minute,
			DaysBack:      3,
			HistoryLimit:  50,
			MinDataPoints: 5,
		},
	}

	gate := alerting.NewGate(cfg.Alerting, cfg.Risk.WaterLevelWarning,
		alerting.NewMemoryCooldownStore(), notifier)

	return floodservice.New(cfg,
		&floodedRepo{},
		flood.NewEngine(cfg.Risk),
		gate,
		analysis.NewSummarizer(cfg.Gemini),
		liveness.NewEvaluator(cfg.Liveness),
		notifier,
	)
}

func TestSweeper_RunsPassOnTick(t *testing.T) {
	notifier := &countingNotifier{}
	clock := clockwork.NewFakeClock()
	sweeper := NewWithClock(config.SweepConfig{
		Interval:      30 * time.Minute,
		DaysBack:      3,
		HistoryLimit:  50,
		MinDataPoints: 5,
	}, newSweepService(notifier), clock)

	sweeper.Start(context.Background())
	defer sweeper.Stop()

	clock.BlockUntil(1)
	clock.Advance(30 * time.Minute)

	require.Eventually(t, func() bool { return notifier.delivered() == 1 },
		2*time.Second, 10*time.Millisecond, "one pass, one alert for the flooded node")

	// The next tick within the historical cooldown must not re-alert.
	clock.Advance(30 * time.Minute)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, notifier.delivered())
}

func TestSweeper_StopHaltsLoop(t *testing.T) {
	notifier := &countingNotifier{}
	clock := clockwork.NewFakeClock()
	service := newSweepService(notifier)
	repo := service.Readings.(*floodedRepo)

	sweeper := NewWithClock(config.SweepConfig{Interval: time.Minute}, service, clock)
	sweeper.Start(context.Background())

	clock.BlockUntil(1)
	sweeper.Stop()

	before := repo.queryCount()
	clock.Advance(5 * time.Minute)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, repo.queryCount(), "no passes after Stop")
}

func TestSweeper_StartIsIdempotent(t *testing.T) {
	notifier := &countingNotifier{}
	clock := clockwork.NewFakeClock()
	sweeper := NewWithClock(config.SweepConfig{Interval: time.Minute}, newSweepService(notifier), clock)

	ctx := context.Background()
	sweeper.Start(ctx)
	sweeper.Start(ctx)
	sweeper.Stop()
	sweeper.Stop()
}

func TestSweeper_ContextCancelStopsLoop(t *testing.T) {
	notifier := &countingNotifier{}
	clock := clockwork.NewFakeClock()
	service := newSweepService(notifier)
	repo := service.Readings.(*floodedRepo)

	ctx, cancel := context.WithCancel(context.Background())
	sweeper := NewWithClock(config.SweepConfig{Interval: time.Minute}, service, clock)
	sweeper.Start(ctx)

	clock.BlockUntil(1)
	cancel()
	require.Eventually(t, func() bool { return !sweeper.Running() },
		2*time.Second, 10*time.Millisecond, "cancellation retires the loop")

	before := repo.queryCount()
	clock.Advance(5 * time.Minute)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, repo.queryCount())
}

func TestSweeper_RestartAfterContextCancel(t *testing.T) {
	notifier := &countingNotifier{}
	clock := clockwork.NewFakeClock()
	service := newSweepService(notifier)
	repo := service.Readings.(*floodedRepo)

	ctx, cancel := context.WithCancel(context.Background())
	sweeper := NewWithClock(config.SweepConfig{
		Interval:      time.Minute,
		DaysBack:      3,
		HistoryLimit:  50,
		MinDataPoints: 5,
	}, service, clock)
	sweeper.Start(ctx)

	clock.BlockUntil(1)
	cancel()
	require.Eventually(t, func() bool { return !sweeper.Running() },
		2*time.Second, 10*time.Millisecond)

	// A fresh Start after cancellation must run passes again.
	sweeper.Start(context.Background())
	defer sweeper.Stop()
	assert.True(t, sweeper.Running())

	before := repo.queryCount()
	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return repo.queryCount() > before },
		2*time.Second, 10*time.Millisecond, "restarted loop sweeps again")
}

package monitoring

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/resqhub/quakewatch-be/internal/websocket"
)

// HostStats is the payload broadcast to the dashboard's health widget.
type HostStats struct {
	CPUPercent    float64   `json:"cpuPercent"`
	MemoryPercent float64   `json:"memoryPercent"`
	MemoryUsedMB  uint64    `json:"memoryUsedMb"`
	SampledAt     time.Time `json:"sampledAt"`
}

// StatUpdater periodically samples host CPU and memory and broadcasts the
// sample to all connected clients.
type StatUpdater struct {
	hub      *websocket.Hub
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(hub *websocket.Hub, interval time.Duration) *StatUpdater {
	return &StatUpdater{
		hub:      hub,
		interval: interval,
		done:     make(chan bool),
	}
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Dur("interval", su.interval).Msg("Starting background stat updater...")
	su.ticker = time.NewTicker(su.interval)
	defer su.ticker.Stop()

	// Run once immediately on start
	su.broadcastStats()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-su.ticker.C:
			su.broadcastStats()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	su.done <- true
}

func (su *StatUpdater) broadcastStats() {
	stats, err := sampleHostStats()
	if err != nil {
		log.Warn().Err(err).Msg("StatUpdater: failed to sample host stats")
		return
	}

	msg, err := websocket.NewStatsMessage(stats)
	if err != nil {
		log.Error().Err(err).Msg("StatUpdater: failed to encode stats message")
		return
	}
	su.hub.Broadcast <- msg
}

func sampleHostStats() (HostStats, error) {
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return HostStats{}, err
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return HostStats{}, err
	}

	stats := HostStats{
		MemoryPercent: vm.UsedPercent,
		MemoryUsedMB:  vm.Used / 1024 / 1024,
		SampledAt:     time.Now().UTC(),
	}
	if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	return stats, nil
}

package monitoring

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/dwelr/minevault/internal/services"
)

// DiskMonitor periodically checks the free space on the volume holding the
// backup destination and raises an event when it drops below the configured
// floor. Backups keep running regardless; the alert exists so an operator
// can clean up before runs start failing mid-write.
type DiskMonitor struct {
	path         string
	minFreeBytes uint64
	eventSvc     services.EventServiceProvider
	ticker       *time.Ticker
	done         chan bool
	lastAlert    time.Time
}

const diskAlertCooldown = 30 * time.Minute

// NewDiskMonitor creates a monitor for the given path.
func NewDiskMonitor(path string, minFreeBytes uint64, eventSvc services.EventServiceProvider) *DiskMonitor {
	return &DiskMonitor{
		path:         path,
		minFreeBytes: minFreeBytes,
		eventSvc:     eventSvc,
		done:         make(chan bool),
	}
}

// Run starts the periodic checks.
func (dm *DiskMonitor) Run() {
	log.Info().Str("path", dm.path).Msg("Starting backup volume watchdog...")
	dm.ticker = time.NewTicker(5 * time.Minute)
	defer dm.ticker.Stop()

	// Run once immediately on start
	dm.check()

	for {
		select {
		case <-dm.done:
			log.Info().Msg("Stopping backup volume watchdog.")
			return
		case <-dm.ticker.C:
			dm.check()
		}
	}
}

// Stop halts the periodic checks.
func (dm *DiskMonitor) Stop() {
	dm.done <- true
}

func (dm *DiskMonitor) check() {
	usage, err := disk.Usage(dm.path)
	if err != nil {
		log.Warn().Err(err).Str("path", dm.path).Msg("Could not read disk usage")
		return
	}

	if usage.Free >= dm.minFreeBytes {
		return
	}
	if time.Since(dm.lastAlert) < diskAlertCooldown {
		return
	}

	msg := fmt.Sprintf("Backup volume is low on space: %d MB free (%.1f%% used).", usage.Free/(1024*1024), usage.UsedPercent)
	log.Warn().Uint64("free_bytes", usage.Free).Float64("used_percent", usage.UsedPercent).Msg("Backup volume low on space")
	dm.eventSvc.CreateEvent("system.alert.disk", "warn", msg, nil)
	dm.lastAlert = time.Now()
}

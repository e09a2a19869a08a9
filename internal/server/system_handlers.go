package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/stackfolio/stackfolio/internal/database"
)

// SystemHandlers serves process and database health for the status page.
type SystemHandlers struct {
	log     zerolog.Logger
	dataDir string
	appDB   *database.DB
	cacheDB *database.DB
}

// NewSystemHandlers creates system status handlers
func NewSystemHandlers(log zerolog.Logger, dataDir string, appDB, cacheDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:     log.With().Str("component", "system_handlers").Logger(),
		dataDir: dataDir,
		appDB:   appDB,
		cacheDB: cacheDB,
	}
}

// HandleSystemStatus returns CPU, memory, disk and database statistics.
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	diskStats := map[string]interface{}{}
	if usage, err := disk.Usage(h.dataDir); err == nil {
		diskStats["total_mb"] = usage.Total / 1024 / 1024
		diskStats["used_mb"] = usage.Used / 1024 / 1024
		diskStats["used_percent"] = usage.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cpu_percent": cpuPercent,
		"ram_percent": ramPercent,
		"disk":        diskStats,
		"databases": map[string]interface{}{
			"app":   h.databaseStats(h.appDB),
			"cache": h.databaseStats(h.cacheDB),
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *SystemHandlers) databaseStats(db *database.DB) map[string]interface{} {
	stats, err := db.GetStats()
	if err != nil {
		h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
		return map[string]interface{}{"error": err.Error()}
	}

	return map[string]interface{}{
		"size_mb":        float64(stats.SizeBytes) / 1024 / 1024,
		"wal_size_mb":    float64(stats.WALSizeBytes) / 1024 / 1024,
		"page_count":     stats.PageCount,
		"page_size":      stats.PageSize,
		"freelist_count": stats.FreelistCount,
	}
}

// getSystemStats calculates CPU and RAM usage percentages.
// The 100ms sampling window keeps the status endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

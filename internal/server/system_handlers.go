package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/kwchan/folio/internal/database"
	"github.com/kwchan/folio/internal/events"
	"github.com/kwchan/folio/internal/version"
)

// SystemHandlers handles system monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	databases   map[string]*database.DB
	bus         *events.Bus
}

// SystemStatusResponse is the payload of GET /system/status
type SystemStatusResponse struct {
	Status         string  `json:"status"`
	Version        string  `json:"version"`
	UptimeSeconds  int64   `json:"uptime_seconds"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryPercent  float64 `json:"memory_percent"`
	MemoryUsedMB   float64 `json:"memory_used_mb"`
	Goroutines     int     `json:"goroutines"`
	EventListeners int     `json:"event_listeners"`
	HostUptimeSecs uint64  `json:"host_uptime_seconds"`
}

// DBInfo describes one database file
type DBInfo struct {
	Name            string  `json:"name"`
	SizeMB          float64 `json:"size_mb"`
	OpenConnections int     `json:"open_connections"`
	Healthy         bool    `json:"healthy"`
}

// DatabaseStatsResponse is the payload of GET /system/database/stats
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
}

// DiskUsageResponse is the payload of GET /system/disk
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(log zerolog.Logger, dataDir string, databases map[string]*database.DB, bus *events.Bus) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		databases:   databases,
		bus:         bus,
	}
}

// HandleSystemStatus handles GET /system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	response := SystemStatusResponse{
		Status:         "ok",
		Version:        version.Version,
		UptimeSeconds:  int64(time.Since(h.startupTime).Seconds()),
		Goroutines:     runtime.NumGoroutine(),
		EventListeners: h.bus.SubscriberCount(),
	}

	// Sampled over 100ms so the endpoint stays fast for pollers.
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuPercent) > 0 {
		response.CPUPercent = cpuPercent[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		response.MemoryPercent = memStat.UsedPercent
		response.MemoryUsedMB = float64(memStat.Used) / 1024 / 1024
	}

	if uptime, err := host.Uptime(); err == nil {
		response.HostUptimeSecs = uptime
	}

	h.writeJSON(w, response)
}

// HandleDatabaseStats handles GET /system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	response := DatabaseStatsResponse{Databases: []DBInfo{}}

	for name, db := range h.databases {
		info := DBInfo{
			Name:            name,
			OpenConnections: db.Conn().Stats().OpenConnections,
			Healthy:         db.QuickCheck(r.Context()) == nil,
		}

		if stat, err := os.Stat(filepath.Join(h.dataDir, name+".db")); err == nil {
			info.SizeMB = float64(stat.Size()) / 1024 / 1024
			response.TotalSizeMB += info.SizeMB
		}

		response.Databases = append(response.Databases, info)
	}

	h.writeJSON(w, response)
}

// HandleDiskUsage handles GET /system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, DiskUsageResponse{DataDirMB: h.dirSizeMB(h.dataDir)})
}

// dirSizeMB calculates total size of a directory in MB
func (h *SystemHandlers) dirSizeMB(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to walk directory")
	}

	return float64(totalSize) / 1024 / 1024
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

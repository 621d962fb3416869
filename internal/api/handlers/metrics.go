package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/hako/durafmt"
)

// ServiceInfo describes the configured backends, reported by /api/metrics
type ServiceInfo struct {
	Storage      string `json:"storage"`
	Records      bool   `json:"records"`
	Composer     bool   `json:"composer"`
	SampleRate   int    `json:"sample_rate"`
	MaxRenderSec int    `json:"max_render_seconds"`
}

type MetricsHandler struct {
	startTime time.Time
	version   string
	info      ServiceInfo
}

func NewMetricsHandler(version string, info ServiceInfo) *MetricsHandler {
	return &MetricsHandler{
		startTime: time.Now(),
		version:   version,
		info:      info,
	}
}

// formatUptime keeps the two largest units, e.g. "2 hours 5 minutes"
func formatUptime(d time.Duration) string {
	return durafmt.Parse(d.Round(time.Second)).LimitFirstN(2).String()
}

type MetricsResponse struct {
	Status    string        `json:"status"`
	Uptime    string        `json:"uptime"`
	Timestamp string        `json:"timestamp"`
	Version   string        `json:"version"`
	StartTime string        `json:"start_time"`
	System    SystemMetrics `json:"system"`
	Service   ServiceInfo   `json:"service"`
}

type SystemMetrics struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     string `json:"mem_alloc"`
	MemTotal     string `json:"mem_total"`
	NumGC        uint32 `json:"num_gc"`
}

func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.startTime)

	metrics := MetricsResponse{
		Status:    "healthy",
		Uptime:    formatUptime(uptime),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		StartTime: h.startTime.UTC().Format(time.RFC3339),
		System: SystemMetrics{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
			MemAlloc:     humanize.Bytes(m.Alloc),
			MemTotal:     humanize.Bytes(m.TotalAlloc),
			NumGC:        m.NumGC,
		},
		Service: h.info,
	}

	c.JSON(http.StatusOK, metrics)
}

package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxLogBatch bounds one frontend log batch
const maxLogBatch = 500

// UILogEntry is a log line forwarded by the frontend
type UILogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Plugin    string                 `json:"plugin,omitempty"`
	Component string                 `json:"component,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// UILogBatch is a batch of frontend log lines
type UILogBatch struct {
	Entries []UILogEntry `json:"entries"`
}

// StreamLogs writes frontend log lines into the host log so component
// render failures show up next to the plugin that registered them.
func (h *Handlers) StreamLogs(c *gin.Context) {
	var batch UILogBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		badRequest(c, "invalid log batch")
		return
	}
	if len(batch.Entries) == 0 {
		badRequest(c, "no log entries provided")
		return
	}
	if len(batch.Entries) > maxLogBatch {
		badRequest(c, "too many log entries")
		return
	}

	for _, entry := range batch.Entries {
		h.logUIEntry(entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"received":  len(batch.Entries),
		"timestamp": time.Now().Unix(),
	})
}

func (h *Handlers) logUIEntry(entry UILogEntry) {
	fields := make([]zap.Field, 0, len(entry.Context)+3)
	if entry.Plugin != "" {
		fields = append(fields, zap.String("plugin", entry.Plugin))
	}
	if entry.Component != "" {
		fields = append(fields, zap.String("component", entry.Component))
	}
	if entry.Timestamp != "" {
		fields = append(fields, zap.String("ui_timestamp", entry.Timestamp))
	}
	for key, value := range entry.Context {
		switch v := value.(type) {
		case string:
			fields = append(fields, zap.String(key, v))
		case float64:
			fields = append(fields, zap.Float64(key, v))
		case bool:
			fields = append(fields, zap.Bool(key, v))
		default:
			fields = append(fields, zap.Any(key, v))
		}
	}

	switch entry.Level {
	case "error":
		h.uiLogger.Error(entry.Message, fields...)
	case "warn":
		h.uiLogger.Warn(entry.Message, fields...)
	case "debug", "verbose":
		h.uiLogger.Debug(entry.Message, fields...)
	default:
		h.uiLogger.Info(entry.Message, fields...)
	}
}

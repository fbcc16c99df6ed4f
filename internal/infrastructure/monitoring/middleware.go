package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Route templates keep label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures a plugin hook duration
type Timer struct {
	start   time.Time
	metrics *Metrics
	plugin  string
	hook    string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, plugin, hook string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		plugin:  plugin,
		hook:    hook,
	}
}

// Stop stops the timer and records the duration
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	t.metrics.RecordHook(t.plugin, t.hook, d)
	return d
}

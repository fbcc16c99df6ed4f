package host

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Watch polls the fingerprint of every loaded plugin whose source supports
// it and hot-reloads the plugin when the fingerprint changes. It returns
// when ctx is done.
func (l *Loader) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.CheckChanges(ctx)
		}
	}
}

// CheckChanges runs one polling pass and returns the ids it reloaded
func (l *Loader) CheckChanges(ctx context.Context) []string {
	var reloaded []string
	for _, id := range l.sortedIDs() {
		l.mu.RLock()
		p, ok := l.plugins[id]
		var src Source
		var previous string
		if ok {
			src, previous = p.source, p.fingerprint
		}
		l.mu.RUnlock()
		if !ok {
			continue
		}

		f, ok := src.(Fingerprinter)
		if !ok {
			continue
		}
		current, err := f.Fingerprint()
		if err != nil {
			l.logger.Warn("plugin source unreadable", zap.String("plugin", id), zap.Error(err))
			continue
		}
		if current == previous {
			continue
		}

		l.logger.Info("plugin source changed", zap.String("plugin", id), zap.String("source", src.Name()))
		if _, err := l.Reload(ctx, id); err != nil {
			l.logger.Error("hot reload failed", zap.String("plugin", id), zap.Error(err))
			// Remember the fingerprint so a broken file is not retried every tick
			l.mu.Lock()
			p.fingerprint = current
			l.mu.Unlock()
			continue
		}
		reloaded = append(reloaded, id)
	}
	return reloaded
}

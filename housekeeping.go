package softcache

import (
	"context"
	"time"
)

func (c *cache[K, V]) startHousekeeping() {
	c.stopCh = make(chan struct{})
	c.closeWg.Add(1)
	go c.housekeepingLoop()
}

// housekeepingLoop runs Cleanup immediately and then once per interval until
// Close. It never returns errors; a panicking pass is logged and the loop goes on.
func (c *cache[K, V]) housekeepingLoop() {
	defer c.closeWg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log.Debug("housekeeping started", Fields{"interval": c.interval, "threshold": c.threshold})
	for {
		c.safeCleanup()
		select {
		case <-ticker.C:
		case <-c.stopCh:
			c.log.Debug("housekeeping stopped", nil)
			return
		}
	}
}

func (c *cache[K, V]) safeCleanup() {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("housekeeping pass panicked", Fields{"panic": r})
		}
	}()
	c.Cleanup()
}

// stopHousekeeping signals the loop and waits for it, bounded by ctx.
func (c *cache[K, V]) stopHousekeeping(ctx context.Context) error {
	if c.stopCh == nil {
		return nil
	}
	close(c.stopCh)

	done := make(chan struct{})
	go func() {
		c.closeWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

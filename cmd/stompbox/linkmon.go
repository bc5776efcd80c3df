package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// watchLink polls the network interface operstate and feeds LinkUp/LinkDown
// edges into the engine. The link starts assumed down, so the first "up"
// reading always produces a LinkUp.
//
// Polling sysfs is deliberate: the console lives on a dedicated segment and a
// 1s poll is plenty for a human noticing stale LEDs.
func watchLink(ctx context.Context, iface string, interval time.Duration, events chan<- Event, logger *slog.Logger) error {
	path := fmt.Sprintf("/sys/class/net/%s/operstate", iface)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	up := false

	check := func() {
		b, err := os.ReadFile(path)
		nowUp := err == nil && strings.TrimSpace(string(b)) == "up"
		if err != nil {
			logger.Debug("operstate read failed", "iface", iface, "error", err)
		}

		if nowUp == up {
			return
		}
		up = nowUp

		if up {
			logger.Info("link up", "iface", iface)
			events <- LinkUp{}
		} else {
			logger.Info("link down", "iface", iface)
			events <- LinkDown{}
		}
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			check()
		}
	}
}

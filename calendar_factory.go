package main

import (
	"context"
	"fmt"
	"time"
)

// newCalendarProvider builds the provider selected in the config: Google by
// default, or a named CalDAV server.
func newCalendarProvider(ctx context.Context, config *Config, loc *time.Location) (CalendarProvider, error) {
	switch config.Provider {
	case "google":
		client, err := googleClient(ctx, config)
		if err != nil {
			return nil, err
		}
		return NewGoogleCalendarProvider(ctx, client, loc)

	case "caldav":
		serverName := config.CalDAVServer
		if serverName == "" {
			return nil, fmt.Errorf("provider is caldav but no caldav_server is configured")
		}
		server, ok := config.CalDAVs[serverName]
		if !ok {
			return nil, fmt.Errorf("CalDAV server %q not found in configuration", serverName)
		}
		return NewCalDAVProvider(ctx, server.ServerURL, server.Username, server.Password, loc)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Provider)
	}
}

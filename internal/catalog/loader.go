// Package catalog loads the static service catalog at startup.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"status-monitor-api/internal/registry"
)

type entry struct {
	URL string `json:"url"`
}

// Load reads the services.json catalog and returns the tracked
// services. Names are sorted so listings are stable across restarts
// (JSON object keys carry no order).
func Load(path string) ([]registry.Service, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var raw map[string]entry
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("catalog %s defines no services", path)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	services := make([]registry.Service, 0, len(names))
	for _, name := range names {
		if raw[name].URL == "" {
			return nil, fmt.Errorf("catalog entry %q has no url", name)
		}
		services = append(services, registry.Service{
			Name: name,
			URL:  raw[name].URL,
		})
	}
	return services, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// parseEventSpec parses "button:down" / "button:up" into a simulate payload.
func parseEventSpec(s string) (map[string]any, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("event %q must look like volume_up:down", s)
	}
	var pressed bool
	switch strings.ToLower(parts[1]) {
	case "down", "press":
		pressed = true
	case "up", "release":
		pressed = false
	default:
		return nil, fmt.Errorf("event %q transition must be down or up", s)
	}
	return map[string]any{"button": parts[0], "pressed": pressed}, nil
}

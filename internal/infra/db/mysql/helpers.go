package mysql

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// threatsJSON encodes threats for the JSON column, never "null"
func threatsJSON(threats []string) (string, error) {
	if threats == nil {
		threats = []string{}
	}
	b, err := json.Marshal(threats)
	return string(b), err
}

// parseThreats decodes the JSON column; empty means no threats
func parseThreats(raw string) ([]string, error) {
	out := []string{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode threats_json: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

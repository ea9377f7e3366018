package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alpkeskin/gotoon"
	"go.yaml.in/yaml/v3"
)

// outputFormat is the machine-readable rendering requested by flags.
type outputFormat int

const (
	formatText outputFormat = iota
	formatJSON
	formatYAML
	formatToon
)

func pickFormat(asJSON, asYAML, asToon bool) (outputFormat, error) {
	n := 0
	format := formatText
	if asJSON {
		n++
		format = formatJSON
	}
	if asYAML {
		n++
		format = formatYAML
	}
	if asToon {
		n++
		format = formatToon
	}
	if n > 1 {
		return formatText, fmt.Errorf("--json, --yaml and --toon are mutually exclusive")
	}
	return format, nil
}

// render prints v in a machine-readable format. It reports false for
// formatText so the caller prints its own human-readable view.
func render(v any, format outputFormat) (bool, error) {
	switch format {
	case formatJSON:
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
	case formatYAML:
		output, err := yaml.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Print(string(output))
	case formatToon:
		output, err := gotoon.Encode(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
	default:
		return false, nil
	}
	return true, nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatRatio(original, compressed int64) string {
	if original == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", 100*float64(original-compressed)/float64(original))
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days == 0 {
		return "< 1 day"
	}
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

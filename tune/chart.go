// Package tune loads chord charts and turns them into per-measure chord changes.
package tune

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

// ErrInvalidChart is returned for charts that cannot be aligned against audio.
var ErrInvalidChart = errors.New("invalid tune chart")

// ErrUnknownChart is returned when a name is neither a built-in chart nor a file.
var ErrUnknownChart = errors.New("unknown tune chart")

// Format is the serialization of a chart file.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// Chart is the static description of a tune: one entry per measure, each
// holding one chord for the whole measure or two for a half-measure change.
type Chart struct {
	Name          string     `json:"name" yaml:"name"`
	TimeSignature int        `json:"time_signature,omitempty" yaml:"time_signature,omitempty"`
	HalfTime      bool       `json:"half_time" yaml:"half_time"`
	Changes       [][]string `json:"changes" yaml:"changes"`
}

// FormatFromPath picks the format from a file extension. Unknown extensions are read as YAML.
func FormatFromPath(p string) Format {
	if strings.EqualFold(filepath.Ext(p), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// ParseChart decodes a chart.
func ParseChart(data []byte, format Format) (*Chart, error) {
	var chart Chart
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &chart)
	case FormatYAML:
		err = yaml.Unmarshal(data, &chart)
	default:
		return nil, fmt.Errorf("unsupported chart format %d", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChart, err)
	}
	return &chart, nil
}

// LoadChart reads a chart file. A chart without a name is named after the file.
func LoadChart(p string) (*Chart, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart: %w", err)
	}

	chart, err := ParseChart(data, FormatFromPath(p))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	if chart.Name == "" {
		chart.Name = strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	}
	return chart, nil
}

//go:embed charts/*.yaml
var builtinCharts embed.FS

// BuiltinNames lists the charts compiled into the binary.
func BuiltinNames() []string {
	entries, err := builtinCharts.ReadDir("charts")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Builtin returns a built-in chart by name, e.g. "blue-bossa".
func Builtin(name string) (*Chart, error) {
	data, err := builtinCharts.ReadFile(path.Join("charts", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
	return ParseChart(data, FormatYAML)
}

// Resolve returns the built-in chart called ref, or else loads ref as a file.
func Resolve(ref string) (*Chart, error) {
	if chart, err := Builtin(ref); err == nil {
		return chart, nil
	}
	if _, err := os.Stat(ref); err != nil {
		return nil, fmt.Errorf("%w: %q is not a built-in chart (%s) or a readable file",
			ErrUnknownChart, ref, strings.Join(BuiltinNames(), ", "))
	}
	return LoadChart(ref)
}

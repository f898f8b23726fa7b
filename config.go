package dnserver

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the zone records parsed from a zones file.
type Config struct {
	Zones []Zone
}

// LoadConfig reads a zones file in TOML, YAML or JSON format. The format is
// picked by file extension, with every parser tried in order when the
// extension is not recognized. The file must contain a top-level "zones"
// list; every entry is validated, and the first invalid entry fails the
// whole load.
func LoadConfig(name string) (*Config, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read zones file")
	}
	var raw map[string]interface{}
	switch filepath.Ext(name) {
	case ".toml":
		raw, err = parseTOML(data)
	case ".yaml", ".yml":
		raw, err = parseYAML(data)
	case ".json":
		raw, err = parseJSON(data)
	default:
		raw, err = parseAny(data)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse '%s'", name)
	}

	zones, ok := zoneList(raw["zones"])
	if !ok || len(zones) == 0 {
		return nil, errors.Errorf("no zones found in '%s'", name)
	}
	c := &Config{Zones: make([]Zone, 0, len(zones))}
	for i, z := range zones {
		zone, err := ZoneFromRaw(i+1, z)
		if err != nil {
			return nil, err
		}
		c.Zones = append(c.Zones, zone)
	}
	return c, nil
}

func parseTOML(data []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	err := toml.Unmarshal(data, &raw)
	return raw, err
}

func parseYAML(data []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	err := yaml.Unmarshal(data, &raw)
	return raw, err
}

func parseJSON(data []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	err := json.Unmarshal(data, &raw)
	return raw, err
}

// Try every supported format in order.
func parseAny(data []byte) (map[string]interface{}, error) {
	for _, parse := range []func([]byte) (map[string]interface{}, error){parseTOML, parseYAML, parseJSON} {
		if raw, err := parse(data); err == nil {
			return raw, nil
		}
	}
	return nil, errors.New("not valid TOML, YAML or JSON")
}

// The zones key parses into different list types depending on the format.
func zoneList(v interface{}) ([]interface{}, bool) {
	switch z := v.(type) {
	case []interface{}:
		return z, true
	case []map[string]interface{}:
		out := make([]interface{}, len(z))
		for i, m := range z {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

package xlrecover

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadOptions reads options from a YAML file on top of DefaultOptions.
// Unknown keys are rejected.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, err
	}
	return ParseOptions(data)
}

// ParseOptions decodes YAML options on top of DefaultOptions.
func ParseOptions(data []byte) (Options, error) {
	opts := DefaultOptions()
	if len(bytes.TrimSpace(data)) == 0 {
		return opts, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil {
		return Options{}, fmt.Errorf("parse config: %w", err)
	}

	opts, err := opts.withDefaults()
	if err != nil {
		return Options{}, fmt.Errorf("parse config: %w", err)
	}
	switch opts.Naming {
	case NameByIndex, NameBySource:
	default:
		return Options{}, fmt.Errorf("parse config: invalid naming %q (must be index or source)", opts.Naming)
	}
	return opts, nil
}

package gopaginate

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var (
	_populateType      = reflect.TypeOf(Populate{})
	_populateSliceType = reflect.TypeOf([]Populate{})
)

// DecodeOptions builds Options from a loosely typed map, such as a section of
// a configuration file. Numbers given as strings are converted, and populate
// accepts a single path, a list of paths, or a list of {path, select} maps.
//
//	opts, err := DecodeOptions(map[string]any{"limit": "20", "lean": true, "populate": "author"})
func DecodeOptions(raw map[string]any) (Options, error) {
	var opts Options

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       populateHook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &opts,
	})
	if err != nil {
		return Options{}, fmt.Errorf("cannot build options decoder: %w", err)
	}

	if err = decoder.Decode(raw); err != nil {
		return Options{}, fmt.Errorf("cannot decode options: %w", err)
	}

	return opts, nil
}

// ParseOptionsYAML decodes Options from a YAML document:
//
//	limit: 20
//	lean: true
//	sort: {date: -1}
//	populate: [author]
func ParseOptionsYAML(data []byte) (Options, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Options{}, fmt.Errorf("cannot parse options yaml: %w", err)
	}

	return DecodeOptions(raw)
}

func populateHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to {
	case _populateSliceType:
		switch data.(type) {
		case string, map[string]any:
			return []any{data}, nil
		}
	case _populateType:
		if path, ok := data.(string); ok {
			return map[string]any{"path": path}, nil
		}
	}

	return data, nil
}

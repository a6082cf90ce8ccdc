package prefstore

import (
	"errors"
	"fmt"
	"strings"
)

// Durable backends store each value as a short type tag followed by the
// payload, e.g. "s:CELSIUS" or "b:true".
const (
	tagString = "s:"
	tagBool   = "b:"
)

var errUnknownTag = errors.New("unknown value tag")

func encodeValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return tagString + val, nil
	case bool:
		if val {
			return tagBool + "true", nil
		}
		return tagBool + "false", nil
	default:
		return "", fmt.Errorf("unsupported preference type %T", v)
	}
}

func decodeValue(raw string) (any, error) {
	switch {
	case strings.HasPrefix(raw, tagString):
		return strings.TrimPrefix(raw, tagString), nil
	case strings.HasPrefix(raw, tagBool):
		switch strings.TrimPrefix(raw, tagBool) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("invalid bool payload %q", raw)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownTag, raw)
	}
}

// decodeAll builds a snapshot from raw stored pairs. Entries that cannot be
// decoded are dropped and reported through skip.
func decodeAll(raw map[string]string, skip func(key string, err error)) Preferences {
	values := make(map[string]any, len(raw))
	for k, r := range raw {
		v, err := decodeValue(r)
		if err != nil {
			if skip != nil {
				skip(k, err)
			}
			continue
		}
		values[k] = v
	}
	return Preferences{values: values}
}

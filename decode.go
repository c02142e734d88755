// FILE: lixenwraith/layerconf/decode.go
package layerconf

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Decode copies a tree into target, a non-nil pointer to a struct or map.
// Fields are matched by their `toml` tag; strings convert to durations,
// RFC3339 times, IPs, CIDRs and URLs through decode hooks.
func Decode(tree any, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be non-nil pointer, got %T", target)
	}

	if tree == nil {
		tree = make(map[string]any) // Empty section
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "toml",
		WeaklyTypedInput: true,
		DecodeHook:       decodeHook(),
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(tree); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

// Scan decodes the section at basePath ("" for the whole tree) into target
func (r *Result) Scan(basePath string, target any) error {
	section, ok := navigateToPath(r.tree, basePath)
	if !ok {
		section = nil
	}
	if section != nil {
		if _, isMap := section.(map[string]any); !isMap {
			return fmt.Errorf("path %q refers to non-map value (type %T)", basePath, section)
		}
	}
	if err := Decode(cloneTree(section), target); err != nil {
		return fmt.Errorf("failed to scan %q: %w", basePath, err)
	}
	return nil
}

// decodeHook returns the composite decode hook for all type conversions
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		stringToNetworkHookFunc(),

		// Standard hooks
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// textParser converts a bounded string into a value of one target type
type textParser struct {
	maxLen int
	parse  func(s string) (any, error)
}

// textParsers covers the network types the tree carries as strings.
// Parsers return pointers; the hook dereferences them for value targets.
var textParsers = map[reflect.Type]textParser{
	reflect.TypeOf(net.IP{}): {maxLen: 45, parse: func(s string) (any, error) {
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address: %s", s)
		}
		return &ip, nil
	}},
	reflect.TypeOf(net.IPNet{}): {maxLen: 49, parse: func(s string) (any, error) {
		_, ipnet, err := net.ParseCIDR(s)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR: %w", err)
		}
		return ipnet, nil
	}},
	reflect.TypeOf(url.URL{}): {maxLen: 2048, parse: func(s string) (any, error) {
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		return u, nil
	}},
}

// stringToNetworkHookFunc handles net.IP, net.IPNet and url.URL targets, by value or pointer
func stringToNetworkHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		target := t
		if isPtr {
			target = t.Elem()
		}
		parser, ok := textParsers[target]
		if !ok {
			return data, nil
		}

		str := data.(string)
		if len(str) > parser.maxLen {
			return nil, fmt.Errorf("%s value too long: %d bytes", target, len(str))
		}
		parsed, err := parser.parse(str)
		if err != nil {
			return nil, err
		}
		if isPtr {
			return parsed, nil
		}
		return reflect.ValueOf(parsed).Elem().Interface(), nil
	}
}

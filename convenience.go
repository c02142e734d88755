// FILE: lixenwraith/layerconf/convenience.go
package layerconf

import (
	"fmt"
	"os"
)

// Quick resolves and decodes a configuration with a single call.
// target is a struct pointer whose current field values are the defaults;
// configFile, when non-empty, is tried before the standard locations.
// Command-line arguments are read from os.Args.
func Quick(appName string, target any, configFile string) (*Result, error) {
	b := NewBuilder(appName).
		WithDefaults(target).
		WithArgs(os.Args[1:])
	if configFile != "" {
		b = b.WithExplicitPath(configFile)
	}

	result, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := result.Scan("", target); err != nil {
		return nil, fmt.Errorf("failed to scan final config into target: %w", err)
	}
	return result, nil
}

// MustQuick is like Quick but panics on error
func MustQuick(appName string, target any, configFile string) *Result {
	result, err := Quick(appName, target, configFile)
	if err != nil {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
	return result
}

// RequireKeys returns a validator that fails for every path without a value
func RequireKeys(paths ...string) ValidatorFunc {
	return func(r *Result) error {
		var errs []error
		for _, path := range paths {
			v, ok := r.Get(path)
			switch {
			case !ok || v == nil:
				errs = append(errs, &ValidationError{Key: path, Message: "required value is missing"})
			case v == "":
				errs = append(errs, &ValidationError{Key: path, Message: "required value is empty"})
			}
		}
		return Aggregate(errs...)
	}
}

// FILE: lixenwraith/layerconf/builder.go
package layerconf

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

// ValidatorFunc defines the signature for a function that can validate a merged Result.
// It runs after a successful merge and should return an error if validation fails.
type ValidatorFunc func(r *Result) error

// Builder provides a fluent interface for resolving a configuration.
// Errors from option methods are deferred to Build. A Builder is not safe for
// concurrent use.
type Builder struct {
	appName      string
	schema       *Schema
	discovery    DiscoveryOptions
	envPrefix    string
	envTransform EnvTransformFunc
	envWhitelist map[string]bool
	env          *Env
	envFiles     []string
	args         []string
	flags        *pflag.FlagSet
	cli          map[string]any
	fs           afero.Fs
	platform     Platform
	security     SecurityOptions
	logger       zerolog.Logger
	validators   []ValidatorFunc
	focus        string // Sub-table read from each file layer, set by Router
	err          error
}

// NewBuilder creates a builder for appName with default discovery options.
// The environment prefix defaults to the upper-cased application name.
func NewBuilder(appName string) *Builder {
	return &Builder{
		appName:    appName,
		discovery:  DefaultDiscoveryOptions(appName),
		envPrefix:  envVarName(appName),
		fs:         afero.NewOsFs(),
		logger:     zerolog.Nop(),
		validators: make([]ValidatorFunc, 0),
	}
}

// WithSchema sets the field descriptor used for the merge
func (b *Builder) WithSchema(schema *Schema) *Builder {
	b.schema = schema
	return b
}

// WithDefaults derives the schema from a struct whose field values are the defaults
func (b *Builder) WithDefaults(defaults any) *Builder {
	schema, err := DescribeStruct(defaults)
	if err != nil {
		b.err = fmt.Errorf("failed to describe defaults: %w", err)
		return b
	}
	b.schema = schema
	return b
}

// WithEnvPrefix sets the environment variable prefix ("" disables prefixing)
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.envPrefix = prefix
	return b
}

// WithEnvTransform sets a custom function mapping a field path to its environment variable name.
// It replaces the prefix-based naming; subcommand scoping is applied to the path it receives.
func (b *Builder) WithEnvTransform(fn EnvTransformFunc) *Builder {
	b.envTransform = fn
	return b
}

// WithEnvWhitelist limits environment lookups to the given field paths
func (b *Builder) WithEnvWhitelist(paths ...string) *Builder {
	if b.envWhitelist == nil {
		b.envWhitelist = make(map[string]bool)
	}
	for _, path := range paths {
		b.envWhitelist[path] = true
	}
	return b
}

// WithEnvironment replaces the process environment snapshot
func (b *Builder) WithEnvironment(env Env) *Builder {
	b.env = &env
	return b
}

// WithEnvFile adds a dotenv file; variables already in the environment take precedence
func (b *Builder) WithEnvFile(path string) *Builder {
	if path != "" {
		b.envFiles = append(b.envFiles, path)
	}
	return b
}

// WithArgs sets command-line arguments parsed against flags generated from the schema
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithFlagSet uses an already parsed flag set as the CLI source
func (b *Builder) WithFlagSet(fs *pflag.FlagSet) *Builder {
	b.flags = fs
	return b
}

// WithCLI supplies a pre-built Cli layer tree
func (b *Builder) WithCLI(tree map[string]any) *Builder {
	b.cli = tree
	return b
}

// WithExplicitPath adds a configuration file path supplied by the caller
func (b *Builder) WithExplicitPath(path string) *Builder {
	b.discovery.ExplicitPaths = append(b.discovery.ExplicitPaths, path)
	return b
}

// WithRequiredPath adds a configuration file path that must exist and parse
func (b *Builder) WithRequiredPath(path string) *Builder {
	b.discovery.RequiredPaths = append(b.discovery.RequiredPaths, path)
	return b
}

// WithEnvVar sets the environment variable holding an override path ("" disables it)
func (b *Builder) WithEnvVar(name string) *Builder {
	b.discovery.EnvVar = name
	return b
}

// WithDiscovery replaces the discovery options
func (b *Builder) WithDiscovery(opts DiscoveryOptions) *Builder {
	b.discovery = opts
	return b
}

// WithFs sets the filesystem used for configuration and env files
func (b *Builder) WithFs(fs afero.Fs) *Builder {
	if fs == nil {
		b.err = fmt.Errorf("filesystem must not be nil")
		return b
	}
	b.fs = fs
	return b
}

// WithPlatform overrides the platform used for standard locations
func (b *Builder) WithPlatform(p Platform) *Builder {
	b.platform = p
	return b
}

// WithSecurityOptions sets the restrictions applied to every configuration file read
func (b *Builder) WithSecurityOptions(opts SecurityOptions) *Builder {
	b.security = opts
	return b
}

// WithLogger sets the logger for discovery events
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithValidator adds a validation function that runs at the end of the build process.
// All validators run; their failures are reported together.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build resolves the configuration: discovery, layer composition, merge, validation
func (b *Builder) Build() (*Result, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.schema == nil {
		return nil, fmt.Errorf("no schema: call WithSchema or WithDefaults")
	}
	if err := b.schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	env, err := b.snapshot()
	if err != nil {
		return nil, err
	}

	// -- 1. Discover and load the configuration file chain
	platform := b.platform
	if platform == nil {
		platform = DefaultPlatform(env, b.discovery)
	}
	candidates := ResolveCandidates(b.discovery, env, platform)

	loader := NewFileLoader(b.fs)
	loader.Platform = platform
	loader.Logger = b.logger
	loader.Security = b.security

	outcome := loader.LoadFirst(candidates)
	if err := outcome.Fatal(); err != nil {
		return nil, err
	}
	for _, dropped := range outcome.OptionalErrors {
		b.logger.Debug().Err(dropped).Msg("discarding optional configuration error")
	}

	// -- 2. Gather every layer; independent failures are reported together
	composer := NewComposer()
	composer.PushDefaults(b.schema.DefaultsTree())

	var gatherErrs []error
	if outcome.Found {
		if err := b.pushChain(composer, outcome.Value); err != nil {
			return nil, err
		}
	}

	envOpts := EnvOptions{
		Prefix:    b.envPrefix,
		Transform: b.envTransform,
		Whitelist: b.envWhitelist,
		Scope:     b.focus,
	}
	if envTree, err := EnvLayerWith(env, b.schema, envOpts); err != nil {
		gatherErrs = append(gatherErrs, err)
	} else {
		composer.PushEnvironment(envTree)
	}

	for _, tree := range b.cliTrees(&gatherErrs) {
		composer.PushCli(tree)
	}

	if err := Aggregate(gatherErrs...); err != nil {
		return nil, err
	}

	// -- 3. Merge
	merged, err := Merge(composer.Layers(), b.schema)
	if err != nil {
		return nil, err
	}

	result := &Result{
		tree:       merged.Tree,
		origins:    merged.Origins,
		schema:     b.schema,
		files:      outcome.Value.Paths(),
		candidates: candidates,
		warnings:   outcome.OptionalErrors,
		fs:         b.fs,
	}

	// -- 4. Validate
	if err := b.validate(result); err != nil {
		return nil, err
	}

	return result, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Result {
	result, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("config build failed: %v", err))
	}
	return result
}

// BuildAndScan builds and decodes the final configuration into the provided target struct pointer
func (b *Builder) BuildAndScan(target any) error {
	result, err := b.Build()
	if err != nil {
		return err
	}
	if err := result.Scan("", target); err != nil {
		return fmt.Errorf("failed to scan final config into target: %w", err)
	}
	return nil
}

// snapshot returns the environment, overlaid on any dotenv files
func (b *Builder) snapshot() (Env, error) {
	var env Env
	if b.env != nil {
		env = *b.env
	} else {
		env = EnvFromOS()
	}
	if len(b.envFiles) == 0 {
		return env, nil
	}

	fileVars := make(map[string]string)
	for _, path := range b.envFiles {
		vars, err := ReadEnvFile(b.fs, path)
		if err != nil {
			return Env{}, &GatheringError{Source: "env-file:" + path, Err: err}
		}
		for k, v := range vars {
			fileVars[k] = v
		}
	}
	return NewEnv(fileVars).With(env.vars), nil
}

// pushChain adds the file layers, focused on the builder's sub-table when set
func (b *Builder) pushChain(composer *Composer, chain FileLayerChain) error {
	if b.focus == "" {
		composer.PushChain(chain)
		return nil
	}
	for _, fl := range chain {
		section, ok := navigateToPath(fl.Value, b.focus)
		if !ok || section == nil {
			composer.PushFile(nil, fl.Path)
			continue
		}
		table, ok := section.(map[string]any)
		if !ok {
			return &MergeError{
				FieldPath: b.focus,
				Err:       fmt.Errorf("expected map, found %s in file:%s", shapeOf(section), fl.Path),
			}
		}
		composer.PushFile(table, fl.Path)
	}
	return nil
}

// cliTrees collects the Cli layers from args, a parsed flag set and a supplied tree, in that order
func (b *Builder) cliTrees(errs *[]error) []map[string]any {
	var trees []map[string]any
	if b.args != nil {
		if tree, err := ParseCLI(b.schema, b.args); err != nil {
			*errs = append(*errs, err)
		} else {
			trees = append(trees, tree)
		}
	}
	if b.flags != nil {
		if tree, err := CLITree(b.flags, b.schema); err != nil {
			*errs = append(*errs, err)
		} else {
			trees = append(trees, tree)
		}
	}
	if b.cli != nil {
		trees = append(trees, b.cli)
	}
	return trees
}

// validate runs every validator and aggregates their failures
func (b *Builder) validate(result *Result) error {
	var errs []error
	for _, validator := range b.validators {
		err := validator(result)
		if err == nil {
			continue
		}
		var agg *AggregateError
		if errors.As(err, &agg) {
			for _, e := range agg.Errors {
				errs = append(errs, asValidationError(e))
			}
			continue
		}
		errs = append(errs, asValidationError(err))
	}
	return Aggregate(errs...)
}

func asValidationError(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return &ValidationError{Message: err.Error()}
}

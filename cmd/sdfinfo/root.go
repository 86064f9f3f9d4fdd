package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jacoelho/sdf"
	"github.com/jacoelho/sdf/pkg/sdfversion"
)

const (
	envPrefix     = "SDFINFO"
	defaultConfig = "~/.sdfinfo.yaml"

	keyModelPath = "model-path"
	keyVersion   = "version"
	keyDebug     = "debug"
)

// usageError marks failures caused by how the command was invoked.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

// app carries what every command shares for one invocation.
type app struct {
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer
	v      *viper.Viper
	logger *slog.Logger
	loader *sdf.Loader
	opts   sdf.LoadOptions

	configFile  string
	cpuProfile  string
	memProfile  string
	stopProfile func() error
}

func newApp(fsys afero.Fs, stdout, stderr io.Writer) *app {
	return &app{
		fs:     fsys,
		stdout: stdout,
		stderr: stderr,
		v:      viper.New(),
		logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
		opts:   sdf.NewLoadOptions(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sdfinfo",
		Short: "Inspect SDF scene descriptions",
		Long: `sdfinfo loads SDF worlds and models, expanding includes through the
model search path, and reports on the result.`,
		Args:              usageArgs(cobra.NoArgs),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return a.setup() },
		RunE: func(*cobra.Command, []string) error {
			return usageError{err: fmt.Errorf("a command is required")}
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default "+defaultConfig+")")
	flags.String(keyModelPath, "", "model search path, "+string(filepath.ListSeparator)+"-separated (default $"+sdf.EnvModelPath+" and ~/.gazebo/models)")
	flags.String(keyVersion, "", "highest SDF version to load, e.g. 1.5 (default latest)")
	flags.Bool(keyDebug, false, "log model resolution to stderr")
	flags.StringVar(&a.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flags.StringVar(&a.memProfile, "memprofile", "", "write memory profile to file")
	for _, key := range []string{keyModelPath, keyVersion, keyDebug} {
		// the flag exists, binding cannot fail
		_ = a.v.BindPFlag(key, flags.Lookup(key))
	}

	cmd.AddCommand(
		newLoadCmd(a),
		newModelsCmd(a),
		newTreeCmd(a),
		newFindCmd(a),
		newCheckCmd(a),
	)
	return cmd
}

// setup reads the configuration and builds the loader.
func (a *app) setup() error {
	if err := a.readConfig(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if a.v.GetBool(keyDebug) {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	ceiling, err := sdfversion.ParseCeiling(a.v.GetString(keyVersion))
	if err != nil {
		return usageError{err: fmt.Errorf("--%s: %w", keyVersion, err)}
	}
	a.opts = sdf.NewLoadOptions().WithCeiling(ceiling)

	loaderOpts := []sdf.Option{sdf.WithFS(a.fs), sdf.WithLogger(a.logger)}
	if path := a.v.GetString(keyModelPath); path != "" {
		loaderOpts = append(loaderOpts, sdf.WithModelPath(filepath.SplitList(path)...))
	}
	a.loader = sdf.NewLoader(loaderOpts...)
	a.logger.Debug("configured", "model_path", a.loader.ModelPath(), "version", ceiling.String())

	if a.cpuProfile != "" {
		stop, err := startCPUProfile(a.cpuProfile)
		if err != nil {
			return err
		}
		a.stopProfile = stop
	}
	return nil
}

func (a *app) readConfig() error {
	a.v.SetFs(a.fs)
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	path := a.configFile
	if path == "" {
		expanded, err := homedir.Expand(defaultConfig)
		if err != nil {
			a.logger.Debug("no home directory, skipping config", "error", err)
			return nil
		}
		if ok, _ := afero.Exists(a.fs, expanded); !ok {
			return nil
		}
		path = expanded
	}

	a.v.SetConfigFile(path)
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func (a *app) close() {
	if a.stopProfile != nil {
		if err := a.stopProfile(); err != nil {
			_ = writef(a.stderr, "error stopping CPU profile: %v\n", err)
		}
	}
	if a.memProfile != "" {
		if err := writeMemProfile(a.memProfile); err != nil {
			_ = writef(a.stderr, "error writing memory profile: %v\n", err)
		}
	}
}

// load loads a file path or model:// URI with the configured options.
func (a *app) load(pathOrURI string, flat bool) (sdf.Root, error) {
	root, err := a.loader.Load(pathOrURI, a.opts.WithFlatten(flat))
	if err != nil {
		return sdf.Root{}, fmt.Errorf("load %s: %w", pathOrURI, err)
	}
	return root, nil
}

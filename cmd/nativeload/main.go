package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	nativeload "github.com/slava-go-dev/go-nativeload-pure"
	"github.com/slava-go-dev/go-nativeload-pure/internal/config"
	"github.com/slava-go-dev/go-nativeload-pure/internal/logging"
	"github.com/slava-go-dev/go-nativeload-pure/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "nativeload",
		Short: "Locate, extract and load bundled native libraries",
		Long: `nativeload detects the host platform and loads native libraries,
first from the library search path and then from a resource directory
laid out as <root>/<os>/<arch>/<library file>.`,
		SilenceUsage: true,
	}

	// values are read through config.Load, which binds these flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default nativeload.yaml next to the binary, in $HOME/.nativeload or .)")
	flags.String("resources", "", "Directory holding the packaged libraries")
	flags.StringSlice("lib", nil, "Library names to load, in order")
	flags.String("native-dir", "", "Directory added to the library search path")
	flags.String("temp-dir", "", "Directory receiving extracted libraries")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newDetectCmd(&configPath),
		newExtractCmd(&configPath),
		newLoadCmd(&configPath),
		newVersionCmd(),
	)
	return rootCmd
}

// resolve merges the config file, the environment and the flags given on
// the command line.
func resolve(cmd *cobra.Command, configPath string) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func resourcesFS(dir string) (fs.FS, error) {
	if dir == "" {
		return nil, fmt.Errorf("no resource directory given (use --resources or the resources config key)")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access resource directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

func newDetectCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Print the host platform and the resource path of each library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolve(cmd, *configPath)
			if err != nil {
				return err
			}

			osName, archName := nativeload.HostIdentifiers()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Host: %s %s\n", osName, archName)

			platform, err := nativeload.HostPlatform()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Platform: %s\n", platform)
			for _, name := range cfg.Loader.LibNames {
				fmt.Fprintf(out, "  %s -> %s\n", name, nativeload.ResourcePath(cfg.Loader.ResourceRoot, platform, name))
			}
			return nil
		},
	}
}

func newExtractCmd(configPath *string) *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "extract <resource-path>",
		Short: "Copy one packaged library to a temporary file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := resolve(cmd, *configPath)
			if err != nil {
				return err
			}
			fsys, err := resourcesFS(cfg.Resources)
			if err != nil {
				return err
			}

			path, err := nativeload.ExtractResource(fsys, args[0], cfg.Loader.TempDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)

			if !keep {
				if err := os.Remove(path); err != nil {
					logger.Warnf("Failed to remove %s: %v", path, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the extracted file instead of removing it on exit")
	return cmd
}

func newLoadCmd(configPath *string) *cobra.Command {
	var symbols []string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the configured libraries into this process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := resolve(cmd, *configPath)
			if err != nil {
				return err
			}

			// without a resource directory only the search path is tried
			var fsys fs.FS
			if cfg.Resources != "" {
				if fsys, err = resourcesFS(cfg.Resources); err != nil {
					return err
				}
			}

			loader := nativeload.New(cfg.Loader, fsys, logger)
			defer func() {
				if err := loader.Close(); err != nil {
					logger.Warnf("Cleanup failed: %v", err)
				}
			}()

			if err := loader.EnsureLoaded(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, lib := range loader.Loaded() {
				fmt.Fprintf(out, "%s: %s (%s)\n", lib.Name, lib.Path, lib.Strategy)
			}

			if len(symbols) > 0 && len(cfg.Loader.LibNames) > 0 {
				return checkSymbols(loader, cfg.Loader.LibNames, symbols)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&symbols, "symbol", nil, "Exported symbols that must resolve in one of the loaded libraries")
	return cmd
}

func checkSymbols(loader *nativeload.Loader, libs, symbols []string) error {
	for _, symbol := range symbols {
		var lastErr error
		found := false
		for _, lib := range libs {
			var fn func()
			if lastErr = loader.RegisterFunc(&fn, lib, symbol); lastErr == nil {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("symbol %s not found: %w", symbol, lastErr)
		}
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionInfo().String())
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/dhamidi/jedy/config"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("jedy.cli")

// globalOptions are the persistent flags and the configuration they select.
type globalOptions struct {
	configPath string
	verbose    int
	logFile    string

	config *config.Config
}

func main() {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "jedy",
		Short:         "A class-file loader and bytecode interpreter",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to jedy.toml (default: search upward from the working directory)")
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity (repeatable)")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newDisasmCmd())

	rootCmd.SetArgs(expandShortFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads the configuration and configures logging from it, letting
// flags take precedence.
func (o *globalOptions) setup() error {
	var err error
	if o.configPath != "" {
		o.config, err = config.Load(o.configPath)
	} else {
		o.config, err = config.FindAndLoad(".")
	}
	if err != nil {
		return err
	}

	verbosity := o.config.Log.Verbosity
	if o.verbose > 0 {
		verbosity = o.verbose
	}
	path := o.config.LogPath()
	if o.logFile != "" {
		path = o.logFile
	}
	if path == "" {
		commonlog.Configure(verbosity, nil)
	} else {
		commonlog.Configure(verbosity, &path)
	}

	if o.config.Dir != "" {
		log.Debugf("using %s from %s", config.FileName, o.config.Dir)
	}
	return nil
}

// expandShortFlags accepts the java launcher's -cp spelling of --classpath.
// Arguments after -- are left alone.
func expandShortFlags(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i, arg := range out {
		if arg == "--" {
			break
		}
		if arg == "-cp" {
			out[i] = "--classpath"
		}
	}
	return out
}

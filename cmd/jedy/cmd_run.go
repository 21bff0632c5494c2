package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/config"
	"github.com/dhamidi/jedy/format"
	"github.com/dhamidi/jedy/vm"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var (
		classPath   string
		javaHome    string
		libraryPath string
		printClass  bool
		maxDepth    int
	)

	cmd := &cobra.Command{
		Use:   "run <class> [args...]",
		Short: "Load a class and run its main method",
		Long: `Load a class from the class path and run its entry method.

The class may be given as app.Main or app/Main. The entry method defaults to
main([Ljava/lang/String;)V; jedy.toml can select another static method taking
no parameters or a String[]. Remaining arguments are passed to the program.

Class path elements are searched in order: --classpath, --library-path, then
the java.base module of --java-home.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *opts.config
			flags := cmd.Flags()
			if flags.Changed("classpath") {
				cfg.ClassPath = absPaths(vm.SplitClassPath(classPath))
			}
			if flags.Changed("library-path") {
				cfg.LibraryPath = absPaths(vm.SplitClassPath(libraryPath))
			}
			if flags.Changed("java-home") {
				cfg.JavaHome = absPaths([]string{javaHome})[0]
			}
			if flags.Changed("max-depth") {
				cfg.Runtime.MaxDepth = maxDepth
			}
			return runClass(&cfg, classfile.SourceToInternalName(args[0]), args[1:], printClass)
		},
	}

	cmd.Flags().StringVarP(&classPath, "classpath", "c", "", "class path (directories, jars, zips, jmods)")
	cmd.Flags().StringVar(&libraryPath, "library-path", "", "class path searched after --classpath")
	cmd.Flags().StringVar(&javaHome, "java-home", "", "JDK whose jmods/java.base.jmod supplies the platform classes")
	cmd.Flags().BoolVar(&printClass, "print-class", false, "print the parsed class before running it")
	cmd.Flags().IntVar(&maxDepth, "max-depth", vm.DefaultMaxDepth, "maximum frame-stack depth")
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func runClass(cfg *config.Config, className string, args []string, printClass bool) error {
	elements := cfg.ClassPathElements()
	if len(elements) == 0 {
		elements = []string{"."}
	}
	cp, err := vm.NewClassPath(elements...)
	if err != nil {
		return err
	}
	defer cp.Close()
	log.Debugf("class path: %s", cp)

	if printClass {
		cf, err := cp.LoadClass(className)
		if err != nil {
			return err
		}
		if err := format.NewLineEncoder(os.Stdout).Encode(cf); err != nil {
			return fmt.Errorf("print class: %w", err)
		}
	}

	rt := vm.New(cp, vm.WithMaxDepth(cfg.Runtime.MaxDepth))
	result, err := rt.RunEntry(className, cfg.Runtime.EntryMethod, cfg.Runtime.EntryDescriptor, args)
	if err != nil {
		return err
	}
	if result.HasValue() {
		fmt.Println(result)
	}
	return nil
}

func absPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out[i] = p
	}
	return out
}

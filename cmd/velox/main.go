// Command velox is the Velox language CLI: run, tokens, ast and repl
// subcommands over pkgs/parser and pkgs/interp.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veloxlang/velox/pkgs/ast"
	"github.com/veloxlang/velox/pkgs/interp"
	"github.com/veloxlang/velox/pkgs/parser"
	"github.com/veloxlang/velox/pkgs/source"
	"github.com/veloxlang/velox/pkgs/value"
)

// hookNames lists every name interp.registerHooks binds into the root
// scope, so --config's hooks allow-list has something concrete to filter
// against without interp exporting its own registration table.
var hookNames = []string{
	"sqrt", "sin", "cos", "tan", "atan", "floor", "ceil", "log",
	"toDegrees", "toRadians", "atan2", "pow", "real", "int", "sign",
	"random", "randomInt",
}

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "velox",
		Short:         "Run and inspect Velox scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "velox.yaml", "project config file")

	root.AddCommand(
		newRunCmd(&configPath),
		newTokensCmd(),
		newASTCmd(),
		newReplCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildInterpreter(configPath, originPath string) (*interp.Interpreter, error) {
	cfg, err := loadProjectConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", configPath, err)
	}
	importer := &fileImporter{searchPaths: cfg.ImportPaths}
	terp, err := interp.New(importer,
		func(s string) { fmt.Println(s) },
		func(s string) { fmt.Fprintln(os.Stderr, "warning:", s) },
	)
	if err != nil {
		return nil, err
	}
	terp.SetOriginPath(originPath)

	root := terp.RootScope()
	for _, name := range hookNames {
		if cfg.allows(name) {
			continue
		}
		name := name
		root.Rebind(name, value.NewHook(&value.HookImpl{
			Name: name,
			Invoke: func(s interface{}) (*value.Value, error) {
				return nil, fmt.Errorf("hook %q is not permitted by %s", name, configPath)
			},
		}))
	}
	return terp, nil
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run <script.vx>",
		Short: "Parse and execute a Velox script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			prog, err := parser.Parse(string(data))
			if err != nil {
				return err
			}
			terp, err := buildInterpreter(*configPath, args[0])
			if err != nil {
				return err
			}
			return terp.Run(prog)
		},
	}
}

func printTokens(toks []parser.ScannedToken) {
	for _, t := range toks {
		switch t.Kind {
		case parser.IDENT:
			fmt.Printf("%4d  %-20s %s\n", t.Line, t.Kind, t.Str)
		case parser.INTEGER:
			fmt.Printf("%4d  %-20s %d\n", t.Line, t.Kind, t.Int)
		case parser.REAL:
			fmt.Printf("%4d  %-20s %g\n", t.Line, t.Kind, t.Real)
		case parser.STRING:
			fmt.Printf("%4d  %-20s %q\n", t.Line, t.Kind, t.Str)
		default:
			fmt.Printf("%4d  %s\n", t.Line, t.Kind)
		}
	}
}

func newTokensCmd() *cobra.Command {
	var saveTo, replayFrom string
	cmd := &cobra.Command{
		Use:   "tokens [script.vx]",
		Short: "Print the Velox token stream for a script",
		Long: "Print the Velox token stream for a script. With --save the stream\n" +
			"is also serialized to a memento file; with --replay the stream is\n" +
			"read back from such a file instead of re-tokenizing a script.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if replayFrom != "" {
				data, err := os.ReadFile(replayFrom)
				if err != nil {
					return err
				}
				m, err := source.UnmarshalMemento(data)
				if err != nil {
					return err
				}
				var toks []parser.ScannedToken
				for _, t := range m.Tokens {
					toks = append(toks, parser.ScannedToken{
						Kind: parser.Kind(t.Kind), Str: t.Str, Int: t.Int,
						Real: t.Real, Line: t.Pos.Line,
					})
				}
				printTokens(toks)
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("a script argument is required unless --replay is given")
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if saveTo != "" {
				m, err := parser.RecordTokens(string(data))
				if err != nil {
					return err
				}
				encoded, err := m.Marshal()
				if err != nil {
					return err
				}
				if err := os.WriteFile(saveTo, encoded, 0o644); err != nil {
					return err
				}
			}
			toks, err := parser.Tokenize(string(data))
			printTokens(toks)
			return err
		},
	}
	cmd.Flags().StringVar(&saveTo, "save", "", "serialize the token stream to this memento file")
	cmd.Flags().StringVar(&replayFrom, "replay", "", "replay a token stream from a memento file")
	return cmd
}

func newASTCmd() *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "ast <script.vx>",
		Short: "Parse a script and print its AST",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			prog, err := parser.Parse(string(data))
			if err != nil {
				return err
			}
			if dump {
				fmt.Print(ast.Dump(prog))
				return nil
			}
			fmt.Printf("Program: %d top-level statements\n", prog.NumChildren())
			for i := 0; i < prog.NumChildren(); i++ {
				fmt.Printf("  [%d] %s\n", i, prog.Child(i).Kind)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "full spew.Sdump of the AST tree")
	return cmd
}

func newReplCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactively evaluate Velox statements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			terp, err := buildInterpreter(*configPath, "")
			if err != nil {
				return err
			}
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print("> ")
			for scanner.Scan() {
				line := scanner.Text()
				prog, err := parser.Parse(line)
				if err != nil {
					fmt.Fprintln(os.Stderr, "error:", err)
					fmt.Print("> ")
					continue
				}
				if err := terp.Run(prog); err != nil {
					fmt.Fprintln(os.Stderr, "error:", err)
				}
				fmt.Print("> ")
			}
			fmt.Println()
			return scanner.Err()
		},
	}
}

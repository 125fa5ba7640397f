package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/loxspec/packages/core/config"
	"github.com/spf13/cobra"
)

var (
	forceInit       bool
	initInterpreter string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a loxspec project",
	Long: `Initialize loxspec in the current directory.

This creates:
  - .loxspec.yaml                   - Configuration file
  - test/integration/example.lox    - Example test file

Examples:
  loxspec init
  loxspec init --interpreter ./build/clox
  loxspec init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
	initCmd.Flags().StringVarP(&initInterpreter, "interpreter", "i", config.DefaultInterpreter, "Interpreter binary to configure")
}

// exampleTest must not mention the markers anywhere but in its
// annotations, or they would be picked up as expectations
const exampleTest = `// Every annotation below is one line the program must print.
print "hello"; // expect: hello
print 1 + 2;   // expect: 3

var greeting = "hi";
{
  var greeting = "shadowed";
  print greeting; // expect: shadowed
}
print greeting; // expect: hi
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	exampleFile := filepath.Join(cwd, filepath.FromSlash(config.DefaultTestDir), "example.lox")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Interpreter = initInterpreter
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.MkdirAll(filepath.Dir(exampleFile), 0755); err != nil {
		return fmt.Errorf("failed to create test directory: %w", err)
	}
	if err := os.WriteFile(exampleFile, []byte(exampleTest), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nloxspec project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Build %s, then run 'loxspec run' to execute the tests.\n", cfg.Interpreter)

	return nil
}

package cmd

import "github.com/spf13/cobra"

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for loxspec.

To load completions:

Bash:
  $ source <(loxspec completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ loxspec completion bash > /etc/bash_completion.d/loxspec
  # macOS:
  $ loxspec completion bash > $(brew --prefix)/etc/bash_completion.d/loxspec

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ loxspec completion zsh > "${fpath[1]}/_loxspec"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ loxspec completion fish | source

  # To load completions for each session, execute once:
  $ loxspec completion fish > ~/.config/fish/completions/loxspec.fish

PowerShell:
  PS> loxspec completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> loxspec completion powershell > loxspec.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

package main

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a shell completion script for dayzlog. The script completes
the tail, stats and kinds subcommands and their flags.

Load it in the current shell:

  bash:       source <(dayzlog completion bash)
  zsh:        dayzlog completion zsh > "${fpath[1]}/_dayzlog"
  fish:       dayzlog completion fish | source
  powershell: dayzlog completion powershell | Out-String | Invoke-Expression

To install permanently, write the script to your shell's completion
directory, e.g. /etc/bash_completion.d/dayzlog or
~/.config/fish/completions/dayzlog.fish.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cmd.Root()
		out := cmd.OutOrStdout()

		switch args[0] {
		case "bash":
			return root.GenBashCompletionV2(out, true)
		case "zsh":
			return root.GenZshCompletion(out)
		case "fish":
			return root.GenFishCompletion(out, true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

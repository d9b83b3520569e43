package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/a-marczewski/upcheck/internal/app"
	"github.com/a-marczewski/upcheck/internal/notify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const upcheckVersion = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "upcheck",
	Short: "upcheck - non-blocking update availability checks",
	Long: `upcheck fetches a remote version descriptor in the background, compares it
segment-wise against the locally known version, and reports whether a newer
release exists without ever blocking the caller on network I/O.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config.toml")
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)

	historyCmd.Flags().Int("limit", 20, "maximum number of checks to list")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one update check in the foreground and print the verdict",
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		defer a.Close()

		a.Checker.Start()
		<-a.Checker.Done()

		if a.Checker.IsUpdateAvailable() {
			remote, _ := a.Checker.RemoteVersion()
			fmt.Printf("Update available: v%s. Download at %s\n", remote, a.Config.DownloadURL)
			return
		}
		if remote, ok := a.Checker.RemoteVersion(); ok {
			fmt.Printf("No update available (local v%s, remote v%s).\n", a.Config.LocalVersion, remote)
		} else {
			fmt.Println("No update available.")
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run [command]",
	Short: "Run a command while checking for updates in the background",
	Long: `Runs the given command with stdio passed through. The update check happens
concurrently; when the command exits, an update notice is printed if one
became available in the meantime.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		defer a.Close()

		a.Checker.Start()

		child := exec.Command(args[0], args[1:]...)
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr
		child.Stdin = os.Stdin
		if err := child.Run(); err != nil {
			a.Logger.Error("Command failed", zap.Error(err))
		}

		notifier := notify.New(a.Checker, notify.Config{
			AppName:     a.Config.AppName,
			Header:      a.Config.MessageHeader,
			Permission:  a.Config.Permission,
			DownloadURL: a.Config.DownloadURL,
		}, func(recipient, message string) {
			fmt.Println(message)
		})
		notifier.OnSessionStart(a.ContextWithLogger(cmd.Context()), consoleSession{})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent update checks",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		a := mustApp()
		defer a.Close()

		records, err := a.History.Recent(limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
			os.Exit(1)
		}
		if len(records) == 0 {
			fmt.Println("No checks recorded yet.")
			return
		}
		fmt.Printf("%-22s %-10s %-10s %-10s %s\n", "CHECKED AT", "LOCAL", "REMOTE", "UPDATE", "ERROR")
		for _, rec := range records {
			remote := rec.RemoteVersion
			if remote == "" {
				remote = "-"
			}
			fmt.Printf("%-22s %-10s %-10s %-10t %s\n",
				rec.CheckedAt.Local().Format("2006-01-02 15:04:05"),
				rec.LocalVersion, remote, rec.UpdateAvailable, rec.Error)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("upcheck v%s\n", upcheckVersion)
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate the autocompletion script for the specified shell",
	Long: `Generate the autocompletion script for upcheck for the specified shell.
See each command's help for details on how to use the generated script.
	`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		switch args[0] {
		case "bash":
			err = cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			err = cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			err = cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			err = cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating completion script: %v\n", err)
			os.Exit(1)
		}
	},
}

// consoleSession is the terminal user running the CLI; it holds every
// notification permission.
type consoleSession struct{}

func (consoleSession) Name() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "console"
}

func (consoleSession) HasPermission(string) bool { return true }

func mustApp() *app.App {
	a, err := app.NewApp(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return a
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

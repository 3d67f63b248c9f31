package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (can be set at build time)
var (
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lazymvn",
	Short: "Build and launch Maven modules with remembered profiles and flags",
	Long: `lazymvn builds and launches the modules of a Maven project.
It remembers the profiles and flags toggled per module, picks how to
start an application (spring-boot:run or exec:java), and supervises the
processes it spawns.

Usage:
  lazymvn init              Write a default .lazymvn.yaml
  lazymvn run [goals...]    Build a module
  lazymvn start             Launch a module's application
  lazymvn detect            Show how a module would be launched
  lazymvn profiles          List or toggle profiles and flags
  lazymvn doctor            Check the JDK, Maven and project setup`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("dir", "C", "", "Project directory (defaults to the current directory)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug diagnostics")
	rootCmd.PersistentFlags().String("log-file", "", "Write diagnostics to this file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(doctorCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	var exit *exitError
	switch {
	case errors.As(err, &exit):
		os.Exit(exit.code)
	case err != nil:
		fmt.Fprintln(os.Stderr, "lazymvn:", err)
		os.Exit(1)
	}
}

// exitError carries the exit status of a Maven process out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

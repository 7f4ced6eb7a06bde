package arg

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/StudyTimer/internal/format"
	"github.com/SoarinFerret/StudyTimer/internal/tracker"
)

var watchStatus bool

var startCmd = &cobra.Command{
	Use:     "start",
	Aliases: []string{"resume"},
	Short:   "Start studying, or resume after a break",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client := dial(loadConfig())
		defer client.Close()

		st, err := client.Start()
		if err != nil {
			fail("start", err)
		}
		printStatus(os.Stdout, st)
	},
}

var pauseCmd = &cobra.Command{
	Use:     "pause",
	Aliases: []string{"p"},
	Short:   "Take a break",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client := dial(loadConfig())
		defer client.Close()

		st, err := client.Pause()
		if err != nil {
			fail("pause", err)
		}
		printStatus(os.Stdout, st)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the running session without saving it",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client := dial(loadConfig())
		defer client.Close()

		if _, err := client.Reset(); err != nil {
			fail("reset", err)
		}
		fmt.Println("Timer reset")
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running session",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client := dial(loadConfig())
		defer client.Close()

		st, err := client.Status()
		if err != nil {
			fail("get status", err)
		}
		printStatus(os.Stdout, st)

		if !watchStatus {
			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		updates, err := client.Watch(ctx)
		if err != nil {
			fail("watch status", err)
		}
		for st := range updates {
			fmt.Println()
			printStatus(os.Stdout, st)
		}
	},
}

func printStatus(w io.Writer, st tracker.Status) {
	fmt.Fprintf(w, "Mode:   %s\n", st.Mode)
	fmt.Fprintf(w, "Study:  %s\n", format.Clock(st.Study))
	fmt.Fprintf(w, "Rest:   %s\n", format.Clock(st.Rest))
	if !st.SessionStart.IsZero() {
		at := st.At
		if at.IsZero() {
			at = time.Now()
		}
		fmt.Fprintf(w, "Since:  %s (%s)\n", st.SessionStart.Local().Format("15:04:05"), format.Ago(st.SessionStart, at))
	}
}

func init() {
	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "keep printing updates while a session runs")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statusCmd)
}

package arg

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/StudyTimer/internal/format"
	"github.com/SoarinFerret/StudyTimer/internal/timer"
	"github.com/SoarinFerret/StudyTimer/internal/tui"
)

var (
	topic       string
	output      string
	local       bool
	skipConfirm bool
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the running session to the history and reset the timer",
	Long: `Save finalizes the running session, appends it to the history and resets
the timer. If the history cannot be written the session keeps running so it
can be saved again.
Examples:
  studyctl save
  studyctl save --topic "Linear algebra"`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client := dial(loadConfig())
		defer client.Close()

		rec, err := client.Save(topic)
		if errors.Is(err, timer.ErrNoSession) {
			log.Fatal("Nothing to save: start a session first")
		}
		if err != nil {
			fail("save session", err)
		}

		fmt.Printf("Saved session %s (%s): studied %s, rested %s\n",
			rec.ID, rec.Topic, format.Clock(rec.StudyDuration), format.Clock(rec.RestDuration))
	},
}

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"ls"},
	Short:   "List saved sessions, oldest first",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		backend, closer := openBackend(loadConfig(), local)
		defer closer.Close()

		records, err := backend.History()
		if err != nil {
			fail("list history", err)
		}
		if err := format.Write(os.Stdout, output, records, time.Now()); err != nil {
			log.Fatal(err)
		}
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved session",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]

		backend, closer := openBackend(loadConfig(), local)
		defer closer.Close()

		if !skipConfirm && !confirm(fmt.Sprintf("Delete session %s?", id)) {
			fmt.Println("Cancelled")
			return
		}

		if err := backend.Delete(id); err != nil {
			fail("delete session", err)
		}
		fmt.Printf("Deleted session %s\n", id)
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive timer",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		backend, closer := openBackend(cfg, local)
		defer closer.Close()

		if err := tui.Run(backend, cfg.Timer.RefreshInterval.Std(), cfg.Timer.DefaultTopic); err != nil {
			log.Fatal(err)
		}
	},
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func init() {
	saveCmd.Flags().StringVarP(&topic, "topic", "t", "", "what you studied (default from config)")

	historyCmd.Flags().StringVarP(&output, "output", "o", format.OutputTable, "output format: table, json or yaml")
	historyCmd.Flags().BoolVar(&local, "local", false, "read the history store directly instead of asking the daemon")

	deleteCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "do not ask for confirmation")
	deleteCmd.Flags().BoolVar(&local, "local", false, "edit the history store directly instead of asking the daemon")

	tuiCmd.Flags().BoolVar(&local, "local", false, "run the timer in this process instead of the daemon")

	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(tuiCmd)
}

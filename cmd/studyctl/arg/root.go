package arg

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/SoarinFerret/StudyTimer/internal/config"
	"github.com/SoarinFerret/StudyTimer/internal/history"
	"github.com/SoarinFerret/StudyTimer/internal/ipc"
	"github.com/SoarinFerret/StudyTimer/internal/kv"
	"github.com/SoarinFerret/StudyTimer/internal/tracker"
	"github.com/SoarinFerret/StudyTimer/internal/tui"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "studyctl",
	Short: "studyctl is the command line tool for StudyTimer",
	Long: `studyctl talks to the StudyTimer daemon over D-Bus.
Use it to start, pause and save study sessions and to browse or edit the
saved history. Commands given --local read the history store directly.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := loadDotEnv(".env"); err != nil {
			log.Println("Failed to load .env:", err)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(0)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file (default $STUDYTIMER_CONFIG or the user config dir)")
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func loadConfig() *config.Config {
	path := configPath
	if path == "" {
		path = os.Getenv("STUDYTIMER_CONFIG")
	}
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	return cfg
}

func dial(cfg *config.Config) *ipc.Client {
	client, err := ipc.Dial(cfg.DBus.Bus)
	if err != nil {
		log.Fatal(err)
	}
	return client
}

// openBackend returns the daemon client, or a tracker over the history store
// when local is set. The returned closer releases either.
func openBackend(cfg *config.Config, local bool) (tui.Backend, io.Closer) {
	if !local {
		client := dial(cfg)
		return client, client
	}

	store, err := kv.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		log.Fatal("Failed to open storage: ", err)
	}
	tr := tracker.New(
		history.NewStore(store, cfg.Storage.Key),
		tracker.WithDefaultTopic(cfg.Timer.DefaultTopic),
	)
	return tui.Local(tr), store
}

// fail prints err in terms a user can act on and exits.
func fail(action string, err error) {
	switch {
	case errors.Is(err, history.ErrStorageUnavailable):
		log.Fatalf("Failed to %s: history storage unavailable: %v", action, err)
	default:
		log.Fatalf("Failed to %s: %v", action, err)
	}
}

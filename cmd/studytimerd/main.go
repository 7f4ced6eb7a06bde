package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"os/user"
	"sync"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/joho/godotenv"

	"github.com/SoarinFerret/StudyTimer/internal/config"
	"github.com/SoarinFerret/StudyTimer/internal/history"
	"github.com/SoarinFerret/StudyTimer/internal/ipc"
	"github.com/SoarinFerret/StudyTimer/internal/kv"
	"github.com/SoarinFerret/StudyTimer/internal/loginctl"
	"github.com/SoarinFerret/StudyTimer/internal/notify"
	"github.com/SoarinFerret/StudyTimer/internal/tracker"
)

func main() {
	if err := loadDotEnv(".env"); err != nil {
		log.Println("Failed to load .env:", err)
	}

	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	// check for argument to determine config location
	argPath := *configPath
	if argPath == "" {
		argPath = os.Getenv("STUDYTIMER_CONFIG")
	}
	if argPath == "" {
		argPath = config.DefaultPath()
	}
	log.Println("Using config file at:", argPath)

	cfg, err := config.LoadConfigFromFile(argPath)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	store, err := kv.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		log.Fatal("Failed to open storage: ", err)
	}
	defer store.Close()
	log.Printf("Storing history in %s (%s)", cfg.Storage.Path, cfg.Storage.Backend)

	tr := tracker.New(
		history.NewStore(store, cfg.Storage.Key),
		tracker.WithDefaultTopic(cfg.Timer.DefaultTopic),
	)

	conn, err := connect(cfg.DBus.Bus)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	svc := ipc.NewService(ctx, tr, conn, ipc.ServiceConfig{
		Refresh:       cfg.Timer.RefreshInterval.Std(),
		StudyReminder: cfg.Timer.StudyReminder.Std(),
		Notifier:      notify.New(conn),
	})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Serving %s on the %s bus", ipc.ServiceName, cfg.DBus.Bus)
		if err := ipc.Serve(ctx, conn, svc); err != nil {
			log.Println("studytimer service error:", err)
			cancel()
		}
	}()

	if cfg.AutoPauseEnabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watchLogind(ctx, tr); err != nil {
				log.Println("logind watcher error:", err)
			}
		}()
	}

	wg.Wait()
	fmt.Println("Shutdown complete")
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func connect(bus string) (*dbus.Conn, error) {
	if bus == "system" {
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to system bus: %w", err)
		}
		return conn, nil
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return conn, nil
}

// watchLogind pauses the timer when the machine sleeps or the user's session
// locks.
func watchLogind(ctx context.Context, tr *tracker.Tracker) error {
	u, err := user.Current()
	if err != nil {
		return fmt.Errorf("failed to look up current user: %w", err)
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	log.Println("Monitoring logind for sleep and lock events...")
	return loginctl.Watch(ctx, conn, u.Username, func(reason string) {
		st := tr.Pause()
		log.Printf("Paused because %s, now %s", reason, st.Mode)
	})
}

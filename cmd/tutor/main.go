package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/voxscholar/voxscholar/internal/library"
	"github.com/voxscholar/voxscholar/internal/logger"
	"github.com/voxscholar/voxscholar/internal/questions"
	"github.com/voxscholar/voxscholar/internal/session"
	"github.com/voxscholar/voxscholar/internal/store"
	"github.com/voxscholar/voxscholar/internal/tui"
	"github.com/voxscholar/voxscholar/internal/voice"
)

var (
	serverURL     string
	dbPath        string
	token         string
	voiceName     string
	startSubject  string
	thinkSeconds  int
	answerSeconds int
	noVoice       bool
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tutor",
		Short: "Practice oral exams from your terminal",
		Long: `tutor runs timed think/answer/feedback practice sessions against the
Vox Scholar server, or fully offline against a local database when the
server is unreachable.`,
		RunE:         runTutor,
		SilenceUsage: true,
	}

	defaultDB := "voxscholar.db"
	if home, err := os.UserHomeDir(); err == nil {
		defaultDB = filepath.Join(home, ".voxscholar", "voxscholar.db")
	}

	rootCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Vox Scholar server URL")
	rootCmd.Flags().StringVar(&dbPath, "db", defaultDB, "Local database file used when the server is unreachable")
	rootCmd.Flags().StringVar(&token, "token", os.Getenv("VOXSCHOLAR_TOKEN"), "API token for a personal account (optional)")
	rootCmd.Flags().StringVar(&voiceName, "voice", "", "Server TTS voice override")
	rootCmd.Flags().StringVar(&startSubject, "subject", "", "Start practicing this subject immediately")
	rootCmd.Flags().IntVar(&thinkSeconds, "think", session.DefaultThinkSeconds, "Thinking time per question in seconds")
	rootCmd.Flags().IntVar(&answerSeconds, "answer", session.DefaultAnswerSeconds, "Answer time per question in seconds")
	rootCmd.Flags().BoolVar(&noVoice, "no-voice", false, "Disable speech output and capture")

	return rootCmd
}

func runTutor(cmd *cobra.Command, args []string) error {
	log := logger.Setup(getEnv("LOG_LEVEL", "warn"), getEnv("LOG_FORMAT", "console"))

	client := store.NewClient(serverURL)
	if token != "" {
		client.SetToken(token)
	}

	ctx := context.Background()
	st, err := store.Select(ctx, client, dbPath, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	var items library.ItemStore
	var generated questions.Source
	var tts voice.TTSClient

	if local, ok := st.(*store.LocalStore); ok {
		log.Info().Str("db", dbPath).Msg("Server unreachable, practicing offline")
		items, err = library.NewLocalItems(local.DB())
		if err != nil {
			return fmt.Errorf("open local library: %w", err)
		}
	} else {
		items = library.NewRemoteItems(client)
		generated = questions.NewGeneratedSource(items, client, log)
		tts = client
	}

	var speaker *voice.Speaker
	var recognizer voice.Recognizer = voice.Unsupported{}
	if !noVoice {
		speaker = voice.NewSpeaker(tts, voiceName, nil, "", log)
		if cmdline := os.Getenv("VOXSCHOLAR_STT_COMMAND"); cmdline != "" {
			recognizer = voice.NewCommandRecognizer([]string{"sh", "-c", cmdline})
		}
	}

	m := tui.NewModel(tui.Deps{
		Store:        st,
		Items:        items,
		Bank:         questions.NewStaticBank(),
		Generated:    generated,
		Speaker:      speaker,
		Recognizer:   recognizer,
		Timers:       session.Config{ThinkSeconds: thinkSeconds, AnswerSeconds: answerSeconds},
		Log:          log,
		StartSubject: startSubject,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

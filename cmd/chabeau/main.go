package main

import (
	"fmt"
	"os"

	// earlyinit must be listed before bubbletea so its init() runs first and
	// pre-sets lipgloss.SetHasDarkBackground, preventing bubbletea's init()
	// from sending an OSC 11 terminal colour query that leaks into stdin.
	_ "github.com/permacommons/chabeau/internal/earlyinit"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/permacommons/chabeau/internal/auth"
	"github.com/permacommons/chabeau/internal/config"
	"github.com/permacommons/chabeau/internal/tui"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	var (
		flagProvider  string
		flagModel     string
		flagLog       string
		flagEnv       bool
		flagPersona   string
		flagPreset    string
		flagCharacter string
	)

	rootCmd := &cobra.Command{
		Use:   "chabeau",
		Short: "Chabeau — a full-screen terminal chat client",
		Long: `Chabeau is a full-screen terminal chat client for OpenAI-compatible
streaming chat APIs: streaming responses, Markdown rendering, syntax
highlighting, retry and edit-history, themes, and provider/model pickers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(chatOptions{
				provider:  flagProvider,
				model:     flagModel,
				logPath:   flagLog,
				forceEnv:  flagEnv,
				persona:   flagPersona,
				preset:    flagPreset,
				character: flagCharacter,
			})
		},
	}

	rootCmd.Flags().StringVarP(&flagProvider, "provider", "p", "", "provider id (openai, openrouter, groq, ...)")
	rootCmd.Flags().StringVarP(&flagModel, "model", "m", "", "model to use")
	rootCmd.Flags().StringVar(&flagLog, "log", "", "log the conversation to PATH")
	rootCmd.Flags().BoolVar(&flagEnv, "env", false, "authenticate from OPENAI_API_KEY / OPENAI_BASE_URL only")
	rootCmd.Flags().StringVar(&flagPersona, "persona", "", "persona id")
	rootCmd.Flags().StringVar(&flagPreset, "preset", "", "preset id")
	rootCmd.Flags().StringVarP(&flagCharacter, "character", "c", "", "character name")

	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type chatOptions struct {
	provider  string
	model     string
	logPath   string
	forceEnv  bool
	persona   string
	preset    string
	character string
}

func runChat(opts chatOptions) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("chabeau needs an interactive terminal")
	}

	applyColorProfile()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	creds, err := auth.Resolve(cfg, auth.Options{
		Provider: opts.provider,
		ForceEnv: opts.forceEnv,
	})
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	model, err := tui.New(tui.Options{
		Config:    cfg,
		Creds:     creds,
		Model:     opts.model,
		LogPath:   opts.logPath,
		PersonaID: opts.persona,
		PresetID:  opts.preset,
		Character: opts.character,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

// applyColorProfile honors CHABEAU_COLOR, falling back to termenv's
// COLORTERM/TERM detection.
func applyColorProfile() {
	switch os.Getenv(config.EnvColor) {
	case "truecolor":
		lipgloss.SetColorProfile(termenv.TrueColor)
	case "256":
		lipgloss.SetColorProfile(termenv.ANSI256)
	case "16":
		lipgloss.SetColorProfile(termenv.ANSI)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("chabeau %s (%s)\n", version, commit)
		},
	}
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/linanwx/papo/config"
	"github.com/linanwx/papo/identity"
	"github.com/linanwx/papo/responder"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Set your name, email and responder",
	Long:  `Create or update the stored identity and choose how replies are produced.`,
	RunE:  runOnboard,
}

func init() {
	rootCmd.AddCommand(onboardCmd)
}

// strategyNotes describes each strategy in the picker.
var strategyNotes = map[string]string{
	"simulated": "canned replies, works offline",
	"gemini":    "Google Gemini (https://aistudio.google.com/apikey)",
	"openai":    "OpenAI or any compatible endpoint (https://platform.openai.com/api-keys)",
	"anthropic": "Anthropic Claude (https://console.anthropic.com)",
}

func runOnboard(_ *cobra.Command, _ []string) error {
	store, err := identityStore()
	if err != nil {
		return err
	}
	current, _ := store.Load()

	id, err := askIdentity(current)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	strategy := cfg.Responder.Strategy
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Who should reply?").
				Options(buildStrategyOptions()...).
				Value(&strategy),
		),
	).Run()
	if err != nil {
		return err
	}

	reg, _ := responder.Lookup(strategy)
	if reg.Remote {
		var apiKey string
		if p := cfg.Provider(strategy); p != nil {
			apiKey = p.APIKey
		}
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Enter your "+strategy+" API key").
					Description("Leave empty to read "+strings.Join(reg.EnvKeys, " or ")+" from the environment.").
					EchoMode(huh.EchoModePassword).
					Value(&apiKey),
			),
		).Run()
		if err != nil {
			return err
		}
		p := &config.ProviderConfig{APIKey: strings.TrimSpace(apiKey)}
		if old := cfg.Provider(strategy); old != nil {
			p.APIBase = old.APIBase
		}
		cfg.SetProvider(strategy, p)
	}
	if strategy != cfg.Responder.Strategy {
		cfg.Responder.Model = ""
	}
	cfg.Responder.Strategy = strategy

	if err := store.Save(id); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath, _ := config.ConfigPath()
	fmt.Println()
	fmt.Printf("All set, %s! 🎉\n", id.FirstName())
	fmt.Println()
	fmt.Println("  Identity:", store.Path())
	fmt.Println("  Config:", configPath)
	fmt.Println("  Responder:", strategy)
	fmt.Println()
	fmt.Println("Run 'papo' to start chatting.")
	return nil
}

// askIdentity prompts for name and email, prefilled from current.
func askIdentity(current identity.Identity) (identity.Identity, error) {
	id := current
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(identity.Greeting(timeNow()) + "! Let's get started.").
				Description("Tell me who you are. This stays on your machine."),
			huh.NewInput().
				Title("What's your name?").
				Validate(identity.ValidateName).
				Value(&id.Name),
			huh.NewInput().
				Title("And your email?").
				Validate(identity.ValidateEmail).
				Value(&id.Email),
		),
	).Run()
	if err != nil {
		return identity.Identity{}, err
	}
	return id.Normalize(), nil
}

func buildStrategyOptions() []huh.Option[string] {
	names := responder.Strategies()
	// Put simulated first.
	sorted := make([]string, 0, len(names))
	for _, n := range names {
		if n == "simulated" {
			sorted = append([]string{n}, sorted...)
		} else {
			sorted = append(sorted, n)
		}
	}
	options := make([]huh.Option[string], 0, len(sorted))
	for _, name := range sorted {
		label := name
		if note := strategyNotes[name]; note != "" {
			label += " (" + note + ")"
		}
		options = append(options, huh.NewOption(label, name))
	}
	return options
}

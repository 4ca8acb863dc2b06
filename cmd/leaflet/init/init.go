// Package initcmder provides the init command for initializing a local
// .leaflet directory in the current working directory.
package initcmder

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/leaflet/pkg/cliui"
	"github.com/papercomputeco/leaflet/pkg/config"
	"github.com/papercomputeco/leaflet/pkg/credentials"
)

const (
	dirName = ".leaflet"
)

const initLongDesc string = `Initialize a new .leaflet/ directory in the current working directory.

Creates a local .leaflet/ directory that takes precedence over the default
~/.leaflet/ directory for the active session, configuration, and other
leaflet operations. This is useful for maintaining separate document
sessions per project or directory.

With --preset, also writes a config.toml seeded for the named LLM
provider (ollama, openai, google). Presets that need an API key prompt
for it; the key can also be piped on stdin.

Examples:
  leaflet init
  leaflet init --preset ollama
  leaflet init --preset openai
  echo "$OPENAI_API_KEY" | leaflet init --preset openai`

const initShortDesc string = "Initialize a local .leaflet/ directory"

type initCommander struct {
	preset string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.preset, "preset", "p", "",
		fmt.Sprintf("Seed config for a provider preset (%s)", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func (c *initCommander) run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .leaflet directory: %w", err)
		}
		fmt.Printf("Initialized .leaflet directory: %s\n", dir)
	}

	if c.preset == "" {
		return nil
	}

	return c.writePreset(dir)
}

func (c *initCommander) writePreset(dir string) error {
	cfg, err := config.PresetConfig(c.preset)
	if err != nil {
		return err
	}

	// Hosted providers need a key; local ollama does not. Keys go to
	// credentials.toml, not config.toml.
	if credentials.IsSupportedProvider(cfg.LLM.Provider) {
		key, err := readAPIKey(cfg.LLM.Provider)
		if err != nil {
			return err
		}

		mgr, err := credentials.NewManager(dir)
		if err != nil {
			return fmt.Errorf("loading credentials: %w", err)
		}
		if err := mgr.SetKey(cfg.LLM.Provider, key); err != nil {
			return err
		}
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("  %s Wrote config for preset %s\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(c.preset),
	)
	return nil
}

// readAPIKey reads an API key from stdin. If stdin is a pipe, it reads the
// first line. Otherwise, it prompts interactively with hidden input.
func readAPIKey(provider string) (string, error) {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("checking stdin: %w", err)
	}

	// Piped input
	if (fi.Mode() & os.ModeCharDevice) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			return strings.TrimSpace(scanner.Text()), nil
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return "", errors.New("no input received on stdin")
	}

	// Interactive terminal
	fmt.Printf("Enter API key for %s: ", provider)

	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("reading API key: %w", err)
	}

	return string(keyBytes), nil
}

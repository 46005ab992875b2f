package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/guiyumin/sharetext/internal/core/config"
	"github.com/guiyumin/sharetext/internal/core/crypto"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sharetext configuration",
	Long:  "View and modify sharetext settings, including speech-to-text and summarization credentials",
}

// sharetext config show
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadForEdit()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Current configuration:")
		for _, key := range config.Keys {
			value, err := c.Get(key)
			if err != nil {
				return err
			}
			if config.IsSecret(key) {
				value = maskSecret(value)
			}
			fmt.Fprintf(w, "  %-24s %s\n", key, value)
		}
		fmt.Fprintf(w, "\n  %-24s %s\n", "file", config.SavePath())
		return nil
	},
}

// sharetext config path
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.SavePath())
	},
}

// sharetext config get KEY
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadForEdit()
		if err != nil {
			return err
		}
		value, err := c.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

// sharetext config set KEY [VALUE]
var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value in config.yml.

Supported keys:
  ` + strings.Join(config.Keys, "\n  ") + `

API keys may be left out of the command line; you will be prompted for them.
With --encrypt the key is stored sealed behind a 4 to 8 digit PIN, which is
later supplied with --pin or SHARETEXT_PIN.

Examples:
  sharetext config set language en
  sharetext config set transcription.api_key
  sharetext config set transcription.api_key --encrypt
  sharetext config set summarization.provider qwen`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			v, err := promptValue(key)
			if err != nil {
				return err
			}
			value = v
		}

		if configEncrypt {
			if !config.IsSecret(key) {
				return fmt.Errorf("--encrypt only applies to API keys")
			}
			sealed, err := sealValue(value)
			if err != nil {
				return err
			}
			value = sealed
		}

		c, err := loadForEdit()
		if err != nil {
			return err
		}
		if err := c.Set(key, value); err != nil {
			return err
		}
		if err := config.Save(c); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		shown := value
		if config.IsSecret(key) {
			shown = maskSecret(value)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, shown)
		return nil
	},
}

// loadForEdit reads the file as it is on disk, ignoring command line overrides.
// A broken file is reported instead of being replaced by defaults.
func loadForEdit() (*config.Config, error) {
	if !config.Exists() {
		return config.DefaultConfig(), nil
	}
	return config.Load()
}

// promptValue reads a value from the terminal; secrets are not echoed
func promptValue(key string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", key)

	if config.IsSecret(key) && term.IsTerminal(int(syscall.Stdin)) {
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", key, err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return strings.TrimSpace(line), nil
}

// sealValue asks for a new PIN twice and encrypts value with it
func sealValue(value string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("--encrypt needs a terminal to read the PIN")
	}

	read := func(prompt string) (string, error) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(string(b)), err
	}

	pin, err := read("PIN (4-8 digits): ")
	if err != nil {
		return "", err
	}
	if err := crypto.ValidatePIN(pin); err != nil {
		return "", err
	}
	confirm, err := read("Repeat PIN: ")
	if err != nil {
		return "", err
	}
	if confirm != pin {
		return "", fmt.Errorf("PINs do not match")
	}
	return crypto.Seal(value, pin)
}

func maskSecret(s string) string {
	switch {
	case crypto.IsSealed(s):
		return "(encrypted)"
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-4:]
	}
}

var configEncrypt bool

func init() {
	configSetCmd.Flags().BoolVar(&configEncrypt, "encrypt", false, "store the API key encrypted behind a PIN")
	configCmd.AddCommand(configShowCmd, configPathCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

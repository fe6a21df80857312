package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
	Long: `Read and write config.toml. A running serve picks up privilege changes
immediately; pricing changes need a restart.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := loadConfig()
		if err != nil {
			return err
		}
		cmd.Println(svc.Config.Path())
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one key, or every key",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>...",
	Short: "Set a key",
	Long: `Set a key. Integers and booleans are stored as such. Several values, or
--list, store a list:

  tollgate config set pricing.day 80
  tollgate config set operators.privileged alice bob`,
	Args: cobra.MinimumNArgs(2),
	RunE: runConfigSet,
}

func init() {
	configSetCmd.Flags().Bool("list", false, "store a single value as a list")
	configCmd.AddCommand(configPathCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() (*Services, error) {
	svc, err := loadServices(false)
	if err != nil {
		return nil, err
	}
	if svc.Config == nil {
		return nil, errors.New("configuration not available")
	}
	return svc, nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	svc, err := loadConfig()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		val, ok := svc.Config.Get(args[0])
		if !ok {
			return fmt.Errorf("%s is not set", args[0])
		}
		cmd.Println(formatConfigValue(val))
		return nil
	}

	keys := svc.Config.Keys()
	if len(keys) == 0 {
		cmd.Printf("%s has no settings.\n", svc.Config.Path())
		return nil
	}
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		val, _ := svc.Config.Get(k)
		rows = append(rows, []string{k, formatConfigValue(val)})
	}
	cmd.Println(renderTable([]string{"Key", "Value"}, rows, nil))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return fmt.Errorf("getting list flag: %w", err)
	}

	svc, err := loadConfig()
	if err != nil {
		return err
	}

	key, values := args[0], args[1:]
	var val any
	if list || len(values) > 1 {
		val = values
	} else {
		val = parseConfigValue(values[0])
	}

	if err := svc.Config.Set(key, val); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	cmd.Printf("%s = %s\n", key, formatConfigValue(val))
	return nil
}

// parseConfigValue keeps TOML types intact so typed getters still work.
func parseConfigValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func formatConfigValue(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprint(v)
	}
}

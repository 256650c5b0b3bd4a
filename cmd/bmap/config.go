package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "BMAP"

// loadConfig fills every flag the user didn't set from BMAP_* environment
// variables or, when configFile is given, from that file. Flags of nested
// commands may also be set under the command's name, e.g. "sort.by".
// Returns the config file that was read, if any.
func loadConfig(cmd *cobra.Command, configFile string) (string, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("config %s: %w", configFile, err)
		}
	}

	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}
		key := f.Name
		if scoped := cmd.Name() + "." + f.Name; v.IsSet(scoped) {
			key = scoped
		} else if !v.IsSet(key) {
			return
		}
		if f.Value.Type() == "stringArray" {
			for _, s := range v.GetStringSlice(key) {
				if err = f.Value.Set(s); err != nil {
					return
				}
			}
			return
		}
		if err = cmd.Flags().Set(f.Name, v.GetString(key)); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
		}
	})
	if err != nil {
		return "", err
	}
	return v.ConfigFileUsed(), nil
}

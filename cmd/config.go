package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Configuration keys understood by fscryptctl.
const (
	// configKeyHardwareCapable assumes the inspected records come from a
	// hardware-inline-encryption-capable filesystem. Affects how the
	// hardware-private content mode is interpreted.
	configKeyHardwareCapable = "hardware_capable"

	// configKeyOutputFormat is the default output format when the --output
	// flag is not given.
	configKeyOutputFormat = "output_format"
)

// initConfig loads optional configuration from fscryptctl-config.yaml.
func initConfig() {
	viper.SetConfigName("fscryptctl-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault(configKeyHardwareCapable, true)
	viper.SetDefault(configKeyOutputFormat, "table")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config file: %v\n", err)
		}
		return
	}

	if outputFormat == "table" {
		outputFormat = viper.GetString(configKeyOutputFormat)
	}
}

// hardwareCapable returns the configured hardware-capability assumption.
func hardwareCapable() bool {
	return viper.GetBool(configKeyHardwareCapable)
}

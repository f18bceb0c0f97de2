package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bryanchriswhite/photobooth/internal/config"
	"github.com/bryanchriswhite/photobooth/internal/logger"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "photobooth",
		Short: "Photobooth - countdown capture and photo strip composer",
		Long: `Photobooth runs a browser-driven photo booth: a live camera preview,
a countdown before each shot, a white flash on capture, and a printable
photo strip composed from the shots.

Features:
  • Camera from the browser, a webcam, a watched directory, or the screen
  • 1-4 shot sessions with a 3-2-1 countdown and flash
  • Seven color filters with a vintage vignette and film grain
  • Vertical or horizontal strips with caption, date and frame colors
  • Keyboard control: Space, Enter, Escape and 1-5
  • REST and WebSocket API, MJPEG live preview`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/photobooth/config.yaml)")
	rootCmd.PersistentFlags().Int("port", 0, "server port (default is 8080)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("source", "", "camera source (push, webcam, directory, screen, synthetic)")

	// Bind flags to viper
	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("camera.source", rootCmd.PersistentFlags().Lookup("source"))
}

func initConfig() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	viper.SetEnvPrefix("PHOTOBOOTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = viper.GetString("config")
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadConfig opens the config file and applies flag and environment
// overrides in memory. Overrides are not written back.
func loadConfig() (*config.Manager, *config.Config, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize config manager: %w", err)
	}
	cfg := configMgr.Get()

	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			cfg.ServerPort = port
		}
	}
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			if !logger.ValidLevel(level) {
				return nil, nil, fmt.Errorf("invalid log level: %s (use: debug, info, warn, error)", level)
			}
			cfg.LogLevel = level
		}
	}
	if viper.IsSet("camera.source") {
		if src := viper.GetString("camera.source"); src != "" {
			cfg.Camera.Source = src
		}
	}
	if viper.IsSet("camera.device") {
		cfg.Camera.Device = viper.GetString("camera.device")
	}
	if viper.IsSet("camera.directory") {
		cfg.Camera.Directory = viper.GetString("camera.directory")
	}

	logger.Init(cfg.LogLevel, true)
	return configMgr, cfg, nil
}

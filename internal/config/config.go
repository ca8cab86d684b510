package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort    int
	DatabasePath  string
	MinecraftPath string // Root of the Minecraft installation to back up
	BackupPath    string // Where backup output and sidecar metadata land
	RCONAddress   string // Optional; empty means no live server to quiesce
	RCONPassword  string
	DiskMinFreeMB int64 // Free-space floor for the backup volume watchdog
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	minFreeStr := getEnv("DISK_MIN_FREE_MB", "512")
	minFree, err := strconv.ParseInt(minFreeStr, 10, 64)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:    port,
		DatabasePath:  getEnv("DATABASE_PATH", "./minevault.db"),
		MinecraftPath: getEnv("MINECRAFT_PATH", "./minecraft"),
		BackupPath:    getEnv("BACKUP_PATH", "./backups-out"),
		RCONAddress:   getEnv("RCON_ADDRESS", ""),
		RCONPassword:  getEnv("RCON_PASSWORD", ""),
		DiskMinFreeMB: minFree,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

package config

import (
	"log"
	"os"

	"github.com/esir-council/esir/src/data"
	"gorm.io/gorm"
)

const defaultCouncilName = "Rada Miasta"

// Council holds runtime settings kept in the settings table.
type Council struct {
	Name             string
	DiscordToken     string
	DiscordChannelID string
}

// LoadCouncil loads council settings, falling back to the environment.
func LoadCouncil(db *gorm.DB) Council {
	if err := data.LoadSettings(db); err != nil {
		log.Printf("config: load settings: %v", err)
	}

	return Council{
		Name:             GetSetting("council_name", "COUNCIL_NAME", defaultCouncilName),
		DiscordToken:     GetSetting("discord_token", "DISCORD_TOKEN", ""),
		DiscordChannelID: GetSetting("discord_channel_id", "DISCORD_CHANNEL_ID", ""),
	}
}

// GetSetting retrieves a setting with env fallback
func GetSetting(name, envKey, defaultValue string) string {
	val := data.GetSetting(name)
	if val == "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = defaultValue
	}
	return val
}

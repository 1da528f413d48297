package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Bot     BotConfig
	Scanner ScannerConfig
	Quota   QuotaConfig
	Storage StorageConfig
	Mail    MailConfig
	Targets map[string]TargetConfig
}

type ServerConfig struct {
	Port        string
	Mode        string
	JWTSecret   string
	AdminSecret string
}

type BotConfig struct {
	Token             string
	AdminID           string
	ChannelInviteLink string
}

type ScannerConfig struct {
	WorkerCount  int
	ProbeTimeout time.Duration
	MaxRedirects int
}

type QuotaConfig struct {
	ScanLimit  int
	ResetHours int
}

type StorageConfig struct {
	DataDir string
}

type MailConfig struct {
	CheckURL   string
	MaxRetries int
}

// TargetConfig is one entry of the scan catalog. Domains carry an optional
// leading dot meaning "this domain or any subdomain".
type TargetConfig struct {
	Name     string
	ProbeURL string
	Contains string
	Domains  []string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("BOTTELE")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("scanner.workercount", 5)
	viper.SetDefault("scanner.probetimeout", "20s")
	viper.SetDefault("scanner.maxredirects", 10)
	viper.SetDefault("quota.scanlimit", 50)
	viper.SetDefault("quota.resethours", 24)
	viper.SetDefault("storage.datadir", "./data")
	viper.SetDefault("mail.maxretries", 3)

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Override with environment variables
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	if admin := os.Getenv("ADMIN_USER_ID"); admin != "" {
		cfg.Bot.AdminID = admin
	}
	if link := os.Getenv("CHANNEL_INVITE_LINK"); link != "" {
		cfg.Bot.ChannelInviteLink = link
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Server.JWTSecret = secret
	}

	// Default catalog if not configured
	if len(cfg.Targets) == 0 {
		cfg.Targets = DefaultTargets()
	}

	return &cfg, nil
}

// DefaultTargets is the built-in scan catalog. A config file may replace it
// wholesale but entries are never merged.
func DefaultTargets() map[string]TargetConfig {
	return map[string]TargetConfig{
		"netflix": {
			Name:     "Netflix",
			ProbeURL: "https://www.netflix.com/account",
			Contains: "Account",
			Domains:  []string{".netflix.com", "netflix.com"},
		},
		"spotify": {
			Name:     "Spotify",
			ProbeURL: "https://www.spotify.com/account/overview/",
			Contains: "Overview",
			Domains:  []string{".spotify.com", "spotify.com"},
		},
		"tiktok": {
			Name:     "TikTok",
			ProbeURL: "https://www.tiktok.com/setting",
			Contains: "Settings",
			Domains:  []string{".tiktok.com", "tiktok.com"},
		},
		"facebook": {
			Name:     "Facebook",
			ProbeURL: "https://www.facebook.com/settings",
			Contains: "Settings",
			Domains:  []string{".facebook.com", "facebook.com"},
		},
		"canva": {
			Name:     "Canva",
			ProbeURL: "https://www.canva.com/settings/",
			Contains: "Settings",
			Domains:  []string{".canva.com", "canva.com"},
		},
		"roblox": {
			Name:     "Roblox",
			ProbeURL: "https://www.roblox.com/vi/home",
			Contains: "Home",
			Domains:  []string{".roblox.com", "roblox.com"},
		},
		"instagram": {
			Name:     "Instagram",
			ProbeURL: "https://www.instagram.com/accounts/edit/",
			Contains: "Edit",
			Domains:  []string{".instagram.com", "instagram.com"},
		},
		"youtube": {
			Name:     "YouTube",
			ProbeURL: "https://www.youtube.com/account",
			Contains: "Account",
			Domains:  []string{".youtube.com", "youtube.com"},
		},
		"linkedin": {
			Name:     "LinkedIn",
			ProbeURL: "https://www.linkedin.com/mypreferences/d/categories/account",
			Contains: "Preferences",
			Domains:  []string{".linkedin.com", "linkedin.com"},
		},
		"amazon": {
			Name:     "Amazon",
			ProbeURL: "https://www.amazon.com/gp/your-account/order-history",
			Contains: "Order",
			Domains:  []string{".amazon.com", "amazon.com"},
		},
		"wordpress": {
			Name:     "WordPress",
			ProbeURL: "https://wordpress.com/me/",
			Contains: "Me",
			Domains:  []string{".wordpress.com", "wordpress.com"},
		},
		"capcut": {
			Name:     "CapCut",
			ProbeURL: "https://www.capcut.com/my-edit",
			Contains: "My Edit",
			Domains:  []string{".capcut.com", "capcut.com"},
		},
		"paypal": {
			Name:     "PayPal",
			ProbeURL: "https://www.paypal.com/myaccount/profile/",
			Contains: "profile",
			Domains:  []string{".paypal.com", "www.paypal.com", "paypal.com"},
		},
	}
}

package config

// Default returns the baseline configuration applied before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDirs:     nil,
			DestinationDir: "",
			LogDir:         "~/.local/share/reelsort/logs",
			CacheDir:       "~/.cache/reelsort",
		},
		Scanner: Scanner{
			VideoExts:     []string{".mkv", ".mp4", ".m4v", ".avi"},
			SidecarExts:   []string{".srt", ".sub"},
			IgnoreStrings: []string{"sample", "@eadir", "_unpack"},
			MinFileSizeMB: 200,
		},
		TMDB: TMDB{
			APIKey:         "",
			BaseURL:        "https://api.themoviedb.org/3",
			Language:       "en-US",
			Concurrency:    10,
			TimeoutSeconds: 30,
			CacheEnabled:   true,
		},
		Duplicates: Duplicates{
			Enabled:         true,
			AllowUpgrades:   true,
			RespectEditions: true,
			ReplaceSmaller:  false,
			SimilarityFloor: 0.8,
			UpgradeTable: map[string][]string{
				"sd":    {"720p", "1080p"},
				"720p":  {"1080p"},
				"1080p": {},
				"2160p": {},
			},
		},
		Transfer: Transfer{
			AlwaysCopy: false,
		},
		Organize: Organize{
			FileUnverified:    false,
			CleanupSourceDirs: true,
		},
		Notifications: Notifications{
			NtfyTopic:      "",
			RequestTimeout: 10,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

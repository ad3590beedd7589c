package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://localhost:8000/api" {
			t.Errorf("expected base URL http://localhost:8000/api, got %s", config.API.BaseURL)
		}

		if config.Profile.Path != "~/.wishx/profile.db" {
			t.Errorf("expected profile path ~/.wishx/profile.db, got %s", config.Profile.Path)
		}

		if config.OAuth.CallbackPort != 3000 {
			t.Errorf("expected callback port 3000, got %d", config.OAuth.CallbackPort)
		}

		if config.Environment != EnvAuto {
			t.Errorf("expected environment auto, got %s", config.Environment)
		}

		if config.Public.ContributionPolicy != "strict" {
			t.Errorf("expected strict contribution policy, got %s", config.Public.ContributionPolicy)
		}

		if config.Export.Workers != 4 {
			t.Errorf("expected 4 export workers, got %d", config.Export.Workers)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.API.BaseURL != DefaultConfig().API.BaseURL {
			t.Errorf("created config base URL doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `environment = "production"

[api]
base_url = "https://wishlist.example.com/api"
requests_per_second = 4

[log]
level = "debug"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://wishlist.example.com/api" {
			t.Errorf("expected overridden base URL, got %s", config.API.BaseURL)
		}
		if config.API.RequestsPerSecond != 4 {
			t.Errorf("expected 4 requests per second, got %v", config.API.RequestsPerSecond)
		}
		if config.Profile.Path != "~/.wishx/profile.db" {
			t.Errorf("expected default profile path to survive, got %s", config.Profile.Path)
		}
		if !config.IsProduction() {
			t.Error("expected explicit production environment")
		}
	})

	t.Run("LoadConfig Rejects Unknown Environment", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte(`environment = "staging"`), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Rejects Unknown Contribution Policy", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		body := "[public]\ncontribution_policy = \"whatever\"\n"
		if err := os.WriteFile(configPath, []byte(body), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("IsProduction Auto", func(t *testing.T) {
		tt := []struct {
			baseURL string
			want    bool
		}{
			{"http://localhost:8000/api", false},
			{"http://127.0.0.1:8000/api", false},
			{"https://wishlist-api.onrender.com/api", true},
		}

		for _, tc := range tt {
			config := DefaultConfig()
			config.API.BaseURL = tc.baseURL
			if got := config.IsProduction(); got != tc.want {
				t.Errorf("IsProduction(%s) = %v, want %v", tc.baseURL, got, tc.want)
			}
		}
	})

	t.Run("WebSocketURL", func(t *testing.T) {
		config := DefaultConfig()
		config.API.WSURL = ""
		config.API.BaseURL = "https://wishlist.example.com/api"
		if got := config.WebSocketURL(); got != "wss://wishlist.example.com" {
			t.Errorf("expected wss://wishlist.example.com, got %s", got)
		}

		config.API.WSURL = "http://localhost:8000/"
		if got := config.WebSocketURL(); got != "ws://localhost:8000" {
			t.Errorf("expected ws://localhost:8000, got %s", got)
		}
	})
}

func TestPluralize(t *testing.T) {
	tt := []struct {
		n    int
		want string
	}{
		{0, "0 items"},
		{1, "1 item"},
		{2, "2 items"},
		{3, "3 items"},
	}

	for _, tc := range tt {
		if got := Pluralize(tc.n, "item"); got != tc.want {
			t.Errorf("Pluralize(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

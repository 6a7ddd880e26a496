package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	vars := []string{
		"TELEGRAM_BOT_TOKEN", "DATA_DIR", "LOG_LEVEL",
		"POLL_INTERVAL_SECONDS", "QUEUE_CAPACITY", "ALLOWED_USERS",
	}

	tests := []struct {
		name    string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name:    "missing token",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "token only, defaults applied",
			env:  map[string]string{"TELEGRAM_BOT_TOKEN": "test-token"},
			want: &Config{
				TelegramBotToken: "test-token",
				DataDir:          "./data",
				LogLevel:         "info",
				PollInterval:     5 * time.Minute,
				QueueCapacity:    64,
				AllowedUsers:     nil,
			},
		},
		{
			name: "all values set",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":    "tok",
				"DATA_DIR":              "/tmp/ytbot",
				"LOG_LEVEL":             "debug",
				"POLL_INTERVAL_SECONDS": "30",
				"QUEUE_CAPACITY":        "8",
				"ALLOWED_USERS":         "111,222,333",
			},
			want: &Config{
				TelegramBotToken: "tok",
				DataDir:          "/tmp/ytbot",
				LogLevel:         "debug",
				PollInterval:     30 * time.Second,
				QueueCapacity:    8,
				AllowedUsers:     []int64{111, 222, 333},
			},
		},
		{
			name: "invalid poll interval",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":    "tok",
				"POLL_INTERVAL_SECONDS": "soon",
			},
			wantErr: true,
		},
		{
			name: "invalid queue capacity",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"QUEUE_CAPACITY":     "0",
			},
			wantErr: true,
		},
		{
			name: "invalid allowed users",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"ALLOWED_USERS":      "111,abc",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range vars {
				t.Setenv(v, tt.env[v])
			}

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsUserAllowed(t *testing.T) {
	tests := []struct {
		name    string
		allowed []int64
		userID  int64
		want    bool
	}{
		{name: "empty list permits everyone", allowed: nil, userID: 42, want: true},
		{name: "listed user permitted", allowed: []int64{42}, userID: 42, want: true},
		{name: "unlisted user denied", allowed: []int64{42}, userID: 7, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{AllowedUsers: tt.allowed}
			if got := c.IsUserAllowed(tt.userID); got != tt.want {
				t.Errorf("IsUserAllowed(%d) = %v, want %v", tt.userID, got, tt.want)
			}
		})
	}
}

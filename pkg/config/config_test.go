package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Report.DefaultRangeDays != 30 || cfg.Report.MaxRangeDays != 365 {
		t.Errorf("unexpected report range defaults: %+v", cfg.Report)
	}
	if cfg.Health.PollInterval != 30*time.Second {
		t.Errorf("expected HEALTH_POLL_INTERVAL default 30s, got %v", cfg.Health.PollInterval)
	}
	if cfg.DataSource.Mode != DataSourceSynthetic {
		t.Errorf("expected synthetic data source by default, got %q", cfg.DataSource.Mode)
	}
	if cfg.Export.Sink != ExportSinkFilesystem {
		t.Errorf("expected filesystem export sink by default, got %q", cfg.Export.Sink)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REPORT_MAX_RANGE_DAYS", "90")
	t.Setenv("HEALTH_POLL_INTERVAL", "5s")
	t.Setenv("DATA_SOURCE", "POSTGRES")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Report.MaxRangeDays != 90 {
		t.Errorf("expected MaxRangeDays=90, got %d", cfg.Report.MaxRangeDays)
	}
	if cfg.Health.PollInterval != 5*time.Second {
		t.Errorf("expected PollInterval=5s, got %v", cfg.Health.PollInterval)
	}
	if cfg.DataSource.Mode != DataSourcePostgres {
		t.Errorf("expected postgres mode, got %q", cfg.DataSource.Mode)
	}
	if len(cfg.Security.AllowedOrigins) != 2 || cfg.Security.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "invalid duration",
			env:     map[string]string{"HEALTH_POLL_INTERVAL": "soon"},
			wantErr: "invalid HEALTH_POLL_INTERVAL",
		},
		{
			name:    "unknown data source",
			env:     map[string]string{"DATA_SOURCE": "mysql"},
			wantErr: "DATA_SOURCE",
		},
		{
			name:    "s3 sink without bucket",
			env:     map[string]string{"EXPORT_SINK": "s3"},
			wantErr: "S3_BUCKET",
		},
		{
			name:    "default range above max",
			env:     map[string]string{"REPORT_MAX_RANGE_DAYS": "10"},
			wantErr: "REPORT_DEFAULT_RANGE_DAYS",
		},
		{
			name:    "auth without token",
			env:     map[string]string{"AUTH_ENABLED": "true"},
			wantErr: "AUTH_BEARER_TOKEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PATIENTS_TABLE", "")
	t.Setenv("APPOINTMENTS_TABLE", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.PatientsTable != "patients" {
		t.Fatalf("expected default patients table, got %s", cfg.PatientsTable)
	}
	if cfg.AppointmentsTable != "appointments" {
		t.Fatalf("expected default appointments table, got %s", cfg.AppointmentsTable)
	}
	if cfg.UseMemoryStore {
		t.Fatalf("expected memory store disabled by default")
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard CORS default, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("USE_MEMORY_STORE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CLINIC_ID", "clinic42")
	t.Setenv("INGEST_QUEUE_URL", "http://localhost:4566/000000000000/ingest")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if !cfg.UseMemoryStore {
		t.Fatalf("expected memory store enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("expected CORS override, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.ClinicID != "clinic42" {
		t.Fatalf("expected clinic id override, got %s", cfg.ClinicID)
	}
	if cfg.IngestQueueURL == "" {
		t.Fatalf("expected ingest queue override")
	}
}

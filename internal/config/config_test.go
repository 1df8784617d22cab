package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "connectme" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "connectme")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.SessionTTLDuration() != 30*time.Minute {
		t.Errorf("SessionTTLDuration = %v, want 30m", cfg.SessionTTLDuration())
	}
	if cfg.AuthEventsTopic != "connectme-auth-events" {
		t.Errorf("AuthEventsTopic = %q, want default", cfg.AuthEventsTopic)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "connectme-test")
	os.Setenv("SESSION_TTL", "5m")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "connectme-test" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "connectme-test")
	}
	if cfg.SessionTTLDuration() != 5*time.Minute {
		t.Errorf("SessionTTLDuration = %v, want 5m", cfg.SessionTTLDuration())
	}
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail in production without JWT_SECRET")
	}

	os.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	if _, err := Load(); err == nil {
		t.Fatal("Load should fail in production without SMS_API_KEY")
	}

	os.Setenv("SMS_API_KEY", "test-key")
	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("BCRYPT_COST", "99")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject BCRYPT_COST outside 4-31")
	}
}

func TestKafkaBrokersList(t *testing.T) {
	cfg := &Config{KafkaBrokers: "localhost:9092, broker2:9092 ,"}
	got := cfg.KafkaBrokersList()
	if len(got) != 2 || got[0] != "localhost:9092" || got[1] != "broker2:9092" {
		t.Errorf("KafkaBrokersList = %v", got)
	}

	cfg = &Config{}
	if got := cfg.KafkaBrokersList(); got != nil {
		t.Errorf("KafkaBrokersList on empty config = %v, want nil", got)
	}
}

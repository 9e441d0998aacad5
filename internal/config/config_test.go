package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("JWT_EXPIRATION_HOURS", "2")
	t.Setenv("MAX_UPLOAD_MB", "4")
	t.Setenv("OCR_ENGINE", "Tesseract")
	t.Setenv("OCR_LANGUAGES", " eng , vie,, ")
	t.Setenv("DEFAULT_TOLL_AMOUNT", "15000")
	t.Setenv("STORAGE_DRIVER", "Memory")

	cfg := Load()
	if cfg.ServerPort != "9090" || cfg.DBPort != 6543 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
	if cfg.JWTExpirationHours != 2*time.Hour {
		t.Fatalf("jwt expiration = %v", cfg.JWTExpirationHours)
	}
	if cfg.MaxUploadBytes != 4<<20 {
		t.Fatalf("max upload = %d", cfg.MaxUploadBytes)
	}
	if cfg.OCREngine != "tesseract" {
		t.Fatalf("ocr engine = %q", cfg.OCREngine)
	}
	if diff := cmp.Diff([]string{"eng", "vie"}, cfg.OCRLanguages); diff != "" {
		t.Fatalf("languages mismatch (-want +got):\n%s", diff)
	}
	if cfg.StorageDriver != "memory" {
		t.Fatalf("storage driver = %q", cfg.StorageDriver)
	}
	if cfg.DefaultTollAmount != 15000 || cfg.LowBalanceThreshold != 50000 {
		t.Fatalf("unexpected amounts: toll=%v low=%v", cfg.DefaultTollAmount, cfg.LowBalanceThreshold)
	}
}

package svrcfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zintix-labs/trireel/server/logger"
)

func TestLoadEnvDefaults(t *testing.T) {
	c, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Addr != ":5808" || c.SessionCap != 1024 || c.SessionTTL != 30*time.Minute || c.LogMode != logger.ModeDev {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRIREEL_ADDR", "127.0.0.1:9000")
	t.Setenv("TRIREEL_LOG_MODE", "prod")
	t.Setenv("TRIREEL_SESSION_TTL", "90s")
	c, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Addr != "127.0.0.1:9000" || c.LogMode != logger.ModeProd || c.SessionTTL != 90*time.Second {
		t.Fatalf("overrides not applied: %+v", c)
	}
}

func TestLoadEnvFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(p, []byte("TRIREEL_SESSION_CAP=7\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// godotenv 不覆寫已存在的變數；Setenv 先清空並在結束時還原
	t.Setenv("TRIREEL_SESSION_CAP", "")
	os.Unsetenv("TRIREEL_SESSION_CAP")
	c, err := LoadEnv(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.SessionCap != 7 {
		t.Fatalf("session cap = %d", c.SessionCap)
	}
}

func TestLoadEnvRejects(t *testing.T) {
	t.Setenv("TRIREEL_SESSION_CAP", "0")
	if _, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("cap 0 should fail")
	}
}

func TestLoadEnvBadMode(t *testing.T) {
	t.Setenv("TRIREEL_LOG_MODE", "loud")
	if _, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("unknown log mode should fail")
	}
}

func TestSvrCfgValid(t *testing.T) {
	sc := &SvrCfg{}
	if err := sc.Valid(); err == nil {
		t.Fatalf("missing lab should fail")
	}
	if sc.Log == nil {
		t.Fatalf("logger should be filled")
	}
}

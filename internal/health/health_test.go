package health

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCollectSimulatedHealthy(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("responder: {}\n"), 0600); err != nil {
		t.Fatal(err)
	}

	s := Collect(Options{
		ConfigPath:   cfgPath,
		IdentityPath: filepath.Join(dir, "identity.yaml"),
		Strategy:     "simulated",
		IdentityOK:   true,
	})

	if s.Status != "healthy" || len(s.Problems) != 0 {
		t.Fatalf("status = %q problems = %v, want healthy", s.Status, s.Problems)
	}
	if !s.Responder.Ready {
		t.Fatal("simulated responder should always be ready")
	}
	if len(s.Files) != 3 {
		t.Fatalf("files = %d, want 3", len(s.Files))
	}
	if !s.Files[0].Exists || s.Files[0].FileSizeBytes == 0 {
		t.Fatalf("config file = %+v, want existing", s.Files[0])
	}
	if s.Files[1].Exists {
		t.Fatalf("identity file = %+v, want missing", s.Files[1])
	}
	if s.Runtime.Version == "" || s.Runtime.Goroutines == 0 {
		t.Fatalf("runtime = %+v", s.Runtime)
	}
}

func TestCollectRemoteKeyFromEnv(t *testing.T) {
	t.Setenv("PAPO_TEST_KEY_A", "")
	t.Setenv("PAPO_TEST_KEY_B", "sk-env")

	s := Collect(Options{
		Strategy:   "openai",
		Remote:     true,
		EnvKeys:    []string{"PAPO_TEST_KEY_A", "PAPO_TEST_KEY_B"},
		IdentityOK: true,
	})

	if !s.Responder.Ready || s.Responder.KeyFrom != "PAPO_TEST_KEY_B" {
		t.Fatalf("responder = %+v, want ready from PAPO_TEST_KEY_B", s.Responder)
	}
}

func TestCollectReportsProblems(t *testing.T) {
	t.Setenv("PAPO_TEST_KEY_A", "")

	s := Collect(Options{
		Strategy:  "anthropic",
		Remote:    true,
		EnvKeys:   []string{"PAPO_TEST_KEY_A"},
		ConfigErr: errors.New("bad yaml"),
	})

	if s.Status != "degraded" {
		t.Fatalf("status = %q, want degraded", s.Status)
	}
	if s.Responder.Ready {
		t.Fatal("remote responder without a key reported ready")
	}
	if len(s.Problems) != 3 {
		t.Fatalf("problems = %v, want config, identity and key", s.Problems)
	}
}

func TestCollectKeyFromConfig(t *testing.T) {
	s := Collect(Options{Strategy: "gemini", Remote: true, HasKey: true, IdentityOK: true})
	if !s.Responder.Ready || s.Responder.KeyFrom != "config" {
		t.Fatalf("responder = %+v", s.Responder)
	}
}

package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codahale/gubbins/assert"
	"github.com/google/go-cmp/cmp"

	"matrixchat/internal/app"
)

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := app.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(app.DefaultConfig(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_OverridesOnlyGivenKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "matrixchat.yaml")
	doc := `
relay:
  listen: ":9000"
  exchange_timeout: 3s
  parameter_attempts: 2
participant:
  name: alice
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := app.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := app.DefaultConfig()
	want.Relay.Listen = ":9000"
	want.Relay.ExchangeTimeout = 3 * time.Second
	want.Relay.ParameterAttempts = 2
	want.Participant.Name = "alice"
	want.Log.Level = "debug"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cases := map[string]string{
		"attempts": "relay:\n  agreement_attempts: 0\n",
		"level":    "log:\n  level: chatty\n",
		"syntax":   "relay: [\n",
	}
	for name, doc := range cases {
		path := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := app.LoadConfig(path)
		assert.Equal(t, name+" rejected", true, err != nil)
	}
}

func TestNew_BuildsRelayAndProfiles(t *testing.T) {
	t.Parallel()

	cfg := app.DefaultConfig()
	cfg.Home = filepath.Join(t.TempDir(), "home")
	cfg.Log.Stderr = false

	a, err := app.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if _, err := os.Stat(cfg.Home); err != nil {
		t.Fatalf("home not created: %v", err)
	}
	srv := a.NewRelay()
	assert.Equal(t, "registry empty", 0, srv.Stats().Participants)

	_, ok, err := a.Profiles.LoadProfile()
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	assert.Equal(t, "no profile yet", false, ok)
}

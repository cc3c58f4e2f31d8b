package main

import (
	"os"
	"path/filepath"
	"testing"
)

// resetFlags restores global flag state after each test.
func resetFlags(t *testing.T) {
	t.Helper()
	orig := struct{ url, key, fmt string }{flagURL, flagKey, flagFmt}
	t.Cleanup(func() {
		flagURL = orig.url
		flagKey = orig.key
		flagFmt = orig.fmt
	})
}

// setEnv temporarily sets an environment variable and restores it on cleanup.
func setEnv(t *testing.T, key, val string) {
	t.Helper()
	prev, exists := os.LookupEnv(key)
	os.Setenv(key, val)
	t.Cleanup(func() {
		if exists {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}

// unsetEnv temporarily unsets an environment variable and restores it on cleanup.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, exists := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if exists {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}

// writeTestConfig writes a config file under a temp HOME and points HOME at it.
func writeTestConfig(t *testing.T, content string) {
	t.Helper()
	tmp := t.TempDir()
	setEnv(t, "HOME", tmp)
	cfgDir := filepath.Join(tmp, ".parley")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// TestResolveConfigEnv verifies that PARLEY_URL and PARLEY_API_KEY fill
// defaults.
func TestResolveConfigEnv(t *testing.T) {
	resetFlags(t)
	setEnv(t, "PARLEY_URL", "http://env-server:9090")
	setEnv(t, "PARLEY_API_KEY", "env-key")
	setEnv(t, "HOME", t.TempDir())

	flagURL = defaultServerURL
	flagKey = ""
	resolveConfig()

	if flagURL != "http://env-server:9090" {
		t.Errorf("flagURL: got %q, want env value", flagURL)
	}
	if flagKey != "env-key" {
		t.Errorf("flagKey: got %q, want env value", flagKey)
	}
}

// TestResolveConfigFlagWins verifies that an explicit flag value is not
// overridden by the environment.
func TestResolveConfigFlagWins(t *testing.T) {
	resetFlags(t)
	setEnv(t, "PARLEY_URL", "http://env-server:9090")
	setEnv(t, "HOME", t.TempDir())

	flagURL = "http://explicit-flag:1234"
	resolveConfig()

	if flagURL != "http://explicit-flag:1234" {
		t.Errorf("explicit flag should win; got %q", flagURL)
	}
}

// TestResolveConfigFlatYAML verifies the flat config file format.
func TestResolveConfigFlatYAML(t *testing.T) {
	resetFlags(t)
	unsetEnv(t, "PARLEY_URL")
	unsetEnv(t, "PARLEY_API_KEY")
	writeTestConfig(t, "url: http://from-file:8080\napi_key: file-key\n")

	flagURL = defaultServerURL
	flagKey = ""
	resolveConfig()

	if flagURL != "http://from-file:8080" {
		t.Errorf("flagURL from flat config: got %q", flagURL)
	}
	if flagKey != "file-key" {
		t.Errorf("flagKey from flat config: got %q", flagKey)
	}
}

// TestResolveConfigProfileYAML verifies profile resolution via active_profile.
func TestResolveConfigProfileYAML(t *testing.T) {
	resetFlags(t)
	unsetEnv(t, "PARLEY_URL")
	unsetEnv(t, "PARLEY_API_KEY")
	writeTestConfig(t, `
active_profile: staging
profiles:
  default:
    url: http://default:4040
    api_key: default-key
  staging:
    url: http://staging:5050
    api_key: staging-key
`)

	flagURL = defaultServerURL
	flagKey = ""
	resolveConfig()

	if flagURL != "http://staging:5050" {
		t.Errorf("flagURL from profile: got %q", flagURL)
	}
	if flagKey != "staging-key" {
		t.Errorf("flagKey from profile: got %q", flagKey)
	}
}

// TestResolveConfigDefaultProfile verifies that an empty active_profile falls
// back to the "default" profile.
func TestResolveConfigDefaultProfile(t *testing.T) {
	resetFlags(t)
	unsetEnv(t, "PARLEY_URL")
	unsetEnv(t, "PARLEY_API_KEY")
	writeTestConfig(t, `
profiles:
  default:
    url: http://default-profile:6060
    api_key: default-profile-key
`)

	flagURL = defaultServerURL
	flagKey = ""
	resolveConfig()

	if flagURL != "http://default-profile:6060" {
		t.Errorf("flagURL from default profile: got %q", flagURL)
	}
}

// TestResolveConfigMissingFile verifies that a missing config file leaves
// defaults unchanged.
func TestResolveConfigMissingFile(t *testing.T) {
	resetFlags(t)
	unsetEnv(t, "PARLEY_URL")
	unsetEnv(t, "PARLEY_API_KEY")
	setEnv(t, "HOME", t.TempDir())

	flagURL = defaultServerURL
	flagKey = ""
	resolveConfig() // must not panic

	if flagURL != defaultServerURL {
		t.Errorf("flagURL should stay default; got %q", flagURL)
	}
	if flagKey != "" {
		t.Errorf("flagKey should stay empty; got %q", flagKey)
	}
}

// TestResolveConfigInvalidYAML verifies that a malformed config file is
// silently ignored.
func TestResolveConfigInvalidYAML(t *testing.T) {
	resetFlags(t)
	unsetEnv(t, "PARLEY_URL")
	unsetEnv(t, "PARLEY_API_KEY")
	writeTestConfig(t, ":::not-yaml:::")

	flagURL = defaultServerURL
	flagKey = ""
	resolveConfig() // must not panic

	if flagURL != defaultServerURL {
		t.Errorf("flagURL should stay default on bad YAML; got %q", flagURL)
	}
}

// TestResolveConfigEnvBeatsFile verifies that env vars take precedence over
// config file values.
func TestResolveConfigEnvBeatsFile(t *testing.T) {
	resetFlags(t)
	setEnv(t, "PARLEY_API_KEY", "env-wins-key")
	unsetEnv(t, "PARLEY_URL")
	writeTestConfig(t, "url: http://file:9000\napi_key: file-key\n")

	flagURL = defaultServerURL
	flagKey = ""
	resolveConfig()

	if flagKey != "env-wins-key" {
		t.Errorf("flagKey should be env value; got %q", flagKey)
	}
}

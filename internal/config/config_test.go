package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate, got %v", err)
	}
}

func TestValidateRejectsUnknownAlgorithm(t *testing.T) {
	c := Default()
	c.Algorithm = "bogus"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for unknown algorithm")
	}
}

func TestValidateRequiresGPUsForProgPow(t *testing.T) {
	c := Default()
	c.Algorithm = AlgorithmProgPow
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error: progpow with no gpu entries")
	}
	c.GPUs = []GPUConfig{{DeviceID: 0}}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error after adding a gpu entry: %v", err)
	}
}

func TestValidateRequiresPluginsForCuckoo(t *testing.T) {
	c := Default()
	c.Algorithm = AlgorithmCuckoo
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error: cuckoo with no plugin entries")
	}
	c.MinerPluginConfigs = []PluginConfig{{PluginName: "cuckaroo29_cpu_compat"}}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error after adding a plugin entry: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/miner.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Default()
	if cfg.Algorithm != want.Algorithm || cfg.RandomXThreads != want.RandomXThreads ||
		cfg.StratumServerAddr != want.StratumServerAddr {
		t.Fatalf("Load of missing file should return Default(), got %+v", cfg)
	}
}

package config

import "testing"

func TestParseBoolFlag(t *testing.T) {
	tests := []struct {
		name       string
		val        string
		defaultVal bool
		want       bool
	}{
		{"one", "1", false, true},
		{"true", "true", false, true},
		{"yes upper", "YES", false, true},
		{"on", "on", false, true},
		{"zero", "0", true, false},
		{"false", "false", true, false},
		{"off", "off", true, false},
		{"empty uses default", "", true, true},
		{"garbage uses default", "maybe", false, false},
		{"whitespace uses default", "  ", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseBoolFlag(tt.val, tt.defaultVal); got != tt.want {
				t.Errorf("ParseBoolFlag(%q, %v) = %v, want %v", tt.val, tt.defaultVal, got, tt.want)
			}
		})
	}
}

func TestEnvFlagEnabled(t *testing.T) {
	const key = "EXPLAB_TEST_FLAG"

	if EnvFlagEnabled(key) {
		t.Error("unset variable reported enabled")
	}

	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"1", true},
		{"true", true},
		{"0", false},
		{"off", false},
		{"nonsense", true},
	}
	for _, tt := range tests {
		t.Run("value "+tt.value, func(t *testing.T) {
			t.Setenv(key, tt.value)
			if got := EnvFlagEnabled(key); got != tt.want {
				t.Errorf("EnvFlagEnabled with %q = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestClampJobs(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{8, 8},
		{100, 100},
		{500, 100},
	}

	for _, tt := range tests {
		if got := ClampJobs(tt.in); got != tt.want {
			t.Errorf("ClampJobs(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIsKnownBenchmark(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"miniwob", true},
		{"workarena.l1", true},
		{"workarena.l2", true},
		{"workarena.l3", true},
		{"", true},
		{"  ", true},
		{"webarena", false},
		{"workarena.l4", false},
	}

	for _, tt := range tests {
		if got := IsKnownBenchmark(tt.name); got != tt.want {
			t.Errorf("IsKnownBenchmark(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestResolveEpisodeTimeout(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want int
	}{
		{"unset", "", 0},
		{"valid", "300", 300},
		{"negative", "-1", 0},
		{"garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EXPLAB_EPISODE_TIMEOUT", tt.val)
			if got := ResolveEpisodeTimeout(); got != tt.want {
				t.Errorf("ResolveEpisodeTimeout() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDefaultExpRootFromEnv(t *testing.T) {
	t.Setenv("EXPLAB_EXP_ROOT", "/data/experiments")
	if got := DefaultExpRoot(); got != "/data/experiments" {
		t.Errorf("DefaultExpRoot() = %q, want /data/experiments", got)
	}
}

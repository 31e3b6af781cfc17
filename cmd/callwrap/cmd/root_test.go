package cmd

import "testing"

func TestResolveLogLevel(t *testing.T) {
	tests := []struct {
		name        string
		flagValue   string
		configValue string
		want        string
	}{
		{"flag wins over config", "debug", "warn", "debug"},
		{"config when flag unset", "", "warn", "warn"},
		{"default when both unset", "", "", "info"},
		{"flag alone", "error", "", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveLogLevel(tt.flagValue, tt.configValue); got != tt.want {
				t.Errorf("resolveLogLevel(%q, %q) = %q, want %q", tt.flagValue, tt.configValue, got, tt.want)
			}
		})
	}
}

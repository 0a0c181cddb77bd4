package monitoring

import (
	"testing"
)

func TestCheckHealthAggregation(t *testing.T) {
	tests := []struct {
		name    string
		results []string
		want    string
	}{
		{"all healthy", []string{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []string{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"one unhealthy wins", []string{StatusDegraded, StatusUnhealthy}, StatusUnhealthy},
		{"unknown status treated unhealthy", []string{"weird"}, StatusUnhealthy},
		{"no checks", nil, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker("authentify", "test")
			for i, status := range tt.results {
				s := status
				hc.AddCheck(string(rune('a'+i)), func() CheckResult {
					return CheckResult{Status: s}
				})
			}

			health := hc.CheckHealth()
			if health.Status != tt.want {
				t.Errorf("status = %q, want %q", health.Status, tt.want)
			}
			if len(health.Checks) != len(tt.results) {
				t.Errorf("checks = %d, want %d", len(health.Checks), len(tt.results))
			}
		})
	}
}

func TestConfigurationHealthCheck(t *testing.T) {
	check := ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": "postgres://localhost/authentify",
		"JWT_SECRET":   "",
	})
	result := check()
	if result.Status != StatusUnhealthy {
		t.Errorf("status = %q, want unhealthy when config missing", result.Status)
	}

	check = ConfigurationHealthCheck(map[string]string{"JWT_SECRET": "set"})
	if result := check(); result.Status != StatusHealthy {
		t.Errorf("status = %q, want healthy", result.Status)
	}
}

package cache

import "testing"

// TestBuildStore tests backend selection and dependency checks
func TestBuildStore(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		opts    FactoryOptions
		wantErr bool
	}{
		{"memory", "memory", FactoryOptions{}, false},
		{"redis with address", "redis", FactoryOptions{RedisAddr: "localhost:6379"}, false},
		{"redis missing address", "redis", FactoryOptions{}, true},
		{"warehouse missing client", "warehouse", FactoryOptions{}, true},
		{"unknown backend", "bigtable", FactoryOptions{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := BuildStore(tt.backend, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("BuildStore(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			}
			if !tt.wantErr && store == nil {
				t.Errorf("BuildStore(%q) returned nil store without error", tt.backend)
			}
		})
	}
}

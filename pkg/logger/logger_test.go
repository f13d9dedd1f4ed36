package logger

import "testing"

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "default", level: ""},
		{name: "debug", level: "debug"},
		{name: "upper case", level: "WARN"},
		{name: "unknown", level: "chatty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.level, false)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for level %q", tt.level)
				}
				return
			}
			if err != nil || l == nil {
				t.Fatalf("New(%q): %v", tt.level, err)
			}
		})
	}
}

func TestNamedWithNilBase(t *testing.T) {
	if Named(nil, "svc") == nil {
		t.Fatalf("Named should never return nil")
	}
}

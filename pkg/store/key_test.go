package store

import "testing"

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "empty namespace",
			key:  Key{},
			want: "telemetry:default:log",
		},
		{
			name: "namespace only",
			key:  Key{Namespace: "checkout-ui"},
			want: "telemetry:checkout-ui:log",
		},
		{
			name: "namespace and scope",
			key:  Key{Namespace: "checkout-ui", Scope: "eu-west"},
			want: "telemetry:checkout-ui:eu-west:log",
		},
		{
			name: "normalized",
			key:  Key{Namespace: " Checkout UI ", Scope: "a:b"},
			want: "telemetry:checkout_ui:a_b:log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("Key.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

package metrics

import (
	"reflect"
	"testing"
)

func TestFlattenCounts(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		want   []Bucket
	}{
		{
			name:   "nil counts",
			counts: nil,
			want:   nil,
		},
		{
			name:   "empty counts",
			counts: map[string]int{},
			want:   nil,
		},
		{
			name:   "single bucket",
			counts: map[string]int{"200": 10},
			want:   []Bucket{{Key: "200", Count: 10}},
		},
		{
			name: "sorted by count desc",
			counts: map[string]int{
				"200": 10,
				"500": 5,
				"404": 20,
			},
			want: []Bucket{
				{Key: "404", Count: 20},
				{Key: "200", Count: 10},
				{Key: "500", Count: 5},
			},
		},
		{
			name: "tie breaking by key",
			counts: map[string]int{
				"timeout":            3,
				"connection_refused": 3,
				"dns":                3,
			},
			want: []Bucket{
				{Key: "connection_refused", Count: 3},
				{Key: "dns", Count: 3},
				{Key: "timeout", Count: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlattenCounts(tt.counts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FlattenCounts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFriendlyErrorName(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"", "Unknown error"},
		{"http_status", "HTTP error response"},
		{"timeout", "Request timeout"},
		{"connection_refused", "Connection refused"},
		{"DNS", "DNS lookup failed"},
		{"tls_handshake", "Tls handshake"},
		{"upstream_RST", "Upstream RST"},
	}
	for _, tt := range tests {
		if got := FriendlyErrorName(tt.kind); got != tt.want {
			t.Errorf("FriendlyErrorName(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

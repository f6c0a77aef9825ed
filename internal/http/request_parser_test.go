package http

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name": "base case"}`, false},
		{"unknown field", `{"name": "x", "bogus": 1}`, true},
		{"trailing garbage", `{"name": "x"} {"name": "y"}`, true},
		{"not json", `name=x`, true},
		{"empty body", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/scenarios", strings.NewReader(tt.body))
			var dst payload
			err := DecodeJSON(r, &dst)
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeJSON error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int64
		wantErr bool
	}{
		{"valid", "42", 42, false},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, true},
		{"not a number", "abc", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/scenarios/x", nil)
			r.SetPathValue("id", tt.value)

			got, err := PathID(r, "id")
			if (err != nil) != tt.wantErr {
				t.Fatalf("PathID error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PathID = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestQueryBool(t *testing.T) {
	r := httptest.NewRequest("GET", "/scenarios/1/boq?only_active=true&bad=maybe", nil)

	if !QueryBool(r, "only_active", false) {
		t.Error("only_active=true should parse as true")
	}
	if QueryBool(r, "missing", false) {
		t.Error("missing param should use default")
	}
	if !QueryBool(r, "missing", true) {
		t.Error("missing param should use default")
	}
	if QueryBool(r, "bad", false) {
		t.Error("unparseable value should use default")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr only", nil, "10.0.0.1:4321", "10.0.0.1:4321"},
		{"forwarded single", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "10.0.0.1:4321", "203.0.113.7"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, "10.0.0.1:4321", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.9"}, "10.0.0.1:4321", "198.51.100.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

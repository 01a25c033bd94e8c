package common

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/warpdl/warptube/pkg/tubelib"
)

func TestAddParamsWireNames(t *testing.T) {
	data, err := json.Marshal(AddParams{Items: []AddItem{{URL: "https://youtu.be/a", AudioOnly: true, Dir: "/dl"}}})
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{`"items"`, `"url":"https://youtu.be/a"`, `"audioOnly":true`, `"dir":"/dl"`} {
		if !strings.Contains(got, want) {
			t.Errorf("%s missing %s", got, want)
		}
	}
	for _, absent := range []string{`"id"`, `"quality"`, `"savePath"`} {
		if strings.Contains(got, absent) {
			t.Errorf("%s should omit %s", got, absent)
		}
	}
}

func TestErrorNotificationDecode(t *testing.T) {
	var n ErrorNotification
	raw := `{"id":"j1","error":"Video unavailable","kind":"content_unavailable","retryable":false}`
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		t.Fatal(err)
	}
	if n.Kind != tubelib.KindContentUnavailable || n.ID != "j1" {
		t.Fatalf("decoded %+v", n)
	}
}

func TestAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 0, "127.0.0.1:7879"},
		{"0.0.0.0", 9000, "0.0.0.0:9000"},
		{"::1", 1, "[::1]:1"},
	}
	for _, tt := range tests {
		if got := Addr(tt.host, tt.port); got != tt.want {
			t.Errorf("Addr(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigDirEnv(t *testing.T) {
	t.Setenv(ConfigDirEnv, "/custom/dir")
	if got := ConfigDir(); got != "/custom/dir" {
		t.Fatalf("ConfigDir = %q", got)
	}
}

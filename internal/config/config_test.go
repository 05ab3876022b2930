package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tokenring/internal/queue"
	"tokenring/internal/tokenring"
)

func TestParsePeers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Peer
		wantErr bool
	}{
		{
			name:  "empty string",
			input: "",
			want:  []Peer{},
		},
		{
			name:  "single peer",
			input: "A=127.0.0.1:6000",
			want: []Peer{
				{ID: "A", Addr: "127.0.0.1:6000"},
			},
		},
		{
			name:  "ring order preserved",
			input: "C=127.0.0.1:6002,A=127.0.0.1:6000,B=127.0.0.1:6001",
			want: []Peer{
				{ID: "C", Addr: "127.0.0.1:6002"},
				{ID: "A", Addr: "127.0.0.1:6000"},
				{ID: "B", Addr: "127.0.0.1:6001"},
			},
		},
		{
			name:  "with spaces",
			input: "A = 127.0.0.1:6000 , B = 127.0.0.1:6001",
			want: []Peer{
				{ID: "A", Addr: "127.0.0.1:6000"},
				{ID: "B", Addr: "127.0.0.1:6001"},
			},
		},
		{
			name:    "invalid format - no equals",
			input:   "A:127.0.0.1:6000",
			wantErr: true,
		},
		{
			name:    "invalid format - empty ID",
			input:   "=127.0.0.1:6000",
			wantErr: true,
		},
		{
			name:    "invalid format - empty addr",
			input:   "A=",
			wantErr: true,
		},
		{
			name:    "identity with separator",
			input:   "A;B=127.0.0.1:6000",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeers(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePeers() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if len(got) != len(tt.want) {
					t.Errorf("ParsePeers() length = %d, want %d", len(got), len(tt.want))
					return
				}
				for i := range got {
					if got[i] != tt.want[i] {
						t.Errorf("ParsePeers()[%d] = %v, want %v", i, got[i], tt.want[i])
					}
				}
			}
		})
	}
}

func ringConfig(id string) *Config {
	return &Config{
		NodeID:     id,
		ListenAddr: "127.0.0.1:6000",
		HoldTime:   time.Second,
		Peers: []Peer{
			{ID: "A", Addr: "127.0.0.1:6000"},
			{ID: "B", Addr: "127.0.0.1:6001"},
			{ID: "C", Addr: "127.0.0.1:6002"},
		},
	}
}

func TestConfig_NextHop(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"A", "127.0.0.1:6001"},
		{"B", "127.0.0.1:6002"},
		{"C", "127.0.0.1:6000"},
	}
	for _, tt := range tests {
		got, err := ringConfig(tt.id).NextHop()
		if err != nil {
			t.Fatalf("NextHop(%s) error: %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("NextHop(%s) = %s, want %s", tt.id, got, tt.want)
		}
	}

	cfg := ringConfig("D")
	if _, err := cfg.NextHop(); err == nil {
		t.Error("Expected error for node missing from peer list")
	}

	cfg.NextAddr = "10.0.0.9:6000"
	if got, err := cfg.NextHop(); err != nil || got != "10.0.0.9:6000" {
		t.Errorf("Explicit next hop = %s, %v", got, err)
	}

	dup := ringConfig("A")
	dup.Peers = append(dup.Peers, Peer{ID: "A", Addr: "127.0.0.1:6009"})
	if _, err := dup.NextHop(); err == nil {
		t.Error("Expected error for duplicate peer IDs")
	}
}

func TestConfig_WatchdogPeriod(t *testing.T) {
	cfg := ringConfig("A")
	if got := cfg.WatchdogPeriod(); got != 3*time.Second {
		t.Errorf("Default watchdog = %v, want ring size times hold", got)
	}

	cfg.WatchdogMultiplier = 5
	if got := cfg.WatchdogPeriod(); got != 5*time.Second {
		t.Errorf("Watchdog with multiplier = %v, want 5s", got)
	}

	file := &Config{NodeID: "A", NextAddr: "x:1", HoldTime: time.Second}
	if got := file.WatchdogPeriod(); got != tokenring.DefaultWatchdogMultiplier*time.Second {
		t.Errorf("Watchdog without ring size = %v", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad identity", mutate: func(c *Config) { c.NodeID = "A:1" }, wantErr: true},
		{name: "no listen", mutate: func(c *Config) { c.ListenAddr = "" }, wantErr: true},
		{name: "zero hold", mutate: func(c *Config) { c.HoldTime = 0 }, wantErr: true},
		{name: "bad policy", mutate: func(c *Config) { c.Overflow = "drop-everything" }, wantErr: true},
		{name: "evict policy", mutate: func(c *Config) { c.Overflow = "evict-oldest" }},
		{name: "rate above one", mutate: func(c *Config) { c.CorruptionRate = 1.5 }, wantErr: true},
		{name: "negative rate", mutate: func(c *Config) { c.TokenDropRate = -0.1 }, wantErr: true},
		{name: "no ring link", mutate: func(c *Config) { c.Peers = nil }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ringConfig("A")
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_NodeConfig(t *testing.T) {
	cfg := ringConfig("A")
	cfg.Generator = true
	cfg.Overflow = "evict"
	cfg.QueueCapacity = 4

	nc, err := cfg.NodeConfig()
	if err != nil {
		t.Fatalf("NodeConfig() error: %v", err)
	}
	if nc.ID != "A" || nc.Role != tokenring.Generator {
		t.Errorf("NodeConfig() identity = %s/%s", nc.ID, nc.Role)
	}
	if nc.Overflow != queue.EvictOldest || nc.QueueCapacity != 4 {
		t.Errorf("NodeConfig() queue = %s/%d", nc.Overflow, nc.QueueCapacity)
	}
	if nc.WatchdogPeriod != 3*time.Second {
		t.Errorf("NodeConfig() watchdog = %v", nc.WatchdogPeriod)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader("192.168.0.12:6000\nBob\n2\ntrue\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.NextAddr != "192.168.0.12:6000" || cfg.ListenAddr != ":6000" {
		t.Errorf("Parse() addresses = %s -> %s", cfg.ListenAddr, cfg.NextAddr)
	}
	if cfg.NodeID != "Bob" || cfg.HoldTime != 2*time.Second || !cfg.Generator {
		t.Errorf("Parse() = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Parsed config invalid: %v", err)
	}

	bad := []string{
		"192.168.0.12:6000\nBob\n2\n",
		"192.168.0.12\nBob\n2\ntrue\n",
		"192.168.0.12:6000\nBob\nsoon\ntrue\n",
		"192.168.0.12:6000\nBob\n0\ntrue\n",
		"192.168.0.12:6000\nBob\n2\nmaybe\n",
	}
	for _, in := range bad {
		if _, err := Parse(strings.NewReader(in)); err == nil {
			t.Errorf("Parse(%q) expected error", in)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.txt")
	if err := os.WriteFile(path, []byte("127.0.0.1:6001\nAlice\n1\nfalse\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.NodeID != "Alice" || cfg.Generator {
		t.Errorf("LoadFile() = %+v", cfg)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}

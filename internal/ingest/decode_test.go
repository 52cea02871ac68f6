package ingest

import (
	"errors"
	"testing"
)

func TestDecodeValid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want PacketEvent
	}{
		{
			name: "tagged",
			raw:  `{"src":"AA:BB:CC:00:00:01","dst":"FF:FF:FF:FF:FF:FF","vlan":10}`,
			want: PacketEvent{Src: "AA:BB:CC:00:00:01", Dst: "FF:FF:FF:FF:FF:FF", VLAN: 10},
		},
		{
			name: "vlan absent",
			raw:  `{"src":"A","dst":"B"}`,
			want: PacketEvent{Src: "A", Dst: "B"},
		},
		{
			name: "vlan null",
			raw:  `{"src":"A","dst":"B","vlan":null}`,
			want: PacketEvent{Src: "A", Dst: "B"},
		},
		{
			name: "range bounds",
			raw:  `{"src":"A","dst":"B","vlan":4094}`,
			want: PacketEvent{Src: "A", Dst: "B", VLAN: 4094},
		},
		{
			name: "unknown fields ignored",
			raw:  ` {"src":"A","dst":"B","vlan":1,"len":64} `,
			want: PacketEvent{Src: "A", Dst: "B", VLAN: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ``},
		{"not json", `hello`},
		{"array", `[1,2,3]`},
		{"null", `null`},
		{"missing src", `{"dst":"B"}`},
		{"missing dst", `{"src":"A"}`},
		{"src not string", `{"src":1,"dst":"B"}`},
		{"dst not string", `{"src":"A","dst":false}`},
		{"vlan zero", `{"src":"A","dst":"B","vlan":0}`},
		{"vlan too large", `{"src":"A","dst":"B","vlan":4095}`},
		{"vlan negative", `{"src":"A","dst":"B","vlan":-3}`},
		{"vlan fractional", `{"src":"A","dst":"B","vlan":10.5}`},
		{"vlan string", `{"src":"A","dst":"B","vlan":"10"}`},
		{"vlan object", `{"src":"A","dst":"B","vlan":{}}`},
		{"truncated", `{"src":"A","dst":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			if err == nil {
				t.Fatal("Decode() should fail")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("error %v is not a *ParseError", err)
			}
		})
	}
}

func TestTagged(t *testing.T) {
	if (PacketEvent{}).Tagged() {
		t.Error("zero VLAN should be untagged")
	}
	if !(PacketEvent{VLAN: 7}).Tagged() {
		t.Error("VLAN 7 should be tagged")
	}
}

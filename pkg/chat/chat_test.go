package chat

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare string", `"hello"`, "hello"},
		{"object", `{"text":"hi ","extra":[{"text":"there","color":"red"}]}`, "hi there"},
		{"array", `["a",{"text":"b"},"c"]`, "abc"},
		{"nested extra string", `{"text":"x","extra":["y"]}`, "xy"},
		{"translate", `{"translate":"chat.type.text","with":["Steve","hi"]}`, "chat.type.text Steve hi"},
		{"empty array", `[]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%s) error: %v", tt.raw, err)
			}
			if got := m.PlainText(); got != tt.want {
				t.Errorf("PlainText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse(`{"text":`); err == nil {
		t.Error("Parse should fail on truncated JSON")
	}
}

func TestStringRoundTrip(t *testing.T) {
	original := Colored("warning", "yellow")
	got, err := Parse(original.String())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got.Text != "warning" || got.Color != "yellow" {
		t.Errorf("Parse(String()) = %+v", got)
	}
}

package langdetect

import "testing"

func TestDetectISO6391(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want string
	}{
		{name: "chinese", text: "迈瑞医疗发布最新的化学发光免疫分析仪，业绩稳健增长。", want: "zh"},
		{name: "english", text: "Roche Diagnostics announced a new immunoassay analyzer for hospitals today.", want: "en"},
		{name: "empty", text: "   ", want: ""},
		{name: "too short", text: "ok", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectISO6391(tc.text); got != tc.want {
				t.Fatalf("DetectISO6391(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

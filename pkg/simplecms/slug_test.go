package simplecms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple title", "Landing Page", "landing-page"},
		{"already a slug", "landing-page", "landing-page"},
		{"punctuation collapsed", "Hello, World!  Again", "hello-world-again"},
		{"leading and trailing junk", "  --About Us-- ", "about-us"},
		{"digits kept", "Top 10 Tips", "top-10-tips"},
		{"unicode letters kept", "Café Menü", "café-menü"},
		{"cjk kept", "关于我们", "关于我们"},
		{"empty input", "", ""},
		{"only punctuation", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, simplecms.Slugify(tt.input))
		})
	}
}

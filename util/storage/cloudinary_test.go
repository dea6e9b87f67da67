package storage

import (
	"strings"
	"testing"

	"github.com/bwise1/huddle_karma/config"
)

func TestAvatarURL(t *testing.T) {
	c := NewCloudinary(&config.Config{
		CloudinaryCloudName: "demo",
		CloudinaryAPIKey:    "key",
		CloudinaryAPISecret: "secret",
	})

	url := c.AvatarURL("avatars/night_owl")
	if !strings.HasPrefix(url, "https://res.cloudinary.com/demo/") || !strings.Contains(url, "avatars/night_owl") {
		t.Errorf("AvatarURL() = %q", url)
	}

	if got := c.AvatarURL(""); got != "" {
		t.Errorf("AvatarURL(\"\") = %q; want empty", got)
	}
}

func TestAvatarURLUnconfigured(t *testing.T) {
	for _, c := range []*Cloudinary{nil, NewCloudinary(&config.Config{})} {
		if got := c.AvatarURL("avatars/x"); got != "" {
			t.Errorf("AvatarURL() = %q; want empty", got)
		}
	}
}

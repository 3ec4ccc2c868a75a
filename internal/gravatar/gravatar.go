// Package gravatar builds profile picture URLs for signed in users.
package gravatar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/jon4hz/quizdeck/internal/config"
	"github.com/jon4hz/quizdeck/internal/models"
)

const baseURL = "https://www.gravatar.com/avatar/"

var (
	defaultImages = []string{"404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"}
	ratings       = []string{"g", "pg", "r", "x"}
)

// Resolver turns user emails into Gravatar URLs.
type Resolver struct {
	enabled bool
	query   string
}

// New creates a resolver from cfg. A nil or disabled config yields a
// resolver that never returns a URL.
func New(cfg *config.GravatarConfig) *Resolver {
	if cfg == nil || !cfg.Enabled {
		return &Resolver{}
	}

	params := url.Values{}
	if cfg.DefaultImage != "" {
		params.Set("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		params.Set("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		params.Set("s", strconv.Itoa(cfg.Size))
	}
	return &Resolver{
		enabled: true,
		query:   params.Encode(),
	}
}

// Validate checks the Gravatar options of cfg.
func Validate(cfg *config.GravatarConfig) error {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	if cfg.DefaultImage != "" && !slices.Contains(defaultImages, cfg.DefaultImage) {
		return fmt.Errorf("invalid gravatar default image %q", cfg.DefaultImage)
	}
	if cfg.Rating != "" && !slices.Contains(ratings, cfg.Rating) {
		return fmt.Errorf("invalid gravatar rating %q", cfg.Rating)
	}
	if cfg.Size < 1 || cfg.Size > 2048 {
		return fmt.Errorf("gravatar size must be between 1 and 2048")
	}
	return nil
}

// URL returns the avatar of user, or an empty string if Gravatar is disabled.
func (r *Resolver) URL(user models.User) string {
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if !r.enabled || email == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(email))
	u := baseURL + hex.EncodeToString(hash[:])
	if r.query != "" {
		u += "?" + r.query
	}
	return u
}

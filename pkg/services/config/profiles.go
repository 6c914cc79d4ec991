package config

import (
	"context"
	"fmt"

	"gopkg.in/ini.v1"
)

// Profile is one named set of statistics API credentials.
type Profile struct {
	Name      string
	URL       string
	Token     string
	TokenType string
}

type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, name string) (*Profile, error)
}

type profileRegistry struct {
	cfg *ini.File
}

// NewRegistry loads an ini file where each section is a profile with url,
// token and token_type keys.
func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	return &profileRegistry{cfg: cfg}, nil
}

func (r *profileRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range r.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (r *profileRegistry) GetProfile(_ context.Context, name string) (*Profile, error) {
	section, err := r.cfg.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", name)
	}

	return &Profile{
		Name:      name,
		URL:       section.Key("url").String(),
		Token:     section.Key("token").String(),
		TokenType: section.Key("token_type").String(),
	}, nil
}

// ApplyProfile overrides API settings with the non-empty values of p.
func (c *Config) ApplyProfile(p *Profile) {
	if p == nil {
		return
	}
	if p.URL != "" {
		c.API.URL = p.URL
	}
	if p.Token != "" {
		c.API.Token = p.Token
	}
	if p.TokenType != "" {
		c.API.TokenType = p.TokenType
	}
}

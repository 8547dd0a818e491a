package port

import (
	"context"
	"kelvinbot/internal/core/domain"
)

type TextGenerator interface {
	// GenerateFromPrompt asks the completion service for one reply to the given turns.
	GenerateFromPrompt(ctx context.Context, mode domain.Mode, prompts []domain.Prompt) (string, error)
}

type WeatherProvider interface {
	// Geocode resolves a postal code within a country to coordinates.
	Geocode(ctx context.Context, zip, country, token string) (domain.Geo, error)
	// Current fetches current conditions at the given coordinates.
	Current(ctx context.Context, lat, lon float64, token string, units domain.Units) (domain.Weather, error)
}

type TokenLookup interface {
	// Get returns the credential stored under key.
	Get(key domain.TokenKey) (string, error)
}

package command

import (
	"context"
	"errors"
	"fmt"
	"kelvinbot/internal/core/domain"
	"kelvinbot/internal/core/port"
	"kelvinbot/internal/core/service"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	weatherFailureText = "could not fetch the weather right now."
	geoFailureText     = "could not look up the location right now."
)

// location is the part shared by the weather and geo commands: a fixed
// postal code resolved through the weather provider.
type location struct {
	replier     *service.Replier
	provider    port.WeatherProvider
	tokens      port.TokenLookup
	zipCode     string
	countryCode string
	units       domain.Units
}

type WeatherParams struct {
	Replier     *service.Replier
	Provider    port.WeatherProvider
	Tokens      port.TokenLookup
	ZipCode     string
	CountryCode string
	Units       domain.Units
}

func newLocation(p WeatherParams) (location, error) {
	if p.ZipCode == "" || p.CountryCode == "" {
		return location{}, errors.New("weather location needs a zip code and a country code")
	}

	units := p.Units
	if units == "" {
		units = domain.Imperial
	}

	return location{
		replier:     p.Replier,
		provider:    p.Provider,
		tokens:      p.Tokens,
		zipCode:     p.ZipCode,
		countryCode: p.CountryCode,
		units:       units,
	}, nil
}

func (loc *location) geocode(ctx context.Context) (domain.Geo, string, error) {
	token, err := loc.tokens.Get(domain.OpenWeatherToken)
	if err != nil {
		return domain.Geo{}, "", err
	}

	geo, err := loc.provider.Geocode(ctx, loc.zipCode, loc.countryCode, token)
	if err != nil {
		return domain.Geo{}, "", fmt.Errorf("failed to geocode %s,%s: %w", loc.zipCode, loc.countryCode, err)
	}

	return geo, token, nil
}

type Weather struct {
	location
	l *zerolog.Logger
}

func NewWeather(p WeatherParams) (*Weather, error) {
	loc, err := newLocation(p)
	if err != nil {
		return nil, err
	}

	logger := log.With().Str("handler", "weather").Logger()

	return &Weather{location: loc, l: &logger}, nil
}

func (w *Weather) GetAction() domain.Action {
	return domain.ActionWeather
}

func (w *Weather) Respond(ctx context.Context, timeout time.Duration, request *domain.Request) error {
	l := w.l.With().
		Str("messageId", request.Message.ID).
		Str("channelId", request.Message.ChannelID).
		Stringer("action", request.Action).
		Logger()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	geo, token, err := w.geocode(ctx)
	if err != nil {
		return w.replier.NotifyAndReturnError(ctx, request.Message.ChannelID, weatherFailureText, err)
	}

	l.Debug().Str("location", geo.Name).Msg("fetching current weather")

	weather, err := w.provider.Current(ctx, geo.Lat, geo.Lon, token, w.units)
	if err != nil {
		return w.replier.NotifyAndReturnError(ctx, request.Message.ChannelID, weatherFailureText,
			fmt.Errorf("failed to fetch weather: %w", err))
	}

	_, err = w.replier.Send(ctx, request.Message.ChannelID, weather.Format(w.units))
	return err
}

type Geo struct {
	location
	l *zerolog.Logger
}

func NewGeo(p WeatherParams) (*Geo, error) {
	loc, err := newLocation(p)
	if err != nil {
		return nil, err
	}

	logger := log.With().Str("handler", "geo").Logger()

	return &Geo{location: loc, l: &logger}, nil
}

func (g *Geo) GetAction() domain.Action {
	return domain.ActionGeo
}

func (g *Geo) Respond(ctx context.Context, timeout time.Duration, request *domain.Request) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	geo, _, err := g.geocode(ctx)
	if err != nil {
		return g.replier.NotifyAndReturnError(ctx, request.Message.ChannelID, geoFailureText, err)
	}

	g.l.Debug().
		Str("messageId", request.Message.ID).
		Str("channelId", request.Message.ChannelID).
		Str("location", geo.Name).
		Msg("resolved location")

	_, err = g.replier.Send(ctx, request.Message.ChannelID, geo.String())
	return err
}

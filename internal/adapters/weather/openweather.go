package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"kelvinbot/internal/core/domain"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"
)

const (
	DefaultGeoURL     = "http://api.openweathermap.org/geo/1.0/zip"
	DefaultWeatherURL = "https://api.openweathermap.org/data/2.5/weather"
)

// OpenWeather provides a wrapper for the OpenWeather geocoding and current weather APIs.
type OpenWeather struct {
	geoURL     string
	weatherURL string
	client     *http.Client
}

func NewOpenWeather(geoURL, weatherURL string, client *http.Client) *OpenWeather {
	if geoURL == "" {
		geoURL = DefaultGeoURL
	}
	if weatherURL == "" {
		weatherURL = DefaultWeatherURL
	}
	if client == nil {
		client = &http.Client{}
	}

	return &OpenWeather{
		geoURL:     geoURL,
		weatherURL: weatherURL,
		client:     client,
	}
}

type currentResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (o *OpenWeather) Geocode(ctx context.Context, zip, country, token string) (domain.Geo, error) {
	query := url.Values{}
	query.Set("zip", zip+","+country)
	query.Set("appid", token)

	body, err := o.get(ctx, o.geoURL, query)
	if err != nil {
		return domain.Geo{}, fmt.Errorf("geocoding request failed: %w", err)
	}

	var geo domain.Geo
	if err := json.Unmarshal(body, &geo); err != nil {
		return domain.Geo{}, fmt.Errorf("error unmarshalling geocoding response: %w",
			errors.Join(domain.ErrUpstream, err))
	}

	log.Debug().Str("geo", geo.String()).Msg("OpenWeather geocode")

	return geo, nil
}

func (o *OpenWeather) Current(ctx context.Context, lat, lon float64, token string,
	units domain.Units) (domain.Weather, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("appid", token)
	query.Set("units", string(units))

	body, err := o.get(ctx, o.weatherURL, query)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("weather request failed: %w", err)
	}

	var result currentResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.Weather{}, fmt.Errorf("error unmarshalling weather response: %w",
			errors.Join(domain.ErrUpstream, err))
	}

	if len(result.Weather) == 0 {
		return domain.Weather{}, fmt.Errorf("no conditions in weather response: %w", domain.ErrUpstream)
	}

	log.Debug().Str("name", result.Name).Float64("temp", result.Main.Temp).Msg("OpenWeather current")

	return domain.Weather{
		Name:        result.Name,
		Description: result.Weather[0].Description,
		Humidity:    result.Main.Humidity,
		Temp:        result.Main.Temp,
		FeelsLike:   result.Main.FeelsLike,
		TempMin:     result.Main.TempMin,
		TempMax:     result.Main.TempMax,
		WindSpeed:   result.Wind.Speed,
	}, nil
}

func (o *OpenWeather) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating GET request: %w", err)
	}

	res, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing OpenWeather request: %w", errors.Join(domain.ErrUpstream, err))
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading OpenWeather response: %w", errors.Join(domain.ErrUpstream, err))
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenWeather returned %s: %w", res.Status, domain.ErrUpstream)
	}

	return body, nil
}

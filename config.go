package main

import (
	"kelvinbot/internal/adapters/generator"
	"kelvinbot/internal/adapters/handler"
	"kelvinbot/internal/adapters/sender"
	"kelvinbot/internal/adapters/weather"
	"kelvinbot/internal/core/domain"
	"kelvinbot/internal/core/domain/command"
	"kelvinbot/internal/core/service"

	"github.com/spf13/viper"
)

func setDefaults() {
	viper.SetDefault("bot.log_level", "info")
	viper.SetDefault("bot.prefix", service.DefaultPrefix)
	viper.SetDefault("bot.workers", handler.DefaultWorkers)
	viper.SetDefault("bot.gateways", []string{"discord"})
	viper.SetDefault("bot.secrets_file", "Secrets.toml")
	viper.SetDefault("bot.pinned_directives", true)

	viper.SetDefault("handler.timeout", service.DefaultHandlerTimeout)

	viper.SetDefault("reply.segment_limit", domain.SegmentLimit)
	viper.SetDefault("reply.max_segments", domain.MaxSegments)
	viper.SetDefault("reply.placeholder", service.DefaultPlaceholder)

	viper.SetDefault("chat.base_url", generator.DefaultBaseURL)
	viper.SetDefault("chat.chat_model", generator.DefaultChatModel)
	viper.SetDefault("chat.reason_model", generator.DefaultReasonModel)
	viper.SetDefault("chat.history_size", command.DefaultHistorySize)
	viper.SetDefault("chat.strip_markdown", true)

	viper.SetDefault("weather.geo_url", weather.DefaultGeoURL)
	viper.SetDefault("weather.weather_url", weather.DefaultWeatherURL)
	viper.SetDefault("weather.zip_code", "91776")
	viper.SetDefault("weather.country_code", "US")
	viper.SetDefault("weather.units", string(domain.Imperial))

	viper.SetDefault("telegram.history_size", sender.DefaultTelegramHistorySize)
}

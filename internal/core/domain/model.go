package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

type Role string

const (
	User      Role = "user"
	Assistant Role = "assistant"
	System    Role = "system"
)

// Prompt is one role-tagged turn handed to a chat completion service.
type Prompt struct {
	Prompt string
	Role   Role
}

// Mode selects the completion model variant.
type Mode int

const (
	ModeChat Mode = iota
	ModeReason
)

func (m Mode) String() string {
	if m == ModeReason {
		return "reason"
	}
	return "chat"
}

type Message struct {
	ID         string
	ChannelID  string
	AuthorID   string
	AuthorName string
	Content    string
	Pinned     bool
	Bot        bool
	System     bool
	Timestamp  time.Time
}

// Request is the unit of work handed to a command. It is never mutated after
// the dispatcher builds it and may be shared freely between goroutines.
type Request struct {
	Message   *Message
	Action    Action
	Argument  string
	Directive string
}

type Geo struct {
	Zip     string  `json:"zip"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
}

func (g Geo) String() string {
	return fmt.Sprintf("%s, %s, %s (%s, %s)", g.Zip, g.Name, g.Country, formatFloat(g.Lat), formatFloat(g.Lon))
}

type Weather struct {
	Name        string
	Description string
	Humidity    float64
	Temp        float64
	FeelsLike   float64
	TempMin     float64
	TempMax     float64
	WindSpeed   float64
}

type Units string

const (
	Imperial Units = "imperial"
	Metric   Units = "metric"
	Standard Units = "standard"
)

func (u Units) TemperatureSymbol() string {
	switch u {
	case Metric:
		return "°C"
	case Standard:
		return "K"
	default:
		return "°F"
	}
}

func (u Units) SpeedSymbol() string {
	if u == Imperial {
		return "mph"
	}
	return "m/s"
}

// Format renders the weather as a quoted block: temperatures rounded to whole
// degrees, wind speed to one decimal place.
func (w Weather) Format(u Units) string {
	return fmt.Sprintf(">>> ■ %s\n%s\n%s%% humidity\n%s > %s > %s%s\n%s %s winds",
		w.Name,
		w.Description,
		formatFloat(w.Humidity),
		formatFloat(math.Round(w.TempMax)),
		formatFloat(math.Round(w.FeelsLike)),
		formatFloat(math.Round(w.TempMin)),
		u.TemperatureSymbol(),
		formatFloat(math.Round(w.WindSpeed*10)/10),
		u.SpeedSymbol())
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

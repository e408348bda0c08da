package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills defaults and returns the normalized copy with
// what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.Store.Format = strings.ToLower(strings.TrimSpace(out.Store.Format))
	if out.Store.Format == "" {
		out.Store.Format = "csv"
	}
	if strings.TrimSpace(out.Store.File) == "" {
		if out.Store.Format == "sqlite" {
			out.Store.File = "crm_data.db"
		} else {
			out.Store.File = "crm_data.csv"
		}
	}
	if out.Filter.RadiusKm == 0 {
		out.Filter.RadiusKm = 2.0
	}
	out.Filter.OnlineMarker = strings.TrimSpace(out.Filter.OnlineMarker)
	if out.Filter.OnlineMarker == "" {
		out.Filter.OnlineMarker = "Pedido"
	}
	if out.Geocode.TimeoutSeconds == 0 {
		out.Geocode.TimeoutSeconds = 5
	}
	if out.Geocode.RatePerSec == 0 {
		out.Geocode.RatePerSec = 1
	}
	if out.Sessions.IdleMinutes == 0 {
		out.Sessions.IdleMinutes = 120
	}

	trimmed := map[string]string{}
	for k, v := range out.Store.RawMapping {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			res.addWarn("store.raw_mapping has an empty key or value; entry ignored")
			continue
		}
		trimmed[k] = v
	}
	if len(out.Store.RawMapping) > 0 {
		out.Store.RawMapping = trimmed
	}

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch out.Store.Format {
	case "csv", "sqlite":
	default:
		res.addErr("store.format must be csv or sqlite (got %q)", out.Store.Format)
	}
	if strings.TrimSpace(out.Store.RawPath) == "" {
		res.addWarn("store.raw_path is empty; the roster cannot be rebuilt or reconciled from a scrape.")
	}

	if out.Filter.RadiusKm < 0 {
		res.addErr("filter.radius_km must be > 0")
	} else if out.Filter.RadiusKm > 50 {
		res.addWarn("filter.radius_km is very large (%.1f); the map will show most of the roster.", out.Filter.RadiusKm)
	}

	if out.Geocode.Enabled {
		if out.Geocode.BaseURL != "" {
			u, err := url.Parse(out.Geocode.BaseURL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				res.addErr("geocode.base_url must be an absolute URL")
			}
		}
		if out.Geocode.TimeoutSeconds < 0 {
			res.addErr("geocode.timeout_seconds must be > 0")
		}
		if out.Geocode.RatePerSec < 0 {
			res.addErr("geocode.rate_per_sec must be > 0")
		} else if out.Geocode.RatePerSec > 1 && out.Geocode.BaseURL == "" {
			res.addWarn("geocode.rate_per_sec is %.1f; the public Nominatim instance allows 1 request per second.", out.Geocode.RatePerSec)
		}
		if strings.TrimSpace(out.Geocode.UserAgent) == "" {
			res.addWarn("geocode.user_agent is empty; public Nominatim rejects anonymous clients.")
		}
	}

	if out.Sessions.IdleMinutes < 0 {
		res.addErr("sessions.idle_minutes must be > 0")
	}

	return out, res
}

package httpapi

import (
	"sync/atomic"

	"leadcrm-engine/internal/config"
	"leadcrm-engine/internal/events"
	"leadcrm-engine/internal/filter"
	"leadcrm-engine/internal/session"
	"leadcrm-engine/internal/store"
)

type Deps struct {
	Store    *store.Store
	Sessions *session.Registry

	// Geocoder may be nil; searches then match text only.
	Geocoder filter.Geocoder

	Hub *events.Hub

	// Atomic stores
	CfgVal          *atomic.Value // stores config.Config
	ReconcileStatus *atomic.Value // stores httpapi.ReconcileStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// OnGeocoderKey is called after a new API key was stored.
	OnGeocoderKey func(key string)
}

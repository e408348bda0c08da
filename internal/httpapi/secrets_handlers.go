package httpapi

import (
	"net/http"
	"sync/atomic"

	"leadcrm-engine/internal/config"
	"leadcrm-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal        *atomic.Value // stores config.Config
	OnGeocoderKey func(key string)
}

type setGeocoderKeyReq struct {
	Key string `json:"key"`
}

func (h SecretsHandler) SetGeocoderKey(w http.ResponseWriter, r *http.Request) {
	var req setGeocoderKeyReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetGeocoderKey(secrets.GeocoderKeyringAccount(cfg), req.Key); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring", "failed to store key: "+err.Error())
		return
	}
	if h.OnGeocoderKey != nil {
		h.OnGeocoderKey(req.Key)
	}
	w.WriteHeader(http.StatusNoContent)
}

package httpapi

import (
	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/geo"
	"leadcrm-engine/internal/reconcile"
	"leadcrm-engine/internal/view"
)

type ReconcileStatus struct {
	LastRunAt  string            `json:"last_run_at"`
	LastOkAt   string            `json:"last_ok_at"`
	LastError  string            `json:"last_error"`
	LastReport *reconcile.Report `json:"last_report,omitempty"`
}

type workingSetResp struct {
	Mode       string        `json:"mode"`
	Query      string        `json:"query,omitempty"`
	Center     *geo.Place    `json:"center,omitempty"`
	RadiusKm   float64       `json:"radiusKm,omitempty"`
	Leads      []domain.Lead `json:"leads"`
	Metrics    view.Metrics  `json:"metrics"`
	SelectedID *int64        `json:"selectedId,omitempty"`
}

type mapResp struct {
	Points []view.Point `json:"points"`
	View   view.State   `json:"view"`
}

type selectionResp struct {
	ID     *int64       `json:"id"`
	Lead   *view.Detail `json:"lead"`
	Change bool         `json:"changed"`
}

type createLeadReq struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Address  string  `json:"address"`
	Hours    string  `json:"hours"`
	Website  string  `json:"website"`
	MapsURL  string  `json:"mapsUrl"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

type editFieldReq struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type noteReq struct {
	User string `json:"user"`
	Note string `json:"note"`
}

type listPickReq struct {
	Row *int `json:"row"`
}

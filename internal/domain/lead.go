package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"leadcrm-engine/internal/geo"
)

// Column names of the persisted roster file.
const (
	ColID           = "ID"
	ColName         = "Nombre del Local"
	ColCategory     = "Categoría"
	ColRating       = "Rating"
	ColAddress      = "Dirección"
	ColHours        = "Horario"
	ColURL          = "URL"
	ColWebsite      = "Website"
	ColOrdering     = "Tiene_Pedido"
	ColStatus       = "Status"
	ColSystem       = "Sistema"
	ColVendor       = "Asignado_A"
	ColNotes        = "Notas"
	ColChecklist    = "Checklist"
	ColLog          = "Interaction_Log"
	ColPriority     = "Priority"
	ColLatitude     = "latitude"
	ColLongitude    = "longitude"
	ColReviewCount  = "Cantidad de Reseñas"
	ColFeaturedNote = "Reseña Destacada"
)

// Placeholder is what the detail view shows for a missing value; a cell
// holding it counts as empty.
const Placeholder = "No especificado"

const (
	// DefaultUser signs log entries when the caller gives no name.
	DefaultUser = "Yo"
	// DefaultCategory is given to leads created by hand.
	DefaultCategory = "Hamburguesa"

	MissingAddress = "Dirección no disponible"
	MissingHours   = "Horario no disponible"
)

var (
	ErrInvalidValue = errors.New("invalid value")
	ErrUnknownField = errors.New("unknown field")
	ErrReadOnly     = errors.New("field is not editable")
)

// ChecklistItems is the fixed visit checklist, in display order.
var ChecklistItems = []string{
	"Verificar Teléfono",
	"Enviar Presentación",
	"Llamada Inicial",
	"Agendar Visita",
	"Visita Realizada",
}

type Checklist map[string]bool

// Normalize returns a checklist holding exactly the fixed items; missing
// items are false and unknown keys are dropped.
func (c Checklist) Normalize() Checklist {
	out := make(Checklist, len(ChecklistItems))
	for _, item := range ChecklistItems {
		out[item] = c[item]
	}
	return out
}

func IsChecklistItem(name string) bool {
	for _, item := range ChecklistItems {
		if item == name {
			return true
		}
	}
	return false
}

type Interaction struct {
	User string `json:"user"`
	Date string `json:"date"`
	Note string `json:"note"`
}

// VisibleLogEntries is how many log entries the detail view surfaces.
const VisibleLogEntries = 3

type Lead struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Category          string            `json:"category"`
	Rating            float64           `json:"rating"`
	Address           string            `json:"address"`
	Hours             string            `json:"hours"`
	MapsURL           string            `json:"mapsUrl"`
	Website           string            `json:"website"`
	HasOnlineOrdering string            `json:"hasOnlineOrdering"`
	Status            Status            `json:"status"`
	System            System            `json:"assignedSystem"`
	Vendor            Vendor            `json:"assignedVendor"`
	Notes             string            `json:"notes"`
	Checklist         Checklist         `json:"checklist"`
	Log               []Interaction     `json:"interactionLog"`
	Priority          int               `json:"priority"`
	Coord             *geo.Coord        `json:"coord,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

func (l Lead) Clone() Lead {
	out := l
	out.Checklist = l.Checklist.Normalize()
	out.Log = append([]Interaction(nil), l.Log...)
	if l.Coord != nil {
		c := *l.Coord
		out.Coord = &c
	}
	if l.Extra != nil {
		out.Extra = make(map[string]string, len(l.Extra))
		for k, v := range l.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// PrependNote puts the entry at the head of the log (newest first).
func (l *Lead) PrependNote(e Interaction) {
	l.Log = append([]Interaction{e}, l.Log...)
}

func (l Lead) RecentLog() []Interaction {
	if len(l.Log) <= VisibleLogEntries {
		return l.Log
	}
	return l.Log[:VisibleLogEntries]
}

// SetMapsURL stores the link and re-derives the coordinate pair from it.
func (l *Lead) SetMapsURL(u string) {
	l.MapsURL = u
	if c, ok := geo.ExtractCoordinates(u); ok {
		l.Coord = &c
	} else {
		l.Coord = nil
	}
}

// ParseRating accepts "4,5" and "4.5" alike; anything unparseable is 0.
func ParseRating(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func FormatRating(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CollapseSpace trims s and collapses every whitespace run (NBSP included)
// to one space. Lead names are compared in this form.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u00a0", " ")), " ")
}

// IsBlank reports whether a cell value counts as missing.
func IsBlank(s string) bool {
	t := strings.TrimSpace(s)
	return t == "" || t == Placeholder || strings.EqualFold(t, "nan")
}

// DisplayText falls back to def for blank values.
func DisplayText(s, def string) string {
	if IsBlank(s) {
		return def
	}
	return s
}

// ApplyField sets one column on the lead from its text form. Derived and
// identity columns are read-only; the log only grows through PrependNote.
func (l *Lead) ApplyField(field, value string) error {
	switch field {
	case ColName:
		if strings.TrimSpace(value) == "" {
			return fieldErr(ErrInvalidValue, "name is required")
		}
		l.Name = value
	case ColCategory:
		l.Category = value
	case ColRating:
		l.Rating = ParseRating(value)
	case ColAddress:
		l.Address = value
	case ColHours:
		l.Hours = value
	case ColURL:
		l.SetMapsURL(value)
	case ColWebsite:
		l.Website = value
	case ColOrdering:
		l.HasOnlineOrdering = value
	case ColNotes:
		l.Notes = value
	case ColStatus:
		return l.Status.UnmarshalText([]byte(value))
	case ColSystem:
		return l.System.UnmarshalText([]byte(value))
	case ColVendor:
		return l.Vendor.UnmarshalText([]byte(value))
	case ColPriority:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fieldErr(ErrInvalidValue, "priority must be an integer")
		}
		l.Priority = n
	case ColID, ColLatitude, ColLongitude, ColLog:
		return fieldErr(ErrReadOnly, field)
	default:
		if item, ok := strings.CutPrefix(field, ColChecklist+"."); ok {
			if !IsChecklistItem(item) {
				return fieldErr(ErrUnknownField, field)
			}
			b, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				return fieldErr(ErrInvalidValue, "checklist values are true/false")
			}
			cl := l.Checklist.Normalize()
			cl[item] = b
			l.Checklist = cl
			return nil
		}
		if _, ok := l.Extra[field]; ok {
			l.Extra[field] = value
			return nil
		}
		return fieldErr(ErrUnknownField, field)
	}
	return nil
}

func fieldErr(base error, detail string) error {
	return fmt.Errorf("%w: %s", base, detail)
}

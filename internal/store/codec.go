package store

import (
	"encoding/json"
	"strconv"
	"strings"

	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/geo"
	"leadcrm-engine/internal/table"
)

// defaultColumns are the CRM columns every roster carries, with the value a
// missing cell takes.
var defaultColumns = []struct {
	name string
	def  string
}{
	{domain.ColStatus, domain.StatusToContact.String()},
	{domain.ColNotes, ""},
	{domain.ColChecklist, "{}"},
	{domain.ColLog, "[]"},
	{domain.ColPriority, "0"},
	{domain.ColSystem, domain.SystemNone.String()},
	{domain.ColVendor, domain.VendorUnassigned.String()},
	{domain.ColWebsite, ""},
	{domain.ColOrdering, ""},
	{domain.ColLatitude, ""},
	{domain.ColLongitude, ""},
	{domain.ColID, ""},
}

var knownColumns = map[string]bool{
	domain.ColID: true, domain.ColName: true, domain.ColCategory: true,
	domain.ColRating: true, domain.ColAddress: true, domain.ColHours: true,
	domain.ColURL: true, domain.ColWebsite: true, domain.ColOrdering: true,
	domain.ColStatus: true, domain.ColSystem: true, domain.ColVendor: true,
	domain.ColNotes: true, domain.ColChecklist: true, domain.ColLog: true,
	domain.ColPriority: true, domain.ColLatitude: true, domain.ColLongitude: true,
}

// LoadReport counts what decoding had to repair.
type LoadReport struct {
	Source       string `json:"source"`
	Rows         int    `json:"rows"`
	BuiltFromRaw bool   `json:"builtFromRaw"`
	AssignedIDs  int    `json:"assignedIds"`
	LegacyStatus int    `json:"legacyStatus"`
	LegacySystem int    `json:"legacySystem"`
	LegacyVendor int    `json:"legacyVendor"`
	BadChecklist int    `json:"badChecklist"`
	BadLog       int    `json:"badLog"`
}

// EnsureDefaults adds any missing CRM column, fills blank cells of the
// columns that must never be blank and normalizes Rating. Running it twice
// changes nothing the second time.
func EnsureDefaults(t *table.Table) {
	if !t.Has(domain.ColName) {
		t.AddColumn(domain.ColName, "")
	}
	for _, c := range defaultColumns {
		t.AddColumn(c.name, c.def)
	}

	fill := map[string]string{
		domain.ColStatus:    domain.StatusToContact.String(),
		domain.ColChecklist: "{}",
		domain.ColLog:       "[]",
		domain.ColPriority:  "0",
		domain.ColSystem:    domain.SystemNone.String(),
		domain.ColVendor:    domain.VendorUnassigned.String(),
	}
	ratingIdx := t.Index(domain.ColRating)
	for r := range t.Rows {
		for len(t.Rows[r]) < len(t.Columns) {
			t.Rows[r] = append(t.Rows[r], "")
		}
		for col, def := range fill {
			i := t.Index(col)
			if v := strings.TrimSpace(t.Rows[r][i]); v == "" || strings.EqualFold(v, "nan") {
				t.Rows[r][i] = def
			}
		}
		if i := t.Index(domain.ColNotes); strings.EqualFold(strings.TrimSpace(t.Rows[r][i]), "nan") {
			t.Rows[r][i] = ""
		}
		if ratingIdx >= 0 {
			t.Rows[r][ratingIdx] = domain.FormatRating(domain.ParseRating(t.Rows[r][ratingIdx]))
		}
	}
}

// decode turns a defaulted table into leads. Ids that are missing, invalid or
// repeated are assigned after the highest id seen, in row order.
func decode(t table.Table, rep *LoadReport) ([]domain.Lead, int64) {
	leads := make([]domain.Lead, len(t.Rows))
	seen := map[int64]bool{}
	var maxID int64
	var needID []int

	for r := range t.Rows {
		rec := t.Record(r)
		l := domain.Lead{
			Name:              rec[domain.ColName],
			Category:          rec[domain.ColCategory],
			Rating:            domain.ParseRating(rec[domain.ColRating]),
			Address:           rec[domain.ColAddress],
			Hours:             rec[domain.ColHours],
			Website:           rec[domain.ColWebsite],
			HasOnlineOrdering: rec[domain.ColOrdering],
			Notes:             rec[domain.ColNotes],
		}
		l.SetMapsURL(rec[domain.ColURL])
		if l.Coord == nil {
			l.Coord = storedCoord(rec[domain.ColLatitude], rec[domain.ColLongitude])
		}

		var ok bool
		if l.Status, ok = domain.ParseStatus(rec[domain.ColStatus]); !ok {
			rep.LegacyStatus++
		}
		if l.System, ok = domain.ParseSystem(rec[domain.ColSystem]); !ok {
			rep.LegacySystem++
		}
		if l.Vendor, ok = domain.ParseVendor(rec[domain.ColVendor]); !ok {
			rep.LegacyVendor++
		}

		var cl domain.Checklist
		if err := json.Unmarshal([]byte(rec[domain.ColChecklist]), &cl); err != nil {
			rep.BadChecklist++
		}
		l.Checklist = cl.Normalize()

		if err := json.Unmarshal([]byte(rec[domain.ColLog]), &l.Log); err != nil {
			l.Log = nil
			rep.BadLog++
		}

		l.Priority = parsePriority(rec[domain.ColPriority])

		for col, v := range rec {
			if knownColumns[col] {
				continue
			}
			if l.Extra == nil {
				l.Extra = map[string]string{}
			}
			l.Extra[col] = v
		}

		id, err := strconv.ParseInt(strings.TrimSpace(rec[domain.ColID]), 10, 64)
		if err != nil || id <= 0 || seen[id] {
			needID = append(needID, r)
		} else {
			l.ID = id
			seen[id] = true
			if id > maxID {
				maxID = id
			}
		}
		leads[r] = l
	}

	for _, r := range needID {
		maxID++
		leads[r].ID = maxID
	}
	rep.AssignedIDs += len(needID)
	rep.Rows = len(leads)
	return leads, maxID + 1
}

// encode writes leads under the given header, in slice order.
func encode(columns []string, leads []domain.Lead) table.Table {
	t := table.Table{Columns: append([]string(nil), columns...)}
	t.Rows = make([][]string, 0, len(leads))
	for _, l := range leads {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = cellValue(l, col)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cellValue(l domain.Lead, col string) string {
	switch col {
	case domain.ColID:
		return strconv.FormatInt(l.ID, 10)
	case domain.ColName:
		return l.Name
	case domain.ColCategory:
		return l.Category
	case domain.ColRating:
		return domain.FormatRating(l.Rating)
	case domain.ColAddress:
		return l.Address
	case domain.ColHours:
		return l.Hours
	case domain.ColURL:
		return l.MapsURL
	case domain.ColWebsite:
		return l.Website
	case domain.ColOrdering:
		return l.HasOnlineOrdering
	case domain.ColStatus:
		return l.Status.String()
	case domain.ColSystem:
		return l.System.String()
	case domain.ColVendor:
		return l.Vendor.String()
	case domain.ColNotes:
		return l.Notes
	case domain.ColChecklist:
		b, _ := json.Marshal(l.Checklist.Normalize())
		return string(b)
	case domain.ColLog:
		log := l.Log
		if log == nil {
			log = []domain.Interaction{}
		}
		b, _ := json.Marshal(log)
		return string(b)
	case domain.ColPriority:
		return strconv.Itoa(l.Priority)
	case domain.ColLatitude:
		if l.Coord == nil {
			return ""
		}
		return strconv.FormatFloat(l.Coord.Lat, 'f', -1, 64)
	case domain.ColLongitude:
		if l.Coord == nil {
			return ""
		}
		return strconv.FormatFloat(l.Coord.Lon, 'f', -1, 64)
	default:
		return l.Extra[col]
	}
}

// storedCoord reads a persisted pair. Only used for rows whose URL carries no
// coordinates (manually created leads).
func storedCoord(lat, lon string) *geo.Coord {
	la, err1 := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	lo, err2 := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	c := geo.Coord{Lat: la, Lon: lo}
	if !c.Valid() || (la == 0 && lo == 0) {
		return nil
	}
	return &c
}

func parsePriority(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	// pandas writes integer columns with gaps as floats ("2.0")
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f)
	}
	return 0
}

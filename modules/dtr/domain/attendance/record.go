package attendance

import (
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/clocktime"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/identity"
)

// Record is one employee's attendance for one day of the import month.
type Record struct {
	EmployeeID       uint                `json:"employee_id"`
	EmployeeName     string              `json:"employee_name"`
	Day              int                 `json:"day"`
	AMArrival        clocktime.Value     `json:"am_arrival"`
	AMDeparture      clocktime.Value     `json:"am_departure"`
	PMArrival        clocktime.Value     `json:"pm_arrival"`
	PMDeparture      clocktime.Value     `json:"pm_departure"`
	UndertimeHours   int                 `json:"undertime_hours"`
	UndertimeMinutes int                 `json:"undertime_minutes"`
	Confidence       identity.Confidence `json:"confidence"`
	Placeholder      bool                `json:"placeholder,omitempty"`
	Sheet            string              `json:"sheet,omitempty"`
	Line             int                 `json:"line,omitempty"`
}

type Reason string

const (
	ReasonNoDay        Reason = "no day"
	ReasonInvalidTime  Reason = "invalid time"
	ReasonNoTimeData   Reason = "no time data"
	ReasonUnmapped     Reason = "unmapped identity"
	ReasonDuplicateDay Reason = "duplicate day"
)

// Result is the outcome for one source row: a Record, or a skip Reason.
type Result struct {
	Sheet      string              `json:"sheet,omitempty"`
	Line       int                 `json:"line"`
	ExternalID int64               `json:"external_id,omitempty"`
	SourceName string              `json:"source_name,omitempty"`
	Resolution identity.Resolution `json:"resolution"`
	Record     *Record             `json:"record,omitempty"`
	Skip       Reason              `json:"skip,omitempty"`
	Detail     string              `json:"detail,omitempty"`
}

func (r Result) Ready() bool {
	return r.Record != nil
}

// Status is "ready" or the skip reason.
func (r Result) Status() string {
	if r.Ready() {
		return "ready"
	}
	return string(r.Skip)
}

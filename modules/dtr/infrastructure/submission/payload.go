// Package submission carries reviewed batches across the persistence boundary.
package submission

import (
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/aggregates/importrun"
)

// RecordPayload is one day on the wire. Absent times are "".
type RecordPayload struct {
	Day             int    `json:"day"`
	EmployeeID      uint   `json:"employee_id"`
	EmployeeName    string `json:"employee_name"`
	AMArrival       string `json:"am_arrival"`
	AMDeparture     string `json:"am_departure"`
	PMArrival       string `json:"pm_arrival"`
	PMDeparture     string `json:"pm_departure"`
	UndertimeHour   int    `json:"undertime_hour"`
	UndertimeMinute int    `json:"undertime_minute"`
}

type BatchPayload struct {
	RunID   string          `json:"run_id,omitempty"`
	Month   string          `json:"month"`
	Records []RecordPayload `json:"records"`
}

func NewBatchPayload(b importrun.Batch) BatchPayload {
	out := BatchPayload{
		Month:   b.Month,
		Records: make([]RecordPayload, 0, len(b.Records)),
	}
	for _, r := range b.Records {
		out.Records = append(out.Records, RecordPayload{
			Day:             r.Day,
			EmployeeID:      r.EmployeeID,
			EmployeeName:    r.EmployeeName,
			AMArrival:       r.AMArrival.String(),
			AMDeparture:     r.AMDeparture.String(),
			PMArrival:       r.PMArrival.String(),
			PMDeparture:     r.PMDeparture.String(),
			UndertimeHour:   r.UndertimeHours,
			UndertimeMinute: r.UndertimeMinutes,
		})
	}
	return out
}

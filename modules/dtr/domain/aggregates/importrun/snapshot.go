package importrun

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/attendance"
)

// Snapshot is the stored form of a Run.
type Snapshot struct {
	ID        uuid.UUID           `json:"id"`
	Month     string              `json:"month"`
	Status    Status              `json:"status"`
	FileName  string              `json:"file_name"`
	Format    string              `json:"format"`
	Source    []byte              `json:"source,omitempty"`
	Summary   *Summary            `json:"summary,omitempty"`
	Batch     []attendance.Record `json:"batch,omitempty"`
	Submitted int                 `json:"submitted,omitempty"`
	LastError string              `json:"last_error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func (r Run) Snapshot() Snapshot {
	return Snapshot{
		ID:        r.id,
		Month:     r.month,
		Status:    r.status,
		FileName:  r.fileName,
		Format:    r.format,
		Source:    r.source,
		Summary:   r.summary,
		Batch:     r.batch,
		Submitted: r.submitted,
		LastError: r.lastError,
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}
}

func Hydrate(s Snapshot) Run {
	return Run{
		id:        s.ID,
		month:     s.Month,
		status:    s.Status,
		fileName:  s.FileName,
		format:    s.Format,
		source:    s.Source,
		summary:   s.Summary,
		batch:     s.Batch,
		submitted: s.Submitted,
		lastError: s.LastError,
		createdAt: s.CreatedAt,
		updatedAt: s.UpdatedAt,
	}
}

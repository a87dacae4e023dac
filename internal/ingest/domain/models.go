// Package domain holds the upload contracts of the ingestion pipeline.
package domain

import (
	"context"
	"time"

	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/pkg/db/pagination"
	"gorm.io/datatypes"
)

// Upload is one export file handed to the pipeline. Status and Class are
// optional hints; when empty they are inferred from the file.
type Upload struct {
	Filename string
	Content  []byte
	Status   bookingdomain.Status
	Class    bookingdomain.RecordClass
	// Format selects the OTB trailing-block layout; empty means the default.
	Format string
}

// Report is the caller-visible outcome of a successful upload.
type Report struct {
	BatchID      string                    `json:"batch_id"`
	Filename     string                    `json:"filename"`
	Kind         string                    `json:"kind"`
	RecordClass  bookingdomain.RecordClass `json:"record_class"`
	Status       bookingdomain.Status      `json:"status"`
	Appended     int                       `json:"appended"`
	SnapshotDate string                    `json:"snapshot_date"`
	HeaderRow    int                       `json:"header_row"`
	Dropped      map[string]int            `json:"dropped"`
	DroppedTotal int                       `json:"dropped_total"`
}

// Outcome of an ingestion attempt as recorded in the batch log.
const (
	OutcomeAppended = "appended"
	OutcomeRejected = "rejected"
)

// Batch is one row of the ingestion attempt log. It is written best-effort
// after every upload, whether it was appended or rejected.
type Batch struct {
	ID           string            `gorm:"primaryKey;type:text" json:"batch_id"`
	Filename     string            `gorm:"type:text;not null" json:"filename"`
	FilenameKey  string            `gorm:"type:text;index" json:"-"`
	Kind         string            `gorm:"type:text" json:"kind"`
	RecordClass  string            `gorm:"type:text" json:"record_class"`
	Status       string            `gorm:"type:text" json:"status"`
	Outcome      string            `gorm:"type:text;not null" json:"outcome"`
	Appended     int               `gorm:"not null" json:"appended"`
	Dropped      datatypes.JSONMap `json:"dropped"`
	Error        string            `gorm:"type:text" json:"error,omitempty"`
	SnapshotDate string            `gorm:"type:text" json:"snapshot_date"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at"`
}

// TableName sets the database table name.
func (Batch) TableName() string { return "ingest_batches" }

type ListBatchesRequest struct {
	pagination.Pagination
}

type ListBatchesResponse struct {
	Batches  []Batch              `json:"batches"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

type BatchRepository interface {
	Insert(ctx context.Context, batch *Batch) error
	// List returns batches newest first, starting strictly before the cursor
	// batch when one is given.
	List(ctx context.Context, before string, limit int) ([]*Batch, error)
}

// BatchEvent announces a recorded ingestion attempt to downstream consumers.
type BatchEvent struct {
	BatchID      string         `json:"batch_id"`
	Filename     string         `json:"filename"`
	Kind         string         `json:"kind"`
	RecordClass  string         `json:"record_class,omitempty"`
	Status       string         `json:"status,omitempty"`
	Outcome      string         `json:"outcome"`
	Appended     int            `json:"appended"`
	Dropped      map[string]int `json:"dropped,omitempty"`
	Error        string         `json:"error,omitempty"`
	SnapshotDate string         `json:"snapshot_date"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// EventPublisher delivers batch events. Delivery is best-effort: a failed
// publish never fails the upload.
type EventPublisher interface {
	PublishBatch(ctx context.Context, event BatchEvent) error
}

type Service interface {
	Ingest(ctx context.Context, upload Upload) (Report, error)
	ListBatches(ctx context.Context, req ListBatchesRequest) (ListBatchesResponse, error)
}

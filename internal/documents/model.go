package documents

import "time"

// Monitoring status values for a document. A document moves to
// MonitoringChecking while a pass runs and lands on one of the verdict
// states or MonitoringError; MonitoringError recovers on the next
// successful pass.
const (
	MonitoringPending      = "pending"
	MonitoringChecking     = "checking"
	MonitoringCompliant    = "compliant"
	MonitoringNonCompliant = "non_compliant"
	MonitoringFlagged      = "flagged"
	MonitoringError        = "error"
)

// CheckingStaleAfter bounds how long a document may sit in MonitoringChecking
// before ListDue offers it again. A process that dies mid-pass never clears
// the checking status, so without this cutoff the document would be orphaned.
const CheckingStaleAfter = 30 * time.Minute

// Document represents an uploaded legal document owned by a user.
type Document struct {
	ID               string
	UserID           string
	FileName         string
	OriginalFilename string
	MimeType         string
	ContentType      string
	SizeBytes        int64
	StorageProvider  string
	StorageKey       string
	ExtractedTextKey string
	ExtractedAt      *time.Time

	MonitoringEnabled bool
	MonitoringStatus  string
	RiskScore         int
	LastScannedAt     *time.Time
	NextScanDue       *time.Time

	CreatedAt time.Time
}

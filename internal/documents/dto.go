package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID        string     `json:"documentId"`
	FileName          string     `json:"fileName"`
	MimeType          string     `json:"mimeType"`
	SizeBytes         int64      `json:"sizeBytes"`
	MonitoringEnabled bool       `json:"monitoringEnabled"`
	MonitoringStatus  string     `json:"monitoringStatus"`
	RiskScore         int        `json:"riskScore"`
	LastScannedAt     *time.Time `json:"lastScannedAt,omitempty"`
	NextScanDue       *time.Time `json:"nextScanDue,omitempty"`
	UploadedAt        time.Time  `json:"uploadedAt"`
}

func toResponse(doc Document) DocumentResponse {
	status := doc.MonitoringStatus
	if status == "" {
		status = MonitoringPending
	}
	return DocumentResponse{
		DocumentID:        doc.ID,
		FileName:          doc.FileName,
		MimeType:          doc.MimeType,
		SizeBytes:         doc.SizeBytes,
		MonitoringEnabled: doc.MonitoringEnabled,
		MonitoringStatus:  status,
		RiskScore:         doc.RiskScore,
		LastScannedAt:     doc.LastScannedAt,
		NextScanDue:       doc.NextScanDue,
		UploadedAt:        doc.CreatedAt,
	}
}

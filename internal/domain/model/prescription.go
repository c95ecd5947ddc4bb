package model

import "time"

// PrescriptionAsset is an uploaded prescription document. At most one asset
// per order is active; a superseded asset is kept for audit.
type PrescriptionAsset struct {
	ID            int64
	OrderID       string
	FilePath      string
	ContentType   string
	Verdict       PrescriptionStatus
	VerdictReason string
	Active        bool
	UploadedAt    time.Time
	VerifiedAt    *time.Time
}

// VerificationResult is the verdict produced for a prescription document.
type VerificationResult struct {
	Valid     bool
	Reason    string
	Extracted map[string]string
}

var allowedContentTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"application/pdf": {},
}

// AllowedContentType reports whether the document type may be submitted for
// verification at all.
func AllowedContentType(contentType string) bool {
	_, ok := allowedContentTypes[contentType]
	return ok
}

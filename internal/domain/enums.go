package domain

// DocumentType classifies an uploaded financial source document.
type DocumentType string

const (
	DocTypeForm16        DocumentType = "form16"
	DocTypeBankStatement DocumentType = "bank_statement"
	DocTypeAIS           DocumentType = "ais"
	DocTypeOther         DocumentType = "other"
)

// KnownDocumentTypes maps accepted document type strings to their DocumentType.
var KnownDocumentTypes = map[string]DocumentType{
	"form16":         DocTypeForm16,
	"bank_statement": DocTypeBankStatement,
	"ais":            DocTypeAIS,
	"other":          DocTypeOther,
}

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// ExtractionStatus represents the extraction lifecycle of a Document.
type ExtractionStatus string

const (
	ExtractionStatusPending     ExtractionStatus = "pending"
	ExtractionStatusExtracting  ExtractionStatus = "extracting"
	ExtractionStatusExtracted   ExtractionStatus = "extracted"
	ExtractionStatusUnextracted ExtractionStatus = "unextracted"
)

// ReturnStatus is the lifecycle state of a ReturnRecord.
type ReturnStatus string

const (
	ReturnStatusDraft       ReturnStatus = "draft"
	ReturnStatusReconciled  ReturnStatus = "reconciled"
	ReturnStatusComputed    ReturnStatus = "computed"
	ReturnStatusReadyToFile ReturnStatus = "ready_to_file"
	ReturnStatusFiled       ReturnStatus = "filed"
	ReturnStatusRejected    ReturnStatus = "rejected"
)

// RegimeSelection records who picked the regime on a computed return.
type RegimeSelection string

const (
	RegimeSelectedByEngine RegimeSelection = "recommended"
	RegimeSelectedByUser   RegimeSelection = "user"
)

// ResolutionKind is how a reconciled field value was arrived at.
type ResolutionKind string

const (
	ResolutionAgreement  ResolutionKind = "agreement"
	ResolutionTrustRank  ResolutionKind = "trust-rank"
	ResolutionConfidence ResolutionKind = "confidence"
	ResolutionAutoFixed  ResolutionKind = "auto-fixed"
	ResolutionOverride   ResolutionKind = "override"
	ResolutionManual     ResolutionKind = "manual"
	ResolutionUnresolved ResolutionKind = "unresolved"
)

package types

// ArchiveType identifies the guest-side archive format, normally derived
// from the destination file extension.
type ArchiveType string

const (
	ArchiveTypeZip ArchiveType = "zip"
	ArchiveTypeTar ArchiveType = "tar"
)

// ArchiveRequest is an immutable description of one archive operation.
// ArchivePath defaults to SourcePath plus the format extension when empty.
type ArchiveRequest struct {
	SourcePath  string      `json:"source_path"`
	ArchivePath string      `json:"archive_path,omitempty"`
	Password    string      `json:"-"`
	Type        ArchiveType `json:"type,omitempty"`
}

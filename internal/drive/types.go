package drive

import (
	"time"

	drive "google.golang.org/api/drive/v3"
)

// FileInfo is the flattened file metadata returned to tools.
type FileInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size,omitempty"`
	CreatedTime  time.Time `json:"createdTime"`
	ModifiedTime time.Time `json:"modifiedTime"`

	// WebViewLink opens the file in the matching Google editor or viewer.
	WebViewLink string `json:"webViewLink,omitempty"`

	Parents []string `json:"parents,omitempty"`
	Owners  []string `json:"owners,omitempty"`
	Shared  bool     `json:"shared"`
	Trashed bool     `json:"trashed"`
}

// IsFolder reports whether the entry is a folder.
func (f *FileInfo) IsFolder() bool {
	return f.MimeType == FolderMimeType
}

// ListOptions filters a file listing. Query uses Drive's search syntax, see
// https://developers.google.com/drive/api/guides/search-files.
type ListOptions struct {
	Query      string
	MaxResults int
	OrderBy    string // e.g. "folder,modifiedTime desc,name"
	PageToken  string
}

// UploadOptions carries optional metadata for an upload.
type UploadOptions struct {
	ParentFolders []string
	Description   string

	// MimeType of the content; Drive detects it when empty.
	MimeType string
}

func toFileInfo(f *drive.File) *FileInfo {
	if f == nil {
		return &FileInfo{}
	}

	info := &FileInfo{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		Size:        f.Size,
		WebViewLink: f.WebViewLink,
		Parents:     f.Parents,
		Shared:      f.Shared,
		Trashed:     f.Trashed,
	}

	if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		info.CreatedTime = t
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		info.ModifiedTime = t
	}
	for _, owner := range f.Owners {
		info.Owners = append(info.Owners, owner.EmailAddress)
	}

	return info
}

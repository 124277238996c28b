package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/graviton-studio/logos-I/internal/google"
)

// FolderMimeType is the MIME type Google Drive uses for folders.
const FolderMimeType = "application/vnd.google-apps.folder"

const fileFields = "id, name, mimeType, size, createdTime, modifiedTime, webViewLink, parents, owners, shared, trashed"

// Client wraps the Google Drive service for one user.
type Client struct {
	svc    *drive.Service
	userID string
}

// NewClient creates a Drive client authenticated by the given token source.
func NewClient(ctx context.Context, userID string, ts oauth2.TokenSource) (*Client, error) {
	httpClient := google.NewHTTPClient(ctx, ts)

	svc, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create Drive service: %w", err)
	}

	return &Client{svc: svc, userID: userID}, nil
}

// UserID returns the user this client acts for.
func (c *Client) UserID() string {
	return c.userID
}

// ListFiles lists files matching the options. Trashed files are excluded
// unless the query asks for them explicitly.
func (c *Client) ListFiles(ctx context.Context, opts *ListOptions) ([]*FileInfo, string, error) {
	call := c.svc.Files.List().
		Context(ctx).
		Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")"))

	query := "trashed=false"
	if opts != nil {
		if opts.Query != "" {
			query = opts.Query
			if !strings.Contains(query, "trashed") {
				query += " and trashed=false"
			}
		}
		if opts.MaxResults > 0 {
			call = call.PageSize(int64(opts.MaxResults))
		}
		if opts.OrderBy != "" {
			call = call.OrderBy(opts.OrderBy)
		}
		if opts.PageToken != "" {
			call = call.PageToken(opts.PageToken)
		}
	}
	call = call.Q(query)

	fileList, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("list files: %w", err)
	}

	files := make([]*FileInfo, len(fileList.Files))
	for i, f := range fileList.Files {
		files[i] = toFileInfo(f)
	}
	return files, fileList.NextPageToken, nil
}

// SearchFiles is a convenience wrapper over ListFiles with a name-contains
// query in Drive's search syntax.
func (c *Client) SearchFiles(ctx context.Context, name string, maxResults int) ([]*FileInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("search term is required")
	}

	// Single quotes in the term would break out of the query literal.
	escaped := strings.ReplaceAll(name, `'`, `\'`)
	files, _, err := c.ListFiles(ctx, &ListOptions{
		Query:      fmt.Sprintf("name contains '%s'", escaped),
		MaxResults: maxResults,
	})
	return files, err
}

// GetFile retrieves metadata for one file.
func (c *Client) GetFile(ctx context.Context, fileID string) (*FileInfo, error) {
	if fileID == "" {
		return nil, fmt.Errorf("fileID is required")
	}

	file, err := c.svc.Files.Get(fileID).
		Context(ctx).
		Fields(googleapi.Field(fileFields)).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileID, err)
	}
	return toFileInfo(file), nil
}

// DownloadFile streams the content of a file. The caller closes the reader.
func (c *Client) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	if fileID == "" {
		return nil, fmt.Errorf("fileID is required")
	}

	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	return resp.Body, nil
}

// UploadFile uploads content as a new file.
func (c *Client) UploadFile(ctx context.Context, name string, content io.Reader, opts *UploadOptions) (*FileInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("file name is required")
	}
	if content == nil {
		return nil, fmt.Errorf("file content is required")
	}

	file := &drive.File{Name: name}
	if opts != nil {
		file.Parents = opts.ParentFolders
		file.Description = opts.Description
		file.MimeType = opts.MimeType
	}

	created, err := c.svc.Files.Create(file).
		Context(ctx).
		Media(content, googleapi.ContentType(file.MimeType)).
		Fields(googleapi.Field(fileFields)).
		Do()
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	return toFileInfo(created), nil
}

// CreateFolder creates a folder, optionally inside parent folders.
func (c *Client) CreateFolder(ctx context.Context, name string, parentFolders []string) (*FileInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("folder name is required")
	}

	file := &drive.File{
		Name:     name,
		MimeType: FolderMimeType,
		Parents:  parentFolders,
	}

	created, err := c.svc.Files.Create(file).
		Context(ctx).
		Fields(googleapi.Field(fileFields)).
		Do()
	if err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	return toFileInfo(created), nil
}

// DeleteFile permanently deletes a file or folder.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if fileID == "" {
		return fmt.Errorf("fileID is required")
	}

	if err := c.svc.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete file %s: %w", fileID, err)
	}
	return nil
}

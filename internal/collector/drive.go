// Package collector pulls the store system's daily CSV exports out of a
// shared Drive folder and loads them into the database. It is the only
// writer of the sales ledger.
package collector

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

type DriveService struct {
	srv *drive.Service
}

func NewDriveService(credentialsJSON []byte) (*DriveService, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	client := config.Client(context.Background())

	srv, err := drive.NewService(context.Background(), option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive client: %w", err)
	}

	return &DriveService{srv: srv}, nil
}

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

// ListCSVFiles returns the non-trashed CSV files in the folder.
func (s *DriveService) ListCSVFiles(folderID string) ([]*File, error) {
	if folderID == "" {
		folderID = "root"
	}

	result, err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", folderID)).
		Fields("files(id, name, mimeType, modifiedTime, size)").
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list files: %w", err)
	}

	var files []*File
	for _, f := range result.Files {
		if strings.ToLower(filepath.Ext(f.Name)) != ".csv" {
			continue
		}
		files = append(files, &File{
			ID:           f.Id,
			Name:         f.Name,
			MimeType:     f.MimeType,
			ModifiedTime: f.ModifiedTime,
			Size:         f.Size,
		})
	}

	return files, nil
}

func (s *DriveService) DownloadFile(fileID string, w io.Writer) error {
	resp, err := s.srv.Files.Get(fileID).Download()
	if err != nil {
		return fmt.Errorf("unable to download file: %w", err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

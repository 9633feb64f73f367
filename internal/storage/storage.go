package storage

import "context"

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal S3-compatible operations the order-sheet
// archive needs: the run uploads, the export command lists and downloads.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}

// LatestKey picks the lexicographically greatest key, which for date-named
// order sheets (order-sheets/2025-07-10.csv) is the newest one. Empty input
// yields an empty key.
func LatestKey(objects []ObjectInfo) string {
	var latest string
	for _, obj := range objects {
		if obj.Key > latest {
			latest = obj.Key
		}
	}
	return latest
}

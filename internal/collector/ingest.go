package collector

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/storelab/replenish/internal/cache"
	"github.com/storelab/replenish/internal/domain"
	"github.com/storelab/replenish/internal/repository"
)

// IngestService turns downloaded exports into database rows and keeps the
// inventory snapshot cache in step with the ledger.
type IngestService struct {
	drive      *DriveService
	sales      repository.SalesRepository
	items      repository.ItemRepository
	promotions repository.PromotionRepository
	snapshots  cache.SnapshotCache
}

func NewIngestService(
	drive *DriveService,
	sales repository.SalesRepository,
	items repository.ItemRepository,
	promotions repository.PromotionRepository,
	snapshots cache.SnapshotCache,
) *IngestService {
	return &IngestService{
		drive:      drive,
		sales:      sales,
		items:      items,
		promotions: promotions,
		snapshots:  snapshots,
	}
}

// SyncFolder ingests every CSV export in the Drive folder.
func (s *IngestService) SyncFolder(ctx context.Context, folderID string) error {
	if s.drive == nil {
		return fmt.Errorf("drive service is not configured")
	}

	files, err := s.drive.ListCSVFiles(folderID)
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.IngestFile(ctx, f.ID, f.Name); err != nil {
			return fmt.Errorf("failed to ingest %s: %w", f.Name, err)
		}
	}

	log.Info().Int("files", len(files)).Str("folder_id", folderID).Msg("collector sync completed")
	return nil
}

// IngestFile downloads one Drive file and loads it.
func (s *IngestService) IngestFile(ctx context.Context, fileID, name string) error {
	if s.drive == nil {
		return fmt.Errorf("drive service is not configured")
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(s.drive.DownloadFile(fileID, pw))
	}()

	return s.ingest(ctx, name, pr)
}

// IngestLocalFile loads an export already on disk; the CLI ingest path.
func (s *IngestService) IngestLocalFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return s.ingest(ctx, path, f)
}

func (s *IngestService) ingest(ctx context.Context, name string, r io.Reader) error {
	switch KindOfFile(baseName(name)) {
	case KindSales:
		records, err := ParseSalesCSV(r)
		if err != nil {
			return err
		}
		if err := s.sales.UpsertRecords(ctx, records); err != nil {
			return err
		}
		log.Info().Str("file", name).Int("rows", len(records)).Msg("sales export ingested")
		return s.refreshSnapshots(ctx)

	case KindItems:
		items, err := ParseItemsCSV(r)
		if err != nil {
			return err
		}
		if err := s.items.Upsert(ctx, items); err != nil {
			return err
		}
		log.Info().Str("file", name).Int("rows", len(items)).Msg("item master ingested")
		return nil

	case KindPromotions:
		promos, err := ParsePromotionsCSV(r)
		if err != nil {
			return err
		}
		if err := s.promotions.Upsert(ctx, promos); err != nil {
			return err
		}
		log.Info().Str("file", name).Int("rows", len(promos)).Msg("promotion schedule ingested")
		return nil

	default:
		log.Warn().Str("file", name).Msg("unrecognized export skipped")
		return nil
	}
}

// refreshSnapshots pushes the latest per-item stock figures into the cache so
// the next forecast run reads fresh numbers without hitting the ledger.
func (s *IngestService) refreshSnapshots(ctx context.Context) error {
	latest, err := s.sales.LatestStocks(ctx)
	if err != nil {
		return err
	}

	snapshots := make([]domain.InventorySnapshot, 0, len(latest))
	for _, snap := range latest {
		snapshots = append(snapshots, snap)
	}
	return s.snapshots.SetBatch(ctx, snapshots)
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taekup/taekup-server/app/models"
	"github.com/taekup/taekup-server/app/repository"
	"github.com/taekup/taekup-server/internal/pkg/importer"
	"github.com/taekup/taekup-server/internal/pkg/s3archive"
)

// maxRosterUploadSize caps roster uploads at 5 MB, plenty for any real studio
const maxRosterUploadSize = 5 * 1024 * 1024

// HandleRosterImport accepts a multipart CSV upload of a club's student
// roster, maps the columns heuristically and persists the students.
// Rows that collide with existing (club, email) pairs are skipped, so the
// operation is safe to repeat with the same file.
func HandleRosterImport(c *fiber.Ctx) error {
	clubID, err := strconv.ParseUint(c.Params("clubID"), 10, 32)
	if err != nil || clubID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_club_id")
	}

	repos := repository.GetGlobalFactory()
	club, err := repos.GetClubRepository().GetByID(uint(clubID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "club_not_found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "club_lookup_failed")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "missing_file")
	}
	if fileHeader.Size > maxRosterUploadSize {
		return jsonError(c, fiber.StatusRequestEntityTooLarge, "file_too_large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "unreadable_file")
	}
	defer file.Close()

	rawCSV, err := io.ReadAll(io.LimitReader(file, maxRosterUploadSize+1))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "unreadable_file")
	}

	report, err := importer.ParseRoster(bytes.NewReader(rawCSV), club.ID)
	if err != nil {
		if errors.Is(err, importer.ErrEmptyFile) {
			return jsonError(c, fiber.StatusBadRequest, "empty_file")
		}
		return jsonError(c, fiber.StatusBadRequest, "unparseable_file")
	}

	inserted, err := repos.GetStudentRepository().CreateBatch(report.Students)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "import_failed")
	}
	duplicates := report.Imported - inserted

	batchID := uuid.NewString()
	archiveRoster(club.ID, batchID, rawCSV)

	metadata, _ := json.Marshal(fiber.Map{
		"club_id":    club.ID,
		"batch_id":   batchID,
		"file_name":  fileHeader.Filename,
		"total":      report.Total,
		"inserted":   inserted,
		"duplicates": duplicates,
		"skipped":    report.Skipped,
	})
	if err := repos.GetActivityLogRepository().Create(&models.ActivityLog{
		EventType:   "roster.imported",
		Description: "roster import for club " + club.Name,
		Metadata:    string(metadata),
	}); err != nil {
		log.Warnf("failed to log roster import for club %d: %v", club.ID, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"batch_id":   batchID,
		"total":      report.Total,
		"imported":   inserted,
		"duplicates": duplicates,
		"skipped":    report.Skipped,
		"errors":     report.Errors,
	})
}

// archiveRoster stores the uploaded file in S3 when archiving is configured.
// Failures are logged only; the import itself already succeeded.
func archiveRoster(clubID uint, batchID string, rawCSV []byte) {
	cfg, err := s3archive.LoadConfig()
	if err != nil {
		log.Warnf("roster archive config invalid: %v", err)
		return
	}
	if !cfg.IsEnabled() {
		return
	}
	client, err := s3archive.NewClient(cfg)
	if err != nil {
		log.Warnf("roster archive client init failed: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	key := cfg.GetObjectKey(clubID, batchID, time.Now().UTC())
	if err := client.ArchiveRoster(ctx, key, rawCSV); err != nil {
		log.Warnf("roster archive upload failed: %v", err)
	}
}

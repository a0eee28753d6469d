package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/sketch-eval-api/internal/models"
)

const recordBatchSize = 500

// EvaluationRecordRepository persists results tables keyed by file name.
type EvaluationRecordRepository interface {
	Find(ctx context.Context, fileName string) (*models.ResultsTable, error)
	Save(ctx context.Context, table *models.ResultsTable) error
	ListFiles(ctx context.Context) ([]models.ResultsFile, error)
}

type evaluationRecordRepository struct {
	db *gorm.DB
}

// NewEvaluationRecordRepository constructs the repository.
func NewEvaluationRecordRepository(db *gorm.DB) EvaluationRecordRepository {
	return &evaluationRecordRepository{db: db}
}

func (r *evaluationRecordRepository) Find(ctx context.Context, fileName string) (*models.ResultsTable, error) {
	var file models.ResultsFile
	err := r.db.WithContext(ctx).Where("file_name = ?", fileName).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var columns []string
	if err := json.Unmarshal(file.Columns, &columns); err != nil {
		return nil, fmt.Errorf("decode stored columns for %s: %w", fileName, err)
	}

	var rows []models.StoredEvaluationRecord
	if err := r.db.WithContext(ctx).
		Where("file_name = ?", fileName).
		Order("row_index ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	table := &models.ResultsTable{
		FileName: fileName,
		Columns:  columns,
		Records:  make([]models.EvaluationRecord, 0, len(rows)),
		LoadedAt: file.LoadedAt,
	}
	for _, row := range rows {
		table.Records = append(table.Records, models.EvaluationRecord{
			Index:       row.RowIndex,
			Category:    row.Category,
			Prediction:  row.Prediction,
			IsCorrect:   row.IsCorrect,
			MatchReason: row.MatchReason,
			CountryCode: row.CountryCode,
			Timestamp:   row.Timestamp,
			RawStroke:   row.RawStroke,
		})
	}

	return table, nil
}

func (r *evaluationRecordRepository) Save(ctx context.Context, table *models.ResultsTable) error {
	columns, err := json.Marshal(table.Columns)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_name = ?", table.FileName).Delete(&models.StoredEvaluationRecord{}).Error; err != nil {
			return err
		}

		file := models.ResultsFile{
			FileName: table.FileName,
			Columns:  columns,
			Rows:     table.Len(),
			LoadedAt: table.LoadedAt,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "file_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"columns", "rows", "loaded_at", "updated_at"}),
		}).Create(&file).Error; err != nil {
			return err
		}

		if table.Len() == 0 {
			return nil
		}

		rows := make([]models.StoredEvaluationRecord, 0, table.Len())
		for _, record := range table.Records {
			rows = append(rows, models.StoredEvaluationRecord{
				FileName:    table.FileName,
				RowIndex:    record.Index,
				Category:    record.Category,
				Prediction:  record.Prediction,
				IsCorrect:   record.IsCorrect,
				MatchReason: record.MatchReason,
				CountryCode: record.CountryCode,
				Timestamp:   record.Timestamp,
				RawStroke:   record.RawStroke,
			})
		}
		return tx.CreateInBatches(&rows, recordBatchSize).Error
	})
}

func (r *evaluationRecordRepository) ListFiles(ctx context.Context) ([]models.ResultsFile, error) {
	var files []models.ResultsFile
	err := r.db.WithContext(ctx).Order("file_name ASC").Find(&files).Error
	return files, err
}

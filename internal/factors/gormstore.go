package factors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/factortrace/factortrace/internal/emissions"
)

// OpenPostgres opens the factor database and returns a migrated store.
func OpenPostgres(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening factor database: %w", err)
	}
	return NewGormStore(db)
}

// factorRecord is the relational shape of an emission factor. Rows are
// append-only: superseding a factor inserts a newer row for the same
// lookup key.
type factorRecord struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Category       string          `gorm:"index:idx_factor_lookup,priority:1;not null"`
	Value          decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	Unit           string          `gorm:"not null"`
	Source         string          `gorm:"not null"`
	SourceRef      string
	Region         string `gorm:"index:idx_factor_lookup,priority:2"`
	Year           int    `gorm:"index:idx_factor_lookup,priority:3"`
	UncertaintyLow *float64
	UncertaintyUp  *float64
	Metadata       datatypes.JSON
	Quality        datatypes.JSON
	CreatedAt      time.Time
	UpdatedAt      time.Time `gorm:"index"`
}

func (factorRecord) TableName() string {
	return "emission_factors"
}

// GormStore is a Store backed by a relational database via GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the factor table and returns a store over db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&factorRecord{}); err != nil {
		return nil, fmt.Errorf("migrating emission_factors: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveFactor validates and inserts the factor, assigning id and
// timestamps.
func (s *GormStore) SaveFactor(ctx context.Context, factor *emissions.EmissionFactor) (*emissions.EmissionFactor, error) {
	if violations := factor.Validate(); len(violations) > 0 {
		return nil, &emissions.ValidationError{Violations: violations}
	}

	record, err := toRecord(factor)
	if err != nil {
		return nil, err
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("saving emission factor: %w", err)
	}
	return fromRecord(record)
}

// QueryFactors returns matches ordered by region-specificity, vintage,
// then update recency, satisfying the Store ordering contract.
func (s *GormStore) QueryFactors(ctx context.Context, q Query) ([]*emissions.EmissionFactor, error) {
	query := s.db.WithContext(ctx).
		Model(&factorRecord{}).
		Where("category = ?", string(q.Category))

	if q.Region != nil {
		query = query.Where("region = ?", *q.Region)
	}
	if q.Year != nil {
		query = query.Where("year = ?", *q.Year)
	}
	if q.MaxYear != nil {
		query = query.Where("year <= ?", *q.MaxYear)
	}

	var records []*factorRecord
	err := query.
		Order("(region <> '') DESC").
		Order("year DESC").
		Order("updated_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("querying emission factors: %w", err)
	}

	factors := make([]*emissions.EmissionFactor, 0, len(records))
	for _, record := range records {
		factor, err := fromRecord(record)
		if err != nil {
			return nil, err
		}
		factors = append(factors, factor)
	}
	return factors, nil
}

func toRecord(f *emissions.EmissionFactor) (*factorRecord, error) {
	record := &factorRecord{
		ID:        f.ID,
		Category:  string(f.Category),
		Value:     f.Value,
		Unit:      f.Unit,
		Source:    string(f.Source),
		SourceRef: f.SourceRef,
		Region:    f.Region,
		Year:      f.Year,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	if f.Uncertainty != nil {
		lower, upper := f.Uncertainty.LowerPct, f.Uncertainty.UpperPct
		record.UncertaintyLow = &lower
		record.UncertaintyUp = &upper
	}
	if len(f.Metadata) > 0 {
		raw, err := json.Marshal(f.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encoding factor metadata: %w", err)
		}
		record.Metadata = datatypes.JSON(raw)
	}
	if f.Quality != nil {
		raw, err := json.Marshal(f.Quality)
		if err != nil {
			return nil, fmt.Errorf("encoding factor quality: %w", err)
		}
		record.Quality = datatypes.JSON(raw)
	}
	return record, nil
}

func fromRecord(r *factorRecord) (*emissions.EmissionFactor, error) {
	factor := &emissions.EmissionFactor{
		ID:        r.ID,
		Category:  emissions.Scope3Category(r.Category),
		Value:     r.Value,
		Unit:      r.Unit,
		Source:    emissions.FactorSource(r.Source),
		SourceRef: r.SourceRef,
		Region:    r.Region,
		Year:      r.Year,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.UncertaintyLow != nil && r.UncertaintyUp != nil {
		factor.Uncertainty = &emissions.UncertaintyRange{
			LowerPct: *r.UncertaintyLow,
			UpperPct: *r.UncertaintyUp,
		}
	}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &factor.Metadata); err != nil {
			return nil, fmt.Errorf("decoding factor metadata: %w", err)
		}
	}
	if len(r.Quality) > 0 {
		var quality emissions.PedigreeScore
		if err := json.Unmarshal(r.Quality, &quality); err != nil {
			return nil, fmt.Errorf("decoding factor quality: %w", err)
		}
		factor.Quality = &quality
	}
	return factor, nil
}

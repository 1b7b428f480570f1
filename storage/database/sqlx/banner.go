package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kayembe/elimu/core/banner"
)

type bannerRow struct {
	ID           string     `db:"id"`
	Title        string     `db:"title"`
	Description  string     `db:"description"`
	ImageURL     string     `db:"image_url"`
	TargetURL    string     `db:"target_url"`
	Visibility   string     `db:"visibility"`
	IsActive     bool       `db:"is_active"`
	ScheduleDate *time.Time `db:"schedule_date"`
	ExpiryDate   *time.Time `db:"expiry_date"`
	Order        int        `db:"display_order"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func newBannerRow(bnr banner.Banner) bannerRow {
	return bannerRow{
		ID:           bnr.ID,
		Title:        bnr.Title,
		Description:  bnr.Description,
		ImageURL:     bnr.ImageURL,
		TargetURL:    bnr.TargetURL,
		Visibility:   bnr.Visibility,
		IsActive:     bnr.IsActive,
		ScheduleDate: bnr.ScheduleDate,
		ExpiryDate:   bnr.ExpiryDate,
		Order:        bnr.Order,
		CreatedAt:    bnr.CreatedAt,
		UpdatedAt:    bnr.UpdatedAt,
	}
}

func (row bannerRow) toBanner() banner.Banner {
	return banner.Banner{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description,
		ImageURL:     row.ImageURL,
		TargetURL:    row.TargetURL,
		Visibility:   row.Visibility,
		IsActive:     row.IsActive,
		ScheduleDate: row.ScheduleDate,
		ExpiryDate:   row.ExpiryDate,
		Order:        row.Order,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

type bannerRepository struct {
	db *sqlx.DB
}

func NewBannerRepository(db *sqlx.DB) banner.Repository {
	return &bannerRepository{db: db}
}

func (repo *bannerRepository) CreateBanner(ctx context.Context, bnr banner.Banner) (banner.Banner, error) {
	if bnr.ID == "" {
		bnr.ID = uuid.NewString()
	}
	q := `
	INSERT INTO banner (id, title, description, image_url, target_url, visibility, is_active,
	                    schedule_date, expiry_date, display_order, created_at, updated_at)
	VALUES (:id, :title, :description, :image_url, :target_url, :visibility, :is_active,
	        :schedule_date, :expiry_date, :display_order, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newBannerRow(bnr)); err != nil {
		return banner.Banner{}, errors.Wrap(err, "creating banner")
	}
	return bnr, nil
}

func (repo *bannerRepository) QueryAllBanners(ctx context.Context) ([]banner.Banner, error) {
	var rows []bannerRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM banner`); err != nil {
		return nil, errors.Wrap(err, "querying banners")
	}
	banners := make([]banner.Banner, 0, len(rows))
	for _, row := range rows {
		banners = append(banners, row.toBanner())
	}
	return banners, nil
}

func (repo *bannerRepository) GetBannerByID(ctx context.Context, id string) (banner.Banner, error) {
	var row bannerRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM banner WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return banner.Banner{}, banner.ErrNotFound
		}
		return banner.Banner{}, errors.Wrap(err, "getting banner")
	}
	return row.toBanner(), nil
}

func (repo *bannerRepository) UpdateBanner(ctx context.Context, bnr banner.Banner) (banner.Banner, error) {
	q := `
	UPDATE banner
	SET title = :title, description = :description, image_url = :image_url, target_url = :target_url,
	    visibility = :visibility, is_active = :is_active, schedule_date = :schedule_date, expiry_date = :expiry_date,
	    display_order = :display_order, updated_at = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newBannerRow(bnr))
	if err != nil {
		return banner.Banner{}, errors.Wrap(err, "updating banner")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return banner.Banner{}, banner.ErrNotFound
	}
	return bnr, nil
}

func (repo *bannerRepository) DeleteBannersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM banner WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting banners")
	}
	return nil
}

package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/kayembe/elimu/core/banner"
)

type bannerRepository struct {
	db *bannerTable
}

func NewBannerRepository(db *DB) banner.Repository {
	return &bannerRepository{db: db.banner}
}

func (repo *bannerRepository) CreateBanner(_ context.Context, bnr banner.Banner) (banner.Banner, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if bnr.ID == "" {
		bnr.ID = uuid.NewString()
	}
	repo.db.table[bnr.ID] = &bnr
	return bnr, nil
}

func (repo *bannerRepository) QueryAllBanners(_ context.Context) ([]banner.Banner, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	banners := make([]banner.Banner, 0, len(repo.db.table))
	for _, bnr := range repo.db.table {
		banners = append(banners, *bnr)
	}
	return banners, nil
}

func (repo *bannerRepository) GetBannerByID(_ context.Context, id string) (banner.Banner, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if bnr, ok := repo.db.table[id]; ok {
		return *bnr, nil
	}
	return banner.Banner{}, banner.ErrNotFound
}

func (repo *bannerRepository) UpdateBanner(_ context.Context, bnr banner.Banner) (banner.Banner, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[bnr.ID]; !ok {
		return banner.Banner{}, banner.ErrNotFound
	}
	repo.db.table[bnr.ID] = &bnr
	return bnr, nil
}

func (repo *bannerRepository) DeleteBannersByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

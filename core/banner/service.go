package banner

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("banner not found")
)

var nowFunc = time.Now // mockable

// stockImages stands in for a real asset pipeline; uploads pick one
// deterministically from the file name.
var stockImages = []string{
	"https://images.unsplash.com/photo-1501504905252-473c47e087f8?w=1200",
	"https://images.unsplash.com/photo-1513258496099-48168024aec0?w=1200",
	"https://images.unsplash.com/photo-1516321318423-f06f85e504b3?w=1200",
	"https://images.unsplash.com/photo-1522202176988-66273c2fd55f?w=1200",
	"https://images.unsplash.com/photo-1546410531-bb4caa6b424d?w=1200",
}

type (
	Repository interface {
		CreateBanner(ctx context.Context, bnr Banner) (Banner, error)
		QueryAllBanners(ctx context.Context) ([]Banner, error)
		GetBannerByID(ctx context.Context, id string) (Banner, error)
		UpdateBanner(ctx context.Context, bnr Banner) (Banner, error)
		DeleteBannersByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nb NewBanner) (Banner, error) {
	all, err := svc.repo.QueryAllBanners(ctx)
	if err != nil {
		return Banner{}, errors.Wrap(err, "querying banners")
	}

	enabled := true
	if nb.IsActive != nil {
		enabled = *nb.IsActive
	}

	now := nowFunc().UTC()
	bnr := Banner{
		Title:        nb.Title,
		Description:  nb.Description,
		ImageURL:     nb.ImageURL,
		TargetURL:    nb.TargetURL,
		Visibility:   nb.Visibility,
		IsActive:     enabled,
		ScheduleDate: nb.ScheduleDate,
		ExpiryDate:   nb.ExpiryDate,
		Order:        len(all), // appended last
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateBanner(ctx, bnr)
}

// Query lists every banner for the admin console, ordered by display order.
func (svc *Service) Query(ctx context.Context) ([]Banner, error) {
	all, err := svc.repo.QueryAllBanners(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying banners")
	}
	sortByOrder(all)
	return all, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Banner, error) {
	return svc.repo.GetBannerByID(ctx, id)
}

// Active returns the banners currently visible to learners: enabled "now"
// banners plus enabled "scheduled" ones inside their schedule window. Drafts
// and admin-disabled banners never show.
func (svc *Service) Active(ctx context.Context) ([]Banner, error) {
	all, err := svc.repo.QueryAllBanners(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying banners")
	}

	now := nowFunc().UTC()
	active := make([]Banner, 0, len(all))
	for _, bnr := range all {
		if !bnr.isActive(now) {
			continue
		}
		active = append(active, bnr)
	}
	sortByOrder(active)
	return active, nil
}

func (bnr Banner) isActive(now time.Time) bool {
	if !bnr.IsActive {
		return false
	}
	if bnr.ExpiryDate != nil && now.After(*bnr.ExpiryDate) {
		return false
	}
	switch bnr.Visibility {
	case VisibilityNow:
		return true
	case VisibilityScheduled:
		return bnr.ScheduleDate != nil && !now.Before(*bnr.ScheduleDate)
	}
	return false
}

func (svc *Service) Update(ctx context.Context, id string, ub UpdateBanner) (Banner, error) {
	bnr, err := svc.repo.GetBannerByID(ctx, id)
	if err != nil {
		return Banner{}, err
	}

	if ub.Title != nil {
		bnr.Title = *ub.Title
	}
	if ub.Description != nil {
		bnr.Description = *ub.Description
	}
	if ub.ImageURL != nil {
		bnr.ImageURL = *ub.ImageURL
	}
	if ub.TargetURL != nil {
		bnr.TargetURL = *ub.TargetURL
	}
	if ub.Visibility != nil {
		bnr.Visibility = *ub.Visibility
	}
	if ub.IsActive != nil {
		bnr.IsActive = *ub.IsActive
	}
	if ub.ScheduleDate != nil {
		bnr.ScheduleDate = ub.ScheduleDate
	}
	if ub.ExpiryDate != nil {
		bnr.ExpiryDate = ub.ExpiryDate
	}
	bnr.UpdatedAt = nowFunc().UTC()

	return svc.repo.UpdateBanner(ctx, bnr)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteBannersByID(ctx, ids...)
}

// Reorder rewrites display order to match ids. Banners absent from ids keep
// their relative order after the reordered ones.
func (svc *Service) Reorder(ctx context.Context, ids []string) error {
	all, err := svc.repo.QueryAllBanners(ctx)
	if err != nil {
		return errors.Wrap(err, "querying banners")
	}

	position := make(map[string]int, len(ids))
	for i, id := range ids {
		position[id] = i
	}

	sortByOrder(all)
	next := len(ids)
	for _, bnr := range all {
		pos, ok := position[bnr.ID]
		if !ok {
			pos = next
			next++
		}
		if bnr.Order == pos {
			continue
		}
		bnr.Order = pos
		bnr.UpdatedAt = nowFunc().UTC()
		if _, err = svc.repo.UpdateBanner(ctx, bnr); err != nil {
			return errors.Wrapf(err, "reordering banner %s", bnr.ID)
		}
	}
	return nil
}

// UploadImage simulates an asset upload: the file name hashes onto one of a
// fixed set of stock images.
func (svc *Service) UploadImage(filename string) string {
	h := fnv.New32a()
	fmt.Fprint(h, filename)
	return stockImages[int(h.Sum32())%len(stockImages)]
}

func sortByOrder(banners []Banner) {
	sort.SliceStable(banners, func(i, j int) bool { return banners[i].Order < banners[j].Order })
}

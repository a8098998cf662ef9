package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"linksnap/internal/metrics"
	"linksnap/internal/models"
	"linksnap/pkg/utils"

	"gorm.io/gorm"
)

const (
	maxTargetLength = 2048
	maxSlugLength   = 50
	autoSlugLength  = 6
)

var (
	customSlugPattern  = regexp.MustCompile(`^[a-z0-9_-]+$`)
	resolveSlugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

type LinkService struct {
	db            *gorm.DB
	auditService  *AuditService
	metrics       metrics.Recorder
	codeGenerator func(int) string
}

func NewLinkService(db *gorm.DB, auditService *AuditService, rec metrics.Recorder) *LinkService {
	return &LinkService{
		db:            db,
		auditService:  auditService,
		metrics:       rec,
		codeGenerator: utils.GenerateSlug,
	}
}

type CreateLinkInput struct {
	UserID    uint
	TargetURL string
	Title     string
	Slug      string // optional custom slug
	ExpiresAt *time.Time
	IPAddress string // for the audit trail
}

func (s *LinkService) Create(ctx context.Context, in CreateLinkInput) (*models.Link, error) {
	if err := validateTarget(in.TargetURL); err != nil {
		return nil, err
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(time.Now()) {
		return nil, invalid("expires_at", "must be in the future")
	}

	var slug string
	if in.Slug != "" {
		if len(in.Slug) > maxSlugLength {
			return nil, invalid("slug", fmt.Sprintf("must be at most %d characters", maxSlugLength))
		}
		if !customSlugPattern.MatchString(in.Slug) {
			return nil, invalid("slug", "only lowercase letters, digits, hyphen and underscore are allowed")
		}
		taken, err := s.slugInUse(ctx, in.Slug)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrSlugTaken
		}
		slug = in.Slug
	} else {
		for {
			slug = s.codeGenerator(autoSlugLength)
			taken, err := s.slugInUse(ctx, slug)
			if err != nil {
				return nil, err
			}
			if !taken {
				break
			}
		}
	}

	link := models.Link{
		UserID:    in.UserID,
		Slug:      slug,
		TargetURL: in.TargetURL,
		Title:     in.Title,
		ExpiresAt: in.ExpiresAt,
	}

	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	s.auditService.LogAction(&in.UserID, "CREATE_LINK", link.Slug, map[string]interface{}{
		"target_url": in.TargetURL,
	}, in.IPAddress)
	s.metrics.IncLinkCreated()

	return &link, nil
}

// Resolve maps a slug to its active link. Soft-deleted links are invisible;
// expired links yield ErrExpired, a distinct outcome from ErrNotFound.
func (s *LinkService) Resolve(ctx context.Context, slug string) (*models.Link, error) {
	if !resolveSlugPattern.MatchString(slug) {
		return nil, ErrNotFound
	}

	var link models.Link
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve slug: %w", err)
	}

	if link.Expired(time.Now()) {
		return nil, ErrExpired
	}

	return &link, nil
}

type ListLinksInput struct {
	UserID  uint
	Page    int
	PerPage int
	Status  string // "", "active", "inactive"
	Keyword string
	SortBy  string
	SortDir string
}

var sortableColumns = map[string]bool{
	"id":         true,
	"slug":       true,
	"title":      true,
	"target_url": true,
	"hits":       true,
	"created_at": true,
	"updated_at": true,
	"expires_at": true,
}

func (s *LinkService) List(ctx context.Context, in ListLinksInput) ([]models.Link, int64, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.PerPage < 1 || in.PerPage > 100 {
		in.PerPage = 20
	}

	q := s.db.WithContext(ctx).Model(&models.Link{}).Where("user_id = ?", in.UserID)

	now := time.Now()
	switch in.Status {
	case "active":
		q = q.Where("expires_at IS NULL OR expires_at > ?", now)
	case "inactive":
		q = q.Where("expires_at IS NOT NULL AND expires_at <= ?", now)
	}

	if in.Keyword != "" {
		pattern := "%" + in.Keyword + "%"
		q = q.Where("slug LIKE ? OR title LIKE ? OR target_url LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count links: %w", err)
	}

	sortBy := in.SortBy
	if !sortableColumns[sortBy] {
		sortBy = "created_at"
	}
	dir := "desc"
	if in.SortDir == "asc" {
		dir = "asc"
	}

	var links []models.Link
	err := q.Order(sortBy + " " + dir).
		Offset((in.Page - 1) * in.PerPage).
		Limit(in.PerPage).
		Find(&links).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list links: %w", err)
	}

	return links, total, nil
}

// Get fetches a link by id scoped to its owner. A link owned by someone
// else is reported as not found.
func (s *LinkService) Get(ctx context.Context, userID, linkID uint) (*models.Link, error) {
	var link models.Link
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", linkID, userID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	return &link, nil
}

type UpdateLinkInput struct {
	TargetURL   *string
	Title       *string
	ExpiresAt   *time.Time
	ClearExpiry bool
}

func (s *LinkService) Update(ctx context.Context, userID, linkID uint, in UpdateLinkInput) (*models.Link, error) {
	link, err := s.Get(ctx, userID, linkID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.TargetURL != nil {
		if err := validateTarget(*in.TargetURL); err != nil {
			return nil, err
		}
		updates["target_url"] = *in.TargetURL
	}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.ClearExpiry {
		updates["expires_at"] = nil
	} else if in.ExpiresAt != nil {
		if !in.ExpiresAt.After(time.Now()) {
			return nil, invalid("expires_at", "must be in the future")
		}
		updates["expires_at"] = *in.ExpiresAt
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(link).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update link: %w", err)
		}
	}

	return link, nil
}

// Delete soft-deletes an owned link. The row and its redirects survive for
// analytics until a hard delete cascades them away.
func (s *LinkService) Delete(ctx context.Context, userID, linkID uint, ip string) error {
	link, err := s.Get(ctx, userID, linkID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(link).Error; err != nil {
		return fmt.Errorf("delete link: %w", err)
	}

	s.auditService.LogAction(&userID, "DELETE_LINK", link.Slug, nil, ip)
	s.metrics.IncLinkDeleted()
	return nil
}

func (s *LinkService) BulkDelete(ctx context.Context, userID uint, ids []uint, ip string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&models.Link{})
	if res.Error != nil {
		return 0, fmt.Errorf("bulk delete links: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		s.auditService.LogAction(&userID, "DELETE_LINK", fmt.Sprintf("bulk:%d", res.RowsAffected), nil, ip)
	}
	return res.RowsAffected, nil
}

// ExportCSV streams the owner's links as CSV.
func (s *LinkService) ExportCSV(ctx context.Context, userID uint, baseURL string, w io.Writer) error {
	var links []models.Link
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&links).Error
	if err != nil {
		return fmt.Errorf("export links: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Slug", "Short URL", "Target URL", "Title", "Hits", "Expires At", "Created At"}); err != nil {
		return err
	}
	for _, l := range links {
		expires := ""
		if l.ExpiresAt != nil {
			expires = l.ExpiresAt.Format(time.RFC3339)
		}
		row := []string{
			l.Slug,
			l.ShortURL(baseURL),
			l.TargetURL,
			l.Title,
			strconv.FormatInt(l.Hits, 10),
			expires,
			l.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *LinkService) slugInUse(ctx context.Context, slug string) (bool, error) {
	var existing models.Link
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return true, nil
}

func validateTarget(target string) error {
	if target == "" {
		return invalid("target_url", "is required")
	}
	if len(target) > maxTargetLength {
		return invalid("target_url", fmt.Sprintf("must be at most %d characters", maxTargetLength))
	}
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("target_url", "must be a well-formed http(s) URL")
	}
	return nil
}

// Package service assigns display names and maintains identity mappings.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wordbridge/linguameter/internal/clock"
	"github.com/wordbridge/linguameter/internal/config"
	domain "github.com/wordbridge/linguameter/internal/identity/domain"
	"github.com/wordbridge/linguameter/internal/identity/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Repo  domain.Repository
	Cfg   config.Config
	Clock clock.Clock
	Log   *zap.Logger
}

type Service struct {
	repo       domain.Repository
	privileged map[string]struct{}
	clock      clock.Clock
	log        *zap.Logger
}

func NewService(p Params) domain.Service {
	privileged := make(map[string]struct{}, len(p.Cfg.PrivilegedDeviceUIDs))
	for _, uid := range p.Cfg.PrivilegedDeviceUIDs {
		privileged[uid] = struct{}{}
	}
	return &Service{
		repo:       p.Repo,
		privileged: privileged,
		clock:      p.Clock,
		log:        p.Log.Named("identity.service"),
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) error {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return domain.ErrInvalidRequest
	}

	existing, err := s.repo.Get(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	now := s.clock.Now()
	if errors.Is(err, domain.ErrNotFound) {
		kind := s.kindFor(userID)
		name, err := s.nextDisplayName(ctx, kind)
		if err != nil {
			return err
		}
		rec := domain.Record{
			UserID:      userID,
			DisplayName: name,
			Kind:        kind,
			DeviceInfo:  &req.DeviceInfo,
			IsNative:    req.IsNative,
			CreatedAt:   now,
		}
		if err := s.repo.Upsert(ctx, userID, repository.EncodeRecord(rec)); err != nil {
			return err
		}
		s.log.Info("registered user identity",
			zap.String("user_id", userID),
			zap.String("display_name", name),
			zap.String("kind", string(kind)),
		)
		return nil
	}

	// Existing mapping: only refresh device metadata, and only when it
	// actually changed. DisplayName and kind are immutable here.
	if existing.DeviceInfo != nil && *existing.DeviceInfo == req.DeviceInfo && existing.IsNative == req.IsNative {
		return nil
	}
	return s.repo.Upsert(ctx, userID, repository.DeviceInfoFields(req.DeviceInfo, req.IsNative, now))
}

func (s *Service) PromotePrivileged(ctx context.Context, devices []domain.DeviceRef) error {
	for _, device := range devices {
		if strings.TrimSpace(device.UserID) == "" || strings.TrimSpace(device.Name) == "" {
			s.log.Warn("skipping device without userId or name",
				zap.String("user_id", device.UserID),
				zap.String("name", device.Name),
			)
			continue
		}
		if err := s.promote(ctx, device); err != nil {
			s.log.Error("failed to promote device",
				zap.String("user_id", device.UserID),
				zap.String("name", device.Name),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Service) promote(ctx context.Context, device domain.DeviceRef) error {
	now := s.clock.Now()

	existing, err := s.repo.Get(ctx, device.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		name, err := s.nextDisplayName(ctx, domain.KindPrivileged)
		if err != nil {
			return err
		}
		rec := domain.Record{
			UserID:      device.UserID,
			DisplayName: name,
			Kind:        domain.KindPrivileged,
			Device:      device.Name,
			CreatedAt:   now,
		}
		return s.repo.Upsert(ctx, device.UserID, repository.EncodeRecord(rec))
	}
	if err != nil {
		return err
	}
	if existing.Kind == domain.KindPrivileged {
		return nil
	}

	name, err := s.nextDisplayName(ctx, domain.KindPrivileged)
	if err != nil {
		return err
	}
	return s.repo.Upsert(ctx, device.UserID, repository.PromotionFields(name, device.Name, now))
}

func (s *Service) List(ctx context.Context) ([]domain.Record, error) {
	return s.repo.List(ctx)
}

func (s *Service) kindFor(userID string) domain.Kind {
	if _, ok := s.privileged[userID]; ok {
		return domain.KindPrivileged
	}
	return domain.KindOrdinary
}

// nextDisplayName scans all mappings for the highest suffix of the kind's
// prefix and returns prefix-(max+1). Gaps are ignored; suffixes are never
// reused. The full scan is acceptable at this user volume.
func (s *Service) nextDisplayName(ctx context.Context, kind domain.Kind) (string, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return "", err
	}

	prefix := string(kind) + "-"
	max := 0
	for _, rec := range records {
		if !strings.HasPrefix(rec.DisplayName, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(rec.DisplayName, prefix))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%d", prefix, max+1), nil
}

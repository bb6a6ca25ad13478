package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/freshbasket/freshbasket/internal/cache"
	"github.com/freshbasket/freshbasket/internal/logger"
	"github.com/freshbasket/freshbasket/internal/models"
	"github.com/freshbasket/freshbasket/internal/repository"
)

var slotTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

const (
	activeZonesCacheKey = "delivery:zones:active"
	activeZonesCacheTTL = time.Minute
)

// DeliveryService resolves delivery zones and manages slot capacity.
type DeliveryService struct {
	zoneRepo repository.DeliveryZoneRepository
	slotRepo repository.DeliverySlotRepository
}

// NewDeliveryService creates a delivery service.
func NewDeliveryService(zoneRepo repository.DeliveryZoneRepository, slotRepo repository.DeliverySlotRepository) *DeliveryService {
	return &DeliveryService{
		zoneRepo: zoneRepo,
		slotRepo: slotRepo,
	}
}

// NormalizePostcode uppercases a postcode and strips interior spaces.
func NormalizePostcode(postcode string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(postcode), " ", ""))
}

// MatchZone resolves the active zone servicing a postcode. When several
// prefixes match, the longest one wins.
func (s *DeliveryService) MatchZone(postcode string) (*models.DeliveryZone, error) {
	normalized := NormalizePostcode(postcode)
	if normalized == "" {
		return nil, ErrZoneNotServiced
	}

	zones, err := s.activeZones()
	if err != nil {
		return nil, err
	}

	var best *models.DeliveryZone
	bestLen := 0
	for i := range zones {
		for _, prefix := range zones[i].PostcodePrefixes {
			p := NormalizePostcode(prefix)
			if p == "" || !strings.HasPrefix(normalized, p) {
				continue
			}
			if len(p) > bestLen {
				best = &zones[i]
				bestLen = len(p)
			}
		}
	}
	if best == nil {
		return nil, ErrZoneNotServiced
	}
	return best, nil
}

// activeZones reads the active zone list through the cache. Zone
// mutations invalidate the entry, so a stale read lasts at most the TTL.
func (s *DeliveryService) activeZones() ([]models.DeliveryZone, error) {
	ctx := context.Background()
	var zones []models.DeliveryZone
	hit, err := cache.GetJSON(ctx, activeZonesCacheKey, &zones)
	if err != nil {
		logger.Warnw("zone_cache_read_failed", "error", err)
	}
	if hit {
		return zones, nil
	}

	zones, err = s.zoneRepo.ListActive()
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, activeZonesCacheKey, zones, activeZonesCacheTTL); err != nil {
		logger.Warnw("zone_cache_write_failed", "error", err)
	}
	return zones, nil
}

func invalidateZoneCache() {
	if err := cache.Del(context.Background(), activeZonesCacheKey); err != nil {
		logger.Warnw("zone_cache_invalidate_failed", "error", err)
	}
}

// ListSlots pages delivery slots, by default only bookable ones.
func (s *DeliveryService) ListSlots(filter repository.SlotListFilter) ([]models.DeliverySlot, int64, error) {
	return s.slotRepo.List(filter)
}

// GetSlot fetches one slot by ID.
func (s *DeliveryService) GetSlot(id uint) (*models.DeliverySlot, error) {
	slot, err := s.slotRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

// SlotWindow is one recurring delivery window used during generation.
type SlotWindow struct {
	StartTime string
	EndTime   string
}

// SlotGenerateInput describes a run of slots to create.
type SlotGenerateInput struct {
	FromDate  time.Time
	Days      int
	Windows   []SlotWindow
	MaxOrders int
}

// GenerateSlots creates one slot per window per day over the requested
// range. Windows that already exist are left untouched; the returned
// count covers newly created slots only.
func (s *DeliveryService) GenerateSlots(input SlotGenerateInput) (int64, error) {
	if input.Days <= 0 || input.MaxOrders <= 0 || len(input.Windows) == 0 {
		return 0, ErrSlotUnavailable
	}
	for _, window := range input.Windows {
		if !slotTimePattern.MatchString(window.StartTime) || !slotTimePattern.MatchString(window.EndTime) {
			return 0, ErrSlotUnavailable
		}
		if window.StartTime >= window.EndTime {
			return 0, ErrSlotUnavailable
		}
	}

	day := time.Date(input.FromDate.Year(), input.FromDate.Month(), input.FromDate.Day(), 0, 0, 0, 0, time.UTC)
	slots := make([]models.DeliverySlot, 0, input.Days*len(input.Windows))
	for i := 0; i < input.Days; i++ {
		for _, window := range input.Windows {
			slots = append(slots, models.DeliverySlot{
				SlotDate:    day,
				StartTime:   window.StartTime,
				EndTime:     window.EndTime,
				MaxOrders:   input.MaxOrders,
				IsAvailable: true,
			})
		}
		day = day.AddDate(0, 0, 1)
	}
	return s.slotRepo.CreateBatch(slots)
}

// SlotUpdateInput are the admin parameters for editing a slot.
type SlotUpdateInput struct {
	MaxOrders   *int
	IsAvailable *bool
}

// UpdateSlot edits capacity or availability of one slot. Capacity can be
// lowered below the current booking count; existing bookings stand and
// the slot simply stops accepting new ones.
func (s *DeliveryService) UpdateSlot(id uint, input SlotUpdateInput) (*models.DeliverySlot, error) {
	slot, err := s.slotRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	if input.MaxOrders != nil {
		if *input.MaxOrders <= 0 {
			return nil, ErrSlotUnavailable
		}
		slot.MaxOrders = *input.MaxOrders
	}
	if input.IsAvailable != nil {
		slot.IsAvailable = *input.IsAvailable
	}
	if err := s.slotRepo.Update(slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// ZoneCreateInput are the admin parameters for a new delivery zone.
type ZoneCreateInput struct {
	Name              string
	PostcodePrefixes  []string
	DeliveryFee       models.Money
	MinimumOrderValue models.Money
	IsActive          bool
}

// CreateZone validates and stores a new zone.
func (s *DeliveryService) CreateZone(input ZoneCreateInput) (*models.DeliveryZone, error) {
	name := strings.TrimSpace(input.Name)
	prefixes := normalizePrefixes(input.PostcodePrefixes)
	if name == "" || len(prefixes) == 0 {
		return nil, ErrZoneNotFound
	}
	zone := &models.DeliveryZone{
		Name:              name,
		PostcodePrefixes:  prefixes,
		DeliveryFee:       input.DeliveryFee,
		MinimumOrderValue: input.MinimumOrderValue,
		IsActive:          input.IsActive,
	}
	if err := s.zoneRepo.Create(zone); err != nil {
		return nil, err
	}
	invalidateZoneCache()
	return zone, nil
}

// ZoneUpdateInput are the admin parameters for editing a zone.
type ZoneUpdateInput struct {
	Name              *string
	PostcodePrefixes  []string
	DeliveryFee       *models.Money
	MinimumOrderValue *models.Money
	IsActive          *bool
}

// UpdateZone edits an existing zone. Nil fields are left unchanged.
func (s *DeliveryService) UpdateZone(id uint, input ZoneUpdateInput) (*models.DeliveryZone, error) {
	zone, err := s.zoneRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, ErrZoneNotFound
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrZoneNotFound
		}
		zone.Name = name
	}
	if input.PostcodePrefixes != nil {
		prefixes := normalizePrefixes(input.PostcodePrefixes)
		if len(prefixes) == 0 {
			return nil, ErrZoneNotFound
		}
		zone.PostcodePrefixes = prefixes
	}
	if input.DeliveryFee != nil {
		zone.DeliveryFee = *input.DeliveryFee
	}
	if input.MinimumOrderValue != nil {
		zone.MinimumOrderValue = *input.MinimumOrderValue
	}
	if input.IsActive != nil {
		zone.IsActive = *input.IsActive
	}
	if err := s.zoneRepo.Update(zone); err != nil {
		return nil, err
	}
	invalidateZoneCache()
	return zone, nil
}

// DeleteZone soft deletes a zone. Orders keep their snapshot fee and
// address, so removing a zone never rewrites order history.
func (s *DeliveryService) DeleteZone(id uint) error {
	zone, err := s.zoneRepo.GetByID(id)
	if err != nil {
		return err
	}
	if zone == nil {
		return ErrZoneNotFound
	}
	if err := s.zoneRepo.Delete(id); err != nil {
		return err
	}
	invalidateZoneCache()
	return nil
}

// GetZone fetches one zone by ID.
func (s *DeliveryService) GetZone(id uint) (*models.DeliveryZone, error) {
	zone, err := s.zoneRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, ErrZoneNotFound
	}
	return zone, nil
}

// ListZones pages zones for the admin console.
func (s *DeliveryService) ListZones(filter repository.ZoneListFilter) ([]models.DeliveryZone, int64, error) {
	return s.zoneRepo.List(filter)
}

func normalizePrefixes(raw []string) models.StringArray {
	seen := make(map[string]struct{}, len(raw))
	out := make(models.StringArray, 0, len(raw))
	for _, prefix := range raw {
		p := NormalizePostcode(prefix)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

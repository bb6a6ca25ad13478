package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/freshbasket/freshbasket/internal/models"
	"github.com/freshbasket/freshbasket/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupDeliveryServiceTest(t *testing.T) (*DeliveryService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:delivery_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.DeliveryZone{}, &models.DeliverySlot{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewDeliveryService(repository.NewDeliveryZoneRepository(db), repository.NewDeliverySlotRepository(db)), db
}

func createZoneRecord(t *testing.T, db *gorm.DB, zone *models.DeliveryZone) *models.DeliveryZone {
	t.Helper()
	if err := db.Create(zone).Error; err != nil {
		t.Fatalf("create zone failed: %v", err)
	}
	return zone
}

func TestNormalizePostcode(t *testing.T) {
	cases := map[string]string{
		"  ec1a 1bb ": "EC1A1BB",
		"N1 9GU":      "N19GU",
		"":            "",
		"   ":         "",
	}
	for in, want := range cases {
		if got := NormalizePostcode(in); got != want {
			t.Fatalf("NormalizePostcode(%q) want %q got %q", in, want, got)
		}
	}
}

func TestMatchZoneLongestPrefixWins(t *testing.T) {
	svc, db := setupDeliveryServiceTest(t)
	createZoneRecord(t, db, &models.DeliveryZone{
		Name:             "East London",
		PostcodePrefixes: models.StringArray{"E1"},
		DeliveryFee:      mustMoney(t, "3.99"),
		IsActive:         true,
	})
	createZoneRecord(t, db, &models.DeliveryZone{
		Name:             "Wapping",
		PostcodePrefixes: models.StringArray{"E1W"},
		DeliveryFee:      mustMoney(t, "5.99"),
		IsActive:         true,
	})

	zone, err := svc.MatchZone("e1w 2aa")
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if zone.Name != "Wapping" {
		t.Fatalf("longest prefix should win, got %s", zone.Name)
	}

	zone, err = svc.MatchZone("E1 6AN")
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if zone.Name != "East London" {
		t.Fatalf("want East London got %s", zone.Name)
	}

	if _, err := svc.MatchZone("M1 1AE"); !errors.Is(err, ErrZoneNotServiced) {
		t.Fatalf("unserviced postcode want ErrZoneNotServiced got %v", err)
	}
	if _, err := svc.MatchZone("  "); !errors.Is(err, ErrZoneNotServiced) {
		t.Fatalf("blank postcode want ErrZoneNotServiced got %v", err)
	}
}

func TestMatchZoneSkipsInactive(t *testing.T) {
	svc, db := setupDeliveryServiceTest(t)
	createZoneRecord(t, db, &models.DeliveryZone{
		Name:             "Dormant",
		PostcodePrefixes: models.StringArray{"SW1"},
		IsActive:         false,
	})

	if _, err := svc.MatchZone("SW1A 1AA"); !errors.Is(err, ErrZoneNotServiced) {
		t.Fatalf("inactive zone should not match, got %v", err)
	}
}

func TestGenerateSlots(t *testing.T) {
	svc, db := setupDeliveryServiceTest(t)
	input := SlotGenerateInput{
		FromDate: time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC),
		Days:     3,
		Windows: []SlotWindow{
			{StartTime: "08:00", EndTime: "10:00"},
			{StartTime: "18:00", EndTime: "20:00"},
		},
		MaxOrders: 15,
	}

	created, err := svc.GenerateSlots(input)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if created != 6 {
		t.Fatalf("created want 6 got %d", created)
	}

	var slot models.DeliverySlot
	if err := db.Where("start_time = ?", "08:00").Order("slot_date asc").First(&slot).Error; err != nil {
		t.Fatalf("load slot failed: %v", err)
	}
	if !slot.SlotDate.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("slot date should truncate to midnight UTC, got %v", slot.SlotDate)
	}
	if slot.MaxOrders != 15 || !slot.IsAvailable {
		t.Fatalf("slot should be available with capacity 15")
	}

	// A second run over the same range touches nothing.
	created, err = svc.GenerateSlots(input)
	if err != nil {
		t.Fatalf("re-generate failed: %v", err)
	}
	if created != 0 {
		t.Fatalf("re-run should create 0 slots, got %d", created)
	}
}

func TestGenerateSlotsValidation(t *testing.T) {
	svc, _ := setupDeliveryServiceTest(t)
	window := []SlotWindow{{StartTime: "08:00", EndTime: "10:00"}}
	from := time.Now().UTC()

	cases := []SlotGenerateInput{
		{FromDate: from, Days: 0, Windows: window, MaxOrders: 10},
		{FromDate: from, Days: 3, Windows: window, MaxOrders: 0},
		{FromDate: from, Days: 3, Windows: nil, MaxOrders: 10},
		{FromDate: from, Days: 3, Windows: []SlotWindow{{StartTime: "8am", EndTime: "10:00"}}, MaxOrders: 10},
		{FromDate: from, Days: 3, Windows: []SlotWindow{{StartTime: "08:00", EndTime: "25:00"}}, MaxOrders: 10},
		{FromDate: from, Days: 3, Windows: []SlotWindow{{StartTime: "10:00", EndTime: "08:00"}}, MaxOrders: 10},
		{FromDate: from, Days: 3, Windows: []SlotWindow{{StartTime: "10:00", EndTime: "10:00"}}, MaxOrders: 10},
	}
	for i, input := range cases {
		if _, err := svc.GenerateSlots(input); !errors.Is(err, ErrSlotUnavailable) {
			t.Fatalf("case %d want ErrSlotUnavailable got %v", i, err)
		}
	}
}

func TestUpdateSlot(t *testing.T) {
	svc, db := setupDeliveryServiceTest(t)
	slot := createTestSlot(t, db, 10)

	unavailable := false
	capacity := 5
	updated, err := svc.UpdateSlot(slot.ID, SlotUpdateInput{MaxOrders: &capacity, IsAvailable: &unavailable})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.MaxOrders != 5 || updated.IsAvailable {
		t.Fatalf("slot should hold capacity 5 and be unavailable")
	}

	zero := 0
	if _, err := svc.UpdateSlot(slot.ID, SlotUpdateInput{MaxOrders: &zero}); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("zero capacity want ErrSlotUnavailable got %v", err)
	}
	if _, err := svc.UpdateSlot(99999, SlotUpdateInput{}); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("missing slot want ErrSlotNotFound got %v", err)
	}
}

func TestCreateZoneNormalizesPrefixes(t *testing.T) {
	svc, _ := setupDeliveryServiceTest(t)
	zone, err := svc.CreateZone(ZoneCreateInput{
		Name:             "  Central London ",
		PostcodePrefixes: []string{" ec1 ", "EC1", "wc1", ""},
		DeliveryFee:      mustMoney(t, "3.99"),
		IsActive:         true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if zone.Name != "Central London" {
		t.Fatalf("name should be trimmed, got %q", zone.Name)
	}
	if len(zone.PostcodePrefixes) != 2 || zone.PostcodePrefixes[0] != "EC1" || zone.PostcodePrefixes[1] != "WC1" {
		t.Fatalf("prefixes should dedupe and uppercase, got %v", zone.PostcodePrefixes)
	}

	if _, err := svc.CreateZone(ZoneCreateInput{Name: "No Prefixes"}); !errors.Is(err, ErrZoneNotFound) {
		t.Fatalf("empty prefixes want ErrZoneNotFound got %v", err)
	}
	if _, err := svc.CreateZone(ZoneCreateInput{Name: "  ", PostcodePrefixes: []string{"N1"}}); !errors.Is(err, ErrZoneNotFound) {
		t.Fatalf("blank name want ErrZoneNotFound got %v", err)
	}
}

func TestUpdateZone(t *testing.T) {
	svc, db := setupDeliveryServiceTest(t)
	zone := createZoneRecord(t, db, &models.DeliveryZone{
		Name:             "North London",
		PostcodePrefixes: models.StringArray{"N1"},
		DeliveryFee:      mustMoney(t, "4.99"),
		IsActive:         true,
	})

	fee := mustMoney(t, "2.49")
	updated, err := svc.UpdateZone(zone.ID, ZoneUpdateInput{
		PostcodePrefixes: []string{"n1", "n4"},
		DeliveryFee:      &fee,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(updated.PostcodePrefixes) != 2 || updated.PostcodePrefixes[1] != "N4" {
		t.Fatalf("prefixes want [N1 N4] got %v", updated.PostcodePrefixes)
	}
	if updated.DeliveryFee.String() != "2.49" {
		t.Fatalf("fee want 2.49 got %s", updated.DeliveryFee.String())
	}
	if updated.Name != "North London" {
		t.Fatalf("name should be unchanged, got %q", updated.Name)
	}

	if _, err := svc.UpdateZone(zone.ID, ZoneUpdateInput{PostcodePrefixes: []string{"  "}}); !errors.Is(err, ErrZoneNotFound) {
		t.Fatalf("blank prefixes want ErrZoneNotFound got %v", err)
	}
	if _, err := svc.UpdateZone(99999, ZoneUpdateInput{}); !errors.Is(err, ErrZoneNotFound) {
		t.Fatalf("missing zone want ErrZoneNotFound got %v", err)
	}
}

func TestDeleteZone(t *testing.T) {
	svc, db := setupDeliveryServiceTest(t)
	zone := createZoneRecord(t, db, &models.DeliveryZone{
		Name:             "Retired",
		PostcodePrefixes: models.StringArray{"SE1"},
		IsActive:         true,
	})

	if err := svc.DeleteZone(zone.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.GetZone(zone.ID); !errors.Is(err, ErrZoneNotFound) {
		t.Fatalf("deleted zone want ErrZoneNotFound got %v", err)
	}
	if err := svc.DeleteZone(zone.ID); !errors.Is(err, ErrZoneNotFound) {
		t.Fatalf("double delete want ErrZoneNotFound got %v", err)
	}
}

package main

import (
	"time"

	"github.com/freshbasket/freshbasket/internal/config"
	"github.com/freshbasket/freshbasket/internal/constants"
	"github.com/freshbasket/freshbasket/internal/logger"
	"github.com/freshbasket/freshbasket/internal/models"

	"github.com/shopspring/decimal"
)

func money(value string) models.Money {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return models.NewMoneyFromDecimal(d)
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	categories := []models.Category{
		{Slug: "fruit-veg", Name: "Fruit & Vegetables", SortOrder: 1},
		{Slug: "dairy-eggs", Name: "Dairy & Eggs", SortOrder: 2},
		{Slug: "bakery", Name: "Bakery", SortOrder: 3},
		{Slug: "pantry", Name: "Pantry", SortOrder: 4},
	}

	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Category already exists: %s", cat.Slug)
		}
	}

	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := models.DB.Where("slug IN ?", []string{"fruit-veg", "dairy-eggs", "bakery", "pantry"}).Find(&categoryList).Error; err != nil {
		stdLog.Printf("Failed to load categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}

	products := []models.Product{
		{CategoryID: categoryIDs["fruit-veg"], Slug: "bananas-loose", Name: "Bananas Loose", PriceAmount: money("0.23"), Unit: "each", Tags: models.StringArray{"vegan"}, IsActive: true, SortOrder: 1},
		{CategoryID: categoryIDs["fruit-veg"], Slug: "broccoli-head", Name: "Broccoli Head", PriceAmount: money("0.89"), Unit: "each", Tags: models.StringArray{"vegan"}, IsActive: true, SortOrder: 2},
		{CategoryID: categoryIDs["fruit-veg"], Slug: "strawberries-400g", Name: "Strawberries 400g", PriceAmount: money("2.75"), Unit: "pack", IsActive: true, SortOrder: 3},
		{CategoryID: categoryIDs["dairy-eggs"], Slug: "semi-skimmed-milk-2l", Name: "Semi Skimmed Milk 2L", PriceAmount: money("1.45"), Unit: "each", Tags: models.StringArray{"vegetarian"}, IsActive: true, SortOrder: 1},
		{CategoryID: categoryIDs["dairy-eggs"], Slug: "free-range-eggs-12", Name: "Free Range Eggs 12 Pack", PriceAmount: money("2.95"), Unit: "pack", IsActive: true, SortOrder: 2},
		{CategoryID: categoryIDs["dairy-eggs"], Slug: "mature-cheddar-400g", Name: "Mature Cheddar 400g", PriceAmount: money("3.50"), Unit: "each", Tags: models.StringArray{"vegetarian"}, IsActive: true, SortOrder: 3},
		{CategoryID: categoryIDs["bakery"], Slug: "sourdough-loaf", Name: "Sourdough Loaf", PriceAmount: money("2.20"), Unit: "each", Tags: models.StringArray{"vegan"}, IsActive: true, SortOrder: 1},
		{CategoryID: categoryIDs["bakery"], Slug: "croissants-4", Name: "All Butter Croissants 4 Pack", PriceAmount: money("1.85"), Unit: "pack", IsActive: true, SortOrder: 2},
		{CategoryID: categoryIDs["pantry"], Slug: "basmati-rice-1kg", Name: "Basmati Rice 1kg", PriceAmount: money("2.10"), Unit: "each", Tags: models.StringArray{"vegan", "gluten-free"}, IsActive: true, SortOrder: 1},
		{CategoryID: categoryIDs["pantry"], Slug: "chopped-tomatoes-400g", Name: "Chopped Tomatoes 400g", PriceAmount: money("0.55"), Unit: "each", Tags: models.StringArray{"vegan"}, IsActive: true, SortOrder: 2},
		{CategoryID: categoryIDs["pantry"], Slug: "olive-oil-500ml", Name: "Extra Virgin Olive Oil 500ml", PriceAmount: money("4.25"), Unit: "each", Tags: models.StringArray{"vegan"}, IsActive: true, SortOrder: 3},
	}

	for _, p := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", p.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&p).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", p.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", p.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", p.Slug)
		}
	}

	zones := []models.DeliveryZone{
		{Name: "Central London", PostcodePrefixes: models.StringArray{"EC1", "EC2", "WC1", "WC2"}, DeliveryFee: money("3.99"), MinimumOrderValue: money("15.00"), IsActive: true},
		{Name: "East London", PostcodePrefixes: models.StringArray{"E1", "E2", "E3", "E8"}, DeliveryFee: money("4.99"), MinimumOrderValue: money("20.00"), IsActive: true},
		{Name: "North London", PostcodePrefixes: models.StringArray{"N1", "N4", "N5"}, DeliveryFee: money("4.99"), MinimumOrderValue: money("20.00"), IsActive: true},
	}

	for _, z := range zones {
		var existing models.DeliveryZone
		if err := models.DB.Where("name = ?", z.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&z).Error; err != nil {
				stdLog.Printf("Failed to create zone %s: %v", z.Name, err)
			} else {
				stdLog.Printf("Created zone: %s", z.Name)
			}
		} else {
			stdLog.Printf("Zone already exists: %s", z.Name)
		}
	}

	// One week of morning and evening windows starting tomorrow.
	windows := []struct {
		start string
		end   string
	}{
		{"08:00", "10:00"},
		{"10:00", "12:00"},
		{"18:00", "20:00"},
	}
	baseDate := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	created := 0
	for day := 0; day < 7; day++ {
		slotDate := baseDate.AddDate(0, 0, day)
		for _, w := range windows {
			slot := models.DeliverySlot{
				SlotDate:    slotDate,
				StartTime:   w.start,
				EndTime:     w.end,
				MaxOrders:   20,
				IsAvailable: true,
			}
			var existing models.DeliverySlot
			if err := models.DB.Where("slot_date = ? AND start_time = ? AND end_time = ?", slotDate, w.start, w.end).First(&existing).Error; err != nil {
				if err := models.DB.Create(&slot).Error; err != nil {
					stdLog.Printf("Failed to create slot %s %s: %v", slotDate.Format("2006-01-02"), w.start, err)
				} else {
					created++
				}
			}
		}
	}
	stdLog.Printf("Created %d delivery slots", created)

	maxUses := 100
	expiry := time.Now().AddDate(0, 1, 0)
	vouchers := []models.Voucher{
		{Code: "SAVE10", Type: constants.VoucherTypePercentage, Value: money("10"), MinOrderValue: money("25.00"), MaxUses: &maxUses, IsActive: true, ExpiresAt: &expiry},
		{Code: "WELCOME5", Type: constants.VoucherTypeFixed, Value: money("5.00"), MinOrderValue: money("30.00"), OneTimePerUser: true, IsActive: true},
	}

	for _, v := range vouchers {
		var existing models.Voucher
		if err := models.DB.Where("code = ?", v.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&v).Error; err != nil {
				stdLog.Printf("Failed to create voucher %s: %v", v.Code, err)
			} else {
				stdLog.Printf("Created voucher: %s", v.Code)
			}
		} else {
			stdLog.Printf("Voucher already exists: %s", v.Code)
		}
	}

	stdLog.Printf("Seed finished")
}

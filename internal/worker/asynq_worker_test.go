package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/freshbasket/freshbasket/internal/constants"
	"github.com/freshbasket/freshbasket/internal/models"
	"github.com/freshbasket/freshbasket/internal/provider"
	"github.com/freshbasket/freshbasket/internal/queue"
	"github.com/freshbasket/freshbasket/internal/repository"
	"github.com/freshbasket/freshbasket/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	consumer := NewConsumer(&provider.Container{
		OrderRepo: repository.NewOrderRepository(db),
	})
	return consumer, db
}

func TestSwallowEmailError(t *testing.T) {
	if err := swallowEmailError("task", 1, nil); err != nil {
		t.Fatalf("nil error should stay nil, got %v", err)
	}

	swallowed := []error{
		service.ErrEmailServiceDisabled,
		service.ErrEmailServiceNotConfigured,
		service.ErrInvalidEmail,
		service.ErrEmailRecipientRejected,
		fmt.Errorf("send failed: %w", service.ErrEmailServiceDisabled),
	}
	for _, cause := range swallowed {
		if err := swallowEmailError("task", 1, cause); err != nil {
			t.Fatalf("%v should be swallowed, got %v", cause, err)
		}
	}

	transient := errors.New("smtp timeout")
	if err := swallowEmailError("task", 1, transient); !errors.Is(err, transient) {
		t.Fatalf("transient error should be returned for retry, got %v", err)
	}
}

func TestLoadOrder(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	order, err := consumer.loadOrder("task", 0)
	if err != nil || order != nil {
		t.Fatalf("zero order ID should drop the task, got %v %v", order, err)
	}

	order, err = consumer.loadOrder("task", 99999)
	if err != nil || order != nil {
		t.Fatalf("missing order should drop the task, got %v %v", order, err)
	}

	seeded := models.Order{
		OrderNo:         "FB20260901000000000010",
		GuestEmail:      "shopper@example.com",
		Status:          constants.OrderStatusConfirmed,
		PaymentStatus:   constants.PaymentStatusPaid,
		Currency:        "GBP",
		DeliverySlotID:  1,
		DeliveryZoneID:  1,
		AddressLine1:    "1 Test Street",
		Postcode:        "EC1A1AA",
	}
	if err := db.Create(&seeded).Error; err != nil {
		t.Fatalf("seed order failed: %v", err)
	}

	order, err = consumer.loadOrder("task", seeded.ID)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order == nil || order.OrderNo != seeded.OrderNo {
		t.Fatalf("order should load, got %+v", order)
	}
}

func TestHandleTaskBadPayload(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	task := asynq.NewTask(queue.TaskOrderConfirmation, []byte("{not json"))
	if err := consumer.handleOrderConfirmation(context.Background(), task); err == nil {
		t.Fatalf("malformed payload should error for retry visibility")
	}
}

func TestRegisterNilSafe(t *testing.T) {
	var consumer *Consumer
	consumer.Register(nil)

	mux := asynq.NewServeMux()
	consumer.Register(mux)
}

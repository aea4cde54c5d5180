package job

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/constants"
	"github.com/rs/zerolog/log"
)

const NameOrderReminders = "order_reminders"

const recentOrdersQuery = `query RecentOrders($since: DateTime) {
	orders(orderDateGte: $since) {
		id
		customer { email }
	}
}`

// OrderReminders 列出回溯期間內的訂單並寫入提醒
type OrderReminders struct {
	client   GraphQLClient
	sink     *Sink
	lookback time.Duration
	now      func() time.Time
}

func NewOrderReminders(client GraphQLClient, sink *Sink, lookbackDays int, now func() time.Time) *OrderReminders {
	if lookbackDays <= 0 {
		lookbackDays = constants.DefaultReminderLookbackDays
	}
	if now == nil {
		now = time.Now
	}
	return &OrderReminders{
		client:   client,
		sink:     sink,
		lookback: time.Duration(lookbackDays) * 24 * time.Hour,
		now:      now,
	}
}

func (o *OrderReminders) Name() string { return NameOrderReminders }

func (o *OrderReminders) Sink() *Sink { return o.sink }

func (o *OrderReminders) Run(ctx context.Context) error {
	since := o.now().Add(-o.lookback).UTC().Format(time.RFC3339)

	var out struct {
		Orders []struct {
			ID       string `json:"id"`
			Customer struct {
				Email string `json:"email"`
			} `json:"customer"`
		} `json:"orders"`
	}
	if err := o.client.Query(ctx, recentOrdersQuery, map[string]interface{}{"since": since}, &out); err != nil {
		return err
	}

	if len(out.Orders) == 0 {
		o.sink.Print("No recent orders found.")
	}
	for _, order := range out.Orders {
		o.sink.Printf("Reminder for Order #%s - Customer: %s", order.ID, order.Customer.Email)
	}
	o.sink.Print("Order reminders processed!")
	log.Info().Int("orders", len(out.Orders)).Msg("Order reminders processed!")
	return nil
}

package types

import (
	"math/big"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// SettlementEventRow mirrors the settlement_events BigQuery schema.
type SettlementEventRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	AggregateType string             `bigquery:"aggregate_type"`
	AggregateID   string             `bigquery:"aggregate_id"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	OrderID       *string            `bigquery:"order_id"`
	OrderKind     *string            `bigquery:"order_kind"`
	ShopperID     *string            `bigquery:"shopper_id"`
	WalletID      *string            `bigquery:"wallet_id"`
	Status        *string            `bigquery:"status"`
	RevenueType   *string            `bigquery:"revenue_type"`
	Amount        *big.Rat           `bigquery:"amount"`
	ActorUserID   *string            `bigquery:"actor_user_id"`
	ActorRole     *string            `bigquery:"actor_role"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}

// Save implements bigquery.ValueSaver so the event id doubles as the insert
// id and BigQuery drops redelivered rows.
func (r *SettlementEventRow) Save() (map[string]cbigquery.Value, string, error) {
	row := map[string]cbigquery.Value{
		"event_id":       r.EventID,
		"event_type":     r.EventType,
		"aggregate_type": r.AggregateType,
		"aggregate_id":   r.AggregateID,
		"occurred_at":    r.OccurredAt,
		"order_id":       nullable(r.OrderID),
		"order_kind":     nullable(r.OrderKind),
		"shopper_id":     nullable(r.ShopperID),
		"wallet_id":      nullable(r.WalletID),
		"status":         nullable(r.Status),
		"revenue_type":   nullable(r.RevenueType),
		"actor_user_id":  nullable(r.ActorUserID),
		"actor_role":     nullable(r.ActorRole),
		"payload":        r.Payload,
	}
	if r.Amount != nil {
		row["amount"] = r.Amount
	} else {
		row["amount"] = nil
	}
	return row, r.EventID, nil
}

func nullable(v *string) cbigquery.Value {
	if v == nil {
		return nil
	}
	return *v
}

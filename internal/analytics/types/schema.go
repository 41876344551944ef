package types

import (
	cbigquery "cloud.google.com/go/bigquery"

	"github.com/angelmondragon/quoteengine-backend/pkg/bigquery"
	"github.com/angelmondragon/quoteengine-backend/pkg/config"
)

func required(name string, t cbigquery.FieldType) *cbigquery.FieldSchema {
	return &cbigquery.FieldSchema{Name: name, Type: t, Required: true}
}

func nullable(name string, t cbigquery.FieldType) *cbigquery.FieldSchema {
	return &cbigquery.FieldSchema{Name: name, Type: t}
}

// ProjectFinanceSchema matches ProjectFinanceRow field for field.
var ProjectFinanceSchema = cbigquery.Schema{
	required("event_id", cbigquery.StringFieldType),
	required("event_type", cbigquery.StringFieldType),
	required("occurred_at", cbigquery.TimestampFieldType),
	required("project_id", cbigquery.StringFieldType),
	nullable("client_id", cbigquery.StringFieldType),
	nullable("supplier_order_id", cbigquery.StringFieldType),
	nullable("supplier_id", cbigquery.StringFieldType),
	nullable("project_status", cbigquery.StringFieldType),
	nullable("previous_status", cbigquery.StringFieldType),
	nullable("financial_status", cbigquery.StringFieldType),
	nullable("payment_status", cbigquery.StringFieldType),
	nullable("amount", cbigquery.FloatFieldType),
	nullable("balance", cbigquery.FloatFieldType),
	nullable("quoted_total", cbigquery.FloatFieldType),
	nullable("incomes", cbigquery.FloatFieldType),
	nullable("expenses", cbigquery.FloatFieldType),
	nullable("liquidated_orders", cbigquery.IntegerFieldType),
	nullable("actor_user_id", cbigquery.StringFieldType),
	nullable("actor_role", cbigquery.StringFieldType),
	nullable("payload", cbigquery.JSONFieldType),
}

// QuoteActivitySchema matches QuoteActivityRow field for field.
var QuoteActivitySchema = cbigquery.Schema{
	required("event_id", cbigquery.StringFieldType),
	required("event_type", cbigquery.StringFieldType),
	required("occurred_at", cbigquery.TimestampFieldType),
	required("quote_id", cbigquery.StringFieldType),
	nullable("project_id", cbigquery.StringFieldType),
	nullable("client_id", cbigquery.StringFieldType),
	nullable("version", cbigquery.IntegerFieldType),
	nullable("status", cbigquery.StringFieldType),
	nullable("previous_status", cbigquery.StringFieldType),
	nullable("is_approved", cbigquery.BooleanFieldType),
	nullable("item_count", cbigquery.IntegerFieldType),
	nullable("subtotal", cbigquery.FloatFieldType),
	nullable("iva_amount", cbigquery.FloatFieldType),
	nullable("isr_amount", cbigquery.FloatFieldType),
	nullable("total", cbigquery.FloatFieldType),
	nullable("actor_user_id", cbigquery.StringFieldType),
	nullable("payload", cbigquery.JSONFieldType),
}

// Tables lists the analytics tables, partitioned by event day and clustered by aggregate.
func Tables(cfg config.BigQueryConfig) []bigquery.TableSpec {
	return []bigquery.TableSpec{
		{
			Name:           cfg.ProjectFinanceTable,
			Schema:         ProjectFinanceSchema,
			PartitionField: "occurred_at",
			ClusterBy:      []string{"project_id", "event_type"},
		},
		{
			Name:           cfg.QuoteActivityTable,
			Schema:         QuoteActivitySchema,
			PartitionField: "occurred_at",
			ClusterBy:      []string{"quote_id", "event_type"},
		},
	}
}

package types

import (
	"reflect"
	"testing"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/angelmondragon/quoteengine-backend/pkg/config"
)

func columnsOf(row any) []string {
	rt := reflect.TypeOf(row)
	cols := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		cols = append(cols, rt.Field(i).Tag.Get("bigquery"))
	}
	return cols
}

func schemaNames(schema cbigquery.Schema) []string {
	names := make([]string, 0, len(schema))
	for _, field := range schema {
		names = append(names, field.Name)
	}
	return names
}

func TestSchemasMatchRowTags(t *testing.T) {
	cases := map[string]struct {
		row    any
		schema cbigquery.Schema
	}{
		"project finance": {ProjectFinanceRow{}, ProjectFinanceSchema},
		"quote activity":  {QuoteActivityRow{}, QuoteActivitySchema},
	}
	for name, tc := range cases {
		if got, want := schemaNames(tc.schema), columnsOf(tc.row); !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: schema %v does not match row tags %v", name, got, want)
		}
	}
}

func TestTablesUseConfiguredNames(t *testing.T) {
	specs := Tables(config.BigQueryConfig{ProjectFinanceTable: "pf", QuoteActivityTable: "qa"})
	if len(specs) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(specs))
	}
	if specs[0].Name != "pf" || specs[1].Name != "qa" {
		t.Fatalf("unexpected table names %q %q", specs[0].Name, specs[1].Name)
	}
	for _, spec := range specs {
		if spec.PartitionField != "occurred_at" {
			t.Fatalf("%s: expected occurred_at partition, got %q", spec.Name, spec.PartitionField)
		}
	}
}

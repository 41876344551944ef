package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/angelmondragon/quoteengine-backend/pkg/config"
)

func TestIndexTablesSkipsBlankNames(t *testing.T) {
	tables := indexTables([]TableSpec{
		{Name: " project_finance_events "},
		{Name: ""},
		{Name: "quote_activity_events"},
	})

	require.Len(t, tables, 2)
	assert.Contains(t, tables, "project_finance_events")
	assert.Contains(t, tables, "quote_activity_events")
}

func TestTableMetadataPartitionsAndClusters(t *testing.T) {
	md := tableMetadata(TableSpec{
		Name:           "project_finance_events",
		Schema:         bigquery.Schema{{Name: "occurred_at", Type: bigquery.TimestampFieldType}},
		PartitionField: "occurred_at",
		ClusterBy:      []string{"project_id"},
	})

	require.NotNil(t, md.TimePartitioning)
	assert.Equal(t, bigquery.DayPartitioningType, md.TimePartitioning.Type)
	assert.Equal(t, "occurred_at", md.TimePartitioning.Field)
	require.NotNil(t, md.Clustering)
	assert.Equal(t, []string{"project_id"}, md.Clustering.Fields)
}

func TestTableMetadataWithoutPartition(t *testing.T) {
	md := tableMetadata(TableSpec{Name: "plain"})
	assert.Nil(t, md.TimePartitioning)
	assert.Nil(t, md.Clustering)
}

func TestNewClientValidatesInputs(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, config.GCPConfig{}, config.BigQueryConfig{Dataset: "d"}, []TableSpec{{Name: "t"}}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{}, []TableSpec{{Name: "t"}}, nil)
	assert.ErrorIs(t, err, errDatasetRequired)

	_, err = NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{Dataset: "d"}, nil, nil)
	assert.ErrorIs(t, err, errNoTables)
}

func TestInsertRowsOnNilClient(t *testing.T) {
	var c *Client
	assert.ErrorIs(t, c.InsertRows(context.Background(), "t", []any{1}), errNotInitialized)
	assert.NoError(t, c.Close())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusNotFound})))
	assert.False(t, isNotFound(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, isNotFound(errors.New("boom")))
}

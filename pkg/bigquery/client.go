// Package bigquery owns the connection to the analytics dataset.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/angelmondragon/quoteengine-backend/pkg/config"
	"github.com/angelmondragon/quoteengine-backend/pkg/logger"
)

const metadataTimeout = 10 * time.Second

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errDatasetRequired   = errors.New("bigquery dataset is required")
	errNoTables          = errors.New("at least one bigquery table is required")
	errNotInitialized    = errors.New("bigquery client not initialized")
)

// TableSpec describes one analytics table. Schema and partitioning are only
// used when the table is missing and creation is enabled.
type TableSpec struct {
	Name           string
	Schema         bigquery.Schema
	PartitionField string
	ClusterBy      []string
}

type Client struct {
	client  *bigquery.Client
	dataset *bigquery.Dataset
	tables  map[string]TableSpec
}

// NewClient connects to the dataset and makes sure every table in specs exists.
// Missing tables are created when cfg.CreateMissingTables is set, otherwise they
// fail startup.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, specs []TableSpec, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	datasetID := strings.TrimSpace(cfg.Dataset)
	if datasetID == "" {
		return nil, errDatasetRequired
	}
	tables := indexTables(specs)
	if len(tables) == 0 {
		return nil, errNoTables
	}

	bq, err := bigquery.NewClient(ctx, projectID, gcp.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	c := &Client{client: bq, dataset: bq.Dataset(datasetID), tables: tables}

	created, err := c.ensureTables(ctx, cfg.CreateMissingTables)
	if err != nil {
		_ = bq.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"dataset":        datasetID,
			"tables":         len(tables),
			"tables_created": created,
		}), "bigquery.connected")
	}
	return c, nil
}

func indexTables(specs []TableSpec) map[string]TableSpec {
	out := make(map[string]TableSpec, len(specs))
	for _, spec := range specs {
		spec.Name = strings.TrimSpace(spec.Name)
		if spec.Name == "" {
			continue
		}
		out[spec.Name] = spec
	}
	return out
}

func (c *Client) ensureTables(ctx context.Context, create bool) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("dataset %q does not exist", c.dataset.DatasetID)
		}
		return nil, fmt.Errorf("checking dataset %q: %w", c.dataset.DatasetID, err)
	}

	var created []string
	for name, spec := range c.tables {
		_, err := c.dataset.Table(name).Metadata(ctx)
		if err == nil {
			continue
		}
		if !isNotFound(err) {
			return nil, fmt.Errorf("checking table %q: %w", name, err)
		}
		if !create {
			return nil, fmt.Errorf("table %q does not exist", name)
		}
		if err := c.dataset.Table(name).Create(ctx, tableMetadata(spec)); err != nil {
			return nil, fmt.Errorf("creating table %q: %w", name, err)
		}
		created = append(created, name)
	}
	return created, nil
}

func tableMetadata(spec TableSpec) *bigquery.TableMetadata {
	md := &bigquery.TableMetadata{Schema: spec.Schema}
	if spec.PartitionField != "" {
		md.TimePartitioning = &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: spec.PartitionField,
		}
	}
	if len(spec.ClusterBy) > 0 {
		md.Clustering = &bigquery.Clustering{Fields: spec.ClusterBy}
	}
	return md
}

// Ping checks that the dataset is still reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()
	_, err := c.dataset.Metadata(ctx)
	return err
}

// InsertRows streams rows into one of the registered tables.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.dataset == nil {
		return errNotInitialized
	}
	table = strings.TrimSpace(table)
	if _, ok := c.tables[table]; !ok {
		return fmt.Errorf("table %q is not registered", table)
	}
	if len(rows) == 0 {
		return nil
	}
	return c.dataset.Table(table).Inserter().Put(ctx, rows)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// Package inventory creates testbeds from a PostgreSQL device inventory.
// The source URI names the testbed; connection settings arrive as source
// options (host, port, user, password, database, sslmode, table).
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/cuongbtq/testbed-contrib/creators"
	"github.com/cuongbtq/testbed-contrib/shared/postgresql"
	"github.com/cuongbtq/testbed-contrib/topology"
)

// CreatorName identifies this creator in the registry.
const CreatorName = "inventory"

// DefaultTable is queried when the source does not name one.
const DefaultTable = "devices"

// identPattern restricts table names to plain SQL identifiers, since the
// table name is interpolated into the query text.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// deviceRow is one inventory record.
type deviceRow struct {
	Name     string `db:"name"`
	Host     string `db:"host"`
	Port     int    `db:"port"`
	Protocol string `db:"protocol"`
	Username string `db:"username"`
	Password string `db:"password"`
}

// Creator loads testbed documents from a PostgreSQL inventory table.
type Creator struct {
	logger *slog.Logger
}

// New creates the inventory creator. A nil logger discards connection logs.
func New(logger *slog.Logger) *Creator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Creator{logger: logger}
}

// Name returns the registry identifier.
func (c *Creator) Name() string {
	return CreatorName
}

// Create connects to the inventory database, reads every device row from
// the configured table and assembles a document named after the source URI.
func (c *Creator) Create(ctx context.Context, src creators.Source) (*topology.Document, error) {
	cfg, table, err := configFromSource(src)
	if err != nil {
		return nil, err
	}

	client, err := postgresql.NewClient(ctx, cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to inventory: %w", err)
	}
	defer client.Close()

	var rows []deviceRow
	if err := client.SelectContext(ctx, &rows, selectQuery(table)); err != nil {
		return nil, fmt.Errorf("failed to load inventory devices: %w", err)
	}

	return documentFromRows(src.URI, rows)
}

// selectQuery builds the device listing query for a validated table name.
func selectQuery(table string) string {
	return fmt.Sprintf(
		"SELECT name, host, port, protocol, username, password FROM %s ORDER BY name",
		table,
	)
}

// configFromSource maps source options onto a database configuration and
// the inventory table name.
func configFromSource(src creators.Source) (*postgresql.Config, string, error) {
	if src.URI == "" {
		return nil, "", errors.New("inventory creator requires a testbed name as the source URI")
	}

	database := src.Option("database", "")
	if database == "" {
		return nil, "", errors.New("inventory creator requires a database option")
	}

	portStr := src.Option("port", "5432")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, "", fmt.Errorf("invalid inventory port %q: %w", portStr, err)
	}

	table := src.Option("table", DefaultTable)
	if !identPattern.MatchString(table) {
		return nil, "", fmt.Errorf("invalid inventory table name %q", table)
	}

	cfg := &postgresql.Config{
		Host:     src.Option("host", "localhost"),
		Port:     port,
		User:     src.Option("user", "postgres"),
		Password: src.Option("password", ""),
		Database: database,
		SSLMode:  src.Option("sslmode", ""),
	}

	return cfg, table, nil
}

// documentFromRows assembles and validates a document from inventory rows.
func documentFromRows(name string, rows []deviceRow) (*topology.Document, error) {
	doc := &topology.Document{
		Name:    name,
		Devices: make(map[string]topology.DeviceEntry, len(rows)),
	}

	for _, row := range rows {
		if _, ok := doc.Devices[row.Name]; ok {
			return nil, fmt.Errorf("duplicate device %q in inventory", row.Name)
		}
		doc.Devices[row.Name] = topology.DeviceEntry{
			Host:     row.Host,
			Port:     row.Port,
			Protocol: row.Protocol,
			Username: row.Username,
			Password: row.Password,
		}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return doc, nil
}

func init() {
	creators.MustRegister(New(nil))
}

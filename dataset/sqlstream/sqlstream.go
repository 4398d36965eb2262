/*
Package sqlstream provides a dataset.Stream that reads examples from
a SQL database through database/sql. The examples table is expected
to have one column per declared feature plus one for the class
feature, with text values for nominal features and numeric values for
numeric ones. Adapters for PostgreSQL and SQLite3 open the database
with the matching driver.
*/
package sqlstream

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	// Drivers for the supported adapters.
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ty01csbaidu/streamDM/dataset"
	"github.com/ty01csbaidu/streamDM/feature"
)

const examplesTableName = "examples"

type sqlStream struct {
	db       *sql.DB
	rows     *sql.Rows
	features []feature.Feature
	class    *feature.NominalFeature
}

/*
OpenPostgreSQL takes a PostgreSQL connection URL, a slice of feature
declarations and the nominal class feature and returns a
dataset.Stream over the examples table of that database.
*/
func OpenPostgreSQL(ctx context.Context, url string, features []feature.Feature, class *feature.NominalFeature) (dataset.Stream, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening postgresql database: %v", err)
	}
	return open(ctx, db, features, class)
}

/*
OpenSQLite3 takes a path to an SQLite3 database file, a slice of
feature declarations and the nominal class feature and returns a
dataset.Stream over the examples table of that database.
*/
func OpenSQLite3(ctx context.Context, filepath string, features []feature.Feature, class *feature.NominalFeature) (dataset.Stream, error) {
	db, err := sql.Open("sqlite3", filepath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite3 database %s: %v", filepath, err)
	}
	return open(ctx, db, features, class)
}

func open(ctx context.Context, db *sql.DB, features []feature.Feature, class *feature.NominalFeature) (dataset.Stream, error) {
	columns := make([]string, 0, len(features)+1)
	for _, f := range features {
		columns = append(columns, quoteIdentifier(f.Name()))
	}
	columns = append(columns, quoteIdentifier(class.Name()))
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), examplesTableName)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("querying examples: %v", err)
	}
	return &sqlStream{db: db, rows: rows, features: features, class: class}, nil
}

func (ss *sqlStream) Next(ctx context.Context) (*feature.Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ss.rows.Next() {
		if err := ss.rows.Err(); err != nil {
			return nil, fmt.Errorf("reading example row: %v", err)
		}
		return nil, io.EOF
	}
	dests := make([]interface{}, len(ss.features)+1)
	values := make([]float64, len(ss.features))
	nominals := make([]sql.NullString, len(ss.features)+1)
	for i, f := range ss.features {
		if f.Kind() == feature.KindNominal {
			dests[i] = &nominals[i]
		} else {
			dests[i] = &values[i]
		}
	}
	dests[len(ss.features)] = &nominals[len(ss.features)]
	if err := ss.rows.Scan(dests...); err != nil {
		return nil, fmt.Errorf("scanning example row: %v", err)
	}
	for i, f := range ss.features {
		nf, ok := f.(*feature.NominalFeature)
		if !ok {
			continue
		}
		v := nf.ValueIndex(nominals[i].String)
		if v < 0 {
			return nil, fmt.Errorf("example row: unknown value %q for feature %s", nominals[i].String, nf.Name())
		}
		values[i] = float64(v)
	}
	rawClass := nominals[len(ss.features)].String
	class := ss.class.ValueIndex(rawClass)
	if class < 0 {
		return nil, fmt.Errorf("example row: unknown class %q", rawClass)
	}
	return feature.NewExample(values, class), nil
}

func (ss *sqlStream) Close() error {
	err := ss.rows.Close()
	if cerr := ss.db.Close(); err == nil {
		err = cerr
	}
	return err
}

func quoteIdentifier(name string) string {
	return `"` + strings.Replace(name, `"`, `""`, -1) + `"`
}

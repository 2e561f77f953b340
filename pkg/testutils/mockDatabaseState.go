// Copyright Contributors to the Open Cluster Management project
package testutils

import (
	"github.com/driftprogramming/pgxpoolmock"
	"github.com/golang/mock/gomock"
	"github.com/jackc/pgx/v4"
)

// GraniteRows builds the rows returned by a Granite view query, one JSON document per row.
func GraniteRows(docs ...string) pgx.Rows {
	rows := pgxpoolmock.NewRows([]string{"data"})
	for _, doc := range docs {
		rows.AddRow(doc)
	}
	return rows.ToPgxRows()
}

// MockPathElements mocks the path elements view for a circuit, all levels.
func MockPathElements(mockPool *pgxpoolmock.MockPgxPool, cid string, docs ...string) {
	mockPool.EXPECT().Query(gomock.Any(), gomock.Eq(
		`SELECT "data" FROM "granite"."path_elements" WHERE ("circ_path_hum_id" = $1) ORDER BY "lvl" ASC, "seq" ASC`),
		[]interface{}{cid}).Return(GraniteRows(docs...), nil)
}

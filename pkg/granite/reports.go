// Copyright Contributors to the Open Cluster Management project

package granite

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/doug-martin/goqu/v9"
	pgx "github.com/jackc/pgx/v4"
	"github.com/stolostron/circuit-reconciler/pkg/model"
	"k8s.io/klog/v2"
)

var reportsTable = goqu.S("reconciler").Table("reports")

// This is a wrapper for pgx.Batch
// pgx.Batch runs as a transaction, so a single bad report fails the whole batch.
// On error the batch is split in halves and resent until the failing reports are isolated.
type reportBatch struct {
	ctx    context.Context
	items  []batchItem
	dao    *DAO
	wg     *sync.WaitGroup
	lock   sync.Mutex
	failed []string // ids of reports that could not be saved
}

type batchItem struct {
	query string
	args  []interface{}
	id    string // Used to report errors.
}

func (b *reportBatch) queue(item batchItem) {
	b.items = append(b.items, item)
	if len(b.items) >= b.dao.batchSize {
		b.flush()
	}
}

func (b *reportBatch) flush() {
	if len(b.items) == 0 {
		return
	}
	items := b.items               // Create a snapshot of the items to process.
	b.items = make([]batchItem, 0) // Reset the queue.
	b.wg.Add(1)
	go b.sendBatch(items) // nolint: errcheck
}

func (b *reportBatch) fail(id string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.failed = append(b.failed, id)
}

func (b *reportBatch) sendBatch(items []batchItem) error {
	defer b.wg.Done()

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(item.query, item.args...)
	}
	br := b.dao.pool.SendBatch(b.ctx, batch)
	_, execErr := br.Exec()
	if closeErr := br.Close(); closeErr != nil {
		klog.Error("Error closing batch result. ", closeErr)
	}

	if execErr != nil && len(items) == 1 {
		klog.Errorf("ERROR saving report %s: %v", items[0].id, execErr)
		b.fail(items[0].id)
		return nil // The error is recorded, stop the recursion.
	} else if execErr != nil {
		b.wg.Add(2)
		err1 := b.sendBatch(items[:len(items)/2])
		err2 := b.sendBatch(items[len(items)/2:])
		if err1 != nil && err2 != nil {
			return nil
		}
	}
	return execErr
}

// SaveReports writes reports to the reports table and returns the ids of the reports that failed.
func (dao *DAO) SaveReports(ctx context.Context, reports []model.Report) []string {
	if dao.pool == nil {
		klog.Warningf("Unable to save %d reports: %v", len(reports), errNoConnection)
		ids := make([]string, 0, len(reports))
		for _, r := range reports {
			ids = append(ids, r.ID)
		}
		return ids
	}
	batch := &reportBatch{ctx: ctx, dao: dao, wg: &sync.WaitGroup{}, items: make([]batchItem, 0)}

	for _, report := range reports {
		data, err := json.Marshal(report.Data)
		if err != nil {
			klog.Errorf("Unable to encode report %s: %v", report.ID, err)
			batch.fail(report.ID)
			continue
		}
		// Sample query: INSERT INTO "reconciler"."reports" ("cid", "data", "id", "kind") VALUES ($1, $2, $3, $4)
		query, args, err := dialect.From(reportsTable).Prepared(true).
			Insert().Rows(goqu.Record{"id": report.ID, "cid": report.CID, "kind": report.Kind, "data": string(data)}).
			OnConflict(goqu.DoNothing()).ToSQL()
		if err != nil {
			klog.Errorf("Unable to build insert for report %s: %v", report.ID, err)
			batch.fail(report.ID)
			continue
		}
		batch.queue(batchItem{query: query, args: args, id: report.ID})
	}
	batch.flush()
	batch.wg.Wait()

	if len(batch.failed) > 0 {
		klog.Warningf("Unable to save %d of %d reports.", len(batch.failed), len(reports))
	}
	return batch.failed
}

// ReportCount returns the number of reports stored for a circuit.
func (dao *DAO) ReportCount(ctx context.Context, cid string) (int, error) {
	// Sample query: SELECT COUNT(*) FROM "reconciler"."reports" WHERE ("cid" = $1)
	query, args, err := dialect.From(reportsTable).Prepared(true).
		Select(goqu.COUNT("*")).Where(goqu.C("cid").Eq(cid)).ToSQL()
	if err != nil {
		return 0, err
	}
	if dao.pool == nil {
		return 0, errNoConnection
	}
	var count int
	if err := dao.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		klog.Errorf("Error reading report count for %s: %v", cid, err)
		return 0, err
	}
	return count, nil
}

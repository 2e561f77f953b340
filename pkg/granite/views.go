// Copyright Contributors to the Open Cluster Management project

package granite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/stolostron/circuit-reconciler/pkg/metrics"
	"k8s.io/klog/v2"
)

// Row is one Granite record, keyed by the upper case Granite column names (TID, CIRC_PATH_INST_ID, ...).
type Row map[string]interface{}

// Str returns the value of key as a string, "" when missing.
func (r Row) Str(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func view(name string) exp.IdentifierExpression {
	return goqu.S("granite").Table(name)
}

// Sample query: SELECT "data" FROM "granite"."path_elements" WHERE ("circ_path_hum_id" = $1) ORDER BY "lvl" ASC, "seq" ASC
func pathElementsQuery(cid, level string) (string, []interface{}, error) {
	where := []exp.Expression{goqu.C("circ_path_hum_id").Eq(cid)}
	if level != "" {
		where = append(where, goqu.C("lvl").Eq(level))
	}
	return dialect.From(view("path_elements")).Prepared(true).
		Select("data").Where(where...).
		Order(goqu.C("lvl").Asc(), goqu.C("seq").Asc()).ToSQL()
}

// PathElements returns the path elements of a circuit. An empty level returns every level.
func (dao *DAO) PathElements(ctx context.Context, cid, level string) ([]Row, error) {
	sql, args, err := pathElementsQuery(cid, level)
	if err != nil {
		return nil, err
	}
	return dao.queryRows(ctx, sql, args)
}

// CircuitSiteInfo returns the A and Z site information of a circuit.
func (dao *DAO) CircuitSiteInfo(ctx context.Context, cid string) ([]Row, error) {
	sql, args, err := dialect.From(view("circuit_sites")).Prepared(true).
		Select("data").Where(goqu.C("circuit_name").Eq(cid)).ToSQL()
	if err != nil {
		return nil, err
	}
	return dao.queryRows(ctx, sql, args)
}

// CircuitUDAs returns the user defined attributes of a circuit path instance.
func (dao *DAO) CircuitUDAs(ctx context.Context, instID string) ([]Row, error) {
	sql, args, err := dialect.From(view("circuit_udas")).Prepared(true).
		Select("data").Where(goqu.C("circ_path_inst_id").Eq(instID)).ToSQL()
	if err != nil {
		return nil, err
	}
	return dao.queryRows(ctx, sql, args)
}

// PathsFromSite returns the paths terminating at a site.
func (dao *DAO) PathsFromSite(ctx context.Context, site string) ([]Row, error) {
	sql, args, err := dialect.From(view("paths_from_site")).Prepared(true).
		Select("data").Where(goqu.C("site_name").Eq(site)).ToSQL()
	if err != nil {
		return nil, err
	}
	return dao.queryRows(ctx, sql, args)
}

// UsedEquipmentPorts returns the in use ports of a device and the paths assigned to them.
func (dao *DAO) UsedEquipmentPorts(ctx context.Context, tid string) ([]Row, error) {
	sql, args, err := dialect.From(view("equipment_ports")).Prepared(true).
		Select("data").Where(goqu.C("equip_name").Eq(tid), goqu.C("used").IsTrue()).ToSQL()
	if err != nil {
		return nil, err
	}
	return dao.queryRows(ctx, sql, args)
}

// UpdateShelfIPv4 records the IPv4 address found on the network for the VGW shelf of a circuit.
func (dao *DAO) UpdateShelfIPv4(ctx context.Context, cid, cidr string) error {
	sql, args, err := dialect.Update(view("shelves")).Prepared(true).
		Set(goqu.Record{"ipv4_address": cidr}).Where(goqu.C("circ_path_hum_id").Eq(cid)).ToSQL()
	if err != nil {
		return err
	}
	if dao.pool == nil {
		return errNoConnection
	}
	defer metrics.SlowLog(fmt.Sprintf("Slow shelf update for %s", cid), 0)()
	start := time.Now()
	tag, err := dao.pool.Exec(ctx, sql, args...)
	metrics.ObserveOutbound("granite", start, statusCode(err))
	if err != nil {
		klog.Errorf("Error updating shelf ipv4 for %s: %v", cid, err)
		return err
	}
	klog.V(2).Infof("Updated VGW shelf ipv4 for %s to %s. %s", cid, cidr, string(tag))
	return nil
}

// queryRows runs a single column JSONB query and decodes each row.
func (dao *DAO) queryRows(ctx context.Context, sql string, args []interface{}) ([]Row, error) {
	defer metrics.SlowLog(fmt.Sprintf("Slow granite query: %s", sql), 0)()
	klog.V(5).Infof("Granite query: %s args: %v", sql, args)
	if dao.pool == nil {
		return nil, errNoConnection
	}

	start := time.Now()
	rows, err := dao.pool.Query(ctx, sql, args...)
	metrics.ObserveOutbound("granite", start, statusCode(err))
	if err != nil {
		klog.Errorf("Error running query [%s]: %v", sql, err)
		return nil, err
	}
	defer rows.Close()

	result := []Row{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			klog.Errorf("Error %s retrieving rows for query: %s", err.Error(), sql)
			return nil, err
		}
		row := Row{}
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			return nil, fmt.Errorf("decoding granite row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func statusCode(err error) int {
	if err != nil {
		return 0
	}
	return 200
}

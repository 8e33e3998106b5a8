package inventory

const sqlGetCompany = `SELECT id, name, COALESCE(vat, ''), COALESCE(tz, 'UTC') FROM companies WHERE id=$1`

const sqlListProducts = `SELECT p.id, p.company_id, COALESCE(p.default_code, ''), p.name, p.type,
       p.list_price, p.standard_price,
       u.id, u.name, u.rounding,
       pu.id, pu.name, pu.rounding,
       COALESCE(p.produce_delay, 0), COALESCE(p.production_location_id, 0), p.purchase_ok
FROM products p
JOIN uoms u ON u.id = p.uom_id
LEFT JOIN uoms pu ON pu.id = p.uom_po_id
WHERE p.company_id = $1
  AND ($2::bool IS FALSE OR (p.type <> 'service' AND COALESCE(p.default_code, '') <> ''))
  AND ($3::text[] IS NULL OR p.default_code = ANY($3::text[]))
ORDER BY p.id`

const sqlListSellers = `SELECT product_id, partner_id, partner_name, COALESCE(company_id, 0), delay, min_qty,
       COALESCE(supplier_location_id, 0)
FROM product_suppliers
WHERE product_id = ANY($1::bigint[])
ORDER BY product_id, sequence, id`

const sqlListLocations = `SELECT l.id, COALESCE(l.parent_id, 0), COALESCE(l.company_id, 0), l.name,
       COALESCE(l.complete_name, l.name), COALESCE(l.barcode, ''), l.usage, l.onebeat_ignore,
       EXISTS (SELECT 1 FROM warehouses w WHERE w.lot_stock_id = l.id) AS warehouse_direct
FROM stock_locations l
WHERE (l.company_id = $1 OR l.company_id IS NULL)
  AND ($2::text[] IS NULL OR l.usage = ANY($2::text[]))
  AND ($3::bigint[] IS NULL OR l.id = ANY($3::bigint[]))
ORDER BY l.id`

const sqlSumQuants = `SELECT q.product_id, q.location_id, SUM(q.quantity)
FROM stock_quants q
JOIN stock_locations l ON l.id = q.location_id
WHERE q.company_id = $1 AND l.usage = 'internal' AND l.onebeat_ignore IS FALSE
GROUP BY q.product_id, q.location_id`

const sqlListOpenMoveLines = `SELECT ml.product_id, ml.location_id, ml.location_dest_id, ml.state,
       SUM(ml.product_uom_qty), SUM(ml.qty_done)
FROM stock_move_lines ml
WHERE ml.company_id = $1 AND ml.state = ANY($2::text[])
GROUP BY ml.product_id, ml.location_id, ml.location_dest_id, ml.state`

const sqlListMoves = `SELECT m.id, m.product_id, m.location_id, m.location_dest_id, m.state, m.date, m.quantity_done
FROM stock_moves m
WHERE m.company_id = $1
  AND m.state = ANY($2::text[])
  AND m.date >= COALESCE($3, '-infinity'::timestamptz)
  AND m.date < COALESCE($4, 'infinity'::timestamptz)
ORDER BY m.date, m.id`

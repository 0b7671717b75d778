package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

// --- Orders ---

func scanOrder(sc scanner) (models.Order, error) {
	var o models.Order
	var user sql.NullInt64
	err := sc.Scan(&o.ID, &o.Date, &o.CustomerID, &o.Note, &o.Status, &user)
	o.UserID = intPtr(user)
	return o, err
}

const orderCols = "id, date, customer_id, note, status, user_id"

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	return queryList(ctx, s.q, scanOrder, "SELECT "+orderCols+" FROM orders ORDER BY id DESC")
}

func (s *Store) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	return queryOne(ctx, s.q, scanOrder, "SELECT "+orderCols+" FROM orders WHERE id = ?", id)
}

// CreateOrder inserts o together with its job orders in one transaction.
// Each job order's customer is copied from the order.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order, jobOrders []models.JobOrder) ([]models.JobOrder, error) {
	if o.Status == "" {
		o.Status = "pending"
	}
	if o.Date == "" {
		o.Date = now()
	}
	created := []models.JobOrder{}
	err := s.WithTx(ctx, func(tx *Store) error {
		id, err := tx.insert(ctx, "INSERT INTO orders (date, customer_id, note, status, user_id) VALUES (?, ?, ?, ?, ?)",
			o.Date, o.CustomerID, o.Note, o.Status, nullInt(o.UserID))
		if err != nil {
			return err
		}
		o.ID = id
		for _, jo := range jobOrders {
			jo.OrderID = id
			jo.CustomerID = o.CustomerID
			if err := tx.CreateJobOrder(ctx, &jo); err != nil {
				return err
			}
			created = append(created, jo)
		}
		return nil
	})
	return created, err
}

func (s *Store) UpdateOrder(ctx context.Context, o *models.Order) error {
	return s.execOne(ctx, "UPDATE orders SET date = ?, customer_id = ?, note = ?, status = ?, user_id = ? WHERE id = ?",
		o.Date, o.CustomerID, o.Note, o.Status, nullInt(o.UserID), o.ID)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	return s.execOne(ctx, "UPDATE orders SET status = ? WHERE id = ?", status, id)
}

// DeleteOrder removes the order; its job orders and rolls cascade.
func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "orders", id)
}

// --- Job orders ---

const jobOrderCols = "id, order_id, customer_product_id, customer_id, quantity, finished_qty, received_qty, status"

func scanJobOrder(sc scanner) (models.JobOrder, error) {
	var jo models.JobOrder
	err := sc.Scan(&jo.ID, &jo.OrderID, &jo.CustomerProductID, &jo.CustomerID, &jo.Quantity,
		&jo.FinishedQty, &jo.ReceivedQty, &jo.Status)
	return jo, err
}

func (s *Store) ListJobOrders(ctx context.Context) ([]models.JobOrder, error) {
	return queryList(ctx, s.q, scanJobOrder, "SELECT "+jobOrderCols+" FROM job_orders ORDER BY id DESC")
}

func (s *Store) ListJobOrdersByOrder(ctx context.Context, orderID int64) ([]models.JobOrder, error) {
	return queryList(ctx, s.q, scanJobOrder, "SELECT "+jobOrderCols+" FROM job_orders WHERE order_id = ? ORDER BY id", orderID)
}

func (s *Store) GetJobOrder(ctx context.Context, id int64) (models.JobOrder, error) {
	return queryOne(ctx, s.q, scanJobOrder, "SELECT "+jobOrderCols+" FROM job_orders WHERE id = ?", id)
}

func (s *Store) CreateJobOrder(ctx context.Context, jo *models.JobOrder) error {
	if jo.Status == "" {
		jo.Status = "pending"
	}
	id, err := s.insert(ctx, `INSERT INTO job_orders (order_id, customer_product_id, customer_id, quantity, finished_qty, received_qty, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		jo.OrderID, jo.CustomerProductID, jo.CustomerID, jo.Quantity, jo.FinishedQty, jo.ReceivedQty, jo.Status)
	if err != nil {
		return err
	}
	jo.ID = id
	return nil
}

func (s *Store) UpdateJobOrder(ctx context.Context, jo *models.JobOrder) error {
	return s.execOne(ctx, `UPDATE job_orders SET order_id = ?, customer_product_id = ?, customer_id = ?, quantity = ?,
		finished_qty = ?, received_qty = ?, status = ? WHERE id = ?`,
		jo.OrderID, jo.CustomerProductID, jo.CustomerID, jo.Quantity, jo.FinishedQty, jo.ReceivedQty, jo.Status, jo.ID)
}

func (s *Store) UpdateJobOrderStatus(ctx context.Context, id int64, status string) error {
	return s.execOne(ctx, "UPDATE job_orders SET status = ? WHERE id = ?", status, id)
}

func (s *Store) DeleteJobOrder(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "job_orders", id)
}

// --- Rolls ---

const rollCols = `id, job_order_id, serial_number, extruding_qty, printing_qty, cutting_qty, waste_qty, current_stage,
	status, created_by_id, printed_by_id, cut_by_id, created_at, printed_at, cut_at`

func scanRoll(sc scanner) (models.Roll, error) {
	var r models.Roll
	var createdBy, printedBy, cutBy sql.NullInt64
	var printedAt, cutAt sql.NullString
	err := sc.Scan(&r.ID, &r.JobOrderID, &r.SerialNumber, &r.ExtrudingQty, &r.PrintingQty, &r.CuttingQty, &r.WasteQty,
		&r.CurrentStage, &r.Status, &createdBy, &printedBy, &cutBy, &r.CreatedAt, &printedAt, &cutAt)
	r.CreatedByID = intPtr(createdBy)
	r.PrintedByID = intPtr(printedBy)
	r.CutByID = intPtr(cutBy)
	r.PrintedAt = stringPtr(printedAt)
	r.CutAt = stringPtr(cutAt)
	return r, err
}

func (s *Store) ListRolls(ctx context.Context) ([]models.Roll, error) {
	return queryList(ctx, s.q, scanRoll, "SELECT "+rollCols+" FROM rolls ORDER BY created_at DESC, id DESC")
}

func (s *Store) ListRollsByJobOrder(ctx context.Context, jobOrderID int64) ([]models.Roll, error) {
	return queryList(ctx, s.q, scanRoll, "SELECT "+rollCols+" FROM rolls WHERE job_order_id = ? ORDER BY serial_number", jobOrderID)
}

func (s *Store) ListRollsByStage(ctx context.Context, stage string) ([]models.Roll, error) {
	return queryList(ctx, s.q, scanRoll, "SELECT "+rollCols+" FROM rolls WHERE current_stage = ? ORDER BY created_at DESC, id DESC", stage)
}

func (s *Store) GetRoll(ctx context.Context, id string) (models.Roll, error) {
	return queryOne(ctx, s.q, scanRoll, "SELECT "+rollCols+" FROM rolls WHERE id = ?", id)
}

// RollID builds the composite roll identifier for the serial-th roll of a
// job order, e.g. EX-0012-003.
func RollID(jobOrderID int64, serial int) (id, serialNumber string) {
	serialNumber = fmt.Sprintf("%03d", serial)
	return fmt.Sprintf("EX-%04d-%s", jobOrderID, serialNumber), serialNumber
}

// CreateRoll numbers the roll after the highest serial of its job order and
// inserts it in the extrusion stage with status processing. Numbering and
// inserting share one transaction. Serials of deleted rolls are not reused.
func (s *Store) CreateRoll(ctx context.Context, r *models.Roll) error {
	return s.WithTx(ctx, func(tx *Store) error {
		var n int
		err := tx.q.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(CAST(serial_number AS INTEGER)), 0) FROM rolls WHERE job_order_id = ?", r.JobOrderID).Scan(&n)
		if err != nil {
			return err
		}
		r.ID, r.SerialNumber = RollID(r.JobOrderID, n+1)
		r.Status = "processing"
		r.CurrentStage = "extrusion"
		r.CreatedAt = now()
		_, err = tx.exec(ctx, `INSERT INTO rolls (id, job_order_id, serial_number, extruding_qty, printing_qty, cutting_qty,
			waste_qty, current_stage, status, created_by_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.JobOrderID, r.SerialNumber, r.ExtrudingQty, r.PrintingQty, r.CuttingQty, r.WasteQty,
			r.CurrentStage, r.Status, nullInt(r.CreatedByID), r.CreatedAt)
		return err
	})
}

func (s *Store) UpdateRoll(ctx context.Context, r *models.Roll) error {
	return s.execOne(ctx, `UPDATE rolls SET job_order_id = ?, extruding_qty = ?, printing_qty = ?, cutting_qty = ?,
		waste_qty = ?, current_stage = ?, status = ?, created_by_id = ?, printed_by_id = ?, cut_by_id = ?,
		printed_at = ?, cut_at = ? WHERE id = ?`,
		r.JobOrderID, r.ExtrudingQty, r.PrintingQty, r.CuttingQty, r.WasteQty, r.CurrentStage, r.Status,
		nullInt(r.CreatedByID), nullInt(r.PrintedByID), nullInt(r.CutByID), nullString(r.PrintedAt), nullString(r.CutAt), r.ID)
}

func (s *Store) DeleteRoll(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "rolls", id)
}

// --- Final products ---

func scanFinalProduct(sc scanner) (models.FinalProduct, error) {
	var fp models.FinalProduct
	err := sc.Scan(&fp.ID, &fp.JobOrderID, &fp.Quantity, &fp.CompletedDate, &fp.Status)
	return fp, err
}

const finalProductCols = "id, job_order_id, quantity, completed_date, status"

func (s *Store) ListFinalProducts(ctx context.Context) ([]models.FinalProduct, error) {
	return queryList(ctx, s.q, scanFinalProduct, "SELECT "+finalProductCols+" FROM final_products ORDER BY id DESC")
}

func (s *Store) ListFinalProductsByJobOrder(ctx context.Context, jobOrderID int64) ([]models.FinalProduct, error) {
	return queryList(ctx, s.q, scanFinalProduct,
		"SELECT "+finalProductCols+" FROM final_products WHERE job_order_id = ? ORDER BY id", jobOrderID)
}

func (s *Store) GetFinalProduct(ctx context.Context, id int64) (models.FinalProduct, error) {
	return queryOne(ctx, s.q, scanFinalProduct, "SELECT "+finalProductCols+" FROM final_products WHERE id = ?", id)
}

func (s *Store) CreateFinalProduct(ctx context.Context, fp *models.FinalProduct) error {
	if fp.Status == "" {
		fp.Status = "in-stock"
	}
	if fp.CompletedDate == "" {
		fp.CompletedDate = today()
	}
	id, err := s.insert(ctx, "INSERT INTO final_products (job_order_id, quantity, completed_date, status) VALUES (?, ?, ?, ?)",
		fp.JobOrderID, fp.Quantity, fp.CompletedDate, fp.Status)
	if err != nil {
		return err
	}
	fp.ID = id
	return nil
}

func (s *Store) UpdateFinalProduct(ctx context.Context, fp *models.FinalProduct) error {
	return s.execOne(ctx, "UPDATE final_products SET job_order_id = ?, quantity = ?, completed_date = ?, status = ? WHERE id = ?",
		fp.JobOrderID, fp.Quantity, fp.CompletedDate, fp.Status, fp.ID)
}

func (s *Store) DeleteFinalProduct(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "final_products", id)
}

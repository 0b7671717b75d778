package storage

import (
	"context"
	"database/sql"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

// --- Categories ---

func scanCategory(sc scanner) (models.Category, error) {
	var c models.Category
	err := sc.Scan(&c.ID, &c.Name, &c.Code)
	return c, err
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	return queryList(ctx, s.q, scanCategory, "SELECT id, name, code FROM categories ORDER BY name")
}

func (s *Store) GetCategory(ctx context.Context, id string) (models.Category, error) {
	return queryOne(ctx, s.q, scanCategory, "SELECT id, name, code FROM categories WHERE id = ?", id)
}

// CategoryCodeTaken reports whether code belongs to a category other than exceptID.
func (s *Store) CategoryCodeTaken(ctx context.Context, code, exceptID string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories WHERE code = ? AND id != ?", code, exceptID).Scan(&n)
	return n > 0, err
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	_, err := s.exec(ctx, "INSERT INTO categories (id, name, code) VALUES (?, ?, ?)", c.ID, c.Name, c.Code)
	return err
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	return s.execOne(ctx, "UPDATE categories SET name = ?, code = ? WHERE id = ?", c.Name, c.Code, c.ID)
}

// DeleteCategory refuses to remove a category that still has items.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.deleteGuarded(ctx, "categories", id, "items", "category_id")
}

// deleteGuarded deletes id from table unless a row in depTable references it.
func (s *Store) deleteGuarded(ctx context.Context, table string, id any, depTable, depColumn string) error {
	return s.WithTx(ctx, func(tx *Store) error {
		ok, err := tx.Exists(ctx, table, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		n, err := tx.Count(ctx, depTable, depColumn, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrReferenced
		}
		return tx.deleteByID(ctx, table, id)
	})
}

// --- Items ---

const itemCols = "id, category_id, name, full_name"

func scanItem(sc scanner) (models.Item, error) {
	var it models.Item
	err := sc.Scan(&it.ID, &it.CategoryID, &it.Name, &it.FullName)
	return it, err
}

func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	return queryList(ctx, s.q, scanItem, "SELECT "+itemCols+" FROM items ORDER BY name")
}

func (s *Store) ListItemsByCategory(ctx context.Context, categoryID string) ([]models.Item, error) {
	return queryList(ctx, s.q, scanItem, "SELECT "+itemCols+" FROM items WHERE category_id = ? ORDER BY name", categoryID)
}

func (s *Store) GetItem(ctx context.Context, id string) (models.Item, error) {
	return queryOne(ctx, s.q, scanItem, "SELECT "+itemCols+" FROM items WHERE id = ?", id)
}

func (s *Store) CreateItem(ctx context.Context, it *models.Item) error {
	_, err := s.exec(ctx, "INSERT INTO items (id, category_id, name, full_name) VALUES (?, ?, ?, ?)",
		it.ID, it.CategoryID, it.Name, it.FullName)
	return err
}

func (s *Store) UpdateItem(ctx context.Context, it *models.Item) error {
	return s.execOne(ctx, "UPDATE items SET category_id = ?, name = ?, full_name = ? WHERE id = ?",
		it.CategoryID, it.Name, it.FullName, it.ID)
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	return s.deleteGuarded(ctx, "items", id, "customer_products", "item_id")
}

// --- Sections ---

func scanSection(sc scanner) (models.Section, error) {
	var sec models.Section
	err := sc.Scan(&sec.ID, &sec.Name)
	return sec, err
}

func (s *Store) ListSections(ctx context.Context) ([]models.Section, error) {
	return queryList(ctx, s.q, scanSection, "SELECT id, name FROM sections ORDER BY name")
}

func (s *Store) GetSection(ctx context.Context, id string) (models.Section, error) {
	return queryOne(ctx, s.q, scanSection, "SELECT id, name FROM sections WHERE id = ?", id)
}

func (s *Store) CreateSection(ctx context.Context, sec *models.Section) error {
	_, err := s.exec(ctx, "INSERT INTO sections (id, name) VALUES (?, ?)", sec.ID, sec.Name)
	return err
}

func (s *Store) UpdateSection(ctx context.Context, sec *models.Section) error {
	return s.execOne(ctx, "UPDATE sections SET name = ? WHERE id = ?", sec.Name, sec.ID)
}

// DeleteSection refuses while machines or users still belong to the section.
func (s *Store) DeleteSection(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(tx *Store) error {
		n, err := tx.Count(ctx, "users", "section_id", id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrReferenced
		}
		return tx.deleteGuarded(ctx, "sections", id, "machines", "section_id")
	})
}

// --- Machines ---

func scanMachine(sc scanner) (models.Machine, error) {
	var m models.Machine
	var section sql.NullString
	err := sc.Scan(&m.ID, &m.Name, &section, &m.IsActive)
	m.SectionID = stringPtr(section)
	return m, err
}

func (s *Store) ListMachines(ctx context.Context) ([]models.Machine, error) {
	return queryList(ctx, s.q, scanMachine, "SELECT id, name, section_id, is_active FROM machines ORDER BY name")
}

func (s *Store) ListMachinesBySection(ctx context.Context, sectionID string) ([]models.Machine, error) {
	return queryList(ctx, s.q, scanMachine, "SELECT id, name, section_id, is_active FROM machines WHERE section_id = ? ORDER BY name", sectionID)
}

func (s *Store) GetMachine(ctx context.Context, id string) (models.Machine, error) {
	return queryOne(ctx, s.q, scanMachine, "SELECT id, name, section_id, is_active FROM machines WHERE id = ?", id)
}

func (s *Store) CreateMachine(ctx context.Context, m *models.Machine) error {
	_, err := s.exec(ctx, "INSERT INTO machines (id, name, section_id, is_active) VALUES (?, ?, ?, ?)",
		m.ID, m.Name, nullString(m.SectionID), boolInt(m.IsActive))
	return err
}

func (s *Store) UpdateMachine(ctx context.Context, m *models.Machine) error {
	return s.execOne(ctx, "UPDATE machines SET name = ?, section_id = ?, is_active = ? WHERE id = ?",
		m.Name, nullString(m.SectionID), boolInt(m.IsActive), m.ID)
}

func (s *Store) DeleteMachine(ctx context.Context, id string) error {
	return s.deleteGuarded(ctx, "machines", id, "maintenance_requests", "machine_id")
}

// --- Master batches ---

func scanMasterBatch(sc scanner) (models.MasterBatch, error) {
	var mb models.MasterBatch
	err := sc.Scan(&mb.ID, &mb.Name)
	return mb, err
}

func (s *Store) ListMasterBatches(ctx context.Context) ([]models.MasterBatch, error) {
	return queryList(ctx, s.q, scanMasterBatch, "SELECT id, name FROM master_batches ORDER BY name")
}

func (s *Store) GetMasterBatch(ctx context.Context, id string) (models.MasterBatch, error) {
	return queryOne(ctx, s.q, scanMasterBatch, "SELECT id, name FROM master_batches WHERE id = ?", id)
}

func (s *Store) CreateMasterBatch(ctx context.Context, mb *models.MasterBatch) error {
	_, err := s.exec(ctx, "INSERT INTO master_batches (id, name) VALUES (?, ?)", mb.ID, mb.Name)
	return err
}

func (s *Store) UpdateMasterBatch(ctx context.Context, mb *models.MasterBatch) error {
	return s.execOne(ctx, "UPDATE master_batches SET name = ? WHERE id = ?", mb.Name, mb.ID)
}

func (s *Store) DeleteMasterBatch(ctx context.Context, id string) error {
	return s.deleteGuarded(ctx, "master_batches", id, "customer_products", "master_batch_id")
}

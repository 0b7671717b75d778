package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

// --- Raw materials ---

const rawMaterialCols = "id, name, type, quantity, unit, last_updated"

func scanRawMaterial(sc scanner) (models.RawMaterial, error) {
	var m models.RawMaterial
	err := sc.Scan(&m.ID, &m.Name, &m.Type, &m.Quantity, &m.Unit, &m.LastUpdated)
	return m, err
}

func (s *Store) ListRawMaterials(ctx context.Context) ([]models.RawMaterial, error) {
	return queryList(ctx, s.q, scanRawMaterial, "SELECT "+rawMaterialCols+" FROM raw_materials ORDER BY name")
}

func (s *Store) GetRawMaterial(ctx context.Context, id int64) (models.RawMaterial, error) {
	return queryOne(ctx, s.q, scanRawMaterial, "SELECT "+rawMaterialCols+" FROM raw_materials WHERE id = ?", id)
}

// FindRawMaterialByName is used by the CSV importer to upsert by name.
func (s *Store) FindRawMaterialByName(ctx context.Context, name string) (models.RawMaterial, error) {
	return queryOne(ctx, s.q, scanRawMaterial, "SELECT "+rawMaterialCols+" FROM raw_materials WHERE name = ? LIMIT 1", name)
}

func (s *Store) CreateRawMaterial(ctx context.Context, m *models.RawMaterial) error {
	m.LastUpdated = now()
	id, err := s.insert(ctx, "INSERT INTO raw_materials (name, type, quantity, unit, last_updated) VALUES (?, ?, ?, ?, ?)",
		m.Name, m.Type, m.Quantity, m.Unit, m.LastUpdated)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

func (s *Store) UpdateRawMaterial(ctx context.Context, m *models.RawMaterial) error {
	m.LastUpdated = now()
	return s.execOne(ctx, "UPDATE raw_materials SET name = ?, type = ?, quantity = ?, unit = ?, last_updated = ? WHERE id = ?",
		m.Name, m.Type, m.Quantity, m.Unit, m.LastUpdated, m.ID)
}

func (s *Store) DeleteRawMaterial(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(tx *Store) error {
		n, err := tx.Count(ctx, "mix_items", "raw_material_id", id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrReferenced
		}
		return tx.deleteGuarded(ctx, "raw_materials", id, "material_input_items", "raw_material_id")
	})
}

// adjustStock adds delta to a raw material's on-hand quantity. A negative
// delta larger than the stock fails with ErrInsufficientStock.
func (s *Store) adjustStock(ctx context.Context, rawMaterialID int64, delta float64) error {
	m, err := s.GetRawMaterial(ctx, rawMaterialID)
	if err != nil {
		return err
	}
	if m.Quantity+delta < 0 {
		return fmt.Errorf("%w: %s has %.2f %s, need %.2f", ErrInsufficientStock, m.Name, m.Quantity, m.Unit, -delta)
	}
	_, err = s.exec(ctx, "UPDATE raw_materials SET quantity = quantity + ?, last_updated = ? WHERE id = ?",
		delta, now(), rawMaterialID)
	return err
}

// --- Mix materials ---

func scanMix(sc scanner) (models.MixMaterial, error) {
	var m models.MixMaterial
	var person sql.NullInt64
	err := sc.Scan(&m.ID, &m.MixDate, &person, &m.TotalQuantity, &m.CreatedAt)
	m.MixPerson = intPtr(person)
	return m, err
}

const mixCols = "id, mix_date, mix_person, total_quantity, created_at"

func (s *Store) ListMixMaterials(ctx context.Context) ([]models.MixMaterial, error) {
	mixes, err := queryList(ctx, s.q, scanMix, "SELECT "+mixCols+" FROM mix_materials ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	byMix, err := s.allMixMachines(ctx)
	if err != nil {
		return nil, err
	}
	for i := range mixes {
		mixes[i].MachineIDs = byMix[mixes[i].ID]
		if mixes[i].MachineIDs == nil {
			mixes[i].MachineIDs = []string{}
		}
	}
	return mixes, nil
}

func (s *Store) GetMixMaterial(ctx context.Context, id int64) (models.MixMaterial, error) {
	m, err := queryOne(ctx, s.q, scanMix, "SELECT "+mixCols+" FROM mix_materials WHERE id = ?", id)
	if err != nil {
		return m, err
	}
	m.MachineIDs, err = s.ListMixMachines(ctx, id)
	return m, err
}

// CreateMixMaterial inserts the mix, its items and its machine links in one
// transaction, drawing every item from raw-material stock.
func (s *Store) CreateMixMaterial(ctx context.Context, m *models.MixMaterial, items []models.MixItem) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if m.MixDate == "" {
			m.MixDate = now()
		}
		m.CreatedAt = now()
		id, err := tx.insert(ctx, "INSERT INTO mix_materials (mix_date, mix_person, total_quantity, created_at) VALUES (?, ?, 0, ?)",
			m.MixDate, nullInt(m.MixPerson), m.CreatedAt)
		if err != nil {
			return err
		}
		m.ID = id
		for i := range items {
			items[i].MixID = id
			if err := tx.insertMixItem(ctx, &items[i]); err != nil {
				return err
			}
		}
		for _, machineID := range m.MachineIDs {
			if err := tx.AddMixMachine(ctx, id, machineID); err != nil {
				return err
			}
		}
		if m.MachineIDs == nil {
			m.MachineIDs = []string{}
		}
		total, err := tx.recomputeMix(ctx, id)
		m.TotalQuantity = total
		return err
	})
}

func (s *Store) UpdateMixMaterial(ctx context.Context, m *models.MixMaterial) error {
	return s.execOne(ctx, "UPDATE mix_materials SET mix_date = ?, mix_person = ? WHERE id = ?",
		m.MixDate, nullInt(m.MixPerson), m.ID)
}

// DeleteMixMaterial returns every item's quantity to stock and removes the mix.
func (s *Store) DeleteMixMaterial(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(tx *Store) error {
		items, err := tx.ListMixItemsByMix(ctx, id)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := tx.adjustStock(ctx, it.RawMaterialID, it.Quantity); err != nil {
				return err
			}
		}
		return tx.deleteByID(ctx, "mix_materials", id)
	})
}

// --- Mix items ---

const mixItemCols = "id, mix_id, raw_material_id, quantity, percentage"

func scanMixItem(sc scanner) (models.MixItem, error) {
	var it models.MixItem
	err := sc.Scan(&it.ID, &it.MixID, &it.RawMaterialID, &it.Quantity, &it.Percentage)
	return it, err
}

func (s *Store) ListMixItems(ctx context.Context) ([]models.MixItem, error) {
	return queryList(ctx, s.q, scanMixItem, "SELECT "+mixItemCols+" FROM mix_items ORDER BY mix_id, id")
}

func (s *Store) ListMixItemsByMix(ctx context.Context, mixID int64) ([]models.MixItem, error) {
	return queryList(ctx, s.q, scanMixItem, "SELECT "+mixItemCols+" FROM mix_items WHERE mix_id = ? ORDER BY id", mixID)
}

func (s *Store) GetMixItem(ctx context.Context, id int64) (models.MixItem, error) {
	return queryOne(ctx, s.q, scanMixItem, "SELECT "+mixItemCols+" FROM mix_items WHERE id = ?", id)
}

func (s *Store) insertMixItem(ctx context.Context, it *models.MixItem) error {
	if it.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if err := s.adjustStock(ctx, it.RawMaterialID, -it.Quantity); err != nil {
		return err
	}
	id, err := s.insert(ctx, "INSERT INTO mix_items (mix_id, raw_material_id, quantity, percentage) VALUES (?, ?, ?, 0)",
		it.MixID, it.RawMaterialID, it.Quantity)
	if err != nil {
		return err
	}
	it.ID = id
	return nil
}

// CreateMixItem adds an item to a mix, takes its quantity from stock and
// recomputes the mix, all in one transaction.
func (s *Store) CreateMixItem(ctx context.Context, it *models.MixItem) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if err := tx.insertMixItem(ctx, it); err != nil {
			return err
		}
		if _, err := tx.recomputeMix(ctx, it.MixID); err != nil {
			return err
		}
		updated, err := tx.GetMixItem(ctx, it.ID)
		*it = updated
		return err
	})
}

// UpdateMixItem changes an item's raw material or quantity. The old
// quantity goes back to its material before the new one is drawn, so only
// the delta has to be available when the material is unchanged.
func (s *Store) UpdateMixItem(ctx context.Context, it *models.MixItem) error {
	if it.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return s.WithTx(ctx, func(tx *Store) error {
		old, err := tx.GetMixItem(ctx, it.ID)
		if err != nil {
			return err
		}
		if err := tx.adjustStock(ctx, old.RawMaterialID, old.Quantity); err != nil {
			return err
		}
		if err := tx.adjustStock(ctx, it.RawMaterialID, -it.Quantity); err != nil {
			return err
		}
		if _, err := tx.exec(ctx, "UPDATE mix_items SET raw_material_id = ?, quantity = ? WHERE id = ?",
			it.RawMaterialID, it.Quantity, it.ID); err != nil {
			return err
		}
		if _, err := tx.recomputeMix(ctx, old.MixID); err != nil {
			return err
		}
		updated, err := tx.GetMixItem(ctx, it.ID)
		*it = updated
		return err
	})
}

// DeleteMixItem returns the item's quantity to stock and recomputes the mix.
func (s *Store) DeleteMixItem(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(tx *Store) error {
		old, err := tx.GetMixItem(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.adjustStock(ctx, old.RawMaterialID, old.Quantity); err != nil {
			return err
		}
		if err := tx.deleteByID(ctx, "mix_items", id); err != nil {
			return err
		}
		_, err = tx.recomputeMix(ctx, old.MixID)
		return err
	})
}

// recomputeMix sets each item's percentage to its share of the mix total
// and stores the total on the mix.
func (s *Store) recomputeMix(ctx context.Context, mixID int64) (float64, error) {
	items, err := s.ListMixItemsByMix(ctx, mixID)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, it := range items {
		total += it.Quantity
	}
	for _, it := range items {
		pct := 0.0
		if total > 0 {
			pct = it.Quantity / total * 100
		}
		if _, err := s.exec(ctx, "UPDATE mix_items SET percentage = ? WHERE id = ?", pct, it.ID); err != nil {
			return 0, err
		}
	}
	if err := s.execOne(ctx, "UPDATE mix_materials SET total_quantity = ? WHERE id = ?", total, mixID); err != nil {
		return 0, err
	}
	return total, nil
}

// --- Mix machines ---

func (s *Store) ListMixMachines(ctx context.Context, mixID int64) ([]string, error) {
	return queryList(ctx, s.q, func(sc scanner) (string, error) {
		var id string
		return id, sc.Scan(&id)
	}, "SELECT machine_id FROM mix_machines WHERE mix_id = ? ORDER BY machine_id", mixID)
}

func (s *Store) allMixMachines(ctx context.Context) (map[int64][]string, error) {
	type link struct {
		mixID     int64
		machineID string
	}
	links, err := queryList(ctx, s.q, func(sc scanner) (link, error) {
		var l link
		return l, sc.Scan(&l.mixID, &l.machineID)
	}, "SELECT mix_id, machine_id FROM mix_machines ORDER BY mix_id, machine_id")
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]string)
	for _, l := range links {
		out[l.mixID] = append(out[l.mixID], l.machineID)
	}
	return out, nil
}

func (s *Store) AddMixMachine(ctx context.Context, mixID int64, machineID string) error {
	_, err := s.exec(ctx, "INSERT INTO mix_machines (mix_id, machine_id) VALUES (?, ?)", mixID, machineID)
	return err
}

func (s *Store) RemoveMixMachine(ctx context.Context, mixID int64, machineID string) error {
	return s.execOne(ctx, "DELETE FROM mix_machines WHERE mix_id = ? AND machine_id = ?", mixID, machineID)
}

// --- Material inputs ---

func scanMaterialInput(sc scanner) (models.MaterialInput, error) {
	var in models.MaterialInput
	var user sql.NullInt64
	err := sc.Scan(&in.ID, &in.Date, &user, &in.Note)
	in.UserID = intPtr(user)
	return in, err
}

func scanMaterialInputItem(sc scanner) (models.MaterialInputItem, error) {
	var it models.MaterialInputItem
	err := sc.Scan(&it.ID, &it.InputID, &it.RawMaterialID, &it.Quantity)
	return it, err
}

func (s *Store) ListMaterialInputs(ctx context.Context) ([]models.MaterialInput, error) {
	inputs, err := queryList(ctx, s.q, scanMaterialInput, "SELECT id, date, user_id, note FROM material_inputs ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	items, err := queryList(ctx, s.q, scanMaterialInputItem,
		"SELECT id, input_id, raw_material_id, quantity FROM material_input_items ORDER BY id")
	if err != nil {
		return nil, err
	}
	byInput := make(map[int64][]models.MaterialInputItem)
	for _, it := range items {
		byInput[it.InputID] = append(byInput[it.InputID], it)
	}
	for i := range inputs {
		inputs[i].Items = byInput[inputs[i].ID]
		if inputs[i].Items == nil {
			inputs[i].Items = []models.MaterialInputItem{}
		}
	}
	return inputs, nil
}

func (s *Store) GetMaterialInput(ctx context.Context, id int64) (models.MaterialInput, error) {
	in, err := queryOne(ctx, s.q, scanMaterialInput, "SELECT id, date, user_id, note FROM material_inputs WHERE id = ?", id)
	if err != nil {
		return in, err
	}
	in.Items, err = queryList(ctx, s.q, scanMaterialInputItem,
		"SELECT id, input_id, raw_material_id, quantity FROM material_input_items WHERE input_id = ? ORDER BY id", id)
	return in, err
}

// CreateMaterialInput records a goods receipt and adds every line to stock.
func (s *Store) CreateMaterialInput(ctx context.Context, in *models.MaterialInput) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if in.Date == "" {
			in.Date = now()
		}
		id, err := tx.insert(ctx, "INSERT INTO material_inputs (date, user_id, note) VALUES (?, ?, ?)",
			in.Date, nullInt(in.UserID), in.Note)
		if err != nil {
			return err
		}
		in.ID = id
		for i := range in.Items {
			it := &in.Items[i]
			it.InputID = id
			itemID, err := tx.insert(ctx, "INSERT INTO material_input_items (input_id, raw_material_id, quantity) VALUES (?, ?, ?)",
				id, it.RawMaterialID, it.Quantity)
			if err != nil {
				return err
			}
			it.ID = itemID
			if err := tx.adjustStock(ctx, it.RawMaterialID, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteMaterialInput reverses the receipt. It fails with
// ErrInsufficientStock when part of the received material was consumed.
func (s *Store) DeleteMaterialInput(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(tx *Store) error {
		in, err := tx.GetMaterialInput(ctx, id)
		if err != nil {
			return err
		}
		for _, it := range in.Items {
			if err := tx.adjustStock(ctx, it.RawMaterialID, -it.Quantity); err != nil {
				return err
			}
		}
		return tx.deleteByID(ctx, "material_inputs", id)
	})
}

// --- ABA material configs ---

const abaCols = "id, name, description, config_data, is_default, created_by, created_at"

func scanAba(sc scanner) (models.AbaMaterialConfig, error) {
	var c models.AbaMaterialConfig
	var createdBy sql.NullInt64
	err := sc.Scan(&c.ID, &c.Name, &c.Description, &c.ConfigData, &c.IsDefault, &createdBy, &c.CreatedAt)
	c.CreatedBy = intPtr(createdBy)
	return c, err
}

func (s *Store) ListAbaMaterialConfigs(ctx context.Context) ([]models.AbaMaterialConfig, error) {
	return queryList(ctx, s.q, scanAba, "SELECT "+abaCols+" FROM aba_material_configs ORDER BY is_default DESC, name")
}

func (s *Store) GetAbaMaterialConfig(ctx context.Context, id int64) (models.AbaMaterialConfig, error) {
	return queryOne(ctx, s.q, scanAba, "SELECT "+abaCols+" FROM aba_material_configs WHERE id = ?", id)
}

// CreateAbaMaterialConfig inserts c. A default config clears the flag on
// every other config.
func (s *Store) CreateAbaMaterialConfig(ctx context.Context, c *models.AbaMaterialConfig) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if c.IsDefault {
			if _, err := tx.exec(ctx, "UPDATE aba_material_configs SET is_default = 0"); err != nil {
				return err
			}
		}
		c.CreatedAt = now()
		id, err := tx.insert(ctx, `INSERT INTO aba_material_configs (name, description, config_data, is_default, created_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`, c.Name, c.Description, c.ConfigData, boolInt(c.IsDefault), nullInt(c.CreatedBy), c.CreatedAt)
		if err != nil {
			return err
		}
		c.ID = id
		return nil
	})
}

func (s *Store) UpdateAbaMaterialConfig(ctx context.Context, c *models.AbaMaterialConfig) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if c.IsDefault {
			if _, err := tx.exec(ctx, "UPDATE aba_material_configs SET is_default = 0 WHERE id != ?", c.ID); err != nil {
				return err
			}
		}
		return tx.execOne(ctx, "UPDATE aba_material_configs SET name = ?, description = ?, config_data = ?, is_default = ? WHERE id = ?",
			c.Name, c.Description, c.ConfigData, boolInt(c.IsDefault), c.ID)
	})
}

// SetDefaultAbaMaterialConfig makes id the only default config.
func (s *Store) SetDefaultAbaMaterialConfig(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.exec(ctx, "UPDATE aba_material_configs SET is_default = 0 WHERE id != ?", id); err != nil {
			return err
		}
		return tx.execOne(ctx, "UPDATE aba_material_configs SET is_default = 1 WHERE id = ?", id)
	})
}

func (s *Store) DeleteAbaMaterialConfig(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "aba_material_configs", id)
}

package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

// --- Plate pricing parameters ---

const plateParamCols = "id, name, value, type, description, is_active, last_updated"

func scanPlateParam(sc scanner) (models.PlatePricingParameter, error) {
	var p models.PlatePricingParameter
	err := sc.Scan(&p.ID, &p.Name, &p.Value, &p.Type, &p.Description, &p.IsActive, &p.LastUpdated)
	return p, err
}

func (s *Store) ListPlatePricingParameters(ctx context.Context) ([]models.PlatePricingParameter, error) {
	return queryList(ctx, s.q, scanPlateParam, "SELECT "+plateParamCols+" FROM plate_pricing_parameters ORDER BY type, name")
}

func (s *Store) GetPlatePricingParameter(ctx context.Context, id int64) (models.PlatePricingParameter, error) {
	return queryOne(ctx, s.q, scanPlateParam, "SELECT "+plateParamCols+" FROM plate_pricing_parameters WHERE id = ?", id)
}

// PlateParameterValue returns the value of the most recently updated active
// parameter of a type. ok is false when none exists.
func (s *Store) PlateParameterValue(ctx context.Context, paramType string) (value float64, ok bool, err error) {
	err = s.q.QueryRowContext(ctx, `SELECT value FROM plate_pricing_parameters
		WHERE type = ? AND is_active = 1 ORDER BY last_updated DESC, id DESC LIMIT 1`, paramType).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

func (s *Store) CreatePlatePricingParameter(ctx context.Context, p *models.PlatePricingParameter) error {
	p.LastUpdated = now()
	id, err := s.insert(ctx, `INSERT INTO plate_pricing_parameters (name, value, type, description, is_active, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)`, p.Name, p.Value, p.Type, p.Description, boolInt(p.IsActive), p.LastUpdated)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (s *Store) UpdatePlatePricingParameter(ctx context.Context, p *models.PlatePricingParameter) error {
	p.LastUpdated = now()
	return s.execOne(ctx, `UPDATE plate_pricing_parameters SET name = ?, value = ?, type = ?, description = ?, is_active = ?,
		last_updated = ? WHERE id = ?`, p.Name, p.Value, p.Type, p.Description, boolInt(p.IsActive), p.LastUpdated, p.ID)
}

func (s *Store) DeletePlatePricingParameter(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "plate_pricing_parameters", id)
}

// --- Plate calculations ---

const plateCalcCols = `id, customer_id, width, height, area, colors, plate_type, thickness, base_price_per_unit,
	color_multiplier, thickness_multiplier, customer_discount, calculated_price, notes, created_by, created_at`

func scanPlateCalc(sc scanner) (models.PlateCalculation, error) {
	var c models.PlateCalculation
	var customer sql.NullString
	var createdBy sql.NullInt64
	err := sc.Scan(&c.ID, &customer, &c.Width, &c.Height, &c.Area, &c.Colors, &c.PlateType, &c.Thickness,
		&c.BasePricePerUnit, &c.ColorMultiplier, &c.ThicknessMultiplier, &c.CustomerDiscount, &c.CalculatedPrice,
		&c.Notes, &createdBy, &c.CreatedAt)
	c.CustomerID = stringPtr(customer)
	c.CreatedBy = intPtr(createdBy)
	return c, err
}

func (s *Store) ListPlateCalculations(ctx context.Context) ([]models.PlateCalculation, error) {
	return queryList(ctx, s.q, scanPlateCalc, "SELECT "+plateCalcCols+" FROM plate_calculations ORDER BY id DESC")
}

func (s *Store) GetPlateCalculation(ctx context.Context, id int64) (models.PlateCalculation, error) {
	return queryOne(ctx, s.q, scanPlateCalc, "SELECT "+plateCalcCols+" FROM plate_calculations WHERE id = ?", id)
}

func (s *Store) CreatePlateCalculation(ctx context.Context, c *models.PlateCalculation) error {
	c.CreatedAt = now()
	id, err := s.insert(ctx, `INSERT INTO plate_calculations (customer_id, width, height, area, colors, plate_type, thickness,
		base_price_per_unit, color_multiplier, thickness_multiplier, customer_discount, calculated_price, notes, created_by,
		created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullString(c.CustomerID), c.Width, c.Height, c.Area, c.Colors, c.PlateType, c.Thickness, c.BasePricePerUnit,
		c.ColorMultiplier, c.ThicknessMultiplier, c.CustomerDiscount, c.CalculatedPrice, c.Notes, nullInt(c.CreatedBy), c.CreatedAt)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (s *Store) DeletePlateCalculation(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "plate_calculations", id)
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

// --- Users ---

const userCols = "id, username, password_hash, name, email, phone, is_admin, is_active, section_id, created_at"

func scanUser(sc scanner) (models.User, error) {
	var u models.User
	var section sql.NullString
	err := sc.Scan(&u.ID, &u.Username, &u.Password, &u.Name, &u.Email, &u.Phone,
		&u.IsAdmin, &u.IsActive, &section, &u.CreatedAt)
	u.SectionID = stringPtr(section)
	return u, err
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return queryList(ctx, s.q, scanUser, "SELECT "+userCols+" FROM users ORDER BY id")
}

func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	return queryOne(ctx, s.q, scanUser, "SELECT "+userCols+" FROM users WHERE id = ?", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return queryOne(ctx, s.q, scanUser, "SELECT "+userCols+" FROM users WHERE username = ?", username)
}

// UsernameTaken reports whether username belongs to a user other than exceptID.
func (s *Store) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ? AND id != ?", username, exceptID).Scan(&n)
	return n > 0, err
}

// CreateUser inserts u. u.Password must already hold the bcrypt hash.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.CreatedAt = now()
	id, err := s.insert(ctx, `INSERT INTO users (username, password_hash, name, email, phone, is_admin, is_active, section_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Password, u.Name, u.Email, u.Phone, boolInt(u.IsAdmin), boolInt(u.IsActive), nullString(u.SectionID), u.CreatedAt)
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// UpdateUser writes the profile fields. An empty Password keeps the old hash.
func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	if u.Password != "" {
		return s.execOne(ctx, `UPDATE users SET username = ?, password_hash = ?, name = ?, email = ?, phone = ?,
			is_admin = ?, is_active = ?, section_id = ? WHERE id = ?`,
			u.Username, u.Password, u.Name, u.Email, u.Phone, boolInt(u.IsAdmin), boolInt(u.IsActive), nullString(u.SectionID), u.ID)
	}
	return s.execOne(ctx, `UPDATE users SET username = ?, name = ?, email = ?, phone = ?,
		is_admin = ?, is_active = ?, section_id = ? WHERE id = ?`,
		u.Username, u.Name, u.Email, u.Phone, boolInt(u.IsAdmin), boolInt(u.IsActive), nullString(u.SectionID), u.ID)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "users", id)
}

// EnsureUser creates the account when no user with that username exists.
// It reports whether a row was inserted.
func (s *Store) EnsureUser(ctx context.Context, u *models.User) (bool, error) {
	created := false
	err := s.WithTx(ctx, func(tx *Store) error {
		existing, err := tx.GetUserByUsername(ctx, u.Username)
		if err == nil {
			*u = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		created = true
		return tx.CreateUser(ctx, u)
	})
	return created, err
}

// SetLastLogin stamps a successful login.
func (s *Store) SetLastLogin(ctx context.Context, id int64) error {
	_, err := s.exec(ctx, "UPDATE users SET last_login = ? WHERE id = ?", now(), id)
	return err
}

// --- Customers ---

const customerCols = "id, code, name, name_ar, user_id, plate_drawer_code, phone, address"

func scanCustomer(sc scanner) (models.Customer, error) {
	var c models.Customer
	var user sql.NullInt64
	err := sc.Scan(&c.ID, &c.Code, &c.Name, &c.NameAr, &user, &c.PlateDrawerCode, &c.Phone, &c.Address)
	c.UserID = intPtr(user)
	return c, err
}

func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return queryList(ctx, s.q, scanCustomer, "SELECT "+customerCols+" FROM customers ORDER BY name")
}

func (s *Store) GetCustomer(ctx context.Context, id string) (models.Customer, error) {
	return queryOne(ctx, s.q, scanCustomer, "SELECT "+customerCols+" FROM customers WHERE id = ?", id)
}

// CustomerCodeTaken reports whether code belongs to a customer other than exceptID.
func (s *Store) CustomerCodeTaken(ctx context.Context, code, exceptID string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers WHERE code = ? AND id != ?", code, exceptID).Scan(&n)
	return n > 0, err
}

// NextCustomerID returns the next free CIDnnnn identifier.
func (s *Store) NextCustomerID(ctx context.Context) (string, error) {
	var maxID sql.NullString
	err := s.q.QueryRowContext(ctx,
		"SELECT id FROM customers WHERE id LIKE 'CID%' ORDER BY LENGTH(id) DESC, id DESC LIMIT 1").Scan(&maxID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	next := 1
	if maxID.Valid {
		var n int
		if _, err := fmt.Sscanf(maxID.String, "CID%d", &n); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("CID%04d", next), nil
}

// CreateCustomer inserts c, generating an id when c.ID is empty.
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if c.ID == "" {
			id, err := tx.NextCustomerID(ctx)
			if err != nil {
				return err
			}
			c.ID = id
		}
		_, err := tx.exec(ctx, `INSERT INTO customers (id, code, name, name_ar, user_id, plate_drawer_code, phone, address)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Code, c.Name, c.NameAr, nullInt(c.UserID), c.PlateDrawerCode, c.Phone, c.Address)
		return err
	})
}

func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	return s.execOne(ctx, `UPDATE customers SET code = ?, name = ?, name_ar = ?, user_id = ?, plate_drawer_code = ?,
		phone = ?, address = ? WHERE id = ?`,
		c.Code, c.Name, c.NameAr, nullInt(c.UserID), c.PlateDrawerCode, c.Phone, c.Address, c.ID)
}

// DeleteCustomer refuses while customer products exist.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return s.deleteGuarded(ctx, "customers", id, "customer_products", "customer_id")
}

// CustomerMatch is a fuzzy search hit.
type CustomerMatch struct {
	models.Customer
	Distance int `json:"distance"`
}

// SearchCustomers ranks customers by edit distance between query and the
// closest of code, name or Arabic name. Substring hits rank first.
func (s *Store) SearchCustomers(ctx context.Context, query string, limit int) ([]CustomerMatch, error) {
	customers, err := s.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []CustomerMatch{}, nil
	}
	// Allow roughly one typo per three characters.
	maxDist := utf8.RuneCountInString(q)/3 + 1

	matches := []CustomerMatch{}
	for _, c := range customers {
		best := -1
		for _, field := range []string{c.Code, c.Name, c.NameAr} {
			f := strings.ToLower(field)
			if f == "" {
				continue
			}
			d := levenshtein.ComputeDistance(q, f)
			if strings.Contains(f, q) {
				d = 0
			} else if words := strings.Fields(f); len(words) > 1 {
				for _, w := range words {
					if wd := levenshtein.ComputeDistance(q, w); wd < d {
						d = wd
					}
				}
			}
			if best < 0 || d < best {
				best = d
			}
		}
		if best >= 0 && best <= maxDist {
			matches = append(matches, CustomerMatch{Customer: c, Distance: best})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Name < matches[j].Name
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// --- Customer products ---

const customerProductCols = `id, customer_id, category_id, item_id, master_batch_id, size_caption, width, left_f, right_f,
	thickness, printing_cylinder, length_cm, cutting_length, raw_material, printed, cutting_unit, unit_weight, packing, notes`

func scanCustomerProduct(sc scanner) (models.CustomerProduct, error) {
	var p models.CustomerProduct
	var mb sql.NullString
	err := sc.Scan(&p.ID, &p.CustomerID, &p.CategoryID, &p.ItemID, &mb, &p.SizeCaption, &p.Width, &p.LeftF, &p.RightF,
		&p.Thickness, &p.PrintingCylinder, &p.LengthCm, &p.CuttingLength, &p.RawMaterial, &p.Printed, &p.CuttingUnit,
		&p.UnitWeight, &p.Packing, &p.Notes)
	p.MasterBatchID = stringPtr(mb)
	return p, err
}

func (s *Store) ListCustomerProducts(ctx context.Context) ([]models.CustomerProduct, error) {
	return queryList(ctx, s.q, scanCustomerProduct, "SELECT "+customerProductCols+" FROM customer_products ORDER BY id")
}

func (s *Store) ListCustomerProductsByCustomer(ctx context.Context, customerID string) ([]models.CustomerProduct, error) {
	return queryList(ctx, s.q, scanCustomerProduct,
		"SELECT "+customerProductCols+" FROM customer_products WHERE customer_id = ? ORDER BY id", customerID)
}

func (s *Store) GetCustomerProduct(ctx context.Context, id int64) (models.CustomerProduct, error) {
	return queryOne(ctx, s.q, scanCustomerProduct, "SELECT "+customerProductCols+" FROM customer_products WHERE id = ?", id)
}

func (s *Store) CreateCustomerProduct(ctx context.Context, p *models.CustomerProduct) error {
	id, err := s.insert(ctx, `INSERT INTO customer_products (customer_id, category_id, item_id, master_batch_id, size_caption,
		width, left_f, right_f, thickness, printing_cylinder, length_cm, cutting_length, raw_material, printed,
		cutting_unit, unit_weight, packing, notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CustomerID, p.CategoryID, p.ItemID, nullString(p.MasterBatchID), p.SizeCaption, p.Width, p.LeftF, p.RightF,
		p.Thickness, p.PrintingCylinder, p.LengthCm, p.CuttingLength, p.RawMaterial, p.Printed, p.CuttingUnit,
		p.UnitWeight, p.Packing, p.Notes)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (s *Store) UpdateCustomerProduct(ctx context.Context, p *models.CustomerProduct) error {
	return s.execOne(ctx, `UPDATE customer_products SET customer_id = ?, category_id = ?, item_id = ?, master_batch_id = ?,
		size_caption = ?, width = ?, left_f = ?, right_f = ?, thickness = ?, printing_cylinder = ?, length_cm = ?,
		cutting_length = ?, raw_material = ?, printed = ?, cutting_unit = ?, unit_weight = ?, packing = ?, notes = ?
		WHERE id = ?`,
		p.CustomerID, p.CategoryID, p.ItemID, nullString(p.MasterBatchID), p.SizeCaption, p.Width, p.LeftF, p.RightF,
		p.Thickness, p.PrintingCylinder, p.LengthCm, p.CuttingLength, p.RawMaterial, p.Printed, p.CuttingUnit,
		p.UnitWeight, p.Packing, p.Notes, p.ID)
}

func (s *Store) DeleteCustomerProduct(ctx context.Context, id int64) error {
	return s.deleteGuarded(ctx, "customer_products", id, "job_orders", "customer_product_id")
}

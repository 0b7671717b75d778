// Package importer loads master data from CSV. Rows are applied one at a
// time so a bad row is reported without rolling back the others.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

// EntityTypes lists the importable entity types.
var EntityTypes = []string{"categories", "items", "sections", "machines", "master_batches", "customers", "raw_materials"}

var (
	ErrUnknownEntity = errors.New("unknown entity type")
	ErrNoRows        = errors.New("CSV has no data rows")
	ErrMalformed     = errors.New("malformed CSV")
)

// similarDistance is the largest edit distance at which a new name is
// reported as a likely duplicate of an existing one.
const similarDistance = 2

// RowError describes one rejected row. Row numbers count the header as 1.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result summarises an import.
type Result struct {
	EntityType string     `json:"entity_type"`
	Created    int        `json:"created"`
	Updated    int        `json:"updated"`
	Failed     int        `json:"failed"`
	Errors     []RowError `json:"errors"`
	Warnings   []RowError `json:"warnings"`
}

// Importer applies CSV rows through the store.
type Importer struct {
	store *storage.Store
	log   *zap.Logger
}

func New(store *storage.Store, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{store: store, log: log.Named("import")}
}

type row map[string]string

func (r row) get(key string) string { return strings.TrimSpace(r[key]) }

func (r row) optional(key string) *string {
	if v := r.get(key); v != "" {
		return &v
	}
	return nil
}

func (r row) float(key string) (float64, error) {
	v := r.get(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	return f, nil
}

func (r row) boolean(key string, def bool) (bool, error) {
	v := strings.ToLower(r.get(key))
	switch v {
	case "":
		return def, nil
	case "1", "true", "yes", "y", "active":
		return true, nil
	case "0", "false", "no", "n", "inactive":
		return false, nil
	}
	return false, fmt.Errorf("%s: %q is not a boolean", key, v)
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// Parse reads a CSV with a header row into rows keyed by the normalised
// header name (lower case, spaces and dashes as underscores).
func Parse(r io.Reader) ([]row, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) < 2 {
		return nil, ErrNoRows
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = normalizeHeader(h)
	}
	rows := make([]row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rw := row{}
		for i, v := range rec {
			if i < len(header) {
				rw[header[i]] = v
			}
		}
		rows = append(rows, rw)
	}
	return rows, nil
}

// outcome of applying one row.
type outcome int

const (
	created outcome = iota
	updated
)

type applyFunc func(ctx context.Context, r row, names *nameIndex) (outcome, string, error)

// Import applies every row of the CSV in r to entityType.
func (im *Importer) Import(ctx context.Context, entityType string, r io.Reader) (*Result, error) {
	apply, err := im.applier(entityType)
	if err != nil {
		return nil, err
	}
	rows, err := Parse(r)
	if err != nil {
		return nil, err
	}
	names, err := im.existingNames(ctx, entityType)
	if err != nil {
		return nil, err
	}

	res := &Result{EntityType: entityType, Errors: []RowError{}, Warnings: []RowError{}}
	for i, rw := range rows {
		line := i + 2
		out, warning, err := apply(ctx, rw, names)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, RowError{Row: line, Message: rowMessage(err)})
			continue
		}
		if warning != "" {
			res.Warnings = append(res.Warnings, RowError{Row: line, Message: warning})
		}
		if out == created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	im.log.Info("csv import",
		zap.String("entity", entityType),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed))
	return res, nil
}

func rowMessage(err error) string {
	var ve *validation.ValidationErrors
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, storage.ErrConflict):
		return "duplicate record"
	case errors.Is(err, storage.ErrReferenced):
		return "referenced record does not exist"
	}
	return err.Error()
}

func (im *Importer) applier(entityType string) (applyFunc, error) {
	switch entityType {
	case "categories":
		return im.category, nil
	case "items":
		return im.item, nil
	case "sections":
		return im.section, nil
	case "machines":
		return im.machine, nil
	case "master_batches":
		return im.masterBatch, nil
	case "customers":
		return im.customer, nil
	case "raw_materials":
		return im.rawMaterial, nil
	}
	return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownEntity, entityType, strings.Join(EntityTypes, ", "))
}

// nameIndex remembers the names seen so far so new rows can be compared
// against existing records and earlier rows of the same file.
type nameIndex struct {
	names map[string]string // key -> lower-cased name
}

func (n *nameIndex) similar(key, name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return ""
	}
	for k, existing := range n.names {
		if k == key || existing == lower {
			continue
		}
		if levenshtein.ComputeDistance(lower, existing) <= similarDistance {
			return fmt.Sprintf("name %q is similar to existing record %s (%q)", name, k, existing)
		}
	}
	return ""
}

func (n *nameIndex) put(key, name string) {
	n.names[key] = strings.ToLower(strings.TrimSpace(name))
}

func (im *Importer) existingNames(ctx context.Context, entityType string) (*nameIndex, error) {
	idx := &nameIndex{names: map[string]string{}}
	var err error
	switch entityType {
	case "categories":
		var list []models.Category
		if list, err = im.store.ListCategories(ctx); err == nil {
			for _, c := range list {
				idx.put(c.ID, c.Name)
			}
		}
	case "items":
		var list []models.Item
		if list, err = im.store.ListItems(ctx); err == nil {
			for _, it := range list {
				idx.put(it.ID, it.Name)
			}
		}
	case "sections":
		var list []models.Section
		if list, err = im.store.ListSections(ctx); err == nil {
			for _, s := range list {
				idx.put(s.ID, s.Name)
			}
		}
	case "machines":
		var list []models.Machine
		if list, err = im.store.ListMachines(ctx); err == nil {
			for _, m := range list {
				idx.put(m.ID, m.Name)
			}
		}
	case "master_batches":
		var list []models.MasterBatch
		if list, err = im.store.ListMasterBatches(ctx); err == nil {
			for _, mb := range list {
				idx.put(mb.ID, mb.Name)
			}
		}
	case "customers":
		var list []models.Customer
		if list, err = im.store.ListCustomers(ctx); err == nil {
			for _, c := range list {
				idx.put(c.ID, c.Name)
			}
		}
	case "raw_materials":
		var list []models.RawMaterial
		if list, err = im.store.ListRawMaterials(ctx); err == nil {
			for _, m := range list {
				idx.put(strconv.FormatInt(m.ID, 10), m.Name)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load existing %s: %w", entityType, err)
	}
	return idx, nil
}

func check(v any) error {
	if ve := validation.Struct(v); ve != nil {
		return ve
	}
	return nil
}

func (im *Importer) category(ctx context.Context, r row, names *nameIndex) (outcome, string, error) {
	c := models.Category{ID: r.get("id"), Name: r.get("name"), Code: r.get("code")}
	if err := check(&c); err != nil {
		return 0, "", err
	}
	taken, err := im.store.CategoryCodeTaken(ctx, c.Code, c.ID)
	if err != nil {
		return 0, "", err
	}
	if taken {
		return 0, "", fmt.Errorf("category code %q already exists", c.Code)
	}
	warning := names.similar(c.ID, c.Name)
	out, err := upsert(ctx, im.store.GetCategory, c.ID, func() error { return im.store.UpdateCategory(ctx, &c) },
		func() error { return im.store.CreateCategory(ctx, &c) })
	if err == nil {
		names.put(c.ID, c.Name)
	}
	return out, warning, err
}

func (im *Importer) item(ctx context.Context, r row, names *nameIndex) (outcome, string, error) {
	it := models.Item{ID: r.get("id"), CategoryID: r.get("category_id"), Name: r.get("name"), FullName: r.get("full_name")}
	if err := check(&it); err != nil {
		return 0, "", err
	}
	if _, err := im.store.GetCategory(ctx, it.CategoryID); err != nil {
		return 0, "", notFound("category", it.CategoryID, err)
	}
	warning := names.similar(it.ID, it.Name)
	out, err := upsert(ctx, im.store.GetItem, it.ID, func() error { return im.store.UpdateItem(ctx, &it) },
		func() error { return im.store.CreateItem(ctx, &it) })
	if err == nil {
		names.put(it.ID, it.Name)
	}
	return out, warning, err
}

func (im *Importer) section(ctx context.Context, r row, names *nameIndex) (outcome, string, error) {
	s := models.Section{ID: r.get("id"), Name: r.get("name")}
	if err := check(&s); err != nil {
		return 0, "", err
	}
	warning := names.similar(s.ID, s.Name)
	out, err := upsert(ctx, im.store.GetSection, s.ID, func() error { return im.store.UpdateSection(ctx, &s) },
		func() error { return im.store.CreateSection(ctx, &s) })
	if err == nil {
		names.put(s.ID, s.Name)
	}
	return out, warning, err
}

func (im *Importer) machine(ctx context.Context, r row, names *nameIndex) (outcome, string, error) {
	active, err := r.boolean("is_active", true)
	if err != nil {
		return 0, "", err
	}
	m := models.Machine{ID: r.get("id"), Name: r.get("name"), SectionID: r.optional("section_id"), IsActive: active}
	if err := check(&m); err != nil {
		return 0, "", err
	}
	if m.SectionID != nil {
		if _, err := im.store.GetSection(ctx, *m.SectionID); err != nil {
			return 0, "", notFound("section", *m.SectionID, err)
		}
	}
	warning := names.similar(m.ID, m.Name)
	out, err := upsert(ctx, im.store.GetMachine, m.ID, func() error { return im.store.UpdateMachine(ctx, &m) },
		func() error { return im.store.CreateMachine(ctx, &m) })
	if err == nil {
		names.put(m.ID, m.Name)
	}
	return out, warning, err
}

func (im *Importer) masterBatch(ctx context.Context, r row, names *nameIndex) (outcome, string, error) {
	mb := models.MasterBatch{ID: r.get("id"), Name: r.get("name")}
	if err := check(&mb); err != nil {
		return 0, "", err
	}
	warning := names.similar(mb.ID, mb.Name)
	out, err := upsert(ctx, im.store.GetMasterBatch, mb.ID, func() error { return im.store.UpdateMasterBatch(ctx, &mb) },
		func() error { return im.store.CreateMasterBatch(ctx, &mb) })
	if err == nil {
		names.put(mb.ID, mb.Name)
	}
	return out, warning, err
}

// customer matches an existing record by id, then by code. Rows without an
// id get a generated one.
func (im *Importer) customer(ctx context.Context, r row, names *nameIndex) (outcome, string, error) {
	c := models.Customer{
		ID:              r.get("id"),
		Code:            r.get("code"),
		Name:            r.get("name"),
		NameAr:          r.get("name_ar"),
		PlateDrawerCode: r.get("plate_drawer_code"),
		Phone:           r.get("phone"),
		Address:         r.get("address"),
	}
	if err := check(&c); err != nil {
		return 0, "", err
	}
	if c.ID == "" {
		list, err := im.store.ListCustomers(ctx)
		if err != nil {
			return 0, "", err
		}
		if i := slices.IndexFunc(list, func(x models.Customer) bool { return x.Code == c.Code }); i >= 0 {
			c.ID = list[i].ID
		}
	}
	taken, err := im.store.CustomerCodeTaken(ctx, c.Code, c.ID)
	if err != nil {
		return 0, "", err
	}
	if taken {
		return 0, "", fmt.Errorf("customer code %q already exists", c.Code)
	}
	warning := names.similar(c.ID, c.Name)

	if c.ID != "" {
		existing, err := im.store.GetCustomer(ctx, c.ID)
		if err == nil {
			c.UserID = existing.UserID
			if err := im.store.UpdateCustomer(ctx, &c); err != nil {
				return 0, "", err
			}
			names.put(c.ID, c.Name)
			return updated, warning, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return 0, "", err
		}
	}
	if err := im.store.CreateCustomer(ctx, &c); err != nil {
		return 0, "", err
	}
	names.put(c.ID, c.Name)
	return created, warning, nil
}

// rawMaterial matches an existing record by name.
func (im *Importer) rawMaterial(ctx context.Context, r row, names *nameIndex) (outcome, string, error) {
	qty, err := r.float("quantity")
	if err != nil {
		return 0, "", err
	}
	m := models.RawMaterial{Name: r.get("name"), Type: r.get("type"), Quantity: qty, Unit: r.get("unit")}
	if err := check(&m); err != nil {
		return 0, "", err
	}
	existing, err := im.store.FindRawMaterialByName(ctx, m.Name)
	switch {
	case err == nil:
		m.ID = existing.ID
		if err := im.store.UpdateRawMaterial(ctx, &m); err != nil {
			return 0, "", err
		}
		return updated, "", nil
	case !errors.Is(err, storage.ErrNotFound):
		return 0, "", err
	}
	warning := names.similar("", m.Name)
	if err := im.store.CreateRawMaterial(ctx, &m); err != nil {
		return 0, "", err
	}
	names.put(strconv.FormatInt(m.ID, 10), m.Name)
	return created, warning, nil
}

func upsert[T any](ctx context.Context, get func(context.Context, string) (T, error), id string, update, create func() error) (outcome, error) {
	_, err := get(ctx, id)
	switch {
	case err == nil:
		return updated, update()
	case errors.Is(err, storage.ErrNotFound):
		return created, create()
	}
	return 0, err
}

func notFound(entity, id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s %q not found", entity, id)
	}
	return err
}

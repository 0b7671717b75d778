// Package demo loads a small sample plant (sections, machines, catalog,
// customers, orders and reference data) for trying the API out.
package demo

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
)

//go:embed data.yaml
var dataYAML []byte

type customerProduct struct {
	CategoryID    string  `yaml:"category_id"`
	ItemID        string  `yaml:"item_id"`
	MasterBatchID string  `yaml:"master_batch_id"`
	SizeCaption   string  `yaml:"size_caption"`
	Width         float64 `yaml:"width"`
	Thickness     float64 `yaml:"thickness"`
	LengthCm      float64 `yaml:"length_cm"`
	RawMaterial   string  `yaml:"raw_material"`
	Printed       string  `yaml:"printed"`
	CuttingUnit   string  `yaml:"cutting_unit"`
	UnitWeight    float64 `yaml:"unit_weight"`
	Packing       string  `yaml:"packing"`
}

type customer struct {
	Code     string            `yaml:"code"`
	Name     string            `yaml:"name"`
	NameAr   string            `yaml:"name_ar"`
	Phone    string            `yaml:"phone"`
	Address  string            `yaml:"address"`
	Products []customerProduct `yaml:"products"`
}

type order struct {
	CustomerCode string `yaml:"customer_code"`
	Note         string `yaml:"note"`
	Status       string `yaml:"status"`
	JobOrders    []struct {
		Product  int     `yaml:"product"`
		Quantity float64 `yaml:"quantity"`
	} `yaml:"job_orders"`
}

// Dataset is the parsed demo file.
type Dataset struct {
	Sections []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"sections"`
	Categories []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
		Code string `yaml:"code"`
	} `yaml:"categories"`
	Items []struct {
		ID         string `yaml:"id"`
		CategoryID string `yaml:"category_id"`
		Name       string `yaml:"name"`
		FullName   string `yaml:"full_name"`
	} `yaml:"items"`
	Machines []struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		SectionID string `yaml:"section_id"`
		IsActive  bool   `yaml:"is_active"`
	} `yaml:"machines"`
	MasterBatches []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"master_batches"`
	RawMaterials []struct {
		Name     string  `yaml:"name"`
		Type     string  `yaml:"type"`
		Quantity float64 `yaml:"quantity"`
		Unit     string  `yaml:"unit"`
	} `yaml:"raw_materials"`
	Customers         []customer `yaml:"customers"`
	Orders            []order    `yaml:"orders"`
	QualityCheckTypes []struct {
		ID             string   `yaml:"id"`
		Name           string   `yaml:"name"`
		Description    string   `yaml:"description"`
		ChecklistItems []string `yaml:"checklist_items"`
		Parameters     []string `yaml:"parameters"`
		TargetStage    string   `yaml:"target_stage"`
	} `yaml:"quality_check_types"`
	PlatePricingParameters []struct {
		Name  string  `yaml:"name"`
		Type  string  `yaml:"type"`
		Value float64 `yaml:"value"`
	} `yaml:"plate_pricing_parameters"`
	SmsTemplates []struct {
		ID          string   `yaml:"id"`
		Name        string   `yaml:"name"`
		Category    string   `yaml:"category"`
		Template    string   `yaml:"template"`
		Variables   []string `yaml:"variables"`
		MessageType string   `yaml:"message_type"`
	} `yaml:"sms_templates"`
}

// Load parses the embedded dataset.
func Load() (*Dataset, error) {
	var d Dataset
	if err := yaml.Unmarshal(dataYAML, &d); err != nil {
		return nil, fmt.Errorf("parse demo data: %w", err)
	}
	return &d, nil
}

// Result counts the records created per entity. Records that already exist
// are left untouched and counted as skipped.
type Result struct {
	Created map[string]int `json:"created"`
	Skipped map[string]int `json:"skipped"`
}

func (r *Result) add(entity string, created bool) {
	if created {
		r.Created[entity]++
	} else {
		r.Skipped[entity]++
	}
}

// Seed writes the dataset in one transaction. It is safe to run repeatedly.
func Seed(ctx context.Context, store *storage.Store, log *zap.Logger) (*Result, error) {
	d, err := Load()
	if err != nil {
		return nil, err
	}
	res := &Result{Created: map[string]int{}, Skipped: map[string]int{}}
	err = store.WithTx(ctx, func(tx *storage.Store) error {
		return seed(ctx, tx, d, res)
	})
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Info("demo data loaded", zap.Any("created", res.Created), zap.Any("skipped", res.Skipped))
	}
	return res, nil
}

// ensure creates a record unless table already has id.
func ensure(ctx context.Context, s *storage.Store, res *Result, table string, id any, create func() error) error {
	ok, err := s.Exists(ctx, table, id)
	if err != nil {
		return err
	}
	if ok {
		res.add(table, false)
		return nil
	}
	if err := create(); err != nil {
		return fmt.Errorf("create %s %v: %w", table, id, err)
	}
	res.add(table, true)
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func seed(ctx context.Context, s *storage.Store, d *Dataset, res *Result) error {
	for _, v := range d.Sections {
		sec := models.Section{ID: v.ID, Name: v.Name}
		if err := ensure(ctx, s, res, "sections", v.ID, func() error { return s.CreateSection(ctx, &sec) }); err != nil {
			return err
		}
	}
	for _, v := range d.Categories {
		c := models.Category{ID: v.ID, Name: v.Name, Code: v.Code}
		if err := ensure(ctx, s, res, "categories", v.ID, func() error { return s.CreateCategory(ctx, &c) }); err != nil {
			return err
		}
	}
	for _, v := range d.Items {
		it := models.Item{ID: v.ID, CategoryID: v.CategoryID, Name: v.Name, FullName: v.FullName}
		if err := ensure(ctx, s, res, "items", v.ID, func() error { return s.CreateItem(ctx, &it) }); err != nil {
			return err
		}
	}
	for _, v := range d.Machines {
		m := models.Machine{ID: v.ID, Name: v.Name, SectionID: optional(v.SectionID), IsActive: v.IsActive}
		if err := ensure(ctx, s, res, "machines", v.ID, func() error { return s.CreateMachine(ctx, &m) }); err != nil {
			return err
		}
	}
	for _, v := range d.MasterBatches {
		mb := models.MasterBatch{ID: v.ID, Name: v.Name}
		if err := ensure(ctx, s, res, "master_batches", v.ID, func() error { return s.CreateMasterBatch(ctx, &mb) }); err != nil {
			return err
		}
	}
	for _, v := range d.RawMaterials {
		_, err := s.FindRawMaterialByName(ctx, v.Name)
		switch {
		case err == nil:
			res.add("raw_materials", false)
			continue
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
		m := models.RawMaterial{Name: v.Name, Type: v.Type, Quantity: v.Quantity, Unit: v.Unit}
		if err := s.CreateRawMaterial(ctx, &m); err != nil {
			return fmt.Errorf("create raw material %s: %w", v.Name, err)
		}
		res.add("raw_materials", true)
	}

	customers, err := seedCustomers(ctx, s, d.Customers, res)
	if err != nil {
		return err
	}
	if err := seedOrders(ctx, s, d.Orders, customers, res); err != nil {
		return err
	}

	for _, v := range d.QualityCheckTypes {
		ct := models.QualityCheckType{
			ID: v.ID, Name: v.Name, Description: v.Description, ChecklistItems: v.ChecklistItems,
			Parameters: v.Parameters, TargetStage: v.TargetStage, IsActive: true,
		}
		if err := ensure(ctx, s, res, "quality_check_types", v.ID, func() error { return s.CreateQualityCheckType(ctx, &ct) }); err != nil {
			return err
		}
	}
	for _, v := range d.PlatePricingParameters {
		_, ok, err := s.PlateParameterValue(ctx, v.Type)
		if err != nil {
			return err
		}
		if ok {
			res.add("plate_pricing_parameters", false)
			continue
		}
		p := models.PlatePricingParameter{Name: v.Name, Type: v.Type, Value: v.Value, IsActive: true}
		if err := s.CreatePlatePricingParameter(ctx, &p); err != nil {
			return fmt.Errorf("create plate parameter %s: %w", v.Type, err)
		}
		res.add("plate_pricing_parameters", true)
	}
	for _, v := range d.SmsTemplates {
		t := models.SmsTemplate{
			ID: v.ID, Name: v.Name, Category: v.Category, Template: v.Template,
			Variables: v.Variables, MessageType: v.MessageType, IsActive: true,
		}
		if err := ensure(ctx, s, res, "sms_templates", v.ID, func() error { return s.CreateSmsTemplate(ctx, &t) }); err != nil {
			return err
		}
	}
	return nil
}

type seededCustomer struct {
	id       string
	products []int64
}

// seedCustomers creates customers missing by code along with their
// products, keyed by customer code. Existing customers keep their current
// products.
func seedCustomers(ctx context.Context, s *storage.Store, customers []customer, res *Result) (map[string]*seededCustomer, error) {
	existing, err := s.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]string, len(existing))
	for _, c := range existing {
		byCode[c.Code] = c.ID
	}

	seeded := map[string]*seededCustomer{}
	for _, v := range customers {
		if _, ok := byCode[v.Code]; ok {
			res.add("customers", false)
			continue
		}
		c := models.Customer{Code: v.Code, Name: v.Name, NameAr: v.NameAr, Phone: v.Phone, Address: v.Address}
		if err := s.CreateCustomer(ctx, &c); err != nil {
			return nil, fmt.Errorf("create customer %s: %w", v.Code, err)
		}
		res.add("customers", true)
		sc := &seededCustomer{id: c.ID}
		seeded[v.Code] = sc
		for _, p := range v.Products {
			cp := models.CustomerProduct{
				CustomerID: c.ID, CategoryID: p.CategoryID, ItemID: p.ItemID, MasterBatchID: optional(p.MasterBatchID),
				SizeCaption: p.SizeCaption, Width: p.Width, Thickness: p.Thickness, LengthCm: p.LengthCm,
				RawMaterial: p.RawMaterial, Printed: p.Printed, CuttingUnit: p.CuttingUnit,
				UnitWeight: p.UnitWeight, Packing: p.Packing,
			}
			if err := s.CreateCustomerProduct(ctx, &cp); err != nil {
				return nil, fmt.Errorf("create product for %s: %w", v.Code, err)
			}
			res.add("customer_products", true)
			sc.products = append(sc.products, cp.ID)
		}
	}
	return seeded, nil
}

// seedOrders only creates orders for customers created in this run.
func seedOrders(ctx context.Context, s *storage.Store, orders []order, customers map[string]*seededCustomer, res *Result) error {
	for _, v := range orders {
		sc, ok := customers[v.CustomerCode]
		if !ok {
			res.add("orders", false)
			continue
		}
		ids := sc.products
		jos := make([]models.JobOrder, 0, len(v.JobOrders))
		for _, j := range v.JobOrders {
			if j.Product < 0 || j.Product >= len(ids) {
				return fmt.Errorf("order for %s: product index %d out of range", v.CustomerCode, j.Product)
			}
			jos = append(jos, models.JobOrder{CustomerProductID: ids[j.Product], Quantity: j.Quantity})
		}
		o := models.Order{CustomerID: sc.id, Note: v.Note, Status: v.Status}
		created, err := s.CreateOrder(ctx, &o, jos)
		if err != nil {
			return fmt.Errorf("create order for %s: %w", v.CustomerCode, err)
		}
		res.add("orders", true)
		res.Created["job_orders"] += len(created)
	}
	return nil
}

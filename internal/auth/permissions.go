package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
)

// Permission modules correspond to major feature areas.
const (
	ModuleCategories       = "categories"
	ModuleItems            = "items"
	ModuleSections         = "sections"
	ModuleMachines         = "machines"
	ModuleMasterBatches    = "master_batches"
	ModuleUsers            = "users"
	ModuleCustomers        = "customers"
	ModuleCustomerProducts = "customer_products"
	ModuleOrders           = "orders"
	ModuleJobOrders        = "job_orders"
	ModuleRolls            = "rolls"
	ModuleRawMaterials     = "raw_materials"
	ModuleFinalProducts    = "final_products"
	ModuleQuality          = "quality"
	ModuleSMS              = "sms"
	ModuleMixMaterials     = "mix_materials"
	ModuleMaterialInputs   = "material_inputs"
	ModuleAccess           = "access_control"
	ModulePlatePricing     = "plate_pricing"
	ModuleAbaConfigs       = "aba_configs"
	ModuleHR               = "hr"
	ModuleMaintenance      = "maintenance"
	ModuleReports          = "reports"
	ModuleSystem           = "system"
)

// Permission actions.
const (
	PermActionView   = "view"
	PermActionCreate = "create"
	PermActionEdit   = "edit"
	PermActionDelete = "delete"
)

// AllActions lists every action.
var AllActions = []string{PermActionView, PermActionCreate, PermActionEdit, PermActionDelete}

// DefaultModules is the module catalogue seeded at startup.
var DefaultModules = []models.Module{
	{Name: ModuleCategories, DisplayName: "Categories", Category: "setup", Route: "/setup/categories"},
	{Name: ModuleItems, DisplayName: "Items", Category: "setup", Route: "/setup/items"},
	{Name: ModuleSections, DisplayName: "Sections", Category: "setup", Route: "/setup/sections"},
	{Name: ModuleMachines, DisplayName: "Machines", Category: "setup", Route: "/setup/machines"},
	{Name: ModuleMasterBatches, DisplayName: "Master Batches", Category: "setup", Route: "/setup/master-batches"},
	{Name: ModuleUsers, DisplayName: "Users", Category: "setup", Route: "/setup/users"},
	{Name: ModuleCustomers, DisplayName: "Customers", Category: "setup", Route: "/setup/customers"},
	{Name: ModuleCustomerProducts, DisplayName: "Customer Products", Category: "setup", Route: "/setup/products"},
	{Name: ModuleOrders, DisplayName: "Orders", Category: "production", Route: "/orders"},
	{Name: ModuleJobOrders, DisplayName: "Job Orders", Category: "production", Route: "/production/job-orders"},
	{Name: ModuleRolls, DisplayName: "Rolls", Category: "production", Route: "/production/rolls"},
	{Name: ModuleRawMaterials, DisplayName: "Raw Materials", Category: "warehouse", Route: "/warehouse/raw-materials"},
	{Name: ModuleFinalProducts, DisplayName: "Final Products", Category: "warehouse", Route: "/warehouse/final-products"},
	{Name: ModuleQuality, DisplayName: "Quality", Category: "quality", Route: "/quality"},
	{Name: ModuleSMS, DisplayName: "SMS", Category: "tools", Route: "/tools/sms"},
	{Name: ModuleMixMaterials, DisplayName: "Mix Materials", Category: "production", Route: "/production/mix-materials"},
	{Name: ModuleMaterialInputs, DisplayName: "Material Inputs", Category: "warehouse", Route: "/warehouse/material-input"},
	{Name: ModuleAccess, DisplayName: "Permissions", Category: "system", Route: "/system/permissions"},
	{Name: ModulePlatePricing, DisplayName: "Plate Pricing", Category: "tools", Route: "/tools/plate-pricing"},
	{Name: ModuleAbaConfigs, DisplayName: "ABA Formulas", Category: "tools", Route: "/tools/aba"},
	{Name: ModuleHR, DisplayName: "HR", Category: "hr", Route: "/hr"},
	{Name: ModuleMaintenance, DisplayName: "Maintenance", Category: "maintenance", Route: "/maintenance"},
	{Name: ModuleReports, DisplayName: "Reports", Category: "reports", Route: "/reports"},
	{Name: ModuleSystem, DisplayName: "System", Category: "system", Route: "/system"},
}

// ModuleStore is what seeding and refreshing need from the store.
type ModuleStore interface {
	EnsureModule(ctx context.Context, m *models.Module) error
	ListPermissionGrants(ctx context.Context) ([]storage.PermissionGrant, error)
}

// SeedModules inserts any missing default module.
func SeedModules(ctx context.Context, s ModuleStore) error {
	for _, m := range DefaultModules {
		m.IsActive = true
		if err := s.EnsureModule(ctx, &m); err != nil {
			return fmt.Errorf("seed module %s: %w", m.Name, err)
		}
	}
	return nil
}

// PermCache caches section→permissions for fast middleware lookups.
type PermCache struct {
	sync.RWMutex
	data    map[string]map[string]map[string]bool // section → module → action → true
	updated time.Time
}

// NewPermCache creates a new empty permission cache.
func NewPermCache() *PermCache {
	return &PermCache{
		data: make(map[string]map[string]map[string]bool),
	}
}

// Refresh reloads every active grant into the cache.
func (pc *PermCache) Refresh(ctx context.Context, s ModuleStore) error {
	grants, err := s.ListPermissionGrants(ctx)
	if err != nil {
		return err
	}

	data := make(map[string]map[string]map[string]bool)
	for _, g := range grants {
		if data[g.SectionID] == nil {
			data[g.SectionID] = make(map[string]map[string]bool)
		}
		actions := data[g.SectionID][g.Module]
		if actions == nil {
			actions = make(map[string]bool)
			data[g.SectionID][g.Module] = actions
		}
		actions[PermActionView] = actions[PermActionView] || g.CanView
		actions[PermActionCreate] = actions[PermActionCreate] || g.CanCreate
		actions[PermActionEdit] = actions[PermActionEdit] || g.CanEdit
		actions[PermActionDelete] = actions[PermActionDelete] || g.CanDelete
	}

	pc.Lock()
	pc.data = data
	pc.updated = time.Now()
	pc.Unlock()
	return nil
}

// HasPermission checks whether a section has permission for module+action.
func (pc *PermCache) HasPermission(section, module, action string) bool {
	pc.RLock()
	defer pc.RUnlock()
	return pc.data[section][module][action]
}

// Allowed applies the administrator bypass, then the user's section grants.
func (pc *PermCache) Allowed(u models.User, module, action string) bool {
	if u.IsAdmin {
		return true
	}
	if u.SectionID == nil {
		return false
	}
	return pc.HasPermission(*u.SectionID, module, action)
}

// SectionPermissions returns module → granted actions for a section.
func (pc *PermCache) SectionPermissions(section string) map[string][]string {
	pc.RLock()
	defer pc.RUnlock()
	out := make(map[string][]string)
	for mod, actions := range pc.data[section] {
		for _, act := range AllActions {
			if actions[act] {
				out[mod] = append(out[mod], act)
			}
		}
	}
	return out
}

// Updated returns the time of the last successful refresh.
func (pc *PermCache) Updated() time.Time {
	pc.RLock()
	defer pc.RUnlock()
	return pc.updated
}

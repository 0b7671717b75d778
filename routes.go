package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/admin"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/catalog"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/engineering"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/hr"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/inventory"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/maintenance"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/manufacturing"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/notifications"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/quality"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/sales"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
)

// router registers handlers behind the gate their method calls for: reads
// need a session, writes need the module permission.
type router struct {
	mux *http.ServeMux
	app *server.App
}

func (rt router) get(path string, h http.HandlerFunc) {
	rt.mux.HandleFunc("GET "+path, rt.app.RequireAuth(h))
}

func (rt router) gated(method, path, module, action string, h http.HandlerFunc) {
	rt.mux.HandleFunc(method+" "+path, rt.app.RequirePermission(module, action, h))
}

func (rt router) admin(method, path string, h http.HandlerFunc) {
	rt.mux.HandleFunc(method+" "+path, rt.app.RequireAdmin(h))
}

// crud registers the five standard routes of a resource. Nil handlers are
// skipped for resources that do not support the operation.
func (rt router) crud(base, module string, list, get, create, update, del http.HandlerFunc) {
	if list != nil {
		rt.get(base, list)
	}
	if get != nil {
		rt.get(base+"/{id}", get)
	}
	if create != nil {
		rt.gated(http.MethodPost, base, module, auth.PermActionCreate, create)
	}
	if update != nil {
		rt.gated(http.MethodPut, base+"/{id}", module, auth.PermActionEdit, update)
	}
	if del != nil {
		rt.gated(http.MethodDelete, base+"/{id}", module, auth.PermActionDelete, del)
	}
}

func newMux(app *server.App) *http.ServeMux {
	mux := http.NewServeMux()
	rt := router{mux: mux, app: app}

	registerCatalog(rt, catalog.New(app))
	registerSales(rt, sales.New(app))
	registerManufacturing(rt, manufacturing.New(app))
	registerInventory(rt, inventory.New(app))
	registerQuality(rt, quality.New(app))
	registerNotifications(rt, notifications.New(app))
	registerEngineering(rt, engineering.New(app))
	registerHR(rt, hr.New(app))
	registerMaintenance(rt, maintenance.New(app))
	registerAdmin(rt, admin.New(app))
	registerReports(rt, common.New(app))

	mux.HandleFunc("GET /api/ws", app.RequireAuth(app.Hub.ServeHTTP))
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func registerCatalog(rt router, h *catalog.Handler) {
	rt.crud("/api/categories", auth.ModuleCategories,
		h.ListCategories, h.GetCategory, h.CreateCategory, h.UpdateCategory, h.DeleteCategory)
	rt.get("/api/categories/{id}/items", h.CategoryItems)

	rt.crud("/api/items", auth.ModuleItems,
		h.ListItems, h.GetItem, h.CreateItem, h.UpdateItem, h.DeleteItem)

	rt.crud("/api/sections", auth.ModuleSections,
		h.ListSections, h.GetSection, h.CreateSection, h.UpdateSection, h.DeleteSection)
	rt.get("/api/sections/{id}/machines", h.SectionMachines)

	rt.crud("/api/machines", auth.ModuleMachines,
		h.ListMachines, h.GetMachine, h.CreateMachine, h.UpdateMachine, h.DeleteMachine)

	rt.crud("/api/master-batches", auth.ModuleMasterBatches,
		h.ListMasterBatches, h.GetMasterBatch, h.CreateMasterBatch, h.UpdateMasterBatch, h.DeleteMasterBatch)
}

func registerSales(rt router, h *sales.Handler) {
	rt.crud("/api/customers", auth.ModuleCustomers,
		h.ListCustomers, h.GetCustomer, h.CreateCustomer, h.UpdateCustomer, h.DeleteCustomer)
	rt.get("/api/customers/search", h.SearchCustomers)
	rt.get("/api/customers/{id}/products", h.CustomerProducts)

	rt.crud("/api/customer-products", auth.ModuleCustomerProducts,
		h.ListCustomerProducts, h.GetCustomerProduct, h.CreateCustomerProduct, h.UpdateCustomerProduct, h.DeleteCustomerProduct)

	rt.crud("/api/orders", auth.ModuleOrders,
		h.ListOrders, h.GetOrder, h.CreateOrder, h.UpdateOrder, h.DeleteOrder)
	rt.get("/api/orders/{id}/job-orders", h.OrderJobOrders)
	rt.gated(http.MethodPatch, "/api/orders/{id}/status", auth.ModuleOrders, auth.PermActionEdit, h.UpdateOrderStatus)
}

func registerManufacturing(rt router, h *manufacturing.Handler) {
	rt.crud("/api/job-orders", auth.ModuleJobOrders,
		h.ListJobOrders, h.GetJobOrder, h.CreateJobOrder, h.UpdateJobOrder, h.DeleteJobOrder)
	rt.get("/api/job-orders/{id}/rolls", h.JobOrderRolls)
	rt.get("/api/job-orders/{id}/final-products", h.JobOrderFinalProducts)
	rt.gated(http.MethodPatch, "/api/job-orders/{id}/status", auth.ModuleJobOrders, auth.PermActionEdit, h.UpdateJobOrderStatus)

	rt.crud("/api/rolls", auth.ModuleRolls,
		h.ListRolls, h.GetRoll, h.CreateRoll, h.UpdateRoll, h.DeleteRoll)
	rt.get("/api/rolls/stage/{stage}", h.RollsByStage)
	rt.gated(http.MethodPatch, "/api/rolls/{id}", auth.ModuleRolls, auth.PermActionEdit, h.PatchRoll)

	rt.crud("/api/final-products", auth.ModuleFinalProducts,
		h.ListFinalProducts, h.GetFinalProduct, h.CreateFinalProduct, h.UpdateFinalProduct, h.DeleteFinalProduct)
}

func registerInventory(rt router, h *inventory.Handler) {
	rt.crud("/api/raw-materials", auth.ModuleRawMaterials,
		h.ListRawMaterials, h.GetRawMaterial, h.CreateRawMaterial, h.UpdateRawMaterial, h.DeleteRawMaterial)

	rt.crud("/api/material-inputs", auth.ModuleMaterialInputs,
		h.ListMaterialInputs, h.GetMaterialInput, h.CreateMaterialInput, nil, h.DeleteMaterialInput)

	rt.crud("/api/mix-materials", auth.ModuleMixMaterials,
		h.ListMixMaterials, h.GetMixMaterial, h.CreateMixMaterial, h.UpdateMixMaterial, h.DeleteMixMaterial)
	rt.get("/api/mix-materials/{id}/items", h.MixItems)
	rt.get("/api/mix-materials/{id}/machines", h.MixMachines)
	rt.gated(http.MethodPost, "/api/mix-materials/{id}/machines", auth.ModuleMixMaterials, auth.PermActionEdit, h.AddMixMachine)
	rt.gated(http.MethodDelete, "/api/mix-materials/{id}/machines/{machineId}", auth.ModuleMixMaterials, auth.PermActionEdit, h.RemoveMixMachine)

	rt.crud("/api/mix-items", auth.ModuleMixMaterials,
		h.ListMixItems, h.GetMixItem, h.CreateMixItem, h.UpdateMixItem, h.DeleteMixItem)

	rt.crud("/api/aba-material-configs", auth.ModuleAbaConfigs,
		h.ListAbaConfigs, h.GetAbaConfig, h.CreateAbaConfig, h.UpdateAbaConfig, h.DeleteAbaConfig)
	rt.gated(http.MethodPost, "/api/aba-material-configs/{id}/default", auth.ModuleAbaConfigs, auth.PermActionEdit, h.SetDefaultAbaConfig)
}

func registerQuality(rt router, h *quality.Handler) {
	rt.crud("/api/quality-check-types", auth.ModuleQuality,
		h.ListCheckTypes, h.GetCheckType, h.CreateCheckType, h.UpdateCheckType, h.DeleteCheckType)

	rt.crud("/api/quality-checks", auth.ModuleQuality,
		h.ListChecks, h.GetCheck, h.CreateCheck, h.UpdateCheck, h.DeleteCheck)
	rt.get("/api/quality-checks/roll/{rollId}", h.ChecksByRoll)
	rt.get("/api/quality-checks/job-order/{jobOrderId}", h.ChecksByJobOrder)

	rt.crud("/api/corrective-actions", auth.ModuleQuality,
		h.ListCorrectiveActions, h.GetCorrectiveAction, h.CreateCorrectiveAction, h.UpdateCorrectiveAction, h.DeleteCorrectiveAction)
	rt.get("/api/corrective-actions/quality-check/{id}", h.CorrectiveActionsByCheck)

	rt.crud("/api/quality-violations", auth.ModuleQuality,
		h.ListViolations, h.GetViolation, h.CreateViolation, h.UpdateViolation, h.DeleteViolation)

	rt.crud("/api/quality-penalties", auth.ModuleQuality,
		h.ListPenalties, h.GetPenalty, h.CreatePenalty, h.UpdatePenalty, h.DeletePenalty)
	rt.get("/api/quality-penalties/violation/{id}", h.PenaltiesByViolation)
}

func registerNotifications(rt router, h *notifications.Handler) {
	rt.crud("/api/sms-messages", auth.ModuleSMS,
		h.ListMessages, h.GetMessage, nil, nil, h.DeleteMessage)
	rt.get("/api/sms-messages/order/{orderId}", h.MessagesByOrder)
	rt.gated(http.MethodPost, "/api/sms-messages/order-notification", auth.ModuleSMS, auth.PermActionCreate, h.SendOrderNotification)
	rt.gated(http.MethodPost, "/api/sms-messages/job-order-update", auth.ModuleSMS, auth.PermActionCreate, h.SendJobOrderUpdate)
	rt.gated(http.MethodPost, "/api/sms-messages/custom", auth.ModuleSMS, auth.PermActionCreate, h.SendCustomMessage)
	rt.gated(http.MethodPost, "/api/sms-messages/{id}/resend", auth.ModuleSMS, auth.PermActionCreate, h.ResendMessage)

	rt.crud("/api/sms-templates", auth.ModuleSMS,
		h.ListTemplates, h.GetTemplate, h.CreateTemplate, h.UpdateTemplate, h.DeleteTemplate)

	rt.crud("/api/sms-notification-rules", auth.ModuleSMS,
		h.ListRules, h.GetRule, h.CreateRule, h.UpdateRule, h.DeleteRule)
}

func registerEngineering(rt router, h *engineering.Handler) {
	rt.crud("/api/plate-pricing-parameters", auth.ModulePlatePricing,
		h.ListPlateParameters, h.GetPlateParameter, h.CreatePlateParameter, h.UpdatePlateParameter, h.DeletePlateParameter)

	rt.crud("/api/plate-calculations", auth.ModulePlatePricing,
		h.ListPlateCalculations, h.GetPlateCalculation, h.CreatePlateCalculation, nil, h.DeletePlateCalculation)
	rt.mux.HandleFunc("POST /api/plate-calculations/calculate", rt.app.RequireAuth(h.Calculate))
}

func registerHR(rt router, h *hr.Handler) {
	rt.crud("/api/time-attendance", auth.ModuleHR,
		h.ListAttendance, h.GetAttendance, h.CreateAttendance, h.UpdateAttendance, h.DeleteAttendance)
	rt.get("/api/time-attendance/user/{userId}", h.AttendanceByUser)
	rt.mux.HandleFunc("POST /api/time-attendance/check-in", rt.app.RequireAuth(h.CheckIn))
	rt.mux.HandleFunc("POST /api/time-attendance/check-out", rt.app.RequireAuth(h.CheckOut))

	rt.crud("/api/employee-of-month", auth.ModuleHR,
		h.ListEmployeeOfMonth, h.GetEmployeeOfMonth, h.CreateEmployeeOfMonth, h.UpdateEmployeeOfMonth, h.DeleteEmployeeOfMonth)
	rt.get("/api/employee-of-month/{year}/{month}", h.EmployeeOfMonthByPeriod)

	rt.crud("/api/hr-violations", auth.ModuleHR,
		h.ListViolations, h.GetViolation, h.CreateViolation, h.UpdateViolation, h.DeleteViolation)
	rt.get("/api/hr-violations/user/{userId}", h.ViolationsByUser)

	// Any signed-in employee may file a complaint; reading them needs HR view.
	rt.crud("/api/hr-complaints", auth.ModuleHR,
		nil, nil, nil, h.UpdateComplaint, h.DeleteComplaint)
	rt.gated(http.MethodGet, "/api/hr-complaints", auth.ModuleHR, auth.PermActionView, h.ListComplaints)
	rt.gated(http.MethodGet, "/api/hr-complaints/{id}", auth.ModuleHR, auth.PermActionView, h.GetComplaint)
	rt.mux.HandleFunc("POST /api/hr-complaints", rt.app.RequireAuth(h.CreateComplaint))
}

func registerMaintenance(rt router, h *maintenance.Handler) {
	rt.crud("/api/maintenance-requests", auth.ModuleMaintenance,
		h.ListRequests, h.GetRequest, h.CreateRequest, h.UpdateRequest, h.DeleteRequest)

	rt.crud("/api/maintenance-actions", auth.ModuleMaintenance,
		h.ListActions, h.GetAction, h.CreateAction, h.UpdateAction, h.DeleteAction)
	rt.get("/api/maintenance-actions/request/{requestId}", h.ActionsByRequest)

	rt.crud("/api/maintenance-schedule", auth.ModuleMaintenance,
		h.ListSchedules, h.GetSchedule, h.CreateSchedule, h.UpdateSchedule, h.DeleteSchedule)
	rt.gated(http.MethodPost, "/api/maintenance-schedule/generate", auth.ModuleMaintenance, auth.PermActionCreate, h.GenerateDue)
}

func registerAdmin(rt router, h *admin.Handler) {
	rt.mux.HandleFunc("POST /api/login", h.Login)
	rt.mux.HandleFunc("POST /api/logout", h.Logout)
	rt.mux.HandleFunc("GET /api/auth/debug", h.AuthDebug)
	rt.get("/api/user", h.Me)

	rt.crud("/api/users", auth.ModuleUsers,
		h.ListUsers, h.GetUser, h.CreateUser, h.UpdateUser, h.DeleteUser)

	rt.crud("/api/modules", auth.ModuleAccess,
		h.ListModules, h.GetModule, h.CreateModule, h.UpdateModule, h.DeleteModule)
	rt.crud("/api/permissions", auth.ModuleAccess,
		h.ListPermissions, h.GetPermission, h.CreatePermission, h.UpdatePermission, h.DeletePermission)
	rt.get("/api/permissions/section/{sectionId}", h.PermissionsBySection)

	rt.admin(http.MethodPost, "/api/database/backup", h.CreateBackup)
	rt.admin(http.MethodGet, "/api/database/backups", h.ListBackups)
	rt.admin(http.MethodGet, "/api/database/backups/{filename}", h.DownloadBackup)
	rt.admin(http.MethodDelete, "/api/database/backups/{filename}", h.DeleteBackup)
	rt.admin(http.MethodPost, "/api/database/restore", h.RestoreBackup)

	rt.get("/api/system/server-status", h.ServerStatus)
	rt.admin(http.MethodPost, "/api/system/restart", h.Restart)
	rt.admin(http.MethodGet, "/api/audit-logs", h.AuditLogs)
	rt.admin(http.MethodPost, "/api/import-csv", h.ImportCSV)
	rt.admin(http.MethodPost, "/api/init-demo-data", h.InitDemoData)
}

func registerReports(rt router, h *common.Handler) {
	rt.get("/api/user-dashboard", h.UserDashboard)
	rt.get("/api/reports/production", h.ProductionReport)
	rt.get("/api/reports/warehouse", h.WarehouseReport)
	rt.get("/api/reports/quality", h.QualityReport)
	rt.get("/api/reports/workflow", h.WorkflowReport)
	rt.get("/api/reports/performance-metrics", h.PerformanceMetrics)
}

package models

// Time and date columns are stored as text in these layouts.
const (
	TimeLayout = "2006-01-02 15:04:05"
	DateLayout = "2006-01-02"
)

// --- Catalog ---

type Category struct {
	ID   string `json:"id" validate:"required,max=50"`
	Name string `json:"name" validate:"required,max=255"`
	Code string `json:"code" validate:"required,max=50"`
}

type Item struct {
	ID         string `json:"id" validate:"required,max=50"`
	CategoryID string `json:"category_id" validate:"required"`
	Name       string `json:"name" validate:"required,max=255"`
	FullName   string `json:"full_name" validate:"max=500"`
}

type Section struct {
	ID   string `json:"id" validate:"required,max=50"`
	Name string `json:"name" validate:"required,max=255"`
}

type Machine struct {
	ID        string  `json:"id" validate:"required,max=50"`
	Name      string  `json:"name" validate:"required,max=255"`
	SectionID *string `json:"section_id" validate:"omitempty,max=50"`
	IsActive  bool    `json:"is_active"`
}

type MasterBatch struct {
	ID   string `json:"id" validate:"required,max=50"`
	Name string `json:"name" validate:"required,max=255"`
}

// --- People ---

// User is an account. Password carries the bcrypt hash inside the server
// and is never serialized.
type User struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username" validate:"required,min=3,max=100"`
	Password  string  `json:"-"`
	Name      string  `json:"name" validate:"max=255"`
	Email     string  `json:"email" validate:"omitempty,email"`
	Phone     string  `json:"phone" validate:"max=50"`
	IsAdmin   bool    `json:"is_admin"`
	IsActive  bool    `json:"is_active"`
	SectionID *string `json:"section_id" validate:"omitempty,max=50"`
	CreatedAt string  `json:"created_at"`
}

type Customer struct {
	ID              string `json:"id" validate:"max=50"`
	Code            string `json:"code" validate:"required,max=50"`
	Name            string `json:"name" validate:"required,max=255"`
	NameAr          string `json:"name_ar" validate:"max=255"`
	UserID          *int64 `json:"user_id"`
	PlateDrawerCode string `json:"plate_drawer_code" validate:"max=50"`
	Phone           string `json:"phone" validate:"max=50"`
	Address         string `json:"address" validate:"max=500"`
}

type CustomerProduct struct {
	ID               int64   `json:"id"`
	CustomerID       string  `json:"customer_id" validate:"required"`
	CategoryID       string  `json:"category_id" validate:"required"`
	ItemID           string  `json:"item_id" validate:"required"`
	MasterBatchID    *string `json:"master_batch_id"`
	SizeCaption      string  `json:"size_caption" validate:"max=100"`
	Width            float64 `json:"width" validate:"gte=0"`
	LeftF            float64 `json:"left_f" validate:"gte=0"`
	RightF           float64 `json:"right_f" validate:"gte=0"`
	Thickness        float64 `json:"thickness" validate:"gte=0"`
	PrintingCylinder float64 `json:"printing_cylinder" validate:"gte=0"`
	LengthCm         float64 `json:"length_cm" validate:"gte=0"`
	CuttingLength    float64 `json:"cutting_length" validate:"gte=0"`
	RawMaterial      string  `json:"raw_material" validate:"max=100"`
	Printed          string  `json:"printed" validate:"max=50"`
	CuttingUnit      string  `json:"cutting_unit" validate:"max=50"`
	UnitWeight       float64 `json:"unit_weight" validate:"gte=0"`
	Packing          string  `json:"packing" validate:"max=100"`
	Notes            string  `json:"notes" validate:"max=1000"`
}

// --- Production ---

type Order struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	CustomerID string `json:"customer_id" validate:"required"`
	Note       string `json:"note" validate:"max=1000"`
	Status     string `json:"status" validate:"omitempty,order_status"`
	UserID     *int64 `json:"user_id"`
}

type JobOrder struct {
	ID                int64   `json:"id"`
	OrderID           int64   `json:"order_id" validate:"required"`
	CustomerProductID int64   `json:"customer_product_id" validate:"required"`
	CustomerID        string  `json:"customer_id"`
	Quantity          float64 `json:"quantity" validate:"gt=0"`
	FinishedQty       float64 `json:"finished_qty" validate:"gte=0"`
	ReceivedQty       float64 `json:"received_qty" validate:"gte=0"`
	Status            string  `json:"status" validate:"omitempty,job_order_status"`
}

type Roll struct {
	ID           string  `json:"id"`
	JobOrderID   int64   `json:"job_order_id" validate:"required"`
	SerialNumber string  `json:"serial_number"`
	ExtrudingQty float64 `json:"extruding_qty" validate:"gte=0"`
	PrintingQty  float64 `json:"printing_qty" validate:"gte=0"`
	CuttingQty   float64 `json:"cutting_qty" validate:"gte=0"`
	WasteQty     float64 `json:"waste_qty" validate:"gte=0"`
	CurrentStage string  `json:"current_stage" validate:"omitempty,roll_stage"`
	Status       string  `json:"status" validate:"omitempty,roll_status"`
	CreatedByID  *int64  `json:"created_by_id"`
	PrintedByID  *int64  `json:"printed_by_id"`
	CutByID      *int64  `json:"cut_by_id"`
	CreatedAt    string  `json:"created_at"`
	PrintedAt    *string `json:"printed_at"`
	CutAt        *string `json:"cut_at"`
}

type RawMaterial struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name" validate:"required,max=255"`
	Type        string  `json:"type" validate:"required,max=100"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	Unit        string  `json:"unit" validate:"required,max=20"`
	LastUpdated string  `json:"last_updated"`
}

type FinalProduct struct {
	ID            int64   `json:"id"`
	JobOrderID    int64   `json:"job_order_id" validate:"required"`
	Quantity      float64 `json:"quantity" validate:"gt=0"`
	CompletedDate string  `json:"completed_date" validate:"omitempty,datetime=2006-01-02"`
	Status        string  `json:"status" validate:"omitempty,final_product_status"`
}

// --- Quality ---

type QualityCheckType struct {
	ID             string   `json:"id" validate:"required,max=50"`
	Name           string   `json:"name" validate:"required,max=255"`
	Description    string   `json:"description" validate:"max=1000"`
	ChecklistItems []string `json:"checklist_items"`
	Parameters     []string `json:"parameters"`
	TargetStage    string   `json:"target_stage" validate:"required,quality_stage"`
	IsActive       bool     `json:"is_active"`
}

// QualityCheck is the persisted row. The API exposes QualityCheckView; the
// quality handler adapts between the two.
type QualityCheck struct {
	ID               int64
	CheckTypeID      string
	RollID           *string
	JobOrderID       *int64
	CheckedBy        *int64
	Status           string
	Notes            string
	ChecklistResults string
	ParameterValues  string
	IssueSeverity    string
	ImageURLs        string
	CheckedAt        string
}

type CorrectiveAction struct {
	ID                 int64  `json:"id"`
	QualityCheckID     int64  `json:"quality_check_id" validate:"required"`
	Action             string `json:"action" validate:"required,max=2000"`
	ImplementedBy      *int64 `json:"implemented_by"`
	ImplementationDate string `json:"implementation_date" validate:"omitempty,datetime=2006-01-02"`
	VerifiedBy         *int64 `json:"verified_by"`
	VerifiedDate       string `json:"verified_date" validate:"omitempty,datetime=2006-01-02"`
	Status             string `json:"status" validate:"omitempty,corrective_action_status"`
	Notes              string `json:"notes" validate:"max=2000"`
}

type QualityViolation struct {
	ID              int64  `json:"id"`
	QualityCheckID  *int64 `json:"quality_check_id"`
	ReportedBy      int64  `json:"reported_by" validate:"required"`
	ViolationType   string `json:"violation_type" validate:"required,max=100"`
	Severity        string `json:"severity" validate:"required,violation_severity"`
	Description     string `json:"description" validate:"required,max=2000"`
	AffectedArea    string `json:"affected_area" validate:"max=255"`
	ReportDate      string `json:"report_date"`
	Status          string `json:"status" validate:"omitempty,violation_status"`
	ResolutionNotes string `json:"resolution_notes" validate:"max=2000"`
	ResolvedDate    string `json:"resolved_date"`
}

type QualityPenalty struct {
	ID          int64   `json:"id"`
	ViolationID int64   `json:"violation_id" validate:"required"`
	AssignedTo  int64   `json:"assigned_to" validate:"required"`
	AssignedBy  int64   `json:"assigned_by"`
	PenaltyType string  `json:"penalty_type" validate:"required,penalty_type"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Currency    string  `json:"currency" validate:"max=10"`
	Description string  `json:"description" validate:"required,max=2000"`
	StartDate   string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Status      string  `json:"status" validate:"omitempty,penalty_status"`
	Comments    string  `json:"comments" validate:"max=2000"`
}

// --- SMS ---

type SmsMessage struct {
	ID           int64   `json:"id"`
	Recipient    string  `json:"recipient"`
	Message      string  `json:"message"`
	Status       string  `json:"status"`
	OrderID      *int64  `json:"order_id"`
	JobOrderID   *int64  `json:"job_order_id"`
	CustomerID   *string `json:"customer_id"`
	SentBy       *int64  `json:"sent_by"`
	MessageType  string  `json:"message_type"`
	Priority     string  `json:"priority"`
	ProviderID   string  `json:"provider_id"`
	ErrorMessage string  `json:"error_message"`
	RetryCount   int     `json:"retry_count"`
	CreatedAt    string  `json:"created_at"`
	SentAt       *string `json:"sent_at"`
	DeliveredAt  *string `json:"delivered_at"`
}

type SmsTemplate struct {
	ID          string   `json:"id" validate:"required,max=50"`
	Name        string   `json:"name" validate:"required,max=255"`
	Category    string   `json:"category" validate:"max=100"`
	Template    string   `json:"template" validate:"required,max=1600"`
	Variables   []string `json:"variables"`
	MessageType string   `json:"message_type" validate:"required,sms_message_type"`
	IsActive    bool     `json:"is_active"`
	CreatedBy   *int64   `json:"created_by"`
}

type SmsNotificationRule struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name" validate:"required,max=255"`
	TriggerEvent     string   `json:"trigger_event" validate:"required,sms_trigger"`
	TemplateID       *string  `json:"template_id"`
	RecipientRoles   []string `json:"recipient_roles"`
	Conditions       string   `json:"conditions" validate:"max=2000"`
	IsActive         bool     `json:"is_active"`
	Priority         string   `json:"priority" validate:"omitempty,sms_priority"`
	CooldownMinutes  int      `json:"cooldown_minutes" validate:"gte=0"`
	WorkingHoursOnly bool     `json:"working_hours_only"`
}

// --- Materials ---

type MixMaterial struct {
	ID            int64    `json:"id"`
	MixDate       string   `json:"mix_date"`
	MixPerson     *int64   `json:"mix_person"`
	TotalQuantity float64  `json:"total_quantity"`
	CreatedAt     string   `json:"created_at"`
	MachineIDs    []string `json:"machine_ids"`
}

type MixItem struct {
	ID            int64   `json:"id"`
	MixID         int64   `json:"mix_id"`
	RawMaterialID int64   `json:"raw_material_id"`
	Quantity      float64 `json:"quantity"`
	Percentage    float64 `json:"percentage"`
}

type MaterialInput struct {
	ID     int64               `json:"id"`
	Date   string              `json:"date"`
	UserID *int64              `json:"user_id"`
	Note   string              `json:"note" validate:"max=1000"`
	Items  []MaterialInputItem `json:"items" validate:"required,min=1,dive"`
}

type MaterialInputItem struct {
	ID            int64   `json:"id"`
	InputID       int64   `json:"input_id"`
	RawMaterialID int64   `json:"raw_material_id" validate:"required"`
	Quantity      float64 `json:"quantity" validate:"gt=0"`
}

type AbaMaterialConfig struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
	ConfigData  string `json:"config_data" validate:"required,json"`
	IsDefault   bool   `json:"is_default"`
	CreatedBy   *int64 `json:"created_by"`
	CreatedAt   string `json:"created_at"`
}

// --- Access control ---

type Module struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required,max=100"`
	DisplayName string `json:"display_name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
	Category    string `json:"category" validate:"max=100"`
	Route       string `json:"route" validate:"max=255"`
	IsActive    bool   `json:"is_active"`
}

type Permission struct {
	ID        int64  `json:"id"`
	SectionID string `json:"section_id" validate:"required"`
	ModuleID  int64  `json:"module_id" validate:"required"`
	CanView   bool   `json:"can_view"`
	CanCreate bool   `json:"can_create"`
	CanEdit   bool   `json:"can_edit"`
	CanDelete bool   `json:"can_delete"`
	IsActive  bool   `json:"is_active"`
}

// --- Plate pricing ---

type PlatePricingParameter struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name" validate:"required,max=255"`
	Value       float64 `json:"value" validate:"gte=0"`
	Type        string  `json:"type" validate:"required,plate_parameter_type"`
	Description string  `json:"description" validate:"max=1000"`
	IsActive    bool    `json:"is_active"`
	LastUpdated string  `json:"last_updated"`
}

type PlateCalculation struct {
	ID                  int64   `json:"id"`
	CustomerID          *string `json:"customer_id"`
	Width               float64 `json:"width"`
	Height              float64 `json:"height"`
	Area                float64 `json:"area"`
	Colors              int     `json:"colors"`
	PlateType           string  `json:"plate_type"`
	Thickness           float64 `json:"thickness"`
	BasePricePerUnit    float64 `json:"base_price_per_unit"`
	ColorMultiplier     float64 `json:"color_multiplier"`
	ThicknessMultiplier float64 `json:"thickness_multiplier"`
	CustomerDiscount    float64 `json:"customer_discount"`
	CalculatedPrice     float64 `json:"calculated_price"`
	Notes               string  `json:"notes"`
	CreatedBy           *int64  `json:"created_by"`
	CreatedAt           string  `json:"created_at"`
}

// --- HR ---

type TimeAttendance struct {
	ID               int64   `json:"id"`
	UserID           int64   `json:"user_id" validate:"required"`
	Date             string  `json:"date" validate:"required,datetime=2006-01-02"`
	CheckInTime      *string `json:"check_in_time"`
	CheckOutTime     *string `json:"check_out_time"`
	CheckInLocation  string  `json:"check_in_location" validate:"max=255"`
	CheckOutLocation string  `json:"check_out_location" validate:"max=255"`
	WorkingHours     float64 `json:"working_hours" validate:"gte=0"`
	OvertimeHours    float64 `json:"overtime_hours" validate:"gte=0"`
	Status           string  `json:"status" validate:"omitempty,attendance_status"`
	Notes            string  `json:"notes" validate:"max=1000"`
}

type EmployeeOfMonth struct {
	ID                int64   `json:"id"`
	UserID            int64   `json:"user_id" validate:"required"`
	Month             int     `json:"month" validate:"required,min=1,max=12"`
	Year              int     `json:"year" validate:"required,min=2000,max=2100"`
	ObligationPoints  float64 `json:"obligation_points" validate:"gte=0"`
	QualityScore      float64 `json:"quality_score" validate:"gte=0,lte=100"`
	AttendanceScore   float64 `json:"attendance_score" validate:"gte=0,lte=100"`
	ProductivityScore float64 `json:"productivity_score" validate:"gte=0,lte=100"`
	TotalScore        float64 `json:"total_score"`
	Rank              int     `json:"rank" validate:"gte=0"`
	Reward            string  `json:"reward" validate:"max=255"`
	RewardType        string  `json:"reward_type" validate:"max=50"`
	Notes             string  `json:"notes" validate:"max=1000"`
}

type HrViolation struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"user_id" validate:"required"`
	ViolationType   string `json:"violation_type" validate:"required,max=100"`
	Severity        string `json:"severity" validate:"required,violation_severity"`
	Description     string `json:"description" validate:"required,max=2000"`
	ActionTaken     string `json:"action_taken" validate:"max=1000"`
	ReportedBy      int64  `json:"reported_by"`
	Date            string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status          string `json:"status" validate:"omitempty,violation_status"`
	ResolutionNotes string `json:"resolution_notes" validate:"max=2000"`
}

type HrComplaint struct {
	ID            int64  `json:"id"`
	ComplainantID int64  `json:"complainant_id"`
	AgainstUserID *int64 `json:"against_user_id"`
	ComplaintType string `json:"complaint_type" validate:"required,max=100"`
	Subject       string `json:"subject" validate:"required,max=255"`
	Description   string `json:"description" validate:"required,max=4000"`
	Priority      string `json:"priority" validate:"omitempty,complaint_priority"`
	Status        string `json:"status" validate:"omitempty,complaint_status"`
	AssignedTo    *int64 `json:"assigned_to"`
	Resolution    string `json:"resolution" validate:"max=4000"`
	IsAnonymous   bool   `json:"is_anonymous"`
	SubmittedDate string `json:"submitted_date"`
	ResolvedDate  string `json:"resolved_date"`
}

// --- Maintenance ---

type MaintenanceRequest struct {
	ID                  int64   `json:"id"`
	RequestNumber       string  `json:"request_number"`
	MachineID           string  `json:"machine_id" validate:"required"`
	DamageType          string  `json:"damage_type" validate:"required,max=100"`
	Severity            string  `json:"severity" validate:"required,maintenance_severity"`
	Description         string  `json:"description" validate:"required,max=2000"`
	ReportedBy          *int64  `json:"reported_by"`
	Status              string  `json:"status" validate:"omitempty,maintenance_status"`
	Priority            int     `json:"priority" validate:"gte=0,lte=5"`
	AssignedTechnician  *int64  `json:"assigned_technician"`
	EstimatedRepairTime float64 `json:"estimated_repair_time" validate:"gte=0"`
	ActualRepairTime    float64 `json:"actual_repair_time" validate:"gte=0"`
	Notes               string  `json:"notes" validate:"max=2000"`
	CreatedAt           string  `json:"created_at"`
	CompletedAt         *string `json:"completed_at"`
}

type MaintenanceAction struct {
	ID           int64   `json:"id"`
	RequestID    int64   `json:"request_id" validate:"required"`
	MachineID    string  `json:"machine_id"`
	ActionType   string  `json:"action_type" validate:"required,max=100"`
	PartReplaced string  `json:"part_replaced" validate:"max=255"`
	Description  string  `json:"description" validate:"required,max=2000"`
	PerformedBy  *int64  `json:"performed_by"`
	Hours        float64 `json:"hours" validate:"gte=0"`
	Cost         float64 `json:"cost" validate:"gte=0"`
	Status       string  `json:"status" validate:"omitempty,maintenance_status"`
	ActionDate   string  `json:"action_date"`
}

type MaintenanceSchedule struct {
	ID              int64   `json:"id"`
	MachineID       string  `json:"machine_id" validate:"required"`
	TaskName        string  `json:"task_name" validate:"required,max=255"`
	Description     string  `json:"description" validate:"max=2000"`
	MaintenanceType string  `json:"maintenance_type" validate:"max=100"`
	Frequency       string  `json:"frequency" validate:"required,schedule_frequency"`
	LastCompleted   *string `json:"last_completed" validate:"omitempty,datetime=2006-01-02"`
	NextDue         string  `json:"next_due" validate:"required,datetime=2006-01-02"`
	AssignedTo      *int64  `json:"assigned_to"`
	Priority        int     `json:"priority" validate:"gte=0,lte=5"`
	EstimatedHours  float64 `json:"estimated_hours" validate:"gte=0"`
	Instructions    string  `json:"instructions" validate:"max=4000"`
	Status          string  `json:"status" validate:"omitempty,schedule_status"`
}

// --- Platform ---

type AuditLog struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Module    string `json:"module"`
	RecordID  string `json:"record_id"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}

type Session struct {
	Token        string `json:"-"`
	UserID       int64  `json:"user_id"`
	CreatedAt    string `json:"created_at"`
	ExpiresAt    string `json:"expires_at"`
	LastActivity string `json:"last_activity"`
}

// BackupInfo describes one backup file on disk.
type BackupInfo struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
}

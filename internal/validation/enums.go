package validation

// Enum values accepted on input. Each list is registered as a validator tag
// in tagEnums below.
var (
	ValidOrderStatuses            = []string{"pending", "processing", "hold", "completed", "cancelled", "For Production"}
	ValidJobOrderStatuses         = []string{"pending", "in_progress", "extrusion_completed", "completed", "cancelled"}
	ValidRollStages               = []string{"extrusion", "printing", "cutting", "completed"}
	ValidRollStatuses             = []string{"pending", "processing", "completed"}
	ValidFinalProductStatuses     = []string{"in-stock", "shipped"}
	ValidQualityStages            = []string{"extrusion", "printing", "cutting", "final"}
	ValidQualityCheckStatuses     = []string{"pending", "passed", "failed", "warning"}
	ValidCorrectiveActionStatuses = []string{"open", "in_progress", "completed", "verified", "cancelled"}
	ValidViolationSeverities      = []string{"low", "medium", "high", "critical"}
	ValidViolationStatuses        = []string{"open", "investigating", "resolved", "closed"}
	ValidPenaltyTypes             = []string{"warning", "fine", "suspension", "training", "other"}
	ValidPenaltyStatuses          = []string{"pending", "active", "completed", "cancelled", "appealed"}
	ValidSmsMessageTypes          = []string{"order_notification", "job_order_update", "status_update", "custom", "reminder", "alert"}
	ValidSmsTriggers              = []string{"order_created", "order_status_changed", "job_order_status_changed", "roll_created", "quality_issue", "maintenance_due", "custom"}
	ValidSmsPriorities            = []string{"low", "normal", "high", "urgent"}
	ValidPlateParameterTypes      = []string{"base_price", "color_multiplier", "thickness_multiplier"}
	ValidAttendanceStatuses       = []string{"present", "absent", "late", "half_day", "leave"}
	ValidComplaintPriorities      = []string{"low", "medium", "high", "urgent"}
	ValidComplaintStatuses        = []string{"submitted", "under_review", "investigating", "resolved", "closed"}
	ValidMaintenanceSeverities    = []string{"low", "medium", "high", "critical"}
	ValidMaintenanceStatuses      = []string{"pending", "in_progress", "completed", "cancelled"}
	ValidScheduleFrequencies      = []string{"daily", "weekly", "monthly", "quarterly", "yearly"}
	ValidScheduleStatuses         = []string{"active", "paused", "inactive"}
)

var tagEnums = map[string][]string{
	"order_status":             ValidOrderStatuses,
	"job_order_status":         ValidJobOrderStatuses,
	"roll_stage":               ValidRollStages,
	"roll_status":              ValidRollStatuses,
	"final_product_status":     ValidFinalProductStatuses,
	"quality_stage":            ValidQualityStages,
	"quality_check_status":     ValidQualityCheckStatuses,
	"corrective_action_status": ValidCorrectiveActionStatuses,
	"violation_severity":       ValidViolationSeverities,
	"violation_status":         ValidViolationStatuses,
	"penalty_type":             ValidPenaltyTypes,
	"penalty_status":           ValidPenaltyStatuses,
	"sms_message_type":         ValidSmsMessageTypes,
	"sms_trigger":              ValidSmsTriggers,
	"sms_priority":             ValidSmsPriorities,
	"plate_parameter_type":     ValidPlateParameterTypes,
	"attendance_status":        ValidAttendanceStatuses,
	"complaint_priority":       ValidComplaintPriorities,
	"complaint_status":         ValidComplaintStatuses,
	"maintenance_severity":     ValidMaintenanceSeverities,
	"maintenance_status":       ValidMaintenanceStatuses,
	"schedule_frequency":       ValidScheduleFrequencies,
	"schedule_status":          ValidScheduleStatuses,
}

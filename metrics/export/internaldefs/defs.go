package internaldefs

import (
	gatekit "github.com/veilpost/gatekit"
)

// CounterDef names one gateway counter for export.
type CounterDef struct {
	ID   gatekit.MetricID
	Name string
	Help string
}

// CounterDefs maps every gateway counter to its exported name.
var CounterDefs = []CounterDef{
	{ID: gatekit.MetricAuthSuccess, Name: "gatekit_auth_success_total", Help: "Tokens that verified cleanly."},
	{ID: gatekit.MetricAuthExpired, Name: "gatekit_auth_expired_total", Help: "Tokens rejected for expiry."},
	{ID: gatekit.MetricAuthInvalid, Name: "gatekit_auth_invalid_total", Help: "Tokens rejected as forged or malformed."},
	{ID: gatekit.MetricSessionIssued, Name: "gatekit_session_issued_total", Help: "Session cookies set."},
	{ID: gatekit.MetricSessionCleared, Name: "gatekit_session_cleared_total", Help: "Session cookies cleared."},
	{ID: gatekit.MetricPasswordMismatch, Name: "gatekit_password_mismatch_total", Help: "Failed credential verifications."},
	{ID: gatekit.MetricThrottleAllowed, Name: "gatekit_throttle_allowed_total", Help: "Rate-limit checks that admitted requests."},
	{ID: gatekit.MetricThrottleBlocked, Name: "gatekit_throttle_blocked_total", Help: "Rate-limit checks that denied requests."},
	{ID: gatekit.MetricThrottleStoreFailure, Name: "gatekit_throttle_store_failure_total", Help: "Rate-limit checks resolved by the configured fail mode."},
	{ID: gatekit.MetricCSRFIssued, Name: "gatekit_csrf_issued_total", Help: "CSRF secrets issued."},
	{ID: gatekit.MetricCSRFRejected, Name: "gatekit_csrf_rejected_total", Help: "Mutating requests failing CSRF validation."},
}

// AuditDroppedName is the exported counter for audit events shed under
// backpressure.
const AuditDroppedName = "gatekit_audit_dropped_total"

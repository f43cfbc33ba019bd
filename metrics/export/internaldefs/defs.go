package internaldefs

import (
	authgate "github.com/tmarev/authgate"
)

// CounterDef maps one engine counter to an exported metric name.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// HistogramDef maps one engine histogram to an exported metric name.
type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful login attempts."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed login attempts."},
	{ID: authgate.MetricLoginLocked, Name: "authgate_login_locked_total", Help: "Login attempts refused by the lockout guard."},
	{ID: authgate.MetricRefreshSuccess, Name: "authgate_refresh_success_total", Help: "Successful refresh operations."},
	{ID: authgate.MetricRefreshFailure, Name: "authgate_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: authgate.MetricLogout, Name: "authgate_logout_total", Help: "Logout operations."},
	{ID: authgate.MetricAccountCreated, Name: "authgate_account_created_total", Help: "Successful account creations."},
	{ID: authgate.MetricAccountDuplicate, Name: "authgate_account_duplicate_total", Help: "Account creations rejected as duplicate."},
	{ID: authgate.MetricPasswordChangeSuccess, Name: "authgate_password_change_success_total", Help: "Successful password changes."},
	{ID: authgate.MetricPasswordChangeFailure, Name: "authgate_password_change_failure_total", Help: "Rejected password changes."},
	{ID: authgate.MetricVerificationRequested, Name: "authgate_verification_requested_total", Help: "Issued email verification tokens."},
	{ID: authgate.MetricVerificationSuccess, Name: "authgate_verification_success_total", Help: "Consumed email verification tokens."},
	{ID: authgate.MetricVerificationFailure, Name: "authgate_verification_failure_total", Help: "Rejected email verification tokens."},
	{ID: authgate.MetricResetRequested, Name: "authgate_reset_requested_total", Help: "Issued password reset tokens."},
	{ID: authgate.MetricResetSuccess, Name: "authgate_reset_success_total", Help: "Consumed password reset tokens."},
	{ID: authgate.MetricResetFailure, Name: "authgate_reset_failure_total", Help: "Rejected password reset tokens."},
	{ID: authgate.MetricPermissionDenied, Name: "authgate_permission_denied_total", Help: "Failed permission checks."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricAuthenticateLatency, Name: "authgate_authenticate_latency_seconds", Help: "Access token validation latency histogram."},
}

// HistogramBoundSuffix carries the metric-name-safe bucket labels, one per
// engine histogram bucket.
var HistogramBoundSuffix = []string{
	"0_00005",
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_0025",
	"0_005",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// exporters publish.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

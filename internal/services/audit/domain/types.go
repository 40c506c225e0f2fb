// Package domain defines the audit event model
package domain

// Event types, one constant per auditable state change
const (
	EventMemberInvited  = "member.invited"
	EventMemberAccepted = "member.accepted"
	EventMemberRejected = "member.rejected"
	EventMemberRemoved  = "member.removed"
	EventMemberUpdated  = "member.updated"

	EventTenantCreated = "tenant.created"
	EventTenantUpdated = "tenant.updated"

	EventJobEnqueued  = "job.enqueued"
	EventJobCancelled = "job.cancelled"
	EventJobRequeued  = "job.requeued"

	EventScheduleGenerated = "schedule.generated"
	EventSchedulePublished = "schedule.published"
	EventScheduleDeleted   = "schedule.deleted"
	EventScheduleArchived  = "schedule.archived"

	EventFileCreated = "file.created"
	EventFileDeleted = "file.deleted"
)

// Event is one append-only audit record
// TenantID and MemberID are empty for account-stage actions (sign-in, tenant listing)
type Event struct {
	TenantID  string
	AccountID string
	MemberID  string
	Type      string
	Data      map[string]any
}

package payment

import (
	"strings"

	"rental-backend/internal/models"

	"github.com/google/uuid"
)

// View is a payment joined with the names shown next to it.
type View struct {
	models.Payment
	TenantName   string
	PropertyName string
}

// Filter selects payments by status and a case insensitive search over
// description, tenant name and property name.
type Filter struct {
	Status models.PaymentStatus
	Search string
}

func (f Filter) match(v *View) bool {
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(v.Description), q) ||
		strings.Contains(strings.ToLower(v.TenantName), q) ||
		strings.Contains(strings.ToLower(v.PropertyName), q)
}

// JoinViews resolves names for payments. Payments of deleted records keep
// empty names.
func JoinViews(payments []models.Payment, tenants []models.Tenant, properties []models.Property) []View {
	tenantNames := make(map[uuid.UUID]string, len(tenants))
	for _, t := range tenants {
		tenantNames[t.ID] = t.Name
	}
	propertyNames := make(map[uuid.UUID]string, len(properties))
	for _, p := range properties {
		propertyNames[p.ID] = p.Name
	}

	out := make([]View, 0, len(payments))
	for _, p := range payments {
		out = append(out, View{
			Payment:      p,
			TenantName:   tenantNames[p.TenantID],
			PropertyName: propertyNames[p.PropertyID],
		})
	}
	return out
}

// Apply keeps the views matching f, preserving order.
func (f Filter) Apply(views []View) []View {
	out := views[:0:0]
	for i := range views {
		if f.match(&views[i]) {
			out = append(out, views[i])
		}
	}
	return out
}
